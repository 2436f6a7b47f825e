package projection

import (
	"tractoproj/pkg/dictionary"
)

// projContext is everything one invocation reads, built once and shared by
// every worker and phase. Only the accumulator y is written.
type projContext struct {
	dict *dictionary.Dictionary
	part dictionary.Partition

	ic  *kernelSet
	ec  *kernelSet
	iso *kernelSet

	x []float64
	y []float64

	nS int
	nF int
	nE int
	nV int

	// offsets of the EC and ISO blocks inside x
	ecOffset  int
	isoOffset int
}

// entryCounts tallies how many entries a phase accumulated and how many it
// skipped because none of their coefficients were positive.
type entryCounts struct {
	active  int
	skipped int
}

// icTask is the payload handed to one IC worker.
type icTask struct {
	thread int
	ctx    *projContext
	counts *entryCounts
}

type icPhaseFunc func(icTask)

type sequentialPhaseFunc func(*projContext) entryCounts

// runICWorker scans every IC segment in index order and accumulates the
// segments assigned to the task's thread. Writes go straight into the shared
// accumulator without synchronization; the partition guarantees no other
// worker touches the same voxels.
func runICWorker[K slots](t icTask) {
	ctx := t.ctx
	ic := ctx.dict.IC
	id := uint8(t.thread)
	nS := ctx.nS
	n := ic.Len()

	var counts entryCounts
	for i := 0; i < n; i++ {
		if ctx.part[i] != id {
			continue
		}
		k, ok := loadCoefficients[K](ctx.x, int(ic.Fiber[i]), ctx.nF)
		if !ok {
			counts.skipped++
			continue
		}
		counts.active++

		v := int(ic.Voxel[i]) * nS
		accumulate(ctx.y[v:v+nS], k, ctx.ic, int(ic.Orientation[i])*nS, float64(ic.Length[i]))
	}
	*t.counts = counts
}

// runECPhase accumulates the extra-axonal contributions in array order.
// EC responses are not weighted by a path length.
func runECPhase[K slots](ctx *projContext) entryCounts {
	ec := ctx.dict.EC
	nS := ctx.nS

	var counts entryCounts
	for j := 0; j < ctx.nE; j++ {
		k, ok := loadCoefficients[K](ctx.x, ctx.ecOffset+j, ctx.nE)
		if !ok {
			counts.skipped++
			continue
		}
		counts.active++

		v := int(ec.Voxel[j]) * nS
		accumulate(ctx.y[v:v+nS], k, ctx.ec, int(ec.Orientation[j])*nS, 1)
	}
	return counts
}

// runISOPhase accumulates the isotropic contributions in array order. Every
// ISO kernel is a single block, so there is no orientation offset.
func runISOPhase[K slots](ctx *projContext) entryCounts {
	iso := ctx.dict.ISO
	nS := ctx.nS

	var counts entryCounts
	for j := 0; j < ctx.nV; j++ {
		k, ok := loadCoefficients[K](ctx.x, ctx.isoOffset+j, ctx.nV)
		if !ok {
			counts.skipped++
			continue
		}
		counts.active++

		v := int(iso.Voxel[j]) * nS
		accumulate(ctx.y[v:v+nS], k, ctx.iso, 0, 1)
	}
	return counts
}

// icPhaseFor returns the IC worker for n compartments, or nil when there
// are none and no workers should be started.
func icPhaseFor(n int) icPhaseFunc {
	switch n {
	case 1:
		return runICWorker[[1]float64]
	case 2:
		return runICWorker[[2]float64]
	case 3:
		return runICWorker[[3]float64]
	case 4:
		return runICWorker[[4]float64]
	}
	return nil
}

func ecPhaseFor(n int) sequentialPhaseFunc {
	switch n {
	case 1:
		return runECPhase[[1]float64]
	case 2:
		return runECPhase[[2]float64]
	case 3:
		return runECPhase[[3]float64]
	case 4:
		return runECPhase[[4]float64]
	}
	return nil
}

func isoPhaseFor(n int) sequentialPhaseFunc {
	switch n {
	case 1:
		return runISOPhase[[1]float64]
	case 2:
		return runISOPhase[[2]float64]
	case 3:
		return runISOPhase[[3]float64]
	case 4:
		return runISOPhase[[4]float64]
	}
	return nil
}
