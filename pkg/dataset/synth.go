package dataset

import (
	"fmt"
	"math/rand/v2"

	"tractoproj/pkg/dictionary"
)

// SynthParams controls Synthesize.
type SynthParams struct {
	Dim             [3]int
	NumSamples      int
	NumOrientations int
	Counts          dictionary.Counts
	Threads         int

	// Fibers is the number of fibers; each walks SegmentsPerFiber voxels.
	Fibers           int
	SegmentsPerFiber int

	// ECPerVoxel and ISOPerVoxel are the probabilities that a voxel gets an
	// EC or ISO contribution.
	ECPerVoxel  float64
	ISOPerVoxel float64

	// Density is the probability that a coefficient is strictly positive.
	// The remaining coefficients are zero or negative with equal odds.
	Density float64

	Seed uint64
}

// DefaultSynthParams returns a small problem that exercises every phase.
func DefaultSynthParams() SynthParams {
	return SynthParams{
		Dim:              [3]int{16, 16, 8},
		NumSamples:       32,
		NumOrientations:  181,
		Counts:           dictionary.Counts{IC: 2, EC: 1, ISO: 2},
		Threads:          4,
		Fibers:           200,
		SegmentsPerFiber: 12,
		ECPerVoxel:       0.5,
		ISOPerVoxel:      1,
		Density:          0.7,
		Seed:             1,
	}
}

// Synthesize builds a random but well-formed problem: fibers are random
// walks through the volume, kernels are uniform in [0, 1) and the partition
// is voxel-disjoint.
func Synthesize(p SynthParams) (*Problem, error) {
	if p.Dim[0] <= 0 || p.Dim[1] <= 0 || p.Dim[2] <= 0 {
		return nil, fmt.Errorf("volume dimensions %v must be positive", p.Dim)
	}
	if p.NumSamples <= 0 || p.NumOrientations <= 0 {
		return nil, fmt.Errorf("need at least one sample and one orientation, got %d and %d", p.NumSamples, p.NumOrientations)
	}
	if p.NumOrientations > 1<<16 {
		return nil, fmt.Errorf("%d orientations do not fit a 16-bit index", p.NumOrientations)
	}

	rng := rand.New(rand.NewPCG(p.Seed, p.Seed^0x9e3779b97f4a7c15))
	dict := &dictionary.Dictionary{Dim: p.Dim}
	nVoxels := dict.NumVoxels()

	for f := 0; f < p.Fibers; f++ {
		pos := [3]int{rng.IntN(p.Dim[0]), rng.IntN(p.Dim[1]), rng.IntN(p.Dim[2])}
		for s := 0; s < p.SegmentsPerFiber; s++ {
			dict.IC.Fiber = append(dict.IC.Fiber, uint32(f))
			dict.IC.Voxel = append(dict.IC.Voxel, uint32(linearIndex(pos, p.Dim)))
			dict.IC.Orientation = append(dict.IC.Orientation, uint16(rng.IntN(p.NumOrientations)))
			dict.IC.Length = append(dict.IC.Length, float32(0.05+0.95*rng.Float64()))

			axis := rng.IntN(3)
			pos[axis] = clamp(pos[axis]+2*rng.IntN(2)-1, 0, p.Dim[axis]-1)
		}
	}

	for v := 0; v < nVoxels; v++ {
		if rng.Float64() < p.ECPerVoxel {
			dict.EC.Voxel = append(dict.EC.Voxel, uint32(v))
			dict.EC.Orientation = append(dict.EC.Orientation, uint16(rng.IntN(p.NumOrientations)))
		}
		if rng.Float64() < p.ISOPerVoxel {
			dict.ISO.Voxel = append(dict.ISO.Voxel, uint32(v))
		}
	}

	kernels := &dictionary.Kernels{
		NumSamples: p.NumSamples,
		IC:         randomKernels(rng, p.Counts.IC, p.NumOrientations*p.NumSamples),
		EC:         randomKernels(rng, p.Counts.EC, p.NumOrientations*p.NumSamples),
		ISO:        randomKernels(rng, p.Counts.ISO, p.NumSamples),
	}

	xLen := p.Counts.CoefficientLen(p.Fibers, dict.EC.Len(), dict.ISO.Len())
	x := make([]float64, xLen)
	for i := range x {
		switch r := rng.Float64(); {
		case r < p.Density:
			x[i] = rng.Float64() + 1e-3
		case r < p.Density+(1-p.Density)/2:
			x[i] = 0
		default:
			x[i] = -rng.Float64()
		}
	}

	threads := min(max(p.Threads, 1), dictionary.MaxThreads)
	return &Problem{
		Counts:     p.Counts,
		Dictionary: dict,
		Kernels:    kernels,
		Partition:  PartitionByVoxel(dict.IC, threads),
		X:          x,
		Threads:    threads,
	}, nil
}

func randomKernels(rng *rand.Rand, count, size int) [][]float64 {
	kernels := make([][]float64, count)
	for c := range kernels {
		kernels[c] = make([]float64, size)
		for i := range kernels[c] {
			kernels[c][i] = rng.Float64()
		}
	}
	return kernels
}

// linearIndex follows the x-fastest voxel ordering of the output volume.
func linearIndex(pos, dim [3]int) int {
	return pos[0] + dim[0]*(pos[1]+dim[1]*pos[2])
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
