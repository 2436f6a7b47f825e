package projection

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes a predicted signal volume.
type Summary struct {
	Mean   float64
	StdDev float64
	Max    float64

	// ActiveVoxels is the number of voxels with at least one non-zero sample.
	ActiveVoxels int

	// Voxels is the total number of voxels in the signal.
	Voxels int
}

// Summarize computes a Summary of a signal with nS samples per voxel.
func Summarize(signal []float64, nS int) Summary {
	var sum Summary
	if len(signal) == 0 || nS <= 0 {
		return sum
	}

	sum.Voxels = len(signal) / nS
	sum.Max = floats.Max(signal)
	if len(signal) > 1 {
		sum.Mean, sum.StdDev = stat.MeanStdDev(signal, nil)
	} else {
		sum.Mean = signal[0]
	}

	for v := 0; v < sum.Voxels; v++ {
		block := signal[v*nS : (v+1)*nS]
		if floats.Min(block) != 0 || floats.Max(block) != 0 {
			sum.ActiveVoxels++
		}
	}
	return sum
}
