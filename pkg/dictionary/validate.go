package dictionary

import (
	"golang.org/x/sync/errgroup"
)

// Validate checks every boundary array against the configured compartment
// counts and thread count. It is the checked mode of the projection and is
// never called from the hot path.
//
// Shape problems are reported first. Index checks of the IC, partition, EC
// and ISO arrays then run concurrently; when several fail, the first in that
// order is returned.
// Every failure is either wrapped ErrShape, an *IndexError or an
// *OverlapError.
func Validate(counts Counts, threads int, dict *Dictionary, kernels *Kernels, part Partition, xLen int) error {
	if err := validateShapes(counts, dict, kernels, part, xLen); err != nil {
		return err
	}

	nVoxels := dict.NumVoxels()
	nS := kernels.NumSamples
	nF := counts.NumFibers(xLen, dict.EC.Len(), dict.ISO.Len())

	// failures are reported in slot order
	const (
		icSlot = iota
		partitionSlot
		ecSlot
		isoSlot
		numSlots
	)
	var errs [numSlots]error
	var g errgroup.Group
	check := func(slot int, fn func() error) {
		g.Go(func() error {
			errs[slot] = fn()
			return errs[slot]
		})
	}

	if counts.IC > 0 {
		check(icSlot, func() error {
			if err := checkIndices("IC.Voxel", dict.IC.Voxel, nVoxels); err != nil {
				return err
			}
			if err := checkOrientations("IC.Orientation", dict.IC.Orientation, orientationLimit(kernels.IC[:counts.IC], nS)); err != nil {
				return err
			}
			return checkIndices("IC.Fiber", dict.IC.Fiber, nF)
		})
		check(partitionSlot, func() error {
			for i, t := range part {
				if int(t) >= threads {
					return &IndexError{Field: "Partition", Index: i, Value: int(t), Limit: threads}
				}
			}
			return nil
		})
	}
	if counts.EC > 0 {
		check(ecSlot, func() error {
			if err := checkIndices("EC.Voxel", dict.EC.Voxel, nVoxels); err != nil {
				return err
			}
			return checkOrientations("EC.Orientation", dict.EC.Orientation, orientationLimit(kernels.EC[:counts.EC], nS))
		})
	}
	if counts.ISO > 0 {
		check(isoSlot, func() error {
			return checkIndices("ISO.Voxel", dict.ISO.Voxel, nVoxels)
		})
	}
	if g.Wait() != nil {
		for _, err := range errs {
			if err != nil {
				return err
			}
		}
	}

	if counts.IC > 0 {
		return CheckPartition(dict.IC, part)
	}
	return nil
}

func validateShapes(counts Counts, dict *Dictionary, kernels *Kernels, part Partition, xLen int) error {
	if dict.Dim[0] <= 0 || dict.Dim[1] <= 0 || dict.Dim[2] <= 0 {
		return shapeErrorf("volume dimensions %v must be positive", dict.Dim)
	}
	nS := kernels.NumSamples
	if nS <= 0 {
		return shapeErrorf("number of samples %d must be positive", nS)
	}

	n := dict.IC.Len()
	if len(dict.IC.Voxel) != n || len(dict.IC.Orientation) != n || len(dict.IC.Length) != n {
		return shapeErrorf("IC arrays have lengths fiber=%d voxel=%d orientation=%d length=%d",
			n, len(dict.IC.Voxel), len(dict.IC.Orientation), len(dict.IC.Length))
	}
	if counts.IC > 0 && len(part) != n {
		return shapeErrorf("partition has %d entries for %d IC segments", len(part), n)
	}
	if len(dict.EC.Orientation) != dict.EC.Len() {
		return shapeErrorf("EC arrays have lengths voxel=%d orientation=%d", dict.EC.Len(), len(dict.EC.Orientation))
	}

	if err := checkKernels("IC", kernels.IC, counts.IC, nS, false); err != nil {
		return err
	}
	if err := checkKernels("EC", kernels.EC, counts.EC, nS, false); err != nil {
		return err
	}
	if err := checkKernels("ISO", kernels.ISO, counts.ISO, nS, true); err != nil {
		return err
	}

	nE, nV := dict.EC.Len(), dict.ISO.Len()
	nF := counts.NumFibers(xLen, nE, nV)
	if want := counts.CoefficientLen(nF, nE, nV); want != xLen || nF < 0 {
		return shapeErrorf("coefficient vector has %d entries, not a valid layout for %d IC, %d EC and %d ISO compartments",
			xLen, counts.IC, counts.EC, counts.ISO)
	}
	return nil
}

func checkKernels(name string, kernels [][]float64, count, nS int, isotropic bool) error {
	if len(kernels) < count {
		return shapeErrorf("%d %s kernels for %d compartments", len(kernels), name, count)
	}
	for c := 0; c < count; c++ {
		l := len(kernels[c])
		switch {
		case isotropic && l != nS:
			return shapeErrorf("%s kernel %d has %d samples, want %d", name, c, l, nS)
		case !isotropic && (l == 0 || l%nS != 0):
			return shapeErrorf("%s kernel %d has %d samples, not a multiple of %d", name, c, l, nS)
		}
	}
	return nil
}

// orientationLimit is the number of orientations every kernel can serve.
func orientationLimit(kernels [][]float64, nS int) int {
	limit := -1
	for _, k := range kernels {
		if n := len(k) / nS; limit < 0 || n < limit {
			limit = n
		}
	}
	return limit
}

func checkIndices(field string, idx []uint32, limit int) error {
	for i, v := range idx {
		if int(v) >= limit {
			return &IndexError{Field: field, Index: i, Value: int(v), Limit: limit}
		}
	}
	return nil
}

func checkOrientations(field string, idx []uint16, limit int) error {
	for i, o := range idx {
		if int(o) >= limit {
			return &IndexError{Field: field, Index: i, Value: int(o), Limit: limit}
		}
	}
	return nil
}
