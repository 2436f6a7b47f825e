package projection

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"tractoproj/pkg/dictionary"
)

// MaxDenseElements bounds the size of the matrix DenseOperator will build.
const MaxDenseElements = 1 << 24

// ErrOperatorTooLarge is returned by DenseOperator when the explicit matrix
// would exceed MaxDenseElements entries.
var ErrOperatorTooLarge = errors.New("projection: dense operator too large")

// DenseOperator materializes the projection as an explicit matrix A with
// one row per (voxel, sample) and one column per coefficient of a vector of
// length xLen. For any x of that length, Project(x) equals A·x⁺ where x⁺
// replaces every non-positive coefficient by zero.
//
// It is meant for inspecting and testing small dictionaries.
func (e *Engine) DenseOperator(xLen int) (*mat.Dense, error) {
	rows, cols := e.SignalLen(), xLen
	if rows == 0 || cols == 0 {
		return nil, fmt.Errorf("%w: empty operator (%d x %d)", dictionary.ErrShape, rows, cols)
	}
	if rows*cols > MaxDenseElements {
		return nil, fmt.Errorf("%w: %d x %d exceeds %d entries", ErrOperatorTooLarge, rows, cols, MaxDenseElements)
	}

	counts := e.cfg.Counts
	nS := e.kernels.NumSamples
	ic, ec, iso := e.dict.IC, e.dict.EC, e.dict.ISO
	nE, nV := ec.Len(), iso.Len()
	nF := counts.NumFibers(xLen, nE, nV)

	a := mat.NewDense(rows, cols, nil)
	addBlock := func(voxel uint32, col int, kernel []float64, w float64) {
		r := int(voxel) * nS
		for s, k := range kernel {
			a.Set(r+s, col, a.At(r+s, col)+w*k)
		}
	}

	if counts.IC > 0 {
		for i := 0; i < ic.Len(); i++ {
			if int(e.part[i]) >= e.cfg.Threads {
				continue
			}
			off := int(ic.Orientation[i]) * nS
			for c := 0; c < counts.IC; c++ {
				addBlock(ic.Voxel[i], int(ic.Fiber[i])+c*nF, e.ic[c][off:off+nS], float64(ic.Length[i]))
			}
		}
	}
	for j := 0; j < nE && counts.EC > 0; j++ {
		off := int(ec.Orientation[j]) * nS
		for c := 0; c < counts.EC; c++ {
			addBlock(ec.Voxel[j], counts.IC*nF+c*nE+j, e.ec[c][off:off+nS], 1)
		}
	}
	for j := 0; j < nV && counts.ISO > 0; j++ {
		for c := 0; c < counts.ISO; c++ {
			addBlock(iso.Voxel[j], counts.IC*nF+counts.EC*nE+c*nV+j, e.iso[c][:nS], 1)
		}
	}
	return a, nil
}
