// Package dictionary holds the read-only inputs of the forward projection:
// the segment lookup tables, the per-compartment response kernels and the
// thread partition of the intra-axonal segments.
//
// All types are plain slices owned by the caller. Nothing in this package
// copies or mutates them, and the projection engine relies on them staying
// unchanged for the duration of an invocation.
package dictionary

// MaxCompartments is the largest number of compartments of a single type
// (IC, EC or ISO) that the projection supports.
const MaxCompartments = 4

// MaxThreads is the largest number of IC workers a partition may address.
const MaxThreads = 16

// ICSegments describes the intra-axonal segments, one entry per
// fiber/voxel crossing. All four slices have the same length.
type ICSegments struct {
	// Fiber is the index of the fiber each segment belongs to.
	Fiber []uint32

	// Voxel is the linear voxel index the segment lies in.
	Voxel []uint32

	// Orientation is the discretized orientation of the segment,
	// used to select a block of the IC response kernels.
	Orientation []uint16

	// Length is the path length of the segment inside its voxel.
	Length []float32
}

// Len returns the number of IC segments.
func (s ICSegments) Len() int { return len(s.Fiber) }

// ECSegments describes the extra-axonal contributions.
type ECSegments struct {
	Voxel       []uint32
	Orientation []uint16
}

// Len returns the number of EC contributions.
func (s ECSegments) Len() int { return len(s.Voxel) }

// ISOSegments describes the isotropic contributions. Isotropic responses
// have no directional dependence so only the voxel is recorded.
type ISOSegments struct {
	Voxel []uint32
}

// Len returns the number of ISO contributions.
func (s ISOSegments) Len() int { return len(s.Voxel) }

// Dictionary groups the segment tables with the shape of the output volume.
type Dictionary struct {
	IC  ICSegments
	EC  ECSegments
	ISO ISOSegments

	// Dim is the spatial extent (x, y, z) of the output volume in voxels.
	Dim [3]int
}

// NumVoxels returns the number of voxels of the output volume.
func (d *Dictionary) NumVoxels() int {
	return d.Dim[0] * d.Dim[1] * d.Dim[2]
}

// Kernels holds the precomputed response templates. Each IC and EC kernel
// is a sequence of NumSamples-long blocks, one per discretized orientation.
// Each ISO kernel is a single NumSamples-long block.
type Kernels struct {
	NumSamples int
	IC         [][]float64
	EC         [][]float64
	ISO        [][]float64
}

// Partition assigns a worker id to every IC segment. Segments with
// different ids must never share a voxel.
type Partition []uint8

// Counts is the number of compartments of each type.
type Counts struct {
	IC  int
	EC  int
	ISO int
}

// CoefficientLen returns the length of a coefficient vector for the given
// counts and number of fibers, EC contributions and ISO contributions.
func (c Counts) CoefficientLen(nF, nE, nV int) int {
	return c.IC*nF + c.EC*nE + c.ISO*nV
}

// NumFibers derives the number of fibers from the coefficient vector
// length. It returns 0 when there are no IC compartments.
func (c Counts) NumFibers(xLen, nE, nV int) int {
	if c.IC == 0 {
		return 0
	}
	return (xLen - nE*c.EC - nV*c.ISO) / c.IC
}
