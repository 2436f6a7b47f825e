package models

// DatasetFile is the YAML document holding one projection problem: the
// dictionary, its response kernels, the worker partition and a coefficient
// vector.
type DatasetFile struct {
	// Dim is the spatial extent of the output volume in voxels
	Dim [3]int `yaml:"dim"`

	// NumSamples is the number of signal samples per voxel
	NumSamples int `yaml:"numSamples"`

	// Compartments records the counts the coefficient vector was laid out for
	Compartments CompartmentCounts `yaml:"compartments"`

	IC  ICTable  `yaml:"ic"`
	EC  ECTable  `yaml:"ec"`
	ISO ISOTable `yaml:"iso"`

	Kernels KernelTable `yaml:"kernels"`

	// Threads is the number of workers the partition was built for
	Threads int `yaml:"threads"`

	// Partition holds one worker id per IC segment, each below Threads
	Partition []int `yaml:"partition"`

	// Coefficients is the vector x the projection is applied to
	Coefficients []float64 `yaml:"x"`
}

// CompartmentCounts is the number of compartments of each type
type CompartmentCounts struct {
	IC  int `yaml:"ic"`
	EC  int `yaml:"ec"`
	ISO int `yaml:"iso"`
}

// ICTable lists the intra-axonal segments column by column
type ICTable struct {
	Fiber       []uint32  `yaml:"fiber"`
	Voxel       []uint32  `yaml:"voxel"`
	Orientation []uint16  `yaml:"orientation"`
	Length      []float32 `yaml:"length"`
}

// ECTable lists the extra-axonal contributions
type ECTable struct {
	Voxel       []uint32 `yaml:"voxel"`
	Orientation []uint16 `yaml:"orientation"`
}

// ISOTable lists the isotropic contributions
type ISOTable struct {
	Voxel []uint32 `yaml:"voxel"`
}

// KernelTable holds the response templates of every compartment
type KernelTable struct {
	IC  [][]float64 `yaml:"ic"`
	EC  [][]float64 `yaml:"ec"`
	ISO [][]float64 `yaml:"iso"`
}
