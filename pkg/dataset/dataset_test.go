package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tractoproj/pkg/dictionary"
)

func smallParams() SynthParams {
	p := DefaultSynthParams()
	p.Dim = [3]int{6, 5, 4}
	p.NumSamples = 4
	p.NumOrientations = 9
	p.Fibers = 25
	p.SegmentsPerFiber = 5
	return p
}

func TestSynthesizeProducesValidProblem(t *testing.T) {
	params := smallParams()
	p, err := Synthesize(params)
	require.NoError(t, err)

	assert.Equal(t, params.Fibers*params.SegmentsPerFiber, p.Dictionary.IC.Len())
	assert.Len(t, p.Partition, p.Dictionary.IC.Len())
	assert.Equal(t, params.Counts, p.Counts)
	assert.NoError(t, dictionary.Validate(p.Counts, params.Threads, p.Dictionary, p.Kernels, p.Partition, len(p.X)))
}

func TestSynthesizeIsDeterministic(t *testing.T) {
	a, err := Synthesize(smallParams())
	require.NoError(t, err)
	b, err := Synthesize(smallParams())
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestSynthesizeRejectsBadParams(t *testing.T) {
	params := smallParams()
	params.Dim[1] = 0
	_, err := Synthesize(params)
	assert.Error(t, err)

	params = smallParams()
	params.NumSamples = 0
	_, err = Synthesize(params)
	assert.Error(t, err)
}

func TestSaveAndLoad(t *testing.T) {
	p, err := Synthesize(smallParams())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "nested", "dataset.yaml")
	require.NoError(t, Save(p, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, p.Counts, loaded.Counts)
	assert.Equal(t, p.Dictionary, loaded.Dictionary)
	assert.Equal(t, p.Partition, loaded.Partition)
	assert.Equal(t, p.Threads, loaded.Threads)
	assert.Equal(t, p.Kernels.NumSamples, loaded.Kernels.NumSamples)
	assert.InDeltaSlice(t, p.X, loaded.X, 1e-12)
}

func TestLoadRejectsBadPartition(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	doc := "dim: [2, 1, 1]\nnumSamples: 1\npartition: [0, 16]\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadThreads(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		threads int
		wantErr bool
	}{
		{"Declared", "threads: 4\npartition: [0, 1]\n", 4, false},
		{"Derived", "partition: [0, 2, 1]\n", 3, false},
		{"DerivedEmpty", "partition: []\n", 1, false},
		{"TooFewForPartition", "threads: 2\npartition: [0, 3]\n", 0, true},
		{"TooMany", "threads: 17\npartition: [0]\n", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "dataset.yaml")
			require.NoError(t, os.WriteFile(path, []byte("dim: [2, 1, 1]\nnumSamples: 1\n"+tt.doc), 0644))

			p, err := Load(path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.threads, p.Threads)
		})
	}
}

func TestSynthesizeRecordsThreads(t *testing.T) {
	params := smallParams()
	params.Threads = 3
	p, err := Synthesize(params)
	require.NoError(t, err)

	assert.Equal(t, 3, p.Threads)
	assert.LessOrEqual(t, RequiredThreads(p.Partition), p.Threads)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestPartitionByVoxel(t *testing.T) {
	ic := dictionary.ICSegments{
		Fiber: []uint32{0, 0, 0, 1, 1, 2, 2, 2},
		Voxel: []uint32{3, 3, 3, 3, 7, 7, 9, 1},
	}

	part := PartitionByVoxel(ic, 3)
	require.Len(t, part, len(ic.Voxel))
	require.NoError(t, dictionary.CheckPartition(ic, part))

	// voxel 3 (four segments) goes to worker 0, voxel 7 (two) to worker 1,
	// and voxels 1 and 9 (one each) both land on the lighter worker 2
	assert.Equal(t, dictionary.Partition{0, 0, 0, 0, 1, 1, 2, 2}, part)
}

func TestPartitionByVoxelClampsThreads(t *testing.T) {
	ic := dictionary.ICSegments{Voxel: []uint32{0, 1, 2}}
	assert.Equal(t, dictionary.Partition{0, 0, 0}, PartitionByVoxel(ic, 0))

	for _, id := range PartitionByVoxel(ic, 64) {
		assert.Less(t, int(id), dictionary.MaxThreads)
	}
}
