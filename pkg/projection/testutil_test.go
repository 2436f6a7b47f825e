package projection

import (
	"testing"

	"github.com/stretchr/testify/require"

	"tractoproj/pkg/dataset"
	"tractoproj/pkg/dictionary"
)

// synthProblem builds a small random problem with a voxel-disjoint partition
// for the given thread count.
func synthProblem(t testing.TB, counts dictionary.Counts, threads int, seed uint64) *dataset.Problem {
	t.Helper()
	params := dataset.DefaultSynthParams()
	params.Dim = [3]int{8, 6, 4}
	params.NumSamples = 7
	params.NumOrientations = 13
	params.Fibers = 40
	params.SegmentsPerFiber = 6
	params.Counts = counts
	params.Threads = threads
	params.Seed = seed

	p, err := dataset.Synthesize(params)
	require.NoError(t, err)
	return p
}

func newTestEngine(t testing.TB, p *dataset.Problem, threads int, opts ...Option) *Engine {
	t.Helper()
	cfg := Config{Counts: p.Counts, Threads: threads}
	e, err := NewEngine(cfg, p.Dictionary, p.Kernels, p.Partition, opts...)
	require.NoError(t, err)
	return e
}

// referenceProject is a straightforward single-threaded scan of all three
// compartment types.
func referenceProject(p *dataset.Problem, threads int) []float64 {
	d, k, c := p.Dictionary, p.Kernels, p.Counts
	nS := k.NumSamples
	nE, nV := d.EC.Len(), d.ISO.Len()
	nF := c.NumFibers(len(p.X), nE, nV)
	y := make([]float64, nS*d.NumVoxels())

	positive := func(v float64) float64 {
		if v > 0 {
			return v
		}
		return 0
	}

	for i := 0; i < d.IC.Len() && c.IC > 0; i++ {
		if int(p.Partition[i]) >= threads {
			continue
		}
		off, v := int(d.IC.Orientation[i])*nS, int(d.IC.Voxel[i])*nS
		for s := 0; s < nS; s++ {
			var sum float64
			for cc := 0; cc < c.IC; cc++ {
				sum += positive(p.X[int(d.IC.Fiber[i])+cc*nF]) * k.IC[cc][off+s]
			}
			y[v+s] += float64(d.IC.Length[i]) * sum
		}
	}
	for j := 0; j < nE && c.EC > 0; j++ {
		off, v := int(d.EC.Orientation[j])*nS, int(d.EC.Voxel[j])*nS
		for s := 0; s < nS; s++ {
			var sum float64
			for cc := 0; cc < c.EC; cc++ {
				sum += positive(p.X[c.IC*nF+cc*nE+j]) * k.EC[cc][off+s]
			}
			y[v+s] += sum
		}
	}
	for j := 0; j < nV && c.ISO > 0; j++ {
		v := int(d.ISO.Voxel[j]) * nS
		for s := 0; s < nS; s++ {
			var sum float64
			for cc := 0; cc < c.ISO; cc++ {
				sum += positive(p.X[c.IC*nF+c.EC*nE+cc*nV+j]) * k.ISO[cc][s]
			}
			y[v+s] += sum
		}
	}
	return y
}
