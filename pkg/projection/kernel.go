package projection

import "tractoproj/pkg/dictionary"

// slots is the set of fixed-size coefficient holders, one per non-zero
// compartment count. Each phase is instantiated once per holder so that the
// compartment loop has a compile-time trip count and no per-entry checks of
// the configured count. A count of zero has no phase at all.
type slots interface {
	[1]float64 | [2]float64 | [3]float64 | [4]float64
}

// kernelSet is one kernel slice per compartment of a single type.
type kernelSet [dictionary.MaxCompartments][]float64

// loadCoefficients gathers the coefficients of one entry. Compartment c of
// the entry lives at x[base+c*stride]. Only strictly positive coefficients
// are kept; the others stay zero. The second result reports whether any
// coefficient was kept.
func loadCoefficients[K slots](x []float64, base, stride int) (K, bool) {
	var k K
	active := false
	for c := 0; c < len(k); c++ {
		if v := x[base+c*stride]; v > 0 {
			k[c] = v
			active = true
		}
	}
	return k, active
}

// accumulate adds w * sum_c k[c]*kernels[c][off+s] into dst[s] for every
// sample s. The compartment sum is formed first, in compartment order, and
// scaled afterwards.
func accumulate[K slots](dst []float64, k K, kernels *kernelSet, off int, w float64) {
	for s := range dst {
		var sum float64
		for c := 0; c < len(k); c++ {
			sum += k[c] * kernels[c][off+s]
		}
		dst[s] += w * sum
	}
}
