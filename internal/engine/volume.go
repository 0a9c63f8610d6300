package engine

import "github.com/tphakala/simd/f64"

// ScaleVolume multiplies samples in place by gain. A gain of 1 leaves the
// samples untouched.
func ScaleVolume(samples []float64, gain float64) {
	if gain == 1 || len(samples) == 0 {
		return
	}
	f64.Scale(samples, samples, gain)
}
