// Package testutil provides reusable test helpers for the sonic stream tests.
package testutil

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// DefaultTolerance is the absolute tolerance for exact-arithmetic checks.
const DefaultTolerance = 1e-10

// Sine returns frames of an interleaved sine tone at freq Hz with the same
// signal on every channel.
func Sine(freq float64, sampleRate, frames, channels int, amplitude float64) []float64 {
	out := make([]float64, frames*channels)
	for i := range frames {
		v := amplitude * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
		for c := range channels {
			out[i*channels+c] = v
		}
	}
	return out
}

// Ramp returns n samples counting up from 0 in steps of 1.
func Ramp(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i)
	}
	return out
}

// AssertNoNaNOrInf verifies that no elements in the slice are NaN or Inf.
func AssertNoNaNOrInf(t *testing.T, s []float64, msgAndArgs ...any) bool {
	t.Helper()
	for i, v := range s {
		if math.IsNaN(v) {
			return assert.Fail(t, "found NaN", "s[%d] is NaN", i)
		}
		if math.IsInf(v, 0) {
			return assert.Fail(t, "found Inf", "s[%d] is Inf", i)
		}
	}
	return true
}

// AssertAllInRange verifies that all elements are within [min, max].
func AssertAllInRange(t *testing.T, s []float64, minVal, maxVal float64, msgAndArgs ...any) bool {
	t.Helper()
	for i, v := range s {
		if v < minVal || v > maxVal {
			return assert.Fail(t, "value out of range",
				"s[%d]=%f is outside range [%f, %f]", i, v, minVal, maxVal)
		}
	}
	return true
}

// AssertSilent verifies that every element is exactly zero.
func AssertSilent(t *testing.T, s []float64, msgAndArgs ...any) bool {
	t.Helper()
	for i, v := range s {
		if v != 0 {
			return assert.Fail(t, "signal not silent", "s[%d]=%g", i, v)
		}
	}
	return true
}

// AssertRelativeError verifies that the relative error between actual and expected is within tolerance.
func AssertRelativeError(t *testing.T, expected, actual, tolerance float64, msgAndArgs ...any) bool {
	t.Helper()
	if expected == 0 {
		return assert.InDelta(t, expected, actual, tolerance, msgAndArgs...)
	}
	relError := math.Abs(actual-expected) / math.Abs(expected)
	return assert.LessOrEqual(t, relError, tolerance,
		"relative error %e exceeds tolerance %e (expected=%f, actual=%f)",
		relError, tolerance, expected, actual)
}
