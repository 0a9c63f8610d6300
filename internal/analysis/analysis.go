// Package analysis measures simple properties of interleaved audio, used to
// report what a conversion did.
package analysis

import (
	"math"
	"math/cmplx"
	"time"

	"github.com/tphakala/simd/f64"
	"gonum.org/v1/gonum/dsp/fourier"
)

// maxFFTSize bounds the analysis window for DominantFrequency.
const maxFFTSize = 1 << 16

// Summary describes an interleaved signal.
type Summary struct {
	Frames      int
	Duration    time.Duration
	RMS         float64
	Peak        float64
	DominantHz  float64
	SampleRate  int
	NumChannels int
}

// Summarize computes a Summary of the interleaved samples.
func Summarize(samples []float64, sampleRate, numChannels int) Summary {
	frames := 0
	if numChannels > 0 {
		frames = len(samples) / numChannels
	}
	return Summary{
		Frames:      frames,
		Duration:    Duration(frames, sampleRate),
		RMS:         RMS(samples),
		Peak:        Peak(samples),
		DominantHz:  DominantFrequency(samples, sampleRate, numChannels),
		SampleRate:  sampleRate,
		NumChannels: numChannels,
	}
}

// Duration returns the playing time of frames at sampleRate.
func Duration(frames, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(frames) / float64(sampleRate) * float64(time.Second))
}

// RMS returns the root mean square of the samples.
func RMS(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}
	energy := f64.DotProductUnsafe(samples, samples)
	return math.Sqrt(energy / float64(len(samples)))
}

// Peak returns the largest absolute sample value.
func Peak(samples []float64) float64 {
	var peak float64
	for _, v := range samples {
		peak = max(peak, math.Abs(v))
	}
	return peak
}

// DominantFrequency returns the frequency in Hz of the strongest spectral
// peak of the mono mix, ignoring DC. The analysis uses a Hann window over
// at most the first maxFFTSize frames. It returns 0 for silent or empty input.
func DominantFrequency(samples []float64, sampleRate, numChannels int) float64 {
	if numChannels < 1 || sampleRate <= 0 {
		return 0
	}
	frames := min(len(samples)/numChannels, maxFFTSize)
	if frames < 4 {
		return 0
	}

	mono := make([]float64, frames)
	for i := range mono {
		frame := samples[i*numChannels : i*numChannels+numChannels]
		mono[i] = f64.Sum(frame) / float64(numChannels)
	}
	applyHann(mono)

	fft := fourier.NewFFT(frames)
	coeffs := fft.Coefficients(nil, mono)

	best, bestMag := 0, 0.0
	for k := 1; k < len(coeffs); k++ {
		if mag := cmplx.Abs(coeffs[k]); mag > bestMag {
			best, bestMag = k, mag
		}
	}
	if best == 0 {
		return 0
	}

	// Parabolic interpolation between neighbouring bins.
	offset := 0.0
	if best > 1 && best < len(coeffs)-1 {
		a := cmplx.Abs(coeffs[best-1])
		b := bestMag
		c := cmplx.Abs(coeffs[best+1])
		if denom := a - 2*b + c; denom != 0 {
			offset = 0.5 * (a - c) / denom
		}
	}

	return (float64(best) + offset) * float64(sampleRate) / float64(frames)
}

func applyHann(x []float64) {
	n := len(x)
	for i := range x {
		x[i] *= 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
	}
}
