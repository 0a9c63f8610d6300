// Package engine implements the signal processing stages of a sonic stream:
// linear-interpolation rate conversion, pitch period search and
// pitch-synchronous overlap-add time scaling.
package engine

import (
	"math"

	"github.com/tphakala/go-audio-sonic/internal/buffer"
)

// RateConverter resamples interleaved frames by linear interpolation.
//
// A factor f > 1 shortens the signal (and raises its pitch), f < 1 lengthens
// it. Output frame i is taken at input position i*f, so L input frames give
// floor(L/f) output frames regardless of how the input is chunked.
type RateConverter struct {
	channels int
	factor   float64

	// Position bookkeeping for the current factor. Output frame k of this
	// epoch sits at input position origin + k*factor, measured in frames
	// since the converter was reset. consumed counts frames already removed
	// from the input buffer.
	origin   float64
	emitted  int64
	consumed int64

	scratch []float64
}

// NewRateConverter creates a converter for the given channel count and factor.
func NewRateConverter(channels int, factor float64) *RateConverter {
	return &RateConverter{
		channels: channels,
		factor:   factor,
	}
}

// Factor returns the current conversion factor.
func (r *RateConverter) Factor() float64 {
	return r.factor
}

// SetFactor changes the conversion factor. The next output frame keeps the
// position the old factor would have given it.
func (r *RateConverter) SetFactor(factor float64) {
	if factor == r.factor {
		return
	}
	r.origin = r.position()
	r.emitted = 0
	r.factor = factor
}

// Reset clears the interpolation position.
func (r *RateConverter) Reset() {
	r.origin = 0
	r.emitted = 0
	r.consumed = 0
}

// position returns the absolute input position of the next output frame.
func (r *RateConverter) position() float64 {
	return r.origin + float64(r.emitted)*r.factor
}

// Process converts frames from in and appends the result to out. Frames that
// are no longer needed are consumed from in. Without final, the converter
// waits for the right-hand neighbour of every interpolated frame; with final
// the last input frame stands in for it.
func (r *RateConverter) Process(in, out *buffer.SampleBuffer, final bool) error {
	n := in.Available()
	if n == 0 {
		return nil
	}

	if r.isUnity() {
		// Fast path: no interpolation, and the position restarts at the
		// next frame boundary.
		if _, err := in.MoveTo(out, n); err != nil {
			return err
		}
		r.consumed += int64(n)
		r.origin = float64(r.consumed)
		r.emitted = 0
		return nil
	}

	data := in.Samples()
	ch := r.channels
	base := float64(r.consumed)
	limit := (float64(r.consumed+int64(n)) - r.origin) / r.factor

	r.scratch = r.scratch[:0]
	for float64(r.emitted+1) <= limit {
		pos := r.position() - base
		i0 := int(pos)
		if i0+1 >= n && !final {
			break
		}
		r.scratch = appendInterpolated(r.scratch, data, ch, n, pos)
		r.emitted++
	}

	if len(r.scratch) > 0 {
		if err := out.Append(r.scratch); err != nil {
			return err
		}
	}

	// Keep the left neighbour of the next output frame.
	drop := min(int(r.position()-base), n)
	if drop > 0 {
		in.Consume(drop)
		r.consumed += int64(drop)
	}
	return nil
}

func (r *RateConverter) isUnity() bool {
	return math.Abs(r.factor-1) < unityTolerance
}

// Resample converts a whole interleaved signal by factor and returns
// floor(L/factor) frames for L input frames. A factor of 1 returns a copy.
func Resample(src []float64, channels int, factor float64) []float64 {
	if channels < 1 || len(src) < channels {
		return []float64{}
	}
	n := len(src) / channels

	if factor == 1 {
		out := make([]float64, n*channels)
		copy(out, src)
		return out
	}

	count := int(math.Floor(float64(n) / factor))
	out := make([]float64, 0, count*channels)
	for i := range count {
		out = appendInterpolated(out, src, channels, n, float64(i)*factor)
	}
	return out
}

// appendInterpolated appends the frame at fractional position pos of the
// n-frame interleaved signal data. The right neighbour is clamped to the
// last frame.
func appendInterpolated(dst, data []float64, channels, n int, pos float64) []float64 {
	i0 := min(int(pos), n-1)
	i1 := min(i0+1, n-1)
	frac := pos - float64(i0)

	left := data[i0*channels : i0*channels+channels]
	right := data[i1*channels : i1*channels+channels]
	for c := range channels {
		// Linear interpolation: y = (1-x)*left + x*right
		dst = append(dst, left[c]+(right[c]-left[c])*frac)
	}
	return dst
}
