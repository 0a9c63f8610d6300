package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-audio-sonic/internal/buffer"
	"github.com/tphakala/go-audio-sonic/internal/testutil"
)

// =============================================================================
// One-shot resampling
// =============================================================================

func TestResample_OutputLength(t *testing.T) {
	factors := []float64{0.3, 0.5, 0.75, 1.5, 2, 2.5, 3, 1.0 / 3}
	lengths := []int{1, 2, 7, 100, 1001, 4096}

	for _, f := range factors {
		for _, l := range lengths {
			for _, ch := range []int{1, 2} {
				out := Resample(make([]float64, l*ch), ch, f)
				want := int(math.Floor(float64(l) / f))
				assert.Len(t, out, want*ch, "factor=%v len=%d channels=%d", f, l, ch)
			}
		}
	}
}

func TestResample_UnityIsIdentity(t *testing.T) {
	input := testutil.Sine(440, 8000, 500, 2, 0.8)

	out := Resample(input, 2, 1)
	assert.Equal(t, input, out)

	out[0] = 42
	assert.NotEqual(t, 42.0, input[0], "unity output must be a copy")
}

func TestResample_LinearInterpolation(t *testing.T) {
	ramp := testutil.Ramp(10)

	// Halving the factor places output frames at 0, 0.5, 1.0, ...
	out := Resample(ramp, 1, 0.5)
	require.Len(t, out, 20)
	for i, v := range out[:18] {
		assert.InDelta(t, float64(i)*0.5, v, testutil.DefaultTolerance, "out[%d]", i)
	}
	// The last frames clamp to the final input frame.
	assert.InDelta(t, 9.0, out[19], testutil.DefaultTolerance)

	out = Resample(ramp, 1, 2)
	assert.Equal(t, []float64{0, 2, 4, 6, 8}, out)
}

func TestResample_EmptyAndInvalid(t *testing.T) {
	assert.Empty(t, Resample(nil, 1, 2))
	assert.Empty(t, Resample([]float64{1}, 2, 2), "less than one frame")
	assert.Empty(t, Resample([]float64{1, 2}, 0, 2))
}

// =============================================================================
// Streaming conversion
// =============================================================================

func streamResample(t *testing.T, input []float64, channels int, factor float64, chunkFrames int) []float64 {
	t.Helper()

	conv := NewRateConverter(channels, factor)
	in := buffer.New(channels, 64)
	out := buffer.New(channels, 64)

	for start := 0; start < len(input); start += chunkFrames * channels {
		end := min(start+chunkFrames*channels, len(input))
		require.NoError(t, in.Append(input[start:end]))
		require.NoError(t, conv.Process(in, out, false))
	}
	require.NoError(t, conv.Process(in, out, true))

	return append([]float64(nil), out.Samples()...)
}

func TestRateConverter_ChunkingInvariance(t *testing.T) {
	testCases := []struct {
		name     string
		factor   float64
		channels int
	}{
		{"slow_mono", 0.7, 1},
		{"fast_mono", 1.6, 1},
		{"double_stereo", 2, 2},
		{"third_stereo", 1.0 / 3, 2},
	}

	input := testutil.Sine(300, 8000, 1000, 2, 0.9)

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			signal := input
			if tc.channels == 1 {
				signal = testutil.Sine(300, 8000, 1000, 1, 0.9)
			}
			want := Resample(signal, tc.channels, tc.factor)

			for _, chunk := range []int{1, 7, 64, 1000} {
				got := streamResample(t, signal, tc.channels, tc.factor, chunk)
				require.Len(t, got, len(want), "chunk=%d", chunk)
				for i := range want {
					assert.InDelta(t, want[i], got[i], 1e-12, "chunk=%d sample=%d", chunk, i)
				}
			}
		})
	}
}

func TestRateConverter_WaitsForRightNeighbour(t *testing.T) {
	conv := NewRateConverter(1, 0.5)
	in := buffer.New(1, 8)
	out := buffer.New(1, 8)

	require.NoError(t, in.Append([]float64{0, 1}))
	require.NoError(t, conv.Process(in, out, false))

	// Positions 0 and 0.5 interpolate between the two frames, position 1
	// needs a third frame.
	assert.Equal(t, []float64{0, 0.5}, out.Samples())
	assert.Equal(t, 1, in.Available(), "left neighbour of the next frame is kept")

	require.NoError(t, in.Append([]float64{2}))
	require.NoError(t, conv.Process(in, out, false))
	assert.Equal(t, []float64{0, 0.5, 1, 1.5}, out.Samples())
}

func TestRateConverter_UnityMovesFrames(t *testing.T) {
	conv := NewRateConverter(2, 1)
	in := buffer.New(2, 8)
	out := buffer.New(2, 8)

	require.NoError(t, in.Append([]float64{1, 2, 3, 4}))
	require.NoError(t, conv.Process(in, out, false))

	assert.Equal(t, []float64{1, 2, 3, 4}, out.Samples())
	assert.Equal(t, 0, in.Available())
}

func TestRateConverter_SetFactorKeepsPosition(t *testing.T) {
	conv := NewRateConverter(1, 2)
	in := buffer.New(1, 16)
	out := buffer.New(1, 16)

	require.NoError(t, in.Append(testutil.Ramp(8)))
	require.NoError(t, conv.Process(in, out, false))
	require.Equal(t, []float64{0, 2, 4, 6}, out.Samples())

	conv.SetFactor(0.5)
	assert.InDelta(t, 0.5, conv.Factor(), 0)

	require.NoError(t, in.Append([]float64{8, 9, 10}))
	require.NoError(t, conv.Process(in, out, false))
	assert.Equal(t, []float64{0, 2, 4, 6, 8, 8.5, 9, 9.5}, out.Samples())
}

func TestRateConverter_Reset(t *testing.T) {
	conv := NewRateConverter(1, 1.5)
	in := buffer.New(1, 16)
	out := buffer.New(1, 16)

	require.NoError(t, in.Append(testutil.Ramp(10)))
	require.NoError(t, conv.Process(in, out, true))
	first := append([]float64(nil), out.Samples()...)

	conv.Reset()
	in.Reset()
	out.Reset()

	require.NoError(t, in.Append(testutil.Ramp(10)))
	require.NoError(t, conv.Process(in, out, true))
	assert.Equal(t, first, out.Samples(), "output after Reset should match a fresh converter")
}

func BenchmarkResample(b *testing.B) {
	input := testutil.Sine(440, 44100, 44100, 2, 0.5)

	for b.Loop() {
		_ = Resample(input, 2, 1.25)
	}
}
