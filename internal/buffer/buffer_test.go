package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Append / Consume
// =============================================================================

func TestSampleBuffer_AppendAndConsume(t *testing.T) {
	b := New(2, 4)

	require.NoError(t, b.Append([]float64{1, -1, 2, -2, 3, -3}))
	assert.Equal(t, 3, b.Available())
	assert.Equal(t, []float64{2, -2}, b.Frame(1))

	assert.Equal(t, 2, b.Consume(2))
	assert.Equal(t, 1, b.Available())
	assert.Equal(t, []float64{3, -3}, b.Samples(), "remaining frame should be compacted to the front")
}

func TestSampleBuffer_ConsumeMoreThanAvailableIsNoOp(t *testing.T) {
	b := New(1, 4)
	require.NoError(t, b.Append([]float64{1, 2, 3}))

	assert.Equal(t, 0, b.Consume(4))
	assert.Equal(t, 3, b.Available())
	assert.Equal(t, []float64{1, 2, 3}, b.Samples())

	assert.Equal(t, 0, b.Consume(0))
	assert.Equal(t, 0, b.Consume(-1))
}

func TestSampleBuffer_PartialFrameRejected(t *testing.T) {
	b := New(2, 4)

	err := b.Append([]float64{1, 2, 3})
	require.ErrorIs(t, err, ErrPartialFrame)
	assert.Equal(t, 0, b.Available())
}

func TestSampleBuffer_GrowsPreservingOrder(t *testing.T) {
	b := New(1, 1)
	startCap := b.Capacity()

	input := make([]float64, 1000)
	for i := range input {
		input[i] = float64(i)
	}
	for i := 0; i < len(input); i += 100 {
		require.NoError(t, b.Append(input[i:i+100]))
	}

	assert.Greater(t, b.Capacity(), startCap)
	assert.GreaterOrEqual(t, b.Capacity(), b.Available())
	assert.Equal(t, input, b.Samples())
}

func TestSampleBuffer_Limit(t *testing.T) {
	b := New(1, 4)
	b.SetLimit(10)

	require.NoError(t, b.Append(make([]float64, 8)))
	err := b.Append(make([]float64, 3))
	require.ErrorIs(t, err, ErrCapacityExceeded)
	assert.Equal(t, 8, b.Available(), "failed append must leave the buffer unchanged")

	require.NoError(t, b.Append(make([]float64, 2)))
	assert.Equal(t, 10, b.Available())
	assert.LessOrEqual(t, b.Capacity(), 16)
}

// =============================================================================
// Read / MoveTo / Extend
// =============================================================================

func TestSampleBuffer_Read(t *testing.T) {
	b := New(2, 4)
	require.NoError(t, b.Append([]float64{1, 2, 3, 4, 5, 6}))

	dst := make([]float64, 5) // room for two whole frames
	n := b.Read(dst)
	assert.Equal(t, 2, n)
	assert.Equal(t, []float64{1, 2, 3, 4}, dst[:4])
	assert.Equal(t, 1, b.Available())

	empty := New(2, 4)
	assert.Equal(t, 0, empty.Read(dst))
}

func TestSampleBuffer_MoveTo(t *testing.T) {
	src := New(1, 4)
	dst := New(1, 4)
	require.NoError(t, src.Append([]float64{1, 2, 3}))
	require.NoError(t, dst.Append([]float64{0}))

	n, err := src.MoveTo(dst, 10)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 0, src.Available())
	assert.Equal(t, []float64{0, 1, 2, 3}, dst.Samples())
}

func TestSampleBuffer_ExtendAndSilence(t *testing.T) {
	b := New(2, 2)
	require.NoError(t, b.Append([]float64{9, 9}))

	tail, err := b.Extend(2)
	require.NoError(t, err)
	require.Len(t, tail, 4)
	for i := range tail {
		tail[i] = float64(i)
	}
	require.NoError(t, b.AppendSilence(1))

	assert.Equal(t, []float64{9, 9, 0, 1, 2, 3, 0, 0}, b.Samples())

	none, err := b.Extend(0)
	require.NoError(t, err)
	assert.Nil(t, none)
}

// =============================================================================
// Truncate / Reset / Release
// =============================================================================

func TestSampleBuffer_TruncateResetRelease(t *testing.T) {
	b := New(1, 4)
	require.NoError(t, b.Append([]float64{1, 2, 3, 4}))

	b.Truncate(6)
	assert.Equal(t, 4, b.Available(), "truncating beyond length keeps all frames")
	b.Truncate(2)
	assert.Equal(t, []float64{1, 2}, b.Samples())

	capBefore := b.Capacity()
	b.Reset()
	assert.Equal(t, 0, b.Available())
	assert.Equal(t, capBefore, b.Capacity())

	b.Release()
	assert.Equal(t, 0, b.Capacity())
	require.NoError(t, b.Append([]float64{7}))
	assert.Equal(t, []float64{7}, b.Samples())
}

func BenchmarkSampleBuffer_AppendConsume(b *testing.B) {
	buf := New(2, 4096)
	chunk := make([]float64, 2048*2)

	for b.Loop() {
		_ = buf.Append(chunk)
		buf.Consume(2048)
	}
}
