// Package buffer provides the growable interleaved frame buffers that carry
// audio between the stream stages.
package buffer

import (
	"errors"
	"fmt"
)

var (
	// ErrCapacityExceeded is returned when growing a buffer would exceed its frame limit.
	ErrCapacityExceeded = errors.New("buffer capacity exceeded")

	// ErrPartialFrame is returned when appended data is not a whole number of frames.
	ErrPartialFrame = errors.New("sample count is not a multiple of the channel count")
)

// SampleBuffer holds interleaved float64 frames.
//
// Valid data always starts at index 0 of the backing slice: consuming frames
// compacts the remainder to the front. A SampleBuffer is not safe for
// concurrent use.
type SampleBuffer struct {
	data     []float64
	frames   int
	channels int
	limit    int // maximum frames, 0 means unlimited
}

// New creates a buffer for the given channel count with room for
// capacityFrames frames.
func New(channels, capacityFrames int) *SampleBuffer {
	if channels < 1 {
		channels = 1
	}
	if capacityFrames < minCapacityFrames {
		capacityFrames = minCapacityFrames
	}

	return &SampleBuffer{
		data:     make([]float64, capacityFrames*channels),
		channels: channels,
	}
}

// SetLimit caps the number of frames the buffer may hold. Zero removes the cap.
func (b *SampleBuffer) SetLimit(maxFrames int) {
	if maxFrames < 0 {
		maxFrames = 0
	}
	b.limit = maxFrames
}

// Channels returns the number of interleaved channels per frame.
func (b *SampleBuffer) Channels() int {
	return b.channels
}

// Available returns the number of valid frames.
func (b *SampleBuffer) Available() int {
	return b.frames
}

// Capacity returns the number of frames the backing slice can hold without growing.
func (b *SampleBuffer) Capacity() int {
	return len(b.data) / b.channels
}

// Samples returns the valid interleaved samples. The slice aliases the
// buffer and is invalidated by the next mutating call.
func (b *SampleBuffer) Samples() []float64 {
	return b.data[:b.frames*b.channels]
}

// Frame returns the samples of frame i.
func (b *SampleBuffer) Frame(i int) []float64 {
	start := i * b.channels
	return b.data[start : start+b.channels]
}

// Append copies whole frames to the end of the buffer.
func (b *SampleBuffer) Append(samples []float64) error {
	if len(samples) == 0 {
		return nil
	}
	if len(samples)%b.channels != 0 {
		return fmt.Errorf("%w: %d samples for %d channels", ErrPartialFrame, len(samples), b.channels)
	}

	dst, err := b.Extend(len(samples) / b.channels)
	if err != nil {
		return err
	}
	copy(dst, samples)
	return nil
}

// AppendSilence appends frames of zeros.
func (b *SampleBuffer) AppendSilence(frames int) error {
	dst, err := b.Extend(frames)
	if err != nil {
		return err
	}
	clear(dst)
	return nil
}

// Extend reserves frames at the end of the buffer and returns the writable
// samples. The caller must fill every returned sample.
func (b *SampleBuffer) Extend(frames int) ([]float64, error) {
	if frames <= 0 {
		return nil, nil
	}

	needed := b.frames + frames
	if b.limit > 0 && needed > b.limit {
		return nil, fmt.Errorf("%w: need %d frames, limit is %d", ErrCapacityExceeded, needed, b.limit)
	}
	if needed > b.Capacity() {
		b.grow(needed)
	}

	start := b.frames * b.channels
	b.frames = needed
	return b.data[start : needed*b.channels], nil
}

// Consume removes the first n frames and shifts the rest to the front.
// Asking for more frames than are available removes nothing and returns 0.
func (b *SampleBuffer) Consume(n int) int {
	if n <= 0 || n > b.frames {
		return 0
	}

	remaining := b.frames - n
	if remaining > 0 {
		copy(b.data, b.data[n*b.channels:b.frames*b.channels])
	}
	b.frames = remaining
	return n
}

// Read copies up to len(dst)/Channels() frames into dst, consumes them and
// returns the number of frames copied.
func (b *SampleBuffer) Read(dst []float64) int {
	n := min(len(dst)/b.channels, b.frames)
	if n == 0 {
		return 0
	}
	copy(dst, b.data[:n*b.channels])
	return b.Consume(n)
}

// MoveTo appends the first n frames to dst and consumes them from b.
func (b *SampleBuffer) MoveTo(dst *SampleBuffer, n int) (int, error) {
	n = min(n, b.frames)
	if n <= 0 {
		return 0, nil
	}
	if err := dst.Append(b.data[:n*b.channels]); err != nil {
		return 0, err
	}
	return b.Consume(n), nil
}

// Truncate drops frames beyond the first n.
func (b *SampleBuffer) Truncate(n int) {
	if n < 0 {
		n = 0
	}
	if n < b.frames {
		b.frames = n
	}
}

// Reset discards all frames but keeps the allocated capacity.
func (b *SampleBuffer) Reset() {
	b.frames = 0
}

// Release drops the backing storage. The buffer stays usable and
// reallocates on the next append.
func (b *SampleBuffer) Release() {
	b.data = nil
	b.frames = 0
}

// grow increases capacity to at least minFrames frames.
func (b *SampleBuffer) grow(minFrames int) {
	newCapacity := max(b.Capacity(), minCapacityFrames)
	for newCapacity < minFrames {
		newCapacity *= growthFactor
	}
	if b.limit > 0 && newCapacity > b.limit {
		newCapacity = b.limit
	}

	newData := make([]float64, newCapacity*b.channels)
	copy(newData, b.data[:b.frames*b.channels])
	b.data = newData
}
