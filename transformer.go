package sonic

import (
	"fmt"
	"io"
)

// Transformer is an io.Writer that passes encoded PCM through a Stream and
// writes the processed samples, in the same format, to an underlying writer.
//
// Bytes that do not complete a frame are held until the next Write.
type Transformer struct {
	w      io.Writer
	stream *Stream
	format SampleFormat

	frameSize int // bytes per frame at the last Write
	pending   []byte
	out       []byte
}

// NewTransformer creates a Transformer writing to w. The frame size follows
// the stream's current channel count; a held partial frame is dropped when
// the channel count changes, as the stream drops its buffered samples.
func NewTransformer(w io.Writer, stream *Stream, format SampleFormat) (*Transformer, error) {
	if !format.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, format)
	}
	return &Transformer{
		w:         w,
		stream:    stream,
		format:    format,
		frameSize: format.Width() * stream.NumChannels(),
		out:       make([]byte, drainChunkFrames*format.Width()*stream.NumChannels()),
	}, nil
}

// Write feeds p to the stream and writes whatever output is ready.
func (t *Transformer) Write(p []byte) (int, error) {
	t.syncFrameSize()

	data := p
	if len(t.pending) > 0 {
		data = append(t.pending, p...)
	}

	whole := len(data) - len(data)%t.frameSize
	if whole > 0 {
		if err := t.stream.WriteBytes(data[:whole], t.format); err != nil {
			return 0, err
		}
	}
	// data may share storage with pending, so save the tail last.
	t.pending = append(t.pending[:0], data[whole:]...)

	if err := t.drain(); err != nil {
		return len(p), err
	}
	return len(p), nil
}

// Flush flushes the stream and writes all remaining output. A trailing
// partial frame is dropped.
func (t *Transformer) Flush() error {
	t.syncFrameSize()
	t.pending = t.pending[:0]
	if err := t.stream.Flush(); err != nil {
		return err
	}
	return t.drain()
}

// Close flushes and closes the stream. The underlying writer is not closed.
func (t *Transformer) Close() error {
	if err := t.Flush(); err != nil {
		return err
	}
	return t.stream.Close()
}

// syncFrameSize picks up a channel count change on the stream.
func (t *Transformer) syncFrameSize() {
	frameSize := t.format.Width() * t.stream.NumChannels()
	if frameSize == t.frameSize {
		return
	}
	t.frameSize = frameSize
	t.pending = t.pending[:0]
	if len(t.out) < drainChunkFrames*frameSize {
		t.out = make([]byte, drainChunkFrames*frameSize)
	}
}

func (t *Transformer) drain() error {
	for {
		n, err := t.stream.ReadBytes(t.out, t.format)
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		if _, err := t.w.Write(t.out[:n*t.frameSize]); err != nil {
			return fmt.Errorf("write processed audio: %w", err)
		}
	}
}
