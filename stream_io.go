package sonic

import "fmt"

// WriteFloat32 appends interleaved float32 samples.
func (s *Stream) WriteFloat32(samples []float32) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	buf := s.scratchFor(len(samples))
	for i, v := range samples {
		buf[i] = float64(v)
	}
	return s.Write(buf)
}

// ReadFloat32 reads up to len(dst)/NumChannels frames as float32 and returns
// the number of frames read. Values are not clamped.
func (s *Stream) ReadFloat32(dst []float32) int {
	if s.closed {
		return 0
	}
	buf := s.scratchFor(len(dst))
	n := s.Read(buf)
	for i := range n * s.channels {
		dst[i] = float32(buf[i])
	}
	return n
}

// WriteInt16 appends interleaved signed 16-bit samples.
func (s *Stream) WriteInt16(samples []int16) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	buf := s.scratchFor(len(samples))
	for i, v := range samples {
		buf[i] = int16ToFloat(v)
	}
	return s.Write(buf)
}

// ReadInt16 reads up to len(dst)/NumChannels frames as signed 16-bit samples,
// clamping out-of-range values, and returns the number of frames read.
func (s *Stream) ReadInt16(dst []int16) int {
	if s.closed {
		return 0
	}
	buf := s.scratchFor(len(dst))
	n := s.Read(buf)
	for i := range n * s.channels {
		dst[i] = floatToInt16(buf[i])
	}
	return n
}

// WriteUint8 appends interleaved unsigned 8-bit samples.
func (s *Stream) WriteUint8(samples []uint8) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	buf := s.scratchFor(len(samples))
	for i, v := range samples {
		buf[i] = uint8ToFloat(v)
	}
	return s.Write(buf)
}

// ReadUint8 reads up to len(dst)/NumChannels frames as unsigned 8-bit
// samples, clamping out-of-range values, and returns the number of frames read.
func (s *Stream) ReadUint8(dst []uint8) int {
	if s.closed {
		return 0
	}
	buf := s.scratchFor(len(dst))
	n := s.Read(buf)
	for i := range n * s.channels {
		dst[i] = floatToUint8(buf[i])
	}
	return n
}

// WriteInts appends integer PCM samples of the given bit depth, in the
// layout used by go-audio buffers.
func (s *Stream) WriteInts(samples []int, bitDepth int) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	buf := s.scratchFor(len(samples))
	if _, err := DecodeInts(buf, samples, bitDepth); err != nil {
		return err
	}
	return s.Write(buf)
}

// ReadInts reads up to len(dst)/NumChannels frames as integer PCM of the
// given bit depth and returns the number of frames read.
func (s *Stream) ReadInts(dst []int, bitDepth int) (int, error) {
	if _, _, err := intScale(bitDepth); err != nil {
		return 0, err
	}
	if s.closed {
		return 0, nil
	}
	buf := s.scratchFor(len(dst))
	n := s.Read(buf)
	if _, err := EncodeInts(dst, buf[:n*s.channels], bitDepth); err != nil {
		return 0, err
	}
	return n, nil
}

// WriteBytes appends little-endian encoded samples. len(p) must be a whole
// number of frames in format f.
func (s *Stream) WriteBytes(p []byte, f SampleFormat) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	width := f.Width()
	if width == 0 {
		return fmt.Errorf("%w: %v", ErrUnsupportedFormat, f)
	}
	if len(p)%(width*s.channels) != 0 {
		return fmt.Errorf("%w: %d bytes for %d channels of %v", ErrPartialFrame, len(p), s.channels, f)
	}

	buf := s.scratchFor(len(p) / width)
	if _, err := DecodeBytes(buf, p, f); err != nil {
		return err
	}
	return s.Write(buf)
}

// ReadBytes reads up to len(p)/(NumChannels*width) frames encoded in format
// f and returns the number of frames read.
func (s *Stream) ReadBytes(p []byte, f SampleFormat) (int, error) {
	width := f.Width()
	if width == 0 {
		return 0, fmt.Errorf("%w: %v", ErrUnsupportedFormat, f)
	}
	if s.closed {
		return 0, nil
	}

	buf := s.scratchFor(len(p) / width)
	n := s.Read(buf)
	if _, err := EncodeBytes(p, buf[:n*s.channels], f); err != nil {
		return 0, err
	}
	return n, nil
}
