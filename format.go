package sonic

import (
	"encoding/binary"
	"fmt"
	"math"
)

// SampleFormat identifies an encoded PCM sample representation.
// All multi-byte formats are little-endian.
type SampleFormat int

const (
	// FormatUint8 is unsigned 8-bit PCM centred on 128.
	FormatUint8 SampleFormat = iota + 1
	// FormatInt16 is signed 16-bit PCM.
	FormatInt16
	// FormatInt24 is signed 24-bit PCM packed in 3 bytes.
	FormatInt24
	// FormatInt32 is signed 32-bit PCM.
	FormatInt32
	// FormatFloat32 is IEEE 754 single precision with nominal range [-1, 1].
	FormatFloat32
)

// Width returns the encoded size of one sample in bytes.
func (f SampleFormat) Width() int {
	switch f {
	case FormatUint8:
		return 1
	case FormatInt16:
		return 2
	case FormatInt24:
		return 3
	case FormatInt32, FormatFloat32:
		return 4
	default:
		return 0
	}
}

// Valid reports whether f is a known format.
func (f SampleFormat) Valid() bool {
	return f.Width() > 0
}

func (f SampleFormat) String() string {
	switch f {
	case FormatUint8:
		return "u8"
	case FormatInt16:
		return "s16le"
	case FormatInt24:
		return "s24le"
	case FormatInt32:
		return "s32le"
	case FormatFloat32:
		return "f32le"
	default:
		return fmt.Sprintf("SampleFormat(%d)", int(f))
	}
}

// FormatForWidth returns the format used for a sample width in bytes:
// 1 is unsigned 8-bit, 2 signed 16-bit, 3 signed 24-bit and 4 float32.
func FormatForWidth(width int) (SampleFormat, error) {
	switch width {
	case 1:
		return FormatUint8, nil
	case 2:
		return FormatInt16, nil
	case 3:
		return FormatInt24, nil
	case 4:
		return FormatFloat32, nil
	default:
		return 0, fmt.Errorf("%w: sample width %d", ErrUnsupportedFormat, width)
	}
}

// FormatForBitDepth returns the integer PCM format for a bit depth.
func FormatForBitDepth(bits int) (SampleFormat, error) {
	switch bits {
	case bitDepth8:
		return FormatUint8, nil
	case bitDepth16:
		return FormatInt16, nil
	case bitDepth24:
		return FormatInt24, nil
	case bitDepth32:
		return FormatInt32, nil
	default:
		return 0, fmt.Errorf("%w: bit depth %d", ErrUnsupportedFormat, bits)
	}
}

// DecodeBytes converts encoded samples from src into dst and returns the
// number of samples decoded, limited by both slices.
func DecodeBytes(dst []float64, src []byte, f SampleFormat) (int, error) {
	width := f.Width()
	if width == 0 {
		return 0, fmt.Errorf("%w: %v", ErrUnsupportedFormat, f)
	}

	n := min(len(dst), len(src)/width)
	for i := range n {
		b := src[i*width : i*width+width]
		switch f {
		case FormatUint8:
			dst[i] = float64(int(b[0])-uint8Offset) / scale8Bit
		case FormatInt16:
			dst[i] = float64(int16(binary.LittleEndian.Uint16(b))) / scale16Bit
		case FormatInt24:
			dst[i] = float64(int24(b)) / scale24Bit
		case FormatInt32:
			dst[i] = float64(int32(binary.LittleEndian.Uint32(b))) / scale32Bit
		case FormatFloat32:
			dst[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
		}
	}
	return n, nil
}

// EncodeBytes converts samples from src into dst and returns the number of
// samples encoded, limited by both slices. Integer formats are rounded and
// clamped to their range.
func EncodeBytes(dst []byte, src []float64, f SampleFormat) (int, error) {
	width := f.Width()
	if width == 0 {
		return 0, fmt.Errorf("%w: %v", ErrUnsupportedFormat, f)
	}

	n := min(len(src), len(dst)/width)
	for i := range n {
		b := dst[i*width : i*width+width]
		v := src[i]
		switch f {
		case FormatUint8:
			b[0] = floatToUint8(v)
		case FormatInt16:
			binary.LittleEndian.PutUint16(b, uint16(floatToInt16(v)))
		case FormatInt24:
			putInt24(b, quantize(v, scale24Bit))
		case FormatInt32:
			binary.LittleEndian.PutUint32(b, uint32(int32(quantize(v, scale32Bit))))
		case FormatFloat32:
			binary.LittleEndian.PutUint32(b, math.Float32bits(float32(v)))
		}
	}
	return n, nil
}

// DecodeInts converts integer PCM samples of the given bit depth, as held in
// go-audio buffers, into dst. 8-bit samples are unsigned.
func DecodeInts(dst []float64, src []int, bitDepth int) (int, error) {
	scale, offset, err := intScale(bitDepth)
	if err != nil {
		return 0, err
	}

	n := min(len(dst), len(src))
	for i := range n {
		dst[i] = float64(src[i]-offset) / scale
	}
	return n, nil
}

// EncodeInts converts samples into integer PCM of the given bit depth,
// rounding and clamping to the representable range.
func EncodeInts(dst []int, src []float64, bitDepth int) (int, error) {
	scale, offset, err := intScale(bitDepth)
	if err != nil {
		return 0, err
	}

	n := min(len(dst), len(src))
	for i := range n {
		dst[i] = quantize(src[i], scale) + offset
	}
	return n, nil
}

func intScale(bitDepth int) (scale float64, offset int, err error) {
	switch bitDepth {
	case bitDepth8:
		return scale8Bit, uint8Offset, nil
	case bitDepth16:
		return scale16Bit, 0, nil
	case bitDepth24:
		return scale24Bit, 0, nil
	case bitDepth32:
		return scale32Bit, 0, nil
	default:
		return 0, 0, fmt.Errorf("%w: bit depth %d", ErrUnsupportedFormat, bitDepth)
	}
}

// quantize rounds v*scale to the nearest integer in [-scale, scale-1].
func quantize(v, scale float64) int {
	q := math.Round(v * scale)
	if q >= scale {
		return int(scale) - 1
	}
	if q < -scale {
		return -int(scale)
	}
	if math.IsNaN(q) {
		return 0
	}
	return int(q)
}

func int16ToFloat(v int16) float64 {
	return float64(v) / scale16Bit
}

func floatToInt16(v float64) int16 {
	return int16(quantize(v, scale16Bit))
}

func uint8ToFloat(v uint8) float64 {
	return float64(int(v)-uint8Offset) / scale8Bit
}

func floatToUint8(v float64) uint8 {
	return uint8(quantize(v, scale8Bit) + uint8Offset)
}

func int24(b []byte) int32 {
	v := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
	// Sign-extend from bit 23.
	return v << 8 >> 8
}

func putInt24(b []byte, v int) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
}
