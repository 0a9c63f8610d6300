package sonic

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Format metadata
// =============================================================================

func TestSampleFormat_Width(t *testing.T) {
	testCases := []struct {
		format SampleFormat
		width  int
		name   string
	}{
		{FormatUint8, 1, "u8"},
		{FormatInt16, 2, "s16le"},
		{FormatInt24, 3, "s24le"},
		{FormatInt32, 4, "s32le"},
		{FormatFloat32, 4, "f32le"},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.width, tc.format.Width())
		assert.Equal(t, tc.name, tc.format.String())
		assert.True(t, tc.format.Valid())
	}

	assert.False(t, SampleFormat(0).Valid())
	assert.Equal(t, "SampleFormat(99)", SampleFormat(99).String())
}

func TestFormatForWidthAndBitDepth(t *testing.T) {
	widths := map[int]SampleFormat{1: FormatUint8, 2: FormatInt16, 3: FormatInt24, 4: FormatFloat32}
	for width, want := range widths {
		got, err := FormatForWidth(width)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := FormatForWidth(8)
	require.ErrorIs(t, err, ErrUnsupportedFormat)

	depths := map[int]SampleFormat{8: FormatUint8, 16: FormatInt16, 24: FormatInt24, 32: FormatInt32}
	for bits, want := range depths {
		got, err := FormatForBitDepth(bits)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err = FormatForBitDepth(12)
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}

// =============================================================================
// Encoding and decoding
// =============================================================================

func TestDecodeBytes_Scales(t *testing.T) {
	dst := make([]float64, 3)

	n, err := DecodeBytes(dst, []byte{0, 128, 255}, FormatUint8)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []float64{-1, 0, 127.0 / 128}, dst)

	raw := make([]byte, 6)
	binary.LittleEndian.PutUint16(raw[0:], uint16(0x8000)) // -32768
	binary.LittleEndian.PutUint16(raw[2:], 0)
	binary.LittleEndian.PutUint16(raw[4:], 0x4000) // 16384
	n, err = DecodeBytes(dst, raw, FormatInt16)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []float64{-1, 0, 0.5}, dst)

	n, err = DecodeBytes(dst, []byte{0xff, 0xff, 0xff, 0x00, 0x00, 0x40}, FormatInt24)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.InDelta(t, -1.0/8388608, dst[0], 0)
	assert.InDelta(t, 0.5, dst[1], 0)
}

func TestEncodeBytes_Clamps(t *testing.T) {
	src := []float64{2, -2, 0.5, math.NaN()}

	out := make([]byte, len(src)*2)
	n, err := EncodeBytes(out, src, FormatInt16)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, int16(32767), int16(binary.LittleEndian.Uint16(out[0:])))
	assert.Equal(t, int16(-32768), int16(binary.LittleEndian.Uint16(out[2:])))
	assert.Equal(t, int16(16384), int16(binary.LittleEndian.Uint16(out[4:])))
	assert.Equal(t, int16(0), int16(binary.LittleEndian.Uint16(out[6:])))

	u8 := make([]byte, len(src))
	_, err = EncodeBytes(u8, src, FormatUint8)
	require.NoError(t, err)
	assert.Equal(t, []byte{255, 0, 192, 128}, u8)

	f32 := make([]byte, 4)
	_, err = EncodeBytes(f32, []float64{2}, FormatFloat32)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, math.Float32frombits(binary.LittleEndian.Uint32(f32)), 0, "float output is not clamped")
}

func TestBytesRoundTrip(t *testing.T) {
	for _, f := range []SampleFormat{FormatUint8, FormatInt16, FormatInt24, FormatInt32, FormatFloat32} {
		t.Run(f.String(), func(t *testing.T) {
			raw := make([]byte, 64*f.Width())
			for i := range raw {
				raw[i] = byte(i*37 + 11)
			}
			if f == FormatFloat32 {
				for i := 0; i < len(raw); i += 4 {
					binary.LittleEndian.PutUint32(raw[i:], math.Float32bits(float32(i)/float32(len(raw))-0.5))
				}
			}

			samples := make([]float64, 64)
			n, err := DecodeBytes(samples, raw, f)
			require.NoError(t, err)
			require.Equal(t, 64, n)

			back := make([]byte, len(raw))
			_, err = EncodeBytes(back, samples, f)
			require.NoError(t, err)
			assert.Equal(t, raw, back)
		})
	}
}

func TestIntsRoundTrip(t *testing.T) {
	testCases := []struct {
		bitDepth int
		values   []int
	}{
		{8, []int{0, 1, 127, 128, 129, 255}},
		{16, []int{-32768, -1, 0, 1, 32767}},
		{24, []int{-8388608, -12345, 0, 8388607}},
		{32, []int{math.MinInt32, -7, 0, math.MaxInt32}},
	}

	for _, tc := range testCases {
		samples := make([]float64, len(tc.values))
		n, err := DecodeInts(samples, tc.values, tc.bitDepth)
		require.NoError(t, err)
		require.Equal(t, len(tc.values), n)

		back := make([]int, len(tc.values))
		_, err = EncodeInts(back, samples, tc.bitDepth)
		require.NoError(t, err)
		assert.Equal(t, tc.values, back, "bit depth %d", tc.bitDepth)
	}

	_, err := DecodeInts(make([]float64, 1), []int{1}, 20)
	require.ErrorIs(t, err, ErrUnsupportedFormat)
	_, err = EncodeInts(make([]int, 1), []float64{1}, 12)
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}

// =============================================================================
// Stream format paths
// =============================================================================

func TestStream_Int16BytesRoundTrip(t *testing.T) {
	s, err := NewStream(RateVoIP, 2)
	require.NoError(t, err)

	raw := make([]byte, 1000*2*2)
	for i := 0; i < len(raw); i += 2 {
		v := int16((i*7919)%65536 - 32768)
		binary.LittleEndian.PutUint16(raw[i:], uint16(v))
	}
	binary.LittleEndian.PutUint16(raw[0:], uint16(0x8000))
	binary.LittleEndian.PutUint16(raw[2:], 0x7fff)

	require.NoError(t, s.WriteBytes(raw, FormatInt16))
	require.NoError(t, s.Flush())

	got := make([]byte, len(raw)+64)
	n, err := s.ReadBytes(got, FormatInt16)
	require.NoError(t, err)
	assert.Equal(t, 1000, n)
	assert.Equal(t, raw, got[:n*4])
}

func TestStream_TypedRoundTrips(t *testing.T) {
	s, err := NewStream(RateTelephony, 1)
	require.NoError(t, err)

	i16 := []int16{-32768, -100, 0, 100, 32767}
	require.NoError(t, s.WriteInt16(i16))
	out16 := make([]int16, 8)
	assert.Equal(t, len(i16), s.ReadInt16(out16))
	assert.Equal(t, i16, out16[:len(i16)])

	u8 := []uint8{0, 1, 127, 128, 200, 255}
	require.NoError(t, s.WriteUint8(u8))
	out8 := make([]uint8, 8)
	assert.Equal(t, len(u8), s.ReadUint8(out8))
	assert.Equal(t, u8, out8[:len(u8)])

	f32 := []float32{-1, -0.25, 0, 0.75, 1.5}
	require.NoError(t, s.WriteFloat32(f32))
	outF := make([]float32, 8)
	assert.Equal(t, len(f32), s.ReadFloat32(outF))
	assert.Equal(t, f32, outF[:len(f32)])

	ints := []int{-8388608, 0, 8388607}
	require.NoError(t, s.WriteInts(ints, 24))
	outInts := make([]int, 4)
	n, err := s.ReadInts(outInts, 24)
	require.NoError(t, err)
	assert.Equal(t, len(ints), n)
	assert.Equal(t, ints, outInts[:n])
}

func TestStream_WriteBytesErrors(t *testing.T) {
	s, err := NewStream(RateVoIP, 2)
	require.NoError(t, err)

	require.ErrorIs(t, s.WriteBytes(make([]byte, 6), FormatInt16), ErrPartialFrame)
	require.ErrorIs(t, s.WriteBytes(make([]byte, 4), SampleFormat(0)), ErrUnsupportedFormat)

	_, err = s.ReadBytes(make([]byte, 4), SampleFormat(42))
	require.ErrorIs(t, err, ErrUnsupportedFormat)
	_, err = s.ReadInts(make([]int, 4), 7)
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}
