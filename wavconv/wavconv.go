// Package wavconv applies a sonic stream to WAV files.
//
// The conversion streams the file in fixed-size chunks, so memory use does
// not grow with file length. The output keeps the sample rate, channel count
// and bit depth of the input.
package wavconv

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"go.uber.org/zap"

	sonic "github.com/tphakala/go-audio-sonic"
	"github.com/tphakala/go-audio-sonic/internal/analysis"
)

// DefaultChunkFrames is the number of frames read from the source and
// drained from the stream per iteration.
const DefaultChunkFrames = 2048

// analysisFrames bounds how much audio is kept for Options.Analyze.
const analysisFrames = 1 << 16

// wavFormatPCM is the WAVE format tag for integer PCM.
const wavFormatPCM = 1

var (
	// ErrSourceNotFound indicates the source file does not exist.
	ErrSourceNotFound = errors.New("source file not found")

	// ErrInvalidWAV indicates the source is not a readable WAV file.
	ErrInvalidWAV = errors.New("invalid WAV file")

	// ErrUnsupportedFormat indicates a WAV encoding the converter cannot process.
	ErrUnsupportedFormat = errors.New("unsupported WAV format")
)

// Options configures a conversion.
type Options struct {
	// Params are the stream processing parameters. The zero value selects
	// sonic.DefaultParams.
	Params sonic.Params

	// ChunkFrames is the read and drain size in frames. Zero selects
	// DefaultChunkFrames.
	ChunkFrames int

	// Analyze measures the start of the input and output signals and
	// reports them in Stats.
	Analyze bool

	// Logger receives progress messages. Nil disables logging.
	Logger *zap.Logger
}

// Signal describes the analysed part of a signal.
type Signal struct {
	Duration   time.Duration
	RMS        float64
	Peak       float64
	DominantHz float64
}

// Stats reports the outcome of a conversion.
type Stats struct {
	SampleRate   int
	NumChannels  int
	BitDepth     int
	InputFrames  int64
	OutputFrames int64
	Chunks       int

	// Input and Output are set when Options.Analyze is true.
	Input  *Signal
	Output *Signal
}

// InputDuration returns the playing time of the source.
func (s *Stats) InputDuration() time.Duration {
	return analysis.Duration(int(s.InputFrames), s.SampleRate)
}

// OutputDuration returns the playing time of the result.
func (s *Stats) OutputDuration() time.Duration {
	return analysis.Duration(int(s.OutputFrames), s.SampleRate)
}

// ConvertFile processes the WAV file at srcPath and writes the result to
// dstPath. If the source does not exist or is not a supported WAV file,
// no output file is created. A partially written output is removed on
// failure.
func ConvertFile(ctx context.Context, srcPath, dstPath string, opts Options) (*Stats, error) {
	src, err := os.Open(srcPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, srcPath)
		}
		return nil, fmt.Errorf("failed to open source file: %w", err)
	}
	defer src.Close() //nolint:errcheck // read-only file

	in, err := openInput(src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", srcPath, err)
	}

	dst, err := os.Create(dstPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}

	stats, err := convert(ctx, in, dst, opts)
	if closeErr := dst.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("failed to close output file: %w", closeErr)
	}
	if err != nil {
		_ = os.Remove(dstPath)
		return nil, err
	}
	return stats, nil
}

// Convert processes WAV data from src and writes a WAV file to dst.
func Convert(ctx context.Context, src io.ReadSeeker, dst io.WriteSeeker, opts Options) (*Stats, error) {
	in, err := openInput(src)
	if err != nil {
		return nil, err
	}
	return convert(ctx, in, dst, opts)
}

// input holds a validated decoder and its format.
type input struct {
	decoder    *wav.Decoder
	format     *audio.Format
	sampleRate int
	channels   int
	bitDepth   int
}

func openInput(src io.ReadSeeker) (*input, error) {
	decoder := wav.NewDecoder(src)
	if !decoder.IsValidFile() {
		return nil, ErrInvalidWAV
	}
	if decoder.WavAudioFormat != wavFormatPCM {
		return nil, fmt.Errorf("%w: format tag %d, only integer PCM is supported", ErrUnsupportedFormat, decoder.WavAudioFormat)
	}

	bitDepth := int(decoder.BitDepth)
	if _, err := sonic.FormatForBitDepth(bitDepth); err != nil {
		return nil, fmt.Errorf("%w: %d-bit samples", ErrUnsupportedFormat, bitDepth)
	}

	format := decoder.Format()
	if format == nil || format.NumChannels < 1 || format.SampleRate < 1 {
		return nil, fmt.Errorf("%w: missing format chunk", ErrInvalidWAV)
	}

	return &input{
		decoder:    decoder,
		format:     format,
		sampleRate: format.SampleRate,
		channels:   format.NumChannels,
		bitDepth:   bitDepth,
	}, nil
}

// convert runs the chunk loop: read a chunk, write it to the stream, drain
// what is ready; at end of input flush and drain the rest.
func convert(ctx context.Context, in *input, dst io.WriteSeeker, opts Options) (*Stats, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	params := opts.Params
	if params == (sonic.Params{}) {
		params = sonic.DefaultParams()
	}
	chunkFrames := opts.ChunkFrames
	if chunkFrames <= 0 {
		chunkFrames = DefaultChunkFrames
	}

	stream, err := sonic.NewStream(in.sampleRate, in.channels, sonic.WithParams(params))
	if err != nil {
		return nil, err
	}
	defer stream.Close() //nolint:errcheck // first Close cannot fail

	logger.Info("converting WAV",
		zap.Int("sample_rate", in.sampleRate),
		zap.Int("channels", in.channels),
		zap.Int("bit_depth", in.bitDepth),
		zap.Float64("speed", params.Speed),
		zap.Float64("pitch", params.Pitch),
		zap.Float64("rate", params.Rate),
		zap.Float64("volume", params.Volume),
		zap.Stringer("quality", params.Quality))

	encoder := wav.NewEncoder(dst, in.sampleRate, in.bitDepth, in.channels, wavFormatPCM)
	stats := &Stats{
		SampleRate:  in.sampleRate,
		NumChannels: in.channels,
		BitDepth:    in.bitDepth,
	}

	c := &chunkIO{
		in:      in,
		stream:  stream,
		encoder: encoder,
		stats:   stats,
		inBuf: &audio.IntBuffer{
			Format:         in.format,
			Data:           make([]int, chunkFrames*in.channels),
			SourceBitDepth: in.bitDepth,
		},
		outData: make([]int, chunkFrames*in.channels),
	}
	if opts.Analyze {
		c.capture = newCapture(in.channels)
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		done, err := c.step()
		if err != nil {
			return nil, err
		}
		logger.Debug("chunk processed",
			zap.Int("chunk", stats.Chunks),
			zap.Int64("input_frames", stats.InputFrames),
			zap.Int64("output_frames", stats.OutputFrames))
		if done {
			break
		}
	}

	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize WAV output: %w", err)
	}

	if c.capture != nil {
		stats.Input = c.capture.summary(c.capture.in, in.sampleRate)
		stats.Output = c.capture.summary(c.capture.out, in.sampleRate)
	}

	logger.Info("conversion complete",
		zap.Int64("input_frames", stats.InputFrames),
		zap.Int64("output_frames", stats.OutputFrames),
		zap.Duration("input_duration", stats.InputDuration()),
		zap.Duration("output_duration", stats.OutputDuration()),
		zap.Int("chunks", stats.Chunks))

	return stats, nil
}

// chunkIO moves one chunk at a time between decoder, stream and encoder.
type chunkIO struct {
	in      *input
	stream  *sonic.Stream
	encoder *wav.Encoder
	stats   *Stats
	inBuf   *audio.IntBuffer
	outData []int
	capture *capture
}

// step reads one chunk, or flushes at end of input, and drains the stream.
// It reports true once the input is exhausted and fully drained.
func (c *chunkIO) step() (bool, error) {
	n, err := c.in.decoder.PCMBuffer(c.inBuf)
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("failed to read audio data: %w", err)
	}
	// PCMBuffer counts samples; drop a trailing partial frame.
	n -= n % c.in.channels

	if n == 0 {
		if err := c.stream.Flush(); err != nil {
			return false, fmt.Errorf("failed to flush stream: %w", err)
		}
	} else {
		data := c.inBuf.Data[:n]
		if err := c.stream.WriteInts(data, c.in.bitDepth); err != nil {
			return false, fmt.Errorf("failed to write to stream: %w", err)
		}
		c.stats.InputFrames += int64(n / c.in.channels)
		c.stats.Chunks++
		if c.capture != nil {
			c.capture.addInts(&c.capture.in, data, c.in.bitDepth)
		}
	}

	if err := c.drain(); err != nil {
		return false, err
	}
	return n == 0, nil
}

func (c *chunkIO) drain() error {
	for {
		frames, err := c.stream.ReadInts(c.outData, c.in.bitDepth)
		if err != nil {
			return fmt.Errorf("failed to read from stream: %w", err)
		}
		if frames == 0 {
			return nil
		}

		data := c.outData[:frames*c.in.channels]
		buf := &audio.IntBuffer{
			Format:         c.in.format,
			Data:           data,
			SourceBitDepth: c.in.bitDepth,
		}
		if err := c.encoder.Write(buf); err != nil {
			return fmt.Errorf("failed to write WAV data: %w", err)
		}
		c.stats.OutputFrames += int64(frames)
		if c.capture != nil {
			c.capture.addInts(&c.capture.out, data, c.in.bitDepth)
		}
	}
}

// capture keeps the first analysisFrames frames of input and output.
type capture struct {
	channels int
	in, out  []float64
	scratch  []float64
}

func newCapture(channels int) *capture {
	return &capture{channels: channels}
}

func (c *capture) addInts(dst *[]float64, data []int, bitDepth int) {
	room := analysisFrames*c.channels - len(*dst)
	if room <= 0 {
		return
	}
	data = data[:min(len(data), room)]
	if cap(c.scratch) < len(data) {
		c.scratch = make([]float64, len(data))
	}
	buf := c.scratch[:len(data)]
	if _, err := sonic.DecodeInts(buf, data, bitDepth); err != nil {
		return
	}
	*dst = append(*dst, buf...)
}

func (c *capture) summary(samples []float64, sampleRate int) *Signal {
	s := analysis.Summarize(samples, sampleRate, c.channels)
	return &Signal{
		Duration:   s.Duration,
		RMS:        s.RMS,
		Peak:       s.Peak,
		DominantHz: s.DominantHz,
	}
}
