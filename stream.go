package sonic

import (
	"errors"
	"fmt"
	"math"

	"github.com/tphakala/go-audio-sonic/internal/buffer"
	"github.com/tphakala/go-audio-sonic/internal/engine"
)

// State describes where a Stream is in its write/flush/read cycle.
type State int

const (
	// StateIdle means no input is pending and no output is unread.
	StateIdle State = iota
	// StateBuffering means input has been written and output may be read
	// as it becomes available.
	StateBuffering
	// StateDraining means the stream was flushed and unread output remains.
	StateDraining
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBuffering:
		return "buffering"
	case StateDraining:
		return "draining"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Stream changes the speed, pitch, rate and volume of interleaved audio.
//
// Samples are written with one of the Write methods and read back, processed,
// with the matching Read method. Processing happens lazily when output is
// requested. Call Flush once the input is complete to push out the frames
// still held for analysis.
//
// A Stream is not safe for concurrent use.
type Stream struct {
	sampleRate int
	channels   int
	params     Params

	input     *buffer.SampleBuffer // written, not yet rate converted
	pitchWork *buffer.SampleBuffer // rate converted, awaiting time scaling
	output    *buffer.SampleBuffer // ready to read
	down      *buffer.SampleBuffer // mono window for period search

	converter *engine.RateConverter
	shifter   *engine.PitchShifter

	maxBufferFrames int
	flushed         bool
	closed          bool

	// Output accounting since the last flush or reset. idealOut is the
	// output length the consumed input implies at the parameters in force
	// when it was consumed; emitted is what was actually produced.
	idealOut float64
	emitted  int

	scratch []float64
}

// NewStream creates a stream for the given sample rate and channel count.
// Without options the stream passes audio through unchanged.
func NewStream(sampleRate, numChannels int, opts ...Option) (*Stream, error) {
	if err := validateFormat(sampleRate, numChannels); err != nil {
		return nil, err
	}

	o := options{params: DefaultParams()}
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.params.Validate(); err != nil {
		return nil, err
	}

	s := &Stream{
		params:          o.params,
		maxBufferFrames: o.maxBufferFrames,
	}
	s.allocate(sampleRate, numChannels)
	return s, nil
}

// allocate (re)creates buffers and engine state for a stream format.
func (s *Stream) allocate(sampleRate, numChannels int) {
	s.sampleRate = sampleRate
	s.channels = numChannels

	_, _, maxRequired := engine.PeriodBounds(sampleRate)
	s.input = buffer.New(numChannels, initialBufferFrames)
	s.input.SetLimit(s.maxBufferFrames)
	s.pitchWork = buffer.New(numChannels, maxRequired*2)
	s.output = buffer.New(numChannels, initialBufferFrames)
	s.down = buffer.New(1, maxRequired)

	s.converter = engine.NewRateConverter(numChannels, s.resampleFactor())
	s.shifter = engine.NewPitchShifter(sampleRate, numChannels, qualityToEngine(s.params.Quality), s.down)
	s.flushed = false
	s.idealOut, s.emitted = 0, 0
}

// resampleFactor is the rate converter factor. Rate changes duration and
// pitch together and pitch is raised here before time scaling restores the
// duration.
func (s *Stream) resampleFactor() float64 {
	return s.params.Rate * s.params.Pitch
}

// durationFactor is how much faster the output plays than the input.
// Pitch cancels out between the two stages.
func (s *Stream) durationFactor() float64 {
	return s.params.Speed * s.params.Rate
}

// tempo is the time-scaling factor applied after rate conversion.
func (s *Stream) tempo() float64 {
	return s.params.Speed / s.params.Pitch
}

// Speed returns the speed factor.
func (s *Stream) Speed() float64 { return s.params.Speed }

// Pitch returns the pitch factor.
func (s *Stream) Pitch() float64 { return s.params.Pitch }

// Rate returns the rate factor.
func (s *Stream) Rate() float64 { return s.params.Rate }

// Volume returns the output gain.
func (s *Stream) Volume() float64 { return s.params.Volume }

// Quality returns the period search quality.
func (s *Stream) Quality() Quality { return s.params.Quality }

// SampleRate returns the sample rate in Hz.
func (s *Stream) SampleRate() int { return s.sampleRate }

// NumChannels returns the number of interleaved channels.
func (s *Stream) NumChannels() int { return s.channels }

// Params returns the current processing parameters.
func (s *Stream) Params() Params { return s.params }

// SetSpeed sets the speed factor. It takes effect on the next read.
func (s *Stream) SetSpeed(speed float64) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := validatePositive("speed", speed); err != nil {
		return err
	}
	s.params.Speed = speed
	return nil
}

// SetPitch sets the pitch factor. It takes effect on the next read.
func (s *Stream) SetPitch(pitch float64) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := validatePositive("pitch", pitch); err != nil {
		return err
	}
	s.params.Pitch = pitch
	return nil
}

// SetRate sets the rate factor. It takes effect on the next read.
func (s *Stream) SetRate(rate float64) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := validatePositive("rate", rate); err != nil {
		return err
	}
	s.params.Rate = rate
	return nil
}

// SetVolume sets the output gain. It applies to output produced from the
// next read on.
func (s *Stream) SetVolume(volume float64) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := validateVolume(volume); err != nil {
		return err
	}
	s.params.Volume = volume
	return nil
}

// SetQuality sets the period search quality.
func (s *Stream) SetQuality(q Quality) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if !q.Valid() {
		return fmt.Errorf("%w: quality must be 0 or 1, got %d", ErrInvalidParameter, int(q))
	}
	s.params.Quality = q
	s.shifter.SetQuality(qualityToEngine(q))
	return nil
}

// SetParams replaces all processing parameters.
func (s *Stream) SetParams(p Params) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return err
	}
	s.params = p
	s.shifter.SetQuality(qualityToEngine(p.Quality))
	return nil
}

// SetSampleRate changes the sample rate. All buffered samples are discarded.
func (s *Stream) SetSampleRate(sampleRate int) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := validateFormat(sampleRate, s.channels); err != nil {
		return err
	}
	s.allocate(sampleRate, s.channels)
	return nil
}

// SetNumChannels changes the channel count. All buffered samples are discarded.
func (s *Stream) SetNumChannels(numChannels int) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := validateFormat(s.sampleRate, numChannels); err != nil {
		return err
	}
	s.allocate(s.sampleRate, numChannels)
	return nil
}

// State reports the current stream state.
func (s *Stream) State() State {
	switch {
	case s.closed:
		return StateIdle
	case s.flushed && s.output.Available() > 0:
		return StateDraining
	case s.input.Available()+s.pitchWork.Available()+s.output.Available() > 0:
		return StateBuffering
	default:
		return StateIdle
	}
}

// Write appends interleaved float64 samples in the nominal range [-1, 1].
// len(samples) must be a multiple of NumChannels.
func (s *Stream) Write(samples []float64) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if len(samples) == 0 {
		return nil
	}
	if err := s.input.Append(samples); err != nil {
		return mapBufferError(err)
	}
	s.flushed = false
	return nil
}

// Read processes pending input if no output is ready and copies up to
// len(dst)/NumChannels frames into dst. It returns the number of frames
// read, which is 0 when nothing is available yet.
func (s *Stream) Read(dst []float64) int {
	if s.closed || len(dst) < s.channels {
		return 0
	}
	if s.output.Available() == 0 {
		if err := s.process(false); err != nil {
			return 0
		}
	}
	n := s.output.Read(dst)
	if s.output.Available() == 0 {
		s.flushed = false
	}
	return n
}

// SamplesAvailable processes pending input and returns the number of frames
// that can be read now.
func (s *Stream) SamplesAvailable() int {
	if s.closed {
		return 0
	}
	// A failed pass leaves the buffers untouched; report what is ready.
	_ = s.process(false)
	return s.output.Available()
}

// Flush processes all buffered input as if followed by silence and makes
// the result available for reading. The total output since the previous
// flush is trimmed to the length the written input implies, including
// frames already read, so no padding reaches the reader.
func (s *Stream) Flush() error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	target := int(math.Round(s.idealOut + float64(s.input.Available())/s.durationFactor()))

	if s.input.Available()+s.pitchWork.Available() > 0 {
		pad := int(math.Ceil(float64(flushPadWindows*s.shifter.MaxRequired())*s.resampleFactor())) + flushPadSlack
		s.input.SetLimit(0)
		err := s.input.AppendSilence(pad)
		s.input.SetLimit(s.maxBufferFrames)
		if err != nil {
			return mapBufferError(err)
		}

		if err := s.process(true); err != nil {
			return err
		}

		s.input.Reset()
		s.pitchWork.Reset()
		s.converter.Reset()
		s.shifter.ResetCopy()
	}

	// Frames already read cannot be taken back; trim what is still held.
	if excess := s.emitted - target; excess > 0 {
		s.output.Truncate(s.output.Available() - excess)
	}
	s.idealOut, s.emitted = 0, 0
	s.flushed = s.output.Available() > 0
	return nil
}

// Reset discards all buffered samples and analysis history. Parameters are kept.
func (s *Stream) Reset() {
	if s.closed {
		return
	}
	s.input.Reset()
	s.pitchWork.Reset()
	s.output.Reset()
	s.converter.Reset()
	s.shifter.Reset()
	s.flushed = false
	s.idealOut, s.emitted = 0, 0
}

// Close releases the stream buffers. Any later call fails with ErrClosed or
// returns zero.
func (s *Stream) Close() error {
	if s.closed {
		return ErrClosed
	}
	s.closed = true
	s.input.Release()
	s.pitchWork.Release()
	s.output.Release()
	s.down.Release()
	s.scratch = nil
	return nil
}

// process runs the pipeline over the pending input: rate conversion, time
// scaling, then volume on the newly produced output.
func (s *Stream) process(final bool) error {
	before := s.output.Available()
	pending := s.input.Available()

	s.converter.SetFactor(s.resampleFactor())
	if err := s.converter.Process(s.input, s.pitchWork, final); err != nil {
		return mapBufferError(err)
	}
	s.idealOut += float64(pending-s.input.Available()) / s.durationFactor()

	tempo := s.tempo()
	if math.Abs(tempo-1) >= engine.TempoTolerance {
		if err := s.shifter.Process(s.pitchWork, s.output, tempo); err != nil {
			return mapBufferError(err)
		}
	} else if _, err := s.pitchWork.MoveTo(s.output, s.pitchWork.Available()); err != nil {
		return mapBufferError(err)
	}

	if produced := s.output.Available() - before; produced > 0 {
		engine.ScaleVolume(s.output.Samples()[before*s.channels:], s.params.Volume)
		s.emitted += produced
	}
	return nil
}

func (s *Stream) checkOpen() error {
	if s.closed {
		return ErrClosed
	}
	return nil
}

// mapBufferError converts internal buffer errors to the package errors.
func mapBufferError(err error) error {
	switch {
	case errors.Is(err, buffer.ErrCapacityExceeded):
		return fmt.Errorf("%w: %w", ErrAllocation, err)
	case errors.Is(err, buffer.ErrPartialFrame):
		return fmt.Errorf("%w: %w", ErrPartialFrame, err)
	default:
		return err
	}
}

// scratchFor returns a reusable float64 slice of length n.
func (s *Stream) scratchFor(n int) []float64 {
	if cap(s.scratch) < n {
		s.scratch = make([]float64, n)
	}
	return s.scratch[:n]
}
