package sonic

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/tphakala/go-audio-sonic/internal/engine"
)

// Common errors returned by a Stream.
var (
	// ErrInvalidParameter indicates a rejected stream parameter.
	ErrInvalidParameter = errors.New("invalid stream parameter")

	// ErrAllocation indicates a buffer could not grow to hold more frames.
	ErrAllocation = errors.New("sample buffer allocation failed")

	// ErrPartialFrame indicates written data that is not a whole number of frames.
	ErrPartialFrame = errors.New("data is not a whole number of frames")

	// ErrClosed indicates use of a stream after Close.
	ErrClosed = errors.New("stream is closed")

	// ErrUnsupportedFormat indicates an unknown sample format or bit depth.
	ErrUnsupportedFormat = errors.New("unsupported sample format")
)

// Quality selects the pitch period search used when changing speed.
type Quality int

const (
	// QualityFast searches a decimated signal and refines the result.
	// This is the default.
	QualityFast Quality = 0

	// QualityHigh searches every lag at full resolution. Slower, but
	// steadier on low voices and music. The analysis window is the same as
	// for QualityFast, so switching quality does not change latency.
	QualityHigh Quality = 1
)

// String returns the quality name.
func (q Quality) String() string {
	switch q {
	case QualityFast:
		return "fast"
	case QualityHigh:
		return "high"
	default:
		return fmt.Sprintf("Quality(%d)", int(q))
	}
}

// Valid reports whether q is a known quality level.
func (q Quality) Valid() bool {
	return q == QualityFast || q == QualityHigh
}

// ParseQuality returns the quality named s ("fast" or "high").
func ParseQuality(s string) (Quality, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fast", "0":
		return QualityFast, nil
	case "high", "1":
		return QualityHigh, nil
	default:
		return QualityFast, fmt.Errorf("%w: quality %q", ErrInvalidParameter, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (q Quality) MarshalText() ([]byte, error) {
	if !q.Valid() {
		return nil, fmt.Errorf("%w: quality %d", ErrInvalidParameter, int(q))
	}
	return []byte(q.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (q *Quality) UnmarshalText(text []byte) error {
	parsed, err := ParseQuality(string(text))
	if err != nil {
		return err
	}
	*q = parsed
	return nil
}

// qualityToEngine maps the public quality level to the engine search mode.
func qualityToEngine(q Quality) engine.Quality {
	if q == QualityHigh {
		return engine.QualityHigh
	}
	return engine.QualityFast
}

// Params holds the processing parameters of a stream.
type Params struct {
	// Speed scales playback duration without changing pitch. 2 plays twice
	// as fast.
	Speed float64 `yaml:"speed"`

	// Pitch scales the pitch without changing duration.
	Pitch float64 `yaml:"pitch"`

	// Rate scales duration and pitch together, like changing tape speed.
	Rate float64 `yaml:"rate"`

	// Volume is a linear gain applied to the output. 0 mutes.
	Volume float64 `yaml:"volume"`

	// Quality selects the period search.
	Quality Quality `yaml:"quality"`
}

// DefaultParams returns parameters that pass audio through unchanged.
func DefaultParams() Params {
	return Params{
		Speed:   defaultSpeed,
		Pitch:   defaultPitch,
		Rate:    defaultRate,
		Volume:  defaultVolume,
		Quality: QualityFast,
	}
}

// Validate checks that all parameters are usable.
func (p *Params) Validate() error {
	if err := validatePositive("speed", p.Speed); err != nil {
		return err
	}
	if err := validatePositive("pitch", p.Pitch); err != nil {
		return err
	}
	if err := validatePositive("rate", p.Rate); err != nil {
		return err
	}
	if err := validateVolume(p.Volume); err != nil {
		return err
	}
	if !p.Quality.Valid() {
		return fmt.Errorf("%w: quality must be 0 or 1, got %d", ErrInvalidParameter, int(p.Quality))
	}
	return nil
}

func validatePositive(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return fmt.Errorf("%w: %s must be a positive finite number, got %v", ErrInvalidParameter, name, v)
	}
	return nil
}

func validateVolume(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return fmt.Errorf("%w: volume must be a non-negative finite number, got %v", ErrInvalidParameter, v)
	}
	return nil
}

func validateFormat(sampleRate, numChannels int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("%w: sample rate must be positive, got %d", ErrInvalidParameter, sampleRate)
	}
	if numChannels < 1 {
		return fmt.Errorf("%w: channels must be at least 1, got %d", ErrInvalidParameter, numChannels)
	}
	if numChannels > maxChannels {
		return fmt.Errorf("%w: too many channels (max %d)", ErrInvalidParameter, maxChannels)
	}
	return nil
}

// options collects the settings applied by Option functions.
type options struct {
	params          Params
	maxBufferFrames int
}

// Option configures a Stream at construction.
type Option func(*options)

// WithParams sets all processing parameters at once.
func WithParams(p Params) Option {
	return func(o *options) { o.params = p }
}

// WithSpeed sets the initial speed.
func WithSpeed(speed float64) Option {
	return func(o *options) { o.params.Speed = speed }
}

// WithPitch sets the initial pitch.
func WithPitch(pitch float64) Option {
	return func(o *options) { o.params.Pitch = pitch }
}

// WithRate sets the initial rate.
func WithRate(rate float64) Option {
	return func(o *options) { o.params.Rate = rate }
}

// WithVolume sets the initial volume.
func WithVolume(volume float64) Option {
	return func(o *options) { o.params.Volume = volume }
}

// WithQuality sets the initial quality.
func WithQuality(q Quality) Option {
	return func(o *options) { o.params.Quality = q }
}

// WithMaxBufferFrames caps the number of unprocessed frames a stream will
// hold. Writes beyond the cap fail with ErrAllocation. Zero means no cap.
func WithMaxBufferFrames(frames int) Option {
	return func(o *options) { o.maxBufferFrames = max(frames, 0) }
}
