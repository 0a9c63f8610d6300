package engine

import (
	"math"

	"github.com/tphakala/simd/f64"

	"github.com/tphakala/go-audio-sonic/internal/buffer"
)

// Quality selects how thoroughly pitch periods are searched.
type Quality int

const (
	// QualityFast searches a decimated window first and refines the result
	// around the coarse estimate.
	QualityFast Quality = iota
	// QualityHigh searches every lag at full resolution. It uses the same
	// 2*maxPeriod window as QualityFast; only the search resolution differs,
	// so latency and flush padding do not depend on the quality.
	QualityHigh
)

// PitchShifter changes the duration of a signal without changing its pitch.
//
// It estimates the local pitch period and then either drops a period
// (overlap-adding the neighbouring windows so the seam is smooth) or repeats
// one, copying the frames in between unmodified. The pitch-working input and
// the downsample buffer are owned by the caller.
type PitchShifter struct {
	channels   int
	sampleRate int
	quality    Quality

	minPeriod   int
	maxPeriod   int
	maxRequired int

	prevPeriod  int
	prevMinDiff float64

	// Frames still to be copied verbatim after the last skipped or
	// inserted period.
	remainingInputToCopy int

	down *buffer.SampleBuffer
}

// NewPitchShifter creates a shifter for the given stream format. down is
// the mono working buffer used for decimated period searches.
func NewPitchShifter(sampleRate, channels int, quality Quality, down *buffer.SampleBuffer) *PitchShifter {
	p := &PitchShifter{
		channels:   channels,
		sampleRate: sampleRate,
		quality:    quality,
		down:       down,
	}
	p.minPeriod, p.maxPeriod, p.maxRequired = PeriodBounds(sampleRate)
	return p
}

// PeriodBounds returns the shortest and longest pitch period searched at the
// given sample rate and the number of frames a search window needs.
func PeriodBounds(sampleRate int) (minPeriod, maxPeriod, maxRequired int) {
	minPeriod = max(sampleRate/MaxPitch, 1)
	maxPeriod = max(sampleRate/MinPitch, minPeriod+1)
	return minPeriod, maxPeriod, 2 * maxPeriod
}

// MaxRequired returns the number of frames one processing step looks at.
func (p *PitchShifter) MaxRequired() int {
	return p.maxRequired
}

// SetQuality changes the period search mode.
func (p *PitchShifter) SetQuality(q Quality) {
	p.quality = q
}

// Reset forgets period history and any pending verbatim copy.
func (p *PitchShifter) Reset() {
	p.prevPeriod = 0
	p.prevMinDiff = 0
	p.remainingInputToCopy = 0
	p.down.Reset()
}

// ResetCopy cancels a pending verbatim copy. Period history is kept so that
// a flushed stream continues smoothly.
func (p *PitchShifter) ResetCopy() {
	p.remainingInputToCopy = 0
}

// Process time-scales frames from in by tempo (> 1 shortens, < 1 lengthens)
// and appends the result to out. It works in steps that each need
// MaxRequired() frames; frames left over stay in in for the next call.
func (p *PitchShifter) Process(in, out *buffer.SampleBuffer, tempo float64) error {
	n := in.Available()
	if n < p.maxRequired {
		return nil
	}

	data := in.Samples()
	position := 0
	for {
		var err error
		switch {
		case p.remainingInputToCopy > 0:
			position, err = p.copyInput(data, out, position)
		case tempo > 1:
			period := p.findPitchPeriod(data[position*p.channels:])
			position, err = p.skipPitchPeriod(data, out, position, period, tempo)
		default:
			period := p.findPitchPeriod(data[position*p.channels:])
			position, err = p.insertPitchPeriod(data, out, position, period, tempo)
		}
		if err != nil {
			in.Consume(position)
			return err
		}
		if position+p.maxRequired > n {
			break
		}
	}

	in.Consume(position)
	return nil
}

func (p *PitchShifter) copyInput(data []float64, out *buffer.SampleBuffer, position int) (int, error) {
	frames := min(p.remainingInputToCopy, p.maxRequired)
	start := position * p.channels
	if err := out.Append(data[start : start+frames*p.channels]); err != nil {
		return position, err
	}
	p.remainingInputToCopy -= frames
	return position + frames, nil
}

// skipPitchPeriod drops one period starting at position.
func (p *PitchShifter) skipPitchPeriod(data []float64, out *buffer.SampleBuffer, position, period int, tempo float64) (int, error) {
	var newFrames int
	if tempo >= 2 {
		newFrames = int(float64(period) / (tempo - 1))
	} else {
		newFrames = period
		p.remainingInputToCopy = int(float64(period) * (2 - tempo) / (tempo - 1))
	}

	dst, err := out.Extend(newFrames)
	if err != nil {
		return position, err
	}
	ch := p.channels
	start := position * ch
	overlapAdd(dst, newFrames, ch, data[start:], data[start+period*ch:])
	return position + period + newFrames, nil
}

// insertPitchPeriod emits one period and then an overlap-added repeat of it.
func (p *PitchShifter) insertPitchPeriod(data []float64, out *buffer.SampleBuffer, position, period int, tempo float64) (int, error) {
	var newFrames int
	if tempo < 0.5 {
		newFrames = max(int(float64(period)*tempo/(1-tempo)), 1)
	} else {
		newFrames = period
		p.remainingInputToCopy = int(float64(period) * (2*tempo - 1) / (1 - tempo))
	}

	ch := p.channels
	start := position * ch
	dst, err := out.Extend(period + newFrames)
	if err != nil {
		return position, err
	}
	copy(dst, data[start:start+period*ch])
	overlapAdd(dst[period*ch:], newFrames, ch, data[start+period*ch:], data[start:])
	return position + newFrames, nil
}

// overlapAdd cross-fades frames linearly from down to up:
// out[i] = (down[i]*(n-i) + up[i]*i) / n.
func overlapAdd(dst []float64, frames, channels int, down, up []float64) {
	if frames == 0 {
		return
	}
	n := float64(frames)
	for i := range frames {
		fadeIn := float64(i)
		fadeOut := n - fadeIn
		base := i * channels
		for c := range channels {
			k := base + c
			dst[k] = (down[k]*fadeOut + up[k]*fadeIn) / n
		}
	}
}

// findPitchPeriod estimates the pitch period of the window starting at
// samples, which holds at least MaxRequired() frames.
func (p *PitchShifter) findPitchPeriod(samples []float64) int {
	minPeriod, maxPeriod := p.minPeriod, p.maxPeriod
	skip := 1
	if p.quality == QualityFast && p.sampleRate > AmdfFreq {
		skip = p.sampleRate / AmdfFreq
	}

	var est PeriodEstimate
	if p.channels == 1 && skip == 1 {
		est = SearchPeriod(samples, minPeriod, maxPeriod, p.prevPeriod)
	} else {
		mono := p.downSample(samples, skip)
		est = SearchPeriod(mono, max(minPeriod/skip, 1), max(maxPeriod/skip, 1), p.prevPeriod/skip)
		if skip != 1 {
			// Refine at full resolution around the coarse estimate.
			period := est.Period * skip
			lo := max(period-(skip<<2), minPeriod)
			hi := min(period+(skip<<2), maxPeriod)
			if p.channels == 1 {
				est = SearchPeriod(samples, lo, hi, p.prevPeriod)
			} else {
				mono = p.downSample(samples, 1)
				est = SearchPeriod(mono, lo, hi, p.prevPeriod)
			}
		}
	}

	period := est.Period
	if p.prevPeriodBetter(est) {
		period = p.prevPeriod
	}
	p.prevMinDiff = est.MinDiff
	p.prevPeriod = est.Period
	return period
}

// prevPeriodBetter reports whether the previous period should be reused. At
// the abrupt end of a voiced segment the new match is poor and much worse
// than the last one, and jumping to it would be audible.
func (p *PitchShifter) prevPeriodBetter(est PeriodEstimate) bool {
	if est.MinDiff == 0 || p.prevPeriod == 0 {
		return false
	}
	if est.MaxDiff > est.MinDiff*3 {
		// Reasonable match for this window.
		return false
	}
	if est.MinDiff*2 <= p.prevMinDiff*3 {
		// Not much worse than the previous window.
		return false
	}
	return true
}

// downSample mixes the window to mono, averaging every skip frames.
func (p *PitchShifter) downSample(samples []float64, skip int) []float64 {
	frames := p.maxRequired / skip
	span := skip * p.channels

	p.down.Reset()
	dst, err := p.down.Extend(frames)
	if err != nil {
		return nil
	}
	for i := range frames {
		start := i * span
		dst[i] = f64.Sum(samples[start:start+span]) / float64(span)
	}
	return dst
}

// PeriodEstimate is the outcome of one AMDF period search.
type PeriodEstimate struct {
	// Period is the best lag in frames.
	Period int
	// MinDiff is the mean absolute difference at Period.
	MinDiff float64
	// MaxDiff is the worst mean absolute difference seen in the search range.
	MaxDiff float64
}

// SearchPeriod finds the lag in [minPeriod, maxPeriod] that minimizes the
// average magnitude difference of the mono signal against itself. samples
// must hold at least 2*maxPeriod values. Lags that score within
// TieTolerance of the best are resolved towards prevPeriod when it is set.
func SearchPeriod(samples []float64, minPeriod, maxPeriod, prevPeriod int) PeriodEstimate {
	est := PeriodEstimate{Period: minPeriod, MinDiff: math.Inf(1)}

	for period := minPeriod; period <= maxPeriod; period++ {
		var diff float64
		for i := range period {
			diff += math.Abs(samples[i] - samples[i+period])
		}
		score := diff / float64(period)

		switch {
		case nearlyEqual(score, est.MinDiff):
			if prevPeriod > 0 && absInt(period-prevPeriod) < absInt(est.Period-prevPeriod) {
				est.Period = period
				est.MinDiff = score
			}
		case score < est.MinDiff:
			est.Period = period
			est.MinDiff = score
		}
		if score > est.MaxDiff {
			est.MaxDiff = score
		}
	}

	return est
}

func nearlyEqual(a, b float64) bool {
	if math.IsInf(b, 1) {
		return false
	}
	return math.Abs(a-b) <= TieTolerance*max(a, b, minScore)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
