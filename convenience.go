package sonic

// Common sample rates for convenience.
const (
	// RateTelephony is the telephony (PSTN narrowband) sample rate.
	RateTelephony = 8000

	// RateVoIP is the VoIP wideband sample rate.
	RateVoIP = 16000

	// RateSpeech is the speech recognition common sample rate.
	RateSpeech = 22050

	// RateCD is the CD quality sample rate (Red Book standard).
	RateCD = 44100

	// RateDAT is the DAT/DVD sample rate.
	RateDAT = 48000
)

// ProcessAll runs a complete interleaved signal through a new stream with
// the given parameters: write, flush and drain.
func ProcessAll(samples []float64, sampleRate, numChannels int, params Params) ([]float64, error) {
	s, err := NewStream(sampleRate, numChannels, WithParams(params))
	if err != nil {
		return nil, err
	}
	defer s.Close() //nolint:errcheck // first Close cannot fail

	if err := s.Write(samples); err != nil {
		return nil, err
	}
	if err := s.Flush(); err != nil {
		return nil, err
	}

	out := make([]float64, 0, s.output.Available()*numChannels)
	chunk := make([]float64, drainChunkFrames*numChannels)
	for {
		n := s.Read(chunk)
		if n == 0 {
			break
		}
		out = append(out, chunk[:n*numChannels]...)
	}
	return out, nil
}

// ProcessInt16 is ProcessAll for signed 16-bit samples.
func ProcessInt16(samples []int16, sampleRate, numChannels int, params Params) ([]int16, error) {
	in := make([]float64, len(samples))
	for i, v := range samples {
		in[i] = int16ToFloat(v)
	}

	out, err := ProcessAll(in, sampleRate, numChannels, params)
	if err != nil {
		return nil, err
	}

	result := make([]int16, len(out))
	for i, v := range out {
		result[i] = floatToInt16(v)
	}
	return result, nil
}

// ChangeSpeed changes the duration of a signal by speed without changing its pitch.
func ChangeSpeed(samples []float64, sampleRate, numChannels int, speed float64) ([]float64, error) {
	p := DefaultParams()
	p.Speed = speed
	return ProcessAll(samples, sampleRate, numChannels, p)
}

// ChangePitch shifts the pitch of a signal by factor without changing its duration.
func ChangePitch(samples []float64, sampleRate, numChannels int, factor float64) ([]float64, error) {
	p := DefaultParams()
	p.Pitch = factor
	return ProcessAll(samples, sampleRate, numChannels, p)
}
