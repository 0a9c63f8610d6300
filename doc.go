// Package sonic changes the speed, pitch, rate and volume of speech and
// music in pure Go.
//
// The algorithm follows the sonic library by Bill Cox: pitch periods are
// found with an average magnitude difference search and whole periods are
// dropped or repeated with a short overlap-add, which keeps voices natural
// at several times normal speed. Pitch changes combine linear-interpolation
// resampling with the same time scaling.
//
// # Parameters
//
//   - Speed changes duration only. 2 plays twice as fast at the same pitch.
//   - Pitch changes pitch only. 2 raises by an octave at the same duration.
//   - Rate changes both, like playing a tape faster.
//   - Volume is a linear output gain.
//   - Quality selects a fast decimated period search (0) or a full
//     resolution search (1).
//
// # Streaming
//
// A [Stream] accepts interleaved samples in several formats and returns
// processed samples as they become available:
//
//	s, err := sonic.NewStream(16000, 1, sonic.WithSpeed(2))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer s.Close()
//
//	out := make([]int16, 2048)
//	for chunk := range chunks {
//	    if err := s.WriteInt16(chunk); err != nil {
//	        log.Fatal(err)
//	    }
//	    for n := s.ReadInt16(out); n > 0; n = s.ReadInt16(out) {
//	        emit(out[:n])
//	    }
//	}
//
//	// Push out the frames held for analysis.
//	if err := s.Flush(); err != nil {
//	    log.Fatal(err)
//	}
//	for n := s.ReadInt16(out); n > 0; n = s.ReadInt16(out) {
//	    emit(out[:n])
//	}
//
// Reads return 0 when no output is ready yet; that is not an error.
// Changing the sample rate or channel count discards buffered audio.
//
// # One-shot processing
//
// [ProcessAll], [ProcessInt16], [ChangeSpeed] and [ChangePitch] process a
// complete signal in memory. [Transformer] adapts a stream to io.Writer for
// raw PCM byte streams.
//
// # Sample formats
//
// Samples are processed as float64 in the nominal range [-1, 1]. The byte
// and integer paths support unsigned 8-bit, signed 16, 24 and 32-bit, and
// float32 ([SampleFormat]). Integer conversions use power-of-two scales, so
// writing and reading integer samples unchanged is lossless.
//
// A Stream is not safe for concurrent use.
package sonic
