package engine

// Pitch search range
const (
	// MinPitch is the lowest fundamental frequency searched, in Hz.
	MinPitch = 65
	// MaxPitch is the highest fundamental frequency searched, in Hz.
	MaxPitch = 400
	// AmdfFreq is the sample rate the fast search decimates to, in Hz.
	AmdfFreq = 4000
)

// Tolerances
const (
	// TieTolerance is the relative AMDF score difference under which two
	// lags count as equally good.
	TieTolerance = 0.01

	// TempoTolerance is the distance from 1 under which a tempo factor is
	// treated as unity and time scaling is skipped.
	TempoTolerance = 1e-5

	// unityTolerance is the distance from 1 under which the rate converter
	// copies frames instead of interpolating.
	unityTolerance = 1e-9

	// minScore keeps the tie comparison meaningful for silent windows.
	minScore = 1e-12
)
