package buffer

const (
	minCapacityFrames = 16 // smallest backing allocation in frames
	growthFactor      = 2  // capacity multiplier on growth
)
