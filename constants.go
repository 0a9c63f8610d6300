package sonic

// Channel limits
const (
	maxChannels = 256 // Maximum supported channel count
)

// Parameter defaults
const (
	defaultSpeed  = 1.0
	defaultPitch  = 1.0
	defaultRate   = 1.0
	defaultVolume = 1.0
)

// Buffer sizing in frames
const (
	// initialBufferFrames is the starting capacity of the input and output buffers.
	initialBufferFrames = 4096

	// flushPadWindows is the number of silent search windows appended on
	// flush so that every buffered frame passes through both stages.
	flushPadWindows = 2

	// flushPadSlack covers rounding in the rate converter when padding.
	flushPadSlack = 2
)

// Integer sample scales. Powers of two keep integer round trips exact.
const (
	scale8Bit  = 128.0
	scale16Bit = 32768.0
	scale24Bit = 8388608.0
	scale32Bit = 2147483648.0

	uint8Offset = 128
)

// Bit depths
const (
	bitDepth8  = 8
	bitDepth16 = 16
	bitDepth24 = 24
	bitDepth32 = 32
)

// One-shot processing read size in frames.
const drainChunkFrames = 2048
