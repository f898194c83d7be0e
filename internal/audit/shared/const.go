package shared

const (
	MaxValue16 = 32768.0      // 2^15, 16-bit signed PCM normalization divisor
	MaxValue24 = 8388608.0    // 2^23, 24-bit signed PCM normalization divisor
	MaxValue32 = 2147483648.0 // 2^31, 32-bit signed PCM normalization divisor

	// Epsilon guards every ratio in the engine against division by zero.
	Epsilon = 1e-10

	// FloorDb is reported for silent or empty signals instead of -Inf.
	FloorDb = -120.0

	// LoudnessOffset converts mean-square level to loudness units (BS.1770).
	LoudnessOffset = -0.691
)
