package utils

// Clamp limits x to the [lo, hi] range.
func Clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// RoundU8 converts a normalized [0,1] sample to an 8-bit value with
// rounding.
func RoundU8(x float32) uint8 {
	return uint8(Clamp(x, 0, 1)*255 + 0.5)
}

// RoundN converts a normalized [0,1] sample to an n-level integer
// (e.g. 31 for a 5-bit channel) with rounding.
func RoundN(x float32, levels uint32) uint32 {
	return uint32(Clamp(x, 0, 1)*float32(levels) + 0.5)
}
