// Package utils contains small helpers shared by the motor packages.
package utils

// ModAngDeg wraps an integer angle into [0, 360).
func ModAngDeg(ang int) int {
	return ((ang % 360) + 360) % 360
}

// NormalizeDeltaDeg folds an angular difference into [-180, 180] so it describes the shorter way
// around the circle. Exactly +180 and -180 are left as they are.
func NormalizeDeltaDeg(delta int) int {
	for delta > 180 {
		delta -= 360
	}
	for delta < -180 {
		delta += 360
	}
	return delta
}

// AbsInt64 returns the absolute value of n.
func AbsInt64(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}

// ClampInt bounds n to [lo, hi].
func ClampInt(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
