package engine

// RangeTimedScale 将 [-1, 1] 区间的振荡值（如 sin(t)）映射到 [min, max]
func RangeTimedScale(oscillated, min, max float64) float64 {
	normalized := (oscillated + 1) * 0.5
	return normalized*(max-min) + min
}

// Clamp 将 v 限制在 [lo, hi]
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
