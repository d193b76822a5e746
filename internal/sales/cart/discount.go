package cart

import "strconv"

// ClampDiscount bounds a committed discount percentage to [0,100].
func ClampDiscount(percent float64) float64 {
	if percent < 0 {
		return 0
	}
	if percent > 100 {
		return 100
	}
	return percent
}

// ParseDiscount converts raw input into a valid discount percentage,
// mirroring the on-blur behavior of the discount field: garbage and
// negative values become 0, values above 100 clamp to 100.
func ParseDiscount(raw string) float64 {
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return ClampDiscount(value)
}
