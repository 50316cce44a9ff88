package bounce

// EaseOutBounce maps linear progress in [0, 1] to a decelerating curve that
// overshoots its target three times with shrinking rebounds before settling
// (Robert Penner's easeOutBounce). Progress outside [0, 1] is clamped.
// EaseOutBounce(0) == 0 and EaseOutBounce(1) == 1 exactly.
func EaseOutBounce(p float64) float64 {
	p = clampUnit(p)
	if p == 1 {
		// the last segment lands on 1 only up to rounding
		return 1
	}

	switch {
	case p < 1/2.75:
		return 7.5625 * p * p
	case p < 2/2.75:
		p -= 1.5 / 2.75
		return 7.5625*p*p + 0.75
	case p < 2.5/2.75:
		p -= 2.25 / 2.75
		return 7.5625*p*p + 0.9375
	default:
		p -= 2.625 / 2.75
		return 7.5625*p*p + 0.984375
	}
}

func clampUnit(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}
