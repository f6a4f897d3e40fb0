package engine

import "math"

// powerCurveExponent models the game's clock-speed-to-power relationship
// for partially clocked buildings. It is an empirical constant.
const powerCurveExponent = 1.321928

// round3 rounds to 3 decimal places so drift does not accumulate across
// chained factories.
func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// clamp maps NaN, infinities and negatives to 0.
func clamp(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// finite maps NaN and infinities to 0 and leaves every other value alone.
// Negative amounts survive so the stages can clamp them where they apply.
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// safeDiv divides and clamps; a zero divisor yields 0.
func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return clamp(a / b)
}

// buildingPower returns the power drawn by count buildings of the given
// nominal power. Whole buildings draw linearly; the fractional remainder
// follows the under-clocking curve.
func buildingPower(nominal, count float64) float64 {
	count = clamp(count)
	whole, frac := math.Modf(count)
	return nominal*whole + nominal*math.Pow(frac, powerCurveExponent)
}
