package domain

import "math"

// RoundCurrency rounds half away from zero.
func RoundCurrency(value float64, places int) float64 {
	if places < 0 {
		places = 0
	}
	factor := math.Pow(10, float64(places))
	return math.Round(value*factor) / factor
}

func round2(value float64) float64 {
	return RoundCurrency(value, 2)
}
