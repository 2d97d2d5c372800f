package domain

import "math"

// amountTolerance is half of the smallest currency unit.
const amountTolerance = 0.005

// RoundMoney rounds to the currency minor unit.
func RoundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}

func SameAmount(a, b float64) bool {
	return math.Abs(a-b) < amountTolerance
}

// SplitFee divides price into the platform fee and the provider's share.
// Both parts are computed in minor units so they always add up to price.
func SplitFee(price, feeRate float64) (fee, earnings float64) {
	cents := math.Round(price * 100)
	feeCents := math.Round(cents * feeRate)
	return feeCents / 100, (cents - feeCents) / 100
}
