// Package economy holds the deterministic market price formula. The server
// recomputes the same numbers; the client's result is advisory only.
package economy

import "math"

// SupplyMultiplier scales price by scarcity: empty stock pays 1.5x, full
// stock 1.0x, oversupply is floored at 0.5 so prices never collapse to zero.
func SupplyMultiplier(maxStock, currentStock int) float64 {
	if maxStock <= 0 {
		return 1
	}
	m := 1 + (float64(maxStock-currentStock)/float64(maxStock))*0.5
	return math.Max(0.5, m)
}

// QualityMultiplier maps item condition into [0, 1]. Items that wear use the
// average of quality and durability; everything else uses quality alone.
func QualityMultiplier(quality int, durability *int) float64 {
	if durability != nil {
		return (float64(quality+*durability) / 2) / 100
	}
	return float64(quality) / 100
}

// Price is the final integer price, floored.
func Price(basePrice int, supplyMult, qualityMult float64) int {
	return int(math.Floor(float64(basePrice) * supplyMult * qualityMult))
}

// Quote is what a concrete buy or sell would cost right now.
//
// Hostile containers zero-price both directions: buying from an enemy
// faction is looting, and selling into one is worthless so loot cannot be
// flipped back for coins.
func Quote(basePrice int, maxStock, currentStock int, quality int, durability *int, hostile bool) int {
	if hostile {
		return 0
	}
	return Price(basePrice, SupplyMultiplier(maxStock, currentStock), QualityMultiplier(quality, durability))
}
