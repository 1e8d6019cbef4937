package orderflow

// Level is one price level of an order book side.
type Level struct {
	Price float64
	Qty   float64
}

// Imbalance computes the order book imbalance over the top depth levels:
// (bidQty - askQty) / (bidQty + askQty), bounded in [-1, 1].
// Positive values indicate buy pressure, negative values sell pressure.
// Returns 0 when either side is empty or total queued volume is zero.
func Imbalance(bids, asks []Level, depth int) float64 {
	if len(bids) == 0 || len(asks) == 0 || depth <= 0 {
		return 0.0
	}

	bidQty := sumQty(top(bids, depth))
	askQty := sumQty(top(asks, depth))

	total := bidQty + askQty
	if total == 0 {
		return 0.0
	}

	return (bidQty - askQty) / total
}

// WeightedImbalance is Imbalance with levels closer to the touch weighted
// higher: level i carries weight 1 - i/depth, so the best level counts fully
// and weights decay linearly toward the depth boundary.
func WeightedImbalance(bids, asks []Level, depth int) float64 {
	if len(bids) == 0 || len(asks) == 0 || depth <= 0 {
		return 0.0
	}

	decay := 1.0 / float64(depth)

	bidQty := 0.0
	for i, lvl := range top(bids, depth) {
		bidQty += lvl.Qty * (1.0 - float64(i)*decay)
	}

	askQty := 0.0
	for i, lvl := range top(asks, depth) {
		askQty += lvl.Qty * (1.0 - float64(i)*decay)
	}

	total := bidQty + askQty
	if total == 0 {
		return 0.0
	}

	return (bidQty - askQty) / total
}

func top(levels []Level, depth int) []Level {
	if len(levels) > depth {
		return levels[:depth]
	}
	return levels
}

func sumQty(levels []Level) float64 {
	qty := 0.0
	for _, lvl := range levels {
		qty += lvl.Qty
	}
	return qty
}
