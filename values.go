package ramauction

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// MaxSlotIndex is the highest slot a ranked-auction bid can occupy.
const MaxSlotIndex = 511

// unknownValue renders failed or absent remote lookups; a lookup failure
// degrades a single displayed value, never the surrounding view.
const unknownValue = "—"

// FormatWei renders a wei amount as a fixed four-decimal ETH string.
// A nil value means "unknown" and renders as a dash.
func FormatWei(wei *big.Int) string {
	if wei == nil {
		return unknownValue
	}
	eth := decimal.NewFromBigInt(wei, -18)
	return eth.StringFixed(4) + " ETH"
}

// clampSlot bounds a candidate slot index to [min, MaxSlotIndex].
// Out-of-range adjustments clamp; they are never rejected.
func clampSlot(candidate int, min uint16) uint16 {
	if candidate < int(min) {
		return min
	}
	if candidate > MaxSlotIndex {
		return MaxSlotIndex
	}
	return uint16(candidate)
}
