// Package fixedpoint implements the tick/lot alignment checks and the
// integer-only arithmetic (VWAP, fee accrual, max-charge, kill-band and
// price-band evaluation) the matching core needs. Every quantity here is a
// scaled integer; there is no floating point anywhere in this package.
package fixedpoint

import "slabcore/pkg/types"

// IsTickAligned reports whether px is a multiple of tick.
func IsTickAligned(px, tick uint64) bool {
	if tick == 0 {
		return true
	}
	return px%tick == 0
}

// IsLotAligned reports whether qty is a multiple of lot.
func IsLotAligned(qty, lot uint64) bool {
	if lot == 0 {
		return true
	}
	return qty%lot == 0
}

// VWAP returns totalNotional/filledQty (integer division), or limitPx if
// filledQty is zero — the convention used when a reserve walk fills
// nothing.
func VWAP(totalNotional types.Uint128, filledQty, limitPx uint64) uint64 {
	if filledQty == 0 {
		return limitPx
	}
	return totalNotional.DivUint64(filledQty).Uint64()
}

// MaxCharge computes filled_qty × contract_size × worst_px ×
// (10_000 + taker_fee_bps) / 10_000 — the upper bound on settlement cost
// for a reservation, including the taker fee.
func MaxCharge(filledQty, contractSize, worstPx uint64, takerFeeBps int64) types.Uint128 {
	notional := types.MulUint64(filledQty, contractSize)
	value := notional.MulUint64Chain(worstPx)
	numerator := value.MulUint64Chain(uint64(10_000 + takerFeeBps))
	return numerator.DivUint64(10_000)
}

// Notional returns qty × contractSize × px — the scaled economic value of
// a fill or position at the given price.
func Notional(qty, contractSize, px uint64) types.Uint128 {
	return types.MulUint64(qty, contractSize).MulUint64Chain(px)
}

// WithinKillBand reports whether the absolute relative drift between
// oracleNow and reserveOraclePx is within killBandBps basis points. A
// killBandBps of zero disables the check (always true), matching "if
// configured" in the commit preconditions.
func WithinKillBand(oracleNow, reserveOraclePx uint64, killBandBps uint64) bool {
	if killBandBps == 0 {
		return true
	}
	if reserveOraclePx == 0 {
		return true
	}
	var diff uint64
	if oracleNow >= reserveOraclePx {
		diff = oracleNow - reserveOraclePx
	} else {
		diff = reserveOraclePx - oracleNow
	}
	// diff/reserveOraclePx <= killBandBps/10000  <=>  diff*10000 <= killBandBps*reserveOraclePx
	lhs := types.MulUint64(diff, 10_000)
	rhs := types.MulUint64(killBandBps, reserveOraclePx)
	return !lhs.GT(rhs)
}

// PriceBand returns the liquidation execution price: index × (1 ±
// priceBandBps/10_000). closingLong is true when the liquidated position
// is long and is therefore being sold (execution price below index);
// false when short and being bought (execution price above index).
func PriceBand(indexPrice uint64, priceBandBps uint64, closingLong bool) uint64 {
	adj := types.MulUint64(indexPrice, priceBandBps).DivUint64(10_000).Uint64()
	if closingLong {
		if adj > indexPrice {
			return 0
		}
		return indexPrice - adj
	}
	return indexPrice + adj
}

// BpsOf returns value × bps / 10_000, truncated.
func BpsOf(value types.Uint128, bps uint64) types.Uint128 {
	return value.MulBps(bps)
}
