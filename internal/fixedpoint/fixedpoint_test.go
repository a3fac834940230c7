package fixedpoint

import (
	"testing"

	"slabcore/pkg/types"
)

func TestIsTickAndLotAligned(t *testing.T) {
	t.Parallel()

	if !IsTickAligned(50_000_000, 100) {
		t.Error("50_000_000 should be tick-aligned to 100")
	}
	if IsTickAligned(50_000_050, 100) {
		t.Error("50_000_050 should not be tick-aligned to 100")
	}
	if !IsLotAligned(10, 1) {
		t.Error("10 should be lot-aligned to 1")
	}
	if IsLotAligned(10, 3) {
		t.Error("10 should not be lot-aligned to 3")
	}
}

// TestMaxChargeWorstCaseFill checks filled_qty=5, contract_size=1000,
// worst_px=50_000_000, taker_fee_bps=20 -> max_charge = 250_500_000_000.
func TestMaxChargeWorstCaseFill(t *testing.T) {
	t.Parallel()

	got := MaxCharge(5, 1000, 50_000_000, 20)
	want := types.Uint128FromUint64(250_500_000_000)
	if got.Cmp(want) != 0 {
		t.Errorf("MaxCharge = %d, want %d", got.Uint64(), want.Uint64())
	}
}

// TestVWAPTwoLevelFill checks total_notional=400_500_000,
// filled_qty=8 -> vwap_px=50_062_500.
func TestVWAPTwoLevelFill(t *testing.T) {
	t.Parallel()

	totalNotional := types.MulUint64(3, 50_000_000).Add(types.MulUint64(5, 50_100_000))
	got := VWAP(totalNotional, 8, 51_000_000)
	if got != 50_062_500 {
		t.Errorf("VWAP = %d, want 50_062_500", got)
	}
}

func TestVWAPZeroFillReturnsLimitPx(t *testing.T) {
	t.Parallel()

	got := VWAP(types.Uint128FromUint64(0), 0, 49_000_000)
	if got != 49_000_000 {
		t.Errorf("VWAP with zero fill = %d, want limit_px 49_000_000", got)
	}
}

func TestWithinKillBand(t *testing.T) {
	t.Parallel()

	// 1% drift with a 100bps band should be exactly on the boundary (pass).
	if !WithinKillBand(50_500_000, 50_000_000, 100) {
		t.Error("expected 1% drift to be within a 100bps kill band")
	}
	// 2% drift with a 100bps band should fail.
	if WithinKillBand(51_000_000, 50_000_000, 100) {
		t.Error("expected 2% drift to violate a 100bps kill band")
	}
	// zero bps disables the check.
	if !WithinKillBand(90_000_000, 50_000_000, 0) {
		t.Error("expected killBandBps=0 to disable the check")
	}
}

func TestPriceBand(t *testing.T) {
	t.Parallel()

	// Closing a long: sell below index by the band.
	if got := PriceBand(50_000_000, 100, true); got != 49_500_000 {
		t.Errorf("PriceBand(closingLong) = %d, want 49_500_000", got)
	}
	// Closing a short: buy above index by the band.
	if got := PriceBand(50_000_000, 100, false); got != 50_500_000 {
		t.Errorf("PriceBand(closingShort) = %d, want 50_500_000", got)
	}
}
