package matching

import (
	"testing"

	"slabcore/pkg/types"
)

// TestLiquidateClosesPositionAtPriceBand drives a long position through
// slab-local liquidation once equity has fallen below maintenance margin,
// and checks the price-band execution price, fee, and cash movement.
func TestLiquidateClosesPositionAtPriceBand(t *testing.T) {
	t.Parallel()

	s, instrumentIdx := newTestSlab(t)

	if _, err := s.EnsureAccount(5); err != nil {
		t.Fatalf("EnsureAccount: %v", err)
	}
	pos, _, err := s.FindOrCreatePosition(5, instrumentIdx)
	if err != nil {
		t.Fatalf("FindOrCreatePosition: %v", err)
	}
	pos.Size = 10
	pos.EntryVWAP = 50_000_000

	acc, err := s.Account(5)
	if err != nil {
		t.Fatalf("Account: %v", err)
	}
	acc.Cash = -20_000_000_000

	if err := RecomputeMargins(s, 5); err != nil {
		t.Fatalf("RecomputeMargins: %v", err)
	}
	// notional = 10 * 1000 * 50_000_000 = 500_000_000_000; mmr=250bps.
	if acc.MM != 12_500_000_000 {
		t.Fatalf("MM = %d, want 12_500_000_000", acc.MM)
	}

	result, err := Liquidate(s, LiquidateInput{
		AccountIdx:    5,
		DeficitTarget: types.Uint128FromUint64(1_000_000_000_000),
		LiqFeeBps:     50,
		PriceBandBps:  100,
	})
	if err != nil {
		t.Fatalf("Liquidate: %v", err)
	}

	if result.PositionsClosed != 1 {
		t.Errorf("PositionsClosed = %d, want 1", result.PositionsClosed)
	}
	if got := result.CoveredNotional.Uint64(); got != 495_000_000_000 {
		t.Errorf("CoveredNotional = %d, want 495_000_000_000", got)
	}
	if got := result.FeeCollected.Uint64(); got != 2_475_000_000 {
		t.Errorf("FeeCollected = %d, want 2_475_000_000", got)
	}
	if got := result.RemainingDeficit.Uint64(); got != 505_000_000_000 {
		t.Errorf("RemainingDeficit = %d, want 505_000_000_000", got)
	}

	if got := acc.Cash; got != -27_475_000_000 {
		t.Errorf("Cash after liquidation = %d, want -27_475_000_000", got)
	}
	if idx := s.FindPosition(5, instrumentIdx); idx != types.PoolNull {
		t.Error("expected the liquidated position to be freed")
	}
	if acc.MM != 0 {
		t.Errorf("MM after closing the only position = %d, want 0", acc.MM)
	}
}

// TestLiquidateRejectsHealthyAccount checks that Liquidate refuses an
// account whose equity is still at or above maintenance margin.
func TestLiquidateRejectsHealthyAccount(t *testing.T) {
	t.Parallel()

	s, instrumentIdx := newTestSlab(t)

	if _, err := s.EnsureAccount(6); err != nil {
		t.Fatalf("EnsureAccount: %v", err)
	}
	pos, _, err := s.FindOrCreatePosition(6, instrumentIdx)
	if err != nil {
		t.Fatalf("FindOrCreatePosition: %v", err)
	}
	pos.Size = 10
	pos.EntryVWAP = 50_000_000

	acc, err := s.Account(6)
	if err != nil {
		t.Fatalf("Account: %v", err)
	}
	acc.Cash = 1_000_000_000_000

	if err := RecomputeMargins(s, 6); err != nil {
		t.Fatalf("RecomputeMargins: %v", err)
	}

	_, err = Liquidate(s, LiquidateInput{
		AccountIdx:    6,
		DeficitTarget: types.Uint128FromUint64(1),
		LiqFeeBps:     50,
		PriceBandBps:  100,
	})
	kindOf(t, err, "NotLiquidatable")
}
