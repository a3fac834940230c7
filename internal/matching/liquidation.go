package matching

import (
	"slabcore/internal/errs"
	"slabcore/internal/fixedpoint"
	"slabcore/internal/slab"
	"slabcore/pkg/types"
)

// LiquidateInput is the full set of inputs to slab-local Liquidate.
type LiquidateInput struct {
	AccountIdx    uint32
	DeficitTarget types.Uint128
	LiqFeeBps     uint16
	PriceBandBps  uint16
}

// LiquidateResult reports what the slab actually closed, so the router
// (which owns the liquidator's portfolio) can credit the fee and update
// both sides' equity.
type LiquidateResult struct {
	CoveredNotional  types.Uint128
	FeeCollected     types.Uint128
	RemainingDeficit types.Uint128
	PositionsClosed  int
}

// Liquidate closes accountIdx's positions at a price-band offset from each
// instrument's index price, one position at a time, until the covered
// notional reaches DeficitTarget or every position is closed. It requires
// the account to already be below its maintenance margin.
func Liquidate(s *slab.State, in LiquidateInput) (LiquidateResult, error) {
	equity, err := Equity(s, in.AccountIdx)
	if err != nil {
		return LiquidateResult{}, err
	}
	acc, err := s.Account(in.AccountIdx)
	if err != nil {
		return LiquidateResult{}, err
	}
	if !IsLiquidatable(equity, acc.MM) {
		return LiquidateResult{}, errs.New(errs.NotLiquidatable, "account equity is not below maintenance margin")
	}

	var covered types.Uint128
	var feeTotal types.Uint128
	closed := 0

	cur := acc.PositionHead
	for cur != types.PoolNull && covered.Cmp(in.DeficitTarget) < 0 {
		pos := s.Positions.Get(cur)
		next := pos.Next
		instrument, err := s.Instrument(pos.InstrumentIdx)
		if err != nil {
			return LiquidateResult{}, err
		}

		closingLong := pos.Size > 0
		execPx := fixedpoint.PriceBand(instrument.IndexPrice, uint64(in.PriceBandBps), closingLong)

		size := pos.Size
		if size < 0 {
			size = -size
		}
		notional := fixedpoint.Notional(uint64(size), instrument.ContractSize, execPx)

		var pnlPerUnit int64
		if closingLong {
			pnlPerUnit = int64(execPx) - int64(pos.EntryVWAP)
		} else {
			pnlPerUnit = int64(pos.EntryVWAP) - int64(execPx)
		}
		acc.Cash += pnlPerUnit * size * int64(instrument.ContractSize)

		fee := notional.MulBps(uint64(in.LiqFeeBps))
		acc.Cash -= int64(fee.Uint64())

		pos.Size = 0
		s.RemovePositionIfZero(in.AccountIdx, cur)

		covered = covered.Add(notional)
		feeTotal = feeTotal.Add(fee)
		closed++

		cur = next
	}

	if err := RecomputeMargins(s, in.AccountIdx); err != nil {
		return LiquidateResult{}, err
	}

	remaining := types.Uint128FromUint64(0)
	if in.DeficitTarget.GT(covered) {
		remaining = in.DeficitTarget.Sub(covered)
	}

	return LiquidateResult{
		CoveredNotional:  covered,
		FeeCollected:     feeTotal,
		RemainingDeficit: remaining,
		PositionsClosed:  closed,
	}, nil
}
