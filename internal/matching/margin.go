package matching

import (
	"slabcore/internal/fixedpoint"
	"slabcore/internal/slab"
	"slabcore/pkg/types"
)

// positionNotional returns |size| × contract_size × index_price.
func positionNotional(pos *types.Position, instrument *types.Instrument) types.Uint128 {
	size := pos.Size
	if size < 0 {
		size = -size
	}
	return fixedpoint.Notional(uint64(size), instrument.ContractSize, instrument.IndexPrice)
}

// markToMarket returns the signed unrealized PnL of pos at the
// instrument's current index price relative to its entry VWAP.
func markToMarket(pos *types.Position, instrument *types.Instrument) int64 {
	if pos.Size == 0 {
		return 0
	}
	var diff int64
	if instrument.IndexPrice >= pos.EntryVWAP {
		diff = int64(instrument.IndexPrice - pos.EntryVWAP)
	} else {
		diff = -int64(pos.EntryVWAP - instrument.IndexPrice)
	}
	return diff * pos.Size * int64(instrument.ContractSize)
}

// accrueFunding applies the lazily-reconciled funding delta for pos given
// the instrument's current cum_funding, and returns the signed accrual
// amount added to cash.
func accrueFunding(pos *types.Position, instrument *types.Instrument) int64 {
	if pos.Size == 0 {
		pos.CumFundingSnapshot = instrument.CumFunding
		return 0
	}
	delta := (instrument.CumFunding - pos.CumFundingSnapshot) * pos.Size
	pos.CumFundingSnapshot = instrument.CumFunding
	return delta
}

// Equity computes cash + Σ position.mark_to_market + Σ position.cum_funding
// across every position the account holds, walking the given slab's
// instrument table by index.
func Equity(s *slab.State, accountIdx uint32) (int64, error) {
	acc, err := s.Account(accountIdx)
	if err != nil {
		return 0, err
	}
	equity := acc.Cash
	cur := acc.PositionHead
	for cur != types.PoolNull {
		pos := s.Positions.Get(cur)
		instrument, err := s.Instrument(pos.InstrumentIdx)
		if err != nil {
			return 0, err
		}
		equity += markToMarket(pos, instrument)
		equity += (instrument.CumFunding - pos.CumFundingSnapshot) * pos.Size
		cur = pos.Next
	}
	return equity, nil
}

// RecomputeMargins recomputes IM and MM for accountIdx as
// Σ |position_notional| × margin_bps over every open position, and writes
// them back onto the account.
func RecomputeMargins(s *slab.State, accountIdx uint32) error {
	acc, err := s.Account(accountIdx)
	if err != nil {
		return err
	}

	var totalNotional types.Uint128
	cur := acc.PositionHead
	for cur != types.PoolNull {
		pos := s.Positions.Get(cur)
		instrument, err := s.Instrument(pos.InstrumentIdx)
		if err != nil {
			return err
		}
		totalNotional = totalNotional.Add(positionNotional(pos, instrument))
		cur = pos.Next
	}

	acc.IM = totalNotional.MulBps(uint64(s.Header.IMRBps)).Uint64()
	acc.MM = totalNotional.MulBps(uint64(s.Header.MMRBps)).Uint64()
	return nil
}

// IsLiquidatable reports whether equity has fallen below mm — property
// that gates slab-local and router liquidation.
func IsLiquidatable(equity int64, mm uint64) bool {
	return equity < int64(mm)
}
