package matching

import (
	"slabcore/internal/errs"
	"slabcore/internal/slab"
	"slabcore/internal/wire"
	"slabcore/pkg/types"
)

// Dispatch decodes raw as a slab instruction (spec.md §6's eight-entry
// table) and applies it to s, the single request executor spec.md §5
// describes: one instruction observes and mutates the whole slab state
// with no interleaving. currentTS is supplied by the caller (the harness
// reads it from its own clock) rather than carried in every payload, since
// several instructions reuse it as an explicit field already.
//
// The freeze window opened by BatchOpen reuses header.BatchMs as its
// length: spec.md's Initialize payload carries batch_ms but no separate
// freeze_window_ms, so BatchOpen has no other slab-level duration to draw
// on.
func Dispatch(s *slab.State, raw []byte, currentTS uint64) (any, error) {
	instr, err := wire.DecodeSlab(raw)
	if err != nil {
		return nil, err
	}

	switch in := instr.(type) {
	case wire.ReserveInstruction:
		return Reserve(s, ReserveInput{
			AccountIdx:     in.AccountIdx,
			InstrumentIdx:  in.InstrumentIdx,
			Side:           types.Side(in.Side),
			Qty:            in.Qty,
			LimitPx:        in.LimitPx,
			TTLMs:          in.TTLMs,
			CommitmentHash: in.CommitmentHash,
			RouteID:        in.RouteID,
			CurrentTS:      currentTS,
		})

	case wire.CommitInstruction:
		return nil, Commit(s, CommitInput{
			HoldID:    in.HoldID,
			Salt:      in.Salt,
			CurrentTS: in.CurrentTS,
		})

	case wire.CancelInstruction:
		return nil, Cancel(s, in.HoldID)

	case wire.BatchOpenInstruction:
		return nil, BatchOpen(s, in.InstrumentIdx, in.CurrentTS, s.Header.BatchMs)

	case wire.InitializeInstruction:
		return nil, s.Initialize(in.Authority, in.Oracle, in.Router, in.IMRBps, in.MMRBps,
			in.MakerFeeBps, in.TakerFeeBps, in.BatchMs, in.FreezeLevels)

	case wire.AddInstrumentInstruction:
		return s.AddInstrument(in.Symbol, in.ContractSize, in.Tick, in.Lot, in.IndexPrice)

	case wire.UpdateFundingInstruction:
		if in.UpdateAll {
			return nil, UpdateAllFunding(s, in.CurrentTS)
		}
		return nil, UpdateFunding(s, in.InstrumentIdx, in.CurrentTS)

	case wire.LiquidateInstruction:
		return Liquidate(s, LiquidateInput{
			AccountIdx:    in.AccountIdx,
			DeficitTarget: in.DeficitTarget,
			LiqFeeBps:     in.LiqFeeBps,
			PriceBandBps:  in.PriceBandBps,
		})

	default:
		return nil, errs.New(errs.InvalidInstruction, "undecodable slab instruction")
	}
}
