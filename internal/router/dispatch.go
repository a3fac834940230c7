package router

import (
	"slabcore/internal/errs"
	"slabcore/internal/wire"
	"slabcore/pkg/types"
)

// Dispatch decodes raw as a router instruction (spec.md §6's router table)
// and applies it to r. callerAccountIdx identifies the portfolio the
// instruction acts on for Deposit/Withdraw/MultiReserve/MultiCommit — the
// wire payloads for those entries carry a mint or hold ids but no
// account_idx, since in the original that identity comes from the
// instruction's signer account (out of scope per spec.md §1); the harness
// supplies it out of band the same way a real dispatcher would resolve it
// from the transaction's accounts list. currentTS is the dispatcher's
// clock, applied to every MultiReserve leg so hold expiries are anchored
// to the time the instruction was executed.
// defaultReserveTTLMs is the hold lifetime applied to legs built purely
// from the router's MultiReserve wire payload, which (per spec.md §6)
// carries slab_id/instrument_idx/side/qty/limit_px but no ttl_ms or
// commitment_hash — those two fields exist on the slab's own Reserve entry
// but were dropped from the router's fan-out table. Callers that need a
// real commit-reveal guarantee or a non-default TTL should build
// ReserveLeg values directly and call Registry.MultiReserve; Dispatch
// exists for the literal wire contract and accepts this reduced guarantee
// as a documented limitation.
const defaultReserveTTLMs = 30_000

func Dispatch(r *Registry, raw []byte, callerAccountIdx, liquidatorAccountIdx uint32, salt [32]byte, currentTS uint64) (any, error) {
	instr, err := wire.DecodeRouter(raw)
	if err != nil {
		return nil, err
	}

	switch in := instr.(type) {
	case wire.RouterInitializeInstruction:
		r.Authority = in.Authority
		return nil, nil

	case wire.RouterDepositInstruction:
		amount := in.Amount.Uint64()
		r.Deposit(callerAccountIdx, amount)
		return nil, nil

	case wire.RouterWithdrawInstruction:
		amount := in.Amount.Uint64()
		return nil, r.Withdraw(callerAccountIdx, amount)

	case wire.RouterMultiReserveInstruction:
		legs := make([]ReserveLeg, 0, len(in.Legs))
		for _, leg := range in.Legs {
			legs = append(legs, ReserveLeg{
				SlabID:        string(trimTrailingZeros(leg.SlabID[:])),
				InstrumentIdx: leg.InstrumentIdx,
				Side:          types.Side(leg.Side),
				Qty:           leg.Qty,
				LimitPx:       leg.LimitPx,
				TTLMs:         defaultReserveTTLMs,
			})
		}
		return r.MultiReserve(callerAccountIdx, currentTS, legs)

	case wire.RouterMultiCommitInstruction:
		holds := make([]HoldRef, 0, len(in.HoldIDs))
		p := r.Portfolio(callerAccountIdx)
		for _, id := range in.HoldIDs {
			if ref, ok := p.Holds[id]; ok {
				holds = append(holds, ref)
			}
		}
		return r.MultiCommit(callerAccountIdx, in.CurrentTS, holds, salt)

	case wire.RouterLiquidateInstruction:
		return r.Liquidate(callerAccountIdx, liquidatorAccountIdx, in.MaxDebt)

	default:
		return nil, errs.New(errs.InvalidInstruction, "undecodable router instruction")
	}
}

// trimTrailingZeros strips trailing NUL padding from a fixed-size byte
// array used to carry a short ASCII identifier (slab_id) over the wire.
func trimTrailingZeros(b []byte) []byte {
	end := len(b)
	for end > 0 && b[end-1] == 0 {
		end--
	}
	return b[:end]
}
