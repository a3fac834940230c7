// Package router implements the multi-slab coordinator: portfolio
// deposit/withdraw, multi-reserve (all-or-none across slabs),
// multi-commit (at-least-partial-commit), and cross-slab liquidation. The
// router never mutates a book directly — every book mutation happens
// inside the per-slab matching package, reached only through the Slab
// interface below.
package router

import (
	"slabcore/internal/errs"
	"slabcore/internal/matching"
	"slabcore/internal/slab"
	"slabcore/pkg/types"
)

// Slab is the subset of slab operations the router drives. It exists so
// the router can be tested against fakes without standing up a full
// slab.State per slab_id.
type Slab interface {
	Reserve(in matching.ReserveInput) (matching.ReserveResult, error)
	Commit(in matching.CommitInput) error
	Cancel(holdID uint64) error
	Liquidate(in matching.LiquidateInput) (matching.LiquidateResult, error)

	// AccountState reports accountIdx's current slab-local equity and
	// initial margin, read before and after each committed leg so
	// MultiCommit can reconcile the portfolio from the slab's updates.
	AccountState(accountIdx uint32) (equity int64, im uint64, err error)
}

// liveSlab adapts a *slab.State to the Slab interface.
type liveSlab struct{ s *slab.State }

func (l liveSlab) Reserve(in matching.ReserveInput) (matching.ReserveResult, error) {
	return matching.Reserve(l.s, in)
}
func (l liveSlab) Commit(in matching.CommitInput) error { return matching.Commit(l.s, in) }
func (l liveSlab) Cancel(holdID uint64) error           { return matching.Cancel(l.s, holdID) }
func (l liveSlab) Liquidate(in matching.LiquidateInput) (matching.LiquidateResult, error) {
	return matching.Liquidate(l.s, in)
}
func (l liveSlab) AccountState(accountIdx uint32) (int64, uint64, error) {
	equity, err := matching.Equity(l.s, accountIdx)
	if err != nil {
		return 0, 0, err
	}
	acc, err := l.s.Account(accountIdx)
	if err != nil {
		return 0, 0, err
	}
	return equity, acc.IM, nil
}

// WrapSlab adapts a live *slab.State into the router's Slab interface.
func WrapSlab(s *slab.State) Slab { return liveSlab{s: s} }

// Portfolio is one user's cross-slab bookkeeping: cash equity and the
// initial margin reconciled from committed legs. Slab-level margin
// detail lives inside each slab's Account; the portfolio tracks the
// router's own view used for the cross-slab headroom check.
type Portfolio struct {
	Equity   int64
	IM       uint64
	Holds    map[uint64]HoldRef // hold_id -> the slab hold it names
	nextRoute uint64
}

// HoldRef is one slab's hold created by a MultiReserve, kept so
// MultiCommit/cancel-fanout can address it.
type HoldRef struct {
	SlabID string
	HoldID uint64
}

// Registry holds the router's identity and every portfolio it tracks.
type Registry struct {
	Authority  [32]byte
	Slabs      map[string]Slab
	Portfolios map[uint32]*Portfolio

	// LiqFeeBps/PriceBandBps are the liquidation parameters applied to
	// every slab-local leg of a cross-slab Liquidate call. The router
	// instruction table's Liquidate entry (spec.md §6) carries only
	// liquidatee and max_debt — unlike the slab table's own Liquidate
	// entry, it has no per-call fee/band fields — so these are configured
	// once on the registry instead.
	LiqFeeBps    uint16
	PriceBandBps uint16
}

// NewRegistry constructs an empty, initialized Registry.
func NewRegistry(authority [32]byte) *Registry {
	return &Registry{
		Authority:  authority,
		Slabs:      make(map[string]Slab),
		Portfolios: make(map[uint32]*Portfolio),
	}
}

// RegisterSlab makes slabID reachable for MultiReserve/MultiCommit.
func (r *Registry) RegisterSlab(slabID string, s Slab) {
	r.Slabs[slabID] = s
}

// Portfolio returns accountIdx's portfolio, creating an empty one on first
// touch (mirroring the slab's own account auto-creation).
func (r *Registry) Portfolio(accountIdx uint32) *Portfolio {
	p, ok := r.Portfolios[accountIdx]
	if !ok {
		p = &Portfolio{Holds: make(map[uint64]HoldRef)}
		r.Portfolios[accountIdx] = p
	}
	return p
}

// Deposit increments accountIdx's portfolio equity. Token movement to the
// external custodial account is out of scope here.
func (r *Registry) Deposit(accountIdx uint32, amount uint64) {
	p := r.Portfolio(accountIdx)
	p.Equity += int64(amount)
}

// Withdraw decrements accountIdx's portfolio equity, requiring that
// equity - im >= amount remain.
func (r *Registry) Withdraw(accountIdx uint32, amount uint64) error {
	p := r.Portfolio(accountIdx)
	if p.Equity-int64(p.IM) < int64(amount) {
		return errs.New(errs.InsufficientFunds, "withdrawal would breach locked initial margin")
	}
	p.Equity -= int64(amount)
	return nil
}

// ReserveLeg is one slab's request within a MultiReserve call.
type ReserveLeg struct {
	SlabID        string
	InstrumentIdx uint16
	Side          types.Side
	Qty           uint64
	LimitPx       uint64
	TTLMs         uint64
	CommitmentHash [32]byte
}

// MultiReserveResult reports the per-leg outcomes of a successful
// MultiReserve call.
type MultiReserveResult struct {
	RouteID uint64
	Legs    []matching.ReserveResult
	Holds   []HoldRef
}

// MultiReserve fans out Reserve to every leg's slab. It is all-or-none: on
// the first leg failure, every already-reserved leg is cancelled and the
// error is returned. On success, it additionally requires the aggregate
// Σ max_charge to fit within the portfolio's margin headroom; if it does
// not, every leg reserved in this call is cancelled and InsufficientMargin
// is returned.
func (r *Registry) MultiReserve(accountIdx uint32, currentTS uint64, legs []ReserveLeg) (MultiReserveResult, error) {
	p := r.Portfolio(accountIdx)

	var reserved []HoldRef
	var results []matching.ReserveResult
	var totalMaxCharge types.Uint128

	cancelAll := func() {
		for _, h := range reserved {
			if s, ok := r.Slabs[h.SlabID]; ok {
				_ = s.Cancel(h.HoldID)
			}
		}
	}

	p.nextRoute++
	routeID := p.nextRoute

	for _, leg := range legs {
		s, ok := r.Slabs[leg.SlabID]
		if !ok {
			cancelAll()
			return MultiReserveResult{}, errs.New(errs.InvalidInstruction, "unknown slab_id in MultiReserve leg")
		}

		res, err := s.Reserve(matching.ReserveInput{
			AccountIdx:     accountIdx,
			InstrumentIdx:  leg.InstrumentIdx,
			Side:           leg.Side,
			Qty:            leg.Qty,
			LimitPx:        leg.LimitPx,
			TTLMs:          leg.TTLMs,
			CommitmentHash: leg.CommitmentHash,
			RouteID:        routeID,
			CurrentTS:      currentTS,
		})
		if err != nil {
			cancelAll()
			return MultiReserveResult{}, err
		}

		ref := HoldRef{SlabID: leg.SlabID, HoldID: res.HoldID}
		reserved = append(reserved, ref)
		results = append(results, res)
		totalMaxCharge = totalMaxCharge.Add(res.MaxCharge)
	}

	if totalMaxCharge.GT(types.Uint128FromUint64(0)) {
		required := p.IM + totalMaxCharge.Uint64()
		if p.Equity < int64(required) {
			cancelAll()
			return MultiReserveResult{}, errs.New(errs.InsufficientMargin, "aggregate max_charge exceeds portfolio equity headroom")
		}
	}

	for _, ref := range reserved {
		p.Holds[ref.HoldID] = ref
	}

	return MultiReserveResult{RouteID: routeID, Legs: results, Holds: reserved}, nil
}

// MultiCommit fans out Commit across holds. It has at-least-partial-commit
// semantics: on the first leg failure, every already-committed leg stands,
// every not-yet-attempted hold after it is cancelled, and the failed leg's
// own hold is dropped from portfolio bookkeeping but deliberately left
// outstanding on its slab for the caller to inspect or cancel directly —
// a failed reveal may be worth retrying with the correct salt rather than
// torn down automatically. This is a deliberate, documented departure from
// cross-slab atomicity.
//
// Each committed leg's settlement is reconciled into the portfolio: the
// slab's account equity and initial margin are read before and after the
// commit, and the deltas folded into p.Equity and p.IM.
func (r *Registry) MultiCommit(accountIdx uint32, currentTS uint64, holds []HoldRef, salt [32]byte) (committedCount int, err error) {
	p := r.Portfolio(accountIdx)

	for i, h := range holds {
		s, ok := r.Slabs[h.SlabID]
		if !ok {
			cancelRemaining(r, holds[i:])
			return committedCount, errs.New(errs.InvalidInstruction, "unknown slab_id in MultiCommit hold")
		}

		preEquity, preIM, stateErr := s.AccountState(accountIdx)
		if stateErr != nil {
			cancelRemaining(r, holds[i:])
			return committedCount, stateErr
		}

		commitErr := s.Commit(matching.CommitInput{
			HoldID:    h.HoldID,
			Salt:      salt,
			CurrentTS: currentTS,
		})
		if commitErr != nil {
			cancelRemaining(r, holds[i+1:])
			delete(p.Holds, h.HoldID)
			return committedCount, commitErr
		}

		postEquity, postIM, stateErr := s.AccountState(accountIdx)
		if stateErr != nil {
			committedCount++
			delete(p.Holds, h.HoldID)
			cancelRemaining(r, holds[i+1:])
			return committedCount, stateErr
		}

		p.Equity += postEquity - preEquity
		p.IM = uint64(int64(p.IM) + int64(postIM) - int64(preIM))

		delete(p.Holds, h.HoldID)
		committedCount++
	}

	return committedCount, nil
}

// LiquidateLegResult reports one slab's contribution to a cross-slab
// liquidation pass.
type LiquidateLegResult struct {
	SlabID string
	Result matching.LiquidateResult
}

// Liquidate invokes slab-local liquidation on every registered slab in
// turn, stopping once the aggregate covered notional reaches maxDebt or
// every slab has been tried. Slabs where the liquidatee holds no position
// eligible for liquidation report NotLiquidatable and are skipped rather
// than aborting the whole call. The liquidator's portfolio is credited
// with the total fee collected; the liquidatee's equity is debited by the
// total covered notional plus that fee.
func (r *Registry) Liquidate(liquidateeIdx, liquidatorIdx uint32, maxDebt types.Uint128) ([]LiquidateLegResult, error) {
	liquidatee := r.Portfolio(liquidateeIdx)
	liquidator := r.Portfolio(liquidatorIdx)

	var legs []LiquidateLegResult
	covered := types.Uint128FromUint64(0)
	attempted := 0

	for slabID, s := range r.Slabs {
		if covered.Cmp(maxDebt) >= 0 {
			break
		}
		remaining := maxDebt.Sub(covered)
		result, err := s.Liquidate(matching.LiquidateInput{
			AccountIdx:    liquidateeIdx,
			DeficitTarget: remaining,
			LiqFeeBps:     r.LiqFeeBps,
			PriceBandBps:  r.PriceBandBps,
		})
		attempted++
		if err != nil {
			if kind, ok := errs.Of(err); ok && kind == errs.NotLiquidatable {
				continue
			}
			return legs, err
		}

		legs = append(legs, LiquidateLegResult{SlabID: slabID, Result: result})
		covered = covered.Add(result.CoveredNotional)

		fee := int64(result.FeeCollected.Uint64())
		liquidator.Equity += fee
		liquidatee.Equity -= int64(result.CoveredNotional.Uint64()) + fee
	}

	if attempted == 0 || len(legs) == 0 {
		return nil, errs.New(errs.NotLiquidatable, "liquidatee is not below maintenance margin on any registered slab")
	}

	return legs, nil
}

func cancelRemaining(r *Registry, holds []HoldRef) {
	for _, h := range holds {
		if s, ok := r.Slabs[h.SlabID]; ok {
			_ = s.Cancel(h.HoldID)
		}
	}
}
