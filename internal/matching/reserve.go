// Package matching implements the reserve/commit/cancel protocol, batch
// open/freeze, funding accrual, and slab-local liquidation described by
// the slab's component design — the book walk that creates a two-phase
// hold against maker liquidity, and the settlement that later executes it.
package matching

import (
	"slabcore/internal/book"
	"slabcore/internal/errs"
	"slabcore/internal/fixedpoint"
	"slabcore/internal/slab"
	"slabcore/pkg/types"
)

// ReserveInput is the full set of inputs to Reserve.
type ReserveInput struct {
	AccountIdx     uint32
	InstrumentIdx  uint16
	Side           types.Side // taker side
	Qty            uint64     // lot-aligned
	LimitPx        uint64     // tick-aligned
	TTLMs          uint64
	CommitmentHash [32]byte
	RouteID        uint64
	CurrentTS      uint64
}

// ReserveResult is the full outcome of a successful Reserve call.
type ReserveResult struct {
	HoldID    uint64
	VWAPPx    uint64
	WorstPx   uint64
	MaxCharge types.Uint128
	ExpiryMS  uint64
	BookSeqno uint64
	FilledQty uint64
}

// reserveFill records the taken quantity against one maker order, so the
// walk's reserved_qty increments can be rolled back if the slice pool is
// exhausted mid-walk.
type reserveFill struct {
	orderIdx uint32
	qty      uint64
}

// Reserve walks the contra-side live book within the taker's price limit,
// creating a reservation that locks maker liquidity without executing it.
func Reserve(s *slab.State, in ReserveInput) (ReserveResult, error) {
	instrument, err := s.Instrument(in.InstrumentIdx)
	if err != nil {
		return ReserveResult{}, err
	}

	isDLP := s.IsDLP(in.AccountIdx)

	if in.CurrentTS < instrument.FreezeUntilMS && s.Header.FreezeLevels == 0 && !isDLP {
		return ReserveResult{}, errs.New(errs.OrderFrozen, "slab is fully frozen for non-DLP takers")
	}

	if !fixedpoint.IsTickAligned(in.LimitPx, instrument.Tick) {
		return ReserveResult{}, errs.New(errs.PriceNotAligned, "limit_px not tick-aligned")
	}
	if !fixedpoint.IsLotAligned(in.Qty, instrument.Lot) {
		return ReserveResult{}, errs.New(errs.QuantityNotAligned, "qty not lot-aligned")
	}

	// Step 1: auto-create the account entry if inactive.
	if _, err := s.EnsureAccount(in.AccountIdx); err != nil {
		return ReserveResult{}, err
	}

	contraSide := in.Side.Opposite()
	head := instrument.Head(contraSide)

	var (
		qtyLeft        = in.Qty
		totalNotional  = types.Uint128FromUint64(0)
		worstPx        uint64
		filledQty      uint64
		priceLevelCount int
		lastPrice      uint64
		havePrice      bool
		sliceHead      uint32 = types.PoolNull
		sliceTail      uint32 = types.PoolNull
		fills          []reserveFill
	)

	rollback := func() {
		for _, f := range fills {
			s.Orders.Get(f.orderIdx).ReservedQty -= f.qty
		}
		for cur := sliceHead; cur != types.PoolNull; {
			next := s.Slices.Get(cur).Next
			s.Slices.Free(cur)
			cur = next
		}
	}

	var walkErr error
	book.Walk(s.Orders, head, func(orderIdx uint32, o *types.Order) bool {
		if qtyLeft == 0 {
			return false
		}

		// Step 2: price-level counting.
		if !havePrice || o.Price != lastPrice {
			priceLevelCount++
			lastPrice = o.Price
			havePrice = true
		}

		// Step 3: Top-K freeze.
		if in.CurrentTS < instrument.FreezeUntilMS && !isDLP && priceLevelCount <= int(s.Header.FreezeLevels) {
			return true
		}

		// Step 4: price limit.
		if in.Side == types.Buy {
			if o.Price > in.LimitPx {
				return false
			}
		} else {
			if o.Price < in.LimitPx {
				return false
			}
		}

		// Step 5: availability.
		available := o.Available()
		if available == 0 {
			return true
		}

		// Step 6: take min(qty_left, available).
		take := qtyLeft
		if available < take {
			take = available
		}

		sliceIdx, err := s.Slices.Alloc()
		if err != nil {
			walkErr = err
			return false
		}
		slice := s.Slices.Get(sliceIdx)
		slice.OrderIdx = orderIdx
		slice.Qty = take
		slice.Next = types.PoolNull

		if sliceTail == types.PoolNull {
			sliceHead = sliceIdx
		} else {
			s.Slices.Get(sliceTail).Next = sliceIdx
		}
		sliceTail = sliceIdx

		o.ReservedQty += take
		fills = append(fills, reserveFill{orderIdx: orderIdx, qty: take})

		totalNotional = totalNotional.Add(types.MulUint64(take, o.Price))
		worstPx = o.Price
		qtyLeft -= take
		filledQty += take

		return qtyLeft > 0
	})

	if walkErr != nil {
		rollback()
		return ReserveResult{}, walkErr
	}

	vwapPx := fixedpoint.VWAP(totalNotional, filledQty, in.LimitPx)
	if filledQty == 0 {
		worstPx = in.LimitPx
	}
	maxCharge := fixedpoint.MaxCharge(filledQty, instrument.ContractSize, worstPx, int64(s.Header.TakerFeeBps))

	holdIdx, err := s.Reservations.Alloc()
	if err != nil {
		rollback()
		return ReserveResult{}, err
	}

	s.Header.NextHoldID++
	holdID := s.Header.NextHoldID

	expiryMS := in.CurrentTS + in.TTLMs

	res := s.Reservations.Get(holdIdx)
	*res = types.Reservation{
		HoldID:          holdID,
		RouteID:         in.RouteID,
		AccountIdx:      in.AccountIdx,
		InstrumentIdx:   in.InstrumentIdx,
		Side:            in.Side,
		Qty:             filledQty,
		ReqQty:          in.Qty,
		LimitPx:         in.LimitPx,
		VWAPPx:          vwapPx,
		WorstPx:         worstPx,
		MaxCharge:       maxCharge,
		CommitmentHash:  in.CommitmentHash,
		BookSeqno:       s.Header.BookSeqno,
		ExpiryMS:        expiryMS,
		ReserveOraclePx: instrument.IndexPrice,
		SliceHead:       sliceHead,
		Committed:       false,
	}

	s.BindHold(holdID, holdIdx)

	s.RecordAggressor(types.AggressorEntry{
		AccountIdx:    in.AccountIdx,
		InstrumentIdx: in.InstrumentIdx,
		TSMs:          in.CurrentTS,
		Notional:      fixedpoint.Notional(filledQty, instrument.ContractSize, vwapPx).Uint64(),
	})

	return ReserveResult{
		HoldID:    holdID,
		VWAPPx:    vwapPx,
		WorstPx:   worstPx,
		MaxCharge: maxCharge,
		ExpiryMS:  expiryMS,
		BookSeqno: s.Header.BookSeqno,
		FilledQty: filledQty,
	}, nil
}
