package matching

import (
	"slabcore/internal/book"
	"slabcore/internal/commitment"
	"slabcore/internal/errs"
	"slabcore/internal/fixedpoint"
	"slabcore/internal/slab"
	"slabcore/pkg/types"
)

// CommitInput is the full set of inputs to Commit.
type CommitInput struct {
	HoldID    uint64
	Salt      [32]byte
	CurrentTS uint64
	OracleNow *uint64 // nil if the caller did not supply a fresher oracle read
}

// commitSnapshot captures the touched slots before mutation, so Commit can
// restore them verbatim on any failure partway through settlement.
type commitSnapshot struct {
	orders        map[uint32]types.Order
	positions     map[uint32]types.Position
	accounts      map[uint32]types.Account
	accountOrder  []uint32
	orderOrder    []uint32
	positionOrder []uint32
}

func newCommitSnapshot() *commitSnapshot {
	return &commitSnapshot{
		orders:    make(map[uint32]types.Order),
		positions: make(map[uint32]types.Position),
		accounts:  make(map[uint32]types.Account),
	}
}

func (snap *commitSnapshot) snapshotOrder(s *slab.State, idx uint32) {
	if _, ok := snap.orders[idx]; ok {
		return
	}
	snap.orders[idx] = *s.Orders.Get(idx)
	snap.orderOrder = append(snap.orderOrder, idx)
}

func (snap *commitSnapshot) snapshotPosition(s *slab.State, idx uint32) {
	if _, ok := snap.positions[idx]; ok {
		return
	}
	snap.positions[idx] = *s.Positions.Get(idx)
	snap.positionOrder = append(snap.positionOrder, idx)
}

func (snap *commitSnapshot) snapshotAccount(s *slab.State, idx uint32) {
	if _, ok := snap.accounts[idx]; ok {
		return
	}
	snap.accounts[idx] = s.Accounts[idx]
	snap.accountOrder = append(snap.accountOrder, idx)
}

func (snap *commitSnapshot) restore(s *slab.State) {
	for _, idx := range snap.orderOrder {
		*s.Orders.Get(idx) = snap.orders[idx]
	}
	for _, idx := range snap.positionOrder {
		*s.Positions.Get(idx) = snap.positions[idx]
	}
	for _, idx := range snap.accountOrder {
		s.Accounts[idx] = snap.accounts[idx]
	}
}

// Commit reveals salt against the reservation's commitment hash and, if it
// matches and the reservation has not expired, settles every slice into
// positions, updates the quote cache, and charges fees.
func Commit(s *slab.State, in CommitInput) error {
	res, poolIdx, err := s.Reservation(in.HoldID)
	if err != nil {
		return err
	}
	if res.Committed {
		return errs.New(errs.ReservationNotFound, "reservation already committed")
	}
	if in.CurrentTS > res.ExpiryMS {
		return errs.New(errs.Expired, "reservation expired")
	}

	ok := commitment.Verify(commitment.Fields{
		Salt:          in.Salt,
		AccountIdx:    res.AccountIdx,
		InstrumentIdx: res.InstrumentIdx,
		Side:          res.Side,
		Qty:           res.ReqQty,
		LimitPx:       res.LimitPx,
		RouteID:       res.RouteID,
	}, res.CommitmentHash)
	if !ok {
		return errs.New(errs.CommitmentMismatch, "salt does not reveal commitment hash")
	}

	oracleNow := res.ReserveOraclePx
	if in.OracleNow != nil {
		oracleNow = *in.OracleNow
	}
	if !fixedpoint.WithinKillBand(oracleNow, res.ReserveOraclePx, s.Header.KillBandBps) {
		return errs.New(errs.KillBand, "oracle price drifted beyond the kill band since reserve")
	}

	instrument, err := s.Instrument(res.InstrumentIdx)
	if err != nil {
		return err
	}

	snap := newCommitSnapshot()
	snap.snapshotAccount(s, res.AccountIdx)

	// The snapshot can only restore slot values, not undo a pool Alloc:
	// restoring an account's old PositionHead after FindOrCreatePosition
	// linked a fresh position would orphan that slot forever. Track every
	// position allocated during this attempt so a rollback can free it.
	var createdPositions []uint32
	fail := func(err error) error {
		snap.restore(s)
		for _, idx := range createdPositions {
			if s.Positions.InUse(idx) {
				s.Positions.Free(idx)
			}
		}
		return err
	}
	findOrCreatePosition := func(accountIdx uint32, instrumentIdx uint16) (*types.Position, uint32, error) {
		existing := s.FindPosition(accountIdx, instrumentIdx)
		pos, idx, err := s.FindOrCreatePosition(accountIdx, instrumentIdx)
		if err == nil && existing == types.PoolNull {
			createdPositions = append(createdPositions, idx)
		}
		return pos, idx, err
	}

	// Step 1: settle each slice against its maker order and position, at
	// the maker's own resting price, crediting a maker rebate to DLP
	// makers out of the taker fee pool.
	var freedOrders []uint32
	var makerAccounts []uint32
	touchedMaker := make(map[uint32]bool)
	for cur := res.SliceHead; cur != types.PoolNull; {
		slice := s.Slices.Get(cur)
		snap.snapshotOrder(s, slice.OrderIdx)

		order := s.Orders.Get(slice.OrderIdx)
		makerPx := order.Price
		makerClass := order.MakerClass
		order.ReservedQty -= slice.Qty
		order.Qty -= slice.Qty

		if _, err := s.Account(order.AccountIdx); err != nil {
			return fail(err)
		}
		snap.snapshotAccount(s, order.AccountIdx)
		if _, err := s.EnsureAccount(order.AccountIdx); err != nil {
			return fail(err)
		}
		if !touchedMaker[order.AccountIdx] {
			touchedMaker[order.AccountIdx] = true
			makerAccounts = append(makerAccounts, order.AccountIdx)
		}
		makerPos, makerPosIdx, err := findOrCreatePosition(order.AccountIdx, res.InstrumentIdx)
		if err != nil {
			return fail(err)
		}
		snap.snapshotPosition(s, makerPosIdx)
		settlePosition(s, makerPos, order.Side, slice.Qty, makerPx, instrument)

		if makerClass == types.DLP && s.Header.MakerFeeBps < 0 {
			sliceNotional := fixedpoint.Notional(slice.Qty, instrument.ContractSize, makerPx)
			rebate := sliceNotional.MulBps(uint64(-s.Header.MakerFeeBps)).Uint64()
			s.Accounts[order.AccountIdx].Cash += int64(rebate)
		}

		if order.Qty == 0 {
			freedOrders = append(freedOrders, slice.OrderIdx)
		}

		cur = slice.Next
	}

	// Zero-qty maker orders are only marked for removal here, not actually
	// unlinked from the book or freed back to the pool yet: both of those
	// mutations are irreversible (book.Remove rewrites neighbor links and
	// the instrument's live head; Orders.Free returns the slot to the pool
	// free-list), and commitSnapshot/restore cannot undo either one. They
	// are applied as the last step, once every fallible check below has
	// passed and the commit is guaranteed to succeed.

	// Step 2: update the taker's position.
	takerPos, takerPosIdx, err := findOrCreatePosition(res.AccountIdx, res.InstrumentIdx)
	if err != nil {
		return fail(err)
	}
	snap.snapshotPosition(s, takerPosIdx)
	settlePosition(s, takerPos, res.Side, res.Qty, res.VWAPPx, instrument)

	// Step 3: fees. Funding accrual on both the taker's and every touched
	// maker's position already happened inside settlePosition above, which
	// credits/debits the owed amount straight into each account's cash.
	taker, err := s.Account(res.AccountIdx)
	if err != nil {
		return fail(err)
	}
	notional := fixedpoint.Notional(res.Qty, instrument.ContractSize, res.VWAPPx)
	takerFee := notional.MulBps(uint64(s.Header.TakerFeeBps)).Uint64()
	taker.Cash -= int64(takerFee)

	// Step 4: recompute margins for every touched account — the taker and
	// every maker whose position was settled above — then gate on the
	// taker's headroom.
	if err := RecomputeMargins(s, res.AccountIdx); err != nil {
		return fail(err)
	}
	for _, makerIdx := range makerAccounts {
		if makerIdx == res.AccountIdx {
			continue
		}
		if err := RecomputeMargins(s, makerIdx); err != nil {
			return fail(err)
		}
	}
	equity, err := Equity(s, res.AccountIdx)
	if err != nil {
		return fail(err)
	}
	if equity < int64(taker.IM) {
		return fail(errs.New(errs.InsufficientMargin, "taker equity below required initial margin after commit"))
	}

	// Step 5: now that the commit is guaranteed to succeed, unlink and free
	// every maker order that filled to zero.
	for _, orderIdx := range freedOrders {
		order := s.Orders.Get(orderIdx)
		if order.State == types.Live {
			if order.Side == types.Buy {
				instrument.BidsLive = book.Remove(s.Orders, instrument.BidsLive, orderIdx)
			} else {
				instrument.AsksLive = book.Remove(s.Orders, instrument.AsksLive, orderIdx)
			}
		}
		s.Orders.Free(orderIdx)
	}

	// Step 6: book sequence + quote cache.
	s.Header.BookSeqno++
	markPx := instrument.IndexPrice
	if in.OracleNow != nil {
		markPx = *in.OracleNow
	}
	RefreshQuoteCache(s, res.InstrumentIdx, markPx)

	// Step 7: free slices, mark committed, free the reservation.
	for cur := res.SliceHead; cur != types.PoolNull; {
		next := s.Slices.Get(cur).Next
		s.Slices.Free(cur)
		cur = next
	}
	res.Salt = in.Salt
	res.Committed = true
	s.UnbindHold(in.HoldID)
	s.Reservations.Free(poolIdx)

	return nil
}

// settlePosition reconciles funding then applies a fill of qty at px on
// side into pos, folding px into the position's entry VWAP by a
// quantity-weighted average, and realizing PnL into cash when the fill
// reduces or flips the existing position.
func settlePosition(s *slab.State, pos *types.Position, side types.Side, qty, px uint64, instrument *types.Instrument) {
	acc := &s.Accounts[pos.AccountIdx]
	acc.Cash += accrueFunding(pos, instrument)

	delta := int64(qty)
	if side == types.Sell {
		delta = -delta
	}

	switch {
	case pos.Size == 0:
		pos.Size = delta
		pos.EntryVWAP = px
	case sameSign(pos.Size, delta):
		totalQty := abs64(pos.Size) + abs64(delta)
		weighted := types.MulUint64(uint64(abs64(pos.Size)), pos.EntryVWAP).
			Add(types.MulUint64(uint64(abs64(delta)), px))
		pos.EntryVWAP = weighted.DivUint64(uint64(totalQty)).Uint64()
		pos.Size += delta
	default:
		closing := abs64(delta)
		if closing > abs64(pos.Size) {
			closing = abs64(pos.Size)
		}
		var pnlPerUnit int64
		if pos.Size > 0 {
			pnlPerUnit = int64(px) - int64(pos.EntryVWAP)
		} else {
			pnlPerUnit = int64(pos.EntryVWAP) - int64(px)
		}
		acc.Cash += pnlPerUnit * closing * int64(instrument.ContractSize)
		pos.Size += delta
		if sign64(pos.Size) != sign64(pos.Size-delta) && pos.Size != 0 {
			// flipped through zero: the remainder opens fresh at px.
			pos.EntryVWAP = px
		}
	}

	s.RemovePositionIfZero(pos.AccountIdx, s.FindPosition(pos.AccountIdx, pos.InstrumentIdx))
}

func sameSign(a, b int64) bool {
	if a == 0 || b == 0 {
		return true
	}
	return (a > 0) == (b > 0)
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func sign64(v int64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
