package matching

import (
	"slabcore/internal/errs"
	"slabcore/internal/slab"
	"slabcore/pkg/types"
)

// Cancel releases all reserved quantity held by holdID's slices and frees
// the slice chain and the reservation itself. An unknown hold_id returns
// NotFound; cancel otherwise never fails. Expiry is modeled as a cancel
// invoked with currentTS beyond the reservation's ExpiryMS — there is no
// internal timer, only this externally-driven call.
func Cancel(s *slab.State, holdID uint64) error {
	res, poolIdx, err := s.Reservation(holdID)
	if err != nil {
		return errs.New(errs.NotFound, "unknown hold_id")
	}

	for cur := res.SliceHead; cur != types.PoolNull; {
		slice := s.Slices.Get(cur)
		order := s.Orders.Get(slice.OrderIdx)
		order.ReservedQty -= slice.Qty

		next := slice.Next
		s.Slices.Free(cur)
		cur = next
	}

	s.UnbindHold(holdID)
	s.Reservations.Free(poolIdx)
	return nil
}
