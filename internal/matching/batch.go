package matching

import (
	"slabcore/internal/book"
	"slabcore/internal/slab"
)

// BatchOpen increments instrumentIdx's epoch, promotes every pending order
// whose EligibleEpoch has come due into the live list, and opens a new
// freeze window. Calling it on an already-open epoch with no pending
// orders is a no-op beyond the epoch bump and the new batch-open and
// freeze timestamps.
func BatchOpen(s *slab.State, instrumentIdx uint16, currentTS, freezeWindowMs uint64) error {
	instrument, err := s.Instrument(instrumentIdx)
	if err != nil {
		return err
	}

	instrument.Epoch++

	instrument.BidsPending, instrument.BidsLive = book.PromotePending(
		s.Orders, instrument.BidsPending, instrument.BidsLive, instrument.Epoch)
	instrument.AsksPending, instrument.AsksLive = book.PromotePending(
		s.Orders, instrument.AsksPending, instrument.AsksLive, instrument.Epoch)

	instrument.BatchOpenMS = currentTS
	instrument.FreezeUntilMS = currentTS + freezeWindowMs

	return nil
}
