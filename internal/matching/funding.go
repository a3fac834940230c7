package matching

import "slabcore/internal/slab"

// UpdateFunding accrues cum_funding for instrumentIdx proportional to
// elapsed time since last_funding_ts, and advances last_funding_ts to
// currentTS. Calling it twice with the same currentTS is a no-op: elapsed
// is zero on the second call, so cum_funding does not move.
func UpdateFunding(s *slab.State, instrumentIdx uint16, currentTS uint64) error {
	instrument, err := s.Instrument(instrumentIdx)
	if err != nil {
		return err
	}
	if currentTS <= instrument.LastFundingTS {
		instrument.LastFundingTS = currentTS
		return nil
	}
	elapsed := int64(currentTS - instrument.LastFundingTS)
	instrument.CumFunding += instrument.FundingRate * elapsed
	instrument.LastFundingTS = currentTS
	return nil
}

// UpdateAllFunding calls UpdateFunding for every instrument in the slab.
func UpdateAllFunding(s *slab.State, currentTS uint64) error {
	for i := 0; i < s.InstrumentCount; i++ {
		if err := UpdateFunding(s, uint16(i), currentTS); err != nil {
			return err
		}
	}
	return nil
}
