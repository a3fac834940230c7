package slab

import (
	"encoding/json"

	"github.com/bits-and-blooms/bitset"

	"slabcore/internal/pool"
	"slabcore/pkg/types"
)

// snapshot is the JSON-visible form of a State. It exists because
// MarshalJSON on State itself must also capture holdIdx and cfg, two
// unexported fields encoding/json would otherwise silently drop — without
// holdIdx, every outstanding hold becomes unresolvable the moment a slab
// is restored from disk.
type snapshot struct {
	Header          Header                          `json:"header"`
	Instruments     [MaxInstruments]types.Instrument `json:"instruments"`
	InstrumentCount int                               `json:"instrument_count"`
	Accounts        []types.Account                   `json:"accounts"`
	DLP             *bitset.BitSet                     `json:"dlp"`
	Orders          *pool.Pool[types.Order]            `json:"orders"`
	Positions       *pool.Pool[types.Position]         `json:"positions"`
	Reservations    *pool.Pool[types.Reservation]      `json:"reservations"`
	Slices          *pool.Pool[types.Slice]            `json:"slices"`
	QuoteCaches     [MaxInstruments]types.QuoteCache  `json:"quote_caches"`
	Aggressors      []types.AggressorEntry             `json:"aggressors"`
	AggressorHead   int                                 `json:"aggressor_head"`
	HoldIdx         map[uint64]uint32                  `json:"hold_idx"`
	Cfg             Config                              `json:"cfg"`
}

// MarshalJSON persists the slab's full durable state, including the
// hold_id binding table that backs Reservation lookups.
func (s *State) MarshalJSON() ([]byte, error) {
	return json.Marshal(snapshot{
		Header:          s.Header,
		Instruments:     s.Instruments,
		InstrumentCount: s.InstrumentCount,
		Accounts:        s.Accounts,
		DLP:             s.DLP,
		Orders:          s.Orders,
		Positions:       s.Positions,
		Reservations:    s.Reservations,
		Slices:          s.Slices,
		QuoteCaches:     s.QuoteCaches,
		Aggressors:      s.Aggressors,
		AggressorHead:   s.AggressorHead,
		HoldIdx:         s.holdIdx,
		Cfg:             s.cfg,
	})
}

// UnmarshalJSON restores a slab previously persisted by MarshalJSON.
func (s *State) UnmarshalJSON(data []byte) error {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return err
	}
	s.Header = snap.Header
	s.Instruments = snap.Instruments
	s.InstrumentCount = snap.InstrumentCount
	s.Accounts = snap.Accounts
	s.DLP = snap.DLP
	s.Orders = snap.Orders
	s.Positions = snap.Positions
	s.Reservations = snap.Reservations
	s.Slices = snap.Slices
	s.QuoteCaches = snap.QuoteCaches
	s.Aggressors = snap.Aggressors
	s.AggressorHead = snap.AggressorHead
	s.holdIdx = snap.HoldIdx
	if s.holdIdx == nil {
		s.holdIdx = make(map[uint64]uint32)
	}
	s.cfg = snap.Cfg
	return nil
}
