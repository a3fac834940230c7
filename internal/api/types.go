package api

import "slabcore/pkg/types"

// QuoteSnapshot is the JSON view of one instrument's quote cache.
type QuoteSnapshot struct {
	SlabID        string             `json:"slab_id"`
	InstrumentIdx uint16             `json:"instrument_idx"`
	Seqno         uint64             `json:"seqno"`
	BestBid       uint64             `json:"best_bid"`
	BestBidSz     uint64             `json:"best_bid_sz"`
	BestAsk       uint64             `json:"best_ask"`
	BestAskSz     uint64             `json:"best_ask_sz"`
	MarkPx        uint64             `json:"mark_px"`
	TopBids       []types.QuoteLevel `json:"top_bids"`
	TopAsks       []types.QuoteLevel `json:"top_asks"`
}

// NewQuoteSnapshot projects a types.QuoteCache into its HTTP form,
// trimming the fixed-size top-of-book arrays down to their populated
// prefix.
func NewQuoteSnapshot(slabID string, instrumentIdx uint16, qc types.QuoteCache) QuoteSnapshot {
	return QuoteSnapshot{
		SlabID:        slabID,
		InstrumentIdx: instrumentIdx,
		Seqno:         qc.Seqno,
		BestBid:       qc.BestBid,
		BestBidSz:     qc.BestBidSz,
		BestAsk:       qc.BestAsk,
		BestAskSz:     qc.BestAskSz,
		MarkPx:        qc.MarkPx,
		TopBids:       trimLevels(qc.TopBids[:]),
		TopAsks:       trimLevels(qc.TopAsks[:]),
	}
}

func trimLevels(levels []types.QuoteLevel) []types.QuoteLevel {
	n := 0
	for _, l := range levels {
		if l.Price == 0 {
			break
		}
		n++
	}
	out := make([]types.QuoteLevel, n)
	copy(out, levels[:n])
	return out
}

// InstrumentSnapshot is the JSON view of one instrument's public state.
type InstrumentSnapshot struct {
	Symbol        string `json:"symbol"`
	Index         uint16 `json:"index"`
	ContractSize  uint64 `json:"contract_size"`
	Tick          uint64 `json:"tick"`
	Lot           uint64 `json:"lot"`
	IndexPrice    uint64 `json:"index_price"`
	FundingRate   int64  `json:"funding_rate"`
	CumFunding    int64  `json:"cum_funding"`
	LastFundingTS uint64 `json:"last_funding_ts"`
	Epoch         uint64 `json:"epoch"`
	BatchOpenMS   uint64 `json:"batch_open_ms"`
	FreezeUntilMS uint64 `json:"freeze_until_ms"`
}

// NewInstrumentSnapshot projects a types.Instrument into its HTTP form.
func NewInstrumentSnapshot(in types.Instrument) InstrumentSnapshot {
	end := len(in.Symbol)
	for end > 0 && in.Symbol[end-1] == 0 {
		end--
	}
	return InstrumentSnapshot{
		Symbol:        string(in.Symbol[:end]),
		Index:         in.Index,
		ContractSize:  in.ContractSize,
		Tick:          in.Tick,
		Lot:           in.Lot,
		IndexPrice:    in.IndexPrice,
		FundingRate:   in.FundingRate,
		CumFunding:    in.CumFunding,
		LastFundingTS: in.LastFundingTS,
		Epoch:         in.Epoch,
		BatchOpenMS:   in.BatchOpenMS,
		FreezeUntilMS: in.FreezeUntilMS,
	}
}

// PortfolioSnapshot is the JSON view of a router portfolio.
type PortfolioSnapshot struct {
	AccountIdx uint32 `json:"account_idx"`
	Equity     int64  `json:"equity"`
	IM         uint64 `json:"im"`
	OpenHolds  int    `json:"open_holds"`
}

// ErrorResponse is the JSON body returned for every non-2xx response.
type ErrorResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}
