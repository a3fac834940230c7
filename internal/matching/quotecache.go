package matching

import (
	"slabcore/internal/book"
	"slabcore/internal/slab"
	"slabcore/pkg/types"
)

// RefreshQuoteCache recomputes the top-of-book mirror for instrumentIdx
// from its live book and stamps it with the slab's current book_seqno and
// markPx.
func RefreshQuoteCache(s *slab.State, instrumentIdx uint16, markPx uint64) {
	instrument := &s.Instruments[instrumentIdx]
	qc := &s.QuoteCaches[instrumentIdx]

	*qc = types.QuoteCache{
		Seqno:  s.Header.BookSeqno,
		MarkPx: markPx,
	}

	fillLevels(s, instrument.BidsLive, qc.TopBids[:])
	fillLevels(s, instrument.AsksLive, qc.TopAsks[:])

	if qc.TopBids[0].Price != 0 || instrument.BidsLive != types.PoolNull {
		qc.BestBid = qc.TopBids[0].Price
		qc.BestBidSz = qc.TopBids[0].Size
	}
	if qc.TopAsks[0].Price != 0 || instrument.AsksLive != types.PoolNull {
		qc.BestAsk = qc.TopAsks[0].Price
		qc.BestAskSz = qc.TopAsks[0].Size
	}
}

// fillLevels walks head and aggregates resting quantity per distinct price
// into levels, up to len(levels) price points.
func fillLevels(s *slab.State, head uint32, levels []types.QuoteLevel) {
	n := 0
	book.Walk(s.Orders, head, func(idx uint32, o *types.Order) bool {
		if n == 0 || levels[n-1].Price != o.Price {
			if n >= len(levels) {
				return false
			}
			levels[n] = types.QuoteLevel{Price: o.Price, Size: o.Qty}
			n++
			return true
		}
		levels[n-1].Size += o.Qty
		return true
	})
}
