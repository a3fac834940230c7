// Package types defines the shared data model for the slab matching engine
// and the multi-slab router — sides, order/reservation/position shapes,
// and the quote cache. It has no dependencies
// on internal packages, so it can be imported by any layer.
package types

// ————————————————————————————————————————————————————————————————————————
// Core enums
// ————————————————————————————————————————————————————————————————————————

// Side is the direction of an order or reservation.
type Side uint8

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Buy {
		return "BUY"
	}
	return "SELL"
}

// Opposite returns the contra side used when walking the book.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// TimeInForce enumerates supported order lifecycles. GTC is the only one
// the matching core interprets; the field is carried for forward
// compatibility with LP flows that create orders (out of scope here).
type TimeInForce uint8

const (
	GTC TimeInForce = iota
)

// MakerClass distinguishes designated liquidity providers from normal
// makers. DLPs bypass freeze gating and receive maker rebates.
type MakerClass uint8

const (
	Normal MakerClass = iota
	DLP
)

// OrderState is LIVE (matchable) or PENDING (queued for the next batch open).
type OrderState uint8

const (
	Live OrderState = iota
	Pending
)

// PoolNull is the sentinel index meaning "no slot" — the analogue of a nil
// pointer for pool-allocated, arena-indexed entities.
const PoolNull uint32 = ^uint32(0)

// ————————————————————————————————————————————————————————————————————————
// Instrument
// ————————————————————————————————————————————————————————————————————————

// Instrument is one perpetual-futures market's economic parameters, book
// heads, and batch/freeze state. All live orders of a given side form a
// strictly price-sorted linked list (descending for bids, ascending for
// asks); FIFO within a price level by CreatedMS, ties broken by OrderID.
type Instrument struct {
	Symbol       [8]byte
	Index        uint16
	ContractSize uint64 // scaled integer, e.g. 1e3 = 0.001 contracts/unit
	Tick         uint64 // minimum price increment
	Lot          uint64 // minimum quantity increment

	IndexPrice    uint64 // oracle mark, scaled integer
	FundingRate   int64  // per-ms rate, scaled integer, signed
	CumFunding    int64  // accumulated funding index, signed
	LastFundingTS uint64

	BidsLive    uint32 // head index into the live bids list (PoolNull if empty)
	AsksLive    uint32
	BidsPending uint32 // head index into the batch-window pending lists
	AsksPending uint32

	Epoch         uint64 // increments on every BatchOpen
	BatchOpenMS   uint64
	FreezeUntilMS uint64
}

// Head returns the live-list head index for side.
func (in *Instrument) Head(side Side) uint32 {
	if side == Buy {
		return in.BidsLive
	}
	return in.AsksLive
}

// SetHead updates the live-list head index for side.
func (in *Instrument) SetHead(side Side, idx uint32) {
	if side == Buy {
		in.BidsLive = idx
	} else {
		in.AsksLive = idx
	}
}

// PendingHead returns the pending-list head index for side.
func (in *Instrument) PendingHead(side Side) uint32 {
	if side == Buy {
		return in.BidsPending
	}
	return in.AsksPending
}

// SetPendingHead updates the pending-list head index for side.
func (in *Instrument) SetPendingHead(side Side, idx uint32) {
	if side == Buy {
		in.BidsPending = idx
	} else {
		in.AsksPending = idx
	}
}

// ————————————————————————————————————————————————————————————————————————
// Order / Slice / Reservation
// ————————————————————————————————————————————————————————————————————————

// Order is a resting maker order in the book. Invariant: ReservedQty <= Qty
// at all times; Qty is a multiple of the instrument's Lot and Price is a
// multiple of its Tick.
type Order struct {
	OrderID       uint64 // slab-monotonic
	AccountIdx    uint32
	InstrumentIdx uint16
	Side          Side
	TIF           TimeInForce
	MakerClass    MakerClass
	State         OrderState
	EligibleEpoch uint64
	CreatedMS     uint64

	Price       uint64
	Qty         uint64 // remaining live quantity
	QtyOrig     uint64 // original quantity at insertion
	ReservedQty uint64 // quantity currently held by live reservations

	Next uint32 // book linked-list pointers (PoolNull = none)
	Prev uint32
}

// Available returns the quantity still eligible to be reserved.
func (o *Order) Available() uint64 {
	if o.ReservedQty >= o.Qty {
		return 0
	}
	return o.Qty - o.ReservedQty
}

// Slice is a single maker order's contribution to one reservation. Slices
// form a singly linked chain owned exclusively by their reservation.
type Slice struct {
	OrderIdx uint32
	Qty      uint64
	Next     uint32
}

// Reservation is a two-phase hold against book liquidity: it locks maker
// quantity (via each slice's contribution to Order.ReservedQty) without
// executing. Invariant: Qty equals the sum of the slice chain's Qty.
type Reservation struct {
	HoldID        uint64 // slab-monotonic
	RouteID       uint64 // router-supplied correlation id
	AccountIdx    uint32
	InstrumentIdx uint16
	Side          Side // taker side

	Qty       uint64 // filled quantity from the walk
	ReqQty    uint64 // originally requested quantity, bound into the commitment hash
	LimitPx   uint64 // originally requested limit price, bound into the commitment hash
	VWAPPx    uint64
	WorstPx   uint64
	MaxCharge Uint128 // notional + taker fee, upper bound on settlement cost

	CommitmentHash [32]byte
	Salt           [32]byte // populated at commit (reveal)

	BookSeqno       uint64 // header.BookSeqno captured at reserve time
	ExpiryMS        uint64
	ReserveOraclePx uint64 // instrument.IndexPrice captured at reserve time
	SliceHead       uint32 // PoolNull if zero-fill

	Committed bool
}

// ————————————————————————————————————————————————————————————————————————
// Account / Position
// ————————————————————————————————————————————————————————————————————————

// Account is one user's per-slab bookkeeping: cash balance, margin
// requirements, and the head of their position list. Equity equals Cash
// plus the sum over positions of mark-to-market plus funding accrual.
type Account struct {
	Cash         int64 // signed — can draw down through realized losses
	IM           uint64
	MM           uint64
	PositionHead uint32 // PoolNull if no positions
	Active       bool
}

// Position is one (account, instrument) pair's signed exposure. At most
// one position exists per (account, instrument); it is destroyed (freed)
// when Size returns to zero.
type Position struct {
	AccountIdx         uint32
	InstrumentIdx      uint16
	Size               int64 // signed lots: positive = long, negative = short
	EntryVWAP          uint64
	CumFundingSnapshot int64
	Next               uint32 // next position in the account's list
}

// ————————————————————————————————————————————————————————————————————————
// Quote cache
// ————————————————————————————————————————————————————————————————————————

// QuoteCacheDepth is the number of top-of-book levels mirrored into the
// quote cache (the "K" in the quote cache layout).
const QuoteCacheDepth = 8

// QuoteLevel is one (price, size) pair in the quote cache's top-K mirror.
type QuoteLevel struct {
	Price uint64
	Size  uint64
}

// QuoteCache is the router-readable mirror of top-of-book aggregates.
// Seqno is updated monotonically on every book-mutating commit; observers
// read Seqno, then the payload, then Seqno again, and retry on mismatch.
type QuoteCache struct {
	Seqno     uint64
	BestBid   uint64
	BestBidSz uint64
	BestAsk   uint64
	BestAskSz uint64
	MarkPx    uint64
	TopBids   [QuoteCacheDepth]QuoteLevel
	TopAsks   [QuoteCacheDepth]QuoteLevel
}

// ————————————————————————————————————————————————————————————————————————
// Aggressor ledger
// ————————————————————————————————————————————————————————————————————————

// AggressorEntry is one taker action recorded for anti-toxicity accounting.
type AggressorEntry struct {
	AccountIdx    uint32
	InstrumentIdx uint16
	TSMs          uint64
	Notional      uint64
}
