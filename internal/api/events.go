package api

import "time"

// DashboardEvent is the wrapper for every event pushed to a connected
// dashboard client over the WebSocket feed.
type DashboardEvent struct {
	Type      string      `json:"type"`    // "quote", "instruction"
	Timestamp time.Time   `json:"timestamp"`
	SlabID    string      `json:"slab_id,omitempty"`
	Data      interface{} `json:"data"`
}

// QuoteUpdateEvent is pushed after a successful Reserve, BatchOpen or
// single-instrument UpdateFunding and carries that instrument's current
// quote cache.
type QuoteUpdateEvent struct {
	InstrumentIdx uint16 `json:"instrument_idx"`
	Quote         QuoteSnapshot `json:"quote"`
}

// NewQuoteUpdateEvent wraps a quote snapshot as a broadcastable event.
func NewQuoteUpdateEvent(slabID string, instrumentIdx uint16, q QuoteSnapshot) DashboardEvent {
	return DashboardEvent{
		Type:      "quote",
		Timestamp: time.Now(),
		SlabID:    slabID,
		Data:      QuoteUpdateEvent{InstrumentIdx: instrumentIdx, Quote: q},
	}
}

// InstructionEvent reports the outcome of one dispatched instruction for
// the activity feed.
type InstructionEvent struct {
	Kind    string `json:"kind"` // "slab" or "router"
	Ok      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
}

// NewInstructionEvent wraps a dispatch outcome as a broadcastable event.
func NewInstructionEvent(slabID, kind string, dispatchErr error) DashboardEvent {
	evt := InstructionEvent{Kind: kind, Ok: dispatchErr == nil}
	if dispatchErr != nil {
		evt.Error = dispatchErr.Error()
	}
	return DashboardEvent{
		Type:      "instruction",
		Timestamp: time.Now(),
		SlabID:    slabID,
		Data:      evt,
	}
}
