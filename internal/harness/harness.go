// Package harness is the local runnable surface spec.md's core is a library
// for: it holds N in-memory slabs and one router registry, is the single
// request executor spec.md §5 describes (one mutex per slab, one for the
// router, held for exactly one dispatched instruction), persists snapshots
// through internal/store, and is what internal/api and cmd/slabd drive.
//
// It is not part of the specified wire contract — it is the thing that
// exercises it end to end.
package harness

import (
	"log/slog"
	"sync"

	"slabcore/internal/config"
	"slabcore/internal/errs"
	"slabcore/internal/matching"
	"slabcore/internal/router"
	"slabcore/internal/slab"
	"slabcore/internal/store"
	"slabcore/pkg/types"
)

// SlabEntry pairs one slab's state with the RWMutex that serializes access
// to it: Dispatch takes the write lock for the duration of one instruction;
// quote-cache reads for the dashboard take only a read lock, so they run
// concurrently with each other and a dispatch waits only for reads already
// in progress. This stands in for spec.md §6's
// seqno-retry snapshot pattern, which exists for an external observer with
// no access to the writer's lock at all (an on-chain client reading a
// shared account) — an in-process dashboard can just take a read lock
// instead, which is simpler and equally race-free here.
type SlabEntry struct {
	mu    sync.RWMutex
	State *slab.State
}

// Harness is the local multi-slab, single-router runtime.
type Harness struct {
	cfg    config.Config
	logger *slog.Logger
	store  *store.Store

	mu       sync.RWMutex // guards the Slabs map and Router pointer themselves
	Slabs    map[string]*SlabEntry

	routerMu sync.RWMutex // guards Router's own state for one dispatched instruction
	Router   *router.Registry
}

// New constructs an empty Harness. Slabs are added with AddSlab once their
// deployment-time pool capacities and identity are known.
func New(cfg config.Config, logger *slog.Logger, st *store.Store) *Harness {
	return &Harness{
		cfg:    cfg,
		logger: logger.With("component", "harness"),
		store:  st,
		Slabs:  make(map[string]*SlabEntry),
		Router: router.NewRegistry([32]byte{}),
	}
}

// AddSlab registers s under slabID and makes it reachable by both direct
// instruction dispatch and the router's cross-slab fan-out.
func (h *Harness) AddSlab(slabID string, s *slab.State) {
	h.mu.Lock()
	h.Slabs[slabID] = &SlabEntry{State: s}
	h.mu.Unlock()

	h.routerMu.Lock()
	h.Router.RegisterSlab(slabID, router.WrapSlab(s))
	h.routerMu.Unlock()
}

func (h *Harness) entry(slabID string) (*SlabEntry, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	e, ok := h.Slabs[slabID]
	if !ok {
		return nil, errs.Newf(errs.InvalidAccount, "unknown slab_id %q", slabID)
	}
	return e, nil
}

// DispatchSlab decodes and applies one slab instruction, exclusively, then
// persists the slab's new state if a store is configured.
func (h *Harness) DispatchSlab(slabID string, raw []byte, currentTS uint64) (any, error) {
	e, err := h.entry(slabID)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	result, dispatchErr := matching.Dispatch(e.State, raw, currentTS)
	e.mu.Unlock()

	logger := h.logger.With("slab_id", slabID)
	if dispatchErr != nil {
		kind, _ := errs.Of(dispatchErr)
		logger.Warn("slab instruction failed", "error", dispatchErr, "kind", kind.String())
		return nil, dispatchErr
	}
	logger.Info("slab instruction applied")

	if h.store != nil {
		if err := h.store.SaveSlab(slabID, e.State); err != nil {
			logger.Error("failed to persist slab snapshot", "error", err)
		}
	}
	return result, nil
}

// DispatchRouter decodes and applies one router instruction against the
// harness's single registry. currentTS is the harness clock at dispatch
// time; MultiReserve anchors hold expiries to it.
func (h *Harness) DispatchRouter(raw []byte, callerAccountIdx, liquidatorAccountIdx uint32, salt [32]byte, currentTS uint64) (any, error) {
	h.routerMu.Lock()
	result, err := router.Dispatch(h.Router, raw, callerAccountIdx, liquidatorAccountIdx, salt, currentTS)
	h.routerMu.Unlock()

	if err != nil {
		kind, _ := errs.Of(err)
		h.logger.Warn("router instruction failed", "error", err, "kind", kind.String())
		return nil, err
	}
	h.logger.Info("router instruction applied")

	if h.store != nil {
		if err := h.store.SaveRouter(h.Router); err != nil {
			h.logger.Error("failed to persist router snapshot", "error", err)
		}
	}
	return result, nil
}

// QuoteCache returns a read-locked copy of instrumentIdx's quote cache on
// slabID.
func (h *Harness) QuoteCache(slabID string, instrumentIdx uint16) (types.QuoteCache, error) {
	e, err := h.entry(slabID)
	if err != nil {
		return types.QuoteCache{}, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	if int(instrumentIdx) >= e.State.InstrumentCount {
		return types.QuoteCache{}, errs.New(errs.InvalidInstrument, "instrument index out of range")
	}
	return e.State.QuoteCaches[instrumentIdx], nil
}

// Instrument returns a read-locked copy of an instrument's public summary.
func (h *Harness) Instrument(slabID string, instrumentIdx uint16) (types.Instrument, error) {
	e, err := h.entry(slabID)
	if err != nil {
		return types.Instrument{}, err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	inst, err := e.State.Instrument(instrumentIdx)
	if err != nil {
		return types.Instrument{}, err
	}
	return *inst, nil
}

// Portfolio returns a copy of accountIdx's router-level portfolio.
func (h *Harness) Portfolio(accountIdx uint32) router.Portfolio {
	h.routerMu.RLock()
	defer h.routerMu.RUnlock()
	return *h.Router.Portfolio(accountIdx)
}
