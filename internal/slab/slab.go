// Package slab holds one market's durable state: the header, instrument
// table, account table, DLP set, the order/position/reservation/slice
// pools, the aggressor ledger, and the per-instrument quote cache. A
// SlabState is the unit the matching package mutates; nothing outside a
// single instruction handler holds a reference across calls.
package slab

import (
	"github.com/bits-and-blooms/bitset"

	"slabcore/internal/errs"
	"slabcore/internal/pool"
	"slabcore/pkg/types"
)

// Magic distinguishes an initialized slab account from a zeroed one.
var Magic = [8]byte{'S', 'L', 'A', 'B', 'C', 'O', 'R', 'E'}

// MaxInstruments is the inline instrument table's fixed capacity.
const MaxInstruments = 32

// Header carries identity, fee/margin parameters, batch/freeze
// configuration, and the monotonic sequence counters.
type Header struct {
	Magic     [8]byte
	Authority [32]byte
	Oracle    [32]byte
	Router    [32]byte

	IMRBps       uint16
	MMRBps       uint16
	MakerFeeBps  int16
	TakerFeeBps  int16
	BatchMs      uint64
	FreezeLevels uint16

	// KillBandBps is the maximum allowed oracle price drift between reserve
	// and commit, in basis points. It is not part of the wire Initialize
	// payload and defaults to 0 (disabled); deployments that want it enable
	// it via SetKillBand after initialization.
	KillBandBps uint64

	CurrentTS   uint64
	NextOrderID uint64
	NextHoldID  uint64
	BookSeqno   uint64
}

// Config is the set of fixed pool capacities chosen at deployment time —
// these never change for the lifetime of a slab account.
type Config struct {
	AccountCapacity     int
	OrderCapacity       int
	PositionCapacity    int
	ReservationCapacity int
	SliceCapacity       int
	AggressorRingSize   int
}

// DefaultConfig returns reasonable fixed capacities for a single-process
// deployment; production sizing is a per-deployment constant.
func DefaultConfig() Config {
	return Config{
		AccountCapacity:     4096,
		OrderCapacity:       16384,
		PositionCapacity:    8192,
		ReservationCapacity: 4096,
		SliceCapacity:       16384,
		AggressorRingSize:   1024,
	}
}

// State is one market's full in-memory representation.
type State struct {
	Header Header

	Instruments     [MaxInstruments]types.Instrument
	InstrumentCount int

	Accounts []types.Account // indexed directly by account_idx
	DLP      *bitset.BitSet

	Orders       *pool.Pool[types.Order]
	Positions    *pool.Pool[types.Position]
	Reservations *pool.Pool[types.Reservation]
	Slices       *pool.Pool[types.Slice]

	QuoteCaches [MaxInstruments]types.QuoteCache

	Aggressors    []types.AggressorEntry
	AggressorHead int // next write position in the ring

	// holdIdx maps the externally-visible, slab-monotonic hold_id to the
	// Reservations pool index currently backing it. Pool indices get
	// reused after Free, so hold_id cannot be used as a pool index
	// directly once a reservation is freed and another allocated.
	holdIdx map[uint64]uint32

	cfg Config
}

// New constructs an uninitialized State with fixed-capacity pools sized
// per cfg. Initialize must still be called to set the header.
func New(cfg Config) *State {
	return &State{
		Accounts:     make([]types.Account, cfg.AccountCapacity),
		DLP:          bitset.New(uint(cfg.AccountCapacity)),
		Orders:       pool.New[types.Order](cfg.OrderCapacity),
		Positions:    pool.New[types.Position](cfg.PositionCapacity),
		Reservations: pool.New[types.Reservation](cfg.ReservationCapacity),
		Slices:       pool.New[types.Slice](cfg.SliceCapacity),
		Aggressors:   make([]types.AggressorEntry, cfg.AggressorRingSize),
		holdIdx:      make(map[uint64]uint32),
		cfg:          cfg,
	}
}

// Initialize sets the registry identity and economic parameters. It fails
// if the slab already carries the magic bytes (double-init guard).
func (s *State) Initialize(authority, oracle, router [32]byte, imrBps, mmrBps uint16, makerFeeBps, takerFeeBps int16, batchMs uint64, freezeLevels uint16) error {
	if s.Header.Magic == Magic {
		return errs.New(errs.InvalidInstruction, "slab already initialized")
	}
	s.Header = Header{
		Magic:        Magic,
		Authority:    authority,
		Oracle:       oracle,
		Router:       router,
		IMRBps:       imrBps,
		MMRBps:       mmrBps,
		MakerFeeBps:  makerFeeBps,
		TakerFeeBps:  takerFeeBps,
		BatchMs:      batchMs,
		FreezeLevels: freezeLevels,
	}
	return nil
}

// SetKillBand configures the kill-band check enforced at commit time.
func (s *State) SetKillBand(bps uint64) {
	s.Header.KillBandBps = bps
}

// AddInstrument appends a new instrument to the inline table, returning
// its index. Fails with InvalidInstruction if the table is full.
func (s *State) AddInstrument(symbol [8]byte, contractSize, tick, lot, indexPrice uint64) (uint16, error) {
	if s.InstrumentCount >= MaxInstruments {
		return 0, errs.New(errs.InvalidInstruction, "instrument table full")
	}
	idx := uint16(s.InstrumentCount)
	s.Instruments[idx] = types.Instrument{
		Symbol:       symbol,
		Index:        idx,
		ContractSize: contractSize,
		Tick:         tick,
		Lot:          lot,
		IndexPrice:   indexPrice,
		BidsLive:     types.PoolNull,
		AsksLive:     types.PoolNull,
		BidsPending:  types.PoolNull,
		AsksPending:  types.PoolNull,
	}
	s.InstrumentCount++
	return idx, nil
}

// Instrument returns a pointer to the instrument at idx, or an
// InvalidInstrument error if idx is out of range.
func (s *State) Instrument(idx uint16) (*types.Instrument, error) {
	if int(idx) >= s.InstrumentCount {
		return nil, errs.New(errs.InvalidInstrument, "instrument index out of range")
	}
	return &s.Instruments[idx], nil
}

// EnsureAccount auto-creates (activates) the account at idx if it does not
// already exist, and returns a pointer to it.
func (s *State) EnsureAccount(idx uint32) (*types.Account, error) {
	if int(idx) >= len(s.Accounts) {
		return nil, errs.New(errs.InvalidAccount, "account index out of range")
	}
	acc := &s.Accounts[idx]
	if !acc.Active {
		acc.Active = true
		acc.PositionHead = types.PoolNull
	}
	return acc, nil
}

// Account returns a pointer to the account at idx without creating it.
func (s *State) Account(idx uint32) (*types.Account, error) {
	if int(idx) >= len(s.Accounts) {
		return nil, errs.New(errs.InvalidAccount, "account index out of range")
	}
	return &s.Accounts[idx], nil
}

// IsDLP reports whether accountIdx is a designated liquidity provider.
func (s *State) IsDLP(accountIdx uint32) bool {
	return s.DLP.Test(uint(accountIdx))
}

// SetDLP grants or revokes designated-liquidity-provider status.
func (s *State) SetDLP(accountIdx uint32, dlp bool) {
	if dlp {
		s.DLP.Set(uint(accountIdx))
	} else {
		s.DLP.Clear(uint(accountIdx))
	}
}

// RecordAggressor appends an entry to the bounded aggressor ring,
// overwriting the oldest entry once full.
func (s *State) RecordAggressor(entry types.AggressorEntry) {
	s.Aggressors[s.AggressorHead] = entry
	s.AggressorHead = (s.AggressorHead + 1) % len(s.Aggressors)
}

// BindHold records that holdID is currently backed by Reservations pool
// index poolIdx.
func (s *State) BindHold(holdID uint64, poolIdx uint32) {
	s.holdIdx[holdID] = poolIdx
}

// UnbindHold removes holdID's pool-index binding, once its reservation is
// freed (by commit or cancel).
func (s *State) UnbindHold(holdID uint64) {
	delete(s.holdIdx, holdID)
}

// Reservation resolves holdID to its live *types.Reservation, or
// ReservationNotFound if no such hold is currently outstanding.
func (s *State) Reservation(holdID uint64) (*types.Reservation, uint32, error) {
	idx, ok := s.holdIdx[holdID]
	if !ok {
		return nil, types.PoolNull, errs.New(errs.ReservationNotFound, "unknown hold_id")
	}
	return s.Reservations.Get(idx), idx, nil
}
