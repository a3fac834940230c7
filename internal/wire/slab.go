package wire

import (
	"slabcore/internal/errs"
	"slabcore/pkg/types"
)

// Slab instruction discriminators, per spec.md §6's eight-entry table (the
// "longer table" that subsumes the five-variant enum original_source also
// defines — see DESIGN.md Open Question #4).
const (
	SlabReserve byte = iota
	SlabCommit
	SlabCancel
	SlabBatchOpen
	SlabInitialize
	SlabAddInstrument
	SlabUpdateFunding
	SlabLiquidate
)

// ReserveInstruction is disc 0.
type ReserveInstruction struct {
	AccountIdx     uint32
	InstrumentIdx  uint16
	Side           uint8
	Qty            uint64
	LimitPx        uint64
	TTLMs          uint64
	CommitmentHash [32]byte
	RouteID        uint64
}

func (in ReserveInstruction) Encode() []byte {
	w := newWriter(SlabReserve)
	w.u32(in.AccountIdx)
	w.u16(in.InstrumentIdx)
	w.u8(in.Side)
	w.u64(in.Qty)
	w.u64(in.LimitPx)
	w.u64(in.TTLMs)
	w.bytes32(in.CommitmentHash)
	w.u64(in.RouteID)
	return w.b
}

// CommitInstruction is disc 1.
type CommitInstruction struct {
	HoldID    uint64
	CurrentTS uint64
	Salt      [32]byte
}

func (in CommitInstruction) Encode() []byte {
	w := newWriter(SlabCommit)
	w.u64(in.HoldID)
	w.u64(in.CurrentTS)
	w.bytes32(in.Salt)
	return w.b
}

// CancelInstruction is disc 2.
type CancelInstruction struct{ HoldID uint64 }

func (in CancelInstruction) Encode() []byte {
	w := newWriter(SlabCancel)
	w.u64(in.HoldID)
	return w.b
}

// BatchOpenInstruction is disc 3.
type BatchOpenInstruction struct {
	InstrumentIdx uint16
	CurrentTS     uint64
}

func (in BatchOpenInstruction) Encode() []byte {
	w := newWriter(SlabBatchOpen)
	w.u16(in.InstrumentIdx)
	w.u64(in.CurrentTS)
	return w.b
}

// InitializeInstruction is disc 4.
type InitializeInstruction struct {
	Authority    [32]byte
	Oracle       [32]byte
	Router       [32]byte
	IMRBps       uint16
	MMRBps       uint16
	MakerFeeBps  int16
	TakerFeeBps  int16
	BatchMs      uint64
	FreezeLevels uint16
}

func (in InitializeInstruction) Encode() []byte {
	w := newWriter(SlabInitialize)
	w.bytes32(in.Authority)
	w.bytes32(in.Oracle)
	w.bytes32(in.Router)
	w.u16(in.IMRBps)
	w.u16(in.MMRBps)
	w.i16(in.MakerFeeBps)
	w.i16(in.TakerFeeBps)
	w.u64(in.BatchMs)
	w.u16(in.FreezeLevels)
	return w.b
}

// AddInstrumentInstruction is disc 5.
type AddInstrumentInstruction struct {
	Symbol       [8]byte
	ContractSize uint64
	Tick         uint64
	Lot          uint64
	IndexPrice   uint64
}

func (in AddInstrumentInstruction) Encode() []byte {
	w := newWriter(SlabAddInstrument)
	w.bytes8(in.Symbol)
	w.u64(in.ContractSize)
	w.u64(in.Tick)
	w.u64(in.Lot)
	w.u64(in.IndexPrice)
	return w.b
}

// UpdateFundingInstruction is disc 6.
type UpdateFundingInstruction struct {
	UpdateAll     bool
	InstrumentIdx uint16
	CurrentTS     uint64
}

func (in UpdateFundingInstruction) Encode() []byte {
	w := newWriter(SlabUpdateFunding)
	if in.UpdateAll {
		w.u8(1)
	} else {
		w.u8(0)
	}
	w.u16(in.InstrumentIdx)
	w.u64(in.CurrentTS)
	return w.b
}

// LiquidateInstruction is disc 7.
type LiquidateInstruction struct {
	AccountIdx    uint32
	DeficitTarget types.Uint128
	LiqFeeBps     uint16
	PriceBandBps  uint16
}

func (in LiquidateInstruction) Encode() []byte {
	w := newWriter(SlabLiquidate)
	w.u32(in.AccountIdx)
	bs := in.DeficitTarget.Bytes16()
	w.bytes16(bs)
	w.u16(in.LiqFeeBps)
	w.u16(in.PriceBandBps)
	return w.b
}

// DecodeSlab reads the one-byte discriminator from raw and decodes the
// remaining payload into the matching typed instruction, per spec.md §6's
// slab instruction table.
func DecodeSlab(raw []byte) (any, error) {
	if len(raw) == 0 {
		return nil, errs.New(errs.InvalidInstruction, "empty instruction")
	}
	disc := raw[0]
	r := newReader(raw[1:])

	var out any
	switch disc {
	case SlabReserve:
		in := ReserveInstruction{
			AccountIdx:    r.u32(),
			InstrumentIdx: r.u16(),
			Side:          r.u8(),
			Qty:           r.u64(),
			LimitPx:       r.u64(),
			TTLMs:         r.u64(),
		}
		in.CommitmentHash = r.bytes32()
		in.RouteID = r.u64()
		out = in
	case SlabCommit:
		in := CommitInstruction{HoldID: r.u64(), CurrentTS: r.u64()}
		in.Salt = r.bytes32()
		out = in
	case SlabCancel:
		out = CancelInstruction{HoldID: r.u64()}
	case SlabBatchOpen:
		out = BatchOpenInstruction{InstrumentIdx: r.u16(), CurrentTS: r.u64()}
	case SlabInitialize:
		in := InitializeInstruction{}
		in.Authority = r.bytes32()
		in.Oracle = r.bytes32()
		in.Router = r.bytes32()
		in.IMRBps = r.u16()
		in.MMRBps = r.u16()
		in.MakerFeeBps = r.i16()
		in.TakerFeeBps = r.i16()
		in.BatchMs = r.u64()
		in.FreezeLevels = r.u16()
		out = in
	case SlabAddInstrument:
		in := AddInstrumentInstruction{}
		in.Symbol = r.bytes8()
		in.ContractSize = r.u64()
		in.Tick = r.u64()
		in.Lot = r.u64()
		in.IndexPrice = r.u64()
		out = in
	case SlabUpdateFunding:
		updateAll := r.u8() != 0
		out = UpdateFundingInstruction{UpdateAll: updateAll, InstrumentIdx: r.u16(), CurrentTS: r.u64()}
	case SlabLiquidate:
		in := LiquidateInstruction{AccountIdx: r.u32()}
		in.DeficitTarget = types.Uint128FromBytes16(r.bytes16())
		in.LiqFeeBps = r.u16()
		in.PriceBandBps = r.u16()
		out = in
	default:
		return nil, errs.Newf(errs.InvalidInstruction, "unknown slab discriminator %d", disc)
	}

	if err := r.done(); err != nil {
		return nil, err
	}
	return out, nil
}
