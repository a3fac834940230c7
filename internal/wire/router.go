package wire

import (
	"slabcore/internal/errs"
	"slabcore/pkg/types"
)

// Router instruction discriminators, per spec.md §6's router table.
const (
	RouterInitialize byte = iota
	RouterDeposit
	RouterWithdraw
	RouterMultiReserve
	RouterMultiCommit
	RouterLiquidate
)

// RouterInitializeInstruction is disc 0.
type RouterInitializeInstruction struct{ Authority [32]byte }

func (in RouterInitializeInstruction) Encode() []byte {
	w := newWriter(RouterInitialize)
	w.bytes32(in.Authority)
	return w.b
}

// RouterDepositInstruction is disc 1.
type RouterDepositInstruction struct {
	Mint   [32]byte
	Amount types.Uint128
}

func (in RouterDepositInstruction) Encode() []byte {
	w := newWriter(RouterDeposit)
	w.bytes32(in.Mint)
	w.bytes16(in.Amount.Bytes16())
	return w.b
}

// RouterWithdrawInstruction is disc 2.
type RouterWithdrawInstruction struct {
	Mint   [32]byte
	Amount types.Uint128
}

func (in RouterWithdrawInstruction) Encode() []byte {
	w := newWriter(RouterWithdraw)
	w.bytes32(in.Mint)
	w.bytes16(in.Amount.Bytes16())
	return w.b
}

// MultiReserveLegWire is one leg of a RouterMultiReserveInstruction.
type MultiReserveLegWire struct {
	SlabID        [32]byte
	InstrumentIdx uint16
	Side          uint8
	Qty           uint64
	LimitPx       uint64
}

// RouterMultiReserveInstruction is disc 3.
type RouterMultiReserveInstruction struct {
	Legs []MultiReserveLegWire
}

func (in RouterMultiReserveInstruction) Encode() []byte {
	w := newWriter(RouterMultiReserve)
	w.u8(uint8(len(in.Legs)))
	for _, leg := range in.Legs {
		w.bytes32(leg.SlabID)
		w.u16(leg.InstrumentIdx)
		w.u8(leg.Side)
		w.u64(leg.Qty)
		w.u64(leg.LimitPx)
	}
	return w.b
}

// RouterMultiCommitInstruction is disc 4.
type RouterMultiCommitInstruction struct {
	CurrentTS uint64
	HoldIDs   []uint64
}

func (in RouterMultiCommitInstruction) Encode() []byte {
	w := newWriter(RouterMultiCommit)
	w.u8(uint8(len(in.HoldIDs)))
	w.u64(in.CurrentTS)
	for _, h := range in.HoldIDs {
		w.u64(h)
	}
	return w.b
}

// RouterLiquidateInstruction is disc 5.
type RouterLiquidateInstruction struct {
	Liquidatee [32]byte
	MaxDebt    types.Uint128
}

func (in RouterLiquidateInstruction) Encode() []byte {
	w := newWriter(RouterLiquidate)
	w.bytes32(in.Liquidatee)
	w.bytes16(in.MaxDebt.Bytes16())
	return w.b
}

// DecodeRouter reads the one-byte discriminator from raw and decodes the
// remaining payload into the matching typed instruction, per spec.md §6's
// router instruction table.
func DecodeRouter(raw []byte) (any, error) {
	if len(raw) == 0 {
		return nil, errs.New(errs.InvalidInstruction, "empty instruction")
	}
	disc := raw[0]
	r := newReader(raw[1:])

	var out any
	switch disc {
	case RouterInitialize:
		out = RouterInitializeInstruction{Authority: r.bytes32()}
	case RouterDeposit:
		mint := r.bytes32()
		out = RouterDepositInstruction{Mint: mint, Amount: types.Uint128FromBytes16(r.bytes16())}
	case RouterWithdraw:
		mint := r.bytes32()
		out = RouterWithdrawInstruction{Mint: mint, Amount: types.Uint128FromBytes16(r.bytes16())}
	case RouterMultiReserve:
		count := r.u8()
		legs := make([]MultiReserveLegWire, 0, count)
		for i := 0; i < int(count); i++ {
			legs = append(legs, MultiReserveLegWire{
				SlabID:        r.bytes32(),
				InstrumentIdx: r.u16(),
				Side:          r.u8(),
				Qty:           r.u64(),
				LimitPx:       r.u64(),
			})
		}
		out = RouterMultiReserveInstruction{Legs: legs}
	case RouterMultiCommit:
		count := r.u8()
		currentTS := r.u64()
		ids := make([]uint64, 0, count)
		for i := 0; i < int(count); i++ {
			ids = append(ids, r.u64())
		}
		out = RouterMultiCommitInstruction{CurrentTS: currentTS, HoldIDs: ids}
	case RouterLiquidate:
		liquidatee := r.bytes32()
		out = RouterLiquidateInstruction{Liquidatee: liquidatee, MaxDebt: types.Uint128FromBytes16(r.bytes16())}
	default:
		return nil, errs.Newf(errs.InvalidInstruction, "unknown router discriminator %d", disc)
	}

	if err := r.done(); err != nil {
		return nil, err
	}
	return out, nil
}
