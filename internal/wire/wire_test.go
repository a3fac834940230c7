package wire

import (
	"testing"

	"slabcore/pkg/types"
)

func TestSlabRoundTrip(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   interface{ Encode() []byte }
	}{
		{"reserve", ReserveInstruction{
			AccountIdx: 7, InstrumentIdx: 3, Side: 1, Qty: 5, LimitPx: 50_000_000,
			TTLMs: 1000, CommitmentHash: [32]byte{1, 2, 3}, RouteID: 42,
		}},
		{"commit", CommitInstruction{HoldID: 9, CurrentTS: 123, Salt: [32]byte{9}}},
		{"cancel", CancelInstruction{HoldID: 9}},
		{"batch_open", BatchOpenInstruction{InstrumentIdx: 2, CurrentTS: 555}},
		{"initialize", InitializeInstruction{
			Authority: [32]byte{1}, Oracle: [32]byte{2}, Router: [32]byte{3},
			IMRBps: 500, MMRBps: 300, MakerFeeBps: -5, TakerFeeBps: 20,
			BatchMs: 1000, FreezeLevels: 2,
		}},
		{"add_instrument", AddInstrumentInstruction{
			Symbol: [8]byte{'B', 'T', 'C'}, ContractSize: 1000, Tick: 100, Lot: 1, IndexPrice: 50_000_000,
		}},
		{"update_funding", UpdateFundingInstruction{UpdateAll: true, InstrumentIdx: 1, CurrentTS: 999}},
		{"liquidate", LiquidateInstruction{
			AccountIdx: 3, DeficitTarget: types.Uint128FromUint64(1_000_000), LiqFeeBps: 50, PriceBandBps: 100,
		}},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			raw := tc.in.Encode()
			got, err := DecodeSlab(raw)
			if err != nil {
				t.Fatalf("DecodeSlab: %v", err)
			}
			if got != tc.in {
				t.Fatalf("round trip mismatch: got %+v, want %+v", got, tc.in)
			}
		})
	}
}

func TestDecodeSlabTruncated(t *testing.T) {
	t.Parallel()
	raw := CancelInstruction{HoldID: 1}.Encode()
	_, err := DecodeSlab(raw[:len(raw)-1])
	if err == nil {
		t.Fatal("expected error on truncated payload")
	}
}

func TestDecodeSlabUnknownDiscriminator(t *testing.T) {
	t.Parallel()
	_, err := DecodeSlab([]byte{99})
	if err == nil {
		t.Fatal("expected error on unknown discriminator")
	}
}

func TestRouterRoundTrip(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   interface{ Encode() []byte }
	}{
		{"initialize", RouterInitializeInstruction{Authority: [32]byte{1}}},
		{"deposit", RouterDepositInstruction{Mint: [32]byte{2}, Amount: types.Uint128FromUint64(500)}},
		{"withdraw", RouterWithdrawInstruction{Mint: [32]byte{3}, Amount: types.Uint128FromUint64(250)}},
		{"liquidate", RouterLiquidateInstruction{Liquidatee: [32]byte{4}, MaxDebt: types.Uint128FromUint64(9000)}},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			raw := tc.in.Encode()
			got, err := DecodeRouter(raw)
			if err != nil {
				t.Fatalf("DecodeRouter: %v", err)
			}
			if got != tc.in {
				t.Fatalf("round trip mismatch: got %+v, want %+v", got, tc.in)
			}
		})
	}
}

func TestRouterMultiReserveRoundTrip(t *testing.T) {
	t.Parallel()
	in := RouterMultiReserveInstruction{Legs: []MultiReserveLegWire{
		{SlabID: [32]byte{1}, InstrumentIdx: 1, Side: 0, Qty: 5, LimitPx: 100},
		{SlabID: [32]byte{2}, InstrumentIdx: 2, Side: 1, Qty: 10, LimitPx: 200},
	}}
	raw := in.Encode()
	got, err := DecodeRouter(raw)
	if err != nil {
		t.Fatalf("DecodeRouter: %v", err)
	}
	decoded, ok := got.(RouterMultiReserveInstruction)
	if !ok {
		t.Fatalf("wrong type: %T", got)
	}
	if len(decoded.Legs) != 2 || decoded.Legs[1].Qty != 10 {
		t.Fatalf("unexpected legs: %+v", decoded.Legs)
	}
}

func TestRouterMultiCommitRoundTrip(t *testing.T) {
	t.Parallel()
	in := RouterMultiCommitInstruction{CurrentTS: 777, HoldIDs: []uint64{1, 2, 3}}
	raw := in.Encode()
	got, err := DecodeRouter(raw)
	if err != nil {
		t.Fatalf("DecodeRouter: %v", err)
	}
	decoded, ok := got.(RouterMultiCommitInstruction)
	if !ok {
		t.Fatalf("wrong type: %T", got)
	}
	if decoded.CurrentTS != 777 || len(decoded.HoldIDs) != 3 || decoded.HoldIDs[2] != 3 {
		t.Fatalf("unexpected decode: %+v", decoded)
	}
}

func TestUint128Bytes16RoundTrip(t *testing.T) {
	t.Parallel()
	want := types.MulUint64(1_000_000_000, 1_000_000_000)
	got := types.Uint128FromBytes16(want.Bytes16())
	if got.Cmp(want) != 0 {
		t.Fatalf("Bytes16 round trip mismatch")
	}
}
