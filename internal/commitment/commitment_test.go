package commitment

import (
	"testing"

	"slabcore/pkg/types"
)

func TestVerifyRoundTrip(t *testing.T) {
	t.Parallel()

	f := Fields{
		Salt:          [32]byte{1, 2, 3},
		AccountIdx:    7,
		InstrumentIdx: 3,
		Side:          types.Buy,
		Qty:           5,
		LimitPx:       50_000_000,
		RouteID:       99,
	}
	h := Hash(f)
	if !Verify(f, h) {
		t.Fatal("expected Verify to succeed for the exact fields that produced the hash")
	}
}

func TestVerifyFailsOnWrongSalt(t *testing.T) {
	t.Parallel()

	f := Fields{
		Salt:          [32]byte{1, 2, 3},
		AccountIdx:    7,
		InstrumentIdx: 3,
		Side:          types.Buy,
		Qty:           5,
		LimitPx:       50_000_000,
		RouteID:       99,
	}
	h := Hash(f)

	f.Salt = [32]byte{9, 9, 9}
	if Verify(f, h) {
		t.Fatal("expected Verify to fail when the salt differs")
	}
}

func TestVerifyFailsOnAnyFieldMismatch(t *testing.T) {
	t.Parallel()

	base := Fields{
		Salt:          [32]byte{4, 5, 6},
		AccountIdx:    1,
		InstrumentIdx: 2,
		Side:          types.Sell,
		Qty:           10,
		LimitPx:       49_000_000,
		RouteID:       1,
	}
	h := Hash(base)

	mutated := base
	mutated.Qty = 11
	if Verify(mutated, h) {
		t.Fatal("expected Verify to fail when qty differs")
	}
}
