package types

import "testing"

func TestSideOpposite(t *testing.T) {
	t.Parallel()

	tests := []struct {
		side Side
		want Side
	}{
		{Buy, Sell},
		{Sell, Buy},
	}

	for _, tt := range tests {
		if got := tt.side.Opposite(); got != tt.want {
			t.Errorf("Side(%v).Opposite() = %v, want %v", tt.side, got, tt.want)
		}
	}
}

func TestSideString(t *testing.T) {
	t.Parallel()

	if Buy.String() != "BUY" {
		t.Errorf("Buy.String() = %q, want BUY", Buy.String())
	}
	if Sell.String() != "SELL" {
		t.Errorf("Sell.String() = %q, want SELL", Sell.String())
	}
}

func TestOrderAvailable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		o    Order
		want uint64
	}{
		{"no reservation", Order{Qty: 100, ReservedQty: 0}, 100},
		{"partial reservation", Order{Qty: 100, ReservedQty: 40}, 60},
		{"fully reserved", Order{Qty: 100, ReservedQty: 100}, 0},
		{"over-reserved", Order{Qty: 100, ReservedQty: 150}, 0},
	}

	for _, tt := range tests {
		if got := tt.o.Available(); got != tt.want {
			t.Errorf("%s: Available() = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestInstrumentHeadRoundTrip(t *testing.T) {
	t.Parallel()

	var in Instrument
	in.SetHead(Buy, 7)
	in.SetHead(Sell, 9)
	if got := in.Head(Buy); got != 7 {
		t.Errorf("Head(Buy) = %d, want 7", got)
	}
	if got := in.Head(Sell); got != 9 {
		t.Errorf("Head(Sell) = %d, want 9", got)
	}

	in.SetPendingHead(Buy, 3)
	in.SetPendingHead(Sell, 5)
	if got := in.PendingHead(Buy); got != 3 {
		t.Errorf("PendingHead(Buy) = %d, want 3", got)
	}
	if got := in.PendingHead(Sell); got != 5 {
		t.Errorf("PendingHead(Sell) = %d, want 5", got)
	}
}

func TestUint128MulAndBps(t *testing.T) {
	t.Parallel()

	// 100 contracts * 1000 contract_size = 100_000 notional units;
	// notional * 50_000 price = 5_000_000_000 value;
	// value * 10 bps / 10000 = 5_000_000 fee.
	notional := MulUint64(100, 1000)
	value := notional.MulUint64Chain(50_000)
	fee := value.MulBps(10)

	if got := value.Uint64(); got != 5_000_000_000 {
		t.Errorf("value = %d, want 5_000_000_000", got)
	}
	if got := fee.Uint64(); got != 5_000_000 {
		t.Errorf("fee = %d, want 5_000_000", got)
	}
}

func TestUint128AddSubCmp(t *testing.T) {
	t.Parallel()

	a := Uint128FromUint64(500)
	b := Uint128FromUint64(200)

	if got := a.Add(b).Uint64(); got != 700 {
		t.Errorf("a.Add(b) = %d, want 700", got)
	}
	if got := a.Sub(b).Uint64(); got != 300 {
		t.Errorf("a.Sub(b) = %d, want 300", got)
	}
	if !a.GT(b) {
		t.Error("expected a > b")
	}
	if a.Cmp(a) != 0 {
		t.Error("expected a.Cmp(a) == 0")
	}
}
