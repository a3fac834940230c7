package errs

import (
	"net/http"
	"testing"

	stderrors "errors"
)

func TestHTTPStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind Kind
		want int
	}{
		{PoolFull, http.StatusInsufficientStorage},
		{InsufficientMargin, http.StatusPaymentRequired},
		{InsufficientFunds, http.StatusPaymentRequired},
		{OrderNotFound, http.StatusNotFound},
		{ReservationNotFound, http.StatusNotFound},
		{NotFound, http.StatusNotFound},
		{PriceNotAligned, http.StatusBadRequest},
		{QuantityNotAligned, http.StatusBadRequest},
		{Unauthorized, http.StatusUnauthorized},
		{OrderFrozen, http.StatusConflict},
		{KillBand, http.StatusConflict},
		{NotLiquidatable, http.StatusConflict},
	}

	for _, tt := range tests {
		if got := tt.kind.HTTPStatus(); got != tt.want {
			t.Errorf("%v.HTTPStatus() = %d, want %d", tt.kind, got, tt.want)
		}
	}
}

func TestErrorIsMatchesKind(t *testing.T) {
	t.Parallel()

	err := New(OrderFrozen, "instrument 3 is frozen")
	sentinel := New(OrderFrozen, "")

	if !stderrors.Is(err, sentinel) {
		t.Error("expected errors.Is to match on Kind regardless of message")
	}

	other := New(PoolFull, "")
	if stderrors.Is(err, other) {
		t.Error("expected errors.Is to not match a different Kind")
	}
}

func TestOfExtractsKind(t *testing.T) {
	t.Parallel()

	base := New(InsufficientMargin, "account 1 below maintenance")
	wrapped := Wrap(InsufficientMargin, "liquidation check failed", base)

	kind, ok := Of(wrapped)
	if !ok {
		t.Fatal("expected Of to find a Kind")
	}
	if kind != InsufficientMargin {
		t.Errorf("Of(wrapped) = %v, want InsufficientMargin", kind)
	}
}

func TestOfNoKindOnPlainError(t *testing.T) {
	t.Parallel()

	_, ok := Of(stderrors.New("plain error"))
	if ok {
		t.Error("expected Of to report ok=false for a plain error")
	}
}
