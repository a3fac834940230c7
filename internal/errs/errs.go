// Package errs defines the closed error taxonomy shared by the slab
// matching core and the router, plus the HTTP status mapping the dashboard
// surface uses to report them. Every component-level failure is a Kind from
// this package, never a bare fmt.Errorf or a package-private sentinel.
package errs

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// Kind is one outcome from the closed taxonomy every instruction handler
// must return on failure.
type Kind uint8

const (
	InvalidInstruction Kind = iota
	InvalidAccount
	Unauthorized
	InvalidInstrument
	PriceNotAligned
	QuantityNotAligned
	OrderFrozen
	PoolFull
	OrderNotFound
	ReservationNotFound
	Expired
	CommitmentMismatch
	KillBand
	InsufficientMargin
	InsufficientFunds
	NotLiquidatable
	NotFound // generic: cancel's unknown hold_id case
)

func (k Kind) String() string {
	switch k {
	case InvalidInstruction:
		return "InvalidInstruction"
	case InvalidAccount:
		return "InvalidAccount"
	case Unauthorized:
		return "Unauthorized"
	case InvalidInstrument:
		return "InvalidInstrument"
	case PriceNotAligned:
		return "PriceNotAligned"
	case QuantityNotAligned:
		return "QuantityNotAligned"
	case OrderFrozen:
		return "OrderFrozen"
	case PoolFull:
		return "PoolFull"
	case OrderNotFound:
		return "OrderNotFound"
	case ReservationNotFound:
		return "ReservationNotFound"
	case Expired:
		return "Expired"
	case CommitmentMismatch:
		return "CommitmentMismatch"
	case KillBand:
		return "KillBand"
	case InsufficientMargin:
		return "InsufficientMargin"
	case InsufficientFunds:
		return "InsufficientFunds"
	case NotLiquidatable:
		return "NotLiquidatable"
	case NotFound:
		return "NotFound"
	default:
		return "Unknown"
	}
}

// HTTPStatus maps a Kind to the dashboard's HTTP response code. This
// mapping exists only for the harness's own ops surface; it is not part of
// the on-chain-equivalent instruction contract.
func (k Kind) HTTPStatus() int {
	switch k {
	case PoolFull:
		return http.StatusInsufficientStorage
	case InsufficientMargin, InsufficientFunds:
		return http.StatusPaymentRequired
	case OrderNotFound, ReservationNotFound, NotFound:
		return http.StatusNotFound
	case InvalidInstruction, InvalidAccount, InvalidInstrument,
		PriceNotAligned, QuantityNotAligned, Expired, CommitmentMismatch:
		return http.StatusBadRequest
	case Unauthorized:
		return http.StatusUnauthorized
	case OrderFrozen, KillBand, NotLiquidatable:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error wraps a Kind with a message and, for propagation across package
// boundaries, a stack trace from pkg/errors. Leaf errors within a single
// package still use fmt.Errorf("...: %w") to chain onto an Error's Kind.
type Error struct {
	Kind Kind
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.msg == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.msg)
}

func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is an *Error with the same Kind, so callers can
// use errors.Is(err, errs.New(errs.PoolFull, "")) or a Kind-only sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New constructs an Error of the given Kind with a stack trace attached at
// the call site.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, msg: msg, err: errors.New(msg)}
}

// Newf is New with fmt.Sprintf-style formatting.
func Newf(kind Kind, format string, args ...any) *Error {
	return New(kind, fmt.Sprintf(format, args...))
}

// Wrap attaches kind and msg to an underlying error, preserving it via
// Unwrap for errors.Is/As chains, and records a stack trace at the
// boundary it crosses.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, msg: msg, err: errors.Wrap(err, msg)}
}

// Of extracts the Kind from err if it is (or wraps) an *Error, with ok=false
// otherwise.
func Of(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}
