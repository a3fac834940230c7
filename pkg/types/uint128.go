package types

import "github.com/holiman/uint256"

// Uint128 is a fixed-width, non-heap-allocating 128-bit unsigned integer
// used for notional and fee totals that can overflow a uint64 (e.g.
// price × quantity). It is backed by the low two words of a uint256.Int,
// which keeps every matching-path computation free of *big.Int allocation.
type Uint128 struct {
	v uint256.Int
}

// Uint128FromUint64 lifts a uint64 into a Uint128.
func Uint128FromUint64(x uint64) Uint128 {
	var u Uint128
	u.v.SetUint64(x)
	return u
}

// MulUint64 returns a×b without overflow, widening into 128 bits.
func MulUint64(a, b uint64) Uint128 {
	var av, bv uint256.Int
	av.SetUint64(a)
	bv.SetUint64(b)
	var out Uint128
	out.v.Mul(&av, &bv)
	return out
}

// MulUint64Chain returns u×b, used to chain a second widening multiply onto
// an already-widened value (e.g. notional = qty×contract_size, then
// value = notional×price).
func (u Uint128) MulUint64Chain(b uint64) Uint128 {
	var bv uint256.Int
	bv.SetUint64(b)
	var out Uint128
	out.v.Mul(&u.v, &bv)
	return out
}

// Add returns u+other.
func (u Uint128) Add(other Uint128) Uint128 {
	var out Uint128
	out.v.Add(&u.v, &other.v)
	return out
}

// Sub returns u-other. Behavior is undefined (wraps) if other > u; callers
// validate before subtracting, as is conventional for unsigned arithmetic
// in the matching and margin paths.
func (u Uint128) Sub(other Uint128) Uint128 {
	var out Uint128
	out.v.Sub(&u.v, &other.v)
	return out
}

// DivUint64 returns u/d, truncated toward zero like integer division.
func (u Uint128) DivUint64(d uint64) Uint128 {
	var dv uint256.Int
	dv.SetUint64(d)
	var out Uint128
	out.v.Div(&u.v, &dv)
	return out
}

// MulBps returns u×bps/10000, truncated, used for fee and margin
// calculations expressed in basis points.
func (u Uint128) MulBps(bps uint64) Uint128 {
	var bv, denom uint256.Int
	bv.SetUint64(bps)
	denom.SetUint64(10000)
	var scaled uint256.Int
	scaled.Mul(&u.v, &bv)
	var out Uint128
	out.v.Div(&scaled, &denom)
	return out
}

// Cmp compares u to other: -1, 0, or 1.
func (u Uint128) Cmp(other Uint128) int {
	return u.v.Cmp(&other.v)
}

// GT reports whether u > other.
func (u Uint128) GT(other Uint128) bool {
	return u.v.Cmp(&other.v) > 0
}

// Uint64 returns the low 64 bits, truncating silently — callers must only
// use this once a value is known to fit (e.g. after a margin-sufficiency
// check has already bounded it).
func (u Uint128) Uint64() uint64 {
	return u.v.Uint64()
}

// IsZero reports whether u is zero.
func (u Uint128) IsZero() bool {
	return u.v.IsZero()
}

// Bytes16 encodes u as 16 little-endian bytes, the wire layout spec.md §6
// uses for every u128 instruction field (deficit_target, amount, max_debt).
func (u Uint128) Bytes16() [16]byte {
	be := u.v.Bytes32()
	var out [16]byte
	for i := 0; i < 16; i++ {
		out[i] = be[31-i]
	}
	return out
}

// Uint128FromBytes16 decodes 16 little-endian wire bytes into a Uint128.
func Uint128FromBytes16(b [16]byte) Uint128 {
	var be [32]byte
	for i := 0; i < 16; i++ {
		be[31-i] = b[i]
	}
	var out Uint128
	out.v.SetBytes(be[:])
	return out
}
