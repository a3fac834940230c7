// Package commitment implements the reserve-time binding and commit-time
// reveal check for a reservation's commitment hash, using Keccak256 over
// little-endian packed fields for on-chain message binding.
package commitment

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/crypto"

	"slabcore/pkg/types"
)

// Fields is the set of reservation fields covered by the commitment hash.
// Binding happens at reserve (before the taker's counterparty fills are
// known); reveal happens at commit, when the caller supplies Salt.
type Fields struct {
	Salt          [32]byte
	AccountIdx    uint32
	InstrumentIdx uint16
	Side          types.Side
	Qty           uint64
	LimitPx       uint64
	RouteID       uint64
}

// Hash computes commitment_hash = Keccak256(salt || account_idx(LE u32) ||
// instrument_idx(LE u16) || side(u8) || qty(LE u64) || limit_px(LE u64) ||
// route_id(LE u64)).
func Hash(f Fields) [32]byte {
	buf := make([]byte, 0, 32+4+2+1+8+8+8)
	buf = append(buf, f.Salt[:]...)

	var tmp4 [4]byte
	binary.LittleEndian.PutUint32(tmp4[:], f.AccountIdx)
	buf = append(buf, tmp4[:]...)

	var tmp2 [2]byte
	binary.LittleEndian.PutUint16(tmp2[:], f.InstrumentIdx)
	buf = append(buf, tmp2[:]...)

	buf = append(buf, byte(f.Side))

	var tmp8 [8]byte
	binary.LittleEndian.PutUint64(tmp8[:], f.Qty)
	buf = append(buf, tmp8[:]...)

	binary.LittleEndian.PutUint64(tmp8[:], f.LimitPx)
	buf = append(buf, tmp8[:]...)

	binary.LittleEndian.PutUint64(tmp8[:], f.RouteID)
	buf = append(buf, tmp8[:]...)

	var out [32]byte
	copy(out[:], crypto.Keccak256(buf))
	return out
}

// Verify reports whether revealing salt against the fields bound at
// reserve time reproduces want.
func Verify(f Fields, want [32]byte) bool {
	got := Hash(f)
	return got == want
}
