// Package wire implements the byte-exact encode/decode for the slab and
// router instruction tables in spec.md §6: a one-byte discriminator
// followed by little-endian packed fields. Decode routes on the
// discriminator and returns a typed instruction value; callers (the
// matching and router Dispatch functions) type-switch on the result.
package wire

import (
	"encoding/binary"

	"slabcore/internal/errs"
)

// reader walks a byte slice left to right, consuming little-endian fields.
// Every read past the end returns errs.InvalidInstruction instead of
// panicking, since the input crosses a trust boundary (the HTTP submit
// endpoint, or an on-chain instruction's data section in the original).
type reader struct {
	b   []byte
	off int
	err error
}

func newReader(b []byte) *reader { return &reader{b: b} }

func (r *reader) need(n int) []byte {
	if r.err != nil {
		return nil
	}
	if r.off+n > len(r.b) {
		r.err = errs.New(errs.InvalidInstruction, "instruction payload truncated")
		return nil
	}
	out := r.b[r.off : r.off+n]
	r.off += n
	return out
}

func (r *reader) u8() uint8 {
	b := r.need(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *reader) u16() uint16 {
	b := r.need(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (r *reader) u32() uint32 {
	b := r.need(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *reader) u64() uint64 {
	b := r.need(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (r *reader) i16() int16 { return int16(r.u16()) }

func (r *reader) bytes8() [8]byte {
	var out [8]byte
	b := r.need(8)
	if b != nil {
		copy(out[:], b)
	}
	return out
}

func (r *reader) bytes32() [32]byte {
	var out [32]byte
	b := r.need(32)
	if b != nil {
		copy(out[:], b)
	}
	return out
}

func (r *reader) bytes16() [16]byte {
	var out [16]byte
	b := r.need(16)
	if b != nil {
		copy(out[:], b)
	}
	return out
}

func (r *reader) done() error {
	if r.err != nil {
		return r.err
	}
	if r.off != len(r.b) {
		return errs.New(errs.InvalidInstruction, "instruction payload has trailing bytes")
	}
	return nil
}

// writer appends little-endian fields to a growing byte buffer.
type writer struct{ b []byte }

func newWriter(disc byte) *writer { return &writer{b: []byte{disc}} }

func (w *writer) u8(v uint8) { w.b = append(w.b, v) }

func (w *writer) u16(v uint16) {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	w.b = append(w.b, tmp[:]...)
}

func (w *writer) u32(v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	w.b = append(w.b, tmp[:]...)
}

func (w *writer) u64(v uint64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	w.b = append(w.b, tmp[:]...)
}

func (w *writer) i16(v int16) { w.u16(uint16(v)) }

func (w *writer) bytes(b []byte) { w.b = append(w.b, b...) }

func (w *writer) bytes8(b [8]byte) { w.b = append(w.b, b[:]...) }

func (w *writer) bytes32(b [32]byte) { w.b = append(w.b, b[:]...) }

func (w *writer) bytes16(b [16]byte) { w.b = append(w.b, b[:]...) }
