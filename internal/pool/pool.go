// Package pool implements the fixed-capacity arena allocator used for
// every entity the slab allocates after initialization: orders, slices,
// reservations, and positions. Capacity is fixed at construction time and
// never grows — there is no dynamic allocation once a slab is initialized.
package pool

import (
	"encoding/json"

	"slabcore/internal/errs"
)

// Null is the sentinel index meaning "no slot," mirroring types.PoolNull.
const Null uint32 = ^uint32(0)

// Pool is a generic fixed-capacity arena: a contiguous slice of T plus a
// free-list of available indices. Allocated indices are stable for the
// lifetime of the entry — callers hold them instead of pointers, so that
// the whole arena can be persisted and restored as a flat byte layout.
type Pool[T any] struct {
	slots []T
	used  []bool
	free  []uint32
}

// New constructs a Pool with the given fixed capacity.
func New[T any](capacity int) *Pool[T] {
	p := &Pool[T]{
		slots: make([]T, capacity),
		used:  make([]bool, capacity),
		free:  make([]uint32, capacity),
	}
	for i := 0; i < capacity; i++ {
		p.free[i] = uint32(capacity - 1 - i)
	}
	return p
}

// Cap returns the pool's fixed capacity.
func (p *Pool[T]) Cap() int { return len(p.slots) }

// Len returns the number of currently allocated slots.
func (p *Pool[T]) Len() int { return len(p.slots) - len(p.free) }

// Alloc reserves the next free slot and returns its index, zero-valued.
// Returns errs.PoolFull if the pool has no free slots.
func (p *Pool[T]) Alloc() (uint32, error) {
	if len(p.free) == 0 {
		return Null, errs.New(errs.PoolFull, "pool at capacity")
	}
	idx := p.free[len(p.free)-1]
	p.free = p.free[:len(p.free)-1]
	p.used[idx] = true
	var zero T
	p.slots[idx] = zero
	return idx, nil
}

// Free releases idx back to the pool. Freeing an already-free index is a
// caller bug; it panics rather than silently corrupting the free-list.
func (p *Pool[T]) Free(idx uint32) {
	if idx == Null || int(idx) >= len(p.slots) {
		panic("pool: free of out-of-range index")
	}
	if !p.used[idx] {
		panic("pool: double free")
	}
	p.used[idx] = false
	p.free = append(p.free, idx)
}

// Get returns a pointer to the entry at idx. The caller must only call this
// with an index it knows is currently allocated (e.g. from a linked-list
// traversal or a handle it holds) — Get does not check the used bit, since
// every hot-path caller already maintains that invariant via the list
// structure itself.
func (p *Pool[T]) Get(idx uint32) *T {
	return &p.slots[idx]
}

// InUse reports whether idx is currently allocated.
func (p *Pool[T]) InUse(idx uint32) bool {
	if idx == Null || int(idx) >= len(p.slots) {
		return false
	}
	return p.used[idx]
}

// snapshot is the wire-visible form of a Pool, used by store snapshotting
// to persist and restore the arena's exact slot/free-list state.
type snapshot[T any] struct {
	Slots []T    `json:"slots"`
	Used  []bool `json:"used"`
	Free  []uint32 `json:"free"`
}

// MarshalJSON persists the arena's full slot/used/free-list state.
func (p *Pool[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(snapshot[T]{Slots: p.slots, Used: p.used, Free: p.free})
}

// UnmarshalJSON restores a previously persisted arena verbatim, including
// the free-list order (so newly-allocated indices after restore match what
// they would have been had the process never restarted).
func (p *Pool[T]) UnmarshalJSON(data []byte) error {
	var snap snapshot[T]
	if err := json.Unmarshal(data, &snap); err != nil {
		return err
	}
	p.slots = snap.Slots
	p.used = snap.Used
	p.free = snap.Free
	return nil
}
