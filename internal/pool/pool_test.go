package pool

import (
	"testing"

	"slabcore/internal/errs"
)

type widget struct {
	Value int
}

func TestAllocFreeRoundTrip(t *testing.T) {
	t.Parallel()

	p := New[widget](4)
	if p.Cap() != 4 {
		t.Fatalf("Cap() = %d, want 4", p.Cap())
	}

	idx, err := p.Alloc()
	if err != nil {
		t.Fatalf("Alloc() error: %v", err)
	}
	p.Get(idx).Value = 42
	if p.Get(idx).Value != 42 {
		t.Fatalf("Get(idx).Value = %d, want 42", p.Get(idx).Value)
	}
	if p.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", p.Len())
	}

	p.Free(idx)
	if p.Len() != 0 {
		t.Fatalf("Len() after Free = %d, want 0", p.Len())
	}
	if p.InUse(idx) {
		t.Fatal("expected InUse(idx) == false after Free")
	}
}

// TestPoolFullReturnsPoolFullKind checks that capacity is never exceeded —
// the (capacity+1)th Alloc must fail with Kind PoolFull, not panic or
// silently wrap around.
func TestPoolFullReturnsPoolFullKind(t *testing.T) {
	t.Parallel()

	p := New[widget](2)
	if _, err := p.Alloc(); err != nil {
		t.Fatalf("first Alloc() error: %v", err)
	}
	if _, err := p.Alloc(); err != nil {
		t.Fatalf("second Alloc() error: %v", err)
	}

	_, err := p.Alloc()
	if err == nil {
		t.Fatal("expected error on third Alloc at capacity 2")
	}
	kind, ok := errs.Of(err)
	if !ok || kind != errs.PoolFull {
		t.Fatalf("expected Kind PoolFull, got %v (ok=%v)", kind, ok)
	}
}

// TestUsedCountPlusFreeListEqualsCapacity checks that at every point,
// Len() (used count) plus the free-list length equals capacity, and no
// index appears in both.
func TestUsedCountPlusFreeListEqualsCapacity(t *testing.T) {
	t.Parallel()

	const capacity = 8
	p := New[widget](capacity)

	var allocated []uint32
	for i := 0; i < 5; i++ {
		idx, err := p.Alloc()
		if err != nil {
			t.Fatalf("Alloc() error: %v", err)
		}
		allocated = append(allocated, idx)
	}

	if got := p.Len() + len(p.free); got != capacity {
		t.Fatalf("used + free = %d, want %d", got, capacity)
	}

	p.Free(allocated[1])
	p.Free(allocated[3])

	if got := p.Len() + len(p.free); got != capacity {
		t.Fatalf("after frees: used + free = %d, want %d", got, capacity)
	}

	seen := make(map[uint32]bool)
	for _, idx := range p.free {
		if seen[idx] {
			t.Fatalf("index %d appears twice in free-list", idx)
		}
		seen[idx] = true
		if p.InUse(idx) {
			t.Fatalf("index %d is both free and marked in-use", idx)
		}
	}
}

func TestFreeOfUnallocatedPanics(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on double free")
		}
	}()

	p := New[widget](2)
	idx, _ := p.Alloc()
	p.Free(idx)
	p.Free(idx) // double free, must panic
}
