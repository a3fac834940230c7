package slab

import (
	"slabcore/internal/pool"
	"slabcore/pkg/types"
)

// FindPosition returns the pool index of accountIdx's position in
// instrumentIdx, or pool.Null if none exists.
func (s *State) FindPosition(accountIdx uint32, instrumentIdx uint16) uint32 {
	acc := &s.Accounts[accountIdx]
	cur := acc.PositionHead
	for cur != pool.Null {
		p := s.Positions.Get(cur)
		if p.InstrumentIdx == instrumentIdx {
			return cur
		}
		cur = p.Next
	}
	return pool.Null
}

// FindOrCreatePosition returns the (possibly newly allocated) position for
// (accountIdx, instrumentIdx), pushing new positions onto the head of the
// account's list. Fails with PoolFull if the position pool is exhausted.
func (s *State) FindOrCreatePosition(accountIdx uint32, instrumentIdx uint16) (*types.Position, uint32, error) {
	if idx := s.FindPosition(accountIdx, instrumentIdx); idx != pool.Null {
		return s.Positions.Get(idx), idx, nil
	}

	idx, err := s.Positions.Alloc()
	if err != nil {
		return nil, pool.Null, err
	}
	acc := &s.Accounts[accountIdx]
	p := s.Positions.Get(idx)
	p.AccountIdx = accountIdx
	p.InstrumentIdx = instrumentIdx
	p.Next = acc.PositionHead
	acc.PositionHead = idx
	return p, idx, nil
}

// RemovePositionIfZero frees the position at idx and unlinks it from
// accountIdx's list if its Size has returned to zero.
func (s *State) RemovePositionIfZero(accountIdx uint32, idx uint32) {
	if idx == pool.Null {
		return
	}
	p := s.Positions.Get(idx)
	if p.Size != 0 {
		return
	}

	acc := &s.Accounts[accountIdx]
	if acc.PositionHead == idx {
		acc.PositionHead = p.Next
		s.Positions.Free(idx)
		return
	}
	cur := acc.PositionHead
	for cur != pool.Null {
		node := s.Positions.Get(cur)
		if node.Next == idx {
			node.Next = p.Next
			s.Positions.Free(idx)
			return
		}
		cur = node.Next
	}
}
