// Package book implements the per-instrument price-sorted doubly-linked
// order lists: live (matchable) and pending (queued for the next batch
// open), one pair per side. All linkage is by pool index, never a pointer,
// so the book can be persisted as a flat byte layout.
package book

import (
	"slabcore/internal/pool"
	"slabcore/pkg/types"
)

// Orders is the subset of pool.Pool[types.Order] operations the book needs.
type Orders = pool.Pool[types.Order]

// less reports whether order a sorts before order b in the live/pending
// list for side: descending price for bids, ascending for asks; ties
// broken by created_ms ascending, then order_id ascending.
func less(side types.Side, a, b *types.Order) bool {
	if a.Price != b.Price {
		if side == types.Buy {
			return a.Price > b.Price
		}
		return a.Price < b.Price
	}
	if a.CreatedMS != b.CreatedMS {
		return a.CreatedMS < b.CreatedMS
	}
	return a.OrderID < b.OrderID
}

// Insert walks from head until it finds the correct sorted position for
// orderIdx and splices it in, returning the (possibly unchanged) head.
func Insert(orders *Orders, head uint32, orderIdx uint32) uint32 {
	node := orders.Get(orderIdx)
	side := node.Side

	if head == types.PoolNull {
		node.Next = types.PoolNull
		node.Prev = types.PoolNull
		return orderIdx
	}

	cur := head
	var prev uint32 = types.PoolNull
	for cur != types.PoolNull {
		curNode := orders.Get(cur)
		if less(side, node, curNode) {
			break
		}
		prev = cur
		cur = curNode.Next
	}

	node.Prev = prev
	node.Next = cur

	if prev != types.PoolNull {
		orders.Get(prev).Next = orderIdx
	} else {
		head = orderIdx
	}
	if cur != types.PoolNull {
		orders.Get(cur).Prev = orderIdx
	}
	return head
}

// Remove splices orderIdx out of the list rooted at head, returning the
// (possibly changed) head. It does not free the order slot — callers
// decide that based on whether qty reached zero.
func Remove(orders *Orders, head uint32, orderIdx uint32) uint32 {
	node := orders.Get(orderIdx)
	prev, next := node.Prev, node.Next

	if prev != types.PoolNull {
		orders.Get(prev).Next = next
	} else {
		head = next
	}
	if next != types.PoolNull {
		orders.Get(next).Prev = prev
	}

	node.Next = types.PoolNull
	node.Prev = types.PoolNull
	return head
}

// PromotePending moves every order in the pending list rooted at
// pendingHead whose EligibleEpoch <= epoch into the live list rooted at
// liveHead, preserving sort order, and returns the new (pendingHead,
// liveHead) pair.
func PromotePending(orders *Orders, pendingHead, liveHead uint32, epoch uint64) (uint32, uint32) {
	cur := pendingHead
	for cur != types.PoolNull {
		node := orders.Get(cur)
		next := node.Next

		if node.EligibleEpoch <= epoch {
			pendingHead = Remove(orders, pendingHead, cur)
			node.State = types.Live
			liveHead = Insert(orders, liveHead, cur)
		}
		cur = next
	}
	return pendingHead, liveHead
}

// Walk calls visit for each order in the list rooted at head, in sorted
// order, until visit returns false.
func Walk(orders *Orders, head uint32, visit func(idx uint32, o *types.Order) bool) {
	cur := head
	for cur != types.PoolNull {
		node := orders.Get(cur)
		next := node.Next
		if !visit(cur, node) {
			return
		}
		cur = next
	}
}

// IsSorted reports whether the list rooted at head satisfies the
// price/time/id ordering invariant for side.
func IsSorted(orders *Orders, head uint32, side types.Side) bool {
	cur := head
	var prevNode *types.Order
	for cur != types.PoolNull {
		node := orders.Get(cur)
		if prevNode != nil && less(side, node, prevNode) {
			return false
		}
		prevNode = node
		cur = node.Next
	}
	return true
}
