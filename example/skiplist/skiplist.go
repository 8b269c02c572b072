// Package skiplist is a worked example of a lock-free container built on
// top of hazardptr: a concurrent skiplist whose node lookup, insert and
// delete algorithms are unchanged from a classic lock-free skiplist, with
// node reclamation wired through a hazard.Domain instead of an epoch-style
// access barrier.
package skiplist

import (
	"math/rand"
	"sync/atomic"
	"unsafe"

	"github.com/ludaludaed/hazardptr/hazard"
)

const MaxLevel = 32
const p = 0.25

type Item interface {
	Compare(Item) int
}

// Node is one skiplist node. Embedding hazard.Base makes every node a
// hazard.Object, so a fully unlinked node can be Retire'd into the
// skiplist's domain instead of left to the garbage collector to notice.
type Node struct {
	hazard.Base
	next  []atomic.Pointer[nodeRef]
	item  Item
	level uint16
}

// nodeRef pairs a successor pointer with its logical-deletion mark so the
// two travel together as one CAS'able word -- the same need refptr.MarkedShared
// has for a control-block pointer and its mark bit. Both box the pair in an
// allocated struct instead of packing the mark into the pointer's low
// address bit: a packed uintptr is invisible to the garbage collector, and
// a *Node reachable only through such a word could be collected while this
// list still points "through" it.
type nodeRef struct {
	ptr     *Node
	deleted bool
}

func newNode(item Item, level int) *Node {
	n := &Node{next: make([]atomic.Pointer[nodeRef], level+1), item: item, level: uint16(level)}
	n.Base.Bind(unsafePointerOf(n))
	return n
}

func (n *Node) setNext(level int, ptr *Node, deleted bool) {
	n.next[level].Store(&nodeRef{ptr: ptr, deleted: deleted})
}

func (n *Node) getNext(level int) (*Node, bool) {
	ref := n.next[level].Load()
	if ref != nil {
		return ref.ptr, ref.deleted
	}
	return nil, false
}

func (n *Node) dcasNext(level int, prevPtr, newPtr *Node, prevDeleted, newDeleted bool) bool {
	addr := &n.next[level]
	ref := addr.Load()
	if ref == nil || ref.ptr != prevPtr || ref.deleted != prevDeleted {
		return false
	}
	return addr.CompareAndSwap(ref, &nodeRef{ptr: newPtr, deleted: newDeleted})
}

// Skiplist is a lock-free ordered set of Items, reclaiming deleted nodes
// through its own hazard.Domain.
type Skiplist struct {
	head, tail *Node
	level      atomic.Int32
	domain     *hazard.Domain
}

func New() *Skiplist {
	head := newNode(minItem{}, MaxLevel)
	tail := newNode(maxItem{}, MaxLevel)
	for i := 0; i <= MaxLevel; i++ {
		head.setNext(i, tail, false)
	}
	return &Skiplist{
		head:   head,
		tail:   tail,
		domain: hazard.NewDomain(hazard.Policy{NumRecords: 4, ScanThreshold: 64}),
	}
}

type minItem struct{}

func (minItem) Compare(Item) int { return -1 }

type maxItem struct{}

func (maxItem) Compare(Item) int { return 1 }

// Pin attaches the calling goroutine to the skiplist's domain. Hold the
// returned Local for the duration of a batch of operations and Unpin it
// when done, the same handle discipline hazard.Domain.Pin documents.
func (s *Skiplist) Pin() *hazard.Local { return s.domain.Pin() }

func (s *Skiplist) randomLevel(randFn func() float32) int {
	var nextLevel int
	for ; randFn() < p; nextLevel++ {
	}
	if nextLevel > MaxLevel {
		nextLevel = MaxLevel
	}
	level := int(s.level.Load())
	if nextLevel > level {
		s.level.CompareAndSwap(int32(level), int32(level+1))
		nextLevel = level + 1
	}
	return nextLevel
}

func (s *Skiplist) helpDelete(level int, prev, curr, next *Node) bool {
	return prev.dcasNext(level, curr, next, false, false)
}

// findPath protects every node it visits with a hazard pointer from l for
// the duration of the visit -- a concurrently retired node can only be
// reclaimed once scan observes no hazard record protecting its address, so
// a reader mid-traversal never reads a reclaimed node's fields.
func (s *Skiplist) findPath(l *hazard.Local, item Item) (preds, succs []*Node, found bool, err error) {
	preds = make([]*Node, MaxLevel+1)
	succs = make([]*Node, MaxLevel+1)

	hp, err := l.NewHazardPointer()
	if err != nil {
		return nil, nil, false, err
	}
	defer hp.Close(l)

	var cmpVal = 1
retry:
	prev := s.head
	level := int(s.level.Load())
	for i := level; i >= 0; i-- {
		curr, _ := prev.getNext(i)
	levelSearch:
		for {
			if err := hp.ResetProtection(uintptr(unsafePointerOf(curr))); err != nil {
				return nil, nil, false, err
			}

			next, deleted := curr.getNext(i)
			for deleted {
				if !s.helpDelete(i, prev, curr, next) {
					goto retry
				}
				curr, _ = prev.getNext(i)
				if err := hp.ResetProtection(uintptr(unsafePointerOf(curr))); err != nil {
					return nil, nil, false, err
				}
				next, deleted = curr.getNext(i)
			}

			cmpVal = curr.item.Compare(item)
			if cmpVal < 0 {
				prev = curr
				curr, _ = prev.getNext(i)
			} else {
				break levelSearch
			}
		}

		preds[i] = prev
		succs[i] = curr
	}

	found = cmpVal == 0
	return preds, succs, found, nil
}

func (s *Skiplist) Insert(l *hazard.Local, item Item) error {
	return s.Insert2(l, item, rand.Float32)
}

func (s *Skiplist) Insert2(l *hazard.Local, item Item, randFn func() float32) error {
	itemLevel := s.randomLevel(randFn)
	x := newNode(item, itemLevel)

retry:
	preds, succs, _, err := s.findPath(l, item)
	if err != nil {
		return err
	}

	x.setNext(0, succs[0], false)
	if !preds[0].dcasNext(0, succs[0], x, false, false) {
		goto retry
	}

	for i := 1; i <= itemLevel; i++ {
	fixThisLevel:
		for {
			x.setNext(i, succs[i], false)
			if preds[i].dcasNext(i, succs[i], x, false, false) {
				break fixThisLevel
			}
			preds, succs, _, err = s.findPath(l, item)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// Delete removes item, retiring the unlinked node into the skiplist's
// domain once every level's successor pointer has been marked deleted.
func (s *Skiplist) Delete(l *hazard.Local, item Item) error {
	var deleteMarked bool
	_, succs, found, err := s.findPath(l, item)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}

	delNode := succs[0]
	for i := int(delNode.level); i >= 0; i-- {
		next, deleted := delNode.getNext(i)
		for !deleted {
			deleteMarked = delNode.dcasNext(i, next, next, false, true)
			next, deleted = delNode.getNext(i)
		}
	}

	if deleteMarked {
		s.findPath(l, item) // walks helpDelete over every level, unlinking delNode
		return l.Retire(&delNode.Base, func() {})
	}
	return nil
}

func unsafePointerOf(n *Node) unsafe.Pointer { return unsafe.Pointer(n) }
