// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package skl implements the single-writer, multi-reader skiplist (§4.D)
// backing a memtable. Rather than a doubly-linked, height-20, p=1/e
// skiplist, this one follows the classic LevelDB design: single forward pointers only (predecessors are found by
// re-descending, not by a back-link), height capped at 12 with a 1/4
// per-level growth probability.
package skl

import (
	"math/rand"
	"sync/atomic"

	"github.com/lsmdb/lsmcore/internal/arena"
)

// maxHeight is the tallest a node may be. At p=1/4, 12 levels suit
// skiplists of up to about 4^12 (roughly 16.7 million) entries, well above
// the entry count of a practical memtable.
const maxHeight = 12

// p is the probability that an inserted node's height extends one level
// beyond the previous one.
const p = 0.25

// Comparer orders the opaque keys stored in the skiplist.
type Comparer func(a, b []byte) int

// node is a single skiplist entry. next is sized to exactly the node's
// height at allocation time; only next[:height] is ever touched, mirroring
// the spec's "variable-length array of forward pointers" without resorting
// to unsafe pointer arithmetic into the byte arena. The key itself still
// lives in the arena (it is the encoded memtable entry the caller handed
// us); only the node bookkeeping is a normal Go allocation, since
// atomic.Pointer[node] requires a typed, GC-visible home.
type node struct {
	key  []byte
	next []atomic.Pointer[node]
}

func newNode(height int, key []byte) *node {
	return &node{key: key, next: make([]atomic.Pointer[node], height)}
}

func (n *node) loadNext(level int) *node {
	return n.next[level].Load()
}

func (n *node) storeNext(level int, v *node) {
	n.next[level].Store(v)
}

// Skiplist is an ordered set of opaque byte-slice keys. Insert and
// Contains may be called concurrently with each other (§5): Insert must be
// externally serialized against other Insert calls, but requires no
// coordination with concurrent readers. All comparisons flow through cmp;
// Insert does not check for an existing key that compares equal (see
// Insert).
type Skiplist struct {
	arena  *arena.Arena
	cmp    Comparer
	rng    *rand.Rand
	head   *node
	height atomic.Uint32 // 1 <= height <= maxHeight
}

// New returns an empty skiplist backed by a. a is owned by the skiplist's
// writer for the skiplist's lifetime (§4.E: one arena per memtable).
func New(a *arena.Arena, cmp Comparer, seed int64) *Skiplist {
	s := &Skiplist{
		arena: a,
		cmp:   cmp,
		rng:   rand.New(rand.NewSource(seed)),
		head:  newNode(maxHeight, nil),
	}
	s.height.Store(1)
	return s
}

func (s *Skiplist) randomHeight() int {
	h := 1
	for h < maxHeight && s.rng.Float64() < p {
		h++
	}
	return h
}

// findGreaterOrEqual returns the first node whose key is >= key (or nil),
// recording in prev the last node visited at each level above the result —
// prev[i] is the node whose forward pointer at level i must be rewritten
// to insert a new node there. prev may be nil if the caller only wants the
// successor.
func (s *Skiplist) findGreaterOrEqual(key []byte, prev []*node) *node {
	height := int(s.height.Load())
	x := s.head
	for level := height - 1; level >= 0; level-- {
		for {
			next := x.loadNext(level)
			if next == nil || s.cmp(next.key, key) >= 0 {
				break
			}
			x = next
		}
		if prev != nil {
			prev[level] = x
		}
	}
	return x.loadNext(0)
}

// findLessThan returns the last node strictly less than key, or head's
// sentinel position (expressed as a nil *node result meaning "before
// everything") if no such node exists. There are no back pointers (§4.D);
// a predecessor is always found by re-descending from the top.
func (s *Skiplist) findLessThan(key []byte) *node {
	height := int(s.height.Load())
	x := s.head
	var last *node
	for level := height - 1; level >= 0; level-- {
		for {
			next := x.loadNext(level)
			if next == nil || s.cmp(next.key, key) >= 0 {
				break
			}
			x = next
			if x != s.head {
				last = x
			}
		}
	}
	return last
}

// Insert adds key to the skiplist. Its precondition (not checked) is that
// no existing entry compares equal to key; callers that need
// read-before-write semantics (the memtable does not: sequence numbers
// make every internal key unique) must enforce that themselves.
func (s *Skiplist) Insert(key []byte) {
	var prev [maxHeight]*node
	s.findGreaterOrEqual(key, prev[:])

	h := s.randomHeight()
	if curHeight := int(s.height.Load()); h > curHeight {
		for level := curHeight; level < h; level++ {
			prev[level] = s.head
		}
		// Relaxed: readers that observe a stale height either start
		// descending one level too low (still correct) or see a fresh
		// height whose head forward pointer at that level is still nil,
		// which simply sends them down a level (§5).
		s.height.Store(uint32(h))
	}

	n := newNode(h, key)
	for level := 0; level < h; level++ {
		// The new node's own forward pointers need not be published with
		// release semantics: the release store into prev[level] below is
		// the single synchronization edge that makes n visible at all.
		n.storeNext(level, prev[level].loadNext(level))
		prev[level].storeNext(level, n)
	}
}

// Contains reports whether key is present.
func (s *Skiplist) Contains(key []byte) bool {
	n := s.findGreaterOrEqual(key, nil)
	return n != nil && s.cmp(n.key, key) == 0
}

// Iterator traverses a Skiplist's keys in order. An Iterator is safe to use
// concurrently with Insert on the same Skiplist (§5), but a single
// Iterator value must not be used from multiple goroutines at once.
type Iterator struct {
	list *Skiplist
	n    *node
}

// NewIterator returns an unpositioned Iterator over s.
func NewIterator(s *Skiplist) *Iterator {
	return &Iterator{list: s}
}

// Valid reports whether the iterator is positioned at an entry.
func (it *Iterator) Valid() bool {
	return it.n != nil
}

// Key returns the key at the iterator's current position. Valid must be
// true.
func (it *Iterator) Key() []byte {
	return it.n.key
}

// Next advances to the next entry.
func (it *Iterator) Next() {
	it.n = it.n.loadNext(0)
}

// Prev moves to the previous entry. There are no back pointers, so this
// re-descends from the head (§4.D): O(log n), not O(1).
func (it *Iterator) Prev() {
	it.n = it.list.findLessThan(it.n.key)
}

// Seek positions the iterator at the first entry >= target.
func (it *Iterator) Seek(target []byte) {
	it.n = it.list.findGreaterOrEqual(target, nil)
}

// SeekToFirst positions the iterator at the first entry in the list.
func (it *Iterator) SeekToFirst() {
	it.n = it.list.head.loadNext(0)
}

// SeekToLast positions the iterator at the last entry in the list, or
// invalidates it if the list is empty.
func (it *Iterator) SeekToLast() {
	height := int(it.list.height.Load())
	x := it.list.head
	for level := height - 1; level >= 0; level-- {
		for {
			next := x.loadNext(level)
			if next == nil {
				break
			}
			x = next
		}
	}
	if x == it.list.head {
		it.n = nil
		return
	}
	it.n = x
}
