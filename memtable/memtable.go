// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package memtable implements the reference-counted, skiplist-backed write
// buffer (§4.E). A Memtable composes internal-key encoding (internal/base),
// a bump allocator (internal/arena) and a lock-free-read skiplist
// (internal/skl): entries land here before an external flush path drains
// them into an sstable.
package memtable

import (
	"sync/atomic"

	"github.com/lsmdb/lsmcore/internal/arena"
	"github.com/lsmdb/lsmcore/internal/base"
	"github.com/lsmdb/lsmcore/internal/skl"
)

// GetResult distinguishes the three outcomes of Memtable.Get: no entry at
// all, a live value, or a tombstone. Translating a tombstone into "not
// found" is left to the caller (§4.E step 4), since only the caller knows
// whether to keep searching older memtables/sstables.
type GetResult int

const (
	// NotFound means no memtable entry matched the lookup key's user key.
	NotFound GetResult = iota
	// FoundValue means the matching entry is a live value; Memtable.Get's
	// value return holds its payload.
	FoundValue
	// FoundTombstone means the matching entry is a deletion marker.
	FoundTombstone
)

// Memtable maps internal keys to values via a skiplist of encoded entries
// (the "memtable entry" layout of §3), in arena-backed storage. It is
// reference-counted: callers share ownership by calling Ref and Unref.
// The count returning to zero releases nothing by itself; the backing arena
// is reclaimed by the garbage collector once nothing references it.
//
// All mutating methods (Add, Ref, Unref) require external serialization by
// the caller, in practice the same mutex that serializes write-ahead-log
// appends (§5). Get and iteration need no such coordination: they are
// lock-free with respect a concurrent Add.
type Memtable struct {
	cmp   base.Compare
	arena *arena.Arena
	list  *skl.Skiplist
	refs  atomic.Int32
}

// New returns an empty memtable with an initial reference count of zero;
// callers must call Ref before using it and Unref when done (§4.E).
func New(cmp base.Compare, seed int64) *Memtable {
	a := arena.New()
	return &Memtable{
		cmp:   cmp,
		arena: a,
		list:  skl.New(a, internalKeyCompare(cmp), seed),
	}
}

// MemoryUsage reports the bytes occupied by this memtable's arena (§4.C),
// the signal an external flush path compares against
// Options.WriteBufferSize to decide when a minor compaction is due.
func (m *Memtable) MemoryUsage() int {
	return m.arena.MemoryUsage()
}

// internalKeyCompare adapts a user-key comparator to compare encoded
// memtable entries: decode just enough of each side to recover the
// internal key, then defer to base.InternalCompare.
func internalKeyCompare(userCmp base.Compare) skl.Comparer {
	return func(a, b []byte) int {
		ak := decodeMemtableEntryKey(a)
		bk := decodeMemtableEntryKey(b)
		return base.InternalCompare(userCmp, ak, bk)
	}
}

// decodeMemtableEntryKey decodes the internal key out of a skiplist key
// that is a full memtable entry: varint32(internal_key_len) ||
// internal_key || varint32(value_len) || value.
func decodeMemtableEntryKey(entry []byte) base.InternalKey {
	ikLen, n, ok := base.GetVarint32(entry)
	if !ok {
		panic("memtable: corrupt entry: bad internal_key_len prefix")
	}
	ik, parsed := base.ParseInternalKey(entry[n : n+int(ikLen)])
	if !parsed {
		panic("memtable: corrupt entry: bad internal key")
	}
	return ik
}

// Ref increments the reference count.
func (m *Memtable) Ref() {
	m.refs.Add(1)
}

// Unref decrements the reference count. The memtable and its arena are
// eligible for garbage collection once the count reaches zero; there is no
// separate destroy step, unlike the arena-owning C++ original, since Go's
// GC reclaims the arena's blocks once nothing points into them.
func (m *Memtable) Unref() {
	if m.refs.Add(-1) < 0 {
		panic("memtable: Unref called more times than Ref")
	}
}

// Add builds the internal key for (userKey, seq, kind), composes the
// memtable entry layout, allocates it in the arena, and inserts the
// arena-backed entry into the skiplist (§4.E). Its precondition, shared
// with the skiplist, is that no entry with an equal internal key already
// exists — guaranteed in practice because sequence numbers are assigned
// externally and are unique.
func (m *Memtable) Add(seq base.SeqNum, kind base.InternalKeyKind, userKey, value []byte) {
	ik := base.MakeInternalKey(userKey, seq, kind)
	ikLen := ik.Size()
	entryLen := varint32Len(uint32(ikLen)) + ikLen + varint32Len(uint32(len(value))) + len(value)

	// The entry is composed in an inline scratch buffer first, since
	// base.EncodeVarint32/EncodeAppend/PutLengthPrefixedSlice grow a slice
	// by appending; the arena allocation below is sized exactly once the
	// final length is known, then receives a single copy.
	var inline [inlineCapacity]byte
	buf := inline[:0]
	if entryLen > len(inline) {
		buf = make([]byte, 0, entryLen)
	}
	buf = base.EncodeVarint32(buf, uint32(ikLen))
	buf = ik.EncodeAppend(buf)
	buf = base.PutLengthPrefixedSlice(buf, value)

	entry := m.arena.AllocateAligned(len(buf))
	copy(entry, buf)

	m.list.Insert(entry)
}

// Get looks up lookupKey.UserKey() at the sequence number and value-type
// tag already baked into lookupKey (§4.E):
//  1. Seek an iterator to lookupKey.MemtableKey().
//  2. If the skiplist has no such entry, return NotFound.
//  3. If the matching entry's user key differs from lookupKey.UserKey()
//     under the user comparator, return NotFound.
//  4. Otherwise return FoundValue with the payload, or FoundTombstone.
func (m *Memtable) Get(lookupKey *LookupKey) (value []byte, result GetResult) {
	it := skl.NewIterator(m.list)
	it.Seek(lookupKey.MemtableKey())
	if !it.Valid() {
		return nil, NotFound
	}

	entry := it.Key()
	ikLen, n, ok := base.GetVarint32(entry)
	if !ok {
		return nil, NotFound
	}
	ik, parsed := base.ParseInternalKey(entry[n : n+int(ikLen)])
	if !parsed {
		return nil, NotFound
	}
	if m.cmp(ik.UserKey, lookupKey.UserKey()) != 0 {
		return nil, NotFound
	}

	switch ik.Trailer.Kind() {
	case base.InternalKeyKindDelete:
		return nil, FoundTombstone
	case base.InternalKeyKindSet:
		v, _, ok := base.GetLengthPrefixedSlice(entry[n+int(ikLen):])
		if !ok {
			return nil, NotFound
		}
		return v, FoundValue
	default:
		return nil, NotFound
	}
}
