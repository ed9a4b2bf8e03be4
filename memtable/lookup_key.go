// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package memtable

import "github.com/lsmdb/lsmcore/internal/base"

// inlineCapacity bounds the user-key size that LookupKey can encode without
// a heap allocation. Keys beyond this are rare enough in practice that the
// extra indirection is a fine trade for not reserving a larger array on
// every lookup.
const inlineCapacity = 192

// LookupKey is a probe key for Memtable.Get: the varint32-length-prefixed
// memtable-key encoding of a (user_key, seq) pair built once and sliced
// three ways, matching the "lookup key" of §3.
type LookupKey struct {
	buf    []byte
	keyOff int // offset of internal_key within buf (past the length prefix)
	inline [inlineCapacity]byte
}

// NewLookupKey builds a lookup key for userKey at sequence seq, using the
// maximal value-type tag so the first memtable entry at or after it is the
// newest version visible at seq (§3).
func NewLookupKey(userKey []byte, seq base.SeqNum) *LookupKey {
	lk := &LookupKey{}
	ikLen := len(userKey) + base.InternalTrailerLen

	var buf []byte
	if varint32Len(uint32(ikLen))+ikLen <= inlineCapacity {
		buf = lk.inline[:0]
	} else {
		buf = make([]byte, 0, 5+ikLen)
	}
	buf = base.EncodeVarint32(buf, uint32(ikLen))
	lk.keyOff = len(buf)
	buf = append(buf, userKey...)
	buf = base.EncodeFixed64(buf, uint64(base.MakeTrailer(seq, base.InternalKeyKindMax)))
	lk.buf = buf
	return lk
}

// MemtableKey returns the entire encoded buffer: varint32(length) ||
// internal_key.
func (lk *LookupKey) MemtableKey() []byte { return lk.buf }

// InternalKey returns the buffer without its length prefix: user_key ||
// tag.
func (lk *LookupKey) InternalKey() []byte { return lk.buf[lk.keyOff:] }

// UserKey returns the buffer without its length prefix or trailing tag.
func (lk *LookupKey) UserKey() []byte {
	ik := lk.InternalKey()
	return ik[:len(ik)-base.InternalTrailerLen]
}

// varint32Len returns the number of bytes EncodeVarint32 would produce for
// v, without performing the encoding.
func varint32Len(v uint32) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}
