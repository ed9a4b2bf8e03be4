// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package block implements the prefix-compressed, restart-indexed data
// block builder (§4.F) and the varint64 BlockHandle codec shared by every
// block reference in an sstable (data, filter, meta-index, index).
package block

import "github.com/lsmdb/lsmcore/internal/base"

// DefaultRestartInterval is the number of entries between restart points
// in an ordinary data block.
const DefaultRestartInterval = 16

// Handle locates a block within an sstable file.
type Handle struct {
	Offset uint64
	Size   uint64
}

// EncodeHandle appends handle as varint64(offset) || varint64(size).
func EncodeHandle(dst []byte, h Handle) []byte {
	dst = base.EncodeVarint64(dst, h.Offset)
	dst = base.EncodeVarint64(dst, h.Size)
	return dst
}

// DecodeHandle decodes a handle from the front of b.
func DecodeHandle(b []byte) (h Handle, n int, ok bool) {
	off, n1, ok := base.GetVarint64(b)
	if !ok {
		return Handle{}, 0, false
	}
	size, n2, ok := base.GetVarint64(b[n1:])
	if !ok {
		return Handle{}, 0, false
	}
	return Handle{Offset: off, Size: size}, n1 + n2, true
}

// Builder accumulates one data (or index, or meta-index) block's worth of
// sorted key/value entries (§4.F). A restart point is forced every
// restartInterval entries, resetting prefix compression so a reader can
// binary-search restart points without decoding every entry from the
// start.
type Builder struct {
	restartInterval int
	buf             []byte
	restarts        []uint32
	lastKey         []byte
	numEntries      int
	finished        bool
}

// NewBuilder returns an empty block builder. restartInterval must be >= 1;
// the index block uses 1 (every entry is a restart point, i.e. no prefix
// compression), ordinary data blocks use DefaultRestartInterval.
func NewBuilder(restartInterval int) *Builder {
	return &Builder{restartInterval: restartInterval}
}

// Add appends an entry. key must compare strictly greater than the
// previously added key under whatever ordering the caller maintains; the
// block format relies on monotonically increasing keys to make prefix
// compression valid.
func (b *Builder) Add(key, value []byte) {
	if b.finished {
		panic("block: Add called after Finish")
	}

	shared := 0
	if b.numEntries%b.restartInterval == 0 {
		b.restarts = append(b.restarts, uint32(len(b.buf)))
	} else {
		shared = base.SharedPrefixLen(b.lastKey, key)
	}
	nonShared := len(key) - shared

	b.buf = base.EncodeVarint32(b.buf, uint32(shared))
	b.buf = base.EncodeVarint32(b.buf, uint32(nonShared))
	b.buf = base.EncodeVarint32(b.buf, uint32(len(value)))
	b.buf = append(b.buf, key[shared:]...)
	b.buf = append(b.buf, value...)

	// lastKey must be a stable copy: key may be a caller-owned buffer that
	// is reused or mutated after Add returns.
	b.lastKey = append(b.lastKey[:0], key...)
	b.numEntries++
}

// CurrentSizeEstimate returns the size the block would have if finished
// right now, including its not-yet-written restart trailer.
func (b *Builder) CurrentSizeEstimate() int {
	return len(b.buf) + 4*(len(b.restarts)+1)
}

// NumEntries returns the number of entries added so far.
func (b *Builder) NumEntries() int {
	return b.numEntries
}

// Empty reports whether no entries have been added.
func (b *Builder) Empty() bool {
	return b.numEntries == 0
}

// Finish appends the restart-offset trailer (u32_le[restarts] ||
// u32_le(num_restarts)) and returns the finished block contents. A
// Builder must not be reused after Finish.
func (b *Builder) Finish() []byte {
	if b.finished {
		panic("block: Finish called twice")
	}
	for _, r := range b.restarts {
		b.buf = base.EncodeFixed32(b.buf, r)
	}
	b.buf = base.EncodeFixed32(b.buf, uint32(len(b.restarts)))
	b.finished = true
	return b.buf
}
