// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package base

import "bytes"

// Compare returns -1, 0 or +1 depending on whether a is less than, equal
// to, or greater than b under the user's key ordering.
type Compare func(a, b []byte) int

// Separator appends to dst a key k such that a <= k < b (given Compare(a,
// b) < 0), preferring a k shorter than b when one exists. A trivial
// implementation is `return append(dst, a...)`.
type Separator func(dst, a, b []byte) []byte

// Successor appends to dst a key k such that a <= k, preferring a k shorter
// than a when one exists. A trivial implementation is `return append(dst,
// a...)`.
type Successor func(dst, a []byte) []byte

// Comparer is the user-pluggable interface (§6) a memtable/sstable is
// configured with. It composes a byte-slice ordering with the separator and
// successor heuristics used to build compact sstable index entries (§4.B).
type Comparer struct {
	Compare    Compare
	Separator  Separator
	Successor  Successor
	// Name identifies the comparer on disk (e.g. in the sstable metaindex
	// and manifest). It must never change for a given comparer
	// implementation, matching the LevelDB/RocksDB on-disk contract.
	Name string
}

// SharedPrefixLen returns the largest n such that a[:n] equals b[:n].
func SharedPrefixLen(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}

// DefaultComparer is the bytewise comparer used unless an Options
// specifies otherwise. Its name is part of the on-disk format (§4.B,
// §6) and is fixed to match the C++ LevelDB implementation so that
// sstables remain byte-compatible.
var DefaultComparer = &Comparer{
	Compare: bytes.Compare,

	Separator: func(dst, a, b []byte) []byte {
		i, n := SharedPrefixLen(a, b), len(dst)
		dst = append(dst, a...)

		minLen := len(a)
		if minLen > len(b) {
			minLen = len(b)
		}
		if i >= minLen {
			// One is a prefix of the other; do not shorten.
			return dst
		}
		if a[i] >= b[i] {
			// a is already the shortest possible separator.
			return dst
		}
		if i < len(b)-1 || a[i]+1 < b[i] {
			i += n
			dst[i]++
			return dst[:i+1]
		}
		// a[i]+1 == b[i] and byte i is b's last byte: bumping byte i alone
		// would produce b itself, so instead increment the first byte of a
		// after position i that is not 0xff. If there is none, a is
		// returned unchanged.
		i += n + 1
		for ; i < len(dst); i++ {
			if dst[i] != 0xff {
				dst[i]++
				return dst[:i+1]
			}
		}
		return dst
	},

	Successor: func(dst, a []byte) []byte {
		for i := 0; i < len(a); i++ {
			if a[i] != 0xff {
				dst = append(dst, a[:i+1]...)
				dst[len(dst)-1]++
				return dst
			}
		}
		// a is a run of 0xff bytes; no shorter successor exists.
		return append(dst, a...)
	},

	// This name is part of the on-disk format and must not change.
	Name: "leveldb.BytewiseComparator",
}
