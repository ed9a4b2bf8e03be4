// Copyright 2013 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package base

// FilterPolicy is the user-pluggable interface (§6) behind an sstable's
// per-range filter block (§4.G). Implementations need not be safe for
// concurrent use by multiple filter-block builders, but a single
// implementation is shared read-only across a table builder and its
// eventual readers.
type FilterPolicy interface {
	// Name identifies the filter on disk, as "filter.<Name()>" in the
	// sstable meta-index block (§3). It must never change.
	Name() string

	// CreateFilter appends a filter summarizing keys to dst and returns
	// the result. keys are full internal keys in arbitrary order, each one
	// belonging to the data-block byte range the filter covers.
	CreateFilter(keys [][]byte, dst []byte) []byte

	// KeyMayMatch reports whether key might be present in the set that
	// produced filter. False positives are allowed; false negatives are
	// not.
	KeyMayMatch(key []byte, filter []byte) bool
}
