// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package bloom

import "github.com/lsmdb/lsmcore/internal/base"

// BaseLg is log2 of the sstable byte range each filter covers: 2^11 = 2
// KiB (§3).
const BaseLg = 11

// FilterBlockBuilder assembles the per-2-KiB-range filter block content
// (§4.G) as the table builder streams data blocks: filter i covers sstable
// byte range [i*2^BaseLg, (i+1)*2^BaseLg).
type FilterBlockBuilder struct {
	policy base.FilterPolicy

	keys       []byte // flattened key bytes
	keyStarts  []int  // start offset of key i within keys
	result     []byte
	filterOffs []uint32
}

// NewFilterBlockBuilder returns a builder that consults policy to turn
// each range's keys into filter bytes.
func NewFilterBlockBuilder(policy base.FilterPolicy) *FilterBlockBuilder {
	return &FilterBlockBuilder{policy: policy}
}

// StartBlock is called each time a data block is flushed, with the file
// offset just past its end. It emits one (possibly empty) filter for every
// 2 KiB range fully covered so far, so that filter i always lands at
// offsets[i] by the time a reader needs it.
func (b *FilterBlockBuilder) StartBlock(dataBlockEndOffset uint64) {
	filterIndex := dataBlockEndOffset >> BaseLg
	for uint64(len(b.filterOffs)) < filterIndex {
		b.generateFilter()
	}
}

// AddKey records a key belonging to the data block byte range currently
// being accumulated.
func (b *FilterBlockBuilder) AddKey(key []byte) {
	b.keyStarts = append(b.keyStarts, len(b.keys))
	b.keys = append(b.keys, key...)
}

func (b *FilterBlockBuilder) generateFilter() {
	numKeys := len(b.keyStarts)
	if numKeys == 0 {
		// No keys since the last filter: record an empty range rather
		// than invoking the policy, matching the reader's "start == limit
		// means no filter" convention.
		b.filterOffs = append(b.filterOffs, uint32(len(b.result)))
		return
	}

	b.keyStarts = append(b.keyStarts, len(b.keys)) // sentinel for the last key's length
	keys := make([][]byte, numKeys)
	for i := 0; i < numKeys; i++ {
		keys[i] = b.keys[b.keyStarts[i]:b.keyStarts[i+1]]
	}

	b.filterOffs = append(b.filterOffs, uint32(len(b.result)))
	b.result = b.policy.CreateFilter(keys, b.result)

	b.keys = b.keys[:0]
	b.keyStarts = b.keyStarts[:0]
}

// Finish flushes any pending keys into a final filter and returns the
// complete filter block content: filter_data || u32_le[num_filters] ||
// u32_le(offset_of_offset_array) || u8(base_lg) (§3).
func (b *FilterBlockBuilder) Finish() []byte {
	if len(b.keyStarts) > 0 {
		b.generateFilter()
	}

	arrayOffset := uint32(len(b.result))
	for _, off := range b.filterOffs {
		b.result = base.EncodeFixed32(b.result, off)
	}
	b.result = base.EncodeFixed32(b.result, arrayOffset)
	b.result = append(b.result, byte(BaseLg))
	return b.result
}

// ReadFilter reports whether key might be present in the filter covering
// the data block at file offset dataBlockOffset, given the complete,
// previously-finished filter block contents (§4.G "Reader side"). Offset
// overflow (no filter was ever emitted for this range) is treated as "may
// match", matching the core's closed-world assumption that filters are an
// optimization, never a correctness requirement.
//
// The n offsets written by Finish are immediately followed, in the same
// contiguous run, by the array_offset value itself — so reading
// offsets[index+1] for the last filter naturally lands on array_offset
// without needing to store an explicit (n+1)th entry.
func ReadFilter(policy base.FilterPolicy, key []byte, filterBlock []byte, dataBlockOffset uint64) bool {
	if len(filterBlock) < 5 {
		return true
	}
	baseLg := uint(filterBlock[len(filterBlock)-1])
	arrayOffset := base.DecodeFixed32(filterBlock[len(filterBlock)-5:])
	if uint64(arrayOffset) > uint64(len(filterBlock)-5) {
		return true
	}
	numFilters := (uint64(len(filterBlock)-5) - uint64(arrayOffset)) / 4
	if numFilters == 0 {
		return true
	}

	index := dataBlockOffset >> baseLg
	if index+1 > numFilters {
		return true
	}

	offsetAt := func(i uint64) (uint32, bool) {
		pos := uint64(arrayOffset) + 4*i
		if pos+4 > uint64(len(filterBlock)-1) {
			return 0, false
		}
		return base.DecodeFixed32(filterBlock[pos:]), true
	}
	start, ok1 := offsetAt(index)
	limit, ok2 := offsetAt(index + 1)
	if !ok1 || !ok2 || start > limit || uint64(limit) > uint64(arrayOffset) {
		return true // corrupt offsets: fail open rather than reject a valid key
	}
	if start == limit {
		return false
	}
	return policy.KeyMayMatch(key, filterBlock[start:limit])
}
