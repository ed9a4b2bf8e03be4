// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package bloom

import (
	"fmt"
	"testing"
)

func TestFilterBlockRoundTrip(t *testing.T) {
	p := NewPolicy(10)
	b := NewFilterBlockBuilder(p)

	// Two data blocks, each ending well inside the same 2 KiB range: both
	// should be covered by filter 0.
	b.AddKey([]byte("foo"))
	b.AddKey([]byte("bar"))
	b.StartBlock(100)
	b.AddKey([]byte("box"))
	b.StartBlock(200)

	// A block ending far past 2 KiB emits filters 0 through 3: "far" was
	// added before this StartBlock, so filter 0 holds all four keys and
	// filters 1-3 are empty. No filter exists for offset 8192 itself, so a
	// lookup there fails open.
	b.AddKey([]byte("far"))
	b.StartBlock(1 << 13) // offset 8192, i.e. filter_index = 8192>>11 = 4

	block := b.Finish()

	for _, tc := range []struct {
		key    string
		offset uint64
		want   bool
	}{
		{"foo", 50, true},
		{"bar", 50, true},
		{"box", 150, true},
		{"far", 1 << 13, true},
		{"zzz", 50, false},
	} {
		got := ReadFilter(p, []byte(tc.key), block, tc.offset)
		if got != tc.want {
			t.Fatalf("ReadFilter(%q, offset=%d) = %v, want %v", tc.key, tc.offset, got, tc.want)
		}
	}
}

func TestFilterBlockEmptyRangeMatchesNothing(t *testing.T) {
	p := NewPolicy(10)
	b := NewFilterBlockBuilder(p)
	b.AddKey([]byte("foo"))
	b.StartBlock(100)
	// Force empty filters for ranges 1 and 2 by jumping straight to the
	// start of range 3 without adding any keys in between.
	b.StartBlock(3 << BaseLg)
	block := b.Finish()

	if ReadFilter(p, []byte("anything"), block, 1<<BaseLg+10) {
		t.Fatalf("ReadFilter matched a key in an empty filter range")
	}
}

func TestFilterBlockOutOfRangeOffsetMayMatch(t *testing.T) {
	p := NewPolicy(10)
	b := NewFilterBlockBuilder(p)
	b.AddKey([]byte("foo"))
	b.StartBlock(100)
	block := b.Finish()

	// No filter was ever emitted for a far-future offset; the reader must
	// fail open.
	if !ReadFilter(p, []byte(fmt.Sprintf("whatever")), block, 1<<30) {
		t.Fatalf("ReadFilter on an out-of-range offset returned false")
	}
}
