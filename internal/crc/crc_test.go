// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package crc

import "testing"

func TestCRCUpdateMatchesConcatenation(t *testing.T) {
	a, b := []byte("hello, "), []byte("world")
	got := New(a).Update(b).Value()
	want := New(append(append([]byte{}, a...), b...)).Value()
	if got != want {
		t.Fatalf("Update() = %d, want %d", got, want)
	}
}

func TestCRCDiffersOnBitFlip(t *testing.T) {
	data := []byte("the quick brown fox")
	c1 := New(data).Value()
	flipped := append([]byte{}, data...)
	flipped[0] ^= 1
	c2 := New(flipped).Value()
	if c1 == c2 {
		t.Fatalf("CRC did not change after a single bit flip")
	}
}
