// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package table implements the sstable builder (§4.H): it orchestrates
// the data, filter, meta-index and index block builders into one on-disk
// file plus its 48-byte footer.
package table

import (
	"github.com/lsmdb/lsmcore/internal/base"
	"github.com/lsmdb/lsmcore/sstable/block"
)

// FooterLen is the fixed size of the footer, chosen so a reader can always
// find it with a single seek(end - FooterLen).
const FooterLen = 48

// Magic is the 8-byte little-endian magic number terminating every
// well-formed sstable.
const Magic uint64 = 0xdb4775248b80fb57

// blockType tags the compression codec a block was written with (§3).
type blockType byte

const (
	noCompressionBlockType     blockType = 0
	snappyCompressionBlockType blockType = 1
)

// blockTrailerLen is the 5-byte {type, masked_crc32c} trailer appended
// after every block's contents.
const blockTrailerLen = 5

// EncodeFooter builds the 48-byte footer from the metaindex and index
// block handles: each handle (at most 20 bytes as two varint64s) followed
// by zero padding out to byte 40, then the magic number.
func EncodeFooter(metaindex, index block.Handle) []byte {
	buf := make([]byte, 0, FooterLen)
	buf = block.EncodeHandle(buf, metaindex)
	buf = block.EncodeHandle(buf, index)
	padded := make([]byte, FooterLen)
	copy(padded, buf)
	copy(padded[FooterLen-8:], base.EncodeFixed64(nil, Magic))
	return padded
}

// DecodeFooter parses a 48-byte footer.
func DecodeFooter(buf []byte) (metaindex, index block.Handle, ok bool) {
	if len(buf) != FooterLen {
		return block.Handle{}, block.Handle{}, false
	}
	if base.DecodeFixed64(buf[FooterLen-8:]) != Magic {
		return block.Handle{}, block.Handle{}, false
	}
	metaindex, n1, ok := block.DecodeHandle(buf)
	if !ok {
		return block.Handle{}, block.Handle{}, false
	}
	index, _, ok = block.DecodeHandle(buf[n1:])
	if !ok {
		return block.Handle{}, block.Handle{}, false
	}
	return metaindex, index, true
}
