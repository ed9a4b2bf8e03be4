// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package crc computes the CRC-32C (Castagnoli) checksums stored in sstable
// block trailers (§3). Storing the checksum masked, rather than raw, is
// handled separately by base.MaskCRC/UnmaskCRC.
package crc

import "hash/crc32"

var table = crc32.MakeTable(crc32.Castagnoli)

// CRC is an accumulated CRC-32C checksum.
type CRC uint32

// New returns the CRC-32C checksum of b.
func New(b []byte) CRC {
	return CRC(crc32.Checksum(b, table))
}

// Update extends c with the checksum of b.
func (c CRC) Update(b []byte) CRC {
	return CRC(crc32.Update(uint32(c), table, b))
}

// Value returns the checksum as a uint32.
func (c CRC) Value() uint32 {
	return uint32(c)
}
