// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package base

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
)

// maxVarint32Len is the longest a varint32 can legally be: 5 bytes of 7 bits
// each covers the full 32-bit range.
const maxVarint32Len = 5

// EncodeFixed32 appends v to dst in little-endian form.
func EncodeFixed32(dst []byte, v uint32) []byte {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	return append(dst, buf[:]...)
}

// DecodeFixed32 decodes a little-endian uint32 from the front of b.
func DecodeFixed32(b []byte) uint32 {
	return binary.LittleEndian.Uint32(b)
}

// EncodeFixed64 appends v to dst in little-endian form.
func EncodeFixed64(dst []byte, v uint64) []byte {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	return append(dst, buf[:]...)
}

// DecodeFixed64 decodes a little-endian uint64 from the front of b.
func DecodeFixed64(b []byte) uint64 {
	return binary.LittleEndian.Uint64(b)
}

// EncodeVarint32 appends the varint32 encoding of v to dst.
func EncodeVarint32(dst []byte, v uint32) []byte {
	return binary.AppendUvarint(dst, uint64(v))
}

// EncodeVarint64 appends the varint64 encoding of v to dst.
func EncodeVarint64(dst []byte, v uint64) []byte {
	return binary.AppendUvarint(dst, v)
}

// GetVarint32 decodes a varint32 from the front of b. It fails if decoding
// would read past the end of b, or would require more than 5 bytes (the
// longest a legal varint32 can be). It returns the decoded value and the
// number of bytes consumed, or ok=false on failure.
func GetVarint32(b []byte) (v uint32, n int, ok bool) {
	var x uint64
	for shift := uint(0); shift < 32 && n < len(b) && n < maxVarint32Len; shift += 7 {
		c := b[n]
		n++
		x |= uint64(c&0x7f) << shift
		if c < 0x80 {
			return uint32(x), n, true
		}
	}
	return 0, 0, false
}

// GetVarint64 decodes a varint64 from the front of b, failing the same way
// GetVarint32 does but allowing up to 10 bytes.
func GetVarint64(b []byte) (v uint64, n int, ok bool) {
	x, m := binary.Uvarint(b)
	if m <= 0 {
		return 0, 0, false
	}
	return x, m, true
}

// PutLengthPrefixedSlice appends varint32(len(v)) || v to dst.
func PutLengthPrefixedSlice(dst []byte, v []byte) []byte {
	dst = EncodeVarint32(dst, uint32(len(v)))
	return append(dst, v...)
}

// GetLengthPrefixedSlice decodes a length-prefixed slice from the front of
// b, returning the slice (a view into b) and the number of bytes consumed.
func GetLengthPrefixedSlice(b []byte) (v []byte, n int, ok bool) {
	l, n, ok := GetVarint32(b)
	if !ok || uint64(n)+uint64(l) > uint64(len(b)) {
		return nil, 0, false
	}
	return b[n : n+int(l)], n + int(l), true
}

// ErrCorruption marks an error as indicating on-disk or in-memory data that
// failed to decode; manifest.Decode marks every error it returns with it.
// ParseInternalKey reports failure as ok=false instead.
var ErrCorruption = errors.New("lsmcore: corruption")

// crcMaskDelta is added (mod 2^32) to a rotated CRC to produce the stored,
// "masked" checksum. Rotating before adding a constant avoids a CRC of a
// CRC colliding with the value it is masking.
const crcMaskDelta uint32 = 0xa282ead8

// MaskCRC transforms a raw CRC-32C value into the masked form stored in a
// block trailer.
func MaskCRC(crc uint32) uint32 {
	return ((crc >> 15) | (crc << 17)) + crcMaskDelta
}

// UnmaskCRC reverses MaskCRC.
func UnmaskCRC(masked uint32) uint32 {
	rot := masked - crcMaskDelta
	return (rot >> 17) | (rot << 15)
}
