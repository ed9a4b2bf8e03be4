// Copyright 2013 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package bloom implements the classic (non-cache-line-blocked) Bloom
// filter policy §4.G's filter block builder is parameterized over: one bit
// array per 2 KiB sstable byte range, built with k probes derived from
// bits-per-key.
package bloom

import "github.com/lsmdb/lsmcore/internal/base"

// hash implements the same Murmur-like hash classic LevelDB uses for its
// Bloom filter, so filters built here are bit-for-bit compatible with a
// C++ LevelDB reader.
func hash(b []byte) uint32 {
	const (
		seed = 0xbc9f1d34
		m    = 0xc6a4a793
	)
	h := uint32(seed) ^ (uint32(len(b)) * m)
	for ; len(b) >= 4; b = b[4:] {
		h += uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
		h *= m
		h ^= h >> 16
	}
	switch len(b) {
	case 3:
		h += uint32(int8(b[2])) << 16
		fallthrough
	case 2:
		h += uint32(int8(b[1])) << 8
		fallthrough
	case 1:
		h += uint32(int8(b[0]))
		h *= m
		h ^= h >> 24
	}
	return h
}

// policy is a base.FilterPolicy that builds classic LevelDB Bloom filters:
// a single flat bit array per call to CreateFilter, k probes chosen by the
// standard bits-per-key formula (unlike a cache-line-blocked scheme, which
// instead looks k up in a table tuned so every probe lands in one cache
// line).
type policy struct {
	bitsPerKey int
	k          int
}

// NewPolicy returns a FilterPolicy targeting approximately bitsPerKey bits
// of filter data per key. 10 is the conventional default, yielding about a
// 1% false positive rate.
func NewPolicy(bitsPerKey int) base.FilterPolicy {
	k := int(float64(bitsPerKey) * 0.69) // ln(2) ~= 0.69
	if k < 1 {
		k = 1
	}
	if k > 30 {
		k = 30
	}
	return policy{bitsPerKey: bitsPerKey, k: k}
}

// Name implements base.FilterPolicy.
func (p policy) Name() string {
	return "leveldb.BuiltinBloomFilter"
}

// CreateFilter implements base.FilterPolicy.
func (p policy) CreateFilter(keys [][]byte, dst []byte) []byte {
	nBits := len(keys) * p.bitsPerKey
	if nBits < 64 {
		nBits = 64
	}
	nBytes := (nBits + 7) / 8
	nBits = nBytes * 8

	start := len(dst)
	dst = append(dst, make([]byte, nBytes)...)
	dst = append(dst, byte(p.k))
	array := dst[start : start+nBytes]

	for _, key := range keys {
		h := hash(key)
		delta := (h >> 17) | (h << 15)
		for j := 0; j < p.k; j++ {
			bitPos := h % uint32(nBits)
			array[bitPos/8] |= 1 << (bitPos % 8)
			h += delta
		}
	}
	return dst
}

// KeyMayMatch implements base.FilterPolicy.
func (p policy) KeyMayMatch(key []byte, filter []byte) bool {
	if len(filter) < 1 {
		return false
	}
	nBits := (len(filter) - 1) * 8
	if nBits == 0 {
		return false
	}
	k := int(filter[len(filter)-1])
	if k > 30 {
		// Reserved for future encodings; treat as "always matches" per the
		// classic LevelDB contract rather than reject the filter.
		return true
	}
	array := filter[:len(filter)-1]
	h := hash(key)
	delta := (h >> 17) | (h << 15)
	for j := 0; j < k; j++ {
		bitPos := h % uint32(nBits)
		if array[bitPos/8]&(1<<(bitPos%8)) == 0 {
			return false
		}
		h += delta
	}
	return true
}
