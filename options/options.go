// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package options holds the optional, user-pluggable knobs (§6) for the
// core's write path. A nil *Options, or a zero field within one, falls
// back to the documented default, except Compression, whose zero value in
// a non-nil Options is NoCompression. Every GetXxx accessor is safe to
// call on a nil receiver.
package options // import "github.com/lsmdb/lsmcore/options"

import (
	"github.com/lsmdb/lsmcore/internal/base"
	"github.com/lsmdb/lsmcore/sstable/block"
	"github.com/lsmdb/lsmcore/sstable/bloom"
)

// Compression selects the per-block codec an sstable writer uses (§4.H).
type Compression int

const (
	NoCompression Compression = iota
	SnappyCompression
)

const (
	defaultBlockSize           = 4096
	defaultBlockRestartInterval = block.DefaultRestartInterval
	defaultWriteBufferSize     = 4 << 20
	defaultMaxFileSize         = 2 << 20
	defaultNumLevels           = 7
	defaultL0CompactionTrigger = 4
	defaultL0SlowdownWritesTrigger = 8
	defaultL0StopWritesTrigger = 12
	defaultMaxMemCompactLevel  = 2
	defaultBloomBitsPerKey     = 10
)

// Options holds the per-database tunables of §6. The zero value is valid:
// every field left unset other than Compression resolves to its documented
// default; an unset Compression reads back as NoCompression.
type Options struct {
	// Comparer orders user keys. The default is bytewise comparison.
	Comparer *base.Comparer

	// FilterPolicy builds and queries the per-range filter block an
	// sstable writer emits (§4.G). The default is no filter.
	FilterPolicy base.FilterPolicy

	// Compression selects the sstable block codec (§4.H). A nil *Options
	// reports Snappy; in a non-nil Options the zero value is
	// NoCompression, so leaving the field unset selects no compression.
	Compression Compression

	// BlockSize is the target uncompressed size, in bytes, of a data
	// block before it is flushed (§4.H).
	BlockSize int

	// BlockRestartInterval is the number of entries between prefix-
	// compression restart points in a data block (§4.C).
	BlockRestartInterval int

	// WriteBufferSize is the memtable size, in bytes, that triggers a
	// minor compaction (§4.E).
	WriteBufferSize int

	// MaxFileSize is the target size, in bytes, of one sstable produced
	// by a compaction (§4.F).
	MaxFileSize int

	// NumLevels is the number of levels in the LSM tree (§4.F).
	NumLevels int

	// L0CompactionTrigger is the number of level-0 files that triggers a
	// compaction (§4.F).
	L0CompactionTrigger int

	// L0SlowdownWritesTrigger is the number of level-0 files at which
	// writers are throttled (§4.F).
	L0SlowdownWritesTrigger int

	// L0StopWritesTrigger is the number of level-0 files at which writes
	// stop until compaction catches up (§4.F).
	L0StopWritesTrigger int

	// MaxMemCompactLevel is the deepest level a minor compaction's output
	// may be pushed to directly, bypassing level 0 (§4.F).
	MaxMemCompactLevel int
}

// GetComparer returns o.Comparer, or the bytewise default.
func (o *Options) GetComparer() *base.Comparer {
	if o == nil || o.Comparer == nil {
		return base.DefaultComparer
	}
	return o.Comparer
}

// GetFilterPolicy returns o.FilterPolicy, or nil (no filter block) if
// unset. Callers that want the spec's suggested Bloom filter must set
// FilterPolicy explicitly; the core does not default to one, mirroring
// classic LevelDB's nil-means-none filter_policy.
func (o *Options) GetFilterPolicy() base.FilterPolicy {
	if o == nil {
		return nil
	}
	return o.FilterPolicy
}

// DefaultFilterPolicy returns the spec's suggested 10-bits-per-key Bloom
// filter (§6), for callers that want the documented default explicitly
// rather than the nil-safe "no filter" accessor above.
func DefaultFilterPolicy() base.FilterPolicy {
	return bloom.NewPolicy(defaultBloomBitsPerKey)
}

// GetCompression returns Snappy for a nil receiver, otherwise
// o.Compression (NoCompression when the field is unset).
func (o *Options) GetCompression() Compression {
	if o == nil {
		return SnappyCompression
	}
	return o.Compression
}

// GetBlockSize returns o.BlockSize, or 4096.
func (o *Options) GetBlockSize() int {
	if o == nil || o.BlockSize == 0 {
		return defaultBlockSize
	}
	return o.BlockSize
}

// GetBlockRestartInterval returns o.BlockRestartInterval, or 16.
func (o *Options) GetBlockRestartInterval() int {
	if o == nil || o.BlockRestartInterval == 0 {
		return defaultBlockRestartInterval
	}
	return o.BlockRestartInterval
}

// GetWriteBufferSize returns o.WriteBufferSize, or 4 MiB.
func (o *Options) GetWriteBufferSize() int {
	if o == nil || o.WriteBufferSize == 0 {
		return defaultWriteBufferSize
	}
	return o.WriteBufferSize
}

// GetMaxFileSize returns o.MaxFileSize, or 2 MiB.
func (o *Options) GetMaxFileSize() int {
	if o == nil || o.MaxFileSize == 0 {
		return defaultMaxFileSize
	}
	return o.MaxFileSize
}

// GetNumLevels returns o.NumLevels, or 7.
func (o *Options) GetNumLevels() int {
	if o == nil || o.NumLevels == 0 {
		return defaultNumLevels
	}
	return o.NumLevels
}

// GetL0CompactionTrigger returns o.L0CompactionTrigger, or 4.
func (o *Options) GetL0CompactionTrigger() int {
	if o == nil || o.L0CompactionTrigger == 0 {
		return defaultL0CompactionTrigger
	}
	return o.L0CompactionTrigger
}

// GetL0SlowdownWritesTrigger returns o.L0SlowdownWritesTrigger, or 8.
func (o *Options) GetL0SlowdownWritesTrigger() int {
	if o == nil || o.L0SlowdownWritesTrigger == 0 {
		return defaultL0SlowdownWritesTrigger
	}
	return o.L0SlowdownWritesTrigger
}

// GetL0StopWritesTrigger returns o.L0StopWritesTrigger, or 12.
func (o *Options) GetL0StopWritesTrigger() int {
	if o == nil || o.L0StopWritesTrigger == 0 {
		return defaultL0StopWritesTrigger
	}
	return o.L0StopWritesTrigger
}

// GetMaxMemCompactLevel returns o.MaxMemCompactLevel, or 2.
func (o *Options) GetMaxMemCompactLevel() int {
	if o == nil {
		return defaultMaxMemCompactLevel
	}
	if o.MaxMemCompactLevel == 0 {
		return defaultMaxMemCompactLevel
	}
	return o.MaxMemCompactLevel
}
