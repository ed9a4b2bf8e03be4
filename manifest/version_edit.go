// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package manifest implements the classic (§4.I) VersionEdit record: the
// tag-based delta format the MANIFEST log replays to reconstruct a
// Version's set of live files.
package manifest // import "github.com/lsmdb/lsmcore/manifest"

import (
	"github.com/cockroachdb/errors"

	"github.com/lsmdb/lsmcore/internal/base"
)

// Tag numbers, in the order spec.md §9 lists the fields. Tag 8 is no
// longer used (classic LevelDB reserved it and never assigned it).
const (
	tagComparator     = 1
	tagLogNumber      = 2
	tagNextFileNumber = 3
	tagLastSequence   = 4
	tagCompactPointer = 5
	tagDeletedFile    = 6
	tagNewFile        = 7
	tagPrevLogNumber  = 9
)

// DefaultAllowedSeeks computes the classic size-based seek-compaction
// budget: fileSize / 16KiB, but at least 100 (§4.I). Nothing in this module
// calls DefaultAllowedSeeks, since seek-driven compaction scheduling is out
// of the core's scope.
func DefaultAllowedSeeks(fileSize uint64) int32 {
	seeks := int32(fileSize / (16 * 1024))
	if seeks < 100 {
		seeks = 100
	}
	return seeks
}

// FileMetaData describes one live sstable (§4.I).
type FileMetaData struct {
	FileNum  uint64
	FileSize uint64
	Smallest base.InternalKey
	Largest  base.InternalKey

	// Refs tracks a version's in-memory compaction bookkeeping; it is
	// not encoded into a VersionEdit record.
	Refs uint32

	// allowedSeeks is the size-based seek-compaction budget. The core
	// treats it as opaque and never derives it from FileSize itself; a
	// zero value (the common case, since VersionEdit never encodes it)
	// reads back as the 2^30 default through AllowedSeeks.
	allowedSeeks int32
}

// AllowedSeeks returns the file's seek-compaction budget, or 1<<30 if
// never explicitly set (§4.I).
func (m *FileMetaData) AllowedSeeks() int32 {
	if m.allowedSeeks == 0 {
		return 1 << 30
	}
	return m.allowedSeeks
}

// SetAllowedSeeks overrides the default seek-compaction budget, e.g. with
// DefaultAllowedSeeks(m.FileSize).
func (m *FileMetaData) SetAllowedSeeks(n int32) {
	m.allowedSeeks = n
}

// NewFileMetaData returns a FileMetaData with the default allowed-seeks
// budget (§4.I's "2^30, opaque to the core" choice; see DESIGN.md).
func NewFileMetaData(fileNum, fileSize uint64, smallest, largest base.InternalKey) *FileMetaData {
	return &FileMetaData{
		FileNum:  fileNum,
		FileSize: fileSize,
		Smallest: smallest,
		Largest:  largest,
	}
}

// DeletedFileEntry identifies one file removed by a VersionEdit.
type DeletedFileEntry struct {
	Level   int
	FileNum uint64
}

// NewFileEntry identifies one file added by a VersionEdit.
type NewFileEntry struct {
	Level int
	Meta  FileMetaData
}

// CompactPointerEntry records the per-level key a level's next
// size-triggered compaction should start from (§4.I).
type CompactPointerEntry struct {
	Level int
	Key   base.InternalKey
}

// VersionEdit is a version delta (§3, §4.I): each optional scalar field is
// present only when its matching Has* flag is set, whatever its value, and
// the repeated fields accumulate across a single record.
type VersionEdit struct {
	ComparerName    string
	LogNumber       uint64
	PrevLogNumber   uint64
	NextFileNumber  uint64
	LastSequence    base.SeqNum
	HasComparerName bool
	HasLogNumber    bool
	HasPrevLogNumber bool
	HasNextFileNumber bool
	HasLastSequence bool

	CompactPointers []CompactPointerEntry
	DeletedFiles    map[DeletedFileEntry]bool
	NewFiles        []NewFileEntry
}

// Encode appends the tag-based encoding of v to dst and returns the
// result (§4.I).
func (v *VersionEdit) Encode(dst []byte) []byte {
	if v.HasComparerName {
		dst = base.EncodeVarint32(dst, tagComparator)
		dst = base.PutLengthPrefixedSlice(dst, []byte(v.ComparerName))
	}
	if v.HasLogNumber {
		dst = base.EncodeVarint32(dst, tagLogNumber)
		dst = base.EncodeVarint64(dst, v.LogNumber)
	}
	if v.HasPrevLogNumber {
		dst = base.EncodeVarint32(dst, tagPrevLogNumber)
		dst = base.EncodeVarint64(dst, v.PrevLogNumber)
	}
	if v.HasNextFileNumber {
		dst = base.EncodeVarint32(dst, tagNextFileNumber)
		dst = base.EncodeVarint64(dst, v.NextFileNumber)
	}
	if v.HasLastSequence {
		dst = base.EncodeVarint32(dst, tagLastSequence)
		dst = base.EncodeVarint64(dst, uint64(v.LastSequence))
	}
	for _, cp := range v.CompactPointers {
		dst = base.EncodeVarint32(dst, tagCompactPointer)
		dst = base.EncodeVarint32(dst, uint32(cp.Level))
		dst = base.PutLengthPrefixedSlice(dst, cp.Key.EncodeAppend(nil))
	}
	for d := range v.DeletedFiles {
		dst = base.EncodeVarint32(dst, tagDeletedFile)
		dst = base.EncodeVarint32(dst, uint32(d.Level))
		dst = base.EncodeVarint64(dst, d.FileNum)
	}
	for _, nf := range v.NewFiles {
		dst = base.EncodeVarint32(dst, tagNewFile)
		dst = base.EncodeVarint32(dst, uint32(nf.Level))
		dst = base.EncodeVarint64(dst, nf.Meta.FileNum)
		dst = base.EncodeVarint64(dst, nf.Meta.FileSize)
		dst = base.PutLengthPrefixedSlice(dst, nf.Meta.Smallest.EncodeAppend(nil))
		dst = base.PutLengthPrefixedSlice(dst, nf.Meta.Largest.EncodeAppend(nil))
	}
	return dst
}

// Decode parses a tag-based VersionEdit record out of b, rejecting
// unknown tags and truncated payloads (§4.I). Every error it returns is
// marked with base.ErrCorruption.
func Decode(b []byte) (*VersionEdit, error) {
	v, err := decode(b)
	if err != nil {
		return nil, errors.Mark(err, base.ErrCorruption)
	}
	return v, nil
}

func decode(b []byte) (*VersionEdit, error) {
	v := &VersionEdit{}
	for len(b) > 0 {
		tag, n, ok := base.GetVarint32(b)
		if !ok {
			return nil, errors.New("manifest: truncated tag")
		}
		b = b[n:]

		switch tag {
		case tagComparator:
			s, n, ok := base.GetLengthPrefixedSlice(b)
			if !ok {
				return nil, errors.New("manifest: truncated comparator name")
			}
			v.ComparerName = string(s)
			v.HasComparerName = true
			b = b[n:]

		case tagLogNumber:
			n64, n, ok := base.GetVarint64(b)
			if !ok {
				return nil, errors.New("manifest: truncated log number")
			}
			v.LogNumber = n64
			v.HasLogNumber = true
			b = b[n:]

		case tagPrevLogNumber:
			n64, n, ok := base.GetVarint64(b)
			if !ok {
				return nil, errors.New("manifest: truncated prev log number")
			}
			v.PrevLogNumber = n64
			v.HasPrevLogNumber = true
			b = b[n:]

		case tagNextFileNumber:
			n64, n, ok := base.GetVarint64(b)
			if !ok {
				return nil, errors.New("manifest: truncated next file number")
			}
			v.NextFileNumber = n64
			v.HasNextFileNumber = true
			b = b[n:]

		case tagLastSequence:
			n64, n, ok := base.GetVarint64(b)
			if !ok {
				return nil, errors.New("manifest: truncated last sequence")
			}
			v.LastSequence = base.SeqNum(n64)
			v.HasLastSequence = true
			b = b[n:]

		case tagCompactPointer:
			level, key, rest, err := decodeLevelAndKey(b)
			if err != nil {
				return nil, err
			}
			v.CompactPointers = append(v.CompactPointers, CompactPointerEntry{Level: level, Key: key})
			b = rest

		case tagDeletedFile:
			level, n, ok := base.GetVarint32(b)
			if !ok {
				return nil, errors.New("manifest: truncated deleted-file level")
			}
			b = b[n:]
			fileNum, n, ok := base.GetVarint64(b)
			if !ok {
				return nil, errors.New("manifest: truncated deleted-file number")
			}
			b = b[n:]
			if v.DeletedFiles == nil {
				v.DeletedFiles = make(map[DeletedFileEntry]bool)
			}
			v.DeletedFiles[DeletedFileEntry{Level: int(level), FileNum: fileNum}] = true

		case tagNewFile:
			level, n, ok := base.GetVarint32(b)
			if !ok {
				return nil, errors.New("manifest: truncated new-file level")
			}
			b = b[n:]
			fileNum, n, ok := base.GetVarint64(b)
			if !ok {
				return nil, errors.New("manifest: truncated new-file number")
			}
			b = b[n:]
			fileSize, n, ok := base.GetVarint64(b)
			if !ok {
				return nil, errors.New("manifest: truncated new-file size")
			}
			b = b[n:]
			smallestBytes, n, ok := base.GetLengthPrefixedSlice(b)
			if !ok {
				return nil, errors.New("manifest: truncated new-file smallest key")
			}
			b = b[n:]
			smallest, ok := base.ParseInternalKey(smallestBytes)
			if !ok {
				return nil, errors.New("manifest: corrupt new-file smallest key")
			}
			largestBytes, n, ok := base.GetLengthPrefixedSlice(b)
			if !ok {
				return nil, errors.New("manifest: truncated new-file largest key")
			}
			b = b[n:]
			largest, ok := base.ParseInternalKey(largestBytes)
			if !ok {
				return nil, errors.New("manifest: corrupt new-file largest key")
			}
			v.NewFiles = append(v.NewFiles, NewFileEntry{
				Level: int(level),
				Meta: FileMetaData{
					FileNum:  fileNum,
					FileSize: fileSize,
					Smallest: smallest,
					Largest:  largest,
				},
			})

		default:
			return nil, errors.Newf("manifest: unknown tag %d", tag)
		}
	}
	return v, nil
}

func decodeLevelAndKey(b []byte) (level int, key base.InternalKey, rest []byte, err error) {
	lvl, n, ok := base.GetVarint32(b)
	if !ok {
		return 0, base.InternalKey{}, nil, errors.New("manifest: truncated level")
	}
	b = b[n:]
	keyBytes, n, ok := base.GetLengthPrefixedSlice(b)
	if !ok {
		return 0, base.InternalKey{}, nil, errors.New("manifest: truncated key")
	}
	b = b[n:]
	ik, ok := base.ParseInternalKey(keyBytes)
	if !ok {
		return 0, base.InternalKey{}, nil, errors.New("manifest: corrupt key")
	}
	return int(lvl), ik, b, nil
}
