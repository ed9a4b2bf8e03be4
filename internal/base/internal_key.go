// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package base

import (
	"cmp"
	"fmt"

	"github.com/cockroachdb/redact"
)

// SeqNum is a sequence number defining precedence among identical user keys.
// A key with a higher sequence number takes precedence over an equal user
// key with a lower sequence number. Sequence numbers are stored durably
// within the internal-key trailer as a 56-bit integer; the maximum legal
// value is 2^56-1.
type SeqNum uint64

// SeqNumMax is the largest legal sequence number.
const SeqNumMax SeqNum = 1<<56 - 1

// String implements fmt.Stringer.
func (s SeqNum) String() string {
	if s == SeqNumMax {
		return "inf"
	}
	return fmt.Sprintf("%d", uint64(s))
}

// SafeFormat implements redact.SafeFormatter, so sequence numbers can be
// embedded in redactable log/error output without marking the surrounding
// key material safe.
func (s SeqNum) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Print(redact.SafeString(s.String()))
}

// InternalKeyKind enumerates the kind of an internal key: a tombstone or a
// live value. These constants are part of the on-disk format and must not
// change.
type InternalKeyKind uint8

const (
	// InternalKeyKindDelete marks a tombstone: the key is deleted as of this
	// entry's sequence number. The accompanying value is always empty.
	InternalKeyKindDelete InternalKeyKind = 0
	// InternalKeyKindSet marks a live value.
	InternalKeyKindSet InternalKeyKind = 1

	// InternalKeyKindMax is the largest valid kind. It sorts before every
	// other kind at a fixed sequence number, which is what
	// kValueTypeForSeek relies on when building a search key.
	InternalKeyKindMax = InternalKeyKindSet
)

// String implements fmt.Stringer.
func (k InternalKeyKind) String() string {
	switch k {
	case InternalKeyKindDelete:
		return "DEL"
	case InternalKeyKindSet:
		return "SET"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint8(k))
	}
}

// InternalKeyTrailer packs a sequence number and a kind into 8 bytes: the
// sequence number occupies the high 56 bits, the kind the low 8.
type InternalKeyTrailer uint64

// MakeTrailer constructs a trailer from a sequence number and a kind.
func MakeTrailer(seqNum SeqNum, kind InternalKeyKind) InternalKeyTrailer {
	return (InternalKeyTrailer(seqNum) << 8) | InternalKeyTrailer(kind)
}

// SeqNum returns the sequence number component of the trailer.
func (t InternalKeyTrailer) SeqNum() SeqNum { return SeqNum(t >> 8) }

// Kind returns the key-kind component of the trailer.
func (t InternalKeyTrailer) Kind() InternalKeyKind { return InternalKeyKind(t & 0xff) }

// InternalTrailerLen is the number of bytes an encoded trailer occupies.
const InternalTrailerLen = 8

// InternalKey is the unit of storage and comparison throughout the write
// path: a user key extended with a sequence number and a kind. Its encoded
// form is len(UserKey)+8 bytes: the user key bytes followed by the 8-byte
// little-endian trailer.
type InternalKey struct {
	UserKey []byte
	Trailer InternalKeyTrailer
}

// MakeInternalKey constructs an internal key from a user key, sequence
// number and kind.
func MakeInternalKey(userKey []byte, seqNum SeqNum, kind InternalKeyKind) InternalKey {
	return InternalKey{UserKey: userKey, Trailer: MakeTrailer(seqNum, kind)}
}

// MakeSearchKey constructs an internal key suitable for seeking: the given
// sequence number with the largest valid kind (InternalKeyKindMax, i.e. a
// tag of (seqNum<<8)|1), so that it sorts at or before every version of
// userKey whose sequence number is <= seqNum, and after newer versions.
// This mirrors LevelDB's kValueTypeForSeek convention.
func MakeSearchKey(userKey []byte, seqNum SeqNum) InternalKey {
	return MakeInternalKey(userKey, seqNum, InternalKeyKindMax)
}

// Size returns the length of the key's encoded form.
func (k InternalKey) Size() int { return len(k.UserKey) + InternalTrailerLen }

// Encode writes the encoded form of k into buf, which must be exactly
// k.Size() bytes long.
func (k InternalKey) Encode(buf []byte) {
	n := copy(buf, k.UserKey)
	putFixed64(buf[n:], uint64(k.Trailer))
}

func putFixed64(dst []byte, v uint64) {
	dst[0] = byte(v)
	dst[1] = byte(v >> 8)
	dst[2] = byte(v >> 16)
	dst[3] = byte(v >> 24)
	dst[4] = byte(v >> 32)
	dst[5] = byte(v >> 40)
	dst[6] = byte(v >> 48)
	dst[7] = byte(v >> 56)
}

// EncodeAppend appends the encoded form of k to dst and returns the result.
func (k InternalKey) EncodeAppend(dst []byte) []byte {
	dst = append(dst, k.UserKey...)
	return EncodeFixed64(dst, uint64(k.Trailer))
}

// ParseInternalKey decodes an encoded internal key. It reports ok=false if
// encodedKey is shorter than the trailer, or the decoded kind exceeds
// InternalKeyKindMax — both treated as corruption by callers (§7).
func ParseInternalKey(encodedKey []byte) (key InternalKey, ok bool) {
	n := len(encodedKey) - InternalTrailerLen
	if n < 0 {
		return InternalKey{}, false
	}
	trailer := InternalKeyTrailer(DecodeFixed64(encodedKey[n:]))
	if trailer.Kind() > InternalKeyKindMax {
		return InternalKey{}, false
	}
	return InternalKey{UserKey: encodedKey[:n:n], Trailer: trailer}, true
}

// InternalCompare orders two internal keys: ascending by user key under
// userCmp, with ties broken by descending trailer (so a higher sequence
// number — a newer version of the same user key — sorts first; §3).
func InternalCompare(userCmp Compare, a, b InternalKey) int {
	if c := userCmp(a.UserKey, b.UserKey); c != 0 {
		return c
	}
	return cmp.Compare(b.Trailer, a.Trailer)
}

// FindShortestSeparator returns a key k such that start <= k < limit, that
// is as short as possible, for use as an sstable index-block separator
// (§4.B). If the user comparator's Separator shortens the user-key prefix,
// the returned key's trailer is replaced with the maximal sequence number
// and kind so that it still sorts correctly among internal keys.
func FindShortestSeparator(cmp *Comparer, start InternalKey, limit InternalKey) InternalKey {
	sep := cmp.Separator(nil, start.UserKey, limit.UserKey)
	if len(sep) < len(start.UserKey) && cmp.Compare(start.UserKey, sep) < 0 {
		return MakeSearchKey(sep, SeqNumMax)
	}
	return start
}

// FindShortSuccessor returns a key k such that k >= key, shortened where
// possible, for use as the trailing index-block entry (§4.B).
func FindShortSuccessor(cmp *Comparer, key InternalKey) InternalKey {
	succ := cmp.Successor(nil, key.UserKey)
	if len(succ) < len(key.UserKey) && cmp.Compare(key.UserKey, succ) < 0 {
		return MakeSearchKey(succ, SeqNumMax)
	}
	return key
}
