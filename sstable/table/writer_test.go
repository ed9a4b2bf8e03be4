// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package table

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/golang/snappy"

	"github.com/lsmdb/lsmcore/internal/base"
	"github.com/lsmdb/lsmcore/internal/crc"
	"github.com/lsmdb/lsmcore/sstable/block"
	"github.com/lsmdb/lsmcore/sstable/bloom"
)

// memFile is a minimal base.WritableFile backed by an in-memory buffer,
// used only by tests: a real WritableFile implementation belongs to the
// filesystem layer, out of scope here (§1).
type memFile struct {
	buf     bytes.Buffer
	flushed bool
	synced  bool
	closed  bool
}

func (f *memFile) Append(p []byte) error { _, err := f.buf.Write(p); return err }
func (f *memFile) Flush() error          { f.flushed = true; return nil }
func (f *memFile) Sync() error           { f.synced = true; return nil }
func (f *memFile) Close() error          { f.closed = true; return nil }

func ik(userKey string, seq base.SeqNum) base.InternalKey {
	return base.MakeInternalKey([]byte(userKey), seq, base.InternalKeyKindSet)
}

// readBlock reads the block at handle out of data (the whole file,
// already in memory) and returns its uncompressed content, validating the
// trailer's masked checksum. This is test-only scaffolding, not a
// production sstable reader (out of scope per §1).
func readBlock(t *testing.T, data []byte, h block.Handle) []byte {
	t.Helper()
	contents := data[h.Offset : h.Offset+h.Size]
	trailer := data[h.Offset+h.Size : h.Offset+h.Size+blockTrailerLen]
	bt := trailer[0]
	wantCRC := base.DecodeFixed32(trailer[1:])
	gotCRC := base.MaskCRC(crc.New(contents).Update(trailer[:1]).Value())
	if gotCRC != wantCRC {
		t.Fatalf("block trailer checksum mismatch: got %d, want %d", gotCRC, wantCRC)
	}
	if bt != byte(noCompressionBlockType) {
		t.Fatalf("test helper does not decompress; got blockType %d", bt)
	}
	return contents
}

func TestWriterProducesValidFooter(t *testing.T) {
	f := &memFile{}
	w := NewWriter(f, Options{})
	for i := 0; i < 100; i++ {
		k := ik(fmt.Sprintf("key-%04d", i), base.SeqNum(i+1))
		if err := w.Add(k, []byte(fmt.Sprintf("value-%d", i))); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data := f.buf.Bytes()
	if len(data) < FooterLen {
		t.Fatalf("file too short to contain a footer")
	}
	footer := data[len(data)-FooterLen:]
	metaHandle, indexHandle, ok := DecodeFooter(footer)
	if !ok {
		t.Fatalf("DecodeFooter failed on a freshly written file")
	}
	if metaHandle.Offset+metaHandle.Size+blockTrailerLen > uint64(len(data)) {
		t.Fatalf("meta-index handle points past end of file")
	}
	if indexHandle.Offset+indexHandle.Size+blockTrailerLen > uint64(len(data)) {
		t.Fatalf("index handle points past end of file")
	}
	if !f.flushed || !f.synced {
		t.Fatalf("Close did not flush/sync the underlying file")
	}
}

func TestWriterIndexBlockCoversAllDataBlocks(t *testing.T) {
	f := &memFile{}
	w := NewWriter(f, Options{})

	for i := 0; i < 500; i++ {
		k := ik(fmt.Sprintf("key-%05d", i), base.SeqNum(i+1))
		if err := w.Add(k, bytes.Repeat([]byte("v"), 50)); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if w.NumEntries() != 500 {
		t.Fatalf("NumEntries() = %d, want 500", w.NumEntries())
	}
	if w.FileSize() != uint64(f.buf.Len()) {
		t.Fatalf("FileSize() = %d, want %d", w.FileSize(), f.buf.Len())
	}

	// The data blocks lie back to back from offset 0 up to the meta-index
	// block (no filter is configured); the index must hold one handle for
	// each of them, in order.
	data := f.buf.Bytes()
	metaHandle, indexHandle, ok := DecodeFooter(data[len(data)-FooterLen:])
	if !ok {
		t.Fatalf("DecodeFooter failed")
	}
	handles := decodeIndexEntries(t, readBlock(t, data, indexHandle))
	var next uint64
	for i, h := range handles {
		if h.Offset != next {
			t.Fatalf("index entry %d points at offset %d, want %d", i, h.Offset, next)
		}
		next = h.Offset + h.Size + blockTrailerLen
	}
	if next != metaHandle.Offset {
		t.Fatalf("index entries end at offset %d, want %d (start of the meta-index block)", next, metaHandle.Offset)
	}
}

func TestWriterRejectsNonIncreasingKeys(t *testing.T) {
	f := &memFile{}
	w := NewWriter(f, Options{})
	if err := w.Add(ik("b", 1), nil); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := w.Add(ik("a", 2), nil); err == nil {
		t.Fatalf("Add with a smaller user key succeeded")
	}
}

func TestWriterWithFilterPolicy(t *testing.T) {
	f := &memFile{}
	policy := bloom.NewPolicy(10)
	w := NewWriter(f, Options{FilterPolicy: policy})
	for i := 0; i < 50; i++ {
		k := ik(fmt.Sprintf("key-%03d", i), base.SeqNum(i+1))
		if err := w.Add(k, []byte("v")); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data := f.buf.Bytes()
	footer := data[len(data)-FooterLen:]
	metaHandle, _, ok := DecodeFooter(footer)
	if !ok {
		t.Fatalf("DecodeFooter failed")
	}
	metaContents := readBlock(t, data, metaHandle)
	if !bytes.Contains(metaContents, []byte("filter."+policy.Name())) {
		t.Fatalf("meta-index block does not reference the filter block")
	}
}

// readAnyBlock is like readBlock but tolerates either blockType (§3): a
// Snappy-compressed contents block is decoded with snappy.Decode before
// being returned, so callers that don't know ahead of time whether a given
// block (in particular the index block, which goes through the same
// writeBlock compression attempt as data blocks) ended up compressed can
// still recover its logical contents.
func readAnyBlock(t *testing.T, data []byte, h block.Handle) (contents []byte, bt blockType) {
	t.Helper()
	raw := data[h.Offset : h.Offset+h.Size]
	trailer := data[h.Offset+h.Size : h.Offset+h.Size+blockTrailerLen]
	bt = blockType(trailer[0])
	wantCRC := base.DecodeFixed32(trailer[1:])
	gotCRC := base.MaskCRC(crc.New(raw).Update(trailer[:1]).Value())
	if gotCRC != wantCRC {
		t.Fatalf("block trailer checksum mismatch: got %d, want %d", gotCRC, wantCRC)
	}
	switch bt {
	case noCompressionBlockType:
		return raw, bt
	case snappyCompressionBlockType:
		decoded, err := snappy.Decode(nil, raw)
		if err != nil {
			t.Fatalf("snappy.Decode: %v", err)
		}
		return decoded, bt
	default:
		t.Fatalf("unknown block type %d", bt)
		return nil, bt
	}
}

// decodeIndexEntries parses an index block's entries (no prefix
// compression, since the index block builder uses a restart interval of
// 1: every entry shares nothing with its predecessor), returning each
// entry's decoded BlockHandle; the separator keys are skipped.
func decodeIndexEntries(t *testing.T, contents []byte) []block.Handle {
	t.Helper()
	if len(contents) < 4 {
		t.Fatalf("index block too short")
	}
	numRestarts := base.DecodeFixed32(contents[len(contents)-4:])
	trailerLen := 4 * (int(numRestarts) + 1)
	entries := contents[:len(contents)-trailerLen]

	var handles []block.Handle
	for len(entries) > 0 {
		shared, n1, ok := base.GetVarint32(entries)
		if !ok || shared != 0 {
			t.Fatalf("index entry has a nonzero shared prefix")
		}
		nonShared, n2, ok := base.GetVarint32(entries[n1:])
		if !ok {
			t.Fatalf("malformed index entry: nonShared")
		}
		valueLen, n3, ok := base.GetVarint32(entries[n1+n2:])
		if !ok {
			t.Fatalf("malformed index entry: valueLen")
		}
		off := n1 + n2 + n3
		off += int(nonShared)
		value := entries[off : off+int(valueLen)]
		off += int(valueLen)

		h, _, ok := block.DecodeHandle(value)
		if !ok {
			t.Fatalf("malformed index entry: BlockHandle")
		}
		handles = append(handles, h)

		entries = entries[off:]
	}
	return handles
}

// TestWriterWithSnappyCompression exercises the Snappy branch of writeBlock
// (§4.H scenario S4): highly compressible values should make at least one
// data block cross the 12.5%-savings threshold and get written with
// snappyCompressionBlockType, and snappy.Decode must recover the exact
// bytes that were added.
func TestWriterWithSnappyCompression(t *testing.T) {
	f := &memFile{}
	w := NewWriter(f, Options{Compression: SnappyCompression, BlockSize: 4096})

	value := bytes.Repeat([]byte("compressible-payload-"), 300)
	const n = 40
	for i := 0; i < n; i++ {
		k := ik(fmt.Sprintf("key-%04d", i), base.SeqNum(i+1))
		if err := w.Add(k, value); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data := f.buf.Bytes()
	footer := data[len(data)-FooterLen:]
	_, indexHandle, ok := DecodeFooter(footer)
	if !ok {
		t.Fatalf("DecodeFooter failed")
	}
	indexContents, _ := readAnyBlock(t, data, indexHandle)
	handles := decodeIndexEntries(t, indexContents)
	if len(handles) == 0 {
		t.Fatalf("index block has no entries")
	}

	sawSnappy := false
	for _, h := range handles {
		contents, bt := readAnyBlock(t, data, h)
		if bt != snappyCompressionBlockType {
			continue
		}
		sawSnappy = true
		if !bytes.Contains(contents, value) {
			t.Fatalf("decompressed data block does not contain the original value")
		}
	}
	if !sawSnappy {
		t.Fatalf("no data block was written with snappyCompressionBlockType; want at least one")
	}
}

func TestAbandonDoesNotWriteFooter(t *testing.T) {
	f := &memFile{}
	w := NewWriter(f, Options{})
	if err := w.Add(ik("a", 1), nil); err != nil {
		t.Fatalf("Add: %v", err)
	}
	w.Abandon()
	if f.buf.Len() != 0 {
		t.Fatalf("Abandon wrote %d bytes, want 0 (nothing flushed yet)", f.buf.Len())
	}
}
