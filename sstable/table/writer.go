// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package table

import (
	"github.com/cockroachdb/errors"
	"github.com/golang/snappy"

	"github.com/lsmdb/lsmcore/internal/base"
	"github.com/lsmdb/lsmcore/internal/crc"
	"github.com/lsmdb/lsmcore/sstable/block"
	"github.com/lsmdb/lsmcore/sstable/bloom"
)

// Writer builds one sstable (§4.H). Keys passed to Add must be in
// strictly increasing order under the configured comparer.
type Writer struct {
	file base.WritableFile

	cmp             *base.Comparer
	compression     Compression
	filterOpt       base.FilterPolicy
	restartInterval int
	targetBlockSize int

	closed bool
	err    error

	offset uint64

	dataBlock  *block.Builder
	indexBlock *block.Builder
	filter     *bloom.FilterBlockBuilder

	lastKey []byte
	// pendingIndexEntry mirrors pendingHandle: flushing a data block only
	// records that an index entry is owed, since its separator key needs
	// the next Add's key to compute (§4.H step 2).
	pendingIndexEntry bool
	pendingHandle     block.Handle

	numEntries int

	compressedBuf []byte
}

// Compression selects the per-block codec (§4.H).
type Compression int

const (
	NoCompression Compression = iota
	SnappyCompression
)

// Options configures a Writer. A nil Comparer and a zero BlockSize or
// RestartInterval fall back to the package defaults; a nil FilterPolicy
// means no filter block, and the zero Compression is NoCompression.
type Options struct {
	Comparer        *base.Comparer
	FilterPolicy    base.FilterPolicy
	Compression     Compression
	BlockSize       int
	RestartInterval int
}

const defaultBlockSize = 4096

// NewWriter returns a Writer that streams blocks to f as Add is called.
func NewWriter(f base.WritableFile, o Options) *Writer {
	cmp := o.Comparer
	if cmp == nil {
		cmp = base.DefaultComparer
	}
	restartInterval := o.RestartInterval
	if restartInterval == 0 {
		restartInterval = block.DefaultRestartInterval
	}
	blockSize := o.BlockSize
	if blockSize == 0 {
		blockSize = defaultBlockSize
	}

	w := &Writer{
		file:            f,
		cmp:             cmp,
		compression:     o.Compression,
		filterOpt:       o.FilterPolicy,
		restartInterval: restartInterval,
		targetBlockSize: blockSize,
		dataBlock:       block.NewBuilder(restartInterval),
		indexBlock:      block.NewBuilder(1), // §4.H: restart_interval = 1 for the index block
	}
	if o.FilterPolicy != nil {
		w.filter = bloom.NewFilterBlockBuilder(o.FilterPolicy)
	}
	if f == nil {
		w.err = errors.New("sstable: nil file")
	}
	return w
}

// Add appends a key/value pair (§4.H).
func (w *Writer) Add(key base.InternalKey, value []byte) error {
	if w.err != nil {
		return w.err
	}
	if w.closed {
		return errors.New("sstable: Add called on a closed writer")
	}
	encodedKey := key.EncodeAppend(nil)
	if w.lastKey != nil && base.InternalCompare(w.cmp.Compare, mustParse(w.lastKey), key) >= 0 {
		return errors.New("sstable: Add called in non-increasing key order")
	}

	if w.pendingIndexEntry {
		lastIK := mustParse(w.lastKey)
		sep := base.FindShortestSeparator(w.cmp, lastIK, key)
		w.indexBlock.Add(sep.EncodeAppend(nil), block.EncodeHandle(nil, w.pendingHandle))
		w.pendingIndexEntry = false
	}

	if w.filter != nil {
		w.filter.AddKey(encodedKey)
	}

	w.lastKey = append(w.lastKey[:0], encodedKey...)
	w.numEntries++
	w.dataBlock.Add(encodedKey, value)

	if w.dataBlock.CurrentSizeEstimate() >= w.blockSize() {
		if err := w.flush(); err != nil {
			w.err = err
			return err
		}
	}
	return nil
}

func (w *Writer) blockSize() int {
	return w.targetBlockSize
}

func mustParse(encodedInternalKey []byte) base.InternalKey {
	ik, ok := base.ParseInternalKey(encodedInternalKey)
	if !ok {
		panic("sstable: corrupt internal key in writer state")
	}
	return ik
}

// flush writes the current data block, if non-empty (§4.H).
func (w *Writer) flush() error {
	if w.dataBlock.Empty() {
		return nil
	}
	handle, err := w.writeBlock(w.dataBlock)
	if err != nil {
		return err
	}
	w.pendingHandle = handle
	w.pendingIndexEntry = true
	if w.filter != nil {
		w.filter.StartBlock(w.offset)
	}
	w.dataBlock = block.NewBuilder(w.restartInterval)
	return nil
}

// writeBlock finishes block, optionally compresses it, and writes it with
// its trailer (§4.H write_block / write_raw_block).
func (w *Writer) writeBlock(b *block.Builder) (block.Handle, error) {
	contents := b.Finish()
	bt := noCompressionBlockType
	payload := contents
	if w.compression == SnappyCompression {
		compressed := snappy.Encode(w.compressedBuf, contents)
		w.compressedBuf = compressed[:cap(compressed)]
		if len(compressed) < len(contents)-len(contents)/8 {
			bt = snappyCompressionBlockType
			payload = compressed
		}
	}
	return w.writeRawBlock(payload, bt)
}

func (w *Writer) writeRawBlock(contents []byte, bt blockType) (block.Handle, error) {
	if err := w.file.Append(contents); err != nil {
		return block.Handle{}, err
	}
	sum := crc.New(contents).Update([]byte{byte(bt)}).Value()
	trailer := [blockTrailerLen]byte{byte(bt)}
	maskedLE := base.EncodeFixed32(nil, base.MaskCRC(sum))
	copy(trailer[1:], maskedLE)
	if err := w.file.Append(trailer[:]); err != nil {
		return block.Handle{}, err
	}
	h := block.Handle{Offset: w.offset, Size: uint64(len(contents))}
	w.offset += uint64(len(contents)) + blockTrailerLen
	return h, nil
}

// Abandon marks the writer closed without finalizing the file.
func (w *Writer) Abandon() {
	w.closed = true
}

// NumEntries returns the number of key/value pairs added so far.
func (w *Writer) NumEntries() int {
	return w.numEntries
}

// FileSize returns the number of bytes written so far, not counting any
// pending, unflushed data block.
func (w *Writer) FileSize() uint64 {
	return w.offset
}

// Close finishes the table: the last data block (if it holds any
// entries), the filter block, the meta-index block, the index block, and
// the footer (§4.H finish).
func (w *Writer) Close() error {
	if w.err != nil {
		return w.err
	}
	if w.closed {
		return errors.New("sstable: Close called twice")
	}

	if err := w.flush(); err != nil {
		w.err = err
		return err
	}

	metaBlock := block.NewBuilder(1)
	if w.filter != nil {
		filterContents := w.filter.Finish()
		filterHandle, err := w.writeRawBlock(filterContents, noCompressionBlockType)
		if err != nil {
			w.err = err
			return err
		}
		metaBlock.Add([]byte("filter."+w.filterOpt.Name()), block.EncodeHandle(nil, filterHandle))
	}
	metaHandle, err := w.writeBlock(metaBlock)
	if err != nil {
		w.err = err
		return err
	}

	if w.pendingIndexEntry {
		succ := base.FindShortSuccessor(w.cmp, mustParse(w.lastKey))
		w.indexBlock.Add(succ.EncodeAppend(nil), block.EncodeHandle(nil, w.pendingHandle))
		w.pendingIndexEntry = false
	}
	indexHandle, err := w.writeBlock(w.indexBlock)
	if err != nil {
		w.err = err
		return err
	}

	footer := EncodeFooter(metaHandle, indexHandle)
	if err := w.file.Append(footer); err != nil {
		w.err = err
		return err
	}
	w.offset += uint64(len(footer))
	if err := w.file.Flush(); err != nil {
		w.err = err
		return err
	}

	w.closed = true
	w.err = errors.New("sstable: writer is closed")
	return w.file.Sync()
}
