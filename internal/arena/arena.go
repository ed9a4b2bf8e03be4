// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package arena implements the monotonic bump allocator (§4.C) backing a
// memtable's skiplist and entry storage. Unlike a single-fixed-buffer
// arena, this arena grows: it holds a list
// of fixed-size blocks plus one dedicated block per large allocation, and
// is never independently shared across memtables.
package arena

import "unsafe"

// blockSize is the size of each ordinary block the arena allocates as it
// grows. Allocations larger than blockSize/4 instead get a dedicated block
// sized exactly to the request, so a single large value never wastes the
// remainder of a block nor forces every future allocation into its own
// block.
const blockSize = 4096

// ptrAlign is the alignment AllocateAligned rounds up to. It matches the
// platform pointer size, which is sufficient for every type the skiplist
// and memtable store in the arena (byte slices and atomic pointers).
const ptrAlign = unsafe.Sizeof(uintptr(0))

// Arena is a growable, append-only byte allocator. It is not safe for
// concurrent use; all allocations originate from the single memtable
// writer (§5).
type Arena struct {
	blocks [][]byte
	// cur is the block currently being bumped into; off is the next free
	// offset within it.
	cur []byte
	off int

	memoryUsage int
}

// New returns an empty arena.
func New() *Arena {
	return &Arena{}
}

// Allocate returns a slice of n freshly allocated, zeroed bytes. Allocations
// larger than blockSize/4 get their own dedicated block; otherwise bytes
// come from the current block, falling back to a fresh block when the
// current one lacks room.
func (a *Arena) Allocate(n int) []byte {
	if n > blockSize/4 {
		b := make([]byte, n)
		a.blocks = append(a.blocks, b)
		a.memoryUsage += n
		return b
	}
	if a.off+n > len(a.cur) {
		a.cur = make([]byte, blockSize)
		a.off = 0
		a.blocks = append(a.blocks, a.cur)
		a.memoryUsage += blockSize
	}
	b := a.cur[a.off : a.off+n]
	a.off += n
	return b
}

// AllocateAligned is like Allocate, but first pads the bump pointer in the
// current block up to ptrAlign. The padding is charged only when it falls
// within the current block; a request that needs a fresh block starts
// aligned at offset 0 for free.
func (a *Arena) AllocateAligned(n int) []byte {
	if n > blockSize/4 {
		return a.Allocate(n)
	}
	if rem := int(ptrAlign) - a.off%int(ptrAlign); rem != int(ptrAlign) && a.off+rem <= len(a.cur) {
		a.off += rem
	}
	return a.Allocate(n)
}

// MemoryUsage reports the total bytes occupied by blocks this arena has
// allocated, including dedicated large-allocation blocks. It does not
// charge the fixed per-arena bookkeeping overhead, which is negligible
// relative to a 4 KiB block.
func (a *Arena) MemoryUsage() int {
	return a.memoryUsage
}
