// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package options

import (
	"testing"

	"github.com/lsmdb/lsmcore/internal/base"
)

func TestNilOptionsUsesDefaults(t *testing.T) {
	var o *Options
	if o.GetComparer() != base.DefaultComparer {
		t.Fatalf("GetComparer on nil Options did not return DefaultComparer")
	}
	if o.GetFilterPolicy() != nil {
		t.Fatalf("GetFilterPolicy on nil Options = %v, want nil", o.GetFilterPolicy())
	}
	if got := o.GetCompression(); got != SnappyCompression {
		t.Fatalf("GetCompression on nil Options = %v, want SnappyCompression", got)
	}
	if got := o.GetBlockSize(); got != 4096 {
		t.Fatalf("GetBlockSize on nil Options = %d, want 4096", got)
	}
	if got := o.GetBlockRestartInterval(); got != 16 {
		t.Fatalf("GetBlockRestartInterval on nil Options = %d, want 16", got)
	}
	if got := o.GetWriteBufferSize(); got != 4<<20 {
		t.Fatalf("GetWriteBufferSize on nil Options = %d, want 4 MiB", got)
	}
	if got := o.GetMaxFileSize(); got != 2<<20 {
		t.Fatalf("GetMaxFileSize on nil Options = %d, want 2 MiB", got)
	}
	if got := o.GetNumLevels(); got != 7 {
		t.Fatalf("GetNumLevels on nil Options = %d, want 7", got)
	}
	if got := o.GetL0CompactionTrigger(); got != 4 {
		t.Fatalf("GetL0CompactionTrigger on nil Options = %d, want 4", got)
	}
	if got := o.GetL0SlowdownWritesTrigger(); got != 8 {
		t.Fatalf("GetL0SlowdownWritesTrigger on nil Options = %d, want 8", got)
	}
	if got := o.GetL0StopWritesTrigger(); got != 12 {
		t.Fatalf("GetL0StopWritesTrigger on nil Options = %d, want 12", got)
	}
	if got := o.GetMaxMemCompactLevel(); got != 2 {
		t.Fatalf("GetMaxMemCompactLevel on nil Options = %d, want 2", got)
	}
}

func TestZeroOptionsUsesDefaults(t *testing.T) {
	o := &Options{}
	if got := o.GetBlockSize(); got != 4096 {
		t.Fatalf("GetBlockSize on zero Options = %d, want 4096", got)
	}
	if got := o.GetWriteBufferSize(); got != 4<<20 {
		t.Fatalf("GetWriteBufferSize on zero Options = %d, want 4 MiB", got)
	}
}

func TestExplicitOptionsOverrideDefaults(t *testing.T) {
	o := &Options{
		BlockSize:            8192,
		BlockRestartInterval: 32,
		Compression:          NoCompression,
		NumLevels:            4,
	}
	if got := o.GetBlockSize(); got != 8192 {
		t.Fatalf("GetBlockSize = %d, want 8192", got)
	}
	if got := o.GetBlockRestartInterval(); got != 32 {
		t.Fatalf("GetBlockRestartInterval = %d, want 32", got)
	}
	if got := o.GetCompression(); got != NoCompression {
		t.Fatalf("GetCompression = %v, want NoCompression", got)
	}
	if got := o.GetNumLevels(); got != 4 {
		t.Fatalf("GetNumLevels = %d, want 4", got)
	}
}

func TestDefaultFilterPolicyIsTenBitsPerKey(t *testing.T) {
	p := DefaultFilterPolicy()
	if p == nil {
		t.Fatalf("DefaultFilterPolicy returned nil")
	}
	if p.Name() == "" {
		t.Fatalf("DefaultFilterPolicy.Name() is empty")
	}
	// 100 keys at 10 bits each is 1000 bits = 125 bytes, plus one trailing
	// byte holding the probe count.
	keys := make([][]byte, 100)
	for i := range keys {
		keys[i] = []byte{byte(i)}
	}
	if got := len(p.CreateFilter(keys, nil)); got != 126 {
		t.Fatalf("DefaultFilterPolicy filter for 100 keys is %d bytes, want 126", got)
	}
}
