// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package base

// WritableFile is the collaborator interface (§6) the table builder
// appends bytes to. The filesystem abstraction that produces a
// WritableFile is out of scope (§1); the core only requires these four
// methods.
type WritableFile interface {
	Append(p []byte) error
	Flush() error
	Sync() error
	Close() error
}
