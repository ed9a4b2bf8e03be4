// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package base holds the encoding primitives, internal-key format, and
// plugin interfaces (Comparer, FilterPolicy, WritableFile) that every other
// package in this module builds on.
package base // import "github.com/lsmdb/lsmcore/internal/base"
