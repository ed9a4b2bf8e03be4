// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package base

import (
	"github.com/cockroachdb/errors"
)

// ErrNotFound means that a get did not find the requested key, including
// the case where the key exists but the newest visible version is a
// tombstone (§7).
var ErrNotFound = errors.New("lsmcore: not found")

// ErrInvalidArgument marks a caller error, such as adding entries to a
// memtable or table builder out of key order.
var ErrInvalidArgument = errors.New("lsmcore: invalid argument")
