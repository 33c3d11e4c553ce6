// Copyright 2024 The bcopt Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cfg

import (
	"errors"
	"fmt"
)

// ErrNoEntry is returned when an operation requires an entry block and
// the CFG has none (or more than one).
var ErrNoEntry = errors.New("cfg: no entry block")

// ErrNoExit is returned when an operation requires an exit block and
// the CFG has none (or more than one).
var ErrNoExit = errors.New("cfg: no exit block")

// ErrBlockNotFound is returned when an edge references a block id not
// present in the graph — only reachable through a bug elsewhere in
// this package, since build_blocks and the passes are responsible for
// keeping edges consistent.
var ErrBlockNotFound = errors.New("cfg: block not found")

// ErrAssemblyOverflow is returned when a frozen default-argument block
// grew past the byte span it was required to preserve.
var ErrAssemblyOverflow = errors.New("cfg: assembly overflow in frozen block")

func blockNotFoundError(id int) error {
	return fmt.Errorf("%w: id %d", ErrBlockNotFound, id)
}

func assemblyOverflowError(id, want, got int) error {
	return fmt.Errorf("%w: block %d wants %d bytes, assembled %d", ErrAssemblyOverflow, id, want, got)
}
