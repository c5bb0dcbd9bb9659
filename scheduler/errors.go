// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package scheduler

import "fmt"

// InvariantError reports an InvariantViolation (§7): an internal
// consistency check that should be impossible to fail through the public
// API but is checked defensively at the end of every tick. It carries the
// failing tick and component so an embedder's diagnostic can point
// directly at the cause.
type InvariantError struct {
	Tick      int
	Component string
	Detail    string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant violation at tick %d in %s: %s", e.Tick, e.Component, e.Detail)
}
