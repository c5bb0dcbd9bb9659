// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package scenario

import "errors"

// Sentinel ConfigurationError and ReferenceError causes (§7). Build
// aggregates every one it finds via internal/utils/wrappers.Errs instead
// of failing on the first, matching config.Parameters.Validate's style.
var (
	ErrDuplicateRecruiterID = errors.New("duplicate recruiter id")
	ErrDuplicateIdentityID  = errors.New("duplicate identity id")
	ErrPhaseOutOfRange      = errors.New("phase must be in [0, 1)")
	ErrNegativeTolerance    = errors.New("phase_tolerance must be >= 0")
	ErrUnknownEventKind     = errors.New("unknown event kind")
	ErrNegativeEventTick    = errors.New("event tick must be >= 0")

	ErrUnknownIdentityRef  = errors.New("event or track references an unknown identity id")
	ErrUnknownRecruiterRef = errors.New("adjacency or event references an unknown recruiter id")
)
