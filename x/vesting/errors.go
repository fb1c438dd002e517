package vesting

import (
	"github.com/iov-one/weave/errors"
)

// ABCI error codes
//
// vesting takes 1100-1110
var (
	// ErrInvalidSchedule is returned when schedule times are not ordered
	// start <= cliff <= end or the granted amount is not positive.
	ErrInvalidSchedule = errors.Register(1100, "invalid vesting schedule")

	// ErrAccountMismatch is returned when accounts referenced by a
	// message do not agree with the relations stored on the state.
	ErrAccountMismatch = errors.Register(1101, "account mismatch")

	// ErrClaimNotAvailable is returned when claiming before the cliff
	// time of a schedule.
	ErrClaimNotAvailable = errors.Register(1102, "claim not available yet")

	// ErrNothingToClaim is returned when the vested amount does not
	// exceed what was already withdrawn.
	ErrNothingToClaim = errors.Register(1103, "nothing to claim")
)
