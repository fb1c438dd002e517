package vesting

import (
	"math/big"
	"time"

	"github.com/iov-one/weave/errors"
)

// VestedAmount returns how many tokens of the schedule are vested at
// the given time. This includes tokens that were already withdrawn.
//
// Vesting is linear between the start and the end of the schedule, but
// nothing is vested before the cliff. A schedule with the same start
// and end time vests the whole amount the moment the cliff is reached.
//
// The intermediate multiplication is done on big integers so that
// amount times elapsed cannot overflow, no matter the values stored in
// the schedule.
func VestedAmount(s *VestingSchedule, now time.Time) (int64, error) {
	t := now.UTC().Unix()
	if t < int64(s.CliffTime) {
		return 0, nil
	}
	if t >= int64(s.EndTime) {
		return s.TotalAmount, nil
	}
	span := int64(s.EndTime) - int64(s.StartTime)
	if span <= 0 {
		// Start and end collapse into a single moment. The cliff was
		// reached so everything is vested.
		return s.TotalAmount, nil
	}
	elapsed := t - int64(s.StartTime)
	if elapsed < 0 {
		elapsed = 0
	}

	vested := new(big.Int).Mul(big.NewInt(s.TotalAmount), big.NewInt(elapsed))
	vested.Quo(vested, big.NewInt(span))
	if !vested.IsInt64() {
		return 0, errors.Wrap(errors.ErrOverflow, "vested amount")
	}
	return vested.Int64(), nil
}
