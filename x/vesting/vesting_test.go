package vesting

import (
	"testing"
	"time"

	weave "github.com/iov-one/weave"
	"github.com/iov-one/weave/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVestedAmountComputation(t *testing.T) {
	// 1 Jan 2000, a schedule over 1000 seconds.
	const start = weave.UnixTime(946684800)

	schedule := VestingSchedule{
		StartTime:   start,
		CliffTime:   start + 250,
		EndTime:     start + 1000,
		TotalAmount: 1000,
	}

	cases := map[string]struct {
		schedule VestingSchedule
		now      weave.UnixTime
		want     int64
		wantErr  *errors.Error
	}{
		"nothing is vested before the start": {
			schedule: schedule,
			now:      start - 10,
			want:     0,
		},
		"nothing is vested before the cliff": {
			schedule: schedule,
			now:      start + 249,
			want:     0,
		},
		"vesting catches up the moment the cliff is reached": {
			schedule: schedule,
			now:      start + 250,
			want:     250,
		},
		"vesting is linear between start and end": {
			schedule: schedule,
			now:      start + 500,
			want:     500,
		},
		"fractions are rounded down": {
			schedule: VestingSchedule{
				StartTime:   start,
				CliffTime:   start,
				EndTime:     start + 1000,
				TotalAmount: 999,
			},
			now:  start + 500,
			want: 499,
		},
		"everything is vested at the end": {
			schedule: schedule,
			now:      start + 1000,
			want:     1000,
		},
		"everything is vested after the end": {
			schedule: schedule,
			now:      start + 99999,
			want:     1000,
		},
		"a zero length schedule vests everything at the cliff": {
			schedule: VestingSchedule{
				StartTime:   start,
				CliffTime:   start,
				EndTime:     start,
				TotalAmount: 1000,
			},
			now:  start,
			want: 1000,
		},
		"huge amounts do not overflow the multiplication": {
			schedule: VestingSchedule{
				StartTime:   start,
				CliffTime:   start,
				EndTime:     start + 100000000,
				TotalAmount: 9223372036854775807,
			},
			now:  start + 50000000,
			want: 4611686018427387903,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			got, err := VestedAmount(&tc.schedule, tc.now.Time())
			if tc.wantErr != nil {
				require.True(t, tc.wantErr.Is(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestVestedAmountNeverDecreases(t *testing.T) {
	const start = weave.UnixTime(946684800)

	schedule := VestingSchedule{
		StartTime:   start,
		CliffTime:   start + 100,
		EndTime:     start + 1000,
		TotalAmount: 123457,
	}

	var prev int64
	for now := start.Time(); now.Before(schedule.EndTime.Time().Add(time.Minute)); now = now.Add(7 * time.Second) {
		got, err := VestedAmount(&schedule, now)
		if err != nil {
			t.Fatalf("vested amount at %s: %s", now, err)
		}
		if got < prev {
			t.Fatalf("vested amount decreased at %s: %d < %d", now, got, prev)
		}
		if got > schedule.TotalAmount {
			t.Fatalf("vested amount exceeds the total at %s: %d", now, got)
		}
		prev = got
	}
	if prev != schedule.TotalAmount {
		t.Fatalf("schedule did not fully vest: %d", prev)
	}
}
