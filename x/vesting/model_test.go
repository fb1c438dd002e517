package vesting

import (
	"bytes"
	"testing"

	"github.com/iov-one/weave"
	"github.com/iov-one/weave/errors"
	"github.com/iov-one/weave/weavetest"
)

func TestVestingPoolValidate(t *testing.T) {
	owner := weavetest.NewCondition().Address()

	cases := map[string]struct {
		Model   *VestingPool
		WantErr *errors.Error
	}{
		"valid model": {
			Model: &VestingPool{
				Metadata:         &weave.Metadata{Schema: 1},
				OrganizationName: "mycorp",
				Owner:            owner,
				Ticker:           "VEST",
				Treasury:         TreasuryAccount("mycorp"),
			},
			WantErr: nil,
		},
		"missing metadata": {
			Model: &VestingPool{
				OrganizationName: "mycorp",
				Owner:            owner,
				Ticker:           "VEST",
				Treasury:         TreasuryAccount("mycorp"),
			},
			WantErr: errors.ErrMetadata,
		},
		"invalid organization name": {
			Model: &VestingPool{
				Metadata:         &weave.Metadata{Schema: 1},
				OrganizationName: "UPPER CASE",
				Owner:            owner,
				Ticker:           "VEST",
				Treasury:         TreasuryAccount("UPPER CASE"),
			},
			WantErr: errors.ErrInput,
		},
		"invalid ticker": {
			Model: &VestingPool{
				Metadata:         &weave.Metadata{Schema: 1},
				OrganizationName: "mycorp",
				Owner:            owner,
				Ticker:           "x",
				Treasury:         TreasuryAccount("mycorp"),
			},
			WantErr: errors.ErrCurrency,
		},
		"missing owner": {
			Model: &VestingPool{
				Metadata:         &weave.Metadata{Schema: 1},
				OrganizationName: "mycorp",
				Ticker:           "VEST",
				Treasury:         TreasuryAccount("mycorp"),
			},
			WantErr: errors.ErrEmpty,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			if err := tc.Model.Validate(); !tc.WantErr.Is(err) {
				t.Fatalf("unexpected validation error: %+v", err)
			}
		})
	}
}

func TestVestingScheduleValidate(t *testing.T) {
	beneficiary := weavetest.NewCondition().Address()

	cases := map[string]struct {
		Model   *VestingSchedule
		WantErr *errors.Error
	}{
		"valid model": {
			Model: &VestingSchedule{
				Metadata:    &weave.Metadata{Schema: 1},
				Beneficiary: beneficiary,
				Pool:        poolKey("mycorp"),
				StartTime:   100,
				CliffTime:   200,
				EndTime:     300,
				TotalAmount: 1000,
			},
			WantErr: nil,
		},
		"missing pool": {
			Model: &VestingSchedule{
				Metadata:    &weave.Metadata{Schema: 1},
				Beneficiary: beneficiary,
				StartTime:   100,
				CliffTime:   200,
				EndTime:     300,
				TotalAmount: 1000,
			},
			WantErr: errors.ErrEmpty,
		},
		"cliff before start": {
			Model: &VestingSchedule{
				Metadata:    &weave.Metadata{Schema: 1},
				Beneficiary: beneficiary,
				Pool:        poolKey("mycorp"),
				StartTime:   200,
				CliffTime:   100,
				EndTime:     300,
				TotalAmount: 1000,
			},
			WantErr: ErrInvalidSchedule,
		},
		"zero grant": {
			Model: &VestingSchedule{
				Metadata:    &weave.Metadata{Schema: 1},
				Beneficiary: beneficiary,
				Pool:        poolKey("mycorp"),
				StartTime:   100,
				CliffTime:   200,
				EndTime:     300,
				TotalAmount: 0,
			},
			WantErr: ErrInvalidSchedule,
		},
		"withdrawn more than the total": {
			Model: &VestingSchedule{
				Metadata:       &weave.Metadata{Schema: 1},
				Beneficiary:    beneficiary,
				Pool:           poolKey("mycorp"),
				StartTime:      100,
				CliffTime:      200,
				EndTime:        300,
				TotalAmount:    1000,
				TotalWithdrawn: 1001,
			},
			WantErr: errors.ErrAmount,
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			if err := tc.Model.Validate(); !tc.WantErr.Is(err) {
				t.Fatalf("unexpected validation error: %+v", err)
			}
		})
	}
}

func TestTreasuryAccountIsDeterministic(t *testing.T) {
	a := TreasuryAccount("mycorp")
	b := TreasuryAccount("mycorp")
	if !a.Equals(b) {
		t.Fatalf("the same organization must always map to the same treasury: %s != %s", a, b)
	}
	if a.Equals(TreasuryAccount("othercorp")) {
		t.Fatal("different organizations must not share a treasury")
	}
	if err := a.Validate(); err != nil {
		t.Fatalf("treasury must be a valid address: %s", err)
	}
}

func TestScheduleKeyIsPoolPrefixed(t *testing.T) {
	beneficiary := weavetest.NewCondition().Address()
	key := scheduleKey(poolKey("mycorp"), beneficiary)
	if !bytes.HasPrefix(key, poolKey("mycorp")) {
		t.Fatalf("schedule key must be prefixed with the pool key: %x", key)
	}
	if !bytes.HasSuffix(key, beneficiary) {
		t.Fatalf("schedule key must end with the beneficiary: %x", key)
	}
}
