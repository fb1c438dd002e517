package vesting

import (
	"github.com/iov-one/weave"
	"github.com/iov-one/weave/coin"
	"github.com/iov-one/weave/errors"
	"github.com/iov-one/weave/migration"
)

func init() {
	migration.MustRegister(1, &CreatePoolMsg{}, migration.NoModification)
	migration.MustRegister(1, &CreateScheduleMsg{}, migration.NoModification)
	migration.MustRegister(1, &ClaimMsg{}, migration.NoModification)
}

var _ weave.Msg = (*CreatePoolMsg)(nil)

func (CreatePoolMsg) Path() string {
	return "vesting/create_pool"
}

func (m *CreatePoolMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	if !validOrganizationName.MatchString(m.OrganizationName) {
		errs = errors.AppendField(errs, "OrganizationName",
			errors.Wrapf(errors.ErrInput, "does not match %s", validOrganizationName))
	}
	if !coin.IsCC(m.Ticker) {
		errs = errors.AppendField(errs, "Ticker",
			errors.Wrapf(errors.ErrCurrency, "invalid ticker %q", m.Ticker))
	}
	return errs
}

var _ weave.Msg = (*CreateScheduleMsg)(nil)

func (CreateScheduleMsg) Path() string {
	return "vesting/create_schedule"
}

func (m *CreateScheduleMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	if !validOrganizationName.MatchString(m.OrganizationName) {
		errs = errors.AppendField(errs, "OrganizationName",
			errors.Wrapf(errors.ErrInput, "does not match %s", validOrganizationName))
	}
	errs = errors.AppendField(errs, "Beneficiary", m.Beneficiary.Validate())
	errs = errors.AppendField(errs, "StartTime", m.StartTime.Validate())
	errs = errors.AppendField(errs, "CliffTime", m.CliffTime.Validate())
	errs = errors.AppendField(errs, "EndTime", m.EndTime.Validate())
	if m.StartTime > m.CliffTime {
		errs = errors.AppendField(errs, "CliffTime",
			errors.Wrap(ErrInvalidSchedule, "cliff before start"))
	}
	if m.CliffTime > m.EndTime {
		errs = errors.AppendField(errs, "EndTime",
			errors.Wrap(ErrInvalidSchedule, "end before cliff"))
	}
	if m.TotalAmount <= 0 {
		errs = errors.AppendField(errs, "TotalAmount",
			errors.Wrap(ErrInvalidSchedule, "grant must be greater than zero"))
	}
	return errs
}

var _ weave.Msg = (*ClaimMsg)(nil)

func (ClaimMsg) Path() string {
	return "vesting/claim"
}

func (m *ClaimMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	if !validOrganizationName.MatchString(m.OrganizationName) {
		errs = errors.AppendField(errs, "OrganizationName",
			errors.Wrapf(errors.ErrInput, "does not match %s", validOrganizationName))
	}
	errs = errors.AppendField(errs, "Beneficiary", m.Beneficiary.Validate())
	return errs
}
