package vesting

import (
	"regexp"

	"github.com/iov-one/weave"
	"github.com/iov-one/weave/coin"
	"github.com/iov-one/weave/errors"
	"github.com/iov-one/weave/migration"
	"github.com/iov-one/weave/orm"
)

func init() {
	migration.MustRegister(1, &VestingPool{}, migration.NoModification)
	migration.MustRegister(1, &VestingSchedule{}, migration.NoModification)
}

// validOrganizationName restricts pool identifiers to something that is
// safe to use as a raw database key.
var validOrganizationName = regexp.MustCompile(`^[a-z0-9_\-]{3,64}$`)

var _ orm.Model = (*VestingPool)(nil)

// Validate ensures the pool is valid.
func (m *VestingPool) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	if !validOrganizationName.MatchString(m.OrganizationName) {
		errs = errors.AppendField(errs, "OrganizationName",
			errors.Wrapf(errors.ErrInput, "does not match %s", validOrganizationName))
	}
	errs = errors.AppendField(errs, "Owner", m.Owner.Validate())
	if !coin.IsCC(m.Ticker) {
		errs = errors.AppendField(errs, "Ticker",
			errors.Wrapf(errors.ErrCurrency, "invalid ticker %q", m.Ticker))
	}
	errs = errors.AppendField(errs, "Treasury", m.Treasury.Validate())
	return errs
}

func (m *VestingPool) Copy() orm.CloneableData {
	return &VestingPool{
		Metadata:         m.Metadata.Copy(),
		OrganizationName: m.OrganizationName,
		Owner:            m.Owner.Clone(),
		Ticker:           m.Ticker,
		Treasury:         m.Treasury.Clone(),
	}
}

// TreasuryAccount returns the address of the wallet that holds the
// locked funds of the pool with the given organization name. The
// address is derived from the name alone so it can be computed by
// anyone, also before the pool exists. There is no private key, only
// this extension can authorize moving funds out.
func TreasuryAccount(organizationName string) weave.Address {
	return weave.NewCondition("vesting", "treasury", []byte(organizationName)).Address()
}

// poolKey returns the database key a pool with that organization name
// is stored under.
func poolKey(organizationName string) []byte {
	return []byte(organizationName)
}

// scheduleKey returns the database key of the schedule of a beneficiary
// within a pool. The pool key is the prefix so that all schedules of a
// pool are stored next to each other.
func scheduleKey(pool []byte, beneficiary weave.Address) []byte {
	key := make([]byte, 0, len(pool)+len(beneficiary))
	key = append(key, pool...)
	return append(key, beneficiary...)
}

func NewVestingPoolBucket() orm.ModelBucket {
	b := orm.NewModelBucket("vpool", &VestingPool{},
		orm.WithIndex("owner", idxPoolOwner, false),
	)
	return migration.NewModelBucket("vesting", b)
}

var _ orm.Model = (*VestingSchedule)(nil)

// Validate ensures the schedule is valid.
func (m *VestingSchedule) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "Beneficiary", m.Beneficiary.Validate())
	if len(m.Pool) == 0 {
		errs = errors.AppendField(errs, "Pool", errors.ErrEmpty)
	}
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
	if m.TotalWithdrawn < 0 {
		errs = errors.AppendField(errs, "TotalWithdrawn",
			errors.Wrap(errors.ErrAmount, "must not be negative"))
	}
	if m.TotalWithdrawn > m.TotalAmount {
		errs = errors.AppendField(errs, "TotalWithdrawn",
			errors.Wrap(errors.ErrAmount, "must not exceed the total amount"))
	}
	return errs
}

func (m *VestingSchedule) Copy() orm.CloneableData {
	return &VestingSchedule{
		Metadata:       m.Metadata.Copy(),
		Beneficiary:    m.Beneficiary.Clone(),
		Pool:           append([]byte(nil), m.Pool...),
		StartTime:      m.StartTime,
		CliffTime:      m.CliffTime,
		EndTime:        m.EndTime,
		TotalAmount:    m.TotalAmount,
		TotalWithdrawn: m.TotalWithdrawn,
	}
}

func NewVestingScheduleBucket() orm.ModelBucket {
	b := orm.NewModelBucket("vsched", &VestingSchedule{},
		orm.WithIndex("beneficiary", idxBeneficiary, false),
	)
	return migration.NewModelBucket("vesting", b)
}

func toPool(obj orm.Object) (*VestingPool, error) {
	if obj == nil {
		return nil, errors.Wrap(errors.ErrHuman, "Cannot take index of nil")
	}
	p, ok := obj.Value().(*VestingPool)
	if !ok {
		return nil, errors.Wrap(errors.ErrHuman, "Can only take index of VestingPool")
	}
	return p, nil
}

func idxPoolOwner(obj orm.Object) ([]byte, error) {
	p, err := toPool(obj)
	if err != nil {
		return nil, err
	}
	return p.Owner, nil
}

func idxBeneficiary(obj orm.Object) ([]byte, error) {
	if obj == nil {
		return nil, errors.Wrap(errors.ErrHuman, "Cannot take index of nil")
	}
	s, ok := obj.Value().(*VestingSchedule)
	if !ok {
		return nil, errors.Wrap(errors.ErrHuman, "Can only take index of VestingSchedule")
	}
	return s.Beneficiary, nil
}
