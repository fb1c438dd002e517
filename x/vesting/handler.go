package vesting

import (
	"github.com/iov-one/weave"
	"github.com/iov-one/weave/coin"
	"github.com/iov-one/weave/errors"
	"github.com/iov-one/weave/migration"
	"github.com/iov-one/weave/orm"
	"github.com/iov-one/weave/x"
	"github.com/iov-one/weave/x/cash"
)

const (
	createPoolCost     = 0
	createScheduleCost = 0
	claimCost          = 0
)

func RegisterQuery(qr weave.QueryRouter) {
	NewVestingPoolBucket().Register("vestingpools", qr)
	NewVestingScheduleBucket().Register("vestingschedules", qr)
}

func RegisterRoutes(r weave.Registry, auth x.Authenticator, cashctrl cash.Controller) {
	r = migration.SchemaMigratingRegistry("vesting", r)

	pools := NewVestingPoolBucket()
	schedules := NewVestingScheduleBucket()

	r.Handle(&CreatePoolMsg{}, &createPoolHandler{
		auth:  auth,
		pools: pools,
	})
	r.Handle(&CreateScheduleMsg{}, &createScheduleHandler{
		auth:      auth,
		pools:     pools,
		schedules: schedules,
	})
	r.Handle(&ClaimMsg{}, &claimHandler{
		auth:      auth,
		pools:     pools,
		schedules: schedules,
		cashctrl:  cashctrl,
	})
}

type createPoolHandler struct {
	auth  x.Authenticator
	pools orm.ModelBucket
}

func (h *createPoolHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weave.CheckResult{GasAllocated: createPoolCost}, nil
}

func (h *createPoolHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	msg, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	owner := x.MainSigner(ctx, h.auth).Address()
	pool := VestingPool{
		Metadata:         &weave.Metadata{Schema: 1},
		OrganizationName: msg.OrganizationName,
		Owner:            owner,
		Ticker:           msg.Ticker,
		Treasury:         TreasuryAccount(msg.OrganizationName),
	}
	key := poolKey(msg.OrganizationName)
	if _, err := h.pools.Put(db, key, &pool); err != nil {
		return nil, errors.Wrap(err, "store pool")
	}
	return &weave.DeliverResult{Data: key}, nil
}

func (h *createPoolHandler) validate(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*CreatePoolMsg, error) {
	var msg CreatePoolMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if x.MainSigner(ctx, h.auth) == nil {
		return nil, errors.Wrap(errors.ErrUnauthorized, "no signer")
	}
	switch err := h.pools.Has(db, poolKey(msg.OrganizationName)); {
	case err == nil:
		return nil, errors.Wrapf(errors.ErrDuplicate, "pool %q already exists", msg.OrganizationName)
	case errors.ErrNotFound.Is(err):
		// All good. Organization name is not taken yet.
	default:
		return nil, errors.Wrap(err, "cannot check if pool is unique")
	}
	return &msg, nil
}

type createScheduleHandler struct {
	auth      x.Authenticator
	pools     orm.ModelBucket
	schedules orm.ModelBucket
}

func (h *createScheduleHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	if _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weave.CheckResult{GasAllocated: createScheduleCost}, nil
}

func (h *createScheduleHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	msg, _, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	schedule := VestingSchedule{
		Metadata:       &weave.Metadata{Schema: 1},
		Beneficiary:    msg.Beneficiary,
		Pool:           poolKey(msg.OrganizationName),
		StartTime:      msg.StartTime,
		CliffTime:      msg.CliffTime,
		EndTime:        msg.EndTime,
		TotalAmount:    msg.TotalAmount,
		TotalWithdrawn: 0,
	}
	key := scheduleKey(schedule.Pool, msg.Beneficiary)
	if _, err := h.schedules.Put(db, key, &schedule); err != nil {
		return nil, errors.Wrap(err, "store schedule")
	}
	return &weave.DeliverResult{Data: key}, nil
}

func (h *createScheduleHandler) validate(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*CreateScheduleMsg, *VestingPool, error) {
	var msg CreateScheduleMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "load msg")
	}
	var pool VestingPool
	if err := h.pools.One(db, poolKey(msg.OrganizationName), &pool); err != nil {
		return nil, nil, errors.Wrap(err, "get pool")
	}
	if !h.auth.HasAddress(ctx, pool.Owner) {
		return nil, nil, errors.Wrap(errors.ErrUnauthorized, "pool owner signature missing")
	}
	switch err := h.schedules.Has(db, scheduleKey(poolKey(msg.OrganizationName), msg.Beneficiary)); {
	case err == nil:
		return nil, nil, errors.Wrapf(errors.ErrDuplicate,
			"beneficiary %s already has a schedule in pool %q", msg.Beneficiary, msg.OrganizationName)
	case errors.ErrNotFound.Is(err):
		// All good. First schedule for that beneficiary.
	default:
		return nil, nil, errors.Wrap(err, "cannot check if schedule is unique")
	}
	return &msg, &pool, nil
}

type claimHandler struct {
	auth      x.Authenticator
	pools     orm.ModelBucket
	schedules orm.ModelBucket
	cashctrl  cash.Controller
}

func (h *claimHandler) Check(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.CheckResult, error) {
	if _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &weave.CheckResult{GasAllocated: claimCost}, nil
}

func (h *claimHandler) Deliver(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*weave.DeliverResult, error) {
	pool, schedule, claimable, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	payout := coin.Coin{Ticker: pool.Ticker, Whole: claimable}
	if err := cash.MoveCoins(db, h.cashctrl, pool.Treasury, schedule.Beneficiary, []*coin.Coin{&payout}); err != nil {
		return nil, errors.Wrap(err, "claim funds")
	}
	schedule.TotalWithdrawn += claimable
	key := scheduleKey(schedule.Pool, schedule.Beneficiary)
	if _, err := h.schedules.Put(db, key, schedule); err != nil {
		return nil, errors.Wrap(err, "store schedule")
	}
	return &weave.DeliverResult{Data: key}, nil
}

// validate runs every claim precondition, including the time-dependent
// ones, so that check and deliver reject a claim the same way. It
// returns the claimable amount together with the entities involved.
func (h *claimHandler) validate(ctx weave.Context, db weave.KVStore, tx weave.Tx) (*VestingPool, *VestingSchedule, int64, error) {
	var msg ClaimMsg
	if err := weave.LoadMsg(tx, &msg); err != nil {
		return nil, nil, 0, errors.Wrap(err, "load msg")
	}
	var pool VestingPool
	if err := h.pools.One(db, poolKey(msg.OrganizationName), &pool); err != nil {
		return nil, nil, 0, errors.Wrap(err, "get pool")
	}
	var schedule VestingSchedule
	if err := h.schedules.One(db, scheduleKey(poolKey(msg.OrganizationName), msg.Beneficiary), &schedule); err != nil {
		return nil, nil, 0, errors.Wrap(err, "get schedule")
	}
	if !h.auth.HasAddress(ctx, schedule.Beneficiary) {
		return nil, nil, 0, errors.Wrap(errors.ErrUnauthorized, "beneficiary signature missing")
	}
	// Stored state is bound together by derived keys and addresses. If
	// any of those relations is broken the claim must not touch funds.
	if !schedule.Beneficiary.Equals(msg.Beneficiary) {
		return nil, nil, 0, errors.Wrap(ErrAccountMismatch, "schedule beneficiary")
	}
	if string(schedule.Pool) != string(poolKey(msg.OrganizationName)) {
		return nil, nil, 0, errors.Wrap(ErrAccountMismatch, "schedule pool")
	}
	if !pool.Treasury.Equals(TreasuryAccount(pool.OrganizationName)) {
		return nil, nil, 0, errors.Wrap(ErrAccountMismatch, "pool treasury")
	}
	now, err := weave.BlockTime(ctx)
	if err != nil {
		return nil, nil, 0, errors.Wrap(err, "block time")
	}
	if now.Before(schedule.CliffTime.Time()) {
		return nil, nil, 0, errors.Wrapf(ErrClaimNotAvailable, "cliff at %s", schedule.CliffTime)
	}
	vested, err := VestedAmount(&schedule, now)
	if err != nil {
		return nil, nil, 0, errors.Wrap(err, "vested amount")
	}
	claimable := vested - schedule.TotalWithdrawn
	if claimable <= 0 {
		return nil, nil, 0, errors.Wrap(ErrNothingToClaim, "all vested tokens are withdrawn")
	}
	return &pool, &schedule, claimable, nil
}
