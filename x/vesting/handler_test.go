package vesting

import (
	"context"
	"testing"

	weave "github.com/iov-one/weave"
	"github.com/iov-one/weave/app"
	coin "github.com/iov-one/weave/coin"
	"github.com/iov-one/weave/errors"
	"github.com/iov-one/weave/migration"
	"github.com/iov-one/weave/store"
	"github.com/iov-one/weave/weavetest"
	"github.com/iov-one/weave/x/cash"
)

func TestUseCases(t *testing.T) {
	type Request struct {
		Now            weave.UnixTime
		Conditions     []weave.Condition
		Tx             weave.Tx
		BlockHeight    int64
		WantCheckErr   *errors.Error
		WantDeliverErr *errors.Error
	}

	type AccountBalance struct {
		Wallet weave.Address
		Amount coin.Coin
	}

	var (
		ownerCond    = weavetest.NewCondition()
		aliceCond    = weavetest.NewCondition()
		bobCond      = weavetest.NewCondition()
		strangerCond = weavetest.NewCondition()

		now = weave.UnixTime(1572247483)
	)

	createPoolTx := &weavetest.Tx{
		Msg: &CreatePoolMsg{
			Metadata:         &weave.Metadata{Schema: 1},
			OrganizationName: "mycorp",
			Ticker:           "VEST",
		},
	}
	createScheduleTx := &weavetest.Tx{
		Msg: &CreateScheduleMsg{
			Metadata:         &weave.Metadata{Schema: 1},
			OrganizationName: "mycorp",
			Beneficiary:      aliceCond.Address(),
			StartTime:        now,
			CliffTime:        now + 250,
			EndTime:          now + 1000,
			TotalAmount:      1000,
		},
	}
	claimTx := &weavetest.Tx{
		Msg: &ClaimMsg{
			Metadata:         &weave.Metadata{Schema: 1},
			OrganizationName: "mycorp",
			Beneficiary:      aliceCond.Address(),
		},
	}

	cases := map[string]struct {
		Requests  []Request
		Funds     []AccountBalance
		AfterTest func(t *testing.T, db weave.KVStore)
	}{
		"anyone can create a pool, but only once per organization": {
			Requests: []Request{
				{
					Now:            now,
					Tx:             createPoolTx,
					BlockHeight:    100,
					WantCheckErr:   errors.ErrUnauthorized,
					WantDeliverErr: errors.ErrUnauthorized,
				},
				{
					Now:            now + 1,
					Conditions:     []weave.Condition{ownerCond},
					Tx:             createPoolTx,
					BlockHeight:    101,
					WantCheckErr:   nil,
					WantDeliverErr: nil,
				},
				{
					Now:            now + 2,
					Conditions:     []weave.Condition{aliceCond},
					Tx:             createPoolTx,
					BlockHeight:    102,
					WantCheckErr:   errors.ErrDuplicate,
					WantDeliverErr: errors.ErrDuplicate,
				},
			},
			AfterTest: func(t *testing.T, db weave.KVStore) {
				var pool VestingPool
				if err := NewVestingPoolBucket().One(db, poolKey("mycorp"), &pool); err != nil {
					t.Fatalf("cannot get pool: %s", err)
				}
				if !pool.Owner.Equals(ownerCond.Address()) {
					t.Fatalf("unexpected pool owner: %s", pool.Owner)
				}
				if !pool.Treasury.Equals(TreasuryAccount("mycorp")) {
					t.Fatalf("unexpected pool treasury: %s", pool.Treasury)
				}
			},
		},
		"only the pool owner can register a schedule": {
			Requests: []Request{
				{
					Now:            now,
					Conditions:     []weave.Condition{ownerCond},
					Tx:             createPoolTx,
					BlockHeight:    100,
					WantCheckErr:   nil,
					WantDeliverErr: nil,
				},
				{
					Now:            now + 1,
					Conditions:     []weave.Condition{aliceCond},
					Tx:             createScheduleTx,
					BlockHeight:    101,
					WantCheckErr:   errors.ErrUnauthorized,
					WantDeliverErr: errors.ErrUnauthorized,
				},
				{
					Now:            now + 2,
					Conditions:     []weave.Condition{ownerCond},
					Tx:             createScheduleTx,
					BlockHeight:    102,
					WantCheckErr:   nil,
					WantDeliverErr: nil,
				},
			},
			AfterTest: func(t *testing.T, db weave.KVStore) {
				var s VestingSchedule
				key := scheduleKey(poolKey("mycorp"), aliceCond.Address())
				if err := NewVestingScheduleBucket().One(db, key, &s); err != nil {
					t.Fatalf("cannot get schedule: %s", err)
				}
				if s.TotalWithdrawn != 0 {
					t.Fatalf("fresh schedule must have no withdrawals: %d", s.TotalWithdrawn)
				}
			},
		},
		"schedule requires an existing pool": {
			Requests: []Request{
				{
					Now:            now,
					Conditions:     []weave.Condition{ownerCond},
					Tx:             createScheduleTx,
					BlockHeight:    100,
					WantCheckErr:   errors.ErrNotFound,
					WantDeliverErr: errors.ErrNotFound,
				},
			},
		},
		"a beneficiary gets only one schedule per pool": {
			Requests: []Request{
				{
					Now:            now,
					Conditions:     []weave.Condition{ownerCond},
					Tx:             createPoolTx,
					BlockHeight:    100,
					WantCheckErr:   nil,
					WantDeliverErr: nil,
				},
				{
					Now:            now + 1,
					Conditions:     []weave.Condition{ownerCond},
					Tx:             createScheduleTx,
					BlockHeight:    101,
					WantCheckErr:   nil,
					WantDeliverErr: nil,
				},
				{
					Now:            now + 2,
					Conditions:     []weave.Condition{ownerCond},
					Tx:             createScheduleTx,
					BlockHeight:    102,
					WantCheckErr:   errors.ErrDuplicate,
					WantDeliverErr: errors.ErrDuplicate,
				},
				{
					Now:        now + 3,
					Conditions: []weave.Condition{ownerCond},
					Tx: &weavetest.Tx{
						Msg: &CreateScheduleMsg{
							Metadata:         &weave.Metadata{Schema: 1},
							OrganizationName: "mycorp",
							Beneficiary:      bobCond.Address(),
							StartTime:        now,
							CliffTime:        now + 250,
							EndTime:          now + 1000,
							TotalAmount:      500,
						},
					},
					BlockHeight:    103,
					WantCheckErr:   nil,
					WantDeliverErr: nil,
				},
			},
		},
		"claiming without a schedule fails": {
			Requests: []Request{
				{
					Now:            now,
					Conditions:     []weave.Condition{ownerCond},
					Tx:             createPoolTx,
					BlockHeight:    100,
					WantCheckErr:   nil,
					WantDeliverErr: nil,
				},
				{
					Now:            now + 1,
					Conditions:     []weave.Condition{aliceCond},
					Tx:             claimTx,
					BlockHeight:    101,
					WantCheckErr:   errors.ErrNotFound,
					WantDeliverErr: errors.ErrNotFound,
				},
			},
		},
		"only the beneficiary can claim": {
			Funds: []AccountBalance{
				{Wallet: TreasuryAccount("mycorp"), Amount: coin.NewCoin(1000, 0, "VEST")},
			},
			Requests: []Request{
				{
					Now:            now,
					Conditions:     []weave.Condition{ownerCond},
					Tx:             createPoolTx,
					BlockHeight:    100,
					WantCheckErr:   nil,
					WantDeliverErr: nil,
				},
				{
					Now:            now + 1,
					Conditions:     []weave.Condition{ownerCond},
					Tx:             createScheduleTx,
					BlockHeight:    101,
					WantCheckErr:   nil,
					WantDeliverErr: nil,
				},
				{
					Now:            now + 500,
					Conditions:     []weave.Condition{strangerCond},
					Tx:             claimTx,
					BlockHeight:    102,
					WantCheckErr:   errors.ErrUnauthorized,
					WantDeliverErr: errors.ErrUnauthorized,
				},
			},
			AfterTest: func(t *testing.T, db weave.KVStore) {
				assertFunds(t, db, TreasuryAccount("mycorp"), coin.NewCoin(1000, 0, "VEST"))
			},
		},
		"claiming before the cliff fails": {
			Funds: []AccountBalance{
				{Wallet: TreasuryAccount("mycorp"), Amount: coin.NewCoin(1000, 0, "VEST")},
			},
			Requests: []Request{
				{
					Now:            now,
					Conditions:     []weave.Condition{ownerCond},
					Tx:             createPoolTx,
					BlockHeight:    100,
					WantCheckErr:   nil,
					WantDeliverErr: nil,
				},
				{
					Now:            now + 1,
					Conditions:     []weave.Condition{ownerCond},
					Tx:             createScheduleTx,
					BlockHeight:    101,
					WantCheckErr:   nil,
					WantDeliverErr: nil,
				},
				{
					Now:            now + 249,
					Conditions:     []weave.Condition{aliceCond},
					Tx:             claimTx,
					BlockHeight:    102,
					WantCheckErr:   ErrClaimNotAvailable,
					WantDeliverErr: ErrClaimNotAvailable,
				},
			},
			AfterTest: func(t *testing.T, db weave.KVStore) {
				assertFunds(t, db, TreasuryAccount("mycorp"), coin.NewCoin(1000, 0, "VEST"))
			},
		},
		"repeated claims pay out only the newly vested delta": {
			Funds: []AccountBalance{
				{Wallet: TreasuryAccount("mycorp"), Amount: coin.NewCoin(1000, 0, "VEST")},
			},
			Requests: []Request{
				{
					Now:            now,
					Conditions:     []weave.Condition{ownerCond},
					Tx:             createPoolTx,
					BlockHeight:    100,
					WantCheckErr:   nil,
					WantDeliverErr: nil,
				},
				{
					Now:            now + 1,
					Conditions:     []weave.Condition{ownerCond},
					Tx:             createScheduleTx,
					BlockHeight:    101,
					WantCheckErr:   nil,
					WantDeliverErr: nil,
				},
				// Halfway through the schedule half of the tokens
				// are vested.
				{
					Now:            now + 500,
					Conditions:     []weave.Condition{aliceCond},
					Tx:             claimTx,
					BlockHeight:    102,
					WantCheckErr:   nil,
					WantDeliverErr: nil,
				},
				// Claiming again within the same second moves no
				// funds.
				{
					Now:            now + 500,
					Conditions:     []weave.Condition{aliceCond},
					Tx:             claimTx,
					BlockHeight:    103,
					WantCheckErr:   ErrNothingToClaim,
					WantDeliverErr: ErrNothingToClaim,
				},
				// Past the end everything left is paid out.
				{
					Now:            now + 9999,
					Conditions:     []weave.Condition{aliceCond},
					Tx:             claimTx,
					BlockHeight:    104,
					WantCheckErr:   nil,
					WantDeliverErr: nil,
				},
				{
					Now:            now + 10000,
					Conditions:     []weave.Condition{aliceCond},
					Tx:             claimTx,
					BlockHeight:    105,
					WantCheckErr:   ErrNothingToClaim,
					WantDeliverErr: ErrNothingToClaim,
				},
			},
			AfterTest: func(t *testing.T, db weave.KVStore) {
				assertFunds(t, db, aliceCond.Address(), coin.NewCoin(1000, 0, "VEST"))

				var s VestingSchedule
				key := scheduleKey(poolKey("mycorp"), aliceCond.Address())
				if err := NewVestingScheduleBucket().One(db, key, &s); err != nil {
					t.Fatalf("cannot get schedule: %s", err)
				}
				if s.TotalWithdrawn != s.TotalAmount {
					t.Fatalf("schedule must be fully withdrawn: %d", s.TotalWithdrawn)
				}
			},
		},
		"claim fails when the treasury cannot cover it": {
			Funds: []AccountBalance{
				{Wallet: TreasuryAccount("mycorp"), Amount: coin.NewCoin(3, 0, "VEST")},
			},
			Requests: []Request{
				{
					Now:            now,
					Conditions:     []weave.Condition{ownerCond},
					Tx:             createPoolTx,
					BlockHeight:    100,
					WantCheckErr:   nil,
					WantDeliverErr: nil,
				},
				{
					Now:            now + 1,
					Conditions:     []weave.Condition{ownerCond},
					Tx:             createScheduleTx,
					BlockHeight:    101,
					WantCheckErr:   nil,
					WantDeliverErr: nil,
				},
				{
					// Funds only move during deliver, so check
					// cannot see the underfunded treasury.
					Now:            now + 500,
					Conditions:     []weave.Condition{aliceCond},
					Tx:             claimTx,
					BlockHeight:    102,
					WantCheckErr:   nil,
					WantDeliverErr: errors.ErrAmount,
				},
			},
			AfterTest: func(t *testing.T, db weave.KVStore) {
				// A failed claim must not move any funds or update
				// the withdrawn counter.
				assertFunds(t, db, TreasuryAccount("mycorp"), coin.NewCoin(3, 0, "VEST"))

				var s VestingSchedule
				key := scheduleKey(poolKey("mycorp"), aliceCond.Address())
				if err := NewVestingScheduleBucket().One(db, key, &s); err != nil {
					t.Fatalf("cannot get schedule: %s", err)
				}
				if s.TotalWithdrawn != 0 {
					t.Fatalf("failed claim must not be recorded: %d", s.TotalWithdrawn)
				}
			},
		},
		"treasury can be funded with a regular send": {
			Funds: []AccountBalance{
				{Wallet: bobCond.Address(), Amount: coin.NewCoin(100, 0, "VEST")},
			},
			Requests: []Request{
				{
					Now:            now,
					Conditions:     []weave.Condition{ownerCond},
					Tx:             createPoolTx,
					BlockHeight:    100,
					WantCheckErr:   nil,
					WantDeliverErr: nil,
				},
				{
					Now:        now + 1,
					Conditions: []weave.Condition{bobCond},
					Tx: &weavetest.Tx{
						Msg: &cash.SendMsg{
							Metadata:    &weave.Metadata{Schema: 1},
							Source:      bobCond.Address(),
							Destination: TreasuryAccount("mycorp"),
							Amount:      coin.NewCoinp(40, 0, "VEST"),
						},
					},
					BlockHeight:    101,
					WantCheckErr:   nil,
					WantDeliverErr: nil,
				},
			},
			AfterTest: func(t *testing.T, db weave.KVStore) {
				assertFunds(t, db, TreasuryAccount("mycorp"), coin.NewCoin(40, 0, "VEST"))
				assertFunds(t, db, bobCond.Address(), coin.NewCoin(60, 0, "VEST"))
			},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			db := store.MemStore()
			migration.MustInitPkg(db, "vesting", "cash")

			rt := app.NewRouter()
			auth := &weavetest.CtxAuth{Key: "auth"}
			ctrl := cash.NewController(cash.NewBucket())
			RegisterRoutes(rt, auth, ctrl)

			// Required for funding the treasury with a send request.
			cash.RegisterRoutes(rt, auth, ctrl)

			for _, b := range tc.Funds {
				if err := ctrl.CoinMint(db, b.Wallet, b.Amount); err != nil {
					t.Fatalf("cannot mint coins for %q: %s", b.Wallet, err)
				}
			}

			for i, req := range tc.Requests {
				ctx := weave.WithHeight(context.Background(), req.BlockHeight)
				ctx = weave.WithChainID(ctx, "testchain-123")
				ctx = auth.SetConditions(ctx, req.Conditions...)
				ctx = weave.WithBlockTime(ctx, req.Now.Time())

				cache := db.CacheWrap()
				if _, err := rt.Check(ctx, cache, req.Tx); !req.WantCheckErr.Is(err) {
					t.Fatalf("unexpected %d check error: want %q, got %+v", i, req.WantCheckErr, err)
				}
				cache.Discard()
				if _, err := rt.Deliver(ctx, db, req.Tx); !req.WantDeliverErr.Is(err) {
					t.Fatalf("unexpected %d deliver error: want %q, got %+v", i, req.WantDeliverErr, err)
				}
			}

			if tc.AfterTest != nil {
				tc.AfterTest(t, db)
			}
		})
	}
}

func assertFunds(t testing.TB, db weave.KVStore, wallet weave.Address, funds coin.Coin) {
	t.Helper()

	ctrl := cash.NewController(cash.NewBucket())
	coins, err := ctrl.Balance(db, wallet)
	if err != nil {
		t.Fatalf("balance: %s", err)
	}
	if len(coins) != 1 {
		t.Fatalf("want %q funds, found %d coins: %q", funds, len(coins), coins)
	}
	if !coins[0].Equals(funds) {
		t.Fatalf("unexpected funds found: %q", coins[0])
	}
}
