package vesting

import (
	"github.com/iov-one/weave"
	"github.com/iov-one/weave/coin"
	"github.com/iov-one/weave/errors"
	"github.com/iov-one/weave/x/cash"
)

// Initializer fulfils the Initializer interface to load data from the genesis
// file.
type Initializer struct {
	Minter cash.CoinMinter
}

var _ weave.Initializer = (*Initializer)(nil)

// FromGenesis will parse initial vesting pools and schedules from genesis and
// save them to the database. Funds declared for a pool are minted directly
// into the pool treasury.
func (i *Initializer) FromGenesis(opts weave.Options, params weave.GenesisParams, db weave.KVStore) error {
	var pools []struct {
		OrganizationName string        `json:"organization_name"`
		Owner            weave.Address `json:"owner"`
		Ticker           string        `json:"ticker"`
		Funds            int64         `json:"funds"`
		Schedules        []struct {
			Beneficiary weave.Address  `json:"beneficiary"`
			StartTime   weave.UnixTime `json:"start_time"`
			CliffTime   weave.UnixTime `json:"cliff_time"`
			EndTime     weave.UnixTime `json:"end_time"`
			TotalAmount int64          `json:"total_amount"`
		} `json:"schedules"`
	}

	if err := opts.ReadOptions("vesting", &pools); err != nil {
		return err
	}

	poolsB := NewVestingPoolBucket()
	schedulesB := NewVestingScheduleBucket()
	for j, p := range pools {
		pool := VestingPool{
			Metadata:         &weave.Metadata{Schema: 1},
			OrganizationName: p.OrganizationName,
			Owner:            p.Owner,
			Ticker:           p.Ticker,
			Treasury:         TreasuryAccount(p.OrganizationName),
		}
		if err := pool.Validate(); err != nil {
			return errors.Wrapf(err, "pool %d is invalid", j)
		}
		key := poolKey(p.OrganizationName)
		if _, err := poolsB.Put(db, key, &pool); err != nil {
			return errors.Wrapf(err, "store pool %d", j)
		}
		if p.Funds > 0 {
			c := coin.Coin{Ticker: p.Ticker, Whole: p.Funds}
			if err := i.Minter.CoinMint(db, pool.Treasury, c); err != nil {
				return errors.Wrapf(err, "mint treasury funds for pool %d", j)
			}
		}
		for k, s := range p.Schedules {
			schedule := VestingSchedule{
				Metadata:    &weave.Metadata{Schema: 1},
				Beneficiary: s.Beneficiary,
				Pool:        key,
				StartTime:   s.StartTime,
				CliffTime:   s.CliffTime,
				EndTime:     s.EndTime,
				TotalAmount: s.TotalAmount,
			}
			if err := schedule.Validate(); err != nil {
				return errors.Wrapf(err, "schedule %d of pool %d is invalid", k, j)
			}
			if _, err := schedulesB.Put(db, scheduleKey(key, s.Beneficiary), &schedule); err != nil {
				return errors.Wrapf(err, "store schedule %d of pool %d", k, j)
			}
		}
	}
	return nil
}
