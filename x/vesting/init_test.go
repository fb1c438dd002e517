package vesting

import (
	"encoding/json"
	"testing"

	"github.com/iov-one/weave"
	"github.com/iov-one/weave/coin"
	"github.com/iov-one/weave/migration"
	"github.com/iov-one/weave/store"
	"github.com/iov-one/weave/weavetest"
	"github.com/iov-one/weave/weavetest/assert"
	"github.com/iov-one/weave/x/cash"
)

func TestGenesisInitializer(t *testing.T) {
	const genesis = `
	{
		"vesting": [
			{
				"organization_name": "mycorp",
				"owner": "seq:test/owner/1",
				"ticker": "VEST",
				"funds": 1500,
				"schedules": [
					{
						"beneficiary": "seq:test/alice/1",
						"start_time": 946684800,
						"cliff_time": 946684900,
						"end_time": 946685800,
						"total_amount": 1000
					},
					{
						"beneficiary": "seq:test/bob/1",
						"start_time": 946684800,
						"cliff_time": 946684800,
						"end_time": 946685800,
						"total_amount": 500
					}
				]
			}
		]
	}
	`

	var opts weave.Options
	if err := json.Unmarshal([]byte(genesis), &opts); err != nil {
		t.Fatalf("cannot unmarshal genesis: %s", err)
	}

	db := store.MemStore()
	migration.MustInitPkg(db, "vesting", "cash")
	ctrl := cash.NewController(cash.NewBucket())
	ini := Initializer{Minter: ctrl}
	if err := ini.FromGenesis(opts, weave.GenesisParams{}, db); err != nil {
		t.Fatalf("cannot load genesis: %s", err)
	}

	var pool VestingPool
	if err := NewVestingPoolBucket().One(db, poolKey("mycorp"), &pool); err != nil {
		t.Fatalf("cannot get pool from the database: %s", err)
	}
	assert.Equal(t, pool.Owner, weave.NewCondition("test", "owner", weavetest.SequenceID(1)).Address())
	assert.Equal(t, pool.Ticker, "VEST")
	assert.Equal(t, pool.Treasury, TreasuryAccount("mycorp"))

	funds, err := ctrl.Balance(db, pool.Treasury)
	if err != nil {
		t.Fatalf("cannot get treasury balance: %s", err)
	}
	assert.Equal(t, len(funds), 1)
	assert.Equal(t, *funds[0], coin.NewCoin(1500, 0, "VEST"))

	alice := weave.NewCondition("test", "alice", weavetest.SequenceID(1)).Address()
	var schedule VestingSchedule
	if err := NewVestingScheduleBucket().One(db, scheduleKey(poolKey("mycorp"), alice), &schedule); err != nil {
		t.Fatalf("cannot get schedule from the database: %s", err)
	}
	assert.Equal(t, schedule.Beneficiary, alice)
	assert.Equal(t, schedule.TotalAmount, int64(1000))
	assert.Equal(t, schedule.TotalWithdrawn, int64(0))

	bob := weave.NewCondition("test", "bob", weavetest.SequenceID(1)).Address()
	if err := NewVestingScheduleBucket().One(db, scheduleKey(poolKey("mycorp"), bob), &schedule); err != nil {
		t.Fatalf("cannot get schedule from the database: %s", err)
	}
	assert.Equal(t, schedule.TotalAmount, int64(500))
}
