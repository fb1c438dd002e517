package app_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/iov-one/weave"
	weaveApp "github.com/iov-one/weave/app"
	"github.com/iov-one/weave/coin"
	"github.com/iov-one/weave/commands/server"
	"github.com/iov-one/weave/crypto"
	"github.com/iov-one/weave/weavetest/assert"
	"github.com/iov-one/weave/x/cash"
	"github.com/iov-one/weave/x/sigs"
	abci "github.com/tendermint/tendermint/abci/types"
	"github.com/tendermint/tendermint/libs/log"

	app "github.com/brimigs/token-vesting/app"
	"github.com/brimigs/token-vesting/x/vesting"
)

const appState = `
  {
    "cash": [
      {
        "address": "%s",
        "coins": [
          {"whole": 50000, "ticker": "IOV"}
        ]
      }
    ],
    "conf": {
      "cash": {
        "collector_address": "3b11c732b8fc1f09beb34031302fe2ab347c5c14",
        "minimal_fee": {"whole": 0}
      },
      "migration": {
        "admin": "%s"
      }
    },
    "initialize_schema": [
      {"pkg": "cash", "ver": 1},
      {"pkg": "sigs", "ver": 1},
      {"pkg": "utils", "ver": 1},
      {"pkg": "validators", "ver": 1},
      {"pkg": "vesting", "ver": 1}
    ],
    "vesting": [
      {
        "organization_name": "mycorp",
        "owner": "%s",
        "ticker": "VEST",
        "funds": 1000,
        "schedules": [
          {
            "beneficiary": "%s",
            "start_time": %d,
            "cliff_time": %d,
            "end_time": %d,
            "total_amount": 1000
          }
        ]
      }
    ]
  }
`

type Signer struct {
	pk    *crypto.PrivateKey
	nonce int64
}

func TestApp(t *testing.T) {
	pk := crypto.GenPrivKeyEd25519()
	addr := pk.PublicKey().Address()
	chainID := "chain-vesting-test"

	start := time.Now().UTC().Truncate(time.Second)
	cliff := start.Add(250 * time.Second)
	end := start.Add(1000 * time.Second)

	myApp, err := app.GenerateApp(&server.Options{
		MinFee: coin.Coin{},
		Home:   "",
		Logger: log.NewNopLogger(),
		Debug:  true,
	})
	assert.Nil(t, err)

	genesis := fmt.Sprintf(appState,
		addr, addr, addr, addr,
		start.Unix(), cliff.Unix(), end.Unix())
	myApp.InitChain(abci.RequestInitChain{
		AppStateBytes: []byte(genesis),
		ChainId:       chainID,
	})
	commitBlock(t, myApp, 1, start)

	treasury := vesting.TreasuryAccount("mycorp")

	// The pool and its treasury funds must come out of the genesis.
	queryAndCheckPool(t, myApp, []byte("mycorp"), vesting.VestingPool{
		Metadata:         &weave.Metadata{Schema: 1},
		OrganizationName: "mycorp",
		Owner:            addr,
		Ticker:           "VEST",
		Treasury:         treasury,
	})
	queryAndCheckWallet(t, myApp, treasury, coin.Coins{
		{Ticker: "VEST", Whole: 1000},
	})

	// Halfway through the vesting period half of the grant is claimable.
	claim := &app.Tx{
		Sum: &app.Tx_ClaimMsg{ClaimMsg: &vesting.ClaimMsg{
			Metadata:         &weave.Metadata{Schema: 1},
			OrganizationName: "mycorp",
			Beneficiary:      addr,
		}},
	}
	signAndCommit(t, myApp, claim, []Signer{{pk, 0}}, chainID, 2, start.Add(500*time.Second))

	queryAndCheckWallet(t, myApp, addr, coin.Coins{
		{Ticker: "IOV", Whole: 50000},
		{Ticker: "VEST", Whole: 500},
	})
	queryAndCheckWallet(t, myApp, treasury, coin.Coins{
		{Ticker: "VEST", Whole: 500},
	})

	// After the end of the schedule the remainder can be collected.
	claim = &app.Tx{
		Sum: &app.Tx_ClaimMsg{ClaimMsg: &vesting.ClaimMsg{
			Metadata:         &weave.Metadata{Schema: 1},
			OrganizationName: "mycorp",
			Beneficiary:      addr,
		}},
	}
	signAndCommit(t, myApp, claim, []Signer{{pk, 1}}, chainID, 3, end.Add(time.Minute))

	queryAndCheckWallet(t, myApp, addr, coin.Coins{
		{Ticker: "IOV", Whole: 50000},
		{Ticker: "VEST", Whole: 1000},
	})
	scheduleKey := append([]byte("mycorp"), addr...)
	queryAndCheckSchedule(t, myApp, scheduleKey, vesting.VestingSchedule{
		Metadata:       &weave.Metadata{Schema: 1},
		Beneficiary:    addr,
		Pool:           []byte("mycorp"),
		StartTime:      weave.AsUnixTime(start),
		CliffTime:      weave.AsUnixTime(cliff),
		EndTime:        weave.AsUnixTime(end),
		TotalAmount:    1000,
		TotalWithdrawn: 1000,
	})
}

// commitBlock commits an empty block at given height so that following
// queries run against an existing app hash.
func commitBlock(t *testing.T, baseApp abci.Application, height int64, blockTime time.Time) {
	t.Helper()

	header := abci.Header{Height: height, Time: blockTime}
	baseApp.BeginBlock(abci.RequestBeginBlock{Header: header})
	baseApp.EndBlock(abci.RequestEndBlock{})
	cres := baseApp.Commit()
	assert.Equal(t, true, len(cres.Data) != 0)
}

// signAndCommit signs tx with signatures from signers and submits to the chain
// asserts and fails the test in case of errors during the process
func signAndCommit(
	t *testing.T,
	baseApp abci.Application,
	tx *app.Tx,
	signers []Signer,
	chainID string,
	height int64,
	blockTime time.Time,
) abci.ResponseDeliverTx {
	t.Helper()

	for _, signer := range signers {
		sig, err := sigs.SignTx(signer.pk, tx, chainID, signer.nonce)
		assert.Nil(t, err)
		tx.Signatures = append(tx.Signatures, sig)
	}

	txBytes, err := tx.Marshal()
	assert.Nil(t, err)
	assert.Equal(t, true, len(txBytes) != 0)

	header := abci.Header{Height: height, Time: blockTime}
	baseApp.BeginBlock(abci.RequestBeginBlock{Header: header})

	chres := baseApp.CheckTx(txBytes)
	assert.Equal(t, uint32(0), chres.Code)
	dres := baseApp.DeliverTx(txBytes)
	assert.Equal(t, uint32(0), dres.Code)

	baseApp.EndBlock(abci.RequestEndBlock{})
	cres := baseApp.Commit()
	assert.Equal(t, true, len(cres.Data) != 0)
	return dres
}

// queryAndCheckWallet queries the wallet from the chain and check it is the one expected
func queryAndCheckWallet(t *testing.T, baseApp abci.Application, addr weave.Address, expected coin.Coins) {
	t.Helper()

	res := baseApp.Query(abci.RequestQuery{Path: "/wallets", Data: addr})
	assert.Equal(t, uint32(0), res.Code)
	assert.Equal(t, true, len(res.Value) != 0)

	var actual cash.Set
	err := weaveApp.UnmarshalOneResult(res.Value, &actual)
	assert.Nil(t, err)
	assert.Equal(t, expected, coin.Coins(actual.Coins))
}

func queryAndCheckPool(t *testing.T, baseApp abci.Application, key []byte, expected vesting.VestingPool) {
	t.Helper()

	res := baseApp.Query(abci.RequestQuery{Path: "/vestingpools", Data: key})
	assert.Equal(t, uint32(0), res.Code)
	assert.Equal(t, true, len(res.Value) != 0)

	var actual vesting.VestingPool
	err := weaveApp.UnmarshalOneResult(res.Value, &actual)
	assert.Nil(t, err)
	assert.Equal(t, expected, actual)
}

func queryAndCheckSchedule(t *testing.T, baseApp abci.Application, key []byte, expected vesting.VestingSchedule) {
	t.Helper()

	res := baseApp.Query(abci.RequestQuery{Path: "/vestingschedules", Data: key})
	assert.Equal(t, uint32(0), res.Code)
	assert.Equal(t, true, len(res.Value) != 0)

	var actual vesting.VestingSchedule
	err := weaveApp.UnmarshalOneResult(res.Value, &actual)
	assert.Nil(t, err)
	assert.Equal(t, expected, actual)
}
