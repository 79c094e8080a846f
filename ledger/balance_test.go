// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ledger_test

import (
	"math"
	"testing"

	"github.com/blinklabs-io/certreg/database"
	"github.com/blinklabs-io/certreg/database/types"
	"github.com/blinklabs-io/certreg/identity"
	"github.com/blinklabs-io/certreg/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = identity.Identity{0x01}
	bob   = identity.Identity{0x02}
)

func newTestDB(t *testing.T) *database.Database {
	t.Helper()
	db, err := database.New(&database.Config{})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}

func balanceOf(t *testing.T, db *database.Database, id identity.Identity) uint64 {
	t.Helper()
	var bal uint64
	require.NoError(t, db.View(func(txn *database.Txn) error {
		var err error
		bal, err = ledger.Balance(txn, id)
		return err
	}))
	return bal
}

func TestBalanceUnknownAccount(t *testing.T) {
	db := newTestDB(t)
	assert.Zero(t, balanceOf(t, db, alice))
}

func TestCredit(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Update(func(txn *database.Txn) error {
		return ledger.Credit(txn, alice, 100)
	}))
	require.NoError(t, db.Update(func(txn *database.Txn) error {
		return ledger.Credit(txn, alice, 23)
	}))
	assert.Equal(t, uint64(123), balanceOf(t, db, alice))
}

func TestCreditOverflow(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Update(func(txn *database.Txn) error {
		return ledger.Credit(txn, alice, math.MaxUint64)
	}))
	err := db.Update(func(txn *database.Txn) error {
		return ledger.Credit(txn, alice, 1)
	})
	require.ErrorIs(t, err, ledger.ErrBalanceOverflow)
	assert.Equal(t, uint64(math.MaxUint64), balanceOf(t, db, alice))
}

func TestTransfer(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Update(func(txn *database.Txn) error {
		if err := ledger.Credit(txn, alice, 10); err != nil {
			return err
		}
		return ledger.Transfer(txn, alice, bob, 4)
	}))
	assert.Equal(t, uint64(6), balanceOf(t, db, alice))
	assert.Equal(t, uint64(4), balanceOf(t, db, bob))
}

func TestTransferInsufficientFunds(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Update(func(txn *database.Txn) error {
		return ledger.Credit(txn, alice, 3)
	}))
	err := db.Update(func(txn *database.Txn) error {
		return ledger.Transfer(txn, alice, bob, 4)
	})
	require.ErrorIs(t, err, ledger.ErrInsufficientFunds)
	assert.Equal(t, uint64(3), balanceOf(t, db, alice))
	assert.Zero(t, balanceOf(t, db, bob))
}

func TestTransferZeroAmount(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Update(func(txn *database.Txn) error {
		return ledger.Transfer(txn, alice, bob, 0)
	}))
	assert.Zero(t, balanceOf(t, db, alice))
	assert.Zero(t, balanceOf(t, db, bob))
}

func TestTransferToSelf(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Update(func(txn *database.Txn) error {
		if err := ledger.Credit(txn, alice, 5); err != nil {
			return err
		}
		return ledger.Transfer(txn, alice, alice, 5)
	}))
	assert.Equal(t, uint64(5), balanceOf(t, db, alice))
	err := db.Update(func(txn *database.Txn) error {
		return ledger.Transfer(txn, alice, alice, 6)
	})
	require.ErrorIs(t, err, ledger.ErrInsufficientFunds)
}

func TestTransferOverflowLeavesSource(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Update(func(txn *database.Txn) error {
		if err := ledger.Credit(txn, alice, 1); err != nil {
			return err
		}
		return ledger.Credit(txn, bob, math.MaxUint64)
	}))
	err := db.Update(func(txn *database.Txn) error {
		return ledger.Transfer(txn, alice, bob, 1)
	})
	require.ErrorIs(t, err, ledger.ErrBalanceOverflow)
	assert.Equal(t, uint64(1), balanceOf(t, db, alice))
}

func TestRollbackDiscardsMovement(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Update(func(txn *database.Txn) error {
		return ledger.Credit(txn, alice, 10)
	}))
	err := db.Update(func(txn *database.Txn) error {
		if err := ledger.Transfer(txn, alice, bob, 10); err != nil {
			return err
		}
		return ledger.ErrInsufficientFunds
	})
	require.Error(t, err)
	assert.Equal(t, uint64(10), balanceOf(t, db, alice))
	assert.Zero(t, balanceOf(t, db, bob))
}

func TestNilTxn(t *testing.T) {
	_, err := ledger.Balance(nil, alice)
	require.ErrorIs(t, err, types.ErrNilTxn)
}
