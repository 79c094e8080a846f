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

// Package ledger implements the native currency accounts used to pay
// registry fees. Balances are plain records at deterministic addresses and
// every mutation happens inside the caller's database transaction.
package ledger

import (
	"errors"
	"fmt"
	"math"

	"github.com/blinklabs-io/certreg/address"
	"github.com/blinklabs-io/certreg/database"
	"github.com/blinklabs-io/certreg/database/types"
	"github.com/blinklabs-io/certreg/identity"
	"github.com/blinklabs-io/gouroboros/cbor"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrBalanceOverflow   = errors.New("balance overflow")
)

// Account is the stored balance record for a single identity
type Account struct {
	cbor.StructAsArray
	Owner  identity.Identity
	Amount uint64
}

// Balance returns the balance held by id, or 0 when no account exists yet
func Balance(txn *database.Txn, id identity.Identity) (uint64, error) {
	acct, _, err := loadAccount(txn, id)
	if err != nil {
		return 0, err
	}
	return acct.Amount, nil
}

// Credit adds amount to the account of to, creating it if needed
func Credit(txn *database.Txn, to identity.Identity, amount uint64) error {
	if amount == 0 {
		return nil
	}
	acct, exists, err := loadAccount(txn, to)
	if err != nil {
		return err
	}
	if acct.Amount > math.MaxUint64-amount {
		return fmt.Errorf(
			"%w: %s holds %d, credit %d",
			ErrBalanceOverflow,
			to.String(),
			acct.Amount,
			amount,
		)
	}
	acct.Amount += amount
	return storeAccount(txn, acct, exists)
}

// Transfer moves amount from one account to another. Nothing is written
// when the source account cannot cover the amount.
func Transfer(
	txn *database.Txn,
	from identity.Identity,
	to identity.Identity,
	amount uint64,
) error {
	if amount == 0 {
		return nil
	}
	src, srcExists, err := loadAccount(txn, from)
	if err != nil {
		return err
	}
	if src.Amount < amount {
		return fmt.Errorf(
			"%w: %s holds %d, needs %d",
			ErrInsufficientFunds,
			from.String(),
			src.Amount,
			amount,
		)
	}
	if from == to {
		return nil
	}
	dst, dstExists, err := loadAccount(txn, to)
	if err != nil {
		return err
	}
	if dst.Amount > math.MaxUint64-amount {
		return fmt.Errorf(
			"%w: %s holds %d, credit %d",
			ErrBalanceOverflow,
			to.String(),
			dst.Amount,
			amount,
		)
	}
	src.Amount -= amount
	dst.Amount += amount
	if err := storeAccount(txn, src, srcExists); err != nil {
		return err
	}
	return storeAccount(txn, dst, dstExists)
}

func loadAccount(
	txn *database.Txn,
	id identity.Identity,
) (*Account, bool, error) {
	if txn == nil {
		return nil, false, types.ErrNilTxn
	}
	acct := &Account{Owner: id}
	err := txn.DB().GetRecord(address.Balance(id), acct, txn)
	if err != nil {
		if errors.Is(err, database.ErrRecordNotFound) {
			return acct, false, nil
		}
		return nil, false, fmt.Errorf("load account %s: %w", id.String(), err)
	}
	return acct, true, nil
}

func storeAccount(txn *database.Txn, acct *Account, exists bool) error {
	addr := address.Balance(acct.Owner)
	if exists {
		return txn.DB().SetRecord(addr, acct, txn)
	}
	return txn.DB().CreateRecord(addr, acct, txn)
}
