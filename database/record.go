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

package database

import (
	"errors"
	"fmt"

	"github.com/blinklabs-io/certreg/address"
	"github.com/blinklabs-io/certreg/database/types"
	"github.com/blinklabs-io/gouroboros/cbor"
)

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrRecordExists   = errors.New("record already exists")
	ErrReadOnlyTxn    = errors.New("write in read-only transaction")
)

// GetRecord decodes the record stored at addr into dest
func (d *Database) GetRecord(
	addr address.Address,
	dest any,
	txn *Txn,
) error {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	data, err := d.Blob().Get(txn.Blob(), types.RecordBlobKey(addr.Bytes()))
	if err != nil {
		if errors.Is(err, types.ErrBlobKeyNotFound) {
			return ErrRecordNotFound
		}
		return err
	}
	if _, err := cbor.Decode(data, dest); err != nil {
		return fmt.Errorf("decode record %s: %w", addr.String(), err)
	}
	return nil
}

// RecordExists reports whether a record is stored at addr
func (d *Database) RecordExists(addr address.Address, txn *Txn) (bool, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	_, err := d.Blob().Get(txn.Blob(), types.RecordBlobKey(addr.Bytes()))
	if err != nil {
		if errors.Is(err, types.ErrBlobKeyNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// SetRecord overwrites the existing record at addr. It fails with
// ErrRecordNotFound if nothing is stored there.
func (d *Database) SetRecord(addr address.Address, record any, txn *Txn) error {
	if txn == nil || !txn.ReadWrite() {
		return ErrReadOnlyTxn
	}
	exists, err := d.RecordExists(addr, txn)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrRecordNotFound, addr.String())
	}
	return d.putRecord(addr, record, txn)
}

// CreateRecord writes the record at addr, failing with ErrRecordExists if
// the address is already occupied
func (d *Database) CreateRecord(
	addr address.Address,
	record any,
	txn *Txn,
) error {
	if txn == nil || !txn.ReadWrite() {
		return ErrReadOnlyTxn
	}
	exists, err := d.RecordExists(addr, txn)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrRecordExists, addr.String())
	}
	return d.putRecord(addr, record, txn)
}

func (d *Database) putRecord(addr address.Address, record any, txn *Txn) error {
	data, err := cbor.Encode(record)
	if err != nil {
		return fmt.Errorf("encode record %s: %w", addr.String(), err)
	}
	return d.Blob().Set(txn.Blob(), types.RecordBlobKey(addr.Bytes()), data)
}
