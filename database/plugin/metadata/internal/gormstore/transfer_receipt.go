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

package gormstore

import (
	"github.com/blinklabs-io/certreg/database/models"
	"github.com/blinklabs-io/certreg/database/types"
)

// AddTransferReceipt inserts the index row for a transfer receipt
func (s *Store) AddTransferReceipt(
	receipt *models.TransferReceipt,
	txn types.Txn,
) error {
	db, err := s.resolveDB(txn)
	if err != nil {
		return err
	}
	return db.Create(receipt).Error
}

// GetTransferReceipts returns the receipts for a certificate in transfer order
func (s *Store) GetTransferReceipts(
	certId uint64,
	txn types.Txn,
) ([]models.TransferReceipt, error) {
	db, err := s.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret []models.TransferReceipt
	result := db.Where("certificate_id = ?", certId).
		Order("transfer_index ASC").
		Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}
