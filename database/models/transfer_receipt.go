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

package models

import "github.com/blinklabs-io/certreg/database/types"

// TransferReceipt is the query index row for a transfer receipt
type TransferReceipt struct {
	Address       []byte `gorm:"uniqueIndex;size:32"`
	PreviousOwner []byte `gorm:"index;size:32"`
	NewOwner      []byte `gorm:"index;size:32"`
	ID            uint   `gorm:"primarykey"`
	CertificateID uint64 `gorm:"uniqueIndex:idx_transfer_receipt_cert_idx"`
	Amount        types.Uint64
	Timestamp     types.Uint64
	TransferIndex uint8 `gorm:"uniqueIndex:idx_transfer_receipt_cert_idx"`
	Credited      bool
}

func (TransferReceipt) TableName() string {
	return "transfer_receipt"
}
