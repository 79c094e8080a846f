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
	"github.com/blinklabs-io/certreg/database/models"
)

// SetCertificateIndex inserts or replaces the query index row for a certificate
func (d *Database) SetCertificateIndex(
	cert *models.Certificate,
	txn *Txn,
) error {
	if txn == nil || !txn.ReadWrite() {
		return ErrReadOnlyTxn
	}
	return d.Metadata().SetCertificate(cert, txn.Metadata())
}

// ListCertificates queries the certificate index
func (d *Database) ListCertificates(
	filter models.CertificateFilter,
	txn *Txn,
) ([]models.Certificate, int64, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	return d.Metadata().ListCertificates(filter, txn.Metadata())
}

// AddTransferReceiptIndex inserts the query index row for a transfer receipt
func (d *Database) AddTransferReceiptIndex(
	receipt *models.TransferReceipt,
	txn *Txn,
) error {
	if txn == nil || !txn.ReadWrite() {
		return ErrReadOnlyTxn
	}
	return d.Metadata().AddTransferReceipt(receipt, txn.Metadata())
}

// GetTransferReceipts returns the indexed receipts for a certificate in
// transfer order
func (d *Database) GetTransferReceipts(
	certId uint64,
	txn *Txn,
) ([]models.TransferReceipt, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	return d.Metadata().GetTransferReceipts(certId, txn.Metadata())
}
