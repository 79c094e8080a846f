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

package registry

import (
	"errors"
	"fmt"

	"github.com/blinklabs-io/certreg/address"
	"github.com/blinklabs-io/certreg/database"
	"github.com/blinklabs-io/certreg/database/models"
	"github.com/blinklabs-io/certreg/identity"
	"github.com/blinklabs-io/certreg/ledger"
)

const (
	DefaultListCount = 100
	MaxListCount     = 100
)

// CertificateFilter selects certificates for ListCertificates. Nil and
// empty fields match everything. Page is 1-based.
type CertificateFilter struct {
	Owner      *identity.Identity
	Creator    *identity.Identity
	IssuerName string
	Verified   *bool
	Active     *bool
	Count      int
	Page       int
	Descending bool
}

type CertificateList struct {
	Certificates []Certificate `json:"certificates"`
	Total        int64         `json:"total"`
	Count        int           `json:"count"`
	Page         int           `json:"page"`
}

type TransferCost struct {
	CertificateId     uint64            `json:"certificate_id"`
	PlatformFee       uint64            `json:"platform_fee"`
	PlatformAuthority identity.Identity `json:"platform_authority"`
	Balance           uint64            `json:"balance"`
	Sufficient        bool              `json:"sufficient"`
}

// State returns the registry singleton, or ErrNotInitialized
func (r *Registry) State() (*State, error) {
	var state *State
	err := r.db.View(func(txn *database.Txn) error {
		var err error
		state, err = r.loadState(txn)
		return err
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

func (r *Registry) Certificate(certId uint64) (*Certificate, error) {
	var cert *Certificate
	err := r.db.View(func(txn *database.Txn) error {
		var err error
		cert, err = r.loadCertificate(txn, certId)
		return err
	})
	if err != nil {
		return nil, err
	}
	return cert, nil
}

// ListCertificates returns a page of certificates ordered by id
func (r *Registry) ListCertificates(
	filter CertificateFilter,
) (*CertificateList, error) {
	count := filter.Count
	if count <= 0 || count > MaxListCount {
		count = DefaultListCount
	}
	page := max(filter.Page, 1)
	modelFilter := models.CertificateFilter{
		IssuerName: filter.IssuerName,
		Verified:   filter.Verified,
		Active:     filter.Active,
		Limit:      count,
		Offset:     (page - 1) * count,
		Descending: filter.Descending,
	}
	if filter.Owner != nil {
		modelFilter.Owner = filter.Owner.Bytes()
	}
	if filter.Creator != nil {
		modelFilter.Creator = filter.Creator.Bytes()
	}
	ret := &CertificateList{
		Certificates: []Certificate{},
		Count:        count,
		Page:         page,
	}
	err := r.db.View(func(txn *database.Txn) error {
		rows, total, err := r.db.ListCertificates(modelFilter, txn)
		if err != nil {
			return fmt.Errorf("list certificates: %w", err)
		}
		ret.Total = total
		for _, row := range rows {
			cert, err := r.loadCertificate(txn, row.ID)
			if err != nil {
				return err
			}
			ret.Certificates = append(ret.Certificates, *cert)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}

// Receipts returns the transfer history of a certificate, oldest first
func (r *Registry) Receipts(certId uint64) ([]Receipt, error) {
	var ret []Receipt
	err := r.db.View(func(txn *database.Txn) error {
		var err error
		ret, err = r.loadReceipts(txn, certId)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}

func (r *Registry) loadReceipts(
	txn *database.Txn,
	certId uint64,
) ([]Receipt, error) {
	if _, err := r.loadCertificate(txn, certId); err != nil {
		return nil, err
	}
	rows, err := r.db.GetTransferReceipts(certId, txn)
	if err != nil {
		return nil, fmt.Errorf("list transfer receipts: %w", err)
	}
	ret := make([]Receipt, 0, len(rows))
	for _, row := range rows {
		addr, err := address.FromBytes(row.Address)
		if err != nil {
			return nil, fmt.Errorf("transfer receipt index: %w", err)
		}
		var receipt Receipt
		if err := r.db.GetRecord(addr, &receipt, txn); err != nil {
			return nil, fmt.Errorf(
				"load transfer receipt %d/%d: %w",
				certId,
				row.TransferIndex,
				err,
			)
		}
		ret = append(ret, receipt)
	}
	return ret, nil
}

// Receipt looks up a single transfer receipt by its deterministic address
func (r *Registry) Receipt(
	certId uint64,
	prevOwner identity.Identity,
	transferIndex uint8,
) (*Receipt, error) {
	var receipt Receipt
	addr := address.Transaction(certId, prevOwner, transferIndex)
	if err := r.db.GetRecord(addr, &receipt, nil); err != nil {
		if errors.Is(err, database.ErrRecordNotFound) {
			return nil, ErrReceiptNotFound
		}
		return nil, fmt.Errorf("load transfer receipt: %w", err)
	}
	return &receipt, nil
}

// EstimateTransferCost reports the fee a transfer of the certificate would
// cost the caller right now and whether their balance covers it
func (r *Registry) EstimateTransferCost(
	certId uint64,
	caller identity.Identity,
) (*TransferCost, error) {
	var ret *TransferCost
	err := r.db.View(func(txn *database.Txn) error {
		state, err := r.loadState(txn)
		if err != nil {
			return err
		}
		if _, err := r.loadCertificate(txn, certId); err != nil {
			return err
		}
		balance, err := ledger.Balance(txn, caller)
		if err != nil {
			return err
		}
		ret = &TransferCost{
			CertificateId:     certId,
			PlatformFee:       state.PlatformFee,
			PlatformAuthority: state.PlatformAuthority,
			Balance:           balance,
			Sufficient:        balance >= state.PlatformFee,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}

// Balance returns the native currency balance of an identity
func (r *Registry) Balance(id identity.Identity) (uint64, error) {
	var ret uint64
	err := r.db.View(func(txn *database.Txn) error {
		var err error
		ret, err = ledger.Balance(txn, id)
		return err
	})
	return ret, err
}

// Fund credits an account with native currency. It exists for development
// networks and tests; the registry never calls it itself.
func (r *Registry) Fund(id identity.Identity, amount uint64) (uint64, error) {
	var ret uint64
	err := r.db.Update(func(txn *database.Txn) error {
		if err := ledger.Credit(txn, id, amount); err != nil {
			return err
		}
		var err error
		ret, err = ledger.Balance(txn, id)
		return err
	})
	if err != nil {
		return 0, err
	}
	r.logger.Debug(
		"account funded",
		"account", id.String(),
		"amount", amount,
		"balance", ret,
	)
	return ret, nil
}
