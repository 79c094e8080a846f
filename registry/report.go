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
	"fmt"

	"github.com/blinklabs-io/certreg/database"
	"github.com/blinklabs-io/certreg/identity"
)

// VerificationReport summarizes whether a certificate can be trusted: its
// verification status and whether its transfer receipts form an unbroken
// ownership chain from the creator to the current owner.
type VerificationReport struct {
	CertificateId   uint64            `json:"certificate_id"`
	GeneratedAt     int64             `json:"generated_at"`
	Certificate     Certificate       `json:"certificate"`
	OriginalCreator identity.Identity `json:"original_creator"`
	CurrentOwner    identity.Identity `json:"current_owner"`
	Transfers       []Receipt         `json:"transfers"`
	ChainValid      bool              `json:"chain_valid"`
	Passed          bool              `json:"passed"`
	Issues          []string          `json:"issues"`
}

func (r *Registry) VerificationReport(certId uint64) (*VerificationReport, error) {
	var report *VerificationReport
	err := r.db.View(func(txn *database.Txn) error {
		cert, err := r.loadCertificate(txn, certId)
		if err != nil {
			return err
		}
		receipts, err := r.loadReceipts(txn, certId)
		if err != nil {
			return err
		}
		report = buildReport(cert, receipts)
		return nil
	})
	if err != nil {
		return nil, err
	}
	report.GeneratedAt = r.clock.Now().Unix()
	return report, nil
}

func buildReport(cert *Certificate, receipts []Receipt) *VerificationReport {
	report := &VerificationReport{
		CertificateId:   cert.CertificateId,
		Certificate:     *cert,
		OriginalCreator: cert.Creator,
		CurrentOwner:    cert.Owner,
		Transfers:       receipts,
		Issues:          []string{},
	}
	if len(receipts) != int(cert.TransferCount) {
		report.Issues = append(
			report.Issues,
			fmt.Sprintf(
				"transfer count is %d but %d receipts exist",
				cert.TransferCount,
				len(receipts),
			),
		)
	}
	holder := cert.Creator
	for i, receipt := range receipts {
		if int(receipt.TransferIndex) != i {
			report.Issues = append(
				report.Issues,
				fmt.Sprintf("transfer %d has index %d", i, receipt.TransferIndex),
			)
		}
		if receipt.Owner != holder {
			report.Issues = append(
				report.Issues,
				fmt.Sprintf(
					"transfer %d is from %s but the holder was %s",
					i,
					receipt.Owner.String(),
					holder.String(),
				),
			)
		}
		if !receipt.Credited {
			report.Issues = append(
				report.Issues,
				fmt.Sprintf("transfer %d was not credited", i),
			)
		}
		holder = receipt.NewOwner
	}
	if holder != cert.Owner {
		report.Issues = append(
			report.Issues,
			fmt.Sprintf(
				"ownership chain ends at %s but the owner is %s",
				holder.String(),
				cert.Owner.String(),
			),
		)
	}
	report.ChainValid = len(report.Issues) == 0
	if !cert.Verified {
		report.Issues = append(report.Issues, "certificate has not been verified")
	}
	if !cert.Active {
		report.Issues = append(report.Issues, "certificate is inactive")
	}
	report.Passed = len(report.Issues) == 0
	return report
}
