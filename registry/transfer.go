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
	"context"
	"fmt"

	"github.com/blinklabs-io/certreg/database"
	"github.com/blinklabs-io/certreg/identity"
	"github.com/blinklabs-io/certreg/ledger"
	"go.opentelemetry.io/otel/attribute"
)

type TransferCertificateRequest struct {
	CertificateId uint64
	NewOwner      identity.Identity
	// PlatformAccount is the account the caller pays the fee to. It must
	// match the platform authority.
	PlatformAccount identity.Identity
}

// TransferCertificate moves a certificate from its current owner to a new
// owner and charges the platform fee. The fee movement, ownership change,
// counter increment and receipt are committed together or not at all.
func (r *Registry) TransferCertificate(
	ctx context.Context,
	caller identity.Identity,
	req TransferCertificateRequest,
) (*Receipt, error) {
	var receipt *Receipt
	err := r.run(
		ctx,
		opTransfer,
		[]attribute.KeyValue{
			attribute.String("caller", caller.String()),
			attribute.String("new_owner", req.NewOwner.String()),
			attribute.Int64("certificate_id", int64(req.CertificateId)), //nolint:gosec
		},
		func(txn *database.Txn) error {
			state, err := r.loadState(txn)
			if err != nil {
				return err
			}
			cert, err := r.loadCertificate(txn, req.CertificateId)
			if err != nil {
				return err
			}
			if cert.CertificateId != req.CertificateId {
				return ErrInvalidCertificateId
			}
			if cert.Owner != caller {
				return ErrNotCertificateOwner
			}
			if !cert.Active {
				return ErrInactiveCertificate
			}
			if req.NewOwner == caller {
				return ErrSameOwner
			}
			if req.PlatformAccount != state.PlatformAuthority {
				return ErrInvalidPlatformAccount
			}
			fee := state.PlatformFee
			if fee > 0 {
				err := ledger.Transfer(txn, caller, state.PlatformAuthority, fee)
				if err != nil {
					return fmt.Errorf("pay platform fee: %w", err)
				}
			}
			prevOwner := cert.Owner
			prevCount := cert.TransferCount
			cert.Owner = req.NewOwner
			if cert.TransferCount == MaxTransferCount {
				return ErrNumericalOverflow
			}
			cert.TransferCount++
			if err := r.saveCertificate(txn, cert); err != nil {
				return err
			}
			receipt = &Receipt{
				CertificateId: cert.CertificateId,
				Owner:         prevOwner,
				NewOwner:      req.NewOwner,
				TransferIndex: prevCount,
				Amount:        fee,
				Timestamp:     uint64(r.clock.Now().Unix()), //nolint:gosec
				Credited:      true,
			}
			if err := r.db.CreateRecord(receipt.Address(), receipt, txn); err != nil {
				return fmt.Errorf("store transfer receipt: %w", err)
			}
			if err := r.db.AddTransferReceiptIndex(receipt.indexModel(), txn); err != nil {
				return fmt.Errorf("index transfer receipt: %w", err)
			}
			return nil
		},
	)
	if err != nil {
		return nil, err
	}
	r.metrics.transfers.Inc()
	r.metrics.feesCollected.Add(float64(receipt.Amount))
	r.logger.Info(
		"certificate transferred",
		"certificate_id", receipt.CertificateId,
		"from", receipt.Owner.String(),
		"to", receipt.NewOwner.String(),
		"fee", receipt.Amount,
	)
	r.publish(
		CertificateTransferredEventType,
		CertificateTransferredEvent{Receipt: *receipt},
	)
	return receipt, nil
}
