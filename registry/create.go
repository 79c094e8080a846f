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
	"math"

	"github.com/blinklabs-io/certreg/address"
	"github.com/blinklabs-io/certreg/database"
	"github.com/blinklabs-io/certreg/identity"
	"go.opentelemetry.io/otel/attribute"
)

type CreateCertificateRequest struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	IpfsUri       string `json:"ipfs_uri"`
	IssuerName    string `json:"issuer_name"`
	RecipientName string `json:"recipient_name"`
}

// Validate runs the field checks in the order CreateCertificate applies them
func (req *CreateCertificateRequest) Validate() error {
	if len(req.Title) > MaxTitleLen {
		return ErrTitleTooLong
	}
	if len(req.Description) > MaxDescriptionLen {
		return ErrDescTooLong
	}
	if len(req.IssuerName) > MaxIssuerNameLen {
		return ErrIssuerNameTooLong
	}
	if len(req.RecipientName) > MaxRecipientNameLen {
		return ErrRecipientNameTooLong
	}
	if !hasIpfsPrefix(req.IpfsUri) || len(req.IpfsUri) > MaxIpfsUriLen {
		return ErrInvalidIpfsUri
	}
	return nil
}

// CreateCertificate mints a certificate owned by its creator. The registry
// counter is advanced first and its new value becomes the certificate id.
func (r *Registry) CreateCertificate(
	ctx context.Context,
	creator identity.Identity,
	req CreateCertificateRequest,
) (*Certificate, error) {
	var cert *Certificate
	var certCount uint64
	err := r.run(
		ctx,
		opCreate,
		[]attribute.KeyValue{
			attribute.String("caller", creator.String()),
			attribute.String("issuer_name", req.IssuerName),
		},
		func(txn *database.Txn) error {
			if err := req.Validate(); err != nil {
				return err
			}
			state, err := r.loadState(txn)
			if err != nil {
				return err
			}
			if state.CertificateCount == math.MaxUint64 {
				return ErrNumericalOverflow
			}
			state.CertificateCount++
			if err := r.db.SetRecord(address.Registry(), state, txn); err != nil {
				return fmt.Errorf("store registry state: %w", err)
			}
			cert = &Certificate{
				CertificateId: state.CertificateCount,
				Creator:       creator,
				Owner:         creator,
				Title:         req.Title,
				Description:   req.Description,
				IpfsUri:       req.IpfsUri,
				IssuerName:    req.IssuerName,
				RecipientName: req.RecipientName,
				IssueDate:     r.clock.Now().Unix(),
				Verified:      false,
				TransferCount: 0,
				Active:        true,
			}
			if err := r.db.CreateRecord(cert.Address(), cert, txn); err != nil {
				return fmt.Errorf(
					"store certificate %d: %w",
					cert.CertificateId,
					err,
				)
			}
			if err := r.db.SetCertificateIndex(cert.indexModel(), txn); err != nil {
				return fmt.Errorf(
					"index certificate %d: %w",
					cert.CertificateId,
					err,
				)
			}
			certCount = state.CertificateCount
			return nil
		},
	)
	if err != nil {
		return nil, err
	}
	r.metrics.certificatesCreated.Inc()
	r.metrics.certificateCount.Set(float64(certCount))
	r.logger.Info(
		"certificate created",
		"certificate_id", cert.CertificateId,
		"creator", creator.String(),
	)
	r.publish(CertificateCreatedEventType, CertificateCreatedEvent{Certificate: *cert})
	return cert, nil
}
