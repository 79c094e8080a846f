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

	"github.com/blinklabs-io/certreg/database"
	"github.com/blinklabs-io/certreg/identity"
	"go.opentelemetry.io/otel/attribute"
)

// VerifyCertificate marks a certificate verified. The caller must be the
// certificate's creator or the platform authority.
func (r *Registry) VerifyCertificate(
	ctx context.Context,
	verifier identity.Identity,
	certId uint64,
) (*Certificate, error) {
	var cert *Certificate
	err := r.run(
		ctx,
		opVerify,
		[]attribute.KeyValue{
			attribute.String("caller", verifier.String()),
			attribute.Int64("certificate_id", int64(certId)), //nolint:gosec
		},
		func(txn *database.Txn) error {
			state, err := r.loadState(txn)
			if err != nil {
				return err
			}
			cert, err = r.loadCertificate(txn, certId)
			if err != nil {
				return err
			}
			if cert.CertificateId != certId {
				return ErrInvalidCertificateId
			}
			if cert.Verified {
				return ErrAlreadyVerified
			}
			if verifier != cert.Creator && verifier != state.PlatformAuthority {
				return ErrUnauthorizedVerifier
			}
			if !cert.Active {
				return ErrInactiveCertificate
			}
			cert.Verified = true
			return r.saveCertificate(txn, cert)
		},
	)
	if err != nil {
		return nil, err
	}
	r.metrics.verifications.Inc()
	r.logger.Info(
		"certificate verified",
		"certificate_id", certId,
		"verifier", verifier.String(),
	)
	r.publish(
		CertificateVerifiedEventType,
		CertificateVerifiedEvent{CertificateId: certId, Verifier: verifier},
	)
	return cert, nil
}
