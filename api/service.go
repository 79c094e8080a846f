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

package api

import (
	"context"

	"github.com/blinklabs-io/certreg/identity"
	"github.com/blinklabs-io/certreg/registry"
)

// RegistryService is the registry surface used by the API
type RegistryService interface {
	State() (*registry.State, error)
	FeeRange() (uint64, uint64)
	Initialize(context.Context, identity.Identity) (*registry.State, error)
	CreateCertificate(
		context.Context,
		identity.Identity,
		registry.CreateCertificateRequest,
	) (*registry.Certificate, error)
	VerifyCertificate(
		context.Context,
		identity.Identity,
		uint64,
	) (*registry.Certificate, error)
	TransferCertificate(
		context.Context,
		identity.Identity,
		registry.TransferCertificateRequest,
	) (*registry.Receipt, error)
	UpdatePlatformSettings(
		context.Context,
		identity.Identity,
		uint64,
	) (*registry.State, error)
	Certificate(uint64) (*registry.Certificate, error)
	ListCertificates(registry.CertificateFilter) (*registry.CertificateList, error)
	Receipts(uint64) ([]registry.Receipt, error)
	Receipt(uint64, identity.Identity, uint8) (*registry.Receipt, error)
	EstimateTransferCost(uint64, identity.Identity) (*registry.TransferCost, error)
	VerificationReport(uint64) (*registry.VerificationReport, error)
	Balance(identity.Identity) (uint64, error)
	Fund(identity.Identity, uint64) (uint64, error)
}

var _ RegistryService = (*registry.Registry)(nil)
