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
	"github.com/blinklabs-io/certreg/identity"
	"github.com/blinklabs-io/certreg/registry"
)

type HealthResponse struct {
	IsHealthy   bool `json:"is_healthy"`
	Initialized bool `json:"initialized"`
}

type RegistryResponse struct {
	registry.State
	MinPlatformFee uint64 `json:"min_platform_fee,omitempty"`
	MaxPlatformFee uint64 `json:"max_platform_fee,omitempty"`
}

type CreateCertificateRequest struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	IpfsUri       string `json:"ipfs_uri"`
	IssuerName    string `json:"issuer_name"`
	RecipientName string `json:"recipient_name"`
}

type TransferCertificateRequest struct {
	NewOwner *identity.Identity `json:"new_owner"`
	// PlatformAccount defaults to the current platform authority
	PlatformAccount *identity.Identity `json:"platform_account,omitempty"`
}

type UpdateSettingsRequest struct {
	PlatformFee *uint64 `json:"platform_fee"`
}

type AirdropRequest struct {
	Amount uint64 `json:"amount"`
}

type BalanceResponse struct {
	Account identity.Identity `json:"account"`
	Balance uint64            `json:"balance"`
}
