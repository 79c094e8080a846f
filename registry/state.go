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
	"math"
	"strings"

	"github.com/blinklabs-io/certreg/address"
	"github.com/blinklabs-io/certreg/database/models"
	"github.com/blinklabs-io/certreg/database/types"
	"github.com/blinklabs-io/certreg/identity"
	"github.com/blinklabs-io/gouroboros/cbor"
)

// Field caps, in bytes
const (
	MaxTitleLen         = 64
	MaxDescriptionLen   = 512
	MaxIpfsUriLen       = 256
	MaxIssuerNameLen    = 64
	MaxRecipientNameLen = 64
)

const (
	InitialPlatformFee    uint64 = 5
	DefaultMinPlatformFee uint64 = 1
	DefaultMaxPlatformFee uint64 = 15

	// MaxTransferCount is the number of transfers a certificate supports.
	// The counter is 8 bits wide, so the next transfer fails with
	// ErrNumericalOverflow.
	MaxTransferCount = math.MaxUint8
)

var IpfsUriPrefixes = []string{
	"ipfs://",
	"https://ipfs.io/ipfs/",
}

// State is the registry singleton
type State struct {
	cbor.StructAsArray
	Initialized       bool              `json:"initialized"`
	CertificateCount  uint64            `json:"certificate_count"`
	PlatformFee       uint64            `json:"platform_fee"`
	PlatformAuthority identity.Identity `json:"platform_authority"`
}

// Certificate is a minted certificate record
type Certificate struct {
	cbor.StructAsArray
	CertificateId uint64            `json:"certificate_id"`
	Creator       identity.Identity `json:"creator"`
	Owner         identity.Identity `json:"owner"`
	Title         string            `json:"title"`
	Description   string            `json:"description"`
	IpfsUri       string            `json:"ipfs_uri"`
	IssuerName    string            `json:"issuer_name"`
	RecipientName string            `json:"recipient_name"`
	IssueDate     int64             `json:"issue_date"`
	Verified      bool              `json:"status_verify"`
	TransferCount uint8             `json:"transfer_count"`
	Active        bool              `json:"is_active"`
}

func (c *Certificate) Address() address.Address {
	return address.Certificate(c.CertificateId)
}

func (c *Certificate) indexModel() *models.Certificate {
	ret := &models.Certificate{
		Address:       c.Address().Bytes(),
		Creator:       c.Creator.Bytes(),
		Owner:         c.Owner.Bytes(),
		Title:         c.Title,
		Description:   c.Description,
		IpfsUri:       c.IpfsUri,
		IssuerName:    c.IssuerName,
		RecipientName: c.RecipientName,
		ID:            c.CertificateId,
		IssueDate:     c.IssueDate,
		TransferCount: c.TransferCount,
		Verified:      c.Verified,
		Active:        c.Active,
	}
	if c.IssueDate > 0 {
		ret.CreatedAt = types.Uint64(c.IssueDate)
	}
	return ret
}

// Receipt records one completed transfer. Owner is the owner before the
// transfer and TransferIndex the transfer count before the increment.
type Receipt struct {
	cbor.StructAsArray
	CertificateId uint64            `json:"certificate_id"`
	Owner         identity.Identity `json:"owner"`
	NewOwner      identity.Identity `json:"new_owner"`
	TransferIndex uint8             `json:"transfer_index"`
	Amount        uint64            `json:"amount"`
	Timestamp     uint64            `json:"timestamp"`
	Credited      bool              `json:"credited"`
}

func (r *Receipt) Address() address.Address {
	return address.Transaction(r.CertificateId, r.Owner, r.TransferIndex)
}

func (r *Receipt) indexModel() *models.TransferReceipt {
	return &models.TransferReceipt{
		Address:       r.Address().Bytes(),
		PreviousOwner: r.Owner.Bytes(),
		NewOwner:      r.NewOwner.Bytes(),
		CertificateID: r.CertificateId,
		TransferIndex: r.TransferIndex,
		Amount:        types.Uint64(r.Amount),
		Timestamp:     types.Uint64(r.Timestamp),
		Credited:      r.Credited,
	}
}

func hasIpfsPrefix(uri string) bool {
	for _, prefix := range IpfsUriPrefixes {
		if strings.HasPrefix(uri, prefix) {
			return true
		}
	}
	return false
}
