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

// Certificate is the query index row for a certificate record. The
// authoritative record lives in the blob store; this row is rewritten in the
// same transaction whenever the record changes.
type Certificate struct {
	Address       []byte `gorm:"uniqueIndex;size:32"`
	Creator       []byte `gorm:"index;size:32"`
	Owner         []byte `gorm:"index;size:32"`
	Title         string `gorm:"size:64"`
	Description   string `gorm:"size:512"`
	IpfsUri       string `gorm:"size:256"`
	IssuerName    string `gorm:"index;size:64"`
	RecipientName string `gorm:"size:64"`
	ID            uint64 `gorm:"primaryKey;autoIncrement:false"`
	IssueDate     int64
	CreatedAt     types.Uint64
	TransferCount uint8
	Verified      bool `gorm:"index"`
	Active        bool `gorm:"index"`
}

func (Certificate) TableName() string {
	return "certificate"
}

// CertificateFilter selects certificates for listing. Zero values do not
// filter.
type CertificateFilter struct {
	Owner      []byte
	Creator    []byte
	IssuerName string
	Verified   *bool
	Active     *bool
	Limit      int
	Offset     int
	Descending bool
}
