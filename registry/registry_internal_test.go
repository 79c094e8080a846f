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
	"testing"

	"github.com/blinklabs-io/certreg/identity"
	"github.com/stretchr/testify/assert"
)

func TestBuildReportDetectsBrokenChain(t *testing.T) {
	creator := identity.Identity{0x01}
	middle := identity.Identity{0x02}
	owner := identity.Identity{0x03}
	stranger := identity.Identity{0x04}
	cert := &Certificate{
		CertificateId: 9,
		Creator:       creator,
		Owner:         owner,
		TransferCount: 2,
		Verified:      true,
		Active:        true,
	}
	good := []Receipt{
		{CertificateId: 9, Owner: creator, NewOwner: middle, TransferIndex: 0, Credited: true},
		{CertificateId: 9, Owner: middle, NewOwner: owner, TransferIndex: 1, Credited: true},
	}
	report := buildReport(cert, good)
	assert.True(t, report.ChainValid)
	assert.True(t, report.Passed)
	assert.Empty(t, report.Issues)

	testDefs := []struct {
		name     string
		receipts []Receipt
		issues   int
	}{
		{
			name:     "missing receipt",
			receipts: good[:1],
			// count mismatch and wrong final holder
			issues: 2,
		},
		{
			name: "gap in holders",
			receipts: []Receipt{
				good[0],
				{CertificateId: 9, Owner: stranger, NewOwner: owner, TransferIndex: 1, Credited: true},
			},
			issues: 1,
		},
		{
			name: "uncredited",
			receipts: []Receipt{
				good[0],
				{CertificateId: 9, Owner: middle, NewOwner: owner, TransferIndex: 1},
			},
			issues: 1,
		},
		{
			name: "index out of order",
			receipts: []Receipt{
				good[0],
				{CertificateId: 9, Owner: middle, NewOwner: owner, TransferIndex: 4, Credited: true},
			},
			issues: 1,
		},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			report := buildReport(cert, testDef.receipts)
			assert.False(t, report.ChainValid)
			assert.False(t, report.Passed)
			assert.Len(t, report.Issues, testDef.issues, report.Issues)
		})
	}
}

func TestBuildReportInactive(t *testing.T) {
	creator := identity.Identity{0x01}
	report := buildReport(
		&Certificate{CertificateId: 1, Creator: creator, Owner: creator, Verified: true},
		nil,
	)
	assert.True(t, report.ChainValid)
	assert.False(t, report.Passed)
	assert.Equal(t, []string{"certificate is inactive"}, report.Issues)
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "SameOwner", ErrorCode(ErrSameOwner))
	assert.Equal(t, "", ErrorCode(assert.AnError))
	codes := make(map[string]bool)
	for _, err := range AllErrors {
		assert.False(t, codes[err.Code], "duplicate code %s", err.Code)
		codes[err.Code] = true
		assert.NotEmpty(t, err.Message)
	}
}
