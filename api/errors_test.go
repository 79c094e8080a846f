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
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/blinklabs-io/certreg/ledger"
	"github.com/blinklabs-io/certreg/registry"
	"github.com/stretchr/testify/assert"
)

func TestErrorStatus(t *testing.T) {
	testDefs := []struct {
		err    error
		status int
		code   string
	}{
		{registry.ErrTitleTooLong, http.StatusBadRequest, "TitleTooLong"},
		{
			fmt.Errorf("%w: title", registry.ErrEmptyRequiredField),
			http.StatusBadRequest,
			"EmptyRequiredField",
		},
		{registry.ErrNotCertificateOwner, http.StatusForbidden, "NotCertificateOwner"},
		{registry.ErrAlreadyVerified, http.StatusConflict, "AlreadyVerified"},
		{registry.ErrNotInitialized, http.StatusConflict, "NotInitialized"},
		{
			fmt.Errorf("certificate 9: %w", registry.ErrCertificateNotFound),
			http.StatusNotFound,
			"CertificateNotFound",
		},
		{registry.ErrReceiptNotFound, http.StatusNotFound, "ReceiptNotFound"},
		{registry.ErrNumericalOverflow, http.StatusUnprocessableEntity, "NumericalOverflow"},
		{
			fmt.Errorf("pay platform fee: %w", ledger.ErrInsufficientFunds),
			http.StatusPaymentRequired,
			codeInsufficientFunds,
		},
		{ledger.ErrBalanceOverflow, http.StatusUnprocessableEntity, codeBalanceOverflow},
		{errors.New("disk on fire"), http.StatusInternalServerError, codeInternal},
	}
	for _, testDef := range testDefs {
		status, code := errorStatus(testDef.err)
		assert.Equal(t, testDef.status, status, testDef.err.Error())
		assert.Equal(t, testDef.code, code, testDef.err.Error())
	}
}
