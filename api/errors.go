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
	"encoding/json"
	"errors"
	"net/http"

	"github.com/blinklabs-io/certreg/ledger"
	"github.com/blinklabs-io/certreg/registry"
)

const (
	codeBadRequest        = "BadRequest"
	codeUnauthorized      = "Unauthorized"
	codeInsufficientFunds = "InsufficientFunds"
	codeBalanceOverflow   = "BalanceOverflow"
	codeNotFound          = "NotFound"
	codeInternal          = "InternalError"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	StatusCode int    `json:"status_code"`
	Error      string `json:"error"`
	Message    string `json:"message"`
}

// writeJSON writes a JSON response with the given status code
func writeJSON(
	w http.ResponseWriter,
	status int,
	v any,
) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,errchkjson
	json.NewEncoder(w).Encode(v)
}

func writeError(
	w http.ResponseWriter,
	status int,
	code string,
	message string,
) {
	writeJSON(w, status, ErrorResponse{
		StatusCode: status,
		Error:      code,
		Message:    message,
	})
}

// errorStatus maps an operation error to its HTTP status and error code
func errorStatus(err error) (int, string) {
	var regErr *registry.Error
	switch {
	case errors.As(err, &regErr):
		switch {
		case regErr == registry.ErrCertificateNotFound,
			regErr == registry.ErrReceiptNotFound:
			return http.StatusNotFound, regErr.Code
		case regErr.Kind == registry.KindValidation:
			return http.StatusBadRequest, regErr.Code
		case regErr.Kind == registry.KindAuthorization:
			return http.StatusForbidden, regErr.Code
		case regErr.Kind == registry.KindArithmetic:
			return http.StatusUnprocessableEntity, regErr.Code
		default:
			return http.StatusConflict, regErr.Code
		}
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return http.StatusPaymentRequired, codeInsufficientFunds
	case errors.Is(err, ledger.ErrBalanceOverflow):
		return http.StatusUnprocessableEntity, codeBalanceOverflow
	default:
		return http.StatusInternalServerError, codeInternal
	}
}

// writeOperationError reports err, hiding the detail of unexpected failures
func (a *Api) writeOperationError(
	w http.ResponseWriter,
	r *http.Request,
	err error,
) {
	status, code := errorStatus(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		a.logger.Error(
			"request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", requestIdFromContext(r.Context()),
			"error", err,
		)
		message = "internal error"
	}
	writeError(w, status, code, message)
}
