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
	"fmt"
	"net/http"
	"strconv"

	"github.com/blinklabs-io/certreg/identity"
	"github.com/blinklabs-io/certreg/registry"
	"github.com/go-chi/chi/v5"
)

const maxRequestBodySize = 1 << 20

func decodeBody(w http.ResponseWriter, r *http.Request, dest any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func certificateIdParam(r *http.Request) (uint64, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, errors.New("invalid certificate id")
	}
	return id, nil
}

func identityParam(r *http.Request, name string) (identity.Identity, error) {
	id, err := identity.Parse(chi.URLParam(r, name))
	if err != nil {
		return identity.Zero, fmt.Errorf("invalid %s: %w", name, err)
	}
	return id, nil
}

func optionalBool(r *http.Request, name string) (*bool, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %q", name, v)
	}
	return &b, nil
}

func optionalIdentity(r *http.Request, name string) (*identity.Identity, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, nil
	}
	id, err := identity.Parse(v)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", name, err)
	}
	return &id, nil
}

func (a *Api) mustCaller(
	w http.ResponseWriter,
	r *http.Request,
) (identity.Identity, bool) {
	caller, ok := callerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "no caller identity")
	}
	return caller, ok
}

func (a *Api) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := HealthResponse{IsHealthy: true}
	_, err := a.registry.State()
	switch {
	case err == nil:
		resp.Initialized = true
	case errors.Is(err, registry.ErrNotInitialized):
	default:
		a.logger.Error("health check failed", "error", err)
		resp.IsHealthy = false
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *Api) handleGetRegistry(w http.ResponseWriter, r *http.Request) {
	state, err := a.registry.State()
	if err != nil {
		a.writeOperationError(w, r, err)
		return
	}
	minFee, maxFee := a.registry.FeeRange()
	writeJSON(w, http.StatusOK, RegistryResponse{
		State:          *state,
		MinPlatformFee: minFee,
		MaxPlatformFee: maxFee,
	})
}

func (a *Api) handleInitialize(w http.ResponseWriter, r *http.Request) {
	caller, ok := a.mustCaller(w, r)
	if !ok {
		return
	}
	state, err := a.registry.Initialize(r.Context(), caller)
	if err != nil {
		a.writeOperationError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, state)
}

func (a *Api) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	caller, ok := a.mustCaller(w, r)
	if !ok {
		return
	}
	var req UpdateSettingsRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	if req.PlatformFee == nil {
		a.writeOperationError(w, r, fmt.Errorf("%w: platform_fee", registry.ErrEmptyRequiredField))
		return
	}
	state, err := a.registry.UpdatePlatformSettings(r.Context(), caller, *req.PlatformFee)
	if err != nil {
		a.writeOperationError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (a *Api) handleCreateCertificate(w http.ResponseWriter, r *http.Request) {
	caller, ok := a.mustCaller(w, r)
	if !ok {
		return
	}
	var req CreateCertificateRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	required := []struct {
		name  string
		value string
	}{
		{"title", req.Title},
		{"ipfs_uri", req.IpfsUri},
		{"issuer_name", req.IssuerName},
		{"recipient_name", req.RecipientName},
	}
	for _, field := range required {
		if field.value == "" {
			a.writeOperationError(
				w,
				r,
				fmt.Errorf("%w: %s", registry.ErrEmptyRequiredField, field.name),
			)
			return
		}
	}
	cert, err := a.registry.CreateCertificate(
		r.Context(),
		caller,
		registry.CreateCertificateRequest(req),
	)
	if err != nil {
		a.writeOperationError(w, r, err)
		return
	}
	w.Header().Set(
		"Location",
		"/api/v1/certificates/"+strconv.FormatUint(cert.CertificateId, 10),
	)
	writeJSON(w, http.StatusCreated, cert)
}

func (a *Api) handleListCertificates(w http.ResponseWriter, r *http.Request) {
	params, err := ParsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	filter := registry.CertificateFilter{
		IssuerName: r.URL.Query().Get("issuer"),
		Count:      params.Count,
		Page:       params.Page,
		Descending: params.Order == PaginationOrderDesc,
	}
	if filter.Owner, err = optionalIdentity(r, "owner"); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	if filter.Creator, err = optionalIdentity(r, "creator"); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	if filter.Verified, err = optionalBool(r, "verified"); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	if filter.Active, err = optionalBool(r, "active"); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	list, err := a.registry.ListCertificates(filter)
	if err != nil {
		a.writeOperationError(w, r, err)
		return
	}
	SetPaginationHeaders(w, list.Total, params)
	writeJSON(w, http.StatusOK, list.Certificates)
}

func (a *Api) handleGetCertificate(w http.ResponseWriter, r *http.Request) {
	certId, err := certificateIdParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	cert, err := a.registry.Certificate(certId)
	if err != nil {
		a.writeOperationError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cert)
}

func (a *Api) handleVerifyCertificate(w http.ResponseWriter, r *http.Request) {
	caller, ok := a.mustCaller(w, r)
	if !ok {
		return
	}
	certId, err := certificateIdParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	cert, err := a.registry.VerifyCertificate(r.Context(), caller, certId)
	if err != nil {
		a.writeOperationError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cert)
}

func (a *Api) handleTransferCertificate(w http.ResponseWriter, r *http.Request) {
	caller, ok := a.mustCaller(w, r)
	if !ok {
		return
	}
	certId, err := certificateIdParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	var req TransferCertificateRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	if req.NewOwner == nil {
		a.writeOperationError(w, r, fmt.Errorf("%w: new_owner", registry.ErrEmptyRequiredField))
		return
	}
	transferReq := registry.TransferCertificateRequest{
		CertificateId: certId,
		NewOwner:      *req.NewOwner,
	}
	if req.PlatformAccount != nil {
		transferReq.PlatformAccount = *req.PlatformAccount
	} else {
		state, err := a.registry.State()
		if err != nil {
			a.writeOperationError(w, r, err)
			return
		}
		transferReq.PlatformAccount = state.PlatformAuthority
	}
	receipt, err := a.registry.TransferCertificate(r.Context(), caller, transferReq)
	if err != nil {
		a.writeOperationError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

func (a *Api) handleListReceipts(w http.ResponseWriter, r *http.Request) {
	certId, err := certificateIdParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	receipts, err := a.registry.Receipts(certId)
	if err != nil {
		a.writeOperationError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, receipts)
}

func (a *Api) handleGetReceipt(w http.ResponseWriter, r *http.Request) {
	certId, err := certificateIdParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	owner, err := identityParam(r, "owner")
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	index, err := strconv.ParseUint(chi.URLParam(r, "index"), 10, 8)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid transfer index")
		return
	}
	receipt, err := a.registry.Receipt(certId, owner, uint8(index))
	if err != nil {
		a.writeOperationError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

func (a *Api) handleVerificationReport(w http.ResponseWriter, r *http.Request) {
	certId, err := certificateIdParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	report, err := a.registry.VerificationReport(certId)
	if err != nil {
		a.writeOperationError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (a *Api) handleTransferCost(w http.ResponseWriter, r *http.Request) {
	caller, ok := a.mustCaller(w, r)
	if !ok {
		return
	}
	certId, err := certificateIdParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	cost, err := a.registry.EstimateTransferCost(certId, caller)
	if err != nil {
		a.writeOperationError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cost)
}

func (a *Api) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	account, err := identityParam(r, "identity")
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	balance, err := a.registry.Balance(account)
	if err != nil {
		a.writeOperationError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, BalanceResponse{Account: account, Balance: balance})
}

func (a *Api) handleAirdrop(w http.ResponseWriter, r *http.Request) {
	account, err := identityParam(r, "identity")
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	var req AirdropRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
		return
	}
	balance, err := a.registry.Fund(account, req.Amount)
	if err != nil {
		a.writeOperationError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, BalanceResponse{Account: account, Balance: balance})
}
