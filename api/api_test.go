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

package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/blinklabs-io/certreg/api"
	"github.com/blinklabs-io/certreg/database"
	"github.com/blinklabs-io/certreg/identity"
	"github.com/blinklabs-io/certreg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	authority = identity.Identity{0xaa}
	alice     = identity.Identity{0x01}
	bob       = identity.Identity{0x02}
)

type testServer struct {
	t   *testing.T
	srv *httptest.Server
	reg *registry.Registry
}

func newTestServer(t *testing.T, devMode bool) *testServer {
	t.Helper()
	db, err := database.New(&database.Config{})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	reg, err := registry.New(registry.RegistryConfig{Database: db})
	require.NoError(t, err)
	a := api.New(
		api.ApiConfig{JwtSecret: testSecret, DevMode: devMode},
		reg,
		nil,
	)
	srv := httptest.NewServer(a.Handler())
	t.Cleanup(srv.Close)
	return &testServer{t: t, srv: srv, reg: reg}
}

// do sends a request as caller (no auth header for the zero identity) and
// decodes the JSON response into dest when dest is not nil
func (s *testServer) do(
	method string,
	path string,
	caller identity.Identity,
	body any,
	dest any,
) *http.Response {
	s.t.Helper()
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(s.t, err)
		reqBody = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(
		context.Background(),
		method,
		s.srv.URL+path,
		reqBody,
	)
	require.NoError(s.t, err)
	if !caller.IsZero() {
		token, err := api.NewToken(testSecret, caller, time.Hour, time.Now())
		require.NoError(s.t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.srv.Client().Do(req)
	require.NoError(s.t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(s.t, err)
	if dest != nil {
		require.NoError(s.t, json.Unmarshal(data, dest), string(data))
	}
	return resp
}

func (s *testServer) expectError(
	method string,
	path string,
	caller identity.Identity,
	body any,
	status int,
	code string,
) {
	s.t.Helper()
	var errResp api.ErrorResponse
	resp := s.do(method, path, caller, body, &errResp)
	assert.Equal(s.t, status, resp.StatusCode, "%s %s", method, path)
	assert.Equal(s.t, code, errResp.Error, "%s %s", method, path)
	assert.Equal(s.t, status, errResp.StatusCode)
}

func certBody() map[string]string {
	return map[string]string{
		"title":          "Go Fundamentals",
		"description":    "Course completion",
		"ipfs_uri":       "https://ipfs.io/ipfs/bafkreia",
		"issuer_name":    "Blink Academy",
		"recipient_name": "Alice",
	}
}

func TestHealthAndRequestId(t *testing.T) {
	s := newTestServer(t, false)
	var health api.HealthResponse
	resp := s.do(http.MethodGet, "/health", identity.Zero, nil, &health)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, health.IsHealthy)
	assert.False(t, health.Initialized)
	assert.Len(t, resp.Header.Get(api.RequestIdHeader), 36)

	req, err := http.NewRequest(http.MethodGet, s.srv.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set(api.RequestIdHeader, "abc-123")
	resp, err = s.srv.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "abc-123", resp.Header.Get(api.RequestIdHeader))

	s.expectError(http.MethodGet, "/nope", identity.Zero, nil, http.StatusNotFound, "NotFound")
}

func TestAuthenticationRequired(t *testing.T) {
	s := newTestServer(t, false)
	s.expectError(http.MethodPost, "/api/v1/registry/initialize", identity.Zero, nil, http.StatusUnauthorized, "Unauthorized")

	req, err := http.NewRequest(http.MethodPost, s.srv.URL+"/api/v1/registry/initialize", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp, err := s.srv.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRegistryLifecycle(t *testing.T) {
	s := newTestServer(t, true)

	s.expectError(http.MethodGet, "/api/v1/registry", identity.Zero, nil, http.StatusConflict, "NotInitialized")

	var state registry.State
	resp := s.do(http.MethodPost, "/api/v1/registry/initialize", authority, nil, &state)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, authority, state.PlatformAuthority)
	assert.Equal(t, registry.InitialPlatformFee, state.PlatformFee)
	s.expectError(http.MethodPost, "/api/v1/registry/initialize", alice, nil, http.StatusConflict, "AlreadyInitialized")

	var regResp api.RegistryResponse
	resp = s.do(http.MethodGet, "/api/v1/registry", identity.Zero, nil, &regResp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, regResp.Initialized)
	assert.Equal(t, uint64(15), regResp.MaxPlatformFee)

	// Settings
	fee := uint64(3)
	s.expectError(http.MethodPut, "/api/v1/registry/settings", alice, map[string]uint64{"platform_fee": fee}, http.StatusForbidden, "UnauthorizedUpdater")
	s.expectError(http.MethodPut, "/api/v1/registry/settings", authority, map[string]uint64{"platform_fee": 99}, http.StatusForbidden, "InvalidPlatformFee")
	s.expectError(http.MethodPut, "/api/v1/registry/settings", authority, map[string]any{}, http.StatusBadRequest, "EmptyRequiredField")
	s.expectError(http.MethodPut, "/api/v1/registry/settings", authority, map[string]any{"fee": 1}, http.StatusBadRequest, "BadRequest")
	resp = s.do(http.MethodPut, "/api/v1/registry/settings", authority, map[string]uint64{"platform_fee": fee}, &state)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, fee, state.PlatformFee)
}

func TestCertificateFlow(t *testing.T) {
	s := newTestServer(t, true)
	_, err := s.reg.Initialize(context.Background(), authority)
	require.NoError(t, err)

	// Validation
	body := certBody()
	body["recipient_name"] = ""
	s.expectError(http.MethodPost, "/api/v1/certificates", alice, body, http.StatusBadRequest, "EmptyRequiredField")
	body = certBody()
	body["title"] = strings.Repeat("x", 65)
	s.expectError(http.MethodPost, "/api/v1/certificates", alice, body, http.StatusBadRequest, "TitleTooLong")
	body = certBody()
	body["ipfs_uri"] = "https://example.com/cert.json"
	s.expectError(http.MethodPost, "/api/v1/certificates", alice, body, http.StatusBadRequest, "InvalidIpfsUri")

	var cert registry.Certificate
	resp := s.do(http.MethodPost, "/api/v1/certificates", alice, certBody(), &cert)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, uint64(1), cert.CertificateId)
	assert.Equal(t, "/api/v1/certificates/1", resp.Header.Get("Location"))
	assert.Equal(t, alice, cert.Owner)
	assert.True(t, cert.Active)

	resp = s.do(http.MethodGet, "/api/v1/certificates/1", identity.Zero, nil, &cert)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Go Fundamentals", cert.Title)
	s.expectError(http.MethodGet, "/api/v1/certificates/2", identity.Zero, nil, http.StatusNotFound, "CertificateNotFound")
	s.expectError(http.MethodGet, "/api/v1/certificates/abc", identity.Zero, nil, http.StatusBadRequest, "BadRequest")

	// Verification
	s.expectError(http.MethodPost, "/api/v1/certificates/1/verify", bob, nil, http.StatusForbidden, "UnauthorizedVerifier")
	resp = s.do(http.MethodPost, "/api/v1/certificates/1/verify", authority, nil, &cert)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, cert.Verified)
	s.expectError(http.MethodPost, "/api/v1/certificates/1/verify", alice, nil, http.StatusConflict, "AlreadyVerified")

	// Transfer
	transfer := map[string]string{"new_owner": bob.String()}
	var cost registry.TransferCost
	resp = s.do(http.MethodGet, "/api/v1/certificates/1/transfer-cost", alice, nil, &cost)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, cost.Sufficient)
	s.expectError(http.MethodPost, "/api/v1/certificates/1/transfer", alice, transfer, http.StatusPaymentRequired, "InsufficientFunds")
	s.expectError(http.MethodPost, "/api/v1/certificates/1/transfer", bob, transfer, http.StatusForbidden, "NotCertificateOwner")
	s.expectError(http.MethodPost, "/api/v1/certificates/1/transfer", alice, map[string]string{"new_owner": alice.String()}, http.StatusConflict, "SameOwner")
	s.expectError(http.MethodPost, "/api/v1/certificates/1/transfer", alice, map[string]string{}, http.StatusBadRequest, "EmptyRequiredField")
	s.expectError(
		http.MethodPost,
		"/api/v1/certificates/1/transfer",
		alice,
		map[string]string{"new_owner": bob.String(), "platform_account": bob.String()},
		http.StatusForbidden,
		"InvalidPlatformAccount",
	)

	var balance api.BalanceResponse
	resp = s.do(http.MethodPost, "/api/v1/accounts/"+alice.Bech32()+"/airdrop", alice, map[string]uint64{"amount": 20}, &balance)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, uint64(20), balance.Balance)
	assert.Equal(t, alice, balance.Account)

	var receipt registry.Receipt
	resp = s.do(http.MethodPost, "/api/v1/certificates/1/transfer", alice, transfer, &receipt)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, alice, receipt.Owner)
	assert.Equal(t, bob, receipt.NewOwner)
	assert.Equal(t, registry.InitialPlatformFee, receipt.Amount)
	assert.True(t, receipt.Credited)

	resp = s.do(http.MethodGet, "/api/v1/accounts/"+authority.String()+"/balance", identity.Zero, nil, &balance)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, registry.InitialPlatformFee, balance.Balance)

	var receipts []registry.Receipt
	resp = s.do(http.MethodGet, "/api/v1/certificates/1/receipts", identity.Zero, nil, &receipts)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []registry.Receipt{receipt}, receipts)

	var single registry.Receipt
	resp = s.do(http.MethodGet, fmt.Sprintf("/api/v1/certificates/1/receipts/%s/0", alice), identity.Zero, nil, &single)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, receipt, single)
	s.expectError(http.MethodGet, fmt.Sprintf("/api/v1/certificates/1/receipts/%s/0", bob), identity.Zero, nil, http.StatusNotFound, "ReceiptNotFound")

	var report registry.VerificationReport
	resp = s.do(http.MethodGet, "/api/v1/certificates/1/report", identity.Zero, nil, &report)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, report.Passed)
	assert.True(t, report.ChainValid)
	assert.Equal(t, bob, report.CurrentOwner)
}

func TestListCertificatesPagination(t *testing.T) {
	s := newTestServer(t, false)
	_, err := s.reg.Initialize(context.Background(), authority)
	require.NoError(t, err)
	for range 5 {
		resp := s.do(http.MethodPost, "/api/v1/certificates", alice, certBody(), nil)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}
	resp := s.do(http.MethodPost, "/api/v1/certificates", bob, certBody(), nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var certs []registry.Certificate
	resp = s.do(http.MethodGet, "/api/v1/certificates?count=2&page=2&order=desc", identity.Zero, nil, &certs)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, certs, 2)
	assert.Equal(t, uint64(4), certs[0].CertificateId)
	assert.Equal(t, uint64(3), certs[1].CertificateId)
	assert.Equal(t, "6", resp.Header.Get("X-Pagination-Count-Total"))
	assert.Equal(t, "3", resp.Header.Get("X-Pagination-Page-Total"))

	resp = s.do(http.MethodGet, "/api/v1/certificates?creator="+bob.String(), identity.Zero, nil, &certs)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, certs, 1)
	assert.Equal(t, uint64(6), certs[0].CertificateId)

	resp = s.do(http.MethodGet, "/api/v1/certificates?verified=true", identity.Zero, nil, &certs)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, certs)

	s.expectError(http.MethodGet, "/api/v1/certificates?order=up", identity.Zero, nil, http.StatusBadRequest, "BadRequest")
	s.expectError(http.MethodGet, "/api/v1/certificates?verified=maybe", identity.Zero, nil, http.StatusBadRequest, "BadRequest")
	s.expectError(http.MethodGet, "/api/v1/certificates?owner=zz", identity.Zero, nil, http.StatusBadRequest, "BadRequest")
}

func TestAirdropRequiresDevMode(t *testing.T) {
	s := newTestServer(t, false)
	s.expectError(
		http.MethodPost,
		"/api/v1/accounts/"+alice.String()+"/airdrop",
		alice,
		map[string]uint64{"amount": 1},
		http.StatusNotFound,
		"NotFound",
	)
}

func TestStartStop(t *testing.T) {
	a := api.New(api.ApiConfig{ListenAddress: "127.0.0.1:0"}, nil, nil)
	require.NoError(t, a.Start(t.Context()))
	addr := a.Addr()
	require.NotNil(t, addr)
	err := a.Start(t.Context())
	require.ErrorContains(t, err, "already started")

	resp, err := http.Get("http://" + addr.String() + "/nope")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, a.Stop(ctx))
	assert.Nil(t, a.Addr())
	require.NoError(t, a.Stop(ctx))
}
