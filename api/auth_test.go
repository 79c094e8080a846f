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
	"testing"
	"time"

	"github.com/blinklabs-io/certreg/api"
	"github.com/blinklabs-io/certreg/identity"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret-0123456789")

func TestTokenRoundTrip(t *testing.T) {
	id := identity.Identity{0x42, 0x43}
	token, err := api.NewToken(testSecret, id, time.Hour, time.Now())
	require.NoError(t, err)
	parsed, err := api.ParseToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	// No expiry
	token, err = api.NewToken(testSecret, id, 0, time.Now())
	require.NoError(t, err)
	parsed, err = api.ParseToken(testSecret, token)
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestParseTokenRejects(t *testing.T) {
	id := identity.Identity{0x42}
	good, err := api.NewToken(testSecret, id, time.Hour, time.Now())
	require.NoError(t, err)
	expired, err := api.NewToken(testSecret, id, time.Minute, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	otherIssuer, err := jwt.NewWithClaims(
		jwt.SigningMethodHS256,
		jwt.RegisteredClaims{Issuer: "someone-else", Subject: id.String()},
	).SignedString(testSecret)
	require.NoError(t, err)
	badSubject, err := jwt.NewWithClaims(
		jwt.SigningMethodHS256,
		jwt.RegisteredClaims{Issuer: api.TokenIssuer, Subject: "not-an-identity"},
	).SignedString(testSecret)
	require.NoError(t, err)
	unsigned, err := jwt.NewWithClaims(
		jwt.SigningMethodNone,
		jwt.RegisteredClaims{Issuer: api.TokenIssuer, Subject: id.String()},
	).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	testDefs := []struct {
		name   string
		secret []byte
		token  string
	}{
		{"wrong secret", []byte("other-secret"), good},
		{"empty secret", nil, good},
		{"expired", testSecret, expired},
		{"other issuer", testSecret, otherIssuer},
		{"bad subject", testSecret, badSubject},
		{"unsigned", testSecret, unsigned},
		{"garbage", testSecret, "abc.def.ghi"},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			_, err := api.ParseToken(testDef.secret, testDef.token)
			require.ErrorIs(t, err, api.ErrInvalidToken)
		})
	}
}

func TestNewTokenRequiresSecret(t *testing.T) {
	_, err := api.NewToken(nil, identity.Identity{}, time.Hour, time.Now())
	require.Error(t, err)
}
