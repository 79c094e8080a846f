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
	"time"

	"github.com/blinklabs-io/certreg/identity"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const TokenIssuer = "certreg"

var ErrInvalidToken = errors.New("invalid token")

// NewToken issues an HS256 bearer token naming id as its subject. A zero ttl
// produces a token without an expiry.
func NewToken(
	secret []byte,
	id identity.Identity,
	ttl time.Duration,
	now time.Time,
) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("token secret is empty")
	}
	claims := jwt.RegisteredClaims{
		Issuer:   TokenIssuer,
		Subject:  id.String(),
		IssuedAt: jwt.NewNumericDate(now),
		ID:       uuid.NewString(),
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseToken validates a bearer token and returns the identity it names
func ParseToken(secret []byte, tokenString string) (identity.Identity, error) {
	if len(secret) == 0 {
		return identity.Zero, fmt.Errorf("%w: authentication is not configured", ErrInvalidToken)
	}
	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(
		tokenString,
		&claims,
		func(token *jwt.Token) (any, error) {
			return secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(TokenIssuer),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return identity.Zero, fmt.Errorf("%w: token has expired", ErrInvalidToken)
		}
		return identity.Zero, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return identity.Zero, ErrInvalidToken
	}
	id, err := identity.Parse(claims.Subject)
	if err != nil {
		return identity.Zero, fmt.Errorf("%w: bad subject: %w", ErrInvalidToken, err)
	}
	return id, nil
}
