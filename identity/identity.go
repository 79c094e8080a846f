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

// Package identity provides the opaque caller identity used for ownership and
// authorization checks.
package identity

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/bech32"
)

const (
	// Size is the length of an identity in bytes
	Size = 32
	// Bech32Hrp is the human-readable prefix used for the bech32 text form
	Bech32Hrp = "id"
)

var ErrInvalidIdentity = errors.New("invalid identity")

// Identity is an opaque 32-byte account identifier. A single identity may hold
// more than one role (creator, owner, platform authority) at the same time.
type Identity [Size]byte

// Zero is the all-zero identity
var Zero Identity

// FromBytes builds an identity from a byte slice of exactly Size bytes
func FromBytes(data []byte) (Identity, error) {
	var ret Identity
	if len(data) != Size {
		return ret, fmt.Errorf(
			"%w: expected %d bytes, got %d",
			ErrInvalidIdentity,
			Size,
			len(data),
		)
	}
	copy(ret[:], data)
	return ret, nil
}

// Parse decodes an identity from its hex or bech32 text form
func Parse(s string) (Identity, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(strings.ToLower(s), Bech32Hrp+"1") {
		return parseBech32(s)
	}
	data, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrInvalidIdentity, err)
	}
	return FromBytes(data)
}

func parseBech32(s string) (Identity, error) {
	hrp, data, err := bech32.Decode(s)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrInvalidIdentity, err)
	}
	if hrp != Bech32Hrp {
		return Identity{}, fmt.Errorf(
			"%w: unexpected prefix %q",
			ErrInvalidIdentity,
			hrp,
		)
	}
	raw, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %w", ErrInvalidIdentity, err)
	}
	return FromBytes(raw)
}

// MustParse is like Parse but panics on error. It is intended for tests and
// static values.
func MustParse(s string) Identity {
	ret, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return ret
}

func (i Identity) Bytes() []byte {
	return i[:]
}

func (i Identity) IsZero() bool {
	return i == Zero
}

// String returns the canonical hex form
func (i Identity) String() string {
	return hex.EncodeToString(i[:])
}

// Bech32 returns the bech32 text form
func (i Identity) Bech32() string {
	conv, err := bech32.ConvertBits(i[:], 8, 5, true)
	if err != nil {
		// ConvertBits only fails on out-of-range input, which 8-bit bytes never are
		return ""
	}
	ret, err := bech32.Encode(Bech32Hrp, conv)
	if err != nil {
		return ""
	}
	return ret
}

func (i Identity) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

func (i *Identity) UnmarshalText(data []byte) error {
	tmp, err := Parse(string(data))
	if err != nil {
		return err
	}
	*i = tmp
	return nil
}
