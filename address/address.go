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

// Package address derives the deterministic storage addresses used for every
// registry record. An address is a BLAKE2b-256 digest over a record tag and
// an ordered list of seeds, so the same inputs always resolve to the same
// record.
package address

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/blinklabs-io/certreg/identity"
	"golang.org/x/crypto/blake2b"
)

const Size = blake2b.Size256

// Record tags
const (
	TagProgramState   = "program_state"
	TagCertificateNft = "certificate_nft"
	TagTransaction    = "transaction"
	TagBalance        = "balance"
)

var ErrInvalidAddress = errors.New("invalid address")

type Address [Size]byte

// Derive computes the address for a tag and seed list. Each element is
// length-prefixed so that distinct seed splits never collide.
func Derive(tag string, seeds ...[]byte) Address {
	h, err := blake2b.New256(nil)
	if err != nil {
		// Only possible with an oversized key, and we never pass one
		panic(err)
	}
	writeSeed(h, []byte(tag))
	for _, seed := range seeds {
		writeSeed(h, seed)
	}
	var ret Address
	copy(ret[:], h.Sum(nil))
	return ret
}

func writeSeed(w interface{ Write([]byte) (int, error) }, seed []byte) {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(seed))) //nolint:gosec
	_, _ = w.Write(lenBuf[:])
	_, _ = w.Write(seed)
}

// Uint64Seed encodes a 64-bit counter as 8 little-endian bytes
func Uint64Seed(v uint64) []byte {
	ret := make([]byte, 8)
	binary.LittleEndian.PutUint64(ret, v)
	return ret
}

// Uint8Seed encodes an 8-bit counter as a single byte
func Uint8Seed(v uint8) []byte {
	return []byte{v}
}

// Registry returns the address of the registry state singleton
func Registry() Address {
	return Derive(TagProgramState)
}

// Certificate returns the address of the certificate with the given id
func Certificate(id uint64) Address {
	return Derive(TagCertificateNft, Uint64Seed(id))
}

// Transaction returns the address of the transfer receipt written when
// prevOwner transferred the certificate for the transferIdx-th time
func Transaction(
	certId uint64,
	prevOwner identity.Identity,
	transferIdx uint8,
) Address {
	return Derive(
		TagTransaction,
		Uint64Seed(certId),
		prevOwner.Bytes(),
		Uint8Seed(transferIdx),
	)
}

// Balance returns the address of the balance record for an identity
func Balance(id identity.Identity) Address {
	return Derive(TagBalance, id.Bytes())
}

func FromBytes(data []byte) (Address, error) {
	var ret Address
	if len(data) != Size {
		return ret, fmt.Errorf(
			"%w: expected %d bytes, got %d",
			ErrInvalidAddress,
			Size,
			len(data),
		)
	}
	copy(ret[:], data)
	return ret, nil
}

func Parse(s string) (Address, error) {
	data, err := hex.DecodeString(s)
	if err != nil {
		return Address{}, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}
	return FromBytes(data)
}

func (a Address) Bytes() []byte {
	return a[:]
}

func (a Address) String() string {
	return hex.EncodeToString(a[:])
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(data []byte) error {
	tmp, err := Parse(string(data))
	if err != nil {
		return err
	}
	*a = tmp
	return nil
}
