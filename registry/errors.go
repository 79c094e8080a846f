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
	"errors"
)

// ErrorKind groups registry errors by the class of check that failed
type ErrorKind string

const (
	KindValidation    ErrorKind = "validation"
	KindState         ErrorKind = "state"
	KindAuthorization ErrorKind = "authorization"
	KindArithmetic    ErrorKind = "arithmetic"
)

// Error is a named registry failure. Each value is a sentinel, so callers
// match with errors.Is and read the code with errors.As.
type Error struct {
	Code    string
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

func newError(code string, kind ErrorKind, msg string) *Error {
	return &Error{Code: code, Kind: kind, Message: msg}
}

var (
	ErrAlreadyInitialized = newError(
		"AlreadyInitialized",
		KindState,
		"the registry has already been initialized",
	)
	ErrTitleTooLong = newError(
		"TitleTooLong",
		KindValidation,
		"title exceeds 64 bytes",
	)
	ErrDescTooLong = newError(
		"DescTooLong",
		KindValidation,
		"description exceeds 512 bytes",
	)
	ErrIssuerNameTooLong = newError(
		"IssuerNameTooLong",
		KindValidation,
		"issuer name exceeds 64 bytes",
	)
	ErrRecipientNameTooLong = newError(
		"RecipientNameTooLong",
		KindValidation,
		"recipient name exceeds 64 bytes",
	)
	ErrEmptyRequiredField = newError(
		"EmptyRequiredField",
		KindValidation,
		"required field cannot be empty",
	)
	ErrInvalidIpfsUri = newError(
		"InvalidIpfsUri",
		KindValidation,
		"ipfs uri must start with ipfs:// or https://ipfs.io/ipfs/",
	)
	ErrInvalidCertificateId = newError(
		"InvalidCertificateId",
		KindState,
		"certificate id does not match the stored record",
	)
	ErrAlreadyVerified = newError(
		"AlreadyVerified",
		KindState,
		"certificate already verified",
	)
	ErrUnauthorizedVerifier = newError(
		"UnauthorizedVerifier",
		KindAuthorization,
		"caller may not verify this certificate",
	)
	ErrUnauthorizedUpdater = newError(
		"UnauthorizedUpdater",
		KindAuthorization,
		"caller may not update platform settings",
	)
	ErrInactiveCertificate = newError(
		"InactiveCertificate",
		KindState,
		"certificate is inactive",
	)
	ErrNotCertificateOwner = newError(
		"NotCertificateOwner",
		KindAuthorization,
		"caller is not the certificate owner",
	)
	ErrSameOwner = newError(
		"SameOwner",
		KindState,
		"new owner is the same as the current owner",
	)
	// ErrCertificateNotVerified is reserved. No operation raises it yet.
	ErrCertificateNotVerified = newError(
		"CertificateNotVerified",
		KindState,
		"certificate has not been verified",
	)
	ErrInvalidPlatformAccount = newError(
		"InvalidPlatformAccount",
		KindAuthorization,
		"platform account does not match the platform authority",
	)
	ErrNumericalOverflow = newError(
		"NumericalOverflow",
		KindArithmetic,
		"numerical overflow",
	)
	ErrInvalidPlatformFee = newError(
		"InvalidPlatformFee",
		KindAuthorization,
		"platform fee outside the accepted range",
	)
	ErrNotInitialized = newError(
		"NotInitialized",
		KindState,
		"the registry has not been initialized",
	)
	ErrCertificateNotFound = newError(
		"CertificateNotFound",
		KindState,
		"certificate not found",
	)
	ErrReceiptNotFound = newError(
		"ReceiptNotFound",
		KindState,
		"transfer receipt not found",
	)
)

// AllErrors lists every registry error
var AllErrors = []*Error{
	ErrAlreadyInitialized,
	ErrTitleTooLong,
	ErrDescTooLong,
	ErrIssuerNameTooLong,
	ErrRecipientNameTooLong,
	ErrEmptyRequiredField,
	ErrInvalidIpfsUri,
	ErrInvalidCertificateId,
	ErrAlreadyVerified,
	ErrUnauthorizedVerifier,
	ErrUnauthorizedUpdater,
	ErrInactiveCertificate,
	ErrNotCertificateOwner,
	ErrSameOwner,
	ErrCertificateNotVerified,
	ErrInvalidPlatformAccount,
	ErrNumericalOverflow,
	ErrInvalidPlatformFee,
	ErrNotInitialized,
	ErrCertificateNotFound,
	ErrReceiptNotFound,
}

// ErrorCode returns the registry error code carried by err, or "" when err
// is not a registry error
func ErrorCode(err error) string {
	var regErr *Error
	if errors.As(err, &regErr) {
		return regErr.Code
	}
	return ""
}
