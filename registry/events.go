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
	"github.com/blinklabs-io/certreg/event"
	"github.com/blinklabs-io/certreg/identity"
)

const (
	RegistryInitializedEventType     event.EventType = "registry.initialized"
	CertificateCreatedEventType      event.EventType = "certificate.created"
	CertificateVerifiedEventType     event.EventType = "certificate.verified"
	CertificateTransferredEventType  event.EventType = "certificate.transferred"
	PlatformSettingsUpdatedEventType event.EventType = "platform.settings_updated"
)

type RegistryInitializedEvent struct {
	PlatformAuthority identity.Identity
	PlatformFee       uint64
}

type CertificateCreatedEvent struct {
	Certificate Certificate
}

type CertificateVerifiedEvent struct {
	CertificateId uint64
	Verifier      identity.Identity
}

type CertificateTransferredEvent struct {
	Receipt Receipt
}

type PlatformSettingsUpdatedEvent struct {
	OldFee uint64
	NewFee uint64
}
