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
	"context"
	"errors"
	"fmt"

	"github.com/blinklabs-io/certreg/address"
	"github.com/blinklabs-io/certreg/database"
	"github.com/blinklabs-io/certreg/identity"
	"go.opentelemetry.io/otel/attribute"
)

// Initialize creates the registry singleton with caller as the platform
// authority. It fails with ErrAlreadyInitialized on every later call.
func (r *Registry) Initialize(
	ctx context.Context,
	caller identity.Identity,
) (*State, error) {
	var state *State
	err := r.run(
		ctx,
		opInitialize,
		[]attribute.KeyValue{
			attribute.String("caller", caller.String()),
		},
		func(txn *database.Txn) error {
			var existing State
			err := r.db.GetRecord(address.Registry(), &existing, txn)
			exists := err == nil
			if err != nil && !errors.Is(err, database.ErrRecordNotFound) {
				return fmt.Errorf("load registry state: %w", err)
			}
			if exists && existing.Initialized {
				return ErrAlreadyInitialized
			}
			state = &State{
				Initialized:       true,
				CertificateCount:  0,
				PlatformFee:       InitialPlatformFee,
				PlatformAuthority: caller,
			}
			if exists {
				return r.db.SetRecord(address.Registry(), state, txn)
			}
			return r.db.CreateRecord(address.Registry(), state, txn)
		},
	)
	if err != nil {
		return nil, err
	}
	r.metrics.platformFee.Set(float64(state.PlatformFee))
	r.metrics.certificateCount.Set(0)
	r.logger.Info(
		"registry initialized",
		"authority", caller.String(),
		"platform_fee", state.PlatformFee,
	)
	r.publish(
		RegistryInitializedEventType,
		RegistryInitializedEvent{
			PlatformAuthority: state.PlatformAuthority,
			PlatformFee:       state.PlatformFee,
		},
	)
	return state, nil
}
