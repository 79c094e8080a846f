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
	"fmt"

	"github.com/blinklabs-io/certreg/address"
	"github.com/blinklabs-io/certreg/database"
	"github.com/blinklabs-io/certreg/identity"
	"go.opentelemetry.io/otel/attribute"
)

// UpdatePlatformSettings changes the platform fee. Only the platform
// authority may call it and the fee must fall within the configured range.
func (r *Registry) UpdatePlatformSettings(
	ctx context.Context,
	caller identity.Identity,
	newFee uint64,
) (*State, error) {
	var state *State
	var oldFee uint64
	err := r.run(
		ctx,
		opUpdateSettings,
		[]attribute.KeyValue{
			attribute.String("caller", caller.String()),
			attribute.Int64("platform_fee", int64(newFee)), //nolint:gosec
		},
		func(txn *database.Txn) error {
			var err error
			state, err = r.loadState(txn)
			if err != nil {
				return err
			}
			if caller != state.PlatformAuthority {
				return ErrUnauthorizedUpdater
			}
			if newFee < r.feeRange.Min ||
				newFee > r.feeRange.Max {
				return ErrInvalidPlatformFee
			}
			oldFee = state.PlatformFee
			state.PlatformFee = newFee
			if err := r.db.SetRecord(address.Registry(), state, txn); err != nil {
				return fmt.Errorf("store registry state: %w", err)
			}
			return nil
		},
	)
	if err != nil {
		return nil, err
	}
	r.metrics.platformFee.Set(float64(newFee))
	r.logger.Info(
		"platform settings updated",
		"old_fee", oldFee,
		"new_fee", newFee,
	)
	r.publish(
		PlatformSettingsUpdatedEventType,
		PlatformSettingsUpdatedEvent{OldFee: oldFee, NewFee: newFee},
	)
	return state, nil
}
