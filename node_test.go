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

package certreg

import (
	"context"
	"testing"
	"time"

	"github.com/blinklabs-io/certreg/identity"
	"github.com/blinklabs-io/certreg/registry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidatesConfig(t *testing.T) {
	testDefs := []struct {
		name   string
		opts   []ConfigOptionFunc
		errMsg string
	}{
		{
			name:   "bad run mode",
			opts:   []ConfigOptionFunc{WithRunMode("load")},
			errMsg: "invalid run mode",
		},
		{
			name:   "inverted fee range",
			opts:   []ConfigOptionFunc{WithPlatformFeeRange(10, 2)},
			errMsg: "exceeds maximum",
		},
		{
			name:   "api without secret",
			opts:   []ConfigOptionFunc{WithApiListenAddress("127.0.0.1:0")},
			errMsg: "JWT secret",
		},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			_, err := New(NewConfig(testDef.opts...))
			require.ErrorContains(t, err, testDef.errMsg)
		})
	}
}

func TestZeroFeeRangeConfig(t *testing.T) {
	n, err := New(NewConfig(WithPlatformFeeRange(0, 0)))
	require.NoError(t, err)
	assert.Equal(t, &registry.FeeRange{}, n.config.feeRange)
	n, err = New(NewConfig())
	require.NoError(t, err)
	assert.Nil(t, n.config.feeRange)
}

func TestNodeOpen(t *testing.T) {
	n, err := New(NewConfig(
		WithPrometheusRegistry(prometheus.NewRegistry()),
		WithPlatformFeeRange(2, 8),
		WithRunMode(runModeDev),
	))
	require.NoError(t, err)
	assert.True(t, n.config.isDevMode())
	require.NoError(t, n.Open())
	require.NoError(t, n.Open())
	reg := n.Registry()
	require.NotNil(t, reg)
	minFee, maxFee := reg.FeeRange()
	assert.Equal(t, uint64(2), minFee)
	assert.Equal(t, uint64(8), maxFee)

	state, err := reg.Initialize(context.Background(), identity.Identity{0xaa})
	require.NoError(t, err)
	assert.Equal(t, registry.InitialPlatformFee, state.PlatformFee)

	require.NoError(t, n.Stop())
	require.NoError(t, n.Stop())
}

func TestNodeRunStopsOnCancel(t *testing.T) {
	n, err := New(NewConfig(
		WithPrometheusRegistry(prometheus.NewRegistry()),
		WithApiListenAddress("127.0.0.1:0"),
		WithJwtSecret([]byte("secret")),
		WithShutdownTimeout(5*time.Second),
	))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- n.Run(ctx)
	}()
	cancel()
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("node did not stop after context cancellation")
	}
	require.NoError(t, n.Stop())
	assert.Empty(t, n.ApiAddress())
}
