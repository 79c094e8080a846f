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

package node

import (
	"io"
	"log/slog"
	"testing"

	"github.com/blinklabs-io/certreg/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNode(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.DatabasePath = ""
	cfg.MinPlatformFee = 3
	cfg.MaxPlatformFee = 9
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	n, err := NewNode(cfg, logger)
	require.NoError(t, err)
	require.NoError(t, n.Open())
	minFee, maxFee := n.Registry().FeeRange()
	assert.Equal(t, uint64(3), minFee)
	assert.Equal(t, uint64(9), maxFee)
	require.NoError(t, n.Stop())

	cfg.ShutdownTimeout = "never"
	_, err = NewNode(cfg, logger)
	require.ErrorContains(t, err, "invalid shutdownTimeout")
}

func TestRunRequiresJwtSecret(t *testing.T) {
	cfg := config.DefaultConfig()
	err := Run(cfg, slog.New(slog.NewJSONHandler(io.Discard, nil)))
	require.ErrorIs(t, err, config.ErrMissingJwtSecret)
}

func TestRedacted(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.JwtSecret = "hunter2"
	assert.Equal(t, "<redacted>", redacted(cfg).JwtSecret)
	assert.Equal(t, "hunter2", cfg.JwtSecret)
}
