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

package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/blinklabs-io/certreg/api"
	"github.com/blinklabs-io/certreg/identity"
	"github.com/blinklabs-io/certreg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testIdentityHex = "aa00000000000000000000000000000000000000000000000000000000000001"

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestListPlugins(t *testing.T) {
	shouldExit, output := listPlugins("list", "")
	assert.True(t, shouldExit)
	assert.Contains(t, output, "badger")
	assert.NotContains(t, output, "sqlite")

	shouldExit, output = listPlugins("list", "list")
	assert.True(t, shouldExit)
	assert.Contains(t, output, "sqlite")
	assert.Contains(t, output, "postgres")

	shouldExit, _ = listPlugins("badger", "sqlite")
	assert.False(t, shouldExit)
}

func TestListCommand(t *testing.T) {
	out, err := runCommand(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Blob Storage Plugins:")
	assert.Contains(t, out, "badger")
}

func TestVersionCommand(t *testing.T) {
	out, err := runCommand(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "certreg devel")
}

func TestTokenCommand(t *testing.T) {
	_, err := runCommand(t, "token", testIdentityHex)
	require.ErrorContains(t, err, "no JWT secret")

	t.Setenv("CERTREG_JWT_SECRET", "cli-secret")
	out, err := runCommand(t, "token", testIdentityHex, "--ttl", "1h")
	require.NoError(t, err)
	id, err := api.ParseToken([]byte("cli-secret"), string(bytes.TrimSpace([]byte(out))))
	require.NoError(t, err)
	assert.Equal(t, identity.MustParse(testIdentityHex), id)

	_, err = runCommand(t, "token", "not-an-identity")
	require.Error(t, err)
}

func TestInitCommand(t *testing.T) {
	t.Setenv("CERTREG_DATABASE_PATH", "")
	_, err := runCommand(t, "init")
	require.ErrorContains(t, err, `required flag(s) "as" not set`)

	out, err := runCommand(t, "init", "--as", testIdentityHex)
	require.NoError(t, err)
	var state registry.State
	require.NoError(t, json.Unmarshal([]byte(out), &state))
	assert.True(t, state.Initialized)
	assert.Equal(t, identity.MustParse(testIdentityHex), state.PlatformAuthority)
	assert.Equal(t, registry.InitialPlatformFee, state.PlatformFee)
}

func TestParseHelpers(t *testing.T) {
	id, err := parseCertificateId("42")
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)
	_, err = parseCertificateId("-1")
	require.Error(t, err)

	b, err := optionalBool("verified", "")
	require.NoError(t, err)
	assert.Nil(t, b)
	b, err = optionalBool("verified", "true")
	require.NoError(t, err)
	assert.True(t, *b)
	_, err = optionalBool("verified", "maybe")
	require.Error(t, err)

	owner, err := optionalIdentity("owner", testIdentityHex)
	require.NoError(t, err)
	assert.Equal(t, identity.MustParse(testIdentityHex), *owner)
}
