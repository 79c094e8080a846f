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

package plugin_test

import (
	"errors"
	"testing"

	"github.com/blinklabs-io/certreg/database/plugin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type optionTestDests struct {
	dataDir   string
	cacheSize uint64
	workers   int
	gc        bool
}

func registerOptionTestPlugin(name string) *optionTestDests {
	dests := &optionTestDests{}
	plugin.Register(plugin.PluginEntry{
		Type:               plugin.PluginTypeMetadata,
		Name:               name,
		NewFromOptionsFunc: newMockPlugin,
		Options: []plugin.PluginOption{
			{Name: "data-dir", Type: plugin.PluginOptionTypeString, Dest: &dests.dataDir},
			{Name: "cache-size", Type: plugin.PluginOptionTypeUint, Dest: &dests.cacheSize},
			{Name: "workers", Type: plugin.PluginOptionTypeInt, Dest: &dests.workers},
			{Name: "gc", Type: plugin.PluginOptionTypeBool, Dest: &dests.gc},
		},
	})
	return dests
}

func TestSetPluginOption(t *testing.T) {
	name := "opt-" + t.Name()
	dests := registerOptionTestPlugin(name)

	require.NoError(t, plugin.SetPluginOption(plugin.PluginTypeMetadata, name, "data-dir", "/data"))
	assert.Equal(t, "/data", dests.dataDir)

	// Setting with wrong type should return an error
	assert.Error(t, plugin.SetPluginOption(plugin.PluginTypeMetadata, name, "data-dir", 123))

	// Uint accepts uint64 and non-negative int
	require.NoError(t, plugin.SetPluginOption(plugin.PluginTypeMetadata, name, "cache-size", uint64(100)))
	assert.Equal(t, uint64(100), dests.cacheSize)
	require.NoError(t, plugin.SetPluginOption(plugin.PluginTypeMetadata, name, "cache-size", 200))
	assert.Equal(t, uint64(200), dests.cacheSize)
	assert.Error(t, plugin.SetPluginOption(plugin.PluginTypeMetadata, name, "cache-size", -1))

	require.NoError(t, plugin.SetPluginOption(plugin.PluginTypeMetadata, name, "workers", 4))
	assert.Equal(t, 4, dests.workers)

	require.NoError(t, plugin.SetPluginOption(plugin.PluginTypeMetadata, name, "gc", true))
	assert.True(t, dests.gc)

	// Unknown options are a no-op
	assert.NoError(t, plugin.SetPluginOption(plugin.PluginTypeMetadata, name, "does-not-exist", "x"))

	// Unknown plugin
	assert.Error(t, plugin.SetPluginOption(plugin.PluginTypeMetadata, "nonexistent", "data-dir", "x"))
}

func TestProcessConfig(t *testing.T) {
	name := "cfg-" + t.Name()
	dests := registerOptionTestPlugin(name)
	err := plugin.ProcessConfig(map[string]map[string]map[string]any{
		"metadata": {
			name: {
				"data-dir":   "/cfg",
				"cache-size": 5,
				"gc":         true,
			},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "/cfg", dests.dataDir)
	assert.Equal(t, uint64(5), dests.cacheSize)
	assert.True(t, dests.gc)

	err = plugin.ProcessConfig(map[string]map[string]map[string]any{
		"metadata": {name: {"bogus": 1}},
	})
	assert.Error(t, err)
	err = plugin.ProcessConfig(map[string]map[string]map[string]any{
		"bogus": {},
	})
	assert.Error(t, err)
}

func TestProcessEnvVars(t *testing.T) {
	name := "envtest"
	dests := registerOptionTestPlugin(name)
	assert.Equal(
		t,
		"CERTREG_DATABASE_METADATA_ENVTEST_CACHE_SIZE",
		plugin.EnvVarName(plugin.PluginTypeMetadata, name, "cache-size"),
	)
	t.Setenv("CERTREG_DATABASE_METADATA_ENVTEST_DATA_DIR", "/env")
	t.Setenv("CERTREG_DATABASE_METADATA_ENVTEST_CACHE_SIZE", "42")
	t.Setenv("CERTREG_DATABASE_METADATA_ENVTEST_WORKERS", "3")
	t.Setenv("CERTREG_DATABASE_METADATA_ENVTEST_GC", "true")
	require.NoError(t, plugin.ProcessEnvVars())
	assert.Equal(t, "/env", dests.dataDir)
	assert.Equal(t, uint64(42), dests.cacheSize)
	assert.Equal(t, 3, dests.workers)
	assert.True(t, dests.gc)

	t.Setenv("CERTREG_DATABASE_METADATA_ENVTEST_WORKERS", "many")
	assert.Error(t, plugin.ProcessEnvVars())
}

func TestErrorPlugin(t *testing.T) {
	testErr := errors.New("boom")
	name := "errplugin-" + t.Name()
	plugin.Register(plugin.PluginEntry{
		Type: plugin.PluginTypeBlob,
		Name: name,
		NewFromOptionsFunc: func(plugin.Environment) plugin.Plugin {
			return plugin.NewErrorPlugin(testErr)
		},
	})
	_, err := plugin.StartPlugin(plugin.PluginTypeBlob, name, plugin.Environment{})
	require.Error(t, err)
	assert.ErrorIs(t, err, testErr)
}
