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

package config

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/blinklabs-io/certreg/database/plugin"
)

type nopPlugin struct{}

func (nopPlugin) Start() error { return nil }
func (nopPlugin) Stop() error  { return nil }

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	tmpFile := filepath.Join(t.TempDir(), "certreg.yaml")
	if err := os.WriteFile(tmpFile, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return tmpFile
}

func TestLoad_WithoutConfigFile_UsesDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if !reflect.DeepEqual(cfg, DefaultConfig()) {
		t.Errorf(
			"config mismatch without file:\nExpected: %+v\nGot:      %+v",
			DefaultConfig(),
			cfg,
		)
	}
	if GetConfig() != cfg {
		t.Errorf("expected GetConfig to return the loaded config")
	}
}

func TestLoad_CompareFullStruct(t *testing.T) {
	yamlContent := `
databasePath: "/var/lib/certreg"
blobPlugin: "badger"
metadataPlugin: "postgres"
bindAddr: "127.0.0.1"
apiPort: 9000
metricsPort: 0
jwtSecret: "s3cret"
tokenTtl: "1h"
minPlatformFee: 2
maxPlatformFee: 20
runMode: "dev"
shutdownTimeout: "5s"
tracingExporter: "otlp"
tracingEndpoint: "localhost:4318"
`
	expected := &Config{
		DatabasePath:    "/var/lib/certreg",
		BlobPlugin:      "badger",
		MetadataPlugin:  "postgres",
		BindAddr:        "127.0.0.1",
		ApiPort:         9000,
		MetricsPort:     0,
		JwtSecret:       "s3cret",
		TokenTtl:        "1h",
		MinPlatformFee:  2,
		MaxPlatformFee:  20,
		RunMode:         RunModeDev,
		ShutdownTimeout: "5s",
		TracingExporter: TracingExporterOtlp,
		TracingEndpoint: "localhost:4318",
	}

	actual, err := LoadConfig(writeConfigFile(t, yamlContent))
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if !reflect.DeepEqual(actual, expected) {
		t.Errorf(
			"Loaded config does not match expected.\nActual: %+v\nExpected: %+v",
			actual,
			expected,
		)
	}
	if actual.ApiListenAddress() != "127.0.0.1:9000" {
		t.Errorf("unexpected API address: %s", actual.ApiListenAddress())
	}
	if actual.MetricsListenAddress() != "" {
		t.Errorf("expected metrics to be disabled")
	}
}

func TestLoad_ConfigSection(t *testing.T) {
	yamlContent := `
config:
  apiPort: 8181
  runMode: dev
`
	cfg, err := LoadConfig(writeConfigFile(t, yamlContent))
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if cfg.ApiPort != 8181 {
		t.Errorf("expected apiPort 8181, got: %d", cfg.ApiPort)
	}
	if !cfg.RunMode.IsDevMode() {
		t.Errorf("expected dev mode, got: %s", cfg.RunMode)
	}
	// Untouched values keep their defaults
	if cfg.MetricsPort != 12798 {
		t.Errorf("expected default metricsPort, got: %d", cfg.MetricsPort)
	}
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	t.Setenv("CERTREG_API_PORT", "7070")
	t.Setenv("CERTREG_JWT_SECRET", "from-env")
	t.Setenv("CERTREG_DATABASE_METADATA_PLUGIN", "postgres")

	cfg, err := LoadConfig(writeConfigFile(t, "apiPort: 9000\n"))
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if cfg.ApiPort != 7070 {
		t.Errorf("expected apiPort from environment, got: %d", cfg.ApiPort)
	}
	secret, err := cfg.JwtSecretBytes()
	if err != nil || string(secret) != "from-env" {
		t.Errorf("unexpected JWT secret: %q (%v)", secret, err)
	}
	if cfg.MetadataPlugin != "postgres" {
		t.Errorf("expected metadata plugin from environment, got: %s", cfg.MetadataPlugin)
	}
}

func TestLoad_DatabasePluginSection(t *testing.T) {
	var dataDir string
	var cacheSize uint64
	plugin.Register(plugin.PluginEntry{
		Type: plugin.PluginTypeBlob,
		Name: "cfgtest",
		NewFromOptionsFunc: func(plugin.Environment) plugin.Plugin {
			return nopPlugin{}
		},
		Options: []plugin.PluginOption{
			{Name: "data-dir", Type: plugin.PluginOptionTypeString, Dest: &dataDir},
			{Name: "cache-size", Type: plugin.PluginOptionTypeUint, Dest: &cacheSize},
		},
	})
	yamlContent := `
database:
  blob:
    plugin: cfgtest
    cfgtest:
      data-dir: /tmp/blob
      cache-size: 1024
`
	cfg, err := LoadConfig(writeConfigFile(t, yamlContent))
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if cfg.BlobPlugin != "cfgtest" {
		t.Errorf("expected blob plugin cfgtest, got: %s", cfg.BlobPlugin)
	}
	if dataDir != "/tmp/blob" || cacheSize != 1024 {
		t.Errorf("plugin options not applied: data-dir=%q cache-size=%d", dataDir, cacheSize)
	}

	// Unknown plugin options are rejected
	_, err = LoadConfig(writeConfigFile(t, `
database:
  blob:
    cfgtest:
      bogus: 1
`))
	if err == nil || !strings.Contains(err.Error(), "unknown option") {
		t.Errorf("expected unknown option error, got: %v", err)
	}
}

func TestLoad_Invalid(t *testing.T) {
	testDefs := []struct {
		yaml   string
		errMsg string
	}{
		{"runMode: load\n", "invalid runMode"},
		{"minPlatformFee: 10\nmaxPlatformFee: 5\n", "exceeds maxPlatformFee"},
		{"tracingExporter: jaeger\n", "invalid tracingExporter"},
		{"shutdownTimeout: soon\n", "invalid shutdownTimeout"},
		{"tokenTtl: -1h\n", "must not be negative"},
		{"apiPort: [1]\n", "error parsing config file"},
	}
	for _, testDef := range testDefs {
		_, err := LoadConfig(writeConfigFile(t, testDef.yaml))
		if err == nil || !strings.Contains(err.Error(), testDef.errMsg) {
			t.Errorf(
				"config %q: expected error containing %q, got: %v",
				testDef.yaml,
				testDef.errMsg,
				err,
			)
		}
	}
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Errorf("expected error for missing config file")
	}
}

func TestDurations(t *testing.T) {
	cfg := DefaultConfig()
	shutdown, err := cfg.ShutdownTimeoutDuration()
	if err != nil || shutdown != 30*time.Second {
		t.Errorf("unexpected shutdown timeout: %s (%v)", shutdown, err)
	}
	ttl, err := cfg.TokenTtlDuration()
	if err != nil || ttl != 24*time.Hour {
		t.Errorf("unexpected token TTL: %s (%v)", ttl, err)
	}
	if _, err := cfg.JwtSecretBytes(); err != ErrMissingJwtSecret {
		t.Errorf("expected ErrMissingJwtSecret, got: %v", err)
	}
}

func TestContext(t *testing.T) {
	if FromContext(context.Background()) != nil {
		t.Errorf("expected no config in empty context")
	}
	cfg := DefaultConfig()
	if FromContext(WithContext(context.Background(), cfg)) != cfg {
		t.Errorf("expected config from context")
	}
}
