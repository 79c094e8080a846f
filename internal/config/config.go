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
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"time"

	"github.com/blinklabs-io/certreg/database/plugin"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type ctxKey string

const configContextKey ctxKey = "certreg.config"

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

const (
	DefaultBlobPlugin      = "badger"
	DefaultMetadataPlugin  = "sqlite"
	DefaultShutdownTimeout = "30s"
	DefaultMinPlatformFee  = 1
	DefaultMaxPlatformFee  = 15
	DefaultTokenTtl        = "24h"

	envPrefix = "certreg"
)

var ErrMissingJwtSecret = errors.New(
	"no JWT secret configured (set jwtSecret or CERTREG_JWT_SECRET)",
)

// RunMode represents the operational mode of the registry service
type RunMode string

const (
	RunModeServe RunMode = "serve" // Normal operation (default)
	RunModeDev   RunMode = "dev"   // Enables the airdrop faucet
)

// Valid returns true if the RunMode is a known valid mode
func (m RunMode) Valid() bool {
	switch m {
	case RunModeServe, RunModeDev, "":
		return true
	default:
		return false
	}
}

func (m RunMode) IsDevMode() bool {
	return m == RunModeDev
}

// TracingExporter selects where OpenTelemetry spans are sent
type TracingExporter string

const (
	TracingExporterNone   TracingExporter = ""
	TracingExporterOtlp   TracingExporter = "otlp"
	TracingExporterStdout TracingExporter = "stdout"
)

type tempConfig struct {
	Config   *yaml.Node                `yaml:"config,omitempty"`
	Database *databaseConfig           `yaml:"database,omitempty"`
	Blob     map[string]map[string]any `yaml:"blob,omitempty"`
	Metadata map[string]map[string]any `yaml:"metadata,omitempty"`
}

type databaseConfig struct {
	Blob     map[string]any `yaml:"blob,omitempty"`
	Metadata map[string]any `yaml:"metadata,omitempty"`
}

type Config struct {
	DatabasePath    string          `yaml:"databasePath"    split_words:"true"`
	BlobPlugin      string          `yaml:"blobPlugin"      envconfig:"CERTREG_DATABASE_BLOB_PLUGIN"`
	MetadataPlugin  string          `yaml:"metadataPlugin"  envconfig:"CERTREG_DATABASE_METADATA_PLUGIN"`
	BindAddr        string          `yaml:"bindAddr"        split_words:"true"`
	ApiPort         uint            `yaml:"apiPort"         split_words:"true"`
	MetricsPort     uint            `yaml:"metricsPort"     split_words:"true"`
	JwtSecret       string          `yaml:"jwtSecret"       split_words:"true"`
	TokenTtl        string          `yaml:"tokenTtl"        split_words:"true"`
	MinPlatformFee  uint64          `yaml:"minPlatformFee"  split_words:"true"`
	MaxPlatformFee  uint64          `yaml:"maxPlatformFee"  split_words:"true"`
	RunMode         RunMode         `yaml:"runMode"         envconfig:"CERTREG_RUN_MODE"`
	ShutdownTimeout string          `yaml:"shutdownTimeout" split_words:"true"`
	TracingExporter TracingExporter `yaml:"tracingExporter" split_words:"true"`
	// OTLP HTTP endpoint (host:port). The exporter default applies when empty
	TracingEndpoint string `yaml:"tracingEndpoint" split_words:"true"`
}

// DefaultConfig returns a Config populated with the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		DatabasePath:    ".certreg",
		BlobPlugin:      DefaultBlobPlugin,
		MetadataPlugin:  DefaultMetadataPlugin,
		BindAddr:        "0.0.0.0",
		ApiPort:         8080,
		MetricsPort:     12798,
		TokenTtl:        DefaultTokenTtl,
		MinPlatformFee:  DefaultMinPlatformFee,
		MaxPlatformFee:  DefaultMaxPlatformFee,
		RunMode:         RunModeServe,
		ShutdownTimeout: DefaultShutdownTimeout,
	}
}

// ApiListenAddress returns the host:port the REST API binds to
func (c *Config) ApiListenAddress() string {
	return fmt.Sprintf("%s:%d", c.BindAddr, c.ApiPort)
}

// MetricsListenAddress returns the host:port of the prometheus endpoint, or
// an empty string when metrics are disabled
func (c *Config) MetricsListenAddress() string {
	if c.MetricsPort == 0 {
		return ""
	}
	return fmt.Sprintf("%s:%d", c.BindAddr, c.MetricsPort)
}

func (c *Config) JwtSecretBytes() ([]byte, error) {
	if c.JwtSecret == "" {
		return nil, ErrMissingJwtSecret
	}
	return []byte(c.JwtSecret), nil
}

func (c *Config) ShutdownTimeoutDuration() (time.Duration, error) {
	return parseDuration("shutdownTimeout", c.ShutdownTimeout)
}

func (c *Config) TokenTtlDuration() (time.Duration, error) {
	return parseDuration("tokenTtl", c.TokenTtl)
}

func parseDuration(name string, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, value, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s %q: must not be negative", name, value)
	}
	return d, nil
}

// Validate checks the loaded configuration for values that cannot work
func (c *Config) Validate() error {
	if !c.RunMode.Valid() {
		return fmt.Errorf(
			"invalid runMode: %q (must be 'serve' or 'dev')",
			c.RunMode,
		)
	}
	if c.MinPlatformFee > c.MaxPlatformFee {
		return fmt.Errorf(
			"minPlatformFee (%d) exceeds maxPlatformFee (%d)",
			c.MinPlatformFee,
			c.MaxPlatformFee,
		)
	}
	switch c.TracingExporter {
	case TracingExporterNone, TracingExporterOtlp, TracingExporterStdout:
	default:
		return fmt.Errorf(
			"invalid tracingExporter: %q (must be 'otlp' or 'stdout')",
			c.TracingExporter,
		)
	}
	if _, err := c.ShutdownTimeoutDuration(); err != nil {
		return err
	}
	if _, err := c.TokenTtlDuration(); err != nil {
		return err
	}
	return nil
}

var globalConfig = DefaultConfig()

// LoadConfig builds the configuration from defaults, the YAML config file
// and the environment, in that order of precedence
func LoadConfig(configFile string) (*Config, error) {
	cfg := DefaultConfig()
	if configFile == "" {
		configFile = findConfigFile()
	}
	if configFile != "" {
		if err := loadConfigFile(configFile, cfg); err != nil {
			return nil, err
		}
	}
	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}
	if err := plugin.ProcessEnvVars(); err != nil {
		return nil, fmt.Errorf(
			"error processing plugin environment variables: %w",
			err,
		)
	}
	if cfg.RunMode == "" {
		cfg.RunMode = RunModeServe
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	globalConfig = cfg
	return cfg, nil
}

func GetConfig() *Config {
	return globalConfig
}

// findConfigFile checks ~/.certreg/certreg.yaml then /etc/certreg/certreg.yaml
func findConfigFile() string {
	if homeDir, err := os.UserHomeDir(); err == nil {
		userPath := filepath.Join(homeDir, ".certreg", "certreg.yaml")
		if _, err := os.Stat(userPath); err == nil {
			return userPath
		}
	}
	systemPath := "/etc/certreg/certreg.yaml"
	if _, err := os.Stat(systemPath); err == nil {
		return systemPath
	}
	return ""
}

func loadConfigFile(configFile string, cfg *Config) error {
	buf, err := os.ReadFile(configFile)
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}
	// First unmarshal into temp config to handle plugin sections
	var tempCfg tempConfig
	if err := yaml.Unmarshal(buf, &tempCfg); err != nil {
		return fmt.Errorf("error parsing config file: %w", err)
	}
	if tempCfg.Config != nil {
		// Overlay the config section onto the defaults
		if err := tempCfg.Config.Decode(cfg); err != nil {
			return fmt.Errorf("error parsing config section: %w", err)
		}
	} else if err := yaml.Unmarshal(buf, cfg); err != nil {
		return fmt.Errorf("error parsing config file: %w", err)
	}

	pluginConfig := make(map[string]map[string]map[string]any)
	if tempCfg.Blob != nil {
		pluginConfig["blob"] = tempCfg.Blob
	}
	if tempCfg.Metadata != nil {
		pluginConfig["metadata"] = tempCfg.Metadata
	}
	if tempCfg.Database != nil {
		if tempCfg.Database.Blob != nil {
			name, section := pluginSection("blob", tempCfg.Database.Blob)
			if name != "" {
				cfg.BlobPlugin = name
			}
			mergePluginSection(pluginConfig, "blob", section)
		}
		if tempCfg.Database.Metadata != nil {
			name, section := pluginSection("metadata", tempCfg.Database.Metadata)
			if name != "" {
				cfg.MetadataPlugin = name
			}
			mergePluginSection(pluginConfig, "metadata", section)
		}
	}
	if len(pluginConfig) > 0 {
		if err := plugin.ProcessConfig(pluginConfig); err != nil {
			return fmt.Errorf("error processing plugin config: %w", err)
		}
	}
	return nil
}

// pluginSection splits a database.<type> section into the selected plugin
// name and the per-plugin option maps
func pluginSection(
	pluginType string,
	section map[string]any,
) (string, map[string]map[string]any) {
	var name string
	ret := make(map[string]map[string]any)
	for k, v := range section {
		if k == "plugin" {
			if pluginName, ok := v.(string); ok {
				name = pluginName
				continue
			}
		}
		switch val := v.(type) {
		case map[string]any:
			ret[k] = val
		case map[any]any:
			stringAnyMap := make(map[string]any, len(val))
			for vk, vv := range val {
				if keyStr, ok := vk.(string); ok {
					stringAnyMap[keyStr] = vv
				}
			}
			ret[k] = stringAnyMap
		default:
			fmt.Fprintf(
				os.Stderr,
				"warning: skipping %s config entry %q: expected map, got %T\n",
				pluginType,
				k,
				v,
			)
		}
	}
	return name, ret
}

func mergePluginSection(
	pluginConfig map[string]map[string]map[string]any,
	pluginType string,
	section map[string]map[string]any,
) {
	if pluginConfig[pluginType] == nil {
		pluginConfig[pluginType] = section
		return
	}
	maps.Copy(pluginConfig[pluginType], section)
}
