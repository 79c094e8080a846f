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
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/blinklabs-io/certreg/api"
	"github.com/blinklabs-io/certreg/database"
	"github.com/blinklabs-io/certreg/event"
	"github.com/blinklabs-io/certreg/registry"
)

type Node struct {
	db            *database.Database
	eventBus      *event.EventBus
	registry      *registry.Registry
	api           *api.Api
	shutdownFuncs []func(context.Context) error
	config        Config
	openOnce      sync.Once
	openErr       error
	shutdownOnce  sync.Once
}

func New(cfg Config) (*Node, error) {
	n := &Node{
		config:   cfg,
		eventBus: event.NewEventBus(cfg.promRegistry, cfg.logger),
	}
	if err := n.configValidate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return n, nil
}

// Open loads the database and the registry without starting any listeners.
// Run calls it implicitly.
func (n *Node) Open() error {
	n.openOnce.Do(func() {
		n.openErr = n.open()
	})
	return n.openErr
}

func (n *Node) open() error {
	// Configure tracing
	if n.config.tracing {
		if err := n.setupTracing(); err != nil {
			return err
		}
	}
	// Load database
	db, err := database.New(&database.Config{
		DataDir:        n.config.dataDir,
		Logger:         n.config.logger,
		PromRegistry:   n.config.promRegistry,
		BlobPlugin:     n.config.blobPlugin,
		MetadataPlugin: n.config.metadataPlugin,
	})
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		var dbErr database.CommitTimestampError
		if errors.As(err, &dbErr) {
			return fmt.Errorf(
				"database stores are out of sync, restore from backup: %w",
				err,
			)
		}
		return fmt.Errorf("failed to open database: %w", err)
	}
	n.db = db
	// Load registry
	reg, err := registry.New(registry.RegistryConfig{
		Logger:           n.config.logger,
		Database:         n.db,
		EventBus:         n.eventBus,
		PromRegistry:     n.config.promRegistry,
		PlatformFeeRange: n.config.feeRange,
	})
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	n.registry = reg
	return nil
}

// Registry returns the loaded registry. It is nil until Open succeeds
func (n *Node) Registry() *registry.Registry {
	return n.registry
}

// EventBus returns the event bus that registry events are published on
func (n *Node) EventBus() *event.EventBus {
	return n.eventBus
}

// ApiAddress returns the bound API address, or an empty string when the API
// is not running
func (n *Node) ApiAddress() string {
	if n.api == nil {
		return ""
	}
	if addr := n.api.Addr(); addr != nil {
		return addr.String()
	}
	return ""
}

// Run opens the node, starts the API and blocks until ctx is cancelled
func (n *Node) Run(ctx context.Context) error {
	if err := n.Open(); err != nil {
		return err
	}
	if n.config.apiListenAddress != "" {
		n.api = api.New(
			api.ApiConfig{
				ListenAddress: n.config.apiListenAddress,
				JwtSecret:     n.config.jwtSecret,
				DevMode:       n.config.isDevMode(),
			},
			n.registry,
			n.config.logger,
		)
		if err := n.api.Start(ctx); err != nil {
			return fmt.Errorf("failed to start API: %w", err)
		}
	}
	n.config.logger.Info(
		"certificate registry started",
		"component", "node",
		"run_mode", n.config.runMode,
	)
	// Wait for shutdown signal
	<-ctx.Done()
	return nil
}

func (n *Node) Stop() error {
	var err error
	n.shutdownOnce.Do(func() {
		err = n.shutdown()
	})
	return err
}

func (n *Node) shutdown() error {
	// Create shutdown context with timeout (default 30s if not configured)
	shutdownTimeout := 30 * time.Second
	if n.config.shutdownTimeout > 0 {
		shutdownTimeout = n.config.shutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var err error

	n.config.logger.Debug("starting graceful shutdown")

	// Phase 1: Stop accepting new work
	if n.api != nil {
		if stopErr := n.api.Stop(ctx); stopErr != nil {
			err = errors.Join(err, fmt.Errorf("api shutdown: %w", stopErr))
		}
	}

	// Phase 2: Deliver pending events
	n.eventBus.Stop()

	// Phase 3: Close database
	if n.db != nil {
		if closeErr := n.db.Close(); closeErr != nil {
			err = errors.Join(
				err,
				fmt.Errorf("database close: %w", closeErr),
			)
		}
	}

	// Phase 4: Flush tracing and other registered resources
	for _, fn := range n.shutdownFuncs {
		if fnErr := fn(ctx); fnErr != nil {
			err = errors.Join(err, fnErr)
		}
	}
	n.shutdownFuncs = nil

	n.config.logger.Debug("graceful shutdown complete")
	return err
}
