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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/blinklabs-io/certreg"
	"github.com/blinklabs-io/certreg/internal/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewNode builds a node from the loaded configuration without starting it
func NewNode(
	cfg *config.Config,
	logger *slog.Logger,
	opts ...certreg.ConfigOptionFunc,
) (*certreg.Node, error) {
	shutdownTimeout, err := cfg.ShutdownTimeoutDuration()
	if err != nil {
		return nil, err
	}
	nodeOpts := []certreg.ConfigOptionFunc{
		certreg.WithLogger(logger),
		certreg.WithDatabasePath(cfg.DatabasePath),
		certreg.WithBlobPlugin(cfg.BlobPlugin),
		certreg.WithMetadataPlugin(cfg.MetadataPlugin),
		certreg.WithPlatformFeeRange(cfg.MinPlatformFee, cfg.MaxPlatformFee),
		certreg.WithRunMode(string(cfg.RunMode)),
		certreg.WithShutdownTimeout(shutdownTimeout),
		// Enable metrics with default prometheus registry
		certreg.WithPrometheusRegistry(prometheus.DefaultRegisterer),
		certreg.WithTracing(cfg.TracingExporter != config.TracingExporterNone),
		certreg.WithTracingStdout(cfg.TracingExporter == config.TracingExporterStdout),
		certreg.WithTracingEndpoint(cfg.TracingEndpoint),
	}
	return certreg.New(certreg.NewConfig(append(nodeOpts, opts...)...))
}

// Run serves the registry API and metrics until SIGINT or SIGTERM
func Run(cfg *config.Config, logger *slog.Logger) error {
	logger.Debug(fmt.Sprintf("config: %+v", redacted(cfg)), "component", "node")
	secret, err := cfg.JwtSecretBytes()
	if err != nil {
		return err
	}
	shutdownTimeout, err := cfg.ShutdownTimeoutDuration()
	if err != nil {
		return err
	}
	n, err := NewNode(
		cfg,
		logger,
		certreg.WithApiListenAddress(cfg.ApiListenAddress()),
		certreg.WithJwtSecret(secret),
	)
	if err != nil {
		return err
	}

	// Metrics listener
	var metricsServer *http.Server
	if addr := cfg.MetricsListenAddress(); addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		logger.Info(
			"serving prometheus metrics on "+addr,
			"component",
			"node",
		)
		metricsServer = &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 60 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		}
	}

	// Wait for interrupt/termination signal
	signalCtx, signalCtxStop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer signalCtxStop()

	errChan := make(chan error, 2)
	if metricsServer != nil {
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil &&
				!errors.Is(err, http.ErrServerClosed) {
				errChan <- fmt.Errorf("metrics listener: %w", err)
			}
		}()
	}
	// Run node in goroutine
	go func() {
		//nolint:contextcheck
		if err := n.Run(signalCtx); err != nil {
			errChan <- err
		}
	}()

	var runErr error
	select {
	case <-signalCtx.Done():
		logger.Info("signal received, initiating graceful shutdown")
	case runErr = <-errChan:
		logger.Error("node error", "error", runErr)
		signalCtxStop()
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		shutdownTimeout,
	)
	defer cancel()
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", "error", err)
		}
	}
	if err := n.Stop(); err != nil {
		logger.Error("shutdown errors occurred", "error", err)
		return errors.Join(runErr, err)
	}
	if runErr == nil {
		logger.Info("shutdown complete")
	}
	return runErr
}

// redacted returns a copy of cfg that is safe to log
func redacted(cfg *config.Config) config.Config {
	ret := *cfg
	if ret.JwtSecret != "" {
		ret.JwtSecret = "<redacted>"
	}
	return ret
}
