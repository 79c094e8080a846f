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
	"io"
	"log/slog"
	"time"

	"github.com/blinklabs-io/certreg/address"
	"github.com/blinklabs-io/certreg/database"
	"github.com/blinklabs-io/certreg/event"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/raulk/clock"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/blinklabs-io/certreg/registry"

const (
	opInitialize     = "initialize"
	opCreate         = "create_certificate"
	opVerify         = "verify_certificate"
	opTransfer       = "transfer_certificate"
	opUpdateSettings = "update_platform_settings"
)

type RegistryConfig struct {
	Logger         *slog.Logger
	Database       *database.Database
	EventBus       *event.EventBus
	PromRegistry   prometheus.Registerer
	TracerProvider trace.TracerProvider
	Clock          clock.Clock
	// PlatformFeeRange bounds UpdatePlatformSettings. Nil selects
	// DefaultMinPlatformFee..DefaultMaxPlatformFee.
	PlatformFeeRange *FeeRange
}

// FeeRange is an inclusive platform fee range
type FeeRange struct {
	Min uint64
	Max uint64
}

// Registry runs the certificate registry operations against a database.
// Every mutating operation executes in a single database transaction.
type Registry struct {
	config   RegistryConfig
	feeRange FeeRange
	db       *database.Database
	logger   *slog.Logger
	clock    clock.Clock
	tracer   trace.Tracer
	metrics  registryMetrics
}

func New(cfg RegistryConfig) (*Registry, error) {
	if cfg.Database == nil {
		return nil, errors.New("registry requires a database")
	}
	if cfg.Logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if cfg.TracerProvider == nil {
		cfg.TracerProvider = otel.GetTracerProvider()
	}
	feeRange := FeeRange{
		Min: DefaultMinPlatformFee,
		Max: DefaultMaxPlatformFee,
	}
	if cfg.PlatformFeeRange != nil {
		feeRange = *cfg.PlatformFeeRange
	}
	if feeRange.Min > feeRange.Max {
		return nil, fmt.Errorf(
			"invalid platform fee range: min %d > max %d",
			feeRange.Min,
			feeRange.Max,
		)
	}
	r := &Registry{
		config:   cfg,
		feeRange: feeRange,
		db:       cfg.Database,
		logger:   cfg.Logger.With("component", "registry"),
		clock:    cfg.Clock,
		tracer:   cfg.TracerProvider.Tracer(tracerName),
	}
	r.metrics.init(cfg.PromRegistry)
	// Seed gauges from an existing registry
	state, err := r.State()
	if err != nil && !errors.Is(err, ErrNotInitialized) {
		return nil, err
	}
	if state != nil {
		r.metrics.platformFee.Set(float64(state.PlatformFee))
		r.metrics.certificateCount.Set(float64(state.CertificateCount))
	}
	return r, nil
}

// FeeRange returns the inclusive range accepted by UpdatePlatformSettings
func (r *Registry) FeeRange() (uint64, uint64) {
	return r.feeRange.Min, r.feeRange.Max
}

func (r *Registry) Database() *database.Database {
	return r.db
}

// run executes fn in a read-write transaction with tracing, metrics and
// failure logging around it
func (r *Registry) run(
	ctx context.Context,
	op string,
	attrs []attribute.KeyValue,
	fn func(*database.Txn) error,
) error {
	ctx, span := r.tracer.Start(
		ctx,
		"registry."+op,
		trace.WithAttributes(attrs...),
	)
	defer span.End()
	start := time.Now()
	err := r.db.Update(fn)
	r.metrics.latency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		code := ErrorCode(err)
		if code == "" {
			code = "internal"
		}
		r.metrics.failures.WithLabelValues(op, code).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, code)
		r.logger.DebugContext(
			ctx,
			"operation failed",
			"operation", op,
			"code", code,
			"error", err,
		)
		return err
	}
	return nil
}

func (r *Registry) publish(eventType event.EventType, data any) {
	if r.config.EventBus == nil {
		return
	}
	r.config.EventBus.Publish(
		eventType,
		event.Event{
			Type:      eventType,
			Timestamp: r.clock.Now(),
			Data:      data,
		},
	)
}

func (r *Registry) loadState(txn *database.Txn) (*State, error) {
	var state State
	if err := r.db.GetRecord(address.Registry(), &state, txn); err != nil {
		if errors.Is(err, database.ErrRecordNotFound) {
			return nil, ErrNotInitialized
		}
		return nil, fmt.Errorf("load registry state: %w", err)
	}
	if !state.Initialized {
		return nil, ErrNotInitialized
	}
	return &state, nil
}

func (r *Registry) loadCertificate(
	txn *database.Txn,
	certId uint64,
) (*Certificate, error) {
	var cert Certificate
	err := r.db.GetRecord(address.Certificate(certId), &cert, txn)
	if err != nil {
		if errors.Is(err, database.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrCertificateNotFound, certId)
		}
		return nil, fmt.Errorf("load certificate %d: %w", certId, err)
	}
	return &cert, nil
}

func (r *Registry) saveCertificate(txn *database.Txn, cert *Certificate) error {
	if err := r.db.SetRecord(cert.Address(), cert, txn); err != nil {
		return fmt.Errorf("store certificate %d: %w", cert.CertificateId, err)
	}
	if err := r.db.SetCertificateIndex(cert.indexModel(), txn); err != nil {
		return fmt.Errorf("index certificate %d: %w", cert.CertificateId, err)
	}
	return nil
}
