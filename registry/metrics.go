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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type registryMetrics struct {
	certificatesCreated prometheus.Counter
	verifications       prometheus.Counter
	transfers           prometheus.Counter
	feesCollected       prometheus.Counter
	failures            *prometheus.CounterVec
	latency             *prometheus.HistogramVec
	platformFee         prometheus.Gauge
	certificateCount    prometheus.Gauge
}

func (m *registryMetrics) init(promRegistry prometheus.Registerer) {
	// promauto.With(nil) creates unregistered collectors
	promautoFactory := promauto.With(promRegistry)
	m.certificatesCreated = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "certreg_certificates_created_total",
		Help: "certificates created",
	})
	m.verifications = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "certreg_certificates_verified_total",
		Help: "certificates verified",
	})
	m.transfers = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "certreg_certificate_transfers_total",
		Help: "completed certificate transfers",
	})
	m.feesCollected = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "certreg_platform_fees_collected_total",
		Help: "platform fees collected by transfers",
	})
	m.failures = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "certreg_operation_failures_total",
			Help: "failed registry operations by operation and error code",
		},
		[]string{"operation", "code"},
	)
	m.latency = promautoFactory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "certreg_operation_duration_seconds",
			Help:    "registry operation latency",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		},
		[]string{"operation"},
	)
	m.platformFee = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "certreg_platform_fee",
		Help: "current platform fee per transfer",
	})
	m.certificateCount = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "certreg_certificate_count",
		Help: "certificates issued so far",
	})
}
