// Copyright 2025 Atrium Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// GuardDecisionsTotal counts route guard outcomes (granted / denied / pending / unavailable)
	GuardDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "access_guard_decisions_total",
			Help: "Total number of route guard decisions by outcome",
		},
		[]string{"outcome"},
	)

	// ResolveRefreshTotal counts access resolutions by trigger (initial / refresh / retry)
	ResolveRefreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "access_resolve_refresh_total",
			Help: "Total number of access resolutions by trigger",
		},
		[]string{"trigger"},
	)

	// ResolveDurationSeconds measures access resolution latency
	ResolveDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "access_resolve_duration_seconds",
			Help:    "Duration of access resolutions in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~32s
		},
	)

	// CatalogCacheHitsTotal counts menu catalog cache hits
	CatalogCacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "access_catalog_cache_hits_total",
			Help: "Total number of menu catalog cache hits",
		},
	)

	// CatalogCacheMissesTotal counts menu catalog cache misses
	CatalogCacheMissesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "access_catalog_cache_misses_total",
			Help: "Total number of menu catalog cache misses",
		},
	)

	// accessMetricsOnce ensures metrics are registered only once
	accessMetricsOnce sync.Once
)

// SetupAccessMetrics registers all access-control metrics
func SetupAccessMetrics(registry *prometheus.Registry) {
	accessMetricsOnce.Do(func() {
		registry.MustRegister(
			GuardDecisionsTotal,
			ResolveRefreshTotal,
			ResolveDurationSeconds,
			CatalogCacheHitsTotal,
			CatalogCacheMissesTotal,
		)
	})
}

// RecordGuardDecision records a route guard outcome
func RecordGuardDecision(outcome string) {
	GuardDecisionsTotal.WithLabelValues(outcome).Inc()
}

// RecordResolve records one access resolution with its trigger and duration
func RecordResolve(trigger string, duration time.Duration) {
	ResolveRefreshTotal.WithLabelValues(trigger).Inc()
	ResolveDurationSeconds.Observe(duration.Seconds())
}

// RecordCatalogCache records a catalog cache lookup result
func RecordCatalogCache(hit bool) {
	if hit {
		CatalogCacheHitsTotal.Inc()
	} else {
		CatalogCacheMissesTotal.Inc()
	}
}
