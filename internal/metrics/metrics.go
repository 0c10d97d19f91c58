// Package metrics exposes Prometheus instrumentation for storage and services.
package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mmynk/weighttrack/internal/storage"
)

// Metrics holds the collectors registered by New.
type Metrics struct {
	StoreOps      *prometheus.CounterVec
	StoreDuration *prometheus.HistogramVec
	Migrations    *prometheus.CounterVec
	HTTPRequests  *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		StoreOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weighttrack",
			Subsystem: "store",
			Name:      "operations_total",
			Help:      "Document store operations by backend, domain, operation and result.",
		}, []string{"backend", "domain", "op", "result"}),
		StoreDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "weighttrack",
			Subsystem: "store",
			Name:      "operation_duration_seconds",
			Help:      "Latency of document store operations.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"backend", "op"}),
		Migrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weighttrack",
			Name:      "legacy_migrations_total",
			Help:      "Legacy files moved into the current layout, by domain.",
		}, []string{"domain"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weighttrack",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method and status code.",
		}, []string{"method", "code"}),
	}
	reg.MustRegister(m.StoreOps, m.StoreDuration, m.Migrations, m.HTTPRequests)
	return m
}

// MigrationDone records one migrated legacy document.
func (m *Metrics) MigrationDone(domain storage.Domain) {
	if m == nil {
		return
	}
	m.Migrations.WithLabelValues(string(domain)).Inc()
}

// Ensure instrumentedStore implements storage.Store
var _ storage.Store = (*instrumentedStore)(nil)

type instrumentedStore struct {
	next    storage.Store
	backend string
	m       *Metrics
}

// InstrumentStore wraps next so every operation is counted and timed.
func InstrumentStore(next storage.Store, backend string, m *Metrics) storage.Store {
	return &instrumentedStore{next: next, backend: backend, m: m}
}

func (s *instrumentedStore) observe(domain storage.Domain, op string, start time.Time, err error) {
	result := "ok"
	switch {
	case errors.Is(err, storage.ErrNotFound):
		result = "not_found"
	case err != nil:
		result = "error"
	}
	s.m.StoreOps.WithLabelValues(s.backend, string(domain), op, result).Inc()
	s.m.StoreDuration.WithLabelValues(s.backend, op).Observe(time.Since(start).Seconds())
}

func (s *instrumentedStore) EnsureLayout(ctx context.Context) error {
	start := time.Now()
	err := s.next.EnsureLayout(ctx)
	s.observe("", "ensure_layout", start, err)
	return err
}

func (s *instrumentedStore) Get(ctx context.Context, domain storage.Domain, key string) ([]byte, error) {
	start := time.Now()
	data, err := s.next.Get(ctx, domain, key)
	s.observe(domain, "get", start, err)
	return data, err
}

func (s *instrumentedStore) Put(ctx context.Context, domain storage.Domain, key string, data []byte) error {
	start := time.Now()
	err := s.next.Put(ctx, domain, key, data)
	s.observe(domain, "put", start, err)
	return err
}

func (s *instrumentedStore) Close() error {
	return s.next.Close()
}
