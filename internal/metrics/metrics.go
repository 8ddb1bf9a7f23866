// Package metrics exposes prometheus collectors for the entity store and
// the trash dashboard.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	RequestDuration *prometheus.HistogramVec
	LifecycleTotal  *prometheus.CounterVec
	TrashActions    *prometheus.CounterVec
	RefreshDuration prometheus.Histogram
	TrashItems      *prometheus.GaugeVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ypg",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		LifecycleTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ypg",
			Name:      "record_transitions_total",
			Help:      "Lifecycle transitions applied by the entity store.",
		}, []string{"category", "transition", "outcome"}),
		TrashActions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ypg",
			Name:      "trash_actions_total",
			Help:      "Restore and permanent delete requests issued by the dashboard.",
		}, []string{"category", "action", "outcome"}),
		RefreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ypg",
			Name:      "trash_refresh_duration_seconds",
			Help:      "Time to load deleted items across all categories.",
			Buckets:   prometheus.DefBuckets,
		}),
		TrashItems: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "ypg",
			Name:      "trash_items",
			Help:      "Deleted items held by the dashboard per category.",
		}, []string{"category"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.RequestDuration,
		m.LifecycleTotal,
		m.TrashActions,
		m.RefreshDuration,
		m.TrashItems,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func Outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
