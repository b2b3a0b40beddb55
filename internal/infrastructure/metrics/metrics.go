package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collectors records selection, optimization and scrape activity.
// A nil *Collectors is valid and records nothing.
type Collectors struct {
	selections           *prometheus.CounterVec
	optimizations        *prometheus.CounterVec
	optimizationDuration *prometheus.HistogramVec
	scrapeFailures       *prometheus.CounterVec
}

// New registers the collectors on the provided registerer
func New(reg prometheus.Registerer) *Collectors {
	if reg == nil {
		return &Collectors{}
	}
	selections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "selection_total",
		Help: "Best-candidate selections by the stage that produced the pick.",
	}, []string{"outcome"})
	optimizations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "optimization_total",
		Help: "Cart optimization runs by search mode.",
	}, []string{"mode"})
	optimizationDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "optimization_duration_seconds",
		Help:    "Duration of cart optimization runs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"mode"})
	scrapeFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scrape_failures_total",
		Help: "Failed platform searches.",
	}, []string{"platform"})
	reg.MustRegister(selections, optimizations, optimizationDuration, scrapeFailures)
	return &Collectors{
		selections:           selections,
		optimizations:        optimizations,
		optimizationDuration: optimizationDuration,
		scrapeFailures:       scrapeFailures,
	}
}

// IncSelection counts one selection with the given outcome
func (c *Collectors) IncSelection(outcome string) {
	if c == nil || c.selections == nil {
		return
	}
	c.selections.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// ObserveOptimization counts one optimization run and records its duration
func (c *Collectors) ObserveOptimization(mode string, duration time.Duration) {
	if c == nil || c.optimizations == nil {
		return
	}
	label := normalizeLabel(mode)
	c.optimizations.WithLabelValues(label).Inc()
	c.optimizationDuration.WithLabelValues(label).Observe(duration.Seconds())
}

// IncScrapeFailure counts one failed search on platform
func (c *Collectors) IncScrapeFailure(platform string) {
	if c == nil || c.scrapeFailures == nil {
		return
	}
	c.scrapeFailures.WithLabelValues(normalizeLabel(platform)).Inc()
}

func normalizeLabel(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	return value
}
