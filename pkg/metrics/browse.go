package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// BrowseMetrics records fetch outcomes for the browse coordinator and gateway.
type BrowseMetrics struct {
	duration *prometheus.HistogramVec
	issued   *prometheus.CounterVec
	applied  *prometheus.CounterVec
	stale    *prometheus.CounterVec
	failed   *prometheus.CounterVec
}

// NewBrowseMetrics registers the browse metrics on the provided registerer.
func NewBrowseMetrics(reg prometheus.Registerer) *BrowseMetrics {
	if reg == nil {
		return &BrowseMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "browse_fetch_duration_seconds",
		Help:    "Duration of catalog fetches in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"resource"})
	issued := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "browse_fetch_issued",
		Help: "Catalog fetches started.",
	}, []string{"resource"})
	applied := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "browse_fetch_applied",
		Help: "Catalog responses applied to the displayed result set.",
	}, []string{"resource"})
	stale := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "browse_fetch_stale_discarded",
		Help: "Catalog responses discarded because a newer request superseded them.",
	}, []string{"resource"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "browse_fetch_failed",
		Help: "Catalog fetches that resolved with an error.",
	}, []string{"resource"})
	reg.MustRegister(duration, issued, applied, stale, failed)
	return &BrowseMetrics{
		duration: duration,
		issued:   issued,
		applied:  applied,
		stale:    stale,
		failed:   failed,
	}
}

// ObserveDuration records how long a fetch for the named resource took.
func (b *BrowseMetrics) ObserveDuration(resource string, duration time.Duration) {
	if b == nil || b.duration == nil {
		return
	}
	b.duration.WithLabelValues(normalizeLabel(resource)).Observe(duration.Seconds())
}

// IncIssued counts a fetch being started.
func (b *BrowseMetrics) IncIssued(resource string) {
	if b == nil || b.issued == nil {
		return
	}
	b.issued.WithLabelValues(normalizeLabel(resource)).Inc()
}

// IncApplied counts a response replacing the displayed result set.
func (b *BrowseMetrics) IncApplied(resource string) {
	if b == nil || b.applied == nil {
		return
	}
	b.applied.WithLabelValues(normalizeLabel(resource)).Inc()
}

// IncStale counts a response discarded by the token comparison.
func (b *BrowseMetrics) IncStale(resource string) {
	if b == nil || b.stale == nil {
		return
	}
	b.stale.WithLabelValues(normalizeLabel(resource)).Inc()
}

// IncFailed counts a fetch resolving with an error.
func (b *BrowseMetrics) IncFailed(resource string) {
	if b == nil || b.failed == nil {
		return
	}
	b.failed.WithLabelValues(normalizeLabel(resource)).Inc()
}

func normalizeLabel(value string) string {
	trimmed := strings.TrimSpace(strings.ToLower(value))
	if trimmed == "" {
		return "unknown"
	}
	return strings.ReplaceAll(trimmed, " ", "_")
}
