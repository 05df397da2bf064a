// Package metrics holds the Prometheus collectors for scrapes, ranking and the HTTP surface.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "travel_scout"

// Metrics holds all application collectors
type Metrics struct {
	// Scrape metrics
	ScrapesTotal   *prometheus.CounterVec
	ScrapeDuration *prometheus.HistogramVec

	// Review signal metrics
	SignalFallbacks *prometheus.CounterVec
	SignalCache     *prometheus.CounterVec

	// Ranking metrics
	ListingsRanked prometheus.Counter
	RankingErrors  prometheus.Counter

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// New registers every collector on reg
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	m := &Metrics{}

	m.ScrapesTotal = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "flight_scrapes_total",
		Help:      "Flight link scrapes by terminal status",
	}, []string{"status"})

	m.ScrapeDuration = f.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "flight_scrape_duration_seconds",
		Help:      "Wall time of one flight link scrape",
		Buckets:   []float64{1, 5, 10, 20, 30, 45, 60, 90, 120},
	}, []string{"status"})

	m.SignalFallbacks = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "review_signal_fallbacks_total",
		Help:      "Review signals computed with a fallback, by tier",
	}, []string{"tier"})

	m.SignalCache = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "review_signal_cache_total",
		Help:      "Review signal cache lookups by result",
	}, []string{"result"})

	m.ListingsRanked = f.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "listings_ranked_total",
		Help:      "Listings scored by the ranker",
	})

	m.RankingErrors = f.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "listing_ranking_errors_total",
		Help:      "Listings that received the error score",
	})

	m.RequestsTotal = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route and status",
	}, []string{"method", "route", "status"})

	m.RequestDuration = f.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	return m
}

// ObserveScrape records one finished scrape
func (m *Metrics) ObserveScrape(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.ScrapesTotal.WithLabelValues(status).Inc()
	m.ScrapeDuration.WithLabelValues(status).Observe(d.Seconds())
}

// SignalFallback records a degraded review signal
func (m *Metrics) SignalFallback(tier string) {
	if m == nil {
		return
	}
	m.SignalFallbacks.WithLabelValues(tier).Inc()
}

// SignalCacheLookup records a cache hit or miss
func (m *Metrics) SignalCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.SignalCache.WithLabelValues(result).Inc()
}

// ListingScored records one ranked listing
func (m *Metrics) ListingScored(failed bool) {
	if m == nil {
		return
	}
	m.ListingsRanked.Inc()
	if failed {
		m.RankingErrors.Inc()
	}
}

// ObserveRequest records one served HTTP request
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
