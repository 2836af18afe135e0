package obs

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics groups Prometheus collectors for HTTP observability.
type HTTPMetrics struct {
	ReqTotal *prometheus.CounterVec
	ReqDur   *prometheus.HistogramVec
	InFlight prometheus.Gauge
}

// NewHTTPMetrics registers and returns HTTP metrics collectors. Collectors already
// registered under the same name are reused.
func NewHTTPMetrics(namespace string, buckets []float64, reg prometheus.Registerer) *HTTPMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if len(buckets) == 0 {
		buckets = []float64{1, 2, 5, 10, 25, 50, 100, 250, 500}
	} else {
		sort.Float64s(buckets)
	}
	return &HTTPMetrics{
		ReqTotal: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests handled by the server.",
		}, []string{"method", "route", "status"})),
		ReqDur: register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency distribution in milliseconds.",
			Buckets:   buckets,
		}, []string{"method", "route"})),
		InFlight: register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_in_flight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		})),
	}
}

// PricingMetrics counts what the pricing endpoints compute.
type PricingMetrics struct {
	PromotionEvaluations *prometheus.CounterVec
	SessionSummaries     prometheus.Counter
	SessionItems         prometheus.Histogram
	PromoCacheLookups    *prometheus.CounterVec
}

// NewPricingMetrics registers the pricing collectors.
func NewPricingMetrics(namespace string, reg prometheus.Registerer) *PricingMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &PricingMetrics{
		PromotionEvaluations: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "promotion_evaluations_total",
			Help:      "Promotion evaluations by promotion type and applicability.",
		}, []string{"type", "result"})),
		SessionSummaries: register(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_summaries_total",
			Help:      "Number of shopping-session summaries computed.",
		})),
		SessionItems: register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_items",
			Help:      "Line items per summarized session.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500},
		})),
		PromoCacheLookups: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "promotion_cache_lookups_total",
			Help:      "Promotion cache lookups by outcome.",
		}, []string{"result"})),
	}
}

// ObservePromotion records one evaluation. Nil receivers are ignored.
func (m *PricingMetrics) ObservePromotion(kind string, applicable bool) {
	if m == nil {
		return
	}
	result := "not_applicable"
	if applicable {
		result = "applicable"
	}
	m.PromotionEvaluations.WithLabelValues(kind, result).Inc()
}

// ObserveSession records one summarized session of n items.
func (m *PricingMetrics) ObserveSession(n int) {
	if m == nil {
		return
	}
	m.SessionSummaries.Inc()
	m.SessionItems.Observe(float64(n))
}

// ObserveCache records a cache hit, miss or error.
func (m *PricingMetrics) ObserveCache(result string) {
	if m == nil {
		return
	}
	m.PromoCacheLookups.WithLabelValues(result).Inc()
}

// ParseBucketsCSV converts a comma-separated list of bucket boundaries (milliseconds) into floats.
func ParseBucketsCSV(csv string) []float64 {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]float64, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil || v <= 0 {
			continue
		}
		out = append(out, v)
	}
	return out
}

// DurationMillis converts a duration to milliseconds for metric observation.
func DurationMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(fmt.Errorf("register collector: %w", err))
	}
	return c
}
