package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "auction_house",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "auction_house",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "auction_house",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	activeAuctions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "auction_house",
			Subsystem: "auctions",
			Name:      "active",
			Help:      "Number of auctions currently in the registry.",
		},
	)

	auctionsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "auction_house",
			Subsystem: "auctions",
			Name:      "created_total",
			Help:      "Total number of auctions created.",
		},
	)

	bidsAccepted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "auction_house",
			Subsystem: "auctions",
			Name:      "bids_total",
			Help:      "Total number of accepted bids.",
		},
	)

	extensions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "auction_house",
			Subsystem: "auctions",
			Name:      "extensions_total",
			Help:      "Total number of end-time extensions triggered by late bids.",
		},
	)

	settlements = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "auction_house",
			Subsystem: "auctions",
			Name:      "settlements_total",
			Help:      "Total number of settled auctions by payout capability.",
		},
		[]string{"capability"},
	)

	cancellations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "auction_house",
			Subsystem: "auctions",
			Name:      "cancellations_total",
			Help:      "Total number of canceled auctions.",
		},
	)

	wrappedCredits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "auction_house",
			Subsystem: "escrow",
			Name:      "wrapped_credits_total",
			Help:      "Total number of refunds diverted to the wrapped fallback rail.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		activeAuctions,
		auctionsCreated,
		bidsAccepted,
		extensions,
		settlements,
		cancellations,
		wrappedCredits,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		path := canonicalPath(r.URL.Path)
		method := strings.ToUpper(r.Method)

		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	})
}

// RecordAuctionCreated counts a new auction.
func RecordAuctionCreated() {
	auctionsCreated.Inc()
	activeAuctions.Inc()
}

// RecordBid counts an accepted bid, and the extension it caused if any.
func RecordBid(extended bool) {
	bidsAccepted.Inc()
	if extended {
		extensions.Inc()
	}
}

// RecordSettlement counts a settled auction by payout capability.
func RecordSettlement(capability string) {
	if capability == "" {
		capability = "unknown"
	}
	settlements.WithLabelValues(capability).Inc()
	activeAuctions.Dec()
}

// RecordCancellation counts a canceled auction.
func RecordCancellation() {
	cancellations.Inc()
	activeAuctions.Dec()
}

// RecordWrappedCredit counts a refund that fell back to the wrapped rail.
func RecordWrappedCredit() { wrappedCredits.Inc() }

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

func canonicalPath(raw string) string {
	if raw == "" || raw == "/" {
		return "/"
	}
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return "/"
	}
	parts := strings.Split(trimmed, "/")
	if parts[0] != "v1" || len(parts) == 1 {
		return "/" + parts[0]
	}
	if parts[1] != "auctions" {
		return "/v1/" + parts[1]
	}
	switch len(parts) {
	case 2:
		return "/v1/auctions"
	case 3:
		return "/v1/auctions/:id"
	default:
		return "/v1/auctions/:id/" + parts[3]
	}
}
