package observability

import (
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/danmuck/kmodctl/internal/kmod"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	ResultOK    = "ok"
	ResultError = "error"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kmodctl",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "kmodctl",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
	moduleReads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kmodctl",
			Subsystem: "module",
			Name:      "reads_total",
			Help:      "Knowledge module reads by outcome and failure kind.",
		},
		[]string{"result", "kind"},
	)
	moduleWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kmodctl",
			Subsystem: "module",
			Name:      "writes_total",
			Help:      "Knowledge module writes by outcome.",
		},
		[]string{"result"},
	)
	headerBytes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "kmodctl",
			Subsystem: "module",
			Name:      "header_bytes",
			Help:      "Size of decoded module headers.",
			Buckets:   prometheus.ExponentialBuckets(18, 2, 8),
		},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, moduleReads, moduleWrites, headerBytes)
	})
}

func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
}

// RecordModuleRead counts a read outcome. Errors outside the framing
// taxonomy are labelled "content".
func RecordModuleRead(err error) {
	RegisterMetrics()
	if err == nil {
		moduleReads.WithLabelValues(ResultOK, kmod.KindNone.String()).Inc()
		return
	}
	moduleReads.WithLabelValues(ResultError, ReadErrorKind(err)).Inc()
}

func RecordModuleWrite(err error) {
	RegisterMetrics()
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	moduleWrites.WithLabelValues(result).Inc()
}

func RecordHeader(h kmod.Header) {
	RegisterMetrics()
	headerBytes.Observe(float64(h.Len()))
}

// ReadErrorKind names the failure kind of a module read.
func ReadErrorKind(err error) string {
	var kerr *kmod.Error
	if errors.As(err, &kerr) {
		return kerr.Kind.String()
	}
	return "content"
}
