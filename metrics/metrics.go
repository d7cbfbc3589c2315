// Package metrics records scan and API activity for Prometheus and, optionally,
// CloudWatch.
// File: metrics/metrics.go
package metrics

import (
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder implements scanner.Observer and apiclient.Observer.
type Recorder struct {
	registry *prometheus.Registry

	scans            *prometheus.CounterVec
	scanDuration     *prometheus.HistogramVec
	apiCalls         *prometheus.CounterVec
	apiDuration      *prometheus.HistogramVec
	scanningSessions prometheus.Gauge

	openSessions atomic.Int64
	cw           *CloudWatch
}

// New registers the gate's collectors on a private registry. cw may be nil.
func New(cw *CloudWatch) *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		scans: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gate_scans_total",
				Help: "Scan attempts by outcome and operator mode",
			},
			[]string{"outcome", "mode"},
		),
		scanDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gate_scan_duration_seconds",
				Help:    "Time from decoded payload to outcome",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"mode"},
		),
		apiCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gate_api_requests_total",
				Help: "Calls to the ticketing API by route and status",
			},
			[]string{"method", "route", "status"},
		),
		apiDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gate_api_request_duration_seconds",
				Help:    "Latency of calls to the ticketing API",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		scanningSessions: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "gate_scanning_sessions",
				Help: "Open scanner websocket connections",
			},
		),
		cw: cw,
	}
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry (tests gather from it).
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// ObserveScan records one finished scan attempt.
func (r *Recorder) ObserveScan(outcome, mode string, elapsed time.Duration) {
	r.scans.WithLabelValues(outcome, mode).Inc()
	r.scanDuration.WithLabelValues(mode).Observe(elapsed.Seconds())
	if r.cw != nil {
		go r.cw.PublishScan(outcome, mode, elapsed)
	}
}

// ObserveAPICall records one call to the ticketing API; status 0 is a transport error.
func (r *Recorder) ObserveAPICall(method, route string, status int, elapsed time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	r.apiCalls.WithLabelValues(method, route, label).Inc()
	r.apiDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ScanningSessionOpened counts a new scanner connection.
func (r *Recorder) ScanningSessionOpened() { r.sessionsChanged(1) }

// ScanningSessionClosed counts a closed scanner connection.
func (r *Recorder) ScanningSessionClosed() { r.sessionsChanged(-1) }

func (r *Recorder) sessionsChanged(delta int64) {
	n := r.openSessions.Add(delta)
	r.scanningSessions.Set(float64(n))
	if r.cw != nil {
		go r.cw.PublishScanningSessions(int(n))
	}
}
