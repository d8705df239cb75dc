// Package metrics provides Prometheus-based metrics collection for reconkit.
// Engines hold a *PrometheusMetrics and every method is safe on a nil receiver,
// so metrics stay optional for tests and embedded use.
package metrics

import (
	"context"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	// Namespace for all reconkit metrics
	namespace = "reconkit"

	// Subsystems
	subsystemScan    = "scan"
	subsystemCapture = "capture"
	subsystemSystem  = "system"
	subsystemAPI     = "api"
	subsystemEvents  = "events"
)

// Run outcomes used as the "outcome" label.
const (
	OutcomeCompleted = "completed"
	OutcomeStopped   = "stopped"
	OutcomeFailed    = "failed"
)

// HubStats is the view of the event hub sampled by UpdateSystemMetrics.
type HubStats interface {
	Subscribers() int
	Dropped() uint64
}

// PrometheusMetrics holds all Prometheus metric collectors
type PrometheusMetrics struct {
	// Run metrics
	runsStarted  *prometheus.CounterVec
	runsFinished *prometheus.CounterVec
	runDuration  *prometheus.HistogramVec
	activeRuns   *prometheus.GaugeVec
	rejected     *prometheus.CounterVec

	// Result metrics
	hostsDiscovered *prometheus.CounterVec
	portsOpen       prometheus.Counter

	// Capture metrics
	framesCaptured *prometheus.CounterVec
	captureErrors  *prometheus.CounterVec

	// API metrics
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	// Event stream metrics
	eventSubscribers prometheus.Gauge
	eventsDropped    prometheus.Gauge
	hub              HubStats

	// System metrics
	goroutines prometheus.Gauge
	uptime     prometheus.Gauge

	startTime time.Time
	mu        sync.RWMutex
	registry  *prometheus.Registry
}

// NewPrometheusMetrics creates a new Prometheus metrics instance with all collectors
func NewPrometheusMetrics() *PrometheusMetrics {
	registry := prometheus.NewRegistry()

	pm := &PrometheusMetrics{
		startTime: time.Now(),
		registry:  registry,
	}

	pm.initRunMetrics()
	pm.initCaptureMetrics()
	pm.initAPIMetrics()
	pm.initEventMetrics()
	pm.initSystemMetrics()

	pm.registerMetrics()

	// Register standard Go and process collectors for runtime visibility
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return pm
}

func (pm *PrometheusMetrics) initRunMetrics() {
	pm.runsStarted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemScan,
			Name:      "runs_started_total",
			Help:      "Runs accepted by engine kind",
		},
		[]string{"kind"},
	)

	pm.runsFinished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemScan,
			Name:      "runs_finished_total",
			Help:      "Runs finished by engine kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	pm.runDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystemScan,
			Name:      "run_duration_seconds",
			Help:      "Duration of engine runs in seconds",
			Buckets:   []float64{0.1, 0.5, 1.0, 5.0, 10.0, 30.0, 60.0, 300.0, 600.0},
		},
		[]string{"kind"},
	)

	pm.activeRuns = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystemScan,
			Name:      "active",
			Help:      "Whether a run of the given kind is active",
		},
		[]string{"kind"},
	)

	pm.rejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemScan,
			Name:      "rejected_total",
			Help:      "Start requests rejected by engine kind and error code",
		},
		[]string{"kind", "code"},
	)

	pm.hostsDiscovered = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemScan,
			Name:      "hosts_discovered_total",
			Help:      "Hosts emitted by discovery source",
		},
		[]string{"source"},
	)

	pm.portsOpen = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemScan,
			Name:      "ports_open_total",
			Help:      "Open ports reported by port scans",
		},
	)
}

func (pm *PrometheusMetrics) initCaptureMetrics() {
	pm.framesCaptured = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemCapture,
			Name:      "frames_total",
			Help:      "Frames summarized by capture backend",
		},
		[]string{"backend"},
	)

	pm.captureErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemCapture,
			Name:      "errors_total",
			Help:      "Capture warnings and errors by backend",
		},
		[]string{"backend"},
	)
}

func (pm *PrometheusMetrics) initAPIMetrics() {
	pm.httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemAPI,
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	pm.httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystemAPI,
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
}

func (pm *PrometheusMetrics) initEventMetrics() {
	pm.eventSubscribers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystemEvents,
			Name:      "subscribers",
			Help:      "Event stream observers currently attached",
		},
	)

	pm.eventsDropped = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystemEvents,
			Name:      "dropped",
			Help:      "Progress and packet events skipped for slow observers since startup",
		},
	)
}

func (pm *PrometheusMetrics) initSystemMetrics() {
	pm.goroutines = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystemSystem,
			Name:      "goroutines",
			Help:      "Number of goroutines",
		},
	)

	pm.uptime = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystemSystem,
			Name:      "uptime_seconds",
			Help:      "Process uptime in seconds",
		},
	)
}

func (pm *PrometheusMetrics) registerMetrics() {
	pm.registry.MustRegister(
		pm.runsStarted,
		pm.runsFinished,
		pm.runDuration,
		pm.activeRuns,
		pm.rejected,
		pm.hostsDiscovered,
		pm.portsOpen,
		pm.framesCaptured,
		pm.captureErrors,
		pm.httpRequests,
		pm.httpDuration,
		pm.eventSubscribers,
		pm.eventsDropped,
		pm.goroutines,
		pm.uptime,
	)
}

// GetRegistry returns the private registry holding every collector.
func (pm *PrometheusMetrics) GetRegistry() *prometheus.Registry {
	if pm == nil {
		return nil
	}
	return pm.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (pm *PrometheusMetrics) Handler() http.Handler {
	if pm == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(pm.registry, promhttp.HandlerOpts{Registry: pm.registry})
}

// RunStarted marks a run of kind as active.
func (pm *PrometheusMetrics) RunStarted(kind string) {
	if pm == nil {
		return
	}
	pm.runsStarted.WithLabelValues(kind).Inc()
	pm.activeRuns.WithLabelValues(kind).Set(1)
}

// RunFinished records the outcome and duration of a run of kind.
func (pm *PrometheusMetrics) RunFinished(kind, outcome string, duration time.Duration) {
	if pm == nil {
		return
	}
	pm.runsFinished.WithLabelValues(kind, outcome).Inc()
	pm.runDuration.WithLabelValues(kind).Observe(duration.Seconds())
	pm.activeRuns.WithLabelValues(kind).Set(0)
}

// StartRejected counts a start request refused with the given error code.
func (pm *PrometheusMetrics) StartRejected(kind, code string) {
	if pm == nil {
		return
	}
	pm.rejected.WithLabelValues(kind, code).Inc()
}

// HostDiscovered counts one host emitted from source (local, neighbor, probe).
func (pm *PrometheusMetrics) HostDiscovered(source string) {
	if pm == nil {
		return
	}
	pm.hostsDiscovered.WithLabelValues(source).Inc()
}

// PortOpen counts one open port.
func (pm *PrometheusMetrics) PortOpen() {
	if pm == nil {
		return
	}
	pm.portsOpen.Inc()
}

// FrameCaptured counts one summarized frame from backend.
func (pm *PrometheusMetrics) FrameCaptured(backend string) {
	if pm == nil {
		return
	}
	pm.framesCaptured.WithLabelValues(backend).Inc()
}

// CaptureError counts one capture warning or error from backend.
func (pm *PrometheusMetrics) CaptureError(backend string) {
	if pm == nil {
		return
	}
	pm.captureErrors.WithLabelValues(backend).Inc()
}

// IncrementHTTPRequests counts one served request.
func (pm *PrometheusMetrics) IncrementHTTPRequests(method, path, status string) {
	if pm == nil {
		return
	}
	pm.httpRequests.WithLabelValues(method, path, status).Inc()
}

// RecordHTTPDuration records request latency.
func (pm *PrometheusMetrics) RecordHTTPDuration(method, path string, duration time.Duration) {
	if pm == nil {
		return
	}
	pm.httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// WatchHub makes UpdateSystemMetrics sample h.
func (pm *PrometheusMetrics) WatchHub(h HubStats) {
	if pm == nil {
		return
	}
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.hub = h
}

// UpdateSystemMetrics refreshes the goroutine, uptime and event hub gauges.
func (pm *PrometheusMetrics) UpdateSystemMetrics() {
	if pm == nil {
		return
	}
	pm.mu.Lock()
	defer pm.mu.Unlock()

	pm.goroutines.Set(float64(runtime.NumGoroutine()))
	pm.uptime.Set(time.Since(pm.startTime).Seconds())
	if pm.hub != nil {
		pm.eventSubscribers.Set(float64(pm.hub.Subscribers()))
		pm.eventsDropped.Set(float64(pm.hub.Dropped()))
	}
}

// GetUptime returns how long the metrics instance has existed.
func (pm *PrometheusMetrics) GetUptime() time.Duration {
	if pm == nil {
		return 0
	}
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return time.Since(pm.startTime)
}

// StartPeriodicUpdates refreshes system metrics every interval until ctx is done.
func (pm *PrometheusMetrics) StartPeriodicUpdates(ctx context.Context, interval time.Duration) {
	if pm == nil {
		return
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				pm.UpdateSystemMetrics()
			}
		}
	}()
}
