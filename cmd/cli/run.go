package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/anstrom/reconkit/internal/capture"
	"github.com/anstrom/reconkit/internal/config"
	"github.com/anstrom/reconkit/internal/events"
	"github.com/anstrom/reconkit/internal/logging"
	"github.com/anstrom/reconkit/internal/metrics"
	"github.com/anstrom/reconkit/internal/platform"
	"github.com/anstrom/reconkit/internal/scanning"
)

// progressStep is the percentage between two progress lines.
const progressStep = 10

// engineSet holds one instance of every engine, all publishing to one sink.
type engineSet struct {
	hosts   *scanning.HostScanner
	ports   *scanning.PortScanner
	capture *capture.Engine
}

func newEngines(cfg *config.Config, sink events.Sink, logger *logging.Logger, m *metrics.PrometheusMetrics) engineSet {
	limits := cfg.ScanLimits()
	return engineSet{
		hosts:   scanning.NewHostScanner(platform.NewHost(cfg.ProbeOptions(), logger), sink, limits, logger, m),
		ports:   scanning.NewPortScanner(sink, limits, logger, m),
		capture: capture.NewEngine(sink, cfg.Capture, logger, m),
	}
}

// stopAll stops every engine, waiting at most timeout in total.
func (e engineSet) stopAll(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var firstErr error
	for _, stop := range []func(context.Context) error{e.hosts.Stop, e.ports.Stop, e.capture.Stop} {
		if err := stop(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// signalContext is canceled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// runCollector gathers the results of a single scan run and signals its
// terminal event. It writes progress lines to out when out is non-nil.
type runCollector struct {
	mu       sync.Mutex
	out      io.Writer
	hosts    []platform.HostRecord
	ports    []uint16
	reported uint32
	final    events.Event
	done     chan struct{}
	once     sync.Once
}

func newRunCollector(progress io.Writer) *runCollector {
	return &runCollector{out: progress, done: make(chan struct{})}
}

// Emit implements events.Sink.
func (c *runCollector) Emit(e events.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch e.Kind {
	case events.IPScanDevice:
		if rec, ok := e.Data.(platform.HostRecord); ok {
			c.hosts = append(c.hosts, rec)
		}
	case events.PortScanPort:
		if hit, ok := e.Data.(events.PortHit); ok {
			c.ports = append(c.ports, hit.Port)
		}
	case events.IPScanProgress, events.PortScanProgress:
		if p, ok := e.Data.(events.Progress); ok && c.out != nil && p.Percent >= c.reported+progressStep {
			c.reported = p.Percent - p.Percent%progressStep
			fmt.Fprintf(c.out, "progress: %d%%\n", c.reported)
		}
	}

	if e.Kind.Terminal() {
		c.final = e
		c.once.Do(func() { close(c.done) })
	}
}

// wait blocks until the run ends. When ctx is canceled first the run is
// stopped through stop and its terminal event is still awaited.
func (c *runCollector) wait(ctx context.Context, stop func(context.Context) error, timeout time.Duration) (events.Event, error) {
	select {
	case <-c.done:
	case <-ctx.Done():
		stopCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := stop(stopCtx); err != nil {
			return events.Event{}, err
		}
		select {
		case <-c.done:
		case <-stopCtx.Done():
			return events.Event{}, stopCtx.Err()
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.final, nil
}

func (c *runCollector) hostResults() []platform.HostRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]platform.HostRecord(nil), c.hosts...)
}

func (c *runCollector) portResults() []uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]uint16(nil), c.ports...)
}
