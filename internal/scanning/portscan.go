package scanning

import (
	"context"
	"net"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/anstrom/reconkit/internal/errors"
	"github.com/anstrom/reconkit/internal/events"
	"github.com/anstrom/reconkit/internal/logging"
	"github.com/anstrom/reconkit/internal/metrics"
	"github.com/anstrom/reconkit/internal/netaddr"
)

// PortScanRequest starts a TCP connect scan against one target.
type PortScanRequest struct {
	Target    string `json:"target" validate:"required"`
	Ports     string `json:"ports" validate:"required"`
	TimeoutMS int    `json:"timeout_ms,omitempty" validate:"omitempty,min=0"`
}

// Resolver looks up the addresses of a host name.
type Resolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// DialFunc opens a connection; it matches net.Dialer.DialContext.
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// PortScanner probes TCP ports on a single resolved target.
type PortScanner struct {
	lifecycle *Lifecycle
	metrics   *metrics.PrometheusMetrics
	cfg       Config
	resolver  Resolver
	dial      DialFunc
}

// NewPortScanner creates an idle port scanner using the system resolver.
func NewPortScanner(sink events.Sink, cfg Config, logger *logging.Logger, m *metrics.PrometheusMetrics) *PortScanner {
	return &PortScanner{
		lifecycle: NewLifecycle(KindPortScan, sink, logger, m),
		metrics:   m,
		cfg:       cfg.withDefaults(),
		resolver:  net.DefaultResolver,
		dial:      (&net.Dialer{}).DialContext,
	}
}

// WithResolver replaces the name resolver.
func (s *PortScanner) WithResolver(r Resolver) *PortScanner {
	s.resolver = r
	return s
}

// WithDialer replaces the connect function.
func (s *PortScanner) WithDialer(d DialFunc) *PortScanner {
	s.dial = d
	return s
}

// Timeout returns the connect timeout applied for a requested value in
// milliseconds. Zero or negative selects the default.
func (s *PortScanner) Timeout(ms int) time.Duration {
	if ms <= 0 {
		return s.cfg.PortTimeout
	}
	return s.cfg.clampPortTimeout(time.Duration(ms) * time.Millisecond)
}

// Start validates the port list, resolves the target and launches the scan
// in the background. Errors are returned before any probe is sent.
func (s *PortScanner) Start(ctx context.Context, req PortScanRequest) (string, error) {
	ports, err := netaddr.ParsePorts(req.Ports)
	if err != nil {
		err = errors.ErrInvalidPorts(req.Ports, err)
		s.lifecycle.Reject(err)
		return "", err
	}

	addr, err := s.resolve(ctx, req.Target)
	if err != nil {
		s.lifecycle.Reject(err)
		return "", err
	}

	run, err := s.lifecycle.Begin()
	if err != nil {
		return "", err
	}

	go s.run(run, req.Target, addr, ports, s.Timeout(req.TimeoutMS))
	return run.ID, nil
}

// Stop cancels the active scan and waits for its workers to drain.
func (s *PortScanner) Stop(ctx context.Context) error {
	return s.lifecycle.Stop(ctx)
}

// Running reports whether a scan is active.
func (s *PortScanner) Running() bool {
	return s.lifecycle.Running()
}

// Status describes the scanner's current run.
func (s *PortScanner) Status() Status {
	return s.lifecycle.Status()
}

func (s *PortScanner) resolve(ctx context.Context, target string) (net.IP, error) {
	if target == "" {
		return nil, errors.ErrInvalidTarget(target, nil)
	}
	if ip := net.ParseIP(target); ip != nil {
		return ip, nil
	}

	addrs, err := s.resolver.LookupIPAddr(ctx, target)
	if err != nil {
		return nil, errors.ErrInvalidTarget(target, err)
	}
	if len(addrs) == 0 {
		return nil, errors.ErrInvalidTarget(target, nil)
	}
	return addrs[0].IP, nil
}

func (s *PortScanner) run(r *Run, target string, ip net.IP, ports netaddr.PortSet, timeout time.Duration) {
	log := r.Logger()
	total := uint64(len(ports))
	log.InfoScan("Port scan started", target,
		"address", ip.String(), "ports", total, "timeout", timeout)

	seen := newSeenSet[uint16]()
	var (
		completed atomic.Uint64
		open      atomic.Int64
	)

	sweep(r.Context(), total, s.cfg.MaxWorkers, func(pctx context.Context, i uint64) {
		port := ports[i]
		if s.probe(pctx, ip, port, timeout) && seen.add(port) {
			open.Add(1)
			s.metrics.PortOpen()
			r.Emit(events.PortScanPort, events.PortHit{Port: port})
		}
		done := completed.Add(1)
		r.Emit(events.PortScanProgress, events.Progress{Percent: percent(done, total)})
	})

	if r.Canceled() {
		log.InfoScan("Port scan stopped", target, "open", open.Load())
		s.lifecycle.Finish(r, events.PortScanStopped, nil)
		return
	}

	count := int(open.Load())
	log.InfoScan("Port scan completed", target, "open", count)
	s.lifecycle.Finish(r, events.PortScanDone, events.Done{Count: count})
}

// probe reports whether a TCP connect to ip:port succeeds within timeout.
func (s *PortScanner) probe(ctx context.Context, ip net.IP, port uint16, timeout time.Duration) bool {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn, err := s.dial(ctx, "tcp", net.JoinHostPort(ip.String(), strconv.Itoa(int(port))))
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}
