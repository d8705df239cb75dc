package scanning

import (
	"context"
	"sync/atomic"

	"github.com/anstrom/reconkit/internal/errors"
	"github.com/anstrom/reconkit/internal/events"
	"github.com/anstrom/reconkit/internal/logging"
	"github.com/anstrom/reconkit/internal/metrics"
	"github.com/anstrom/reconkit/internal/netaddr"
	"github.com/anstrom/reconkit/internal/platform"
)

// Engine kinds used for logging, metrics and error messages.
const (
	KindIPScan   = "ip_scan"
	KindPortScan = "port_scan"
)

// Host discovery sources, used as the metrics label.
const (
	sourceLocal    = "local"
	sourceNeighbor = "neighbor"
	sourceProbe    = "probe"
)

// HostScanRequest starts a subnet sweep.
type HostScanRequest struct {
	Subnet string `json:"subnet" validate:"required"`
	Deep   bool   `json:"deep"`
}

// HostScanner discovers live hosts on an IPv4 subnet.
type HostScanner struct {
	lifecycle *Lifecycle
	net       platform.NetworkInfo
	metrics   *metrics.PrometheusMetrics
	cfg       Config
}

// NewHostScanner creates an idle host scanner.
func NewHostScanner(
	info platform.NetworkInfo,
	sink events.Sink,
	cfg Config,
	logger *logging.Logger,
	m *metrics.PrometheusMetrics,
) *HostScanner {
	return &HostScanner{
		lifecycle: NewLifecycle(KindIPScan, sink, logger, m),
		net:       info,
		metrics:   m,
		cfg:       cfg.withDefaults(),
	}
}

// Start validates the request and launches a sweep in the background. It
// returns the run ID that tags every event of the run.
func (s *HostScanner) Start(req HostScanRequest) (string, error) {
	rng, err := netaddr.ParseCIDR(req.Subnet)
	if err != nil {
		err = errors.ErrInvalidCIDR(req.Subnet, err)
		s.lifecycle.Reject(err)
		return "", err
	}

	run, err := s.lifecycle.Begin()
	if err != nil {
		return "", err
	}

	go s.run(run, rng, req.Deep)
	return run.ID, nil
}

// Stop cancels the active sweep and waits for its workers to drain.
func (s *HostScanner) Stop(ctx context.Context) error {
	return s.lifecycle.Stop(ctx)
}

// Running reports whether a sweep is active.
func (s *HostScanner) Running() bool {
	return s.lifecycle.Running()
}

// Status describes the scanner's current run.
func (s *HostScanner) Status() Status {
	return s.lifecycle.Status()
}

type hostRun struct {
	*Run
	scanner *HostScanner
	rng     netaddr.AddressRange
	seen    *seenSet[string]
	found   atomic.Int64
}

// offer emits rec if it is in range, not special and not yet seen.
func (h *hostRun) offer(rec platform.HostRecord, source string) {
	if !h.rng.ContainsString(rec.IP) || netaddr.IsSpecialIP(rec.IP) {
		return
	}
	if !h.seen.add(rec.IP) {
		return
	}
	h.found.Add(1)
	h.scanner.metrics.HostDiscovered(source)
	h.Emit(events.IPScanDevice, rec)
}

func (s *HostScanner) run(r *Run, rng netaddr.AddressRange, deep bool) {
	log := r.Logger()
	total := rng.Size()

	if total > uint64(s.cfg.MaxHosts) {
		log.Warn("Subnet exceeds host cap, not scanning",
			"subnet", rng.String(), "hosts", total, "max_hosts", s.cfg.MaxHosts)
		s.lifecycle.Finish(r, events.IPScanStopped, nil)
		return
	}

	log.InfoScan("Host scan started", rng.String(), "hosts", total, "deep", deep)

	h := &hostRun{Run: r, scanner: s, rng: rng, seen: newSeenSet[string]()}
	ctx := r.Context()

	h.neighborPass(ctx, true)

	var completed atomic.Uint64
	sweep(ctx, total, s.cfg.MaxWorkers, func(pctx context.Context, i uint64) {
		ip := netaddr.FormatIPv4(rng.Start() + uint32(i))
		if netaddr.IsSpecialIP(ip) {
			return
		}
		h.probe(pctx, ip, deep)
		done := completed.Add(1)
		h.Emit(events.IPScanProgress, events.Progress{Percent: percent(done, total)})
	})

	if r.Canceled() {
		log.InfoScan("Host scan stopped", rng.String(), "found", h.found.Load())
		s.lifecycle.Finish(r, events.IPScanStopped, nil)
		return
	}

	h.neighborPass(ctx, false)

	count := int(h.found.Load())
	log.InfoScan("Host scan completed", rng.String(), "found", count)
	s.lifecycle.Finish(r, events.IPScanDone, events.Done{Count: count})
}

// neighborPass emits hosts the OS already knows about. The first pass also
// includes this machine's own addresses.
func (h *hostRun) neighborPass(ctx context.Context, includeLocal bool) {
	log := h.Logger()

	if includeLocal {
		locals, err := h.scanner.net.LocalAddresses(ctx)
		if err != nil {
			log.Debug("Local address listing failed", "error", err)
		}
		for _, rec := range locals {
			h.offer(rec, sourceLocal)
		}
	}

	neighbors, err := h.scanner.net.NeighborTable(ctx)
	if err != nil {
		log.Debug("Neighbor table read failed", "error", err)
	}
	for _, rec := range neighbors {
		h.offer(rec, sourceNeighbor)
	}
}

// probe handles one address. The ping result is ignored; it only primes the
// neighbor cache for the lookup that follows.
func (h *hostRun) probe(ctx context.Context, ip string, deep bool) {
	info := h.scanner.net
	info.Ping(ctx, ip)

	if rec, ok := info.NeighborLookup(ctx, ip); ok {
		if deep && rec.Hostname == "" {
			if name, ok := info.HostnameHint(ctx, ip, true); ok {
				rec.Hostname = name
			}
		}
		h.offer(rec, sourceNeighbor)
		return
	}

	if !deep {
		return
	}

	// Best effort: a resolved name or an open common port counts as alive.
	name, named := info.HostnameHint(ctx, ip, true)
	if named || info.ProbeLiveness(ctx, ip) {
		rec := platform.NewHostRecord(ip)
		rec.Hostname = name
		h.offer(rec, sourceProbe)
	}
}
