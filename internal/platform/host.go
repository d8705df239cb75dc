package platform

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/miekg/dns"

	"github.com/anstrom/reconkit/internal/logging"
	"github.com/anstrom/reconkit/internal/netaddr"
)

// Host is the NetworkInfo implementation backed by the local OS tools.
type Host struct {
	os      OS
	runner  Runner
	opts    Options
	logger  *logging.Logger
	dialer  func(ctx context.Context, network, address string) (net.Conn, error)
	ptrFunc func(ctx context.Context, ip string) (string, bool)
}

// NewHost creates a Host for the running platform.
func NewHost(opts Options, logger *logging.Logger) *Host {
	return NewHostFor(CurrentOS(), ExecRunner{}, opts, logger)
}

// NewHostFor creates a Host that uses the command set of os and runs
// commands through runner.
func NewHostFor(os OS, runner Runner, opts Options, logger *logging.Logger) *Host {
	defaults := DefaultOptions()
	if opts.PingTimeout <= 0 {
		opts.PingTimeout = defaults.PingTimeout
	}
	if opts.LivenessTimeout <= 0 {
		opts.LivenessTimeout = defaults.LivenessTimeout
	}
	if len(opts.LivenessPorts) == 0 {
		opts.LivenessPorts = defaults.LivenessPorts
	}
	if opts.HostnameTimeout <= 0 {
		opts.HostnameTimeout = defaults.HostnameTimeout
	}
	if opts.ResolvConf == "" {
		opts.ResolvConf = defaults.ResolvConf
	}
	if logger == nil {
		logger = logging.NewDiscard()
	}

	h := &Host{
		os:     os,
		runner: runner,
		opts:   opts,
		logger: logger.WithComponent("platform"),
	}
	h.dialer = (&net.Dialer{}).DialContext
	h.ptrFunc = h.lookupPTR
	return h
}

// OS returns the command set the host uses.
func (h *Host) OS() OS {
	return h.os
}

// LocalAddresses implements NetworkInfo.
func (h *Host) LocalAddresses(ctx context.Context) ([]HostRecord, error) {
	var (
		out []byte
		err error
	)
	switch h.os {
	case Windows:
		out, err = h.runner.Run(ctx, "ipconfig")
	case Darwin:
		out, err = h.runner.Run(ctx, "ifconfig")
	default:
		out, err = h.runner.Run(ctx, "ip", "-4", "addr")
	}
	if err != nil {
		return nil, fmt.Errorf("listing local addresses: %w", err)
	}
	return ParseLocalAddresses(h.os, out), nil
}

// NeighborTable implements NetworkInfo.
func (h *Host) NeighborTable(ctx context.Context) ([]HostRecord, error) {
	var (
		out []byte
		err error
	)
	switch h.os {
	case Windows, Darwin:
		out, err = h.runner.Run(ctx, "arp", "-a")
	default:
		out, err = h.runner.Run(ctx, "ip", "neigh", "show")
	}
	if err != nil {
		return nil, fmt.Errorf("reading neighbor table: %w", err)
	}
	return ParseNeighborTable(h.os, out), nil
}

// NeighborLookup implements NetworkInfo.
func (h *Host) NeighborLookup(ctx context.Context, ip string) (HostRecord, bool) {
	if netaddr.IsSpecialIP(ip) {
		return HostRecord{}, false
	}

	var (
		out []byte
		err error
	)
	switch h.os {
	case Windows:
		out, err = h.runner.Run(ctx, "arp", "-a", ip)
	case Darwin:
		out, err = h.runner.Run(ctx, "arp", "-n", ip)
	default:
		out, err = h.runner.Run(ctx, "ip", "neigh", "show", ip)
	}
	if err != nil {
		return HostRecord{}, false
	}
	return ParseNeighborLookup(h.os, ip, out)
}

// PingArgs returns the single-echo ping invocation for os.
func PingArgs(os OS, ip string) []string {
	switch os {
	case Windows:
		return []string{"-4", "-n", "1", "-w", "50", ip}
	case Darwin:
		return []string{"-c", "1", "-W", "50", ip}
	default:
		return []string{"-c", "1", "-W", "1", ip}
	}
}

// Ping implements NetworkInfo. Only the exit status matters.
func (h *Host) Ping(ctx context.Context, ip string) bool {
	ctx, cancel := context.WithTimeout(ctx, h.opts.PingTimeout+time.Second)
	defer cancel()

	_, err := h.runner.Run(ctx, "ping", PingArgs(h.os, ip)...)
	return err == nil
}

// ProbeLiveness implements NetworkInfo. The first port that accepts a
// connection within the liveness timeout marks the host alive.
func (h *Host) ProbeLiveness(ctx context.Context, ip string) bool {
	for _, port := range h.opts.LivenessPorts {
		if ctx.Err() != nil {
			return false
		}
		dialCtx, cancel := context.WithTimeout(ctx, h.opts.LivenessTimeout)
		conn, err := h.dialer(dialCtx, "tcp", net.JoinHostPort(ip, strconv.Itoa(int(port))))
		cancel()
		if err == nil {
			_ = conn.Close()
			return true
		}
	}
	return false
}

// HostnameHint implements NetworkInfo.
func (h *Host) HostnameHint(ctx context.Context, ip string, deep bool) (string, bool) {
	if !deep || netaddr.IsSpecialIP(ip) {
		return "", false
	}

	ctx, cancel := context.WithTimeout(ctx, h.opts.HostnameTimeout)
	defer cancel()

	if h.os == Windows {
		out, err := h.runner.Run(ctx, "nbtstat", "-A", ip)
		if err != nil {
			return "", false
		}
		return ParseNbtstat(ip, out)
	}
	return h.ptrFunc(ctx, ip)
}

func (h *Host) nameservers() []string {
	if len(h.opts.Nameservers) > 0 {
		return h.opts.Nameservers
	}
	cfg, err := dns.ClientConfigFromFile(h.opts.ResolvConf)
	if err != nil {
		h.logger.Debug("No resolver configuration", "path", h.opts.ResolvConf, "error", err)
		return nil
	}
	servers := make([]string, 0, len(cfg.Servers))
	for _, s := range cfg.Servers {
		servers = append(servers, net.JoinHostPort(s, cfg.Port))
	}
	return servers
}

// lookupPTR asks each configured nameserver for the PTR record of ip.
func (h *Host) lookupPTR(ctx context.Context, ip string) (string, bool) {
	reverse, err := dns.ReverseAddr(ip)
	if err != nil {
		return "", false
	}

	msg := new(dns.Msg)
	msg.SetQuestion(reverse, dns.TypePTR)
	msg.RecursionDesired = true

	client := &dns.Client{Timeout: h.opts.HostnameTimeout}
	for _, server := range h.nameservers() {
		resp, _, err := client.ExchangeContext(ctx, msg, server)
		if err != nil {
			h.logger.Debug("PTR query failed", "ip", ip, "server", server, "error", err)
			continue
		}
		if name, ok := ptrName(resp); ok {
			return name, true
		}
	}
	return "", false
}

func ptrName(resp *dns.Msg) (string, bool) {
	if resp == nil || resp.Rcode != dns.RcodeSuccess {
		return "", false
	}
	for _, rr := range resp.Answer {
		if ptr, ok := rr.(*dns.PTR); ok {
			name := strings.TrimSuffix(ptr.Ptr, ".")
			if name != "" {
				return name, true
			}
		}
	}
	return "", false
}
