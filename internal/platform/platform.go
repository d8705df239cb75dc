// Package platform retrieves host and interface facts from the operating
// system: local addresses, the neighbor (ARP) cache, ICMP reachability,
// a TCP liveness heuristic and reverse name hints.
//
// Everything OS-specific sits behind NetworkInfo so the scan engines never
// branch on the platform themselves.
package platform

//go:generate mockgen -destination=mocks/mock_network_info.go -package=mocks . NetworkInfo

import (
	"context"
	"os/exec"
	"runtime"
	"time"
)

const (
	UnknownMAC    = "unknown"
	UnknownVendor = "Unknown"

	LocalMAC      = "local"
	LocalHostname = "This device"
	LocalVendor   = "Local"
)

// HostRecord describes one discovered device. IP is its identity.
type HostRecord struct {
	IP       string `json:"ip"`
	MAC      string `json:"mac"`
	Hostname string `json:"hostname"`
	Vendor   string `json:"vendor"`
}

// NewHostRecord returns a record for ip with the unresolved defaults filled in.
func NewHostRecord(ip string) HostRecord {
	return HostRecord{IP: ip, MAC: UnknownMAC, Vendor: UnknownVendor}
}

// NetworkInfo is the set of discovery primitives an OS has to provide.
type NetworkInfo interface {
	// LocalAddresses lists this machine's IPv4 addresses tagged as self.
	LocalAddresses(ctx context.Context) ([]HostRecord, error)
	// NeighborTable snapshots the OS neighbor cache.
	NeighborTable(ctx context.Context) ([]HostRecord, error)
	// NeighborLookup queries the neighbor cache for a single address.
	NeighborLookup(ctx context.Context, ip string) (HostRecord, bool)
	// Ping sends one ICMP echo to warm the neighbor cache.
	Ping(ctx context.Context, ip string) bool
	// ProbeLiveness attempts short TCP connects to well-known ports.
	ProbeLiveness(ctx context.Context, ip string) bool
	// HostnameHint resolves a name for ip; it is skipped unless deep is set.
	HostnameHint(ctx context.Context, ip string, deep bool) (string, bool)
}

// OS selects the command set and output parsers.
type OS string

const (
	Linux   OS = "linux"
	Darwin  OS = "darwin"
	Windows OS = "windows"
)

// CurrentOS maps runtime.GOOS onto a supported command set. Unknown
// platforms fall back to the Linux tools.
func CurrentOS() OS {
	switch runtime.GOOS {
	case "windows":
		return Windows
	case "darwin":
		return Darwin
	default:
		return Linux
	}
}

// Runner executes an external command and returns its standard output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// Run calls f.
func (f RunnerFunc) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return f(ctx, name, args...)
}

// Options tunes the probes a Host performs.
type Options struct {
	PingTimeout     time.Duration
	LivenessTimeout time.Duration
	LivenessPorts   []uint16
	HostnameTimeout time.Duration
	// ResolvConf is read for nameservers when resolving PTR hints.
	ResolvConf string
	// Nameservers overrides ResolvConf when set ("host:port").
	Nameservers []string
}

// DefaultOptions returns the probe settings used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		PingTimeout:     time.Second,
		LivenessTimeout: 160 * time.Millisecond,
		LivenessPorts:   []uint16{80, 443, 22, 445, 139, 3389},
		HostnameTimeout: 2 * time.Second,
		ResolvConf:      "/etc/resolv.conf",
	}
}
