// Package capture streams dissected frames from a network interface.
//
// Two backends feed the same event path: a native libpcap handle through
// gopacket, and a tshark subprocess whose field output is parsed line by
// line. The native backend is tried first; tshark is used only when the
// native open fails and a tshark binary can be found.
package capture

import (
	stderrors "errors"
	"time"

	"github.com/anstrom/reconkit/internal/dissect"
)

// Backend names, used for status messages, logs and metric labels.
const (
	BackendPcap   = "pcap"
	BackendTshark = "tshark"
)

// Status messages streamed as pcap_status events.
const (
	StatusRunning       = "Capture running..."
	StatusRunningTshark = "Capture running (tshark)..."
	StatusStopped       = "Capture stopped."
)

// ErrTimeout is returned by FrameSource.Next when the poll interval elapsed
// without a frame. Callers check for cancellation and poll again.
var ErrTimeout = stderrors.New("capture poll timeout")

// ErrNativeUnavailable is returned by the native backend in builds without
// libpcap support.
var ErrNativeUnavailable = stderrors.New("native capture not available in this build")

// Interface is one capturable device.
type Interface struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// StartRequest selects the device and filters for a capture run. An empty
// Interface means the system default device.
type StartRequest struct {
	Interface string   `json:"interface,omitempty"`
	Protocols []string `json:"protocols,omitempty"`
	Filter    string   `json:"filter,omitempty"`
}

// Config holds the capture handle parameters.
type Config struct {
	Snaplen     int           `yaml:"snaplen" json:"snaplen"`
	Promiscuous bool          `yaml:"promiscuous" json:"promiscuous"`
	PollTimeout time.Duration `yaml:"poll_timeout" json:"poll_timeout"`
	TsharkPaths []string      `yaml:"tshark_paths" json:"tshark_paths"`
}

// DefaultConfig returns the capture defaults.
func DefaultConfig() Config {
	return Config{
		Snaplen:     65535,
		Promiscuous: true,
		PollTimeout: time.Second,
		TsharkPaths: DefaultTsharkPaths(),
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Snaplen <= 0 {
		c.Snaplen = d.Snaplen
	}
	if c.PollTimeout <= 0 {
		c.PollTimeout = d.PollTimeout
	}
	if len(c.TsharkPaths) == 0 {
		c.TsharkPaths = d.TsharkPaths
	}
	return c
}

// FrameSource is a live stream of frame summaries.
//
// Next blocks for at most one poll interval. It returns ErrTimeout when no
// frame arrived and io.EOF when the source has ended. Interrupt may be called
// from another goroutine to unblock a pending Next; Close is called once by
// the reading goroutine after the loop exits.
type FrameSource interface {
	Backend() string
	Next() (dissect.FrameSummary, error)
	Interrupt()
	Close() error
}

// NativeSource is a FrameSource that accepts a kernel-side filter.
type NativeSource interface {
	FrameSource
	SetFilter(expr string) error
}

// Native opens capture handles through the platform capture library.
type Native interface {
	Devices() ([]Interface, error)
	DefaultDevice() (string, error)
	Open(device string, cfg Config) (NativeSource, error)
}
