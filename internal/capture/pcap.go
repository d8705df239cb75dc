//go:build cgo && !nopcap

package capture

import (
	stderrors "errors"
	"fmt"
	"io"
	"time"

	"github.com/google/gopacket/pcap"

	"github.com/anstrom/reconkit/internal/dissect"
)

// PcapNative opens handles through libpcap (Npcap on Windows).
type PcapNative struct {
	now func() time.Time
}

// NewNative returns the libpcap backend.
func NewNative() Native {
	return &PcapNative{now: time.Now}
}

// Devices lists every device libpcap can open.
func (p *PcapNative) Devices() ([]Interface, error) {
	devs, err := pcap.FindAllDevs()
	if err != nil {
		return nil, err
	}
	list := make([]Interface, 0, len(devs))
	for _, d := range devs {
		list = append(list, Interface{Name: d.Name, Description: d.Description})
	}
	return list, nil
}

// DefaultDevice returns the first non-loopback device that has an address,
// or the first device when none has one.
func (p *PcapNative) DefaultDevice() (string, error) {
	devs, err := pcap.FindAllDevs()
	if err != nil {
		return "", err
	}
	for _, d := range devs {
		if d.Flags&pcapLoopbackFlag == 0 && len(d.Addresses) > 0 {
			return d.Name, nil
		}
	}
	if len(devs) > 0 {
		return devs[0].Name, nil
	}
	return "", stderrors.New("no capture devices")
}

// pcap_if_t PCAP_IF_LOOPBACK
const pcapLoopbackFlag = 0x00000001

// Open activates a handle on device.
func (p *PcapNative) Open(device string, cfg Config) (NativeSource, error) {
	inactive, err := pcap.NewInactiveHandle(device)
	if err != nil {
		return nil, err
	}
	defer inactive.CleanUp()

	if err := inactive.SetSnapLen(cfg.Snaplen); err != nil {
		return nil, fmt.Errorf("snaplen: %w", err)
	}
	if err := inactive.SetPromisc(cfg.Promiscuous); err != nil {
		return nil, fmt.Errorf("promiscuous mode: %w", err)
	}
	if err := inactive.SetTimeout(cfg.PollTimeout); err != nil {
		return nil, fmt.Errorf("poll timeout: %w", err)
	}

	handle, err := inactive.Activate()
	if err != nil {
		return nil, err
	}
	return &pcapSource{handle: handle, now: p.now}, nil
}

type pcapSource struct {
	handle *pcap.Handle
	now    func() time.Time
}

func (s *pcapSource) Backend() string {
	return BackendPcap
}

func (s *pcapSource) SetFilter(expr string) error {
	return s.handle.SetBPFFilter(expr)
}

func (s *pcapSource) Next() (dissect.FrameSummary, error) {
	data, _, err := s.handle.ReadPacketData()
	switch {
	case err == nil:
		return dissect.Summarize(data, s.now()), nil
	case stderrors.Is(err, pcap.NextErrorTimeoutExpired):
		return dissect.FrameSummary{}, ErrTimeout
	case stderrors.Is(err, io.EOF), stderrors.Is(err, pcap.NextErrorNoMorePackets):
		return dissect.FrameSummary{}, io.EOF
	default:
		return dissect.FrameSummary{}, err
	}
}

// Interrupt is a no-op: the handle wakes every poll interval on its own and
// closing it under a pending read is unsafe.
func (s *pcapSource) Interrupt() {}

func (s *pcapSource) Close() error {
	s.handle.Close()
	return nil
}
