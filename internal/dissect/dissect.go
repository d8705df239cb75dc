// Package dissect turns raw Ethernet frames into short human-readable summaries.
//
// Summaries are lossy: only addresses, a protocol label and a one-line info
// string are kept. Every field read is bounds-checked, so truncated or
// malformed frames produce "unknown" values instead of panicking.
package dissect

import (
	"encoding/binary"
	"fmt"
	"net/netip"
	"time"
)

const (
	ethernetHeaderLen = 14

	etherTypeIPv4 = 0x0800
	etherTypeIPv6 = 0x86DD
	etherTypeARP  = 0x0806

	unknown = "unknown"

	// TimeLayout is the wall clock format used for FrameSummary.Time.
	TimeLayout = "15:04:05.000"
)

// FrameSummary is the per-packet record streamed to observers.
type FrameSummary struct {
	Time     string `json:"time"`
	Src      string `json:"src"`
	Dest     string `json:"dest"`
	Protocol string `json:"protocol"`
	Length   int    `json:"length"`
	Info     string `json:"info"`
}

// Summarize describes one captured frame. now supplies the timestamp.
func Summarize(data []byte, now time.Time) FrameSummary {
	s := FrameSummary{
		Time:   now.Format(TimeLayout),
		Src:    unknown,
		Dest:   unknown,
		Length: len(data),
	}

	if len(data) < ethernetHeaderLen {
		s.Protocol = "RAW"
		s.Info = "Frame too short"
		return s
	}

	etherType := binary.BigEndian.Uint16(data[12:14])
	switch etherType {
	case etherTypeIPv4:
		summarizeIPv4(data, &s)
	case etherTypeIPv6:
		summarizeIPv6(data, &s)
	case etherTypeARP:
		summarizeARP(data, &s)
	default:
		s.Protocol = fmt.Sprintf("0x%04x", etherType)
		s.Info = "Unrecognized EtherType"
	}
	return s
}

func summarizeIPv4(data []byte, s *FrameSummary) {
	var ihl int
	if len(data) > 14 {
		ihl = int(data[14]&0x0f) * 4
	}
	proto := byteAt(data, 23)
	s.Src = ipv4At(data, 26)
	s.Dest = ipv4At(data, 30)

	l4 := ethernetHeaderLen + ihl
	ports, hasPorts := "", false
	if len(data) >= l4+4 {
		sport := binary.BigEndian.Uint16(data[l4 : l4+2])
		dport := binary.BigEndian.Uint16(data[l4+2 : l4+4])
		ports, hasPorts = fmt.Sprintf("%d -> %d", sport, dport), true
	}
	withPorts := func(label string) {
		s.Protocol = label
		s.Info = label
		if hasPorts {
			s.Info = ports
		}
	}

	switch proto {
	case 6:
		withPorts("TCP")
	case 17:
		withPorts("UDP")
	case 132:
		withPorts("SCTP")
	case 1:
		s.Protocol, s.Info = "ICMP", "ICMP"
	case 50:
		s.Protocol, s.Info = "ESP", "ESP"
	case 51:
		s.Protocol, s.Info = "AH", "AH"
	default:
		s.Protocol = "IPv4"
		s.Info = fmt.Sprintf("Protocol %d", proto)
	}
}

func summarizeIPv6(data []byte, s *FrameSummary) {
	next := byteAt(data, 20)
	s.Src = ipv6At(data, 22)
	s.Dest = ipv6At(data, 38)

	switch next {
	case 6:
		s.Protocol, s.Info = "TCP", "TCP"
	case 17:
		s.Protocol, s.Info = "UDP", "UDP"
	case 58:
		s.Protocol, s.Info = "ICMPv6", "ICMPv6"
	default:
		s.Protocol = "IPv6"
		s.Info = fmt.Sprintf("Next header %d", next)
	}
}

func summarizeARP(data []byte, s *FrameSummary) {
	s.Protocol = "ARP"
	s.Src = ipv4At(data, 28)
	s.Dest = ipv4At(data, 38)

	op := uint16(byteAt(data, 20))<<8 | uint16(byteAt(data, 21))
	switch op {
	case 1:
		s.Info = "Who has? (request)"
	case 2:
		s.Info = "Reply"
	default:
		s.Info = "ARP"
	}
}

// byteAt returns data[i], or 0 past the end.
func byteAt(data []byte, i int) byte {
	if i < len(data) {
		return data[i]
	}
	return 0
}

func ipv4At(data []byte, off int) string {
	if len(data) < off+4 {
		return unknown
	}
	return netip.AddrFrom4([4]byte(data[off : off+4])).String()
}

func ipv6At(data []byte, off int) string {
	if len(data) < off+16 {
		return unknown
	}
	return netip.AddrFrom16([16]byte(data[off : off+16])).String()
}
