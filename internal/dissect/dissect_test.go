package dissect

import (
	"net"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	srcMAC = net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x01}
	dstMAC = net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x02}
	at     = time.Date(2024, 3, 1, 14, 5, 9, 42_000_000, time.Local)
)

func serialize(t *testing.T, ls ...gopacket.SerializableLayer) []byte {
	t.Helper()
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	require.NoError(t, gopacket.SerializeLayers(buf, opts, ls...))
	return buf.Bytes()
}

func ipv4Frame(t *testing.T, proto layers.IPProtocol, l4 ...gopacket.SerializableLayer) []byte {
	t.Helper()
	eth := &layers.Ethernet{SrcMAC: srcMAC, DstMAC: dstMAC, EthernetType: layers.EthernetTypeIPv4}
	ip := &layers.IPv4{
		Version:  4,
		TTL:      64,
		Protocol: proto,
		SrcIP:    net.IPv4(192, 168, 1, 10),
		DstIP:    net.IPv4(192, 168, 1, 1),
	}
	for _, l := range l4 {
		switch tl := l.(type) {
		case *layers.TCP:
			require.NoError(t, tl.SetNetworkLayerForChecksum(ip))
		case *layers.UDP:
			require.NoError(t, tl.SetNetworkLayerForChecksum(ip))
		}
	}
	return serialize(t, append([]gopacket.SerializableLayer{eth, ip}, l4...)...)
}

func TestSummarizeTooShort(t *testing.T) {
	s := Summarize(make([]byte, 10), at)
	assert.Equal(t, FrameSummary{
		Time:     "14:05:09.042",
		Src:      "unknown",
		Dest:     "unknown",
		Protocol: "RAW",
		Length:   10,
		Info:     "Frame too short",
	}, s)

	assert.Equal(t, "RAW", Summarize(nil, at).Protocol)
}

func TestSummarizeCraftedIPv4TCP(t *testing.T) {
	frame := make([]byte, 14+20+4)
	frame[12], frame[13] = 0x08, 0x00
	frame[14] = 0x45
	frame[23] = 6
	copy(frame[26:30], []byte{10, 0, 0, 1})
	copy(frame[30:34], []byte{10, 0, 0, 2})
	copy(frame[34:38], []byte{0x01, 0xbb, 0xc3, 0x50})

	s := Summarize(frame, at)
	assert.Equal(t, "TCP", s.Protocol)
	assert.Equal(t, "443 -> 50000", s.Info)
	assert.Equal(t, "10.0.0.1", s.Src)
	assert.Equal(t, "10.0.0.2", s.Dest)
	assert.Equal(t, 38, s.Length)
}

func TestSummarizeIPv4Transports(t *testing.T) {
	tcp := &layers.TCP{SrcPort: 51515, DstPort: 22, SYN: true, Window: 1024}
	udp := &layers.UDP{SrcPort: 5353, DstPort: 53}
	icmp := &layers.ICMPv4{TypeCode: layers.CreateICMPv4TypeCode(layers.ICMPv4TypeEchoRequest, 0)}

	tests := []struct {
		name     string
		frame    []byte
		protocol string
		info     string
	}{
		{"tcp", ipv4Frame(t, layers.IPProtocolTCP, tcp), "TCP", "51515 -> 22"},
		{"udp", ipv4Frame(t, layers.IPProtocolUDP, udp, gopacket.Payload([]byte{0})), "UDP", "5353 -> 53"},
		{"icmp", ipv4Frame(t, layers.IPProtocolICMPv4, icmp), "ICMP", "ICMP"},
		{"esp", ipv4Frame(t, layers.IPProtocolESP, gopacket.Payload(make([]byte, 8))), "ESP", "ESP"},
		{"ah", ipv4Frame(t, layers.IPProtocolAH, gopacket.Payload(make([]byte, 8))), "AH", "AH"},
		{"sctp", ipv4Frame(t, layers.IPProtocolSCTP, gopacket.Payload([]byte{0x0b, 0xb8, 0x0b, 0xb9})), "SCTP", "3000 -> 3001"},
		{"gre", ipv4Frame(t, layers.IPProtocolGRE, gopacket.Payload(make([]byte, 4))), "IPv4", "Protocol 47"},
		{"tcp without ports", ipv4Frame(t, layers.IPProtocolTCP)[:34], "TCP", "TCP"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Summarize(tt.frame, at)
			assert.Equal(t, tt.protocol, s.Protocol)
			assert.Equal(t, tt.info, s.Info)
			assert.Equal(t, "192.168.1.10", s.Src)
			assert.Equal(t, "192.168.1.1", s.Dest)
			assert.Equal(t, len(tt.frame), s.Length)
		})
	}
}

func TestSummarizeIPv6(t *testing.T) {
	src := net.ParseIP("fe80::1")
	dst := net.ParseIP("ff02::fb")

	frame := func(next layers.IPProtocol, payload ...gopacket.SerializableLayer) []byte {
		eth := &layers.Ethernet{SrcMAC: srcMAC, DstMAC: dstMAC, EthernetType: layers.EthernetTypeIPv6}
		ip := &layers.IPv6{Version: 6, HopLimit: 255, NextHeader: next, SrcIP: src, DstIP: dst}
		return serialize(t, append([]gopacket.SerializableLayer{eth, ip}, payload...)...)
	}

	s := Summarize(frame(layers.IPProtocolUDP, gopacket.Payload(make([]byte, 8))), at)
	assert.Equal(t, "UDP", s.Protocol)
	assert.Equal(t, "UDP", s.Info)
	assert.Equal(t, "fe80::1", s.Src)
	assert.Equal(t, "ff02::fb", s.Dest)

	s = Summarize(frame(layers.IPProtocolICMPv6, gopacket.Payload(make([]byte, 4))), at)
	assert.Equal(t, "ICMPv6", s.Protocol)

	s = Summarize(frame(layers.IPProtocolTCP, gopacket.Payload(make([]byte, 20))), at)
	assert.Equal(t, "TCP", s.Info)

	s = Summarize(frame(layers.IPProtocolIPv6HopByHop, gopacket.Payload(make([]byte, 8))), at)
	assert.Equal(t, "IPv6", s.Protocol)
	assert.Equal(t, "Next header 0", s.Info)
}

func TestSummarizeARP(t *testing.T) {
	frame := func(op uint16) []byte {
		eth := &layers.Ethernet{SrcMAC: srcMAC, DstMAC: layers.EthernetBroadcast, EthernetType: layers.EthernetTypeARP}
		arp := &layers.ARP{
			AddrType:          layers.LinkTypeEthernet,
			Protocol:          layers.EthernetTypeIPv4,
			HwAddressSize:     6,
			ProtAddressSize:   4,
			Operation:         op,
			SourceHwAddress:   srcMAC,
			SourceProtAddress: []byte{192, 168, 1, 10},
			DstHwAddress:      make([]byte, 6),
			DstProtAddress:    []byte{192, 168, 1, 1},
		}
		return serialize(t, eth, arp)
	}

	s := Summarize(frame(layers.ARPRequest), at)
	assert.Equal(t, "ARP", s.Protocol)
	assert.Equal(t, "Who has? (request)", s.Info)
	assert.Equal(t, "192.168.1.10", s.Src)
	assert.Equal(t, "192.168.1.1", s.Dest)

	assert.Equal(t, "Reply", Summarize(frame(layers.ARPReply), at).Info)
	assert.Equal(t, "ARP", Summarize(frame(7), at).Info)
}

func TestSummarizeUnknownEtherType(t *testing.T) {
	frame := make([]byte, 60)
	frame[12], frame[13] = 0x88, 0xcc

	s := Summarize(frame, at)
	assert.Equal(t, "0x88cc", s.Protocol)
	assert.Equal(t, "Unrecognized EtherType", s.Info)
	assert.Equal(t, "unknown", s.Src)
	assert.Equal(t, "unknown", s.Dest)
}

func TestSummarizeTruncatedNeverPanics(t *testing.T) {
	full := ipv4Frame(t, layers.IPProtocolTCP, &layers.TCP{SrcPort: 1, DstPort: 2})
	for n := 0; n <= len(full); n++ {
		assert.NotPanics(t, func() { Summarize(full[:n], at) }, "length %d", n)
	}

	s := Summarize(full[:20], at)
	assert.Equal(t, "unknown", s.Src)
	assert.Equal(t, "unknown", s.Dest)

	v6 := make([]byte, 30)
	v6[12], v6[13] = 0x86, 0xdd
	v6[20] = 58
	s = Summarize(v6, at)
	assert.Equal(t, "ICMPv6", s.Protocol)
	assert.Equal(t, "unknown", s.Src)

	arp := make([]byte, 15)
	arp[12], arp[13] = 0x08, 0x06
	s = Summarize(arp, at)
	assert.Equal(t, "ARP", s.Info)
	assert.Equal(t, "unknown", s.Src)
}
