package platform

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const linuxIPAddr = `1: lo: <LOOPBACK,UP,LOWER_UP> mtu 65536 qdisc noqueue state UNKNOWN group default qlen 1000
    inet 127.0.0.1/8 scope host lo
       valid_lft forever preferred_lft forever
2: eth0: <BROADCAST,MULTICAST,UP,LOWER_UP> mtu 1500 qdisc fq_codel state UP group default qlen 1000
    inet 192.168.1.20/24 brd 192.168.1.255 scope global dynamic eth0
       valid_lft 85523sec preferred_lft 85523sec
`

const darwinIfconfig = `lo0: flags=8049<UP,LOOPBACK,RUNNING,MULTICAST> mtu 16384
	inet 127.0.0.1 netmask 0xff000000
	inet6 ::1 prefixlen 128
en0: flags=8863<UP,BROADCAST,SMART,RUNNING,SIMPLEX,MULTICAST> mtu 1500
	inet 10.0.0.5 netmask 0xffffff00 broadcast 10.0.0.255
`

const windowsIPConfig = `Ethernet adapter Ethernet:

   Connection-specific DNS Suffix  . : lan
   IPv4 Address. . . . . . . . . . . : 192.168.1.30(Preferred)
   Subnet Mask . . . . . . . . . . . : 255.255.255.0
`

const linuxNeigh = `192.168.1.1 dev eth0 lladdr aa:bb:cc:dd:ee:01 REACHABLE
192.168.1.7 dev eth0 lladdr aa:bb:cc:dd:ee:07 STALE
192.168.1.9 dev eth0  FAILED
fe80::1 dev eth0 lladdr aa:bb:cc:dd:ee:01 router STALE
`

const darwinArp = `router.lan (192.168.1.1) at aa:bb:cc:dd:ee:1 on en0 ifscope [ethernet]
? (192.168.1.7) at aa:bb:cc:dd:ee:7 on en0 ifscope [ethernet]
`

const windowsArp = `Interface: 192.168.1.30 --- 0x5
  Internet Address      Physical Address      Type
  192.168.1.1           aa-bb-cc-dd-ee-01     dynamic
  192.168.1.255         ff-ff-ff-ff-ff-ff     static
`

func TestParseLocalAddresses(t *testing.T) {
	tests := []struct {
		name string
		os   OS
		out  string
		want []string
	}{
		{"linux ip addr", Linux, linuxIPAddr, []string{"127.0.0.1", "192.168.1.20"}},
		{"darwin ifconfig", Darwin, darwinIfconfig, []string{"127.0.0.1", "10.0.0.5"}},
		{"windows ipconfig", Windows, windowsIPConfig, []string{"192.168.1.30"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := ParseLocalAddresses(tt.os, []byte(tt.out))
			require.Len(t, records, len(tt.want))
			for i, rec := range records {
				assert.Equal(t, tt.want[i], rec.IP)
				assert.Equal(t, LocalMAC, rec.MAC)
				assert.Equal(t, LocalHostname, rec.Hostname)
				assert.Equal(t, LocalVendor, rec.Vendor)
			}
		})
	}
}

func TestParseNeighborTable(t *testing.T) {
	linux := ParseNeighborTable(Linux, []byte(linuxNeigh))
	require.Len(t, linux, 2)
	assert.Equal(t, HostRecord{IP: "192.168.1.1", MAC: "aa:bb:cc:dd:ee:01", Vendor: UnknownVendor}, linux[0])
	assert.Equal(t, "192.168.1.7", linux[1].IP)

	rec, ok := ParseNeighborLookup(Darwin, "192.168.1.7", []byte(darwinArp))
	require.True(t, ok, "short octets are still informative")
	assert.Equal(t, "aa:bb:cc:dd:ee:7", rec.MAC)

	darwin := ParseNeighborTable(Darwin, []byte(darwinArp))
	require.Len(t, darwin, 2)
	assert.Equal(t, "router.lan", darwin[0].Hostname)
	assert.Equal(t, "192.168.1.1", darwin[0].IP)
	assert.Equal(t, "aa:bb:cc:dd:ee:1", darwin[0].MAC)
	assert.Equal(t, "", darwin[1].Hostname)

	windows := ParseNeighborTable(Windows, []byte(windowsArp))
	require.Len(t, windows, 2)
	assert.Equal(t, "aa-bb-cc-dd-ee-01", windows[0].MAC)
	assert.Equal(t, UnknownVendor, windows[0].Vendor)
}

func TestParseNeighborLookup(t *testing.T) {
	rec, ok := ParseNeighborLookup(Linux, "192.168.1.7", []byte(linuxNeigh))
	require.True(t, ok)
	assert.Equal(t, "aa:bb:cc:dd:ee:07", rec.MAC)

	_, ok = ParseNeighborLookup(Linux, "192.168.1.9", []byte(linuxNeigh))
	assert.False(t, ok, "failed entries carry no address")

	_, ok = ParseNeighborLookup(Windows, "192.168.1.255", []byte(windowsArp))
	assert.False(t, ok, "broadcast hardware address is rejected")

	multicast := []byte("224.0.0.251 dev eth0 lladdr 01:00:5e:00:00:fb NOARP\n")
	_, ok = ParseNeighborLookup(Linux, "224.0.0.251", multicast)
	assert.False(t, ok)

	_, ok = ParseNeighborLookup(Linux, "192.168.1.50", []byte(linuxNeigh))
	assert.False(t, ok)

	named, ok := ParseNeighborLookup(Darwin, "192.168.1.1", []byte(darwinArp))
	require.True(t, ok)
	assert.Equal(t, "router.lan", named.Hostname)

	unnamed, ok := ParseNeighborLookup(Darwin, "192.168.1.7", []byte(darwinArp))
	require.True(t, ok)
	assert.Empty(t, unnamed.Hostname)
}

func TestParseNbtstat(t *testing.T) {
	out := []byte(`
           NetBIOS Remote Machine Name Table

       Name               Type         Status
    ---------------------------------------------
    DESKTOP-42     <00>  UNIQUE      Registered
    WORKGROUP      <00>  GROUP       Registered
    DESKTOP-42     <20>  UNIQUE      Registered
`)
	name, ok := ParseNbtstat("192.168.1.42", out)
	require.True(t, ok)
	assert.Equal(t, "DESKTOP-42", name)

	_, ok = ParseNbtstat("192.168.1.42", []byte("Host not found."))
	assert.False(t, ok)
}

func TestPingArgs(t *testing.T) {
	assert.Equal(t, []string{"-4", "-n", "1", "-w", "50", "10.0.0.1"}, PingArgs(Windows, "10.0.0.1"))
	assert.Equal(t, []string{"-c", "1", "-W", "50", "10.0.0.1"}, PingArgs(Darwin, "10.0.0.1"))
	assert.Equal(t, []string{"-c", "1", "-W", "1", "10.0.0.1"}, PingArgs(Linux, "10.0.0.1"))
}

type recordingRunner struct {
	mu    sync.Mutex
	calls [][]string
	out   map[string][]byte
	err   error
}

func (r *recordingRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, append([]string{name}, args...))
	if r.err != nil {
		return nil, r.err
	}
	return r.out[name], nil
}

func TestHostCommands(t *testing.T) {
	runner := &recordingRunner{out: map[string][]byte{
		"ip": []byte(linuxNeigh),
	}}
	h := NewHostFor(Linux, runner, Options{}, nil)
	ctx := context.Background()

	table, err := h.NeighborTable(ctx)
	require.NoError(t, err)
	assert.Len(t, table, 2)

	rec, ok := h.NeighborLookup(ctx, "192.168.1.1")
	require.True(t, ok)
	assert.Equal(t, "aa:bb:cc:dd:ee:01", rec.MAC)

	assert.True(t, h.Ping(ctx, "192.168.1.1"))

	require.Len(t, runner.calls, 3)
	assert.Equal(t, []string{"ip", "neigh", "show"}, runner.calls[0])
	assert.Equal(t, []string{"ip", "neigh", "show", "192.168.1.1"}, runner.calls[1])
	assert.Equal(t, []string{"ping", "-c", "1", "-W", "1", "192.168.1.1"}, runner.calls[2])
}

func TestHostNeighborLookupSkipsSpecialIPs(t *testing.T) {
	runner := &recordingRunner{}
	h := NewHostFor(Linux, runner, Options{}, nil)

	_, ok := h.NeighborLookup(context.Background(), "239.255.255.250")
	assert.False(t, ok)
	assert.Empty(t, runner.calls)
}

func TestHostCommandFailure(t *testing.T) {
	runner := &recordingRunner{err: errors.New("exit status 1")}
	h := NewHostFor(Darwin, runner, Options{}, nil)
	ctx := context.Background()

	_, err := h.LocalAddresses(ctx)
	assert.Error(t, err)
	_, err = h.NeighborTable(ctx)
	assert.Error(t, err)
	assert.False(t, h.Ping(ctx, "10.0.0.1"))
}

func TestHostProbeLiveness(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	port := ln.Addr().(*net.TCPAddr).Port

	h := NewHostFor(Linux, &recordingRunner{}, Options{
		LivenessTimeout: 200 * time.Millisecond,
		LivenessPorts:   []uint16{uint16(port)},
	}, nil)
	assert.True(t, h.ProbeLiveness(context.Background(), "127.0.0.1"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, h.ProbeLiveness(ctx, "127.0.0.1"))
}

func TestHostnameHint(t *testing.T) {
	runner := &recordingRunner{out: map[string][]byte{
		"nbtstat": []byte("    PRINTER        <00>  UNIQUE      Registered\n"),
	}}
	ctx := context.Background()

	win := NewHostFor(Windows, runner, Options{}, nil)
	_, ok := win.HostnameHint(ctx, "192.168.1.5", false)
	assert.False(t, ok, "shallow scans never resolve names")
	assert.Empty(t, runner.calls)

	name, ok := win.HostnameHint(ctx, "192.168.1.5", true)
	require.True(t, ok)
	assert.Equal(t, "PRINTER", name)

	lin := NewHostFor(Linux, runner, Options{}, nil)
	lin.ptrFunc = func(_ context.Context, ip string) (string, bool) {
		return "host-" + ip, true
	}
	name, ok = lin.HostnameHint(ctx, "10.0.0.2", true)
	require.True(t, ok)
	assert.Equal(t, "host-10.0.0.2", name)
}

func TestLookupPTRAgainstLocalServer(t *testing.T) {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)

	mux := dns.NewServeMux()
	mux.HandleFunc("in-addr.arpa.", func(w dns.ResponseWriter, r *dns.Msg) {
		m := new(dns.Msg)
		m.SetReply(r)
		m.Answer = append(m.Answer, &dns.PTR{
			Hdr: dns.RR_Header{Name: r.Question[0].Name, Rrtype: dns.TypePTR, Class: dns.ClassINET, Ttl: 60},
			Ptr: "nas.lan.",
		})
		_ = w.WriteMsg(m)
	})
	server := &dns.Server{PacketConn: pc, Handler: mux}
	go func() { _ = server.ActivateAndServe() }()
	defer func() { _ = server.Shutdown() }()

	h := NewHostFor(Linux, &recordingRunner{}, Options{
		Nameservers: []string{pc.LocalAddr().String()},
	}, nil)

	name, ok := h.HostnameHint(context.Background(), "192.168.1.10", true)
	require.True(t, ok)
	assert.Equal(t, "nas.lan", name)
}

func TestPTRNameRejectsFailures(t *testing.T) {
	_, ok := ptrName(nil)
	assert.False(t, ok)

	m := new(dns.Msg)
	m.Rcode = dns.RcodeNameError
	_, ok = ptrName(m)
	assert.False(t, ok)
}

func TestNewHostRecordDefaults(t *testing.T) {
	rec := NewHostRecord("10.1.1.1")
	assert.Equal(t, UnknownMAC, rec.MAC)
	assert.Equal(t, UnknownVendor, rec.Vendor)
	assert.Empty(t, rec.Hostname)
}
