package scanning

import (
	"context"
	stderrors "errors"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anstrom/reconkit/internal/errors"
	"github.com/anstrom/reconkit/internal/events"
	"github.com/anstrom/reconkit/internal/metrics"
)

type staticResolver struct {
	addrs []net.IPAddr
	err   error
}

func (r staticResolver) LookupIPAddr(context.Context, string) ([]net.IPAddr, error) {
	return r.addrs, r.err
}

// fakeDialer accepts connections on the listed ports and refuses the rest.
func fakeDialer(open ...string) DialFunc {
	set := map[string]bool{}
	for _, p := range open {
		set[p] = true
	}
	return func(_ context.Context, _, address string) (net.Conn, error) {
		_, port, _ := net.SplitHostPort(address)
		if set[port] {
			client, server := net.Pipe()
			_ = server.Close()
			return client, nil
		}
		return nil, stderrors.New("connection refused")
	}
}

func newPortScanner(rec *events.Recorder) *PortScanner {
	return NewPortScanner(rec, DefaultConfig(), nil, metrics.NewPrometheusMetrics())
}

func TestPortScannerFindsOpenPorts(t *testing.T) {
	rec := events.NewRecorder()
	s := newPortScanner(rec).WithDialer(fakeDialer("22", "443"))

	runID, err := s.Start(context.Background(), PortScanRequest{Target: "127.0.0.1", Ports: "22,80-82,443,22"})
	require.NoError(t, err)
	require.True(t, rec.WaitFor(events.PortScanDone, waitTimeout))

	var ports []uint16
	for _, e := range rec.OfKind(events.PortScanPort) {
		ports = append(ports, e.Data.(events.PortHit).Port)
		assert.Equal(t, runID, e.RunID)
	}
	assert.ElementsMatch(t, []uint16{22, 443}, ports)
	assert.Equal(t, events.Done{Count: 2}, rec.OfKind(events.PortScanDone)[0].Data)
	assert.Len(t, rec.OfKind(events.PortScanProgress), 5)
	assert.Zero(t, rec.Count(events.PortScanStopped))
}

func TestPortScannerAgainstRealListener(t *testing.T) {
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

	rec := events.NewRecorder()
	s := newPortScanner(rec)

	_, err = s.Start(context.Background(), PortScanRequest{
		Target:    "127.0.0.1",
		Ports:     strconv.Itoa(port),
		TimeoutMS: 500,
	})
	require.NoError(t, err)
	require.True(t, rec.WaitFor(events.PortScanDone, waitTimeout))

	hits := rec.OfKind(events.PortScanPort)
	require.Len(t, hits, 1)
	assert.Equal(t, uint16(port), hits[0].Data.(events.PortHit).Port)
}

func TestPortScannerValidation(t *testing.T) {
	rec := events.NewRecorder()
	s := newPortScanner(rec)

	for _, ports := range []string{"0", "80-22", "", "http"} {
		_, err := s.Start(context.Background(), PortScanRequest{Target: "127.0.0.1", Ports: ports})
		require.Error(t, err, ports)
		assert.True(t, errors.IsCode(err, errors.CodeValidation), ports)
	}

	s.WithResolver(staticResolver{err: stderrors.New("no such host")})
	_, err := s.Start(context.Background(), PortScanRequest{Target: "nowhere.invalid", Ports: "80"})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeResourceUnavailable))

	s.WithResolver(staticResolver{})
	_, err = s.Start(context.Background(), PortScanRequest{Target: "empty.invalid", Ports: "80"})
	assert.True(t, errors.IsCode(err, errors.CodeResourceUnavailable))

	assert.Empty(t, rec.Events())
	assert.False(t, s.Running())
}

func TestPortScannerResolvesNames(t *testing.T) {
	rec := events.NewRecorder()
	var (
		mu      sync.Mutex
		dialled []string
	)
	s := newPortScanner(rec).
		WithResolver(staticResolver{addrs: []net.IPAddr{{IP: net.ParseIP("192.0.2.10")}, {IP: net.ParseIP("192.0.2.11")}}}).
		WithDialer(func(_ context.Context, _, address string) (net.Conn, error) {
			mu.Lock()
			dialled = append(dialled, address)
			mu.Unlock()
			return nil, stderrors.New("refused")
		})

	_, err := s.Start(context.Background(), PortScanRequest{Target: "printer.lan", Ports: "631"})
	require.NoError(t, err)
	require.True(t, rec.WaitFor(events.PortScanDone, waitTimeout))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"192.0.2.10:631"}, dialled)
	assert.Equal(t, events.Done{Count: 0}, rec.OfKind(events.PortScanDone)[0].Data)
}

func TestPortScannerTimeoutClamp(t *testing.T) {
	s := newPortScanner(events.NewRecorder())

	assert.Equal(t, 200*time.Millisecond, s.Timeout(0))
	assert.Equal(t, 200*time.Millisecond, s.Timeout(-5))
	assert.Equal(t, 50*time.Millisecond, s.Timeout(10))
	assert.Equal(t, 750*time.Millisecond, s.Timeout(750))
	assert.Equal(t, 2*time.Second, s.Timeout(60000))
}

func TestPortScannerStop(t *testing.T) {
	rec := events.NewRecorder()
	gate := make(chan struct{})
	s := newPortScanner(rec).WithDialer(func(ctx context.Context, _, _ string) (net.Conn, error) {
		<-gate
		return nil, stderrors.New("refused")
	})

	_, err := s.Start(context.Background(), PortScanRequest{Target: "127.0.0.1", Ports: "1-1000"})
	require.NoError(t, err)

	_, err = s.Start(context.Background(), PortScanRequest{Target: "127.0.0.1", Ports: "80"})
	assert.True(t, errors.IsCode(err, errors.CodeAlreadyRunning))

	time.AfterFunc(20*time.Millisecond, func() { close(gate) })

	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()
	require.NoError(t, s.Stop(ctx))

	assert.Equal(t, 1, rec.Count(events.PortScanStopped))
	assert.Zero(t, rec.Count(events.PortScanDone))
	assert.Less(t, rec.Count(events.PortScanProgress), 1000)
	assert.False(t, s.Running())

	require.NoError(t, s.Stop(ctx), "second stop is a no-op")
	assert.Equal(t, 1, rec.Count(events.PortScanStopped))
}

func TestPortScannerSlowObserverReceivesHitsAndDone(t *testing.T) {
	hub := events.NewHub(32)
	defer hub.Close()
	sub := hub.Subscribe(events.TopicPortScan)
	defer sub.Close()

	s := NewPortScanner(hub, DefaultConfig(), nil, nil).WithDialer(fakeDialer("100", "2500", "4999"))
	_, err := s.Start(context.Background(), PortScanRequest{Target: "127.0.0.1", Ports: "1-5000"})
	require.NoError(t, err)

	var hits []uint16
	deadline := time.After(waitTimeout)
	for {
		select {
		case e := <-sub.C:
			time.Sleep(30 * time.Microsecond)
			switch e.Kind {
			case events.PortScanPort:
				hits = append(hits, e.Data.(events.PortHit).Port)
			case events.PortScanDone:
				assert.Equal(t, events.Done{Count: 3}, e.Data)
				assert.ElementsMatch(t, []uint16{100, 2500, 4999}, hits)
				return
			case events.PortScanStopped:
				t.Fatal("scan stopped unexpectedly")
			}
		case <-deadline:
			t.Fatalf("port_scan_done never arrived; %d hits, %d progress dropped", len(hits), hub.Dropped())
		}
	}
}
