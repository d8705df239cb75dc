package capture

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anstrom/reconkit/internal/dissect"
	"github.com/anstrom/reconkit/internal/platform"
)

func TestParseTsharkLine(t *testing.T) {
	now := time.Date(2024, 5, 1, 9, 30, 15, 250_000_000, time.Local)

	tests := []struct {
		name string
		line string
		want dissect.FrameSummary
	}{
		{
			name: "ipv4",
			line: "0.000123\t192.168.1.10\t192.168.1.1\t\t\tTCP\t66\t51515 → 443 [ACK]",
			want: dissect.FrameSummary{Time: "0.000123", Src: "192.168.1.10", Dest: "192.168.1.1", Protocol: "TCP", Length: 66, Info: "51515 → 443 [ACK]"},
		},
		{
			name: "ipv6",
			line: "1.5\t\t\tfe80::1\tff02::fb\tMDNS\t110\tStandard query",
			want: dissect.FrameSummary{Time: "1.5", Src: "fe80::1", Dest: "ff02::fb", Protocol: "MDNS", Length: 110, Info: "Standard query"},
		},
		{
			name: "defaults",
			line: "\t\t\t\t\t\tbogus\t",
			want: dissect.FrameSummary{Time: "09:30:15.250", Src: "unknown", Dest: "unknown", Protocol: "UNKNOWN", Length: 0, Info: "No info"},
		},
		{
			name: "short line",
			line: "2.0\t10.0.0.1",
			want: dissect.FrameSummary{Time: "2.0", Src: "10.0.0.1", Dest: "unknown", Protocol: "UNKNOWN", Info: "No info"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseTsharkLine(tt.line, now))
		})
	}
}

func TestParseTsharkInterfaces(t *testing.T) {
	out := "1. eth0\n" +
		"2. wlan0 (Wi-Fi)\n" +
		"\n" +
		"3. \\Device\\NPF_{1234} (Ethernet 2)\n" +
		"4. any (Pseudo-device that captures on all interfaces)\n"

	assert.Equal(t, []Interface{
		{Name: "eth0"},
		{Name: "wlan0", Description: "Wi-Fi"},
		{Name: `\Device\NPF_{1234}`, Description: "Ethernet 2"},
		{Name: "any", Description: "Pseudo-device that captures on all interfaces"},
	}, ParseTsharkInterfaces(out))

	assert.Empty(t, ParseTsharkInterfaces(""))
}

func TestTsharkArgs(t *testing.T) {
	args := TsharkArgs("eth0", "tcp")
	assert.Equal(t, []string{"-l", "-n", "-i", "eth0"}, args[:4])
	assert.Equal(t, []string{"-f", "tcp"}, args[len(args)-2:])
	assert.Contains(t, args, "separator=\t")
	assert.Contains(t, args, "_ws.col.Info")

	bare := TsharkArgs("", "")
	assert.NotContains(t, bare, "-i")
	assert.NotContains(t, bare, "-f")
}

func TestTsharkFindAndInterfaces(t *testing.T) {
	var calls []string
	runner := platform.RunnerFunc(func(_ context.Context, name string, args ...string) ([]byte, error) {
		calls = append(calls, name+" "+args[0])
		switch {
		case name == "second" && args[0] == "-v":
			return []byte("TShark 4.2"), nil
		case name == "second" && args[0] == "-D":
			return []byte("1. eth0 (Ethernet)\n2. lo (Loopback)\n"), nil
		}
		return nil, stderrors.New("not found")
	})

	ts := NewTshark([]string{"first", "second", "third"}, runner)
	path, err := ts.Find(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "second", path)

	list, err := ts.Interfaces(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Interface{{Name: "eth0", Description: "Ethernet"}, {Name: "lo", Description: "Loopback"}}, list)
	assert.Equal(t, []string{"first -v", "second -v", "first -v", "second -v", "second -D"}, calls)

	missing := NewTshark([]string{"nope"}, platform.RunnerFunc(func(context.Context, string, ...string) ([]byte, error) {
		return nil, stderrors.New("not found")
	}))
	_, err = missing.Find(context.Background())
	assert.ErrorIs(t, err, ErrTsharkNotFound)
}
