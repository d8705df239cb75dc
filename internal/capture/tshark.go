package capture

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/anstrom/reconkit/internal/dissect"
	"github.com/anstrom/reconkit/internal/platform"
)

// ErrTsharkNotFound is returned when no tshark candidate answers.
var ErrTsharkNotFound = stderrors.New("tshark not found on PATH or default locations; install Wireshark/TShark")

// DefaultTsharkPaths lists where tshark is looked for, in order.
func DefaultTsharkPaths() []string {
	return []string{
		"tshark",
		`C:\Program Files\Wireshark\tshark.exe`,
		`C:\Program Files (x86)\Wireshark\tshark.exe`,
	}
}

var tsharkFields = []string{
	"frame.time_relative",
	"ip.src",
	"ip.dst",
	"ipv6.src",
	"ipv6.dst",
	"_ws.col.Protocol",
	"frame.len",
	"_ws.col.Info",
}

// TsharkArgs returns the command line for a field-output capture. An empty
// iface lets tshark pick its default interface.
func TsharkArgs(iface, filter string) []string {
	args := []string{"-l", "-n"}
	if iface != "" {
		args = append(args, "-i", iface)
	}
	args = append(args, "-T", "fields", "-E", "separator=\t", "-E", "quote=n")
	for _, f := range tsharkFields {
		args = append(args, "-e", f)
	}
	if filter != "" {
		args = append(args, "-f", filter)
	}
	return args
}

// ParseTsharkLine converts one tab-separated field line into a summary.
func ParseTsharkLine(line string, now time.Time) dissect.FrameSummary {
	parts := strings.Split(line, "\t")
	field := func(i int) string {
		if i < len(parts) {
			return strings.TrimSpace(parts[i])
		}
		return ""
	}
	firstOf := func(values ...string) string {
		for _, v := range values {
			if v != "" {
				return v
			}
		}
		return "unknown"
	}

	s := dissect.FrameSummary{
		Time:     field(0),
		Src:      firstOf(field(1), field(3)),
		Dest:     firstOf(field(2), field(4)),
		Protocol: field(5),
		Info:     field(7),
	}
	s.Length, _ = strconv.Atoi(field(6))
	if s.Time == "" {
		s.Time = now.Format(dissect.TimeLayout)
	}
	if s.Protocol == "" {
		s.Protocol = "UNKNOWN"
	}
	if s.Info == "" {
		s.Info = "No info"
	}
	return s
}

// ParseTsharkInterfaces reads `tshark -D` output, lines of the form
// "1. eth0 (Ethernet)".
func ParseTsharkInterfaces(out string) []Interface {
	var list []Interface
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if _, rest, ok := strings.Cut(line, ". "); ok {
			line = rest
		}

		name, desc := line, ""
		if strings.HasSuffix(line, ")") {
			if i := strings.LastIndex(line, " ("); i >= 0 {
				name = line[:i]
				desc = strings.TrimSuffix(line[i+2:], ")")
			}
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		list = append(list, Interface{Name: name, Description: strings.TrimSpace(desc)})
	}
	return list
}

// Tshark locates and drives the tshark binary.
type Tshark struct {
	candidates []string
	runner     platform.Runner
	command    func(ctx context.Context, name string, args ...string) *exec.Cmd
	now        func() time.Time
}

// NewTshark creates a driver over the candidate paths.
func NewTshark(candidates []string, runner platform.Runner) *Tshark {
	if len(candidates) == 0 {
		candidates = DefaultTsharkPaths()
	}
	if runner == nil {
		runner = platform.ExecRunner{}
	}
	return &Tshark{
		candidates: candidates,
		runner:     runner,
		command:    exec.CommandContext,
		now:        time.Now,
	}
}

// Find returns the first candidate for which `tshark -v` succeeds.
func (t *Tshark) Find(ctx context.Context) (string, error) {
	for _, c := range t.candidates {
		if _, err := t.runner.Run(ctx, c, "-v"); err == nil {
			return c, nil
		}
	}
	return "", ErrTsharkNotFound
}

// Interfaces lists capture devices as tshark sees them.
func (t *Tshark) Interfaces(ctx context.Context) ([]Interface, error) {
	path, err := t.Find(ctx)
	if err != nil {
		return nil, err
	}
	out, err := t.runner.Run(ctx, path, "-D")
	if err != nil {
		return nil, fmt.Errorf("tshark -D: %w", err)
	}
	return ParseTsharkInterfaces(string(out)), nil
}

// Start spawns a capture. Each non-blank stderr line is passed to warn.
func (t *Tshark) Start(path, iface, filter string, warn func(string)) (FrameSource, error) {
	// The process is owned by the source and ended through Interrupt.
	cmd := t.command(context.Background(), path, TsharkArgs(iface, filter)...)
	cmd.WaitDelay = 2 * time.Second
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("unable to start tshark: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("unable to start tshark: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("unable to start tshark: %w", err)
	}

	src := &tsharkSource{
		cmd:     cmd,
		scanner: bufio.NewScanner(stdout),
		now:     t.now,
		relayed: make(chan struct{}),
	}
	go src.relay(stderr, warn)
	return src, nil
}

type tsharkSource struct {
	cmd     *exec.Cmd
	scanner *bufio.Scanner
	now     func() time.Time
	relayed chan struct{}

	killOnce  sync.Once
	closeOnce sync.Once
}

func (s *tsharkSource) Backend() string {
	return BackendTshark
}

func (s *tsharkSource) Next() (dissect.FrameSummary, error) {
	for s.scanner.Scan() {
		line := s.scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		return ParseTsharkLine(line, s.now()), nil
	}
	if err := s.scanner.Err(); err != nil {
		return dissect.FrameSummary{}, err
	}
	return dissect.FrameSummary{}, io.EOF
}

func (s *tsharkSource) Interrupt() {
	s.killOnce.Do(func() {
		if s.cmd.Process != nil {
			_ = s.cmd.Process.Kill()
		}
	})
}

func (s *tsharkSource) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.Interrupt()
		err = s.cmd.Wait()
		<-s.relayed
		var exitErr *exec.ExitError
		if stderrors.As(err, &exitErr) || stderrors.Is(err, exec.ErrWaitDelay) {
			err = nil
		}
	})
	return err
}

func (s *tsharkSource) relay(r io.Reader, warn func(string)) {
	defer close(s.relayed)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" && warn != nil {
			warn(line)
		}
	}
}
