package capture

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"strings"

	"github.com/anstrom/reconkit/internal/errors"
	"github.com/anstrom/reconkit/internal/events"
	"github.com/anstrom/reconkit/internal/logging"
	"github.com/anstrom/reconkit/internal/metrics"
	"github.com/anstrom/reconkit/internal/scanning"
)

// Kind is the lifecycle and metrics name of the capture engine.
const Kind = "capture"

// Engine runs at most one capture at a time.
type Engine struct {
	lifecycle *scanning.Lifecycle
	cfg       Config
	gate      Gate
	native    Native
	tshark    *Tshark
	logger    *logging.Logger
	metrics   *metrics.PrometheusMetrics
}

// NewEngine creates a capture engine publishing to sink.
func NewEngine(sink events.Sink, cfg Config, logger *logging.Logger, m *metrics.PrometheusMetrics) *Engine {
	if logger == nil {
		logger = logging.NewDiscard()
	}
	cfg = cfg.withDefaults()
	return &Engine{
		lifecycle: scanning.NewLifecycle(Kind, sink, logger, m),
		cfg:       cfg,
		gate:      NewDriverGate(),
		native:    NewNative(),
		tshark:    NewTshark(cfg.TsharkPaths, nil),
		logger:    logger.WithComponent(Kind),
		metrics:   m,
	}
}

// WithGate replaces the driver precondition.
func (e *Engine) WithGate(g Gate) *Engine {
	e.gate = g
	return e
}

// WithNative replaces the native backend.
func (e *Engine) WithNative(n Native) *Engine {
	e.native = n
	return e
}

// WithTshark replaces the tshark driver.
func (e *Engine) WithTshark(t *Tshark) *Engine {
	e.tshark = t
	return e
}

// Gate reports the driver precondition.
func (e *Engine) Gate() GateStatus {
	return e.gate.Check()
}

func (e *Engine) checkGate() error {
	if st := e.gate.Check(); !st.Installed {
		return errors.NewCaptureError(errors.CodeResourceUnavailable, st.Message)
	}
	return nil
}

// ListInterfaces prefers tshark's listing for its descriptions and falls
// back to the native device list.
func (e *Engine) ListInterfaces(ctx context.Context) ([]Interface, error) {
	if err := e.checkGate(); err != nil {
		return nil, err
	}
	list, err := e.tshark.Interfaces(ctx)
	if err == nil && len(list) > 0 {
		return list, nil
	}
	e.logger.Debug("tshark interface listing unavailable", "error", err)

	list, err = e.native.Devices()
	if err != nil {
		return nil, errors.WrapCaptureError(errors.CodeResourceUnavailable, "unable to list capture interfaces", "", err)
	}
	return list, nil
}

// Start opens a frame source and streams summaries until Stop. Open
// failures are returned synchronously and leave the engine idle.
func (e *Engine) Start(ctx context.Context, req StartRequest) (string, error) {
	if err := e.checkGate(); err != nil {
		e.lifecycle.Reject(err)
		return "", err
	}

	run, err := e.lifecycle.Begin()
	if err != nil {
		return "", err
	}

	iface := strings.TrimSpace(req.Interface)
	filter := BuildFilter(req.Protocols, req.Filter)

	src, err := e.open(ctx, run, iface, filter)
	if err != nil {
		run.Logger().ErrorCapture("capture start failed", iface, err)
		e.lifecycle.Abandon(run, err)
		return "", err
	}

	run.Logger().InfoCapture("capture started", iface, "backend", src.Backend(), "filter", filter)
	go e.loop(run, src, iface)
	return run.ID, nil
}

func (e *Engine) open(ctx context.Context, run *scanning.Run, iface, filter string) (FrameSource, error) {
	src, nativeErr := e.openNative(iface)
	if nativeErr == nil {
		if filter != "" {
			if err := src.SetFilter(filter); err != nil {
				e.warn(run, BackendPcap, iface, fmt.Sprintf("BPF filter error: %v", err), err)
			}
		}
		return src, nil
	}

	path, err := e.tshark.Find(ctx)
	if err != nil {
		return nil, errors.WrapCaptureError(errors.CodeResourceUnavailable, "unable to open capture", iface, nativeErr)
	}

	tsrc, err := e.tshark.Start(path, iface, filter, func(line string) {
		e.warn(run, BackendTshark, iface, "tshark: "+line, nil)
	})
	if err != nil {
		msg := fmt.Sprintf("unable to open capture: %v; tshark fallback also failed", nativeErr)
		return nil, errors.WrapCaptureError(errors.CodeRuntimeIO, msg, iface, err)
	}
	run.Logger().WarnCapture("native capture unavailable, using tshark", iface, nativeErr)
	return tsrc, nil
}

func (e *Engine) openNative(iface string) (NativeSource, error) {
	if iface == "" {
		dev, err := e.native.DefaultDevice()
		if err != nil {
			return nil, fmt.Errorf("no default capture interface found: %w", err)
		}
		iface = dev
	}
	return e.native.Open(iface, e.cfg)
}

func (e *Engine) warn(run *scanning.Run, backend, iface, msg string, err error) {
	e.metrics.CaptureError(backend)
	run.Logger().WarnCapture(msg, iface, err)
	run.Emit(events.CaptureError, events.Message{Message: msg})
}

func (e *Engine) loop(run *scanning.Run, src FrameSource, iface string) {
	backend := src.Backend()
	status := StatusRunning
	if backend == BackendTshark {
		status = StatusRunningTshark
	}
	run.Emit(events.CaptureStatus, events.Message{Message: status})

	exited := make(chan struct{})
	go func() {
		select {
		case <-run.Context().Done():
			src.Interrupt()
		case <-exited:
		}
	}()

	frames := 0
	for !run.Canceled() {
		frame, err := src.Next()
		if err == nil {
			frames++
			e.metrics.FrameCaptured(backend)
			run.Emit(events.CapturePacket, frame)
			continue
		}
		if stderrors.Is(err, ErrTimeout) {
			continue
		}
		if !stderrors.Is(err, io.EOF) && !run.Canceled() {
			e.warn(run, backend, iface, readErrorMessage(backend, err), err)
		}
		break
	}
	close(exited)

	if err := src.Close(); err != nil {
		run.Logger().WarnCapture("closing capture source", iface, err)
	}
	run.Logger().InfoCapture("capture finished", iface, "backend", backend, "frames", frames, "canceled", run.Canceled())

	run.Emit(events.CaptureStatus, events.Message{Message: StatusStopped})
	e.lifecycle.Finish(run, events.CaptureStopped, events.Done{Count: frames})
}

func readErrorMessage(backend string, err error) string {
	if backend == BackendTshark {
		return fmt.Sprintf("tshark read error: %v", err)
	}
	return fmt.Sprintf("Capture error: %v", err)
}

// Stop ends the active capture and waits for its source to be torn down.
// It is a no-op when no capture is running.
func (e *Engine) Stop(ctx context.Context) error {
	return e.lifecycle.Stop(ctx)
}

// Running reports whether a capture is active.
func (e *Engine) Running() bool {
	return e.lifecycle.Running()
}

// Status describes the engine's current run.
func (e *Engine) Status() scanning.Status {
	return e.lifecycle.Status()
}
