// Package events carries the incremental results of scan and capture runs
// from the engines to whoever is observing them.
//
// Engines never block on delivery: a Sink must return promptly. The Hub keeps
// an ordered backlog per subscriber and, for one that falls behind, skips
// only progress and packet events. Results and terminal events always arrive.
//
// A run's terminal event is emitted before the engine admits its next run,
// so in any one stream a run's done or stopped precedes the next run's events.
package events

import (
	"sync"
	"time"
)

// Kind names one event in the command surface.
type Kind string

const (
	IPScanDevice   Kind = "ip_scan_device"
	IPScanProgress Kind = "ip_scan_progress"
	IPScanDone     Kind = "ip_scan_done"
	IPScanStopped  Kind = "ip_scan_stopped"

	PortScanPort     Kind = "port_scan_port"
	PortScanProgress Kind = "port_scan_progress"
	PortScanDone     Kind = "port_scan_done"
	PortScanStopped  Kind = "port_scan_stopped"

	CaptureStatus  Kind = "pcap_status"
	CapturePacket  Kind = "pcap_packet"
	CaptureError   Kind = "pcap_error"
	CaptureStopped Kind = "pcap_stopped"
)

// Topic groups kinds by the engine that produces them.
type Topic string

const (
	TopicIPScan   Topic = "ip_scan"
	TopicPortScan Topic = "port_scan"
	TopicCapture  Topic = "capture"
)

// Topic returns the engine topic a kind belongs to.
func (k Kind) Topic() Topic {
	switch k {
	case IPScanDevice, IPScanProgress, IPScanDone, IPScanStopped:
		return TopicIPScan
	case PortScanPort, PortScanProgress, PortScanDone, PortScanStopped:
		return TopicPortScan
	default:
		return TopicCapture
	}
}

// Terminal reports whether the kind ends a run.
func (k Kind) Terminal() bool {
	switch k {
	case IPScanDone, IPScanStopped, PortScanDone, PortScanStopped, CaptureStopped:
		return true
	}
	return false
}

// Droppable reports whether the kind may be skipped for a slow observer.
// Progress is superseded by the next update and packets are a live tail.
func (k Kind) Droppable() bool {
	switch k {
	case IPScanProgress, PortScanProgress, CapturePacket:
		return true
	}
	return false
}

// Event is one message in a run's stream.
type Event struct {
	Kind      Kind      `json:"type"`
	RunID     string    `json:"run_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
}

// Progress is the payload of the *_progress events.
type Progress struct {
	Percent uint32 `json:"percent"`
}

// Done is the payload of the *_done events.
type Done struct {
	Count int `json:"count"`
}

// PortHit is the payload of port_scan_port.
type PortHit struct {
	Port uint16 `json:"port"`
}

// Message is the payload of pcap_status and pcap_error.
type Message struct {
	Message string `json:"message"`
}

// Sink receives events. Emit must not block for long.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

// Emit calls f(e).
func (f SinkFunc) Emit(e Event) { f(e) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(Event) {})

// Emitter stamps events for a single run before handing them to a sink.
type Emitter struct {
	sink  Sink
	runID string
	now   func() time.Time
}

// NewEmitter returns an emitter that tags every event with runID.
func NewEmitter(sink Sink, runID string) *Emitter {
	if sink == nil {
		sink = Discard
	}
	return &Emitter{sink: sink, runID: runID, now: time.Now}
}

// Emit sends one event of the given kind.
func (e *Emitter) Emit(kind Kind, data any) {
	e.sink.Emit(Event{
		Kind:      kind,
		RunID:     e.runID,
		Timestamp: e.now(),
		Data:      data,
	})
}

// Recorder is a Sink that keeps everything it receives.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	notify chan struct{}
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{notify: make(chan struct{}, 1)}
}

// Emit implements Sink.
func (r *Recorder) Emit(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()

	select {
	case r.notify <- struct{}{}:
	default:
	}
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// OfKind returns the recorded events with the given kind.
func (r *Recorder) OfKind(kind Kind) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// Count returns how many events of the given kind were recorded.
func (r *Recorder) Count(kind Kind) int {
	return len(r.OfKind(kind))
}

// WaitFor blocks until an event of the given kind arrives or the timeout expires.
func (r *Recorder) WaitFor(kind Kind, timeout time.Duration) bool {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		if r.Count(kind) > 0 {
			return true
		}
		select {
		case <-r.notify:
		case <-deadline.C:
			return r.Count(kind) > 0
		}
	}
}
