package events

import (
	"sync"
	"sync/atomic"
)

const defaultSubscriberBuffer = 256

// Subscription is one observer's view of the hub. Events arrive on C in
// emission order; C is closed once the subscription is detached.
type Subscription struct {
	C      <-chan Event
	out    chan Event
	topics map[Topic]bool
	hub    *Hub
	once   sync.Once

	mu    sync.Mutex
	queue []Event
	limit int
	wake  chan struct{}
	quit  chan struct{}
}

// Wants reports whether the subscription asked for the topic. No topics means all.
func (s *Subscription) Wants(t Topic) bool {
	return len(s.topics) == 0 || s.topics[t]
}

// Close detaches the subscription. Queued events are discarded and C is closed.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.remove(s)
	})
}

// Pending returns how many events are queued but not yet read from C.
func (s *Subscription) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// enqueue reports false when a droppable event found the backlog full.
func (s *Subscription) enqueue(e Event) bool {
	s.mu.Lock()
	if e.Kind.Droppable() && len(s.queue) >= s.limit {
		s.mu.Unlock()
		return false
	}
	s.queue = append(s.queue, e)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return true
}

func (s *Subscription) next() (Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return Event{}, false
	}
	e := s.queue[0]
	s.queue[0] = Event{}
	s.queue = s.queue[1:]
	if len(s.queue) == 0 {
		s.queue = nil
	}
	return e, true
}

// pump moves queued events to C until the subscription is detached.
func (s *Subscription) pump() {
	defer close(s.out)
	for {
		e, ok := s.next()
		if !ok {
			select {
			case <-s.wake:
				continue
			case <-s.quit:
				return
			}
		}
		select {
		case <-s.quit:
			return
		default:
		}
		select {
		case s.out <- e:
		case <-s.quit:
			return
		}
	}
}

// Hub broadcasts events to any number of subscribers without blocking the
// emitting engine. Each subscriber has its own ordered backlog. Progress and
// packet events are skipped for a subscriber whose backlog is full; every
// other kind is always queued, so results and terminal events are never lost.
type Hub struct {
	mu      sync.RWMutex
	subs    map[*Subscription]struct{}
	buffer  int
	dropped atomic.Uint64
}

// NewHub creates a hub whose subscribers hold up to buffer droppable events.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}
	return &Hub{
		subs:   make(map[*Subscription]struct{}),
		buffer: buffer,
	}
}

// Subscribe registers a new observer for the given topics.
func (h *Hub) Subscribe(topics ...Topic) *Subscription {
	out := make(chan Event)
	sub := &Subscription{
		C:      out,
		out:    out,
		hub:    h,
		topics: make(map[Topic]bool),
		limit:  h.buffer,
		wake:   make(chan struct{}, 1),
		quit:   make(chan struct{}),
	}
	for _, t := range topics {
		sub.topics[t] = true
	}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()

	go sub.pump()
	return sub
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[sub]; ok {
		delete(h.subs, sub)
		close(sub.quit)
	}
}

// Emit implements Sink.
func (h *Hub) Emit(e Event) {
	topic := e.Kind.Topic()

	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs {
		if !sub.Wants(topic) {
			continue
		}
		if !sub.enqueue(e) {
			h.dropped.Add(1)
		}
	}
}

// Subscribers returns the number of attached observers.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Dropped returns how many progress or packet deliveries were skipped
// because a subscriber's backlog was full.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}

// Close detaches every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		delete(h.subs, sub)
		close(sub.quit)
	}
}
