package realtime

import (
	"log"
	"sync"
	"time"
)

const subscriptionBuffer = 64

// Hub fans change events out to subscriptions. Each subscriber gets its own
// Subscription; nothing is shared between two views watching the same
// collection.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[*Subscription]struct{}
	closed bool
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[*Subscription]struct{})}
}

// Subscribe opens a subscription on collection. The caller owns it and must
// Cancel it when the consuming view goes away.
func (h *Hub) Subscribe(collection string, mask EventMask) *Subscription {
	sub := &Subscription{
		hub:        h,
		collection: collection,
		mask:       mask,
		events:     make(chan Event, subscriptionBuffer),
		done:       make(chan struct{}),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		sub.once.Do(func() { close(sub.done) })
		return sub
	}
	set, ok := h.subs[collection]
	if !ok {
		set = make(map[*Subscription]struct{})
		h.subs[collection] = set
	}
	set[sub] = struct{}{}
	return sub
}

// Publish delivers e to every active subscription whose mask matches.
// Delivery blocks on a full buffer until the subscriber drains it or cancels.
func (h *Hub) Publish(e Event) {
	if e.At.IsZero() {
		e.At = time.Now()
	}

	h.mu.RLock()
	targets := make([]*Subscription, 0, len(h.subs[e.Collection]))
	for sub := range h.subs[e.Collection] {
		if sub.mask.Matches(e.Type) {
			targets = append(targets, sub)
		}
	}
	h.mu.RUnlock()

	for _, sub := range targets {
		sub.deliver(e)
	}
}

// Active returns the number of live subscriptions on collection.
func (h *Hub) Active(collection string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[collection])
}

// Close cancels every subscription.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	var all []*Subscription
	for _, set := range h.subs {
		for sub := range set {
			all = append(all, sub)
		}
	}
	h.mu.Unlock()

	for _, sub := range all {
		sub.Cancel()
	}
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.subs[sub.collection]
	delete(set, sub)
	if len(set) == 0 {
		delete(h.subs, sub.collection)
	}
}

type Subscription struct {
	hub        *Hub
	collection string
	mask       EventMask
	events     chan Event
	done       chan struct{}
	once       sync.Once
}

func (s *Subscription) Collection() string {
	return s.collection
}

// Events is never closed; select on Done as well.
func (s *Subscription) Events() <-chan Event {
	return s.events
}

func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Canceled reports whether Cancel has been called.
func (s *Subscription) Canceled() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Cancel is idempotent.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		close(s.done)
		s.hub.remove(s)
	})
}

func (s *Subscription) deliver(e Event) {
	select {
	case <-s.done:
		return
	default:
	}
	select {
	case s.events <- e:
	case <-s.done:
	case <-time.After(5 * time.Second):
		log.Printf("[realtime] dropping %s event on %s: subscriber not draining", e.Type, e.Collection)
	}
}
