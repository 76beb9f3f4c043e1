package realtime

import "sync"

// Feed is a stream of change events that can be torn down. *Subscription
// is the single-collection Feed; Merge builds one over several.
type Feed interface {
	Events() <-chan Event
	Done() <-chan struct{}
	Canceled() bool
	Cancel()
}

// Merge fans several subscriptions into one Feed. Canceling the result
// cancels every member, and the merged feed ends as soon as any member
// does. A single subscription is returned as is.
func Merge(subs ...*Subscription) Feed {
	if len(subs) == 1 {
		return subs[0]
	}
	g := &group{
		subs:   subs,
		events: make(chan Event, subscriptionBuffer),
		done:   make(chan struct{}),
	}
	if len(subs) == 0 {
		g.Cancel()
		return g
	}
	for _, sub := range subs {
		go g.forward(sub)
	}
	return g
}

type group struct {
	subs   []*Subscription
	events chan Event
	done   chan struct{}
	once   sync.Once
}

func (g *group) forward(sub *Subscription) {
	for {
		select {
		case <-g.done:
			return
		case <-sub.Done():
			g.Cancel()
			return
		case e := <-sub.Events():
			select {
			case g.events <- e:
			case <-g.done:
				return
			}
		}
	}
}

func (g *group) Events() <-chan Event {
	return g.events
}

func (g *group) Done() <-chan struct{} {
	return g.done
}

func (g *group) Canceled() bool {
	select {
	case <-g.done:
		return true
	default:
		return false
	}
}

func (g *group) Cancel() {
	g.once.Do(func() {
		close(g.done)
		for _, sub := range g.subs {
			sub.Cancel()
		}
	})
}
