// Package views keeps filter-bound lists in step with the store. A list
// re-reads its whole result set whenever one of its collections changes; it
// never merges event payloads.
package views

import (
	"context"
	"errors"
	"sync"

	"hrportal/models"
	"hrportal/realtime"
)

var ErrAlreadyOpen = errors.New("view already opened")

// Source hands out subscriptions. *realtime.Hub satisfies it.
type Source interface {
	Subscribe(collection string, mask realtime.EventMask) *realtime.Subscription
}

// FetchFunc reads the rows visible to id under filter f.
type FetchFunc[T, F any] func(ctx context.Context, id *models.Identity, f F) ([]T, error)

type List[T, F any] struct {
	source      Source
	collections []string
	mask        realtime.EventMask
	fetch      FetchFunc[T, F]
	identity   *models.Identity
	notifier   Notifier

	mu      sync.Mutex
	filter  F
	rows    []T
	loaded  bool
	gen     uint64
	opened  bool
	closed  bool
	sub     realtime.Feed
	ctx     context.Context
	cancel  context.CancelFunc
	updates chan []T
	done    chan struct{}
}

func NewList[T, F any](source Source, collection string, mask realtime.EventMask, id *models.Identity, filter F, fetch FetchFunc[T, F], n Notifier) *List[T, F] {
	return NewListOn[T, F](source, []string{collection}, mask, id, filter, fetch, n)
}

// NewListOn is NewList for a result set derived from several collections.
// One subscription is opened per collection and an event on any of them
// triggers a single re-read.
func NewListOn[T, F any](source Source, collections []string, mask realtime.EventMask, id *models.Identity, filter F, fetch FetchFunc[T, F], n Notifier) *List[T, F] {
	if n == nil {
		n = LogNotifier{}
	}
	return &List[T, F]{
		source:      source,
		collections: collections,
		mask:        mask,
		fetch:       fetch,
		identity:    id,
		notifier:    n,
		filter:      filter,
		updates:     make(chan []T, 1),
		done:        make(chan struct{}),
	}
}

// Open subscribes and starts the refresh loop. The first read happens
// asynchronously; watch Updates or poll Snapshot.
func (l *List[T, F]) Open(ctx context.Context) error {
	l.mu.Lock()
	if l.opened {
		l.mu.Unlock()
		return ErrAlreadyOpen
	}
	l.opened = true
	l.ctx, l.cancel = context.WithCancel(ctx)
	subs := make([]*realtime.Subscription, 0, len(l.collections))
	for _, c := range l.collections {
		subs = append(subs, l.source.Subscribe(c, l.mask))
	}
	l.sub = realtime.Merge(subs...)
	watchCtx, sub := l.ctx, l.sub
	l.mu.Unlock()

	go func() {
		defer close(l.done)
		realtime.Watch(watchCtx, sub, l.refresh, l.report)
	}()
	return nil
}

// SetFilter swaps the filter and re-reads. Results of reads started under
// the previous filter are dropped.
func (l *List[T, F]) SetFilter(f F) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.filter = f
	l.gen++
	ctx := l.ctx
	l.mu.Unlock()

	if ctx == nil {
		// not opened yet; Open performs the first read
		return nil
	}
	err := l.refresh(ctx)
	if err != nil {
		l.report(err)
	}
	return err
}

func (l *List[T, F]) Filter() F {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.filter
}

// Snapshot returns a copy of the current rows and whether a read has
// completed yet.
func (l *List[T, F]) Snapshot() ([]T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]T, len(l.rows))
	copy(out, l.rows)
	return out, l.loaded
}

// Updates carries the latest result set after each successful read. Only
// the newest value is kept if the reader falls behind.
func (l *List[T, F]) Updates() <-chan []T {
	return l.updates
}

// Done is closed when the refresh loop has exited.
func (l *List[T, F]) Done() <-chan struct{} {
	return l.done
}

// Close cancels the subscription. A read still in flight completes but its
// result is discarded.
func (l *List[T, F]) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	l.gen++
	sub, cancel := l.sub, l.cancel
	l.mu.Unlock()

	if sub != nil {
		sub.Cancel()
	}
	if cancel != nil {
		cancel()
	}
}

func (l *List[T, F]) refresh(ctx context.Context) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	gen, f := l.gen, l.filter
	l.mu.Unlock()

	rows, err := l.fetch(ctx, l.identity, f)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed || gen != l.gen {
		return nil
	}
	l.rows = rows
	l.loaded = true
	l.push(rows)
	return nil
}

// push replaces any unread value. Called with mu held.
func (l *List[T, F]) push(rows []T) {
	out := make([]T, len(rows))
	copy(out, rows)
	select {
	case <-l.updates:
	default:
	}
	select {
	case l.updates <- out:
	default:
	}
}

func (l *List[T, F]) report(err error) {
	l.mu.Lock()
	closed := l.closed
	l.mu.Unlock()
	if closed {
		return
	}
	l.notifier.Notify(Describe(err))
}
