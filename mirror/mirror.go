package mirror

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"

	"boardsync/domain"
)

// Watcher delivers full snapshots of a remote collection. Watch blocks
// until its context is cancelled.
type Watcher interface {
	Watch(ctx context.Context, onSnapshot func([]domain.Document), onError func(error))
}

// Mirror keeps an in-memory typed copy of one remote collection. It
// opens exactly one underlying subscription on construction and fans
// snapshots out to any number of consumers; every push replaces the
// whole entity list, so readers observe either the previous or the
// next complete snapshot, never a partial one. A subscription error is
// logged and the last good snapshot stands.
type Mirror[T any] struct {
	name   string
	decode func(domain.Document) T

	mu      sync.RWMutex
	current []T
	ready   bool
	subs    map[chan []T]struct{}

	cancel context.CancelFunc
	done   chan struct{}
}

// New starts mirroring the collection watched by w. Raw documents are
// mapped through decode, which supplies defaults for optional fields.
func New[T any](name string, w Watcher, decode func(domain.Document) T) *Mirror[T] {
	m := &Mirror[T]{
		name:   name,
		decode: decode,
		subs:   make(map[chan []T]struct{}),
		done:   make(chan struct{}),
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	go func() {
		defer close(m.done)
		w.Watch(ctx, m.apply, m.fail)
	}()
	return m
}

func (m *Mirror[T]) apply(docs []domain.Document) {
	next := make([]T, 0, len(docs))
	for _, doc := range docs {
		next = append(next, m.decode(doc))
	}

	m.mu.Lock()
	m.current = next
	m.ready = true
	for ch := range m.subs {
		// Drop a stale undelivered snapshot so slow consumers only
		// ever miss intermediate states, never see partial ones.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- next:
		default:
		}
	}
	m.mu.Unlock()
}

func (m *Mirror[T]) fail(err error) {
	log.WithError(err).WithField("collection", m.name).Error("subscription error, keeping last snapshot")
}

// Current returns a copy of the latest snapshot.
func (m *Mirror[T]) Current() []T {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]T, len(m.current))
	copy(out, m.current)
	return out
}

// Subscribe registers a consumer. The returned channel carries every
// new snapshot, starting with the current one when a snapshot has
// already arrived. The cancel func must be called when done.
func (m *Mirror[T]) Subscribe() (<-chan []T, func()) {
	ch := make(chan []T, 1)
	m.mu.Lock()
	m.subs[ch] = struct{}{}
	if m.ready {
		ch <- m.current
	}
	m.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs, ch)
			// apply only sends while the channel is registered, so
			// closing here is safe and lets range-based consumers
			// terminate.
			close(ch)
			m.mu.Unlock()
		})
	}
	return ch, cancel
}

// Close stops the underlying subscription and waits for it to exit.
func (m *Mirror[T]) Close() {
	m.cancel()
	<-m.done
}
