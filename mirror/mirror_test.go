package mirror

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"boardsync/domain"
)

// stubWatcher replays scripted pushes to whoever subscribes and counts
// how many subscriptions were opened.
type stubWatcher struct {
	watchCount int32
	pushes     chan []domain.Document
	errs       chan error
}

func newStubWatcher() *stubWatcher {
	return &stubWatcher{
		pushes: make(chan []domain.Document, 8),
		errs:   make(chan error, 8),
	}
}

func (w *stubWatcher) Watch(ctx context.Context, onSnapshot func([]domain.Document), onError func(error)) {
	atomic.AddInt32(&w.watchCount, 1)
	for {
		select {
		case <-ctx.Done():
			return
		case docs := <-w.pushes:
			onSnapshot(docs)
		case err := <-w.errs:
			onError(err)
		}
	}
}

func docOf(id, title string) domain.Document {
	return domain.Document{ID: id, Data: []byte(`{"Title":"` + title + `"}`)}
}

func TestMirrorReplacesWholeSnapshot(t *testing.T) {
	w := newStubWatcher()
	m := New("tasks", w, domain.DecodeTask)
	t.Cleanup(m.Close)

	w.pushes <- []domain.Document{docOf("task-001", "one"), docOf("task-002", "two")}
	time.Sleep(50 * time.Millisecond)

	if got := m.Current(); len(got) != 2 || got[0].Title != "one" {
		t.Fatalf("unexpected snapshot: %#v", got)
	}

	w.pushes <- []domain.Document{docOf("task-002", "two")}
	time.Sleep(50 * time.Millisecond)

	if got := m.Current(); len(got) != 1 || got[0].ID != "task-002" {
		t.Fatalf("expected full replacement, got %#v", got)
	}
}

func TestMirrorFanOutSharesOneSubscription(t *testing.T) {
	w := newStubWatcher()
	m := New("tasks", w, domain.DecodeTask)
	t.Cleanup(m.Close)

	first, cancelFirst := m.Subscribe()
	t.Cleanup(cancelFirst)
	second, cancelSecond := m.Subscribe()
	t.Cleanup(cancelSecond)

	w.pushes <- []domain.Document{docOf("task-001", "one")}

	for i, ch := range []<-chan []domain.Task{first, second} {
		select {
		case tasks := <-ch:
			if len(tasks) != 1 || tasks[0].ID != "task-001" {
				t.Fatalf("consumer %d got %#v", i, tasks)
			}
		case <-time.After(time.Second):
			t.Fatalf("consumer %d got no snapshot", i)
		}
	}

	if n := atomic.LoadInt32(&w.watchCount); n != 1 {
		t.Fatalf("expected a single underlying subscription, got %d", n)
	}
}

func TestMirrorSubscribeReplaysLatest(t *testing.T) {
	w := newStubWatcher()
	m := New("tasks", w, domain.DecodeTask)
	t.Cleanup(m.Close)

	w.pushes <- []domain.Document{docOf("task-001", "one")}
	time.Sleep(50 * time.Millisecond)

	ch, cancel := m.Subscribe()
	t.Cleanup(cancel)

	select {
	case tasks := <-ch:
		if len(tasks) != 1 {
			t.Fatalf("unexpected replay: %#v", tasks)
		}
	case <-time.After(time.Second):
		t.Fatal("late subscriber got no replay of the latest snapshot")
	}
}

func TestMirrorKeepsSnapshotOnSubscriptionError(t *testing.T) {
	w := newStubWatcher()
	m := New("tasks", w, domain.DecodeTask)
	t.Cleanup(m.Close)

	w.pushes <- []domain.Document{docOf("task-001", "one")}
	time.Sleep(50 * time.Millisecond)

	w.errs <- errors.New("listener failed")
	time.Sleep(50 * time.Millisecond)

	if got := m.Current(); len(got) != 1 || got[0].ID != "task-001" {
		t.Fatalf("error must not disturb the last good snapshot, got %#v", got)
	}
}
