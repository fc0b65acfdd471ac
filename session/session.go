package session

import (
	"context"

	"boardsync/board"
	"boardsync/confirm"
	"boardsync/domain"
	"boardsync/mirror"
	"boardsync/notify"
)

// Collection is the remote document collection a session works
// against, implemented by storage.Collection.
type Collection interface {
	GetAll(ctx context.Context) ([]domain.Document, error)
	Get(ctx context.Context, id string) (domain.Document, bool, error)
	Set(ctx context.Context, id string, fields map[string]any) error
	Merge(ctx context.Context, id string, patch map[string]any) error
	Delete(ctx context.Context, id string) error
	Watch(ctx context.Context, onSnapshot func([]domain.Document), onError func(error))
}

// Session wires the reactive core together for one application
// session: one mirror per entity type sharing a single remote
// subscription each, the derived board state, the reorder and delete
// controllers and the notification slot. One long-lived instance per
// application session, passed to consumers instead of living as
// ambient package state.
type Session struct {
	Tasks    *mirror.Mirror[domain.Task]
	Contacts *mirror.Mirror[domain.Contact]
	Board    *board.State
	Reorder  *board.Reorder

	TaskDeletes    *confirm.Controller
	ContactDeletes *confirm.Controller

	Notifier *notify.Notifier

	tasks    Collection
	contacts Collection

	boardStop func()
	boardDone chan struct{}
}

// New builds a session on top of the two collections and starts the
// mirrors. Callers own the session and must Close it.
func New(tasks, contacts Collection) *Session {
	s := &Session{
		Notifier: notify.New(),
		Board:    board.NewState(),
		tasks:    tasks,
		contacts: contacts,
	}
	s.Tasks = mirror.New("tasks", tasks, domain.DecodeTask)
	s.Contacts = mirror.New("contacts", contacts, domain.DecodeContact)
	s.Reorder = board.NewReorder(s.Board, tasks, s.Notifier)
	s.TaskDeletes = confirm.New("task", tasks, s.Notifier, 0, nil)
	s.ContactDeletes = confirm.New("contact", contacts, s.Notifier, 0, nil)

	// The board columns stay derived: every task snapshot rebuilds
	// them, superseding any optimistic reorder splice.
	snapshots, cancel := s.Tasks.Subscribe()
	s.boardStop = cancel
	s.boardDone = make(chan struct{})
	go func() {
		defer close(s.boardDone)
		for tasks := range snapshots {
			s.Board.Replace(tasks)
		}
	}()

	return s
}

// AssignedContacts resolves a task's contact references against the
// directory mirror. References are soft: ids pointing at deleted
// contacts are filtered out here instead of being cleaned up on
// delete.
func (s *Session) AssignedContacts(t domain.Task) []domain.Contact {
	byID := make(map[string]domain.Contact)
	for _, c := range s.Contacts.Current() {
		byID[c.ID] = c
	}
	out := []domain.Contact{}
	for _, id := range t.AssignedContacts {
		if c, ok := byID[id]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Close tears down the mirrors and the board feed.
func (s *Session) Close() {
	s.ContactDeletes.Cancel()
	s.TaskDeletes.Cancel()
	s.Tasks.Close()
	s.Contacts.Close()
	s.boardStop()
	<-s.boardDone
}
