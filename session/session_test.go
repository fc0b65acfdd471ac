package session

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"boardsync/domain"
)

// fakeCollection emulates the remote store: flat column maps keyed by
// id, capitalized column names, snapshot pushes on every write.
type fakeCollection struct {
	mu      sync.Mutex
	docs    map[string]map[string]any
	changed chan struct{}

	setErr   error
	mergeErr error
	merges   []map[string]any
}

func newFakeCollection() *fakeCollection {
	return &fakeCollection{
		docs:    map[string]map[string]any{},
		changed: make(chan struct{}, 16),
	}
}

func capFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[strings.ToUpper(k[:1])+k[1:]] = v
	}
	return out
}

func (f *fakeCollection) GetAll(ctx context.Context) ([]domain.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(f.docs))
	for id := range f.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	docs := make([]domain.Document, 0, len(ids))
	for _, id := range ids {
		data, _ := json.Marshal(f.docs[id])
		docs = append(docs, domain.Document{ID: id, Data: data})
	}
	return docs, nil
}

func (f *fakeCollection) Get(ctx context.Context, id string) (domain.Document, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ent, ok := f.docs[id]
	if !ok {
		return domain.Document{}, false, nil
	}
	data, _ := json.Marshal(ent)
	return domain.Document{ID: id, Data: data}, true, nil
}

func (f *fakeCollection) Set(ctx context.Context, id string, fields map[string]any) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.mu.Lock()
	ent := capFields(fields)
	ent["RowKey"] = id
	f.docs[id] = ent
	f.mu.Unlock()
	f.notify()
	return nil
}

func (f *fakeCollection) Merge(ctx context.Context, id string, patch map[string]any) error {
	if f.mergeErr != nil {
		return f.mergeErr
	}
	f.mu.Lock()
	f.merges = append(f.merges, patch)
	ent, ok := f.docs[id]
	if !ok {
		ent = map[string]any{"RowKey": id}
		f.docs[id] = ent
	}
	for k, v := range capFields(patch) {
		ent[k] = v
	}
	f.mu.Unlock()
	f.notify()
	return nil
}

func (f *fakeCollection) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	delete(f.docs, id)
	f.mu.Unlock()
	f.notify()
	return nil
}

func (f *fakeCollection) notify() {
	select {
	case f.changed <- struct{}{}:
	default:
	}
}

func (f *fakeCollection) Watch(ctx context.Context, onSnapshot func([]domain.Document), onError func(error)) {
	push := func() {
		docs, err := f.GetAll(ctx)
		if err != nil {
			onError(err)
			return
		}
		onSnapshot(docs)
	}
	push()
	for {
		select {
		case <-ctx.Done():
			return
		case <-f.changed:
			push()
		}
	}
}

func newTestSession(t *testing.T) (*Session, *fakeCollection, *fakeCollection) {
	t.Helper()
	tasks := newFakeCollection()
	contacts := newFakeCollection()
	s := New(tasks, contacts)
	t.Cleanup(s.Close)
	return s, tasks, contacts
}

func TestCreateTaskAssignsSequentialID(t *testing.T) {
	s, _, _ := newTestSession(t)
	ctx := context.Background()

	first, err := s.CreateTask(ctx, TaskInput{Title: "One", Category: domain.CategoryUserStory})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := s.CreateTask(ctx, TaskInput{Title: "Two", Category: domain.CategoryTechnicalTask})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if first.ID != "task-001" || second.ID != "task-002" {
		t.Fatalf("unexpected ids: %s, %s", first.ID, second.ID)
	}
	if first.Stage != domain.DefaultStage() {
		t.Fatalf("expected default stage, got %s", first.Stage)
	}
	if first.Color < 0 || first.Color >= len(domain.Palette) {
		t.Fatalf("color out of palette range: %d", first.Color)
	}
}

func TestCreateTaskRejectsInvalidInputLocally(t *testing.T) {
	s, tasks, _ := newTestSession(t)

	_, err := s.CreateTask(context.Background(), TaskInput{Title: "  ", Category: domain.CategoryUserStory})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if len(tasks.docs) != 0 {
		t.Fatalf("validation failures must never reach the store, got %d docs", len(tasks.docs))
	}
}

func TestMirrorAndBoardFollowWrites(t *testing.T) {
	s, _, _ := newTestSession(t)
	ctx := context.Background()

	task, err := s.CreateTask(ctx, TaskInput{Title: "One", Category: domain.CategoryUserStory})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	if cur := s.Tasks.Current(); len(cur) != 1 || cur[0].ID != task.ID {
		t.Fatalf("mirror did not pick up the create: %#v", cur)
	}
	cols := s.Board.Columns()
	if len(cols[domain.StageTodo]) != 1 {
		t.Fatalf("board not derived from mirror: %#v", cols)
	}

	if err := s.UpdateTask(ctx, task.ID, TaskPatch{Stage: stagePtr(domain.StageDone)}); err != nil {
		t.Fatalf("update: %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	cols = s.Board.Columns()
	if len(cols[domain.StageDone]) != 1 || len(cols[domain.StageTodo]) != 0 {
		t.Fatalf("board did not follow the stage change: %#v", cols)
	}
}

func TestSubtaskLifecycle(t *testing.T) {
	s, _, _ := newTestSession(t)
	ctx := context.Background()

	task, err := s.CreateTask(ctx, TaskInput{
		Title:    "One",
		Category: domain.CategoryUserStory,
		Subtasks: []string{"draft", "review"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(task.Subtasks) != 2 {
		t.Fatalf("expected two subtasks, got %#v", task.Subtasks)
	}

	done, err := s.ToggleSubtask(ctx, task.ID, task.Subtasks[0].ID)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !done {
		t.Fatal("expected subtask toggled on")
	}

	doc, ok, err := s.tasks.Get(ctx, task.ID)
	if err != nil || !ok {
		t.Fatalf("get after toggle: ok=%v err=%v", ok, err)
	}
	stored := domain.DecodeTask(doc)
	if !stored.Subtasks[0].Done || stored.Subtasks[1].Done {
		t.Fatalf("unexpected stored subtasks: %#v", stored.Subtasks)
	}

	if err := s.RemoveSubtask(ctx, task.ID, task.Subtasks[1].ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := s.AddSubtask(ctx, task.ID, "  "); err == nil {
		t.Fatal("expected validation error for blank subtask")
	}
	if err := s.RemoveSubtask(ctx, task.ID, "missing"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateContactDerivesInitials(t *testing.T) {
	s, _, _ := newTestSession(t)

	c, err := s.CreateContact(context.Background(), ContactInput{
		Name:  "  Ada   Lovelace ",
		Email: "ada@example.com",
		Phone: "+49 170 1234567",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.ID != "contact-001" || c.Name != "Ada Lovelace" || c.Initials != "AL" {
		t.Fatalf("unexpected contact: %#v", c)
	}
}

func TestAssignedContactsFiltersDanglingReferences(t *testing.T) {
	s, _, _ := newTestSession(t)
	ctx := context.Background()

	c, err := s.CreateContact(ctx, ContactInput{Name: "Ada Lovelace", Email: "ada@example.com", Phone: "+49 170 1234567"})
	if err != nil {
		t.Fatalf("create contact: %v", err)
	}
	task, err := s.CreateTask(ctx, TaskInput{
		Title:            "One",
		Category:         domain.CategoryUserStory,
		AssignedContacts: []string{c.ID, "contact-999"},
	})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	resolved := s.AssignedContacts(task)
	if len(resolved) != 1 || resolved[0].ID != c.ID {
		t.Fatalf("expected dangling reference filtered, got %#v", resolved)
	}
}

func TestDeleteContactLeavesTaskReferences(t *testing.T) {
	s, _, contacts := newTestSession(t)
	ctx := context.Background()

	c, err := s.CreateContact(ctx, ContactInput{Name: "Ada Lovelace", Email: "ada@example.com", Phone: "+49 170 1234567"})
	if err != nil {
		t.Fatalf("create contact: %v", err)
	}
	task, err := s.CreateTask(ctx, TaskInput{Title: "One", Category: domain.CategoryUserStory, AssignedContacts: []string{c.ID}})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	_, _ = s.ContactDeletes.Request(ctx, c.ID)
	if err := s.ContactDeletes.Confirm(ctx); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if len(contacts.docs) != 0 {
		t.Fatalf("contact not deleted: %#v", contacts.docs)
	}
	time.Sleep(50 * time.Millisecond)

	// The reference on the task stays behind; readers filter it.
	doc, ok, _ := s.tasks.Get(ctx, task.ID)
	if !ok {
		t.Fatal("task vanished")
	}
	stored := domain.DecodeTask(doc)
	if len(stored.AssignedContacts) != 1 {
		t.Fatalf("delete must not cascade into assignments: %#v", stored.AssignedContacts)
	}
	if got := s.AssignedContacts(stored); len(got) != 0 {
		t.Fatalf("dangling id must resolve to nothing, got %#v", got)
	}
}

func stagePtr(s domain.Stage) *domain.Stage { return &s }
