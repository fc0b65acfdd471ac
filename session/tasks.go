package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"boardsync/domain"
	"boardsync/ident"
)

// ErrNotFound is returned when an operation targets a document that no
// longer exists in the remote collection.
var ErrNotFound = errors.New("not found")

// TaskInput carries the fields of a create-task form.
type TaskInput struct {
	Title            string          `json:"title"`
	Description      string          `json:"description"`
	Category         domain.Category `json:"category"`
	Priority         domain.Priority `json:"priority"`
	Stage            domain.Stage    `json:"stage"`
	AssignedContacts []string        `json:"assignedContacts"`
	Subtasks         []string        `json:"subtasks"`
	DueDate          int64           `json:"dueDate"`
}

// TaskPatch carries a partial task update; nil fields stay untouched.
type TaskPatch struct {
	Title            *string          `json:"title"`
	Description      *string          `json:"description"`
	Category         *domain.Category `json:"category"`
	Priority         *domain.Priority `json:"priority"`
	Stage            *domain.Stage    `json:"stage"`
	AssignedContacts *[]string        `json:"assignedContacts"`
	DueDate          *int64           `json:"dueDate"`
}

// CreateTask validates the input, assigns the next sequential id and
// writes the document. The id is generated immediately before the
// write to keep the race window between concurrent creators small; a
// failed id scan fails the create.
func (s *Session) CreateTask(ctx context.Context, in TaskInput) (domain.Task, error) {
	t := domain.Task{
		Title:            strings.TrimSpace(in.Title),
		Description:      in.Description,
		Category:         in.Category,
		Priority:         in.Priority,
		Stage:            domain.NormalizeStage(in.Stage),
		AssignedContacts: in.AssignedContacts,
		DueDate:          in.DueDate,
	}
	if t.Priority == "" {
		t.Priority = domain.PriorityMedium
	}
	if t.AssignedContacts == nil {
		t.AssignedContacts = []string{}
	}
	if err := domain.ValidateTask(t); err != nil {
		return domain.Task{}, err
	}

	t.Subtasks = make([]domain.Subtask, 0, len(in.Subtasks))
	for _, title := range in.Subtasks {
		title = strings.TrimSpace(title)
		if title == "" {
			continue
		}
		t.Subtasks = append(t.Subtasks, domain.Subtask{
			ID:        uuid.NewString(),
			Title:     title,
			CreatedAt: time.Now().UnixMilli(),
		})
	}

	id, err := ident.Next(ctx, s.tasks, "task")
	if err != nil {
		s.Notifier.Error("Could not create task")
		return domain.Task{}, err
	}
	t.ID = id
	t.Color = domain.PickColor(id)

	if err := s.tasks.Set(ctx, id, domain.EncodeTask(t)); err != nil {
		s.Notifier.Error("Could not create task")
		return domain.Task{}, err
	}
	s.Notifier.Success("Task " + id + " created")
	return t, nil
}

// UpdateTask applies a partial update to a task.
func (s *Session) UpdateTask(ctx context.Context, id string, patch TaskPatch) error {
	fields := map[string]any{}
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return domain.ValidationError{Field: "title", Reason: "must not be empty"}
		}
		fields["title"] = title
	}
	if patch.Description != nil {
		fields["description"] = *patch.Description
	}
	if patch.Category != nil {
		if err := domain.ValidateTask(domain.Task{Title: "x", Category: *patch.Category}); err != nil {
			return err
		}
		fields["category"] = string(*patch.Category)
	}
	if patch.Priority != nil {
		fields["priority"] = string(*patch.Priority)
	}
	if patch.Stage != nil {
		fields["stage"] = string(domain.NormalizeStage(*patch.Stage))
	}
	if patch.AssignedContacts != nil {
		assigned := *patch.AssignedContacts
		if assigned == nil {
			assigned = []string{}
		}
		fields["assignedContacts"] = domain.EncodeStringList(assigned)
	}
	if patch.DueDate != nil {
		fields["dueDate"] = *patch.DueDate
	}
	if len(fields) == 0 {
		return nil
	}

	if _, ok, err := s.tasks.Get(ctx, id); err != nil {
		return err
	} else if !ok {
		return ErrNotFound
	}
	if err := s.tasks.Merge(ctx, id, fields); err != nil {
		s.Notifier.Error("Could not update task " + id)
		return err
	}
	return nil
}

// AddSubtask appends a subtask to a task.
func (s *Session) AddSubtask(ctx context.Context, taskID, title string) (domain.Subtask, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.Subtask{}, domain.ValidationError{Field: "subtask", Reason: "must not be empty"}
	}
	sub := domain.Subtask{ID: uuid.NewString(), Title: title, CreatedAt: time.Now().UnixMilli()}
	err := s.mutateSubtasks(ctx, taskID, func(subs []domain.Subtask) ([]domain.Subtask, error) {
		return append(subs, sub), nil
	})
	if err != nil {
		return domain.Subtask{}, err
	}
	return sub, nil
}

// ToggleSubtask flips the completed flag of one subtask and returns
// the new state.
func (s *Session) ToggleSubtask(ctx context.Context, taskID, subtaskID string) (bool, error) {
	var done bool
	err := s.mutateSubtasks(ctx, taskID, func(subs []domain.Subtask) ([]domain.Subtask, error) {
		for i := range subs {
			if subs[i].ID == subtaskID {
				subs[i].Done = !subs[i].Done
				done = subs[i].Done
				return subs, nil
			}
		}
		return nil, ErrNotFound
	})
	return done, err
}

// RemoveSubtask deletes one subtask from a task.
func (s *Session) RemoveSubtask(ctx context.Context, taskID, subtaskID string) error {
	return s.mutateSubtasks(ctx, taskID, func(subs []domain.Subtask) ([]domain.Subtask, error) {
		for i := range subs {
			if subs[i].ID == subtaskID {
				return append(subs[:i:i], subs[i+1:]...), nil
			}
		}
		return nil, ErrNotFound
	})
}

// mutateSubtasks performs a read-modify-write of a task's subtask
// list against the authoritative document, not the mirror, so toggles
// racing with stale snapshots do not resurrect old state.
func (s *Session) mutateSubtasks(ctx context.Context, taskID string, fn func([]domain.Subtask) ([]domain.Subtask, error)) error {
	doc, ok, err := s.tasks.Get(ctx, taskID)
	if err != nil {
		s.Notifier.Error("Could not update task " + taskID)
		return err
	}
	if !ok {
		return ErrNotFound
	}
	task := domain.DecodeTask(doc)

	subs, err := fn(task.Subtasks)
	if err != nil {
		return err
	}

	if err := s.tasks.Merge(ctx, taskID, map[string]any{"subtasks": domain.EncodeSubtasks(subs)}); err != nil {
		s.Notifier.Error("Could not update task " + taskID)
		return err
	}
	return nil
}
