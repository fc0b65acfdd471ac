package board

import (
	"context"
	"fmt"

	"boardsync/domain"
	"boardsync/notify"
)

// Updater issues partial updates against the task collection.
type Updater interface {
	Merge(ctx context.Context, id string, patch map[string]any) error
}

// Reorder handles drag-and-drop moves between board columns. A move
// splices the local columns immediately so the UI feels instant, then
// issues a single remote update of the stage field; the optimistic
// state is superseded unconditionally by the next mirror push, so a
// failed write corrects itself once the authoritative snapshot
// arrives.
type Reorder struct {
	state    *State
	tasks    Updater
	notifier *notify.Notifier
}

func NewReorder(state *State, tasks Updater, notifier *notify.Notifier) *Reorder {
	return &Reorder{state: state, tasks: tasks, notifier: notifier}
}

// Move relocates a task from one stage to another, inserting at the
// given position of the destination column. Moving within the same
// stage is a no-op: intra-stage order is priority-derived, not
// positional, so there is nothing to persist.
func (r *Reorder) Move(ctx context.Context, task domain.Task, from, to domain.Stage, index int) error {
	if from == to {
		return nil
	}

	r.state.Splice(task, from, to, index)

	if err := r.tasks.Merge(ctx, task.ID, map[string]any{"stage": string(to)}); err != nil {
		r.notifier.Error(fmt.Sprintf("Could not move %q to %s", task.Title, to.Label()))
		return err
	}

	r.notifier.Success(fmt.Sprintf("Moved %q from %s to %s", task.Title, from.Label(), to.Label()))
	return nil
}
