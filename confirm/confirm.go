package confirm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"boardsync/notify"
)

// DefaultTimeout is how long a pending confirmation stays armed before
// resetting on its own.
const DefaultTimeout = 5 * time.Second

// Deleter removes a document from its collection.
type Deleter interface {
	Delete(ctx context.Context, id string) error
}

// Controller guards destructive deletes behind a confirmation step. It
// is either idle or holds exactly one pending target; arming shows a
// warning notification with Cancel and Delete actions and starts an
// auto-reset timer. Every transition out of the pending state stops
// that timer.
type Controller struct {
	kind      string
	deleter   Deleter
	notifier  *notify.Notifier
	timeout   time.Duration
	onDeleted func(id string)

	mu      sync.Mutex
	pending string
	timer   *time.Timer
}

// New creates a controller for one entity kind ("task", "contact").
// A non-positive timeout selects DefaultTimeout. onDeleted, when set,
// runs after a successful delete (post-delete navigation).
func New(kind string, deleter Deleter, notifier *notify.Notifier, timeout time.Duration, onDeleted func(id string)) *Controller {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Controller{
		kind:      kind,
		deleter:   deleter,
		notifier:  notifier,
		timeout:   timeout,
		onDeleted: onDeleted,
	}
}

// Request arms deletion of id. A repeated request for the target that
// is already pending confirms immediately; a request for a different
// target clears the old pending state first. The boolean reports
// whether this call performed the delete, decided under the lock so
// two racing requests cannot both arm or both confirm.
func (c *Controller) Request(ctx context.Context, id string) (bool, error) {
	c.mu.Lock()
	if c.pending == id && id != "" {
		c.clearLocked()
		c.mu.Unlock()
		return true, c.delete(ctx, id)
	}
	if c.pending != "" {
		c.clearLocked()
	}
	c.pending = id
	c.timer = time.AfterFunc(c.timeout, func() { c.expire(id) })
	c.mu.Unlock()

	c.notifier.Warning(
		fmt.Sprintf("Delete %s?", c.kind),
		fmt.Sprintf("This removes %s %s permanently.", c.kind, id),
		notify.Action{Label: "Cancel", Handler: c.Cancel},
		notify.Action{Label: "Delete", Handler: func() { _ = c.Confirm(context.Background()) }},
	)
	return false, nil
}

// Confirm performs the pending delete, if any.
func (c *Controller) Confirm(ctx context.Context) error {
	c.mu.Lock()
	id := c.pending
	c.clearLocked()
	c.mu.Unlock()
	if id == "" {
		return nil
	}
	return c.delete(ctx, id)
}

func (c *Controller) delete(ctx context.Context, id string) error {
	if err := c.deleter.Delete(ctx, id); err != nil {
		c.notifier.Error(fmt.Sprintf("Could not delete %s %s", c.kind, id))
		return err
	}
	c.notifier.Success(fmt.Sprintf("Deleted %s %s", c.kind, id))
	if c.onDeleted != nil {
		c.onDeleted(id)
	}
	return nil
}

// Cancel clears the pending state without deleting and hides the
// confirmation prompt.
func (c *Controller) Cancel() {
	c.mu.Lock()
	armed := c.pending != ""
	c.clearLocked()
	c.mu.Unlock()
	if armed {
		c.notifier.Hide()
	}
}

// expire resets a timed-out confirmation. The prompt notification is
// left to expire on its own duration.
func (c *Controller) expire(id string) {
	c.mu.Lock()
	if c.pending == id {
		c.pending = ""
		c.timer = nil
	}
	c.mu.Unlock()
}

// Pending returns the currently armed target id, or "".
func (c *Controller) Pending() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

func (c *Controller) clearLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.pending = ""
}
