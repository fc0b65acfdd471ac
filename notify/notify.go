package notify

import (
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
)

type Type string

const (
	TypeSuccess Type = "success"
	TypeError   Type = "error"
	TypeWarning Type = "warning"
	TypeInfo    Type = "info"
)

// Action is a button rendered on a notification.
type Action struct {
	Label   string `json:"label"`
	Handler func() `json:"-"`
}

// Notification is the single-slot toast state. Duration 0 keeps it on
// screen until replaced or hidden.
type Notification struct {
	ID       string        `json:"id"`
	Type     Type          `json:"type"`
	Title    string        `json:"title,omitempty"`
	Message  string        `json:"message"`
	Duration time.Duration `json:"duration"`
	Actions  []Action      `json:"actions,omitempty"`
}

// MarshalJSON reports the duration in milliseconds. Consumers of the
// wire payload deal in ms, never in Go's nanosecond durations.
func (n Notification) MarshalJSON() ([]byte, error) {
	type plain Notification
	return sonic.Marshal(struct {
		plain
		Duration int64 `json:"duration"`
	}{plain(n), n.Duration.Milliseconds()})
}

// DefaultDuration returns the canonical auto-hide duration per type.
// Warnings carrying actions stay longer so the user can reach them.
func DefaultDuration(t Type, hasActions bool) time.Duration {
	switch t {
	case TypeSuccess:
		return 1500 * time.Millisecond
	case TypeError:
		return 5000 * time.Millisecond
	case TypeWarning:
		if hasActions {
			return 5000 * time.Millisecond
		}
		return 4000 * time.Millisecond
	default:
		return 4000 * time.Millisecond
	}
}

// Notifier holds at most one active notification. Show unconditionally
// replaces the current one and cancels its timer; there is no queue.
type Notifier struct {
	mu      sync.Mutex
	current *Notification
	timer   *time.Timer
	subs    map[chan struct{}]struct{}
}

func New() *Notifier {
	return &Notifier{subs: make(map[chan struct{}]struct{})}
}

// Show replaces the current notification and returns its id. The
// replaced notification's timer is stopped so it can never fire
// against the successor.
func (n *Notifier) Show(cfg Notification) string {
	cfg.ID = uuid.NewString()

	n.mu.Lock()
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
	n.current = &cfg
	if cfg.Duration > 0 {
		id := cfg.ID
		n.timer = time.AfterFunc(cfg.Duration, func() { n.expire(id) })
	}
	n.signalLocked()
	n.mu.Unlock()
	return cfg.ID
}

// Hide clears the current notification, if any.
func (n *Notifier) Hide() {
	n.mu.Lock()
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
	if n.current != nil {
		n.current = nil
		n.signalLocked()
	}
	n.mu.Unlock()
}

// expire hides the notification only when it is still the current one.
func (n *Notifier) expire(id string) {
	n.mu.Lock()
	if n.current != nil && n.current.ID == id {
		n.current = nil
		n.timer = nil
		n.signalLocked()
	}
	n.mu.Unlock()
}

// Current returns the active notification, or nil.
func (n *Notifier) Current() *Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current == nil {
		return nil
	}
	cpy := *n.current
	return &cpy
}

// Subscribe registers for change signals, fired on every show, hide
// and expiry. Callers wanting sequencing wait for the clear signal
// themselves.
func (n *Notifier) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	n.mu.Lock()
	n.subs[ch] = struct{}{}
	n.mu.Unlock()
	return ch, func() {
		n.mu.Lock()
		delete(n.subs, ch)
		n.mu.Unlock()
	}
}

func (n *Notifier) signalLocked() {
	for ch := range n.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Success shows a success toast with the canonical duration.
func (n *Notifier) Success(message string) string {
	return n.Show(Notification{Type: TypeSuccess, Message: message, Duration: DefaultDuration(TypeSuccess, false)})
}

// Error shows an error toast with the canonical duration.
func (n *Notifier) Error(message string) string {
	return n.Show(Notification{Type: TypeError, Message: message, Duration: DefaultDuration(TypeError, false)})
}

// Info shows an info toast with the canonical duration.
func (n *Notifier) Info(message string) string {
	return n.Show(Notification{Type: TypeInfo, Message: message, Duration: DefaultDuration(TypeInfo, false)})
}

// Warning shows a warning toast, holding it longer when actions are
// attached.
func (n *Notifier) Warning(title, message string, actions ...Action) string {
	return n.Show(Notification{
		Type:     TypeWarning,
		Title:    title,
		Message:  message,
		Duration: DefaultDuration(TypeWarning, len(actions) > 0),
		Actions:  actions,
	})
}
