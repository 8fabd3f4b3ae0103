package notifier

import (
	"fmt"
	"io"
	"os"
	"sync"

	"OmnichainNexus/internal/logx"
	"OmnichainNexus/internal/model"
)

// Notifier delivers a user-facing message. Implementations must not block for long
// and must not fail: delivery errors are logged.
type Notifier interface {
	Notify(level model.Level, message string)
}

var icons = map[model.Level]string{
	model.LevelSuccess: "✅",
	model.LevelError:   "❌",
	model.LevelWarning: "⚠️",
	model.LevelInfo:    "ℹ️",
}

// Icon returns the glyph printed in front of a message of the given level.
func Icon(level model.Level) string {
	if icon, ok := icons[level]; ok {
		return icon
	}
	return "•"
}

// ConsoleNotifier prints icon-prefixed lines, the terminal stand-in for toasts.
type ConsoleNotifier struct {
	mu  sync.Mutex
	Out io.Writer
}

func NewConsoleNotifier(out io.Writer) *ConsoleNotifier {
	if out == nil {
		out = os.Stdout
	}
	return &ConsoleNotifier{Out: out}
}

func (c *ConsoleNotifier) Notify(level model.Level, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.Out, "%s %s\n", Icon(level), message)
}

// LogNotifier writes notifications to the process log.
type LogNotifier struct{}

func (LogNotifier) Notify(level model.Level, message string) {
	switch level {
	case model.LevelError:
		logx.Error("NOTIFY", message)
	case model.LevelWarning:
		logx.Warn("NOTIFY", message)
	default:
		logx.Info("NOTIFY", message)
	}
}

// Multi fans a notification out to every wrapped notifier.
type Multi []Notifier

func (m Multi) Notify(level model.Level, message string) {
	for _, n := range m {
		if n != nil {
			n.Notify(level, message)
		}
	}
}

// Recording keeps every notification in memory.
type Recording struct {
	mu    sync.Mutex
	items []model.Notification
}

func NewRecording() *Recording { return &Recording{} }

func (r *Recording) Notify(level model.Level, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, model.Notification{Level: level, Message: message})
}

func (r *Recording) All() []model.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Notification(nil), r.items...)
}

// Last returns the most recent notification, or the zero value.
func (r *Recording) Last() model.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.items) == 0 {
		return model.Notification{}
	}
	return r.items[len(r.items)-1]
}

// Count returns how many notifications of level were recorded.
func (r *Recording) Count(level model.Level) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, it := range r.items {
		if it.Level == level {
			n++
		}
	}
	return n
}

func (r *Recording) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = nil
}
