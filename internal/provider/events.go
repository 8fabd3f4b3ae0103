package provider

import (
	"sync"

	"github.com/google/uuid"

	"OmnichainNexus/internal/logx"
)

// EventKind names an asynchronous provider notification.
type EventKind string

const (
	EventAccountsChanged EventKind = "accountsChanged"
	EventChainChanged    EventKind = "chainChanged"
	EventConnect         EventKind = "connect"
	EventDisconnect      EventKind = "disconnect"
)

// Event carries the payload of a provider notification. Accounts is set for
// accountsChanged, ChainID for chainChanged and connect.
type Event struct {
	Kind     EventKind
	Accounts []string
	ChainID  string
}

type SubscriberID string

// EventBus fans provider events out to subscribers, in subscription order.
type EventBus struct {
	mu    sync.RWMutex
	order []SubscriberID
	subs  map[SubscriberID]func(Event)
}

func NewEventBus() *EventBus {
	return &EventBus{subs: make(map[SubscriberID]func(Event))}
}

func (b *EventBus) Subscribe(handler func(Event)) SubscriberID {
	id := SubscriberID(newID())
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[id] = handler
	b.order = append(b.order, id)
	return id
}

func (b *EventBus) Unsubscribe(id SubscriberID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[id]; !ok {
		return
	}
	delete(b.subs, id)
	for i, sid := range b.order {
		if sid == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
}

// Publish delivers evt synchronously to every subscriber.
func (b *EventBus) Publish(evt Event) {
	b.mu.RLock()
	handlers := make([]func(Event), 0, len(b.order))
	for _, id := range b.order {
		handlers = append(handlers, b.subs[id])
	}
	b.mu.RUnlock()

	logx.Debug("EVENTS", string(evt.Kind))
	for _, h := range handlers {
		h(evt)
	}
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
