package mock

import (
	"context"
	"sync"

	"github.com/five82/cbzmeta/internal/comic"
)

var _ comic.EventSource = (*EventSource)(nil)

// EventSource is an in-process comic.EventSource. Publish delivers
// synchronously to every handler subscribed to the event.
type EventSource struct {
	// SubscribeErr, when set, makes every Subscribe call fail.
	SubscribeErr error

	mu       sync.Mutex
	nextID   int
	handlers map[comic.ArchiveEvent]map[int]func(string)
}

func (e *EventSource) Subscribe(_ context.Context, event comic.ArchiveEvent, handler func(payload string)) (func(), error) {
	if e.SubscribeErr != nil {
		return nil, e.SubscribeErr
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.handlers == nil {
		e.handlers = make(map[comic.ArchiveEvent]map[int]func(string))
	}
	if e.handlers[event] == nil {
		e.handlers[event] = make(map[int]func(string))
	}
	e.nextID++
	id := e.nextID
	e.handlers[event][id] = handler

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.handlers[event], id)
	}, nil
}

// Publish calls every handler subscribed to event with payload.
func (e *EventSource) Publish(event comic.ArchiveEvent, payload string) {
	e.mu.Lock()
	handlers := make([]func(string), 0, len(e.handlers[event]))
	for _, h := range e.handlers[event] {
		handlers = append(handlers, h)
	}
	e.mu.Unlock()

	for _, h := range handlers {
		h(payload)
	}
}

// Subscribers returns the number of live subscriptions for event.
func (e *EventSource) Subscribers(event comic.ArchiveEvent) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.handlers[event])
}
