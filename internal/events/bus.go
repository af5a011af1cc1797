package events

import (
	"sync"
	"time"
)

// ScheduleChanged is published after every successful override
// mutation so dependent views (dashboard, calendar) re-render.
const ScheduleChanged = "schedule.changed"

// Event describes a single override mutation.
type Event struct {
	Name      string
	SlotID    string
	BookingID string
	At        time.Time
}

// Handler receives published events. Handlers run synchronously on the
// publishing goroutine, matching the single-threaded dispatch model of
// the portal.
type Handler func(Event)

// Bus is the in-process fan-out wiring the application shell sets up
// at startup, replacing call-site checks for optional listeners.
type Bus struct {
	mu       sync.RWMutex
	handlers []Handler
}

func NewBus() *Bus {
	return &Bus{}
}

func (b *Bus) Subscribe(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

func (b *Bus) Publish(e Event) {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	for _, h := range handlers {
		h(e)
	}
}
