package events

import (
	"sync"
	"time"

	"github.com/jirenius/modapp/pkg/logging"

	"github.com/google/uuid"
)

// DefaultBufferSize is the channel capacity used by Subscribe when none is given.
const DefaultBufferSize = 100

// Bus fans lifecycle events out to subscribers. Publishing never blocks: a
// subscriber whose buffer is full misses the event.
//
// A Bus is created per orchestrator and injected; there is no package level
// instance.
type Bus struct {
	templates *MessageTemplateEngine

	mu          sync.RWMutex
	subscribers map[int]chan Event
	nextID      int
	closed      bool

	now func() time.Time
}

// NewBus creates a bus rendering messages with the default templates.
func NewBus() *Bus {
	return &Bus{
		templates:   NewMessageTemplateEngine(),
		subscribers: make(map[int]chan Event),
		now:         time.Now,
	}
}

// Templates returns the engine used to render event messages.
func (b *Bus) Templates() *MessageTemplateEngine {
	return b.templates
}

// Subscribe returns a channel receiving every event published from now on,
// and a function that unsubscribes and closes it.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = DefaultBufferSize
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	id := b.nextID
	b.nextID++
	b.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if sub, ok := b.subscribers[id]; ok {
				delete(b.subscribers, id)
				close(sub)
			}
		})
	}
}

// Emit renders and publishes an event for reason.
func (b *Bus) Emit(reason EventReason, data EventData) Event {
	ev := Event{
		ID:        uuid.New().String(),
		Module:    data.Name,
		OldState:  data.OldState,
		NewState:  data.NewState,
		Reason:    reason,
		Type:      getEventType(reason),
		Message:   b.templates.Render(reason, data),
		Err:       data.Err,
		Timestamp: b.now(),
	}
	b.Publish(ev)
	return ev
}

// Publish delivers ev to every subscriber with room in its buffer.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers {
		select {
		case ch <- ev:
		default:
			logging.Debug("Events", "Subscriber blocked, skipping %s event for module %s", ev.Reason, ev.Module)
		}
	}
}

// Close closes every subscriber channel. Later publishes are dropped.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subscribers {
		delete(b.subscribers, id)
		close(ch)
	}
}
