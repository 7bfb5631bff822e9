package keepalive

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// EventKind identifies what an Event reports.
type EventKind int

const (
	// EventStateChanged carries the new and previous MouseState.
	EventStateChanged EventKind = iota
	// EventExecutionTimeChanged carries the next scheduled firing, zero
	// when nothing is scheduled.
	EventExecutionTimeChanged
	// EventVisibilityChanged asks the presentation layer to show or hide
	// itself from the task switcher.
	EventVisibilityChanged
	// EventActivateRequested asks the presentation layer to come forward.
	EventActivateRequested
	// EventMinimiseRequested asks the presentation layer to minimise.
	EventMinimiseRequested
	// EventDiagnostic carries a warning worth surfacing to the user.
	EventDiagnostic
	// EventNotification mirrors a message sent to the notification sink.
	EventNotification
)

var eventKindNames = [...]string{
	"state", "execution_time", "visibility", "activate", "minimise", "diagnostic", "notification",
}

func (k EventKind) String() string {
	if k < 0 || int(k) >= len(eventKindNames) {
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
	return eventKindNames[k]
}

func (k EventKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *EventKind) UnmarshalText(b []byte) error {
	for i, name := range eventKindNames {
		if strings.EqualFold(name, string(b)) {
			*k = EventKind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown event kind %q", b)
}

// Event is an observable change in the keeper.
type Event struct {
	Kind          EventKind  `json:"kind"`
	Time          time.Time  `json:"time"`
	State         MouseState `json:"state"`
	Previous      MouseState `json:"previous"`
	ExecutionTime time.Time  `json:"execution_time,omitzero"`
	Hidden        bool       `json:"hidden,omitempty"`
	Message       string     `json:"message,omitempty"`
}

// Observer receives keeper events. Observe is called outside the keeper's
// locks and may call back into the keeper.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) Observe(e Event) { f(e) }

// Broadcaster fans events out to subscribers without ever blocking the
// sender. A subscriber that falls behind loses events.
type Broadcaster struct {
	mu     sync.RWMutex
	next   int
	subs   map[int]chan Event
	buffer int
}

// NewBroadcaster creates a broadcaster whose subscriptions buffer up to
// buffer events.
func NewBroadcaster(buffer int) *Broadcaster {
	if buffer <= 0 {
		buffer = 64
	}
	return &Broadcaster{subs: make(map[int]chan Event), buffer: buffer}
}

// Observe implements Observer.
func (b *Broadcaster) Observe(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Subscribe returns a channel of events and a function that ends the
// subscription and closes the channel.
func (b *Broadcaster) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	ch := make(chan Event, b.buffer)
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			close(ch)
		})
	}
}

// Multi fans events out to several observers in order.
type Multi []Observer

func (m Multi) Observe(e Event) {
	for _, o := range m {
		if o != nil {
			o.Observe(e)
		}
	}
}
