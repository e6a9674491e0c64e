package orientation

import (
	"errors"
	"fmt"

	"github.com/orientd/internal/surface"
)

// ErrEventsDisabled is returned by PollOrientationEvents when EnableEvents
// was never called
var ErrEventsDisabled = errors.New("orientation events disabled")

// EventType distinguishes the two rotation notifications
type EventType int

const (
	EventOrientationWillChange EventType = iota + 1
	EventOrientationDidChange
)

func (e EventType) String() string {
	switch e {
	case EventOrientationWillChange:
		return "orientationWillChange"
	case EventOrientationDidChange:
		return "orientationDidChange"
	default:
		return fmt.Sprintf("EventType(%d)", int(e))
	}
}

// Event is one rotation notification. Orientation is the new flag on a
// did-change event and 0 on a will-change event.
type Event struct {
	Seq         uint64
	Type        EventType
	Orientation Flag
}

// eventQueue buffers rotation events for polling. It lives on the UI
// context and needs no locking. When full, the oldest event is dropped.
type eventQueue struct {
	events  []Event
	limit   int
	nextSeq uint64
	dropped uint64
}

func newEventQueue(limit int) *eventQueue {
	return &eventQueue{limit: limit}
}

func (q *eventQueue) record(phase surface.RotatePhase, prev, next surface.PageOrientation) {
	ev := Event{Type: EventOrientationWillChange}
	if phase == surface.RotateDid {
		ev = Event{Type: EventOrientationDidChange, Orientation: FlagFromPage(next)}
	}

	q.nextSeq++
	ev.Seq = q.nextSeq

	if len(q.events) >= q.limit {
		q.events = q.events[1:]
		q.dropped++
	}
	q.events = append(q.events, ev)
}

// take removes and returns up to max events, oldest first. max <= 0 takes all.
func (q *eventQueue) take(max int) []Event {
	n := len(q.events)
	if max > 0 && max < n {
		n = max
	}
	out := make([]Event, n)
	copy(out, q.events[:n])
	q.events = q.events[n:]
	return out
}

// EnableEvents starts buffering rotation events, keeping at most limit
// unpolled. Call it once, before the translator is shared.
func (t *Translator) EnableEvents(limit int) error {
	if limit <= 0 {
		return fmt.Errorf("event queue limit must be positive, got %d", limit)
	}
	q := newEventQueue(limit)
	if err := t.ui.Run(func(s *surface.Surface) {
		s.OnRotate(q.record)
	}); err != nil {
		return fmt.Errorf("failed to attach event queue: %w", err)
	}
	t.events = q
	return nil
}

// PollOrientationEvents removes and returns up to max pending rotation
// events in the order they happened. max <= 0 returns all of them.
func (t *Translator) PollOrientationEvents(max int) ([]Event, error) {
	if t.events == nil {
		return nil, ErrEventsDisabled
	}

	var events []Event
	if err := t.ui.Run(func(s *surface.Surface) {
		events = t.events.take(max)
	}); err != nil {
		return nil, err
	}
	return events, nil
}
