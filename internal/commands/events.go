package commands

import (
	"context"
	"errors"
	"strconv"

	"github.com/orientd/internal/orientation"
)

// MethodPollOrientationEvents drains pending rotation events
const MethodPollOrientationEvents = "screen_poll_orientation_events"

// EventInfo is the wire form of an orientation event
type EventInfo struct {
	Seq         uint64 `json:"seq"`
	Type        string `json:"type"`
	Orientation int    `json:"orientation"`
}

// PollOrientationEventsHandler handles screen_poll_orientation_events
type PollOrientationEventsHandler struct {
	translator *orientation.Translator
}

// NewPollOrientationEventsHandler creates a new handler
func NewPollOrientationEventsHandler(translator *orientation.Translator) *PollOrientationEventsHandler {
	return &PollOrientationEventsHandler{translator: translator}
}

// Handle returns pending events, oldest first. An optional parameter caps
// how many are returned.
func (h *PollOrientationEventsHandler) Handle(ctx context.Context, params []string) (interface{}, error) {
	max := 0
	if len(params) > 0 {
		if len(params) > 1 {
			return nil, &CommandError{Code: ErrInvalidParams, Message: "Expected at most one parameter"}
		}
		n, err := strconv.Atoi(params[0])
		if err != nil || n < 0 {
			return nil, &CommandError{Code: ErrInvalidParams, Message: "Limit must be a non-negative integer", Details: params[0]}
		}
		max = n
	}

	events, err := h.translator.PollOrientationEvents(max)
	switch {
	case errors.Is(err, orientation.ErrEventsDisabled):
		return nil, &CommandError{Code: ErrNotSupported, Message: "Orientation events are disabled"}
	case err != nil:
		return nil, &CommandError{Code: ErrUnavailable, Message: "UI context unavailable", Details: err.Error()}
	}

	infos := make([]EventInfo, 0, len(events))
	for _, ev := range events {
		infos = append(infos, EventInfo{
			Seq:         ev.Seq,
			Type:        ev.Type.String(),
			Orientation: int(ev.Orientation),
		})
	}
	return infos, nil
}

func (h *PollOrientationEventsHandler) GetName() string {
	return MethodPollOrientationEvents
}

func (h *PollOrientationEventsHandler) GetDescription() string {
	return "Poll pending orientation will-change and did-change events"
}

func (h *PollOrientationEventsHandler) IsReadOnly() bool {
	return true
}
