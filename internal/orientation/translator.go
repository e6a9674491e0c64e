// Package orientation translates between the application's orientation
// bitmask and the host's coarse orientation constraint.
package orientation

import (
	"github.com/orientd/internal/surface"
)

// Status is the result code returned by the set operations
type Status int

// Result codes. StatusOK and StatusWidgetOK share a value but are separate
// sentinels: the mask path returns the former, the deprecated single-value
// path the latter, and callers compare against the one for the call they made.
const (
	StatusOK           Status = 0
	StatusNotSupported Status = -1
	StatusInvalidValue Status = -2
	StatusUnavailable  Status = -3

	StatusWidgetOK Status = 0
)

// Dispatcher runs an action on the context that owns the display surface
// and blocks until it completes.
type Dispatcher interface {
	Run(action surface.Action) error
}

// Translator implements the four orientation syscalls. Apart from the
// optional event queue, which only the UI context touches, it holds no
// state of its own and is safe for concurrent use.
type Translator struct {
	ui     Dispatcher
	events *eventQueue
}

// NewTranslator creates a translator bound to ui
func NewTranslator(ui Dispatcher) *Translator {
	return &Translator{ui: ui}
}

// SetSupportedOrientations applies the constraint implied by mask.
// A mask with no portrait or landscape flag is rejected without touching
// the surface.
func (t *Translator) SetSupportedOrientations(mask int) Status {
	supported, ok := CoarseFromMask(Mask(mask))
	if !ok {
		return StatusNotSupported
	}

	if err := t.ui.Run(func(s *surface.Surface) {
		s.SetSupportedOrientations(supported)
	}); err != nil {
		return StatusUnavailable
	}

	return StatusOK
}

// SetOrientation is the deprecated single-value form: 1 landscape,
// 2 portrait, 3 dynamic. Success is reported as StatusWidgetOK.
func (t *Translator) SetOrientation(orientation int) Status {
	supported, ok := CoarseFromLegacy(orientation)
	if !ok {
		return StatusInvalidValue
	}

	if err := t.ui.Run(func(s *surface.Surface) {
		s.SetSupportedOrientations(supported)
	}); err != nil {
		return StatusUnavailable
	}

	return StatusWidgetOK
}

// GetSupportedOrientations reads back the constraint as a group-level mask
func (t *Translator) GetSupportedOrientations() Mask {
	var supported surface.Supported
	if err := t.ui.Run(func(s *surface.Surface) {
		supported = s.SupportedOrientations()
	}); err != nil {
		return 0
	}

	return MaskFromCoarse(supported)
}

// GetCurrentOrientation reads the live rotation as a single flag
func (t *Translator) GetCurrentOrientation() Flag {
	var page surface.PageOrientation
	if err := t.ui.Run(func(s *surface.Surface) {
		page = s.Orientation()
	}); err != nil {
		return 0
	}

	return FlagFromPage(page)
}
