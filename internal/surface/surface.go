package surface

import (
	"fmt"
	"log"
	"strings"
)

// Supported is the host's coarse orientation constraint for the active page
type Supported int

// Host constraint values
const (
	SupportedUnset               Supported = 0
	SupportedPortrait            Supported = 1
	SupportedLandscape           Supported = 2
	SupportedPortraitOrLandscape Supported = 3
)

// PageOrientation is the live physical rotation reported by the host.
// The generic Portrait/Landscape values are set on devices that do not
// report a direction.
type PageOrientation int

// Host page orientation values
const (
	OrientationNone           PageOrientation = 0
	OrientationPortrait       PageOrientation = 1
	OrientationLandscape      PageOrientation = 2
	OrientationPortraitUp     PageOrientation = 5
	OrientationPortraitDown   PageOrientation = 9
	OrientationLandscapeLeft  PageOrientation = 18
	OrientationLandscapeRight PageOrientation = 34
)

var supportedNames = map[Supported]string{
	SupportedUnset:               "unset",
	SupportedPortrait:            "portrait",
	SupportedLandscape:           "landscape",
	SupportedPortraitOrLandscape: "portraitOrLandscape",
}

var pageOrientationNames = map[PageOrientation]string{
	OrientationNone:           "none",
	OrientationPortrait:       "portrait",
	OrientationLandscape:      "landscape",
	OrientationPortraitUp:     "portraitUp",
	OrientationPortraitDown:   "portraitDown",
	OrientationLandscapeLeft:  "landscapeLeft",
	OrientationLandscapeRight: "landscapeRight",
}

func (s Supported) String() string {
	if name, ok := supportedNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Supported(%d)", int(s))
}

func (p PageOrientation) String() string {
	if name, ok := pageOrientationNames[p]; ok {
		return name
	}
	return fmt.Sprintf("PageOrientation(%d)", int(p))
}

// ParseSupported parses a constraint name (case-insensitive)
func ParseSupported(name string) (Supported, error) {
	for value, n := range supportedNames {
		if strings.EqualFold(n, name) {
			return value, nil
		}
	}
	return SupportedUnset, fmt.Errorf("unknown supported orientation %q", name)
}

// ParsePageOrientation parses a page orientation name (case-insensitive)
func ParsePageOrientation(name string) (PageOrientation, error) {
	for value, n := range pageOrientationNames {
		if strings.EqualFold(n, name) {
			return value, nil
		}
	}
	return OrientationNone, fmt.Errorf("unknown page orientation %q", name)
}

// Surface is the active display surface. It is not safe for concurrent
// use; only the UI context goroutine may touch it.
type Surface struct {
	supported   Supported
	orientation PageOrientation
	revision    uint64
	onChange    ChangeHook
	onRotate    []RotateHook
}

// ChangeHook observes constraint writes. It runs on the UI context.
type ChangeHook func(prev, next Supported, revision uint64)

// RotatePhase tells a RotateHook whether the rotation is about to happen
// or has happened
type RotatePhase int

const (
	RotateWill RotatePhase = iota + 1
	RotateDid
)

func (p RotatePhase) String() string {
	switch p {
	case RotateWill:
		return "will"
	case RotateDid:
		return "did"
	default:
		return fmt.Sprintf("RotatePhase(%d)", int(p))
	}
}

// RotateHook observes physical rotations. It runs on the UI context, once
// with RotateWill before the rotation is recorded and once with RotateDid
// after.
type RotateHook func(phase RotatePhase, prev, next PageOrientation)

// New creates a surface with the given initial constraint and rotation
func New(supported Supported, orientation PageOrientation) *Surface {
	return &Surface{
		supported:   supported,
		orientation: orientation,
	}
}

// SupportedOrientations returns the current constraint
func (s *Surface) SupportedOrientations() Supported {
	return s.supported
}

// SetSupportedOrientations replaces the constraint and bumps the revision.
// The write stands even if the hook panics.
func (s *Surface) SetSupportedOrientations(supported Supported) {
	old := s.supported
	s.supported = supported
	s.revision++
	if s.onChange != nil {
		revision := s.revision
		notify("change", func() { s.onChange(old, supported, revision) })
	}
}

// OnChange installs a hook called after every constraint write
func (s *Surface) OnChange(hook ChangeHook) {
	s.onChange = hook
}

// OnRotate adds a hook called around every change of physical rotation.
// Hooks run in the order they were added.
func (s *Surface) OnRotate(hook RotateHook) {
	s.onRotate = append(s.onRotate, hook)
}

// Orientation returns the live physical rotation
func (s *Surface) Orientation() PageOrientation {
	return s.orientation
}

// Rotate records a new physical rotation. Only the host side calls this.
// Rotating to the current orientation notifies nobody.
func (s *Surface) Rotate(orientation PageOrientation) {
	prev := s.orientation
	if prev == orientation {
		return
	}

	s.notifyRotate(RotateWill, prev, orientation)
	s.orientation = orientation
	s.notifyRotate(RotateDid, prev, orientation)
}

func (s *Surface) notifyRotate(phase RotatePhase, prev, next PageOrientation) {
	for _, hook := range s.onRotate {
		hook := hook
		notify("rotate", func() { hook(phase, prev, next) })
	}
}

// notify runs an observer. A panic is logged, not propagated.
func notify(kind string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Surface %s hook panicked: %v", kind, r)
		}
	}()
	fn()
}

// Revision counts constraint writes since creation
func (s *Surface) Revision() uint64 {
	return s.revision
}

// Snapshot is a copy of the surface state safe to hand to other goroutines
type Snapshot struct {
	Supported   Supported       `json:"supported"`
	Orientation PageOrientation `json:"orientation"`
	Revision    uint64          `json:"revision"`
}

// Snapshot copies the current state
func (s *Surface) Snapshot() Snapshot {
	return Snapshot{
		Supported:   s.supported,
		Orientation: s.orientation,
		Revision:    s.revision,
	}
}
