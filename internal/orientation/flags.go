package orientation

import (
	"github.com/orientd/internal/surface"
)

// Flag is a single elementary screen orientation
type Flag int

// Mask is a set of Flag values. Bits outside the four flags are ignored.
type Mask int

// Elementary orientation flags
const (
	FlagPortraitUp         Flag = 0x1
	FlagPortraitUpsideDown Flag = 0x2
	FlagLandscapeLeft      Flag = 0x4
	FlagLandscapeRight     Flag = 0x8
)

// Group masks reconstructed on read-back
const (
	MaskPortrait  Mask = Mask(FlagPortraitUp | FlagPortraitUpsideDown)
	MaskLandscape Mask = Mask(FlagLandscapeLeft | FlagLandscapeRight)
	MaskDynamic   Mask = MaskPortrait | MaskLandscape
)

// Values accepted by the deprecated single-value SetOrientation
const (
	LegacyLandscape = 1
	LegacyPortrait  = 2
	LegacyDynamic   = 3
)

// Has reports whether f is set in m
func (m Mask) Has(f Flag) bool {
	return m&Mask(f) == Mask(f)
}

// HasPortrait reports whether either portrait flag is set
func (m Mask) HasPortrait() bool {
	return m.Has(FlagPortraitUp) || m.Has(FlagPortraitUpsideDown)
}

// HasLandscape reports whether either landscape flag is set
func (m Mask) HasLandscape() bool {
	return m.Has(FlagLandscapeLeft) || m.Has(FlagLandscapeRight)
}

// CoarseFromMask collapses a mask to the host constraint. It returns false
// when the mask carries no portrait or landscape flag.
func CoarseFromMask(m Mask) (surface.Supported, bool) {
	isPortrait := m.HasPortrait()
	isLandscape := m.HasLandscape()

	switch {
	case isPortrait && isLandscape:
		return surface.SupportedPortraitOrLandscape, true
	case isPortrait:
		return surface.SupportedPortrait, true
	case isLandscape:
		return surface.SupportedLandscape, true
	default:
		return surface.SupportedUnset, false
	}
}

// CoarseFromLegacy maps a deprecated SetOrientation value. Anything in
// range that is not portrait or landscape is treated as dynamic.
func CoarseFromLegacy(v int) (surface.Supported, bool) {
	if v < LegacyLandscape || v > LegacyDynamic {
		return surface.SupportedUnset, false
	}

	switch v {
	case LegacyPortrait:
		return surface.SupportedPortrait, true
	case LegacyLandscape:
		return surface.SupportedLandscape, true
	default:
		return surface.SupportedPortraitOrLandscape, true
	}
}

// MaskFromCoarse is the group-level inverse of CoarseFromMask.
// Per-orientation flags dropped on write are never reconstructed.
func MaskFromCoarse(s surface.Supported) Mask {
	switch s {
	case surface.SupportedPortraitOrLandscape:
		return MaskPortrait | MaskLandscape
	case surface.SupportedLandscape:
		return MaskLandscape
	case surface.SupportedPortrait:
		return MaskPortrait
	default:
		return 0
	}
}

// FlagFromPage maps the live rotation to one flag. A generic landscape
// rotation reads as left; there is no generic fallback to right.
func FlagFromPage(p surface.PageOrientation) Flag {
	switch p {
	case surface.OrientationLandscapeRight:
		return FlagLandscapeRight
	case surface.OrientationLandscapeLeft, surface.OrientationLandscape:
		return FlagLandscapeLeft
	case surface.OrientationPortraitUp, surface.OrientationPortrait:
		return FlagPortraitUp
	case surface.OrientationPortraitDown:
		return FlagPortraitUpsideDown
	default:
		return 0
	}
}
