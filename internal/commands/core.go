package commands

import (
	"context"
	"strconv"

	"github.com/orientd/internal/orientation"
)

// Syscall names
const (
	MethodSetSupportedOrientations = "screen_set_supported_orientations"
	MethodSetOrientation           = "screen_set_orientation"
	MethodGetSupportedOrientations = "screen_get_supported_orientations"
	MethodGetCurrentOrientation    = "screen_get_current_orientation"
)

// RegisterCoreCommands registers the four orientation syscalls and the
// event poll
func RegisterCoreCommands(registry *CommandRegistry, translator *orientation.Translator, auditor Auditor) {
	registry.Register(NewSetSupportedOrientationsHandler(translator, auditor))
	registry.Register(NewSetOrientationHandler(translator, auditor))
	registry.Register(NewGetSupportedOrientationsHandler(translator))
	registry.Register(NewGetCurrentOrientationHandler(translator))
	registry.Register(NewPollOrientationEventsHandler(translator))
}

// parseIntParam parses the single integer argument of a write syscall.
// Decimal, 0x hex and 0b binary forms are accepted, signed or unsigned.
// The result is the low 32 bits read as a signed int, the width of the
// runtime's syscall argument, so "-1" and "0xFFFFFFFF" are the same value.
func parseIntParam(params []string) (int, error) {
	if len(params) != 1 {
		return 0, &CommandError{Code: ErrInvalidParams, Message: "Expected exactly one integer parameter"}
	}

	var bits uint64
	if v, err := strconv.ParseInt(params[0], 0, 64); err == nil {
		bits = uint64(v)
	} else if u, err := strconv.ParseUint(params[0], 0, 64); err == nil {
		bits = u
	} else {
		return 0, &CommandError{Code: ErrInvalidParams, Message: "Parameter is not an integer", Details: params[0]}
	}
	return int(int32(uint32(bits))), nil
}

func requireNoParams(params []string) error {
	if len(params) > 0 {
		return &CommandError{Code: ErrInvalidParams, Message: "This command does not accept parameters"}
	}
	return nil
}

// SetSupportedOrientationsHandler handles screen_set_supported_orientations
type SetSupportedOrientationsHandler struct {
	translator *orientation.Translator
	auditor    Auditor
}

// NewSetSupportedOrientationsHandler creates a new handler
func NewSetSupportedOrientationsHandler(translator *orientation.Translator, auditor Auditor) *SetSupportedOrientationsHandler {
	return &SetSupportedOrientationsHandler{
		translator: translator,
		auditor:    auditor,
	}
}

// Handle applies the mask and returns the status code
func (h *SetSupportedOrientationsHandler) Handle(ctx context.Context, params []string) (interface{}, error) {
	mask, err := parseIntParam(params)
	if err != nil {
		return nil, err
	}

	status := h.translator.SetSupportedOrientations(mask)
	if h.auditor != nil {
		h.auditor.LogAction(ctx, h.GetName(), map[string]interface{}{"mask": mask}, int(status))
	}

	return []string{strconv.Itoa(int(status))}, nil
}

func (h *SetSupportedOrientationsHandler) GetName() string {
	return MethodSetSupportedOrientations
}

func (h *SetSupportedOrientationsHandler) GetDescription() string {
	return "Set supported screen orientations from a bitmask"
}

func (h *SetSupportedOrientationsHandler) IsReadOnly() bool {
	return false
}

// SetOrientationHandler handles the deprecated screen_set_orientation
type SetOrientationHandler struct {
	translator *orientation.Translator
	auditor    Auditor
}

// NewSetOrientationHandler creates a new handler
func NewSetOrientationHandler(translator *orientation.Translator, auditor Auditor) *SetOrientationHandler {
	return &SetOrientationHandler{
		translator: translator,
		auditor:    auditor,
	}
}

// Handle applies the legacy value and returns the status code
func (h *SetOrientationHandler) Handle(ctx context.Context, params []string) (interface{}, error) {
	value, err := parseIntParam(params)
	if err != nil {
		return nil, err
	}

	status := h.translator.SetOrientation(value)
	if h.auditor != nil {
		h.auditor.LogAction(ctx, h.GetName(), map[string]interface{}{"orientation": value}, int(status))
	}

	return []string{strconv.Itoa(int(status))}, nil
}

func (h *SetOrientationHandler) GetName() string {
	return MethodSetOrientation
}

func (h *SetOrientationHandler) GetDescription() string {
	return "Deprecated: set orientation to 1 (landscape), 2 (portrait) or 3 (dynamic)"
}

func (h *SetOrientationHandler) IsReadOnly() bool {
	return false
}

// GetSupportedOrientationsHandler handles screen_get_supported_orientations
type GetSupportedOrientationsHandler struct {
	translator *orientation.Translator
}

// NewGetSupportedOrientationsHandler creates a new handler
func NewGetSupportedOrientationsHandler(translator *orientation.Translator) *GetSupportedOrientationsHandler {
	return &GetSupportedOrientationsHandler{translator: translator}
}

// Handle returns the supported mask
func (h *GetSupportedOrientationsHandler) Handle(ctx context.Context, params []string) (interface{}, error) {
	if err := requireNoParams(params); err != nil {
		return nil, err
	}
	return []string{strconv.Itoa(int(h.translator.GetSupportedOrientations()))}, nil
}

func (h *GetSupportedOrientationsHandler) GetName() string {
	return MethodGetSupportedOrientations
}

func (h *GetSupportedOrientationsHandler) GetDescription() string {
	return "Get supported screen orientations as a bitmask"
}

func (h *GetSupportedOrientationsHandler) IsReadOnly() bool {
	return true
}

// GetCurrentOrientationHandler handles screen_get_current_orientation
type GetCurrentOrientationHandler struct {
	translator *orientation.Translator
}

// NewGetCurrentOrientationHandler creates a new handler
func NewGetCurrentOrientationHandler(translator *orientation.Translator) *GetCurrentOrientationHandler {
	return &GetCurrentOrientationHandler{translator: translator}
}

// Handle returns the current orientation flag
func (h *GetCurrentOrientationHandler) Handle(ctx context.Context, params []string) (interface{}, error) {
	if err := requireNoParams(params); err != nil {
		return nil, err
	}
	return []string{strconv.Itoa(int(h.translator.GetCurrentOrientation()))}, nil
}

func (h *GetCurrentOrientationHandler) GetName() string {
	return MethodGetCurrentOrientation
}

func (h *GetCurrentOrientationHandler) GetDescription() string {
	return "Get the current screen orientation flag"
}

func (h *GetCurrentOrientationHandler) IsReadOnly() bool {
	return true
}
