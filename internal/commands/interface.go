package commands

import (
	"context"
	"sort"
	"sync"
)

// CommandHandler defines the interface for syscall handlers
type CommandHandler interface {
	// Handle processes a command and returns the response
	Handle(ctx context.Context, params []string) (interface{}, error)

	// GetName returns the command name
	GetName() string

	// GetDescription returns a human-readable description
	GetDescription() string

	// IsReadOnly returns true if the command only reads surface state
	IsReadOnly() bool
}

// Auditor records orientation writes
type Auditor interface {
	LogAction(ctx context.Context, action string, params map[string]interface{}, status int)
}

// CommandRegistry manages available commands
type CommandRegistry struct {
	mu       sync.RWMutex
	handlers map[string]CommandHandler
}

// NewCommandRegistry creates a new command registry
func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{
		handlers: make(map[string]CommandHandler),
	}
}

// Register adds a command handler to the registry
func (r *CommandRegistry) Register(handler CommandHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[handler.GetName()] = handler
}

// Unregister removes a command handler
func (r *CommandRegistry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handlers, name)
}

// Get returns a command handler by name
func (r *CommandRegistry) Get(name string) (CommandHandler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	handler, exists := r.handlers[name]
	return handler, exists
}

// List returns all registered command names, sorted
func (r *CommandRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CommandError represents a command-specific error
type CommandError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (e *CommandError) Error() string {
	return e.Message
}

// Common error codes
const (
	ErrUnavailable   = "UNAVAILABLE"
	ErrInternal      = "INTERNAL"
	ErrNotSupported  = "NOT_SUPPORTED"
	ErrInvalidParams = "INVALID_PARAMS"
	ErrForbidden     = "FORBIDDEN"
)

// JSON-RPC error codes for each CommandError code
var rpcErrorCodes = map[string]int{
	ErrInvalidParams: -32602,
	ErrInternal:      -32603,
	ErrForbidden:     -32001,
	ErrUnavailable:   -32002,
	ErrNotSupported:  -32003,
}

// RPCCode returns the JSON-RPC error code for e. Unknown codes are internal.
func (e *CommandError) RPCCode() int {
	if code, ok := rpcErrorCodes[e.Code]; ok {
		return code
	}
	return -32603
}
