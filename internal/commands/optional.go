package commands

import (
	"context"
)

// MethodListCommands lists the registered syscalls
const MethodListCommands = "screen_list_commands"

// CommandInfo provides information about a command
type CommandInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ReadOnly    bool   `json:"read_only"`
}

// RegisterOptionalCommands registers introspection commands
func RegisterOptionalCommands(registry *CommandRegistry) {
	registry.Register(NewListCommandsHandler(registry))
}

// ListCommandsHandler handles screen_list_commands
type ListCommandsHandler struct {
	registry *CommandRegistry
}

// NewListCommandsHandler creates a new list commands handler
func NewListCommandsHandler(registry *CommandRegistry) *ListCommandsHandler {
	return &ListCommandsHandler{registry: registry}
}

// Handle returns every registered command in name order
func (h *ListCommandsHandler) Handle(ctx context.Context, params []string) (interface{}, error) {
	if err := requireNoParams(params); err != nil {
		return nil, err
	}
	return h.registry.Describe(), nil
}

func (h *ListCommandsHandler) GetName() string {
	return MethodListCommands
}

func (h *ListCommandsHandler) GetDescription() string {
	return "List available orientation syscalls"
}

func (h *ListCommandsHandler) IsReadOnly() bool {
	return true
}

// Describe returns information about every registered command, sorted by name
func (r *CommandRegistry) Describe() []CommandInfo {
	names := r.List()
	infos := make([]CommandInfo, 0, len(names))
	for _, name := range names {
		handler, ok := r.Get(name)
		if !ok {
			continue
		}
		infos = append(infos, CommandInfo{
			Name:        handler.GetName(),
			Description: handler.GetDescription(),
			ReadOnly:    handler.IsReadOnly(),
		})
	}
	return infos
}

// CustomCommandHandler adapts a function to CommandHandler
type CustomCommandHandler struct {
	name        string
	description string
	readOnly    bool
	handlerFunc func(ctx context.Context, params []string) (interface{}, error)
}

// NewCustomCommandHandler creates a custom command handler
func NewCustomCommandHandler(name, description string, readOnly bool, handlerFunc func(ctx context.Context, params []string) (interface{}, error)) *CustomCommandHandler {
	return &CustomCommandHandler{
		name:        name,
		description: description,
		readOnly:    readOnly,
		handlerFunc: handlerFunc,
	}
}

func (h *CustomCommandHandler) Handle(ctx context.Context, params []string) (interface{}, error) {
	return h.handlerFunc(ctx, params)
}

func (h *CustomCommandHandler) GetName() string {
	return h.name
}

func (h *CustomCommandHandler) GetDescription() string {
	return h.description
}

func (h *CustomCommandHandler) IsReadOnly() bool {
	return h.readOnly
}
