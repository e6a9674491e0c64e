package commands

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/orientd/internal/auth"
	"github.com/orientd/internal/config"
	"github.com/orientd/internal/orientation"
)

// ExtensibleJSONRPCServer serves the syscall table as JSON-RPC 2.0 over HTTP
type ExtensibleJSONRPCServer struct {
	registry      *CommandRegistry
	config        *config.Config
	enforceScopes bool
}

// Request represents a JSON-RPC 2.0 request
type Request struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  []string    `json:"params,omitempty"`
	ID      interface{} `json:"id"`
}

// Response represents a JSON-RPC 2.0 response
type Response struct {
	JSONRPC string      `json:"jsonrpc"`
	Result  interface{} `json:"result,omitempty"`
	Error   interface{} `json:"error,omitempty"`
	ID      interface{} `json:"id"`
}

// NewExtensibleJSONRPCServer creates a server with the orientation syscalls
// registered. auditor may be nil.
func NewExtensibleJSONRPCServer(cfg *config.Config, translator *orientation.Translator, auditor Auditor) *ExtensibleJSONRPCServer {
	registry := NewCommandRegistry()

	RegisterCoreCommands(registry, translator, auditor)
	RegisterOptionalCommands(registry)

	return &ExtensibleJSONRPCServer{
		registry:      registry,
		config:        cfg,
		enforceScopes: cfg.Auth.Enabled,
	}
}

// Registry returns the underlying command registry
func (s *ExtensibleJSONRPCServer) Registry() *CommandRegistry {
	return s.registry
}

// HandleRequest handles HTTP POST requests to the JSON-RPC endpoint
func (s *ExtensibleJSONRPCServer) HandleRequest(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if s.config.Network.HTTP.ServerHeader != "" {
		w.Header().Set("Server", s.config.Network.HTTP.ServerHeader)
	}

	if r.Method != http.MethodPost {
		s.writeErrorResponse(w, -32600, "Invalid Request", nil)
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErrorResponse(w, -32700, "Parse error", nil)
		return
	}

	if req.JSONRPC != "2.0" {
		s.writeErrorResponse(w, -32600, "Invalid Request", req.ID)
		return
	}

	response := s.ProcessRequest(r.Context(), &req)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// ProcessRequest runs one decoded request against the registry
func (s *ExtensibleJSONRPCServer) ProcessRequest(ctx context.Context, req *Request) *Response {
	handler, exists := s.registry.Get(req.Method)
	if !exists {
		return errorResponse(req.ID, -32601, "Method not found")
	}

	if s.enforceScopes {
		scope := auth.ScopeWrite
		if handler.IsReadOnly() {
			scope = auth.ScopeRead
		}
		if !auth.ClaimsFromContext(ctx).HasScope(scope) {
			return errorResponse(req.ID, -32001, ErrForbidden)
		}
	}

	result, err := handler.Handle(ctx, req.Params)
	if err != nil {
		var cmdErr *CommandError
		if errors.As(err, &cmdErr) {
			return errorResponse(req.ID, cmdErr.RPCCode(), cmdErr.Code)
		}
		log.Printf("Command %s failed: %v", req.Method, err)
		return errorResponse(req.ID, -32603, ErrInternal)
	}

	return &Response{
		JSONRPC: "2.0",
		Result:  result,
		ID:      req.ID,
	}
}

func errorResponse(id interface{}, code int, message string) *Response {
	return &Response{
		JSONRPC: "2.0",
		Error: map[string]interface{}{
			"code":    code,
			"message": message,
		},
		ID: id,
	}
}

// writeErrorResponse writes an error response
func (s *ExtensibleJSONRPCServer) writeErrorResponse(w http.ResponseWriter, code int, message string, id interface{}) {
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(errorResponse(id, code, message))
}

// AddCustomCommand allows adding custom commands at runtime
func (s *ExtensibleJSONRPCServer) AddCustomCommand(handler CommandHandler) {
	s.registry.Register(handler)
}

// RemoveCommand allows removing commands at runtime
func (s *ExtensibleJSONRPCServer) RemoveCommand(commandName string) {
	s.registry.Unregister(commandName)
}
