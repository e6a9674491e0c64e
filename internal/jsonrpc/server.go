package jsonrpc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/orientd/internal/auth"
	"github.com/orientd/internal/commands"
	"github.com/orientd/internal/config"
	"github.com/orientd/internal/orientation"
)

// Path is the HTTP endpoint serving the orientation syscalls
const Path = "/orientation_api"

// maxBodyBytes bounds a single JSON-RPC request
const maxBodyBytes = 64 << 10

// Server handles JSON-RPC HTTP requests
type Server struct {
	config           *config.Config
	extensibleServer *commands.ExtensibleJSONRPCServer
	middleware       *auth.Middleware
}

// NewServer creates a new JSON-RPC server. auditor may be nil.
func NewServer(cfg *config.Config, translator *orientation.Translator, auditor commands.Auditor) (*Server, error) {
	s := &Server{
		config:           cfg,
		extensibleServer: commands.NewExtensibleJSONRPCServer(cfg, translator, auditor),
	}

	if cfg.Auth.Enabled {
		verifier, err := auth.NewVerifier(cfg.Auth.HMACSecret)
		if err != nil {
			return nil, fmt.Errorf("failed to create token verifier: %w", err)
		}
		s.middleware = auth.NewMiddleware(verifier)
	}

	return s, nil
}

// Handler returns the endpoint handler, wrapped in auth when enabled
func (s *Server) Handler() http.HandlerFunc {
	if s.middleware != nil {
		return s.middleware.RequireAuth(s.HandleRequest)
	}
	return s.HandleRequest
}

// Commands exposes the syscall table
func (s *Server) Commands() *commands.ExtensibleJSONRPCServer {
	return s.extensibleServer
}

// HandleRequest handles HTTP POST requests to the orientation endpoint
func (s *Server) HandleRequest(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	// Keep a copy of the body so the method can be logged after dispatch
	var body []byte
	if r.Body != nil {
		var err error
		body, err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				log.Printf("Rejected request body over %d bytes", tooLarge.Limit)
				writeError(w, http.StatusRequestEntityTooLarge, -32600, "Request too large")
				return
			}
			log.Printf("Failed to read request body: %v", err)
			writeError(w, http.StatusBadRequest, -32700, "Parse error")
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))
	}

	s.extensibleServer.HandleRequest(w, r)

	var method string
	var req commands.Request
	if err := json.Unmarshal(body, &req); err == nil {
		method = req.Method
	}

	log.Printf("JSON-RPC request processed: method=%s, duration=%v", method, time.Since(start))
}

// writeError writes a JSON-RPC error for a request that never reached the
// syscall table
func writeError(w http.ResponseWriter, status, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(&commands.Response{
		JSONRPC: "2.0",
		Error: map[string]interface{}{
			"code":    code,
			"message": message,
		},
	})
}
