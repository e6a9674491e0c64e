package maintenance

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"sync"
	"time"

	"github.com/orientd/internal/config"
	"github.com/orientd/internal/surface"
)

// Server handles host-side maintenance TCP connections. It plays the role
// of the window system: the only writer of the physical rotation.
type Server struct {
	config            *config.Config
	ui                *surface.UIContext
	listener          net.Listener
	listenerMu        sync.Mutex
	stopChan          chan struct{}
	connectionTimeout time.Duration
}

// Request represents a JSON-RPC request over TCP
type Request struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  []string    `json:"params,omitempty"`
	ID      interface{} `json:"id"`
}

// Response represents a JSON-RPC response over TCP
type Response struct {
	JSONRPC string      `json:"jsonrpc"`
	Result  interface{} `json:"result,omitempty"`
	Error   interface{} `json:"error,omitempty"`
	ID      interface{} `json:"id"`
}

// Status is the result of surface_status
type Status struct {
	Supported   string `json:"supported"`
	Orientation string `json:"orientation"`
	Revision    uint64 `json:"revision"`
}

// NewServer creates a new maintenance server
func NewServer(cfg *config.Config, ui *surface.UIContext) *Server {
	return &Server{
		config:            cfg,
		ui:                ui,
		stopChan:          make(chan struct{}),
		connectionTimeout: 30 * time.Second,
	}
}

// ListenAndServe starts the maintenance TCP server
func (s *Server) ListenAndServe() error {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", s.config.Network.Maintenance.Port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", s.config.Network.Maintenance.Port, err)
	}
	return s.Serve(listener)
}

// Serve accepts connections on listener until Close
func (s *Server) Serve(listener net.Listener) error {
	s.listenerMu.Lock()
	s.listener = listener
	s.listenerMu.Unlock()

	log.Printf("Maintenance server listening on %s", listener.Addr())

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-s.stopChan:
				return nil
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			log.Printf("Failed to accept connection: %v", err)
			continue
		}

		if !s.isAllowedAddr(conn.RemoteAddr()) {
			log.Printf("Rejected connection from %s (not in allowed CIDRs)", conn.RemoteAddr())
			conn.Close()
			continue
		}

		go s.handleConnection(conn)
	}
}

// handleConnection handles a single TCP connection
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(s.connectionTimeout))

	var req Request
	decoder := json.NewDecoder(conn)
	if err := decoder.Decode(&req); err != nil {
		log.Printf("Failed to decode JSON-RPC request: %v", err)
		s.writeErrorResponse(conn, -32700, "Parse error", nil)
		return
	}

	if req.JSONRPC != "2.0" {
		s.writeErrorResponse(conn, -32600, "Invalid Request", req.ID)
		return
	}

	response := s.processMaintenanceRequest(&req)

	encoder := json.NewEncoder(conn)
	if err := encoder.Encode(response); err != nil {
		log.Printf("Failed to encode response: %v", err)
		return
	}

	log.Printf("Maintenance command processed: method=%s, client=%s", req.Method, conn.RemoteAddr())
}

// processMaintenanceRequest processes maintenance commands
func (s *Server) processMaintenanceRequest(req *Request) *Response {
	var result interface{}
	var err error

	switch req.Method {
	case "rotate":
		result, err = s.rotate(req.Params)
	case "reset_surface":
		result, err = s.resetSurface()
	case "surface_status":
		result, err = s.status()
	default:
		return &Response{
			JSONRPC: "2.0",
			Error:   "Method not found",
			ID:      req.ID,
		}
	}

	if err != nil {
		return &Response{
			JSONRPC: "2.0",
			Error:   err.Error(),
			ID:      req.ID,
		}
	}

	return &Response{
		JSONRPC: "2.0",
		Result:  result,
		ID:      req.ID,
	}
}

// rotate injects a physical rotation, as the sensor would
func (s *Server) rotate(params []string) (interface{}, error) {
	if len(params) != 1 {
		return nil, errors.New("INVALID_PARAMS")
	}
	page, err := surface.ParsePageOrientation(params[0])
	if err != nil {
		return nil, errors.New("INVALID_PARAMS")
	}

	if err := s.ui.Run(func(sf *surface.Surface) { sf.Rotate(page) }); err != nil {
		return nil, errors.New("UNAVAILABLE")
	}
	return []string{page.String()}, nil
}

// resetSurface restores the configured startup state
func (s *Server) resetSurface() (interface{}, error) {
	supported, err := s.config.InitialSupported()
	if err != nil {
		return nil, errors.New("INTERNAL")
	}
	page, err := s.config.InitialOrientation()
	if err != nil {
		return nil, errors.New("INTERNAL")
	}

	if err := s.ui.Run(func(sf *surface.Surface) {
		sf.SetSupportedOrientations(supported)
		sf.Rotate(page)
	}); err != nil {
		return nil, errors.New("UNAVAILABLE")
	}
	return []string{""}, nil
}

// status reports the surface as the host sees it
func (s *Server) status() (interface{}, error) {
	var snap surface.Snapshot
	if err := s.ui.Run(func(sf *surface.Surface) { snap = sf.Snapshot() }); err != nil {
		return nil, errors.New("UNAVAILABLE")
	}
	return Status{
		Supported:   snap.Supported.String(),
		Orientation: snap.Orientation.String(),
		Revision:    snap.Revision,
	}, nil
}

// isAllowedAddr checks if the address is in an allowed CIDR
func (s *Server) isAllowedAddr(addr net.Addr) bool {
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return false
	}

	clientIP := net.ParseIP(host)
	if clientIP == nil {
		return false
	}

	for _, cidrStr := range s.config.Network.Maintenance.AllowedCIDRs {
		_, network, err := net.ParseCIDR(cidrStr)
		if err != nil {
			log.Printf("Invalid CIDR in config: %s", cidrStr)
			continue
		}
		if network.Contains(clientIP) {
			return true
		}
	}

	return false
}

// writeErrorResponse writes an error response
func (s *Server) writeErrorResponse(conn net.Conn, code int, message string, id interface{}) {
	response := &Response{
		JSONRPC: "2.0",
		Error: map[string]interface{}{
			"code":    code,
			"message": message,
		},
		ID: id,
	}

	encoder := json.NewEncoder(conn)
	encoder.Encode(response)
}

// Close shuts down the maintenance server
func (s *Server) Close() error {
	select {
	case <-s.stopChan:
		return nil
	default:
		close(s.stopChan)
	}

	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()
	if s.listener != nil {
		return s.listener.Close()
	}
	return nil
}
