package jsonrpc

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/orientd/internal/auth"
	"github.com/orientd/internal/config"
	"github.com/orientd/internal/orientation"
	"github.com/orientd/internal/surface"
)

const testSecret = "jsonrpc-test-secret-0123"

func createTestConfig() *config.Config {
	return &config.Config{
		Surface: config.SurfaceConfig{
			InitialSupported:   "portraitOrLandscape",
			InitialOrientation: "portraitUp",
		},
		Dispatch: config.DispatchConfig{QueueSize: 4},
	}
}

func createTestServer(t *testing.T, cfg *config.Config, page surface.PageOrientation) *Server {
	t.Helper()
	ui := surface.NewUIContext(surface.New(surface.SupportedPortraitOrLandscape, page), cfg.Dispatch.QueueSize)
	t.Cleanup(func() { ui.Close() })

	server, err := NewServer(cfg, orientation.NewTranslator(ui), nil)
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	return server
}

type rpcResponse struct {
	JSONRPC string                 `json:"jsonrpc"`
	Result  []string               `json:"result"`
	Error   map[string]interface{} `json:"error"`
	ID      interface{}            `json:"id"`
}

func call(t *testing.T, handler http.HandlerFunc, token, method string, params ...string) (int, rpcResponse) {
	t.Helper()

	body, err := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"method":  method,
		"params":  params,
		"id":      "test-1",
	})
	if err != nil {
		t.Fatalf("Failed to marshal request: %v", err)
	}

	req := httptest.NewRequest("POST", Path, bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	handler(rr, req)

	var resp rpcResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to unmarshal response %q: %v", rr.Body.String(), err)
	}
	return rr.Code, resp
}

func TestServerRoundTripIsGroupLevel(t *testing.T) {
	server := createTestServer(t, createTestConfig(), surface.OrientationPortraitUp)
	h := server.Handler()

	for _, tt := range []struct {
		mask string
		want string
	}{
		{"1", "3"},
		{"3", "3"},
		{"8", "12"},
		{"0x5", "15"},
	} {
		if _, resp := call(t, h, "", "screen_set_supported_orientations", tt.mask); resp.Result[0] != "0" {
			t.Fatalf("set %s: unexpected response %+v", tt.mask, resp)
		}
		_, resp := call(t, h, "", "screen_get_supported_orientations")
		if resp.Result[0] != tt.want {
			t.Errorf("mask %s read back as %s, want %s", tt.mask, resp.Result[0], tt.want)
		}
	}
}

func TestServerLegacyInvalidValueLeavesState(t *testing.T) {
	server := createTestServer(t, createTestConfig(), surface.OrientationPortraitUp)
	h := server.Handler()

	call(t, h, "", "screen_set_orientation", "2")
	_, before := call(t, h, "", "screen_get_supported_orientations")
	if before.Result[0] != "3" {
		t.Fatalf("Expected portrait group after legacy portrait, got %v", before.Result)
	}

	for _, v := range []string{"0", "4"} {
		_, resp := call(t, h, "", "screen_set_orientation", v)
		if resp.Result[0] != "-2" {
			t.Errorf("screen_set_orientation(%s) = %v, want -2", v, resp.Result)
		}
	}

	_, after := call(t, h, "", "screen_get_supported_orientations")
	if after.Result[0] != before.Result[0] {
		t.Errorf("State changed on invalid input: %v -> %v", before.Result, after.Result)
	}
}

func TestServerCurrentOrientationCollapse(t *testing.T) {
	for _, page := range []surface.PageOrientation{surface.OrientationLandscapeLeft, surface.OrientationLandscape} {
		server := createTestServer(t, createTestConfig(), page)
		_, resp := call(t, server.Handler(), "", "screen_get_current_orientation")
		if resp.Result[0] != "4" {
			t.Errorf("page %s read as %v, want 4", page, resp.Result)
		}
	}
}

func TestServerAuth(t *testing.T) {
	cfg := createTestConfig()
	cfg.Auth = config.AuthConfig{Enabled: true, HMACSecret: testSecret}
	server := createTestServer(t, cfg, surface.OrientationPortraitUp)
	h := server.Handler()

	verifier, err := auth.NewVerifier(testSecret)
	if err != nil {
		t.Fatalf("NewVerifier() error = %v", err)
	}
	readToken, _ := verifier.Sign("viewer", []string{auth.ScopeRead})
	writeToken, _ := verifier.Sign("app", []string{auth.ScopeRead, auth.ScopeWrite})

	if code, _ := call(t, h, "", "screen_get_supported_orientations"); code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without token, got %d", code)
	}

	if _, resp := call(t, h, readToken, "screen_get_supported_orientations"); len(resp.Result) != 1 || resp.Result[0] != "15" {
		t.Errorf("Expected reader to get 15, got %+v", resp)
	}

	if _, resp := call(t, h, readToken, "screen_set_supported_orientations", "1"); resp.Error["message"] != "FORBIDDEN" {
		t.Errorf("Expected FORBIDDEN for reader write, got %+v", resp)
	}

	if _, resp := call(t, h, writeToken, "screen_set_supported_orientations", "1"); len(resp.Result) != 1 || resp.Result[0] != "0" {
		t.Errorf("Expected writer to succeed, got %+v", resp)
	}
}

func TestNewServerRejectsEmptySecret(t *testing.T) {
	cfg := createTestConfig()
	cfg.Auth.Enabled = true

	ui := surface.NewUIContext(surface.New(surface.SupportedPortrait, surface.OrientationPortraitUp), 1)
	defer ui.Close()

	if _, err := NewServer(cfg, orientation.NewTranslator(ui), nil); err == nil {
		t.Error("Expected error for auth without secret")
	}
}

func TestServerInvalidJSON(t *testing.T) {
	server := createTestServer(t, createTestConfig(), surface.OrientationPortraitUp)

	req := httptest.NewRequest("POST", Path, bytes.NewBufferString("{"))
	rr := httptest.NewRecorder()
	server.Handler()(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rr.Code)
	}
}

func TestServerRejectsOversizedBody(t *testing.T) {
	server := createTestServer(t, createTestConfig(), surface.OrientationPortraitUp)

	padding := strings.Repeat(" ", maxBodyBytes)
	body := `{"jsonrpc":"2.0","method":"screen_get_supported_orientations","id":1}` + padding
	req := httptest.NewRequest("POST", Path, strings.NewReader(body))
	rr := httptest.NewRecorder()
	server.Handler()(rr, req)

	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("Expected 413, got %d", rr.Code)
	}
	var resp rpcResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to unmarshal response %q: %v", rr.Body.String(), err)
	}
	if resp.Error["code"].(float64) != -32600 || resp.Error["message"] != "Request too large" {
		t.Errorf("Unexpected error %v", resp.Error)
	}
}

func TestServerAcceptsBodyAtLimit(t *testing.T) {
	server := createTestServer(t, createTestConfig(), surface.OrientationPortraitUp)

	msg := `{"jsonrpc":"2.0","method":"screen_get_supported_orientations","id":1}`
	body := msg + strings.Repeat(" ", maxBodyBytes-len(msg))
	rr := httptest.NewRecorder()
	server.Handler()(rr, httptest.NewRequest("POST", Path, strings.NewReader(body)))

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestServerCommandsExposesSyscallTable(t *testing.T) {
	server := createTestServer(t, createTestConfig(), surface.OrientationPortraitUp)

	names := server.Commands().Registry().List()
	for _, want := range []string{
		"screen_get_current_orientation",
		"screen_get_supported_orientations",
		"screen_poll_orientation_events",
		"screen_set_orientation",
		"screen_set_supported_orientations",
	} {
		found := false
		for _, name := range names {
			if name == want {
				found = true
			}
		}
		if !found {
			t.Errorf("Expected %s in %v", want, names)
		}
	}
}
