package maintenance

import (
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/orientd/internal/config"
	"github.com/orientd/internal/orientation"
	"github.com/orientd/internal/surface"
)

func createTestConfig() *config.Config {
	return &config.Config{
		Network: config.NetworkConfig{
			Maintenance: config.MaintenanceConfig{
				Port:         0,
				AllowedCIDRs: []string{"127.0.0.0/8", "not-a-cidr"},
			},
		},
		Surface: config.SurfaceConfig{
			InitialSupported:   "portrait",
			InitialOrientation: "portraitUp",
		},
	}
}

func createTestUIContext(t *testing.T) *surface.UIContext {
	t.Helper()
	ui := surface.NewUIContext(surface.New(surface.SupportedPortraitOrLandscape, surface.OrientationPortraitUp), 4)
	t.Cleanup(func() { ui.Close() })
	return ui
}

func TestNewServer(t *testing.T) {
	cfg := createTestConfig()
	ui := createTestUIContext(t)
	server := NewServer(cfg, ui)

	if server.config != cfg {
		t.Error("Expected server config to be set")
	}
	if server.ui != ui {
		t.Error("Expected server UI context to be set")
	}
	if server.stopChan == nil {
		t.Error("Expected stopChan to be initialized")
	}
}

func TestRotateIsVisibleToTranslator(t *testing.T) {
	ui := createTestUIContext(t)
	server := NewServer(createTestConfig(), ui)
	translator := orientation.NewTranslator(ui)

	tests := []struct {
		page string
		want orientation.Flag
	}{
		{"landscapeRight", orientation.FlagLandscapeRight},
		{"landscape", orientation.FlagLandscapeLeft},
		{"landscapeLeft", orientation.FlagLandscapeLeft},
		{"portraitDown", orientation.FlagPortraitUpsideDown},
		{"portrait", orientation.FlagPortraitUp},
		{"none", 0},
	}

	for _, tt := range tests {
		t.Run(tt.page, func(t *testing.T) {
			resp := server.processMaintenanceRequest(&Request{JSONRPC: "2.0", Method: "rotate", Params: []string{tt.page}, ID: 1})
			if resp.Error != nil {
				t.Fatalf("rotate %s: %v", tt.page, resp.Error)
			}
			if got := translator.GetCurrentOrientation(); got != tt.want {
				t.Errorf("rotate %s: flag = %#x, want %#x", tt.page, int(got), int(tt.want))
			}
		})
	}
}

func TestRotateDeliversOrientationEvents(t *testing.T) {
	ui := createTestUIContext(t)
	server := NewServer(createTestConfig(), ui)
	translator := orientation.NewTranslator(ui)
	if err := translator.EnableEvents(8); err != nil {
		t.Fatalf("EnableEvents() error = %v", err)
	}

	resp := server.processMaintenanceRequest(&Request{JSONRPC: "2.0", Method: "rotate", Params: []string{"landscape"}, ID: 1})
	if resp.Error != nil {
		t.Fatalf("rotate landscape: %v", resp.Error)
	}

	events, err := translator.PollOrientationEvents(0)
	if err != nil {
		t.Fatalf("PollOrientationEvents() error = %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("Expected will-change and did-change events, got %+v", events)
	}
	if events[0].Type != orientation.EventOrientationWillChange {
		t.Errorf("Expected will-change first, got %s", events[0].Type)
	}
	if events[1].Type != orientation.EventOrientationDidChange || events[1].Orientation != orientation.FlagLandscapeLeft {
		t.Errorf("Expected did-change to landscape-left, got %+v", events[1])
	}

	// Rotating to the same orientation again is not a change
	server.processMaintenanceRequest(&Request{JSONRPC: "2.0", Method: "rotate", Params: []string{"landscape"}, ID: 2})
	if events, _ := translator.PollOrientationEvents(0); len(events) != 0 {
		t.Errorf("Expected no events for a repeated rotation, got %+v", events)
	}
}

func TestProcessMaintenanceRequestErrors(t *testing.T) {
	server := NewServer(createTestConfig(), createTestUIContext(t))

	tests := []struct {
		name    string
		method  string
		params  []string
		wantErr string
	}{
		{"unknown method", "invalid_method", nil, "Method not found"},
		{"rotate without params", "rotate", nil, "INVALID_PARAMS"},
		{"rotate unknown name", "rotate", []string{"diagonal"}, "INVALID_PARAMS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := server.processMaintenanceRequest(&Request{JSONRPC: "2.0", Method: tt.method, Params: tt.params, ID: "test-1"})
			if resp.Error != tt.wantErr {
				t.Errorf("Expected error %q, got %v", tt.wantErr, resp.Error)
			}
			if resp.ID != "test-1" {
				t.Errorf("Expected ID 'test-1', got %v", resp.ID)
			}
		})
	}
}

func TestResetSurfaceAndStatus(t *testing.T) {
	ui := createTestUIContext(t)
	server := NewServer(createTestConfig(), ui)
	translator := orientation.NewTranslator(ui)

	translator.SetSupportedOrientations(int(orientation.MaskLandscape))
	server.processMaintenanceRequest(&Request{JSONRPC: "2.0", Method: "rotate", Params: []string{"landscapeRight"}, ID: 1})

	resp := server.processMaintenanceRequest(&Request{JSONRPC: "2.0", Method: "reset_surface", ID: 2})
	if resp.Error != nil {
		t.Fatalf("reset_surface: %v", resp.Error)
	}

	resp = server.processMaintenanceRequest(&Request{JSONRPC: "2.0", Method: "surface_status", ID: 3})
	status, ok := resp.Result.(Status)
	if !ok {
		t.Fatalf("Expected Status result, got %T", resp.Result)
	}
	if status.Supported != "portrait" || status.Orientation != "portraitUp" {
		t.Errorf("Unexpected status after reset: %+v", status)
	}
	if status.Revision != 2 {
		t.Errorf("Expected revision 2 after one write and one reset, got %d", status.Revision)
	}
}

func TestClosedUIContext(t *testing.T) {
	ui := surface.NewUIContext(surface.New(surface.SupportedPortrait, surface.OrientationPortraitUp), 1)
	ui.Close()
	server := NewServer(createTestConfig(), ui)

	for _, method := range []string{"surface_status", "reset_surface"} {
		resp := server.processMaintenanceRequest(&Request{JSONRPC: "2.0", Method: method, ID: 1})
		if resp.Error != "UNAVAILABLE" {
			t.Errorf("%s: expected UNAVAILABLE, got %v", method, resp.Error)
		}
	}
}

func TestIsAllowedAddr(t *testing.T) {
	server := NewServer(createTestConfig(), createTestUIContext(t))

	tests := []struct {
		addr net.Addr
		want bool
	}{
		{&net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 4000}, true},
		{&net.TCPAddr{IP: net.ParseIP("10.1.2.3"), Port: 4000}, false},
		{&net.UnixAddr{Name: "pipe", Net: "unix"}, false},
	}

	for _, tt := range tests {
		if got := server.isAllowedAddr(tt.addr); got != tt.want {
			t.Errorf("isAllowedAddr(%s) = %v, want %v", tt.addr, got, tt.want)
		}
	}
}

func TestServeOverTCP(t *testing.T) {
	server := NewServer(createTestConfig(), createTestUIContext(t))

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- server.Serve(listener) }()

	send := func(payload string) map[string]interface{} {
		conn, err := net.Dial("tcp", listener.Addr().String())
		if err != nil {
			t.Fatalf("Failed to dial: %v", err)
		}
		defer conn.Close()
		conn.SetDeadline(time.Now().Add(5 * time.Second))

		if _, err := conn.Write([]byte(payload)); err != nil {
			t.Fatalf("Failed to write: %v", err)
		}
		var resp map[string]interface{}
		if err := json.NewDecoder(conn).Decode(&resp); err != nil {
			t.Fatalf("Failed to decode response: %v", err)
		}
		return resp
	}

	resp := send(`{"jsonrpc":"2.0","method":"rotate","params":["landscapeLeft"],"id":1}` + "\n")
	if resp["error"] != nil {
		t.Errorf("Unexpected error %v", resp["error"])
	}

	resp = send(`{"jsonrpc":"1.0","method":"surface_status","id":2}` + "\n")
	errObj, ok := resp["error"].(map[string]interface{})
	if !ok || errObj["code"].(float64) != -32600 {
		t.Errorf("Expected -32600 for wrong version, got %v", resp["error"])
	}

	resp = send("not json\n")
	errObj, ok = resp["error"].(map[string]interface{})
	if !ok || errObj["code"].(float64) != -32700 {
		t.Errorf("Expected -32700 for bad JSON, got %v", resp["error"])
	}

	if err := server.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := server.Close(); err != nil {
		t.Errorf("Second Close() error = %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve() did not return after Close")
	}
}
