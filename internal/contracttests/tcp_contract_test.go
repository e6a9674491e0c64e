package contracttests

import (
	"bufio"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/orientd/internal/config"
	"github.com/orientd/internal/maintenance"
	"github.com/orientd/internal/orientation"
	"github.com/orientd/internal/surface"
)

func startMaintenance(t *testing.T) (string, *orientation.Translator) {
	t.Helper()

	cfg := &config.Config{
		Network: config.NetworkConfig{
			Maintenance: config.MaintenanceConfig{AllowedCIDRs: []string{"127.0.0.0/8"}},
		},
		Surface: config.SurfaceConfig{
			InitialSupported:   "landscape",
			InitialOrientation: "landscapeRight",
		},
	}

	ui := surface.NewUIContext(surface.New(surface.SupportedPortrait, surface.OrientationPortraitUp), 4)
	server := maintenance.NewServer(cfg, ui)
	translator := orientation.NewTranslator(ui)
	if err := translator.EnableEvents(16); err != nil {
		t.Fatalf("Failed to enable events: %v", err)
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}
	go server.Serve(listener)

	t.Cleanup(func() {
		server.Close()
		ui.Close()
	})
	return listener.Addr().String(), translator
}

func sendTCP(t *testing.T, addr, payload string) []byte {
	t.Helper()

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("Failed to dial: %v", err)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(5 * time.Second))

	if _, err := conn.Write([]byte(payload + "\n")); err != nil {
		t.Fatalf("Failed to write: %v", err)
	}
	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		t.Fatalf("Failed to read: %v", err)
	}
	return line
}

func TestTCPMethodExistence(t *testing.T) {
	addr, _ := startMaintenance(t)

	for _, req := range []string{
		`{"jsonrpc":"2.0","method":"rotate","params":["portraitDown"],"id":1}`,
		`{"jsonrpc":"2.0","method":"reset_surface","id":2}`,
		`{"jsonrpc":"2.0","method":"surface_status","id":3}`,
	} {
		body := sendTCP(t, addr, req)
		if err := ValidateEnvelope(body); err != nil {
			t.Errorf("%s: %v", req, err)
		}
		var env JSONRPCEnvelope
		json.Unmarshal(body, &env)
		if len(env.Error) != 0 {
			t.Errorf("%s: unexpected error %s", req, env.Error)
		}
	}
}

func TestTCPHostStateReachesTranslator(t *testing.T) {
	addr, translator := startMaintenance(t)

	sendTCP(t, addr, `{"jsonrpc":"2.0","method":"reset_surface","id":1}`)

	if got := translator.GetSupportedOrientations(); got != orientation.MaskLandscape {
		t.Errorf("Expected landscape group after reset, got %#x", int(got))
	}
	if got := translator.GetCurrentOrientation(); got != orientation.FlagLandscapeRight {
		t.Errorf("Expected landscape-right after reset, got %#x", int(got))
	}

	sendTCP(t, addr, `{"jsonrpc":"2.0","method":"rotate","params":["landscape"],"id":2}`)
	if got := translator.GetCurrentOrientation(); got != orientation.FlagLandscapeLeft {
		t.Errorf("Expected generic landscape to read as left, got %#x", int(got))
	}
}

func TestTCPUnknownMethod(t *testing.T) {
	addr, _ := startMaintenance(t)

	body := sendTCP(t, addr, `{"jsonrpc":"2.0","method":"factory_reset","id":9}`)
	if err := ValidateEnvelope(body); err != nil {
		t.Fatal(err)
	}
	var env JSONRPCEnvelope
	json.Unmarshal(body, &env)
	if string(env.Error) != `"Method not found"` {
		t.Errorf("Expected 'Method not found', got %s", env.Error)
	}
}

func TestTCPRotationEvents(t *testing.T) {
	addr, translator := startMaintenance(t)

	sendTCP(t, addr, `{"jsonrpc":"2.0","method":"rotate","params":["landscape"],"id":1}`)

	events, err := translator.PollOrientationEvents(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 || events[1].Type != orientation.EventOrientationDidChange || events[1].Orientation != orientation.FlagLandscapeLeft {
		t.Errorf("Expected did-change to landscape-left, got %+v", events)
	}
}
