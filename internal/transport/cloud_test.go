package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aurorelabs/glowstate/internal/device"
)

func testDevice() *device.Device {
	return &device.Device{ID: "AA:BB:CC:DD", SKU: "H6159", Name: "Desk Strip"}
}

// ─── Device List ───

func TestCloudListDevices(t *testing.T) {
	var gotKey, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("Govee-API-Key")
		gotPath = r.URL.Path
		w.Write([]byte(`{
			"code": 200, "message": "success",
			"data": [{
				"sku": "H6159", "device": "AA:BB:CC:DD", "deviceName": "Desk Strip",
				"type": "devices.types.light",
				"capabilities": [
					{"type": "devices.capabilities.on_off", "instance": "powerSwitch"},
					{"type": "devices.capabilities.range", "instance": "brightness"},
					{"type": "devices.capabilities.color_setting", "instance": "colorRgb"},
					{"type": "devices.capabilities.color_setting", "instance": "colorTemperatureK"}
				]
			}]
		}`))
	}))
	defer srv.Close()

	c := NewCloudClient(srv.URL, "test-key", time.Second)
	devices, err := c.ListDevices(context.Background())
	if err != nil {
		t.Fatalf("ListDevices() error = %v, want nil", err)
	}

	if gotKey != "test-key" {
		t.Errorf("Govee-API-Key = %q, want %q", gotKey, "test-key")
	}
	if gotPath != "/router/api/v1/user/devices" {
		t.Errorf("path = %q, want /router/api/v1/user/devices", gotPath)
	}
	if len(devices) != 1 {
		t.Fatalf("len(devices) = %d, want 1", len(devices))
	}

	d := devices[0]
	if d.ID != "AA:BB:CC:DD" || d.SKU != "H6159" || d.Name != "Desk Strip" {
		t.Errorf("device = %+v, want parsed identity fields", d)
	}
	for _, want := range []device.Capability{
		device.CapOnOff, device.CapBrightness, device.CapColorRGB, device.CapColorTemp,
	} {
		if !d.HasCapability(want) {
			t.Errorf("HasCapability(%s) = false, want true", want)
		}
	}
}

// ─── State Query ───

func TestCloudQueryState(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if body["requestId"] == "" {
			t.Error("requestId missing from state request")
		}

		w.Write([]byte(`{
			"code": 200, "msg": "success",
			"payload": {
				"sku": "H6159", "device": "AA:BB:CC:DD",
				"capabilities": [
					{"type": "devices.capabilities.online", "instance": "online", "state": {"value": true}},
					{"type": "devices.capabilities.on_off", "instance": "powerSwitch", "state": {"value": 1}},
					{"type": "devices.capabilities.range", "instance": "brightness", "state": {"value": 36}},
					{"type": "devices.capabilities.color_setting", "instance": "colorRgb", "state": {"value": 9109759}},
					{"type": "devices.capabilities.color_setting", "instance": "colorTemperatureK", "state": {"value": 0}}
				]
			}
		}`))
	}))
	defer srv.Close()

	c := NewCloudClient(srv.URL, "test-key", time.Second)
	state, err := c.QueryState(context.Background(), testDevice())
	if err != nil {
		t.Fatalf("QueryState() error = %v, want nil", err)
	}

	if state.Power != device.PowerOn {
		t.Errorf("Power = %q, want %q", state.Power, device.PowerOn)
	}
	if state.Brightness == nil || *state.Brightness != 36 {
		t.Errorf("Brightness = %v, want 36", state.Brightness)
	}
	if state.ColorPacked == nil || *state.ColorPacked != 9109759 {
		t.Errorf("ColorPacked = %v, want 9109759", state.ColorPacked)
	}
	if state.ColorTempK == nil || *state.ColorTempK != 0 {
		t.Errorf("ColorTempK = %v, want raw wire value 0", state.ColorTempK)
	}
	if _, ok := state.Raw["online"]; !ok {
		t.Error("Raw missing unrecognised capability passthrough")
	}
}

// ─── Control ───

func TestCloudControlSendsCapability(t *testing.T) {
	var got struct {
		RequestID string `json:"requestId"`
		Payload   struct {
			SKU        string `json:"sku"`
			Device     string `json:"device"`
			Capability struct {
				Type     string `json:"type"`
				Instance string `json:"instance"`
				Value    any    `json:"value"`
			} `json:"capability"`
		} `json:"payload"`
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"code": 200, "msg": "success"}`))
	}))
	defer srv.Close()

	c := NewCloudClient(srv.URL, "test-key", time.Second)
	if err := c.SetColor(context.Background(), testDevice(), device.Color{R: 139, B: 255}); err != nil {
		t.Fatalf("SetColor() error = %v, want nil", err)
	}

	if got.RequestID == "" {
		t.Error("requestId missing from control request")
	}
	if got.Payload.Capability.Instance != "colorRgb" {
		t.Errorf("instance = %q, want colorRgb", got.Payload.Capability.Instance)
	}
	if v, _ := got.Payload.Capability.Value.(float64); int(v) != 0x8B00FF {
		t.Errorf("value = %v, want packed %#x", got.Payload.Capability.Value, 0x8B00FF)
	}
}

func TestCloudSetPowerValues(t *testing.T) {
	var values []float64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Payload struct {
				Capability struct {
					Value float64 `json:"value"`
				} `json:"capability"`
			} `json:"payload"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		values = append(values, body.Payload.Capability.Value)
		w.Write([]byte(`{"code": 200, "msg": "success"}`))
	}))
	defer srv.Close()

	c := NewCloudClient(srv.URL, "test-key", time.Second)
	c.SetPower(context.Background(), testDevice(), true)
	c.SetPower(context.Background(), testDevice(), false)

	if len(values) != 2 || values[0] != 1 || values[1] != 0 {
		t.Errorf("power values = %v, want [1 0]", values)
	}
}

// ─── Failures ───

func TestCloudBadHTTPStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewCloudClient(srv.URL, "test-key", time.Second)
	if _, err := c.QueryState(context.Background(), testDevice()); !errors.Is(err, ErrBadStatus) {
		t.Errorf("QueryState() error = %v, want ErrBadStatus", err)
	}
}

func TestCloudBadPayloadCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code": 401, "msg": "invalid key"}`))
	}))
	defer srv.Close()

	c := NewCloudClient(srv.URL, "test-key", time.Second)
	if err := c.SetBrightness(context.Background(), testDevice(), 50); !errors.Is(err, ErrBadStatus) {
		t.Errorf("SetBrightness() error = %v, want ErrBadStatus", err)
	}
}

func TestCloudMissingAPIKey(t *testing.T) {
	c := NewCloudClient("http://localhost:1", "", time.Second)
	if _, err := c.ListDevices(context.Background()); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("ListDevices() error = %v, want ErrNoAPIKey", err)
	}
}

func TestCloudDefaultBaseURL(t *testing.T) {
	c := NewCloudClient("", "key", time.Second)
	if c.baseURL != DefaultBaseURL {
		t.Errorf("baseURL = %q, want %q", c.baseURL, DefaultBaseURL)
	}
}
