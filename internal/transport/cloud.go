package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/aurorelabs/glowstate/internal/device"
)

// DefaultBaseURL is the production cloud API endpoint.
const DefaultBaseURL = "https://openapi.api.govee.com"

// Cloud API capability type identifiers.
const (
	capTypeOnOff   = "devices.capabilities.on_off"
	capTypeRange   = "devices.capabilities.range"
	capTypeColour  = "devices.capabilities.color_setting"
	capTypeSegment = "devices.capabilities.segment_color_setting"
)

// Cloud API capability instance names.
const (
	instPowerSwitch = "powerSwitch"
	instBrightness  = "brightness"
	instColorRGB    = "colorRgb"
	instColorTempK  = "colorTemperatureK"
)

// CloudClient talks to the vendor cloud HTTP API. It is the slow path:
// every command is an HTTPS round trip through the vendor's backend, and
// the API is rate limited per key.
//
// Thread Safety: safe for concurrent use.
type CloudClient struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
	logger  Logger
}

// NewCloudClient creates a cloud API client.
// An empty baseURL selects the production endpoint.
func NewCloudClient(baseURL, apiKey string, timeout time.Duration) *CloudClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &CloudClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpc:   &http.Client{Timeout: timeout},
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the cloud client.
func (c *CloudClient) SetLogger(logger Logger) {
	c.logger = logger
}

// deviceListResponse is the GET /user/devices payload.
type deviceListResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    []struct {
		SKU          string `json:"sku"`
		Device       string `json:"device"`
		DeviceName   string `json:"deviceName"`
		Type         string `json:"type"`
		Capabilities []struct {
			Type     string `json:"type"`
			Instance string `json:"instance"`
		} `json:"capabilities"`
	} `json:"data"`
}

// stateResponse is the POST /device/state payload.
type stateResponse struct {
	Code    int    `json:"code"`
	Message string `json:"msg"`
	Payload struct {
		SKU          string `json:"sku"`
		Device       string `json:"device"`
		Capabilities []struct {
			Type     string `json:"type"`
			Instance string `json:"instance"`
			State    struct {
				Value any `json:"value"`
			} `json:"state"`
		} `json:"capabilities"`
	} `json:"payload"`
}

// controlResponse is the POST /device/control payload.
type controlResponse struct {
	Code    int    `json:"code"`
	Message string `json:"msg"`
}

// ListDevices fetches the account's device catalogue.
func (c *CloudClient) ListDevices(ctx context.Context) ([]device.Device, error) {
	var resp deviceListResponse
	if err := c.get(ctx, "/router/api/v1/user/devices", &resp); err != nil {
		return nil, err
	}
	if resp.Code != 200 {
		return nil, fmt.Errorf("%w: code %d (%s)", ErrBadStatus, resp.Code, resp.Message)
	}

	devices := make([]device.Device, 0, len(resp.Data))
	for _, d := range resp.Data {
		dev := device.Device{
			ID:           d.Device,
			SKU:          d.SKU,
			Name:         d.DeviceName,
			Controllable: true,
			Retrievable:  true,
		}
		for _, capa := range d.Capabilities {
			switch capa.Instance {
			case instPowerSwitch:
				dev.Capabilities = append(dev.Capabilities, device.CapOnOff)
			case instBrightness:
				dev.Capabilities = append(dev.Capabilities, device.CapBrightness)
			case instColorRGB:
				dev.Capabilities = append(dev.Capabilities, device.CapColorRGB)
			case instColorTempK:
				dev.Capabilities = append(dev.Capabilities, device.CapColorTemp)
			}
		}
		devices = append(devices, dev)
	}

	c.logger.Debug("cloud device list fetched", "count", len(devices))
	return devices, nil
}

// QueryState reads a device's current observable state via the cloud.
func (c *CloudClient) QueryState(ctx context.Context, dev *device.Device) (device.State, error) {
	body := map[string]any{
		"requestId": uuid.NewString(),
		"payload": map[string]string{
			"sku":    dev.SKU,
			"device": dev.ID,
		},
	}

	var resp stateResponse
	if err := c.post(ctx, "/router/api/v1/device/state", body, &resp); err != nil {
		return device.State{}, err
	}
	if resp.Code != 200 {
		return device.State{}, fmt.Errorf("%w: code %d (%s)", ErrBadStatus, resp.Code, resp.Message)
	}

	state := device.State{Raw: make(map[string]any)}
	for _, capa := range resp.Payload.Capabilities {
		state.Raw[capa.Instance] = capa.State.Value

		switch capa.Instance {
		case instPowerSwitch:
			if v, ok := asInt(capa.State.Value); ok {
				if v == 1 {
					state.Power = device.PowerOn
				} else {
					state.Power = device.PowerOff
				}
			}
		case instBrightness:
			if v, ok := asInt(capa.State.Value); ok {
				state.Brightness = &v
			}
		case instColorRGB:
			if v, ok := asInt(capa.State.Value); ok {
				state.ColorPacked = &v
			}
		case instColorTempK:
			if v, ok := asInt(capa.State.Value); ok {
				state.ColorTempK = &v
			}
		}
	}
	if state.Power == "" {
		state.Power = device.PowerUnknown
	}

	return state, nil
}

// SetPower switches a device on or off via the cloud.
func (c *CloudClient) SetPower(ctx context.Context, dev *device.Device, on bool) error {
	value := 0
	if on {
		value = 1
	}
	return c.control(ctx, dev, capTypeOnOff, instPowerSwitch, value)
}

// SetBrightness sets a device's brightness level via the cloud.
func (c *CloudClient) SetBrightness(ctx context.Context, dev *device.Device, level int) error {
	return c.control(ctx, dev, capTypeRange, instBrightness, level)
}

// SetColor sets a device's RGB color via the cloud.
// The wire format is a single packed integer.
func (c *CloudClient) SetColor(ctx context.Context, dev *device.Device, color device.Color) error {
	return c.control(ctx, dev, capTypeColour, instColorRGB, color.Packed())
}

// SetColorTemperature sets a device's white temperature via the cloud.
func (c *CloudClient) SetColorTemperature(ctx context.Context, dev *device.Device, kelvin int) error {
	return c.control(ctx, dev, capTypeColour, instColorTempK, kelvin)
}

// control issues one capability write.
func (c *CloudClient) control(ctx context.Context, dev *device.Device, capType, instance string, value any) error {
	body := map[string]any{
		"requestId": uuid.NewString(),
		"payload": map[string]any{
			"sku":    dev.SKU,
			"device": dev.ID,
			"capability": map[string]any{
				"type":     capType,
				"instance": instance,
				"value":    value,
			},
		},
	}

	var resp controlResponse
	if err := c.post(ctx, "/router/api/v1/device/control", body, &resp); err != nil {
		return err
	}
	if resp.Code != 200 {
		return fmt.Errorf("%w: code %d (%s)", ErrBadStatus, resp.Code, resp.Message)
	}

	c.logger.Debug("cloud control sent",
		"device_id", dev.ID,
		"instance", instance,
	)
	return nil
}

func (c *CloudClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	return c.send(req, out)
}

func (c *CloudClient) post(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshalling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.send(req, out)
}

func (c *CloudClient) send(req *http.Request, out any) error {
	if c.apiKey == "" {
		return ErrNoAPIKey
	}
	req.Header.Set("Govee-API-Key", c.apiKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("cloud request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // response body close failure is unactionable

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body) //nolint:errcheck // draining for connection reuse
		return fmt.Errorf("%w: HTTP %d", ErrBadStatus, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// asInt coerces a decoded JSON value to int. The cloud API reports
// numeric capability values as JSON numbers, which decode as float64.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	default:
		return 0, false
	}
}
