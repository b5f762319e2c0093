package transport

import (
	"context"
	"fmt"

	"github.com/aurorelabs/glowstate/internal/device"
)

// DeviceResolver looks up catalogue entries by device id.
// Satisfied by the device registry.
type DeviceResolver interface {
	GetDevice(ctx context.Context, id string) (*device.Device, error)
}

// Logger defines the logging interface used by this package.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Client is the dual-path device transport: LAN UDP when the device
// has a known local address, cloud HTTPS otherwise. A LAN failure
// falls back to the cloud within the same call, so callers see one
// command, not two paths.
//
// Timeouts live here, in the underlying clients. The snapshot engine
// deliberately imposes none of its own.
//
// Thread Safety: safe for concurrent use.
type Client struct {
	cloud    *CloudClient
	lan      *LANClient // nil when the LAN path is disabled
	resolver DeviceResolver
	logger   Logger
}

// NewClient creates a dual-path transport. lan may be nil to force
// every command through the cloud.
func NewClient(cloud *CloudClient, lan *LANClient, resolver DeviceResolver) *Client {
	return &Client{
		cloud:    cloud,
		lan:      lan,
		resolver: resolver,
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the client.
func (c *Client) SetLogger(logger Logger) {
	c.logger = logger
}

// ListDevices fetches the account's device catalogue from the cloud.
func (c *Client) ListDevices(ctx context.Context) ([]device.Device, error) {
	return c.cloud.ListDevices(ctx)
}

// Scan broadcasts a LAN discovery request. Returns device id → address
// for every device that answered, empty when the LAN path is disabled.
func (c *Client) Scan(ctx context.Context) (map[string]string, error) {
	if c.lan == nil {
		return map[string]string{}, nil
	}
	return c.lan.Scan(ctx, c.lan.timeout)
}

// QueryState reads a device's current observable state, preferring the
// LAN path.
func (c *Client) QueryState(ctx context.Context, deviceID string) (device.State, error) {
	dev, err := c.resolver.GetDevice(ctx, deviceID)
	if err != nil {
		return device.State{}, fmt.Errorf("resolving device: %w", err)
	}

	if addr := c.lanAddr(dev); addr != "" {
		state, err := c.lan.QueryState(ctx, addr)
		if err == nil {
			return state, nil
		}
		c.logger.Warn("LAN query failed, falling back to cloud",
			"device_id", deviceID,
			"error", err,
		)
	}

	return c.cloud.QueryState(ctx, dev)
}

// SetPower switches a device on or off.
func (c *Client) SetPower(ctx context.Context, deviceID string, on bool) error {
	return c.send(ctx, deviceID,
		func(addr string) error { return c.lan.SetPower(ctx, addr, on) },
		func(dev *device.Device) error { return c.cloud.SetPower(ctx, dev, on) },
	)
}

// SetBrightness sets a device's brightness level.
func (c *Client) SetBrightness(ctx context.Context, deviceID string, level int) error {
	return c.send(ctx, deviceID,
		func(addr string) error { return c.lan.SetBrightness(ctx, addr, level) },
		func(dev *device.Device) error { return c.cloud.SetBrightness(ctx, dev, level) },
	)
}

// SetColor sets a device's RGB color.
func (c *Client) SetColor(ctx context.Context, deviceID string, color device.Color) error {
	return c.send(ctx, deviceID,
		func(addr string) error { return c.lan.SetColor(ctx, addr, color) },
		func(dev *device.Device) error { return c.cloud.SetColor(ctx, dev, color) },
	)
}

// SetColorTemperature sets a device's white color temperature.
func (c *Client) SetColorTemperature(ctx context.Context, deviceID string, kelvin int) error {
	return c.send(ctx, deviceID,
		func(addr string) error { return c.lan.SetColorTemperature(ctx, addr, kelvin) },
		func(dev *device.Device) error { return c.cloud.SetColorTemperature(ctx, dev, kelvin) },
	)
}

// send resolves the device and routes one command: LAN first when an
// address is known, cloud as the fallback or only path.
func (c *Client) send(ctx context.Context, deviceID string, viaLAN func(addr string) error, viaCloud func(dev *device.Device) error) error {
	dev, err := c.resolver.GetDevice(ctx, deviceID)
	if err != nil {
		return fmt.Errorf("resolving device: %w", err)
	}

	if addr := c.lanAddr(dev); addr != "" {
		err := viaLAN(addr)
		if err == nil {
			return nil
		}
		c.logger.Warn("LAN command failed, falling back to cloud",
			"device_id", deviceID,
			"error", err,
		)
	}

	return viaCloud(dev)
}

// lanAddr returns the device's LAN address when that path is usable.
func (c *Client) lanAddr(dev *device.Device) string {
	if c.lan == nil || dev.Addr == nil {
		return ""
	}
	return *dev.Addr
}
