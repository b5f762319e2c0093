package device

import "time"

// Device represents one independently addressable light in the fleet.
// The catalogue row comes from the cloud device list; Addr is filled in
// by LAN discovery when the device is reachable locally.
type Device struct {
	// Identity
	ID   string `json:"id"`   // Cloud device identifier (MAC-style)
	SKU  string `json:"sku"`  // Model number, e.g. "H6159"
	Name string `json:"name"` // User-assigned device name

	// Addr is the LAN IP address, if discovered. Devices without an
	// address are reachable only through the cloud.
	Addr *string `json:"addr,omitempty"`

	// Controllable indicates the cloud accepts control commands.
	Controllable bool `json:"controllable"`

	// Retrievable indicates the cloud can report current state.
	Retrievable bool `json:"retrievable"`

	// Capabilities the device advertises.
	Capabilities []Capability `json:"capabilities"`

	// Timestamps
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone creates an independent copy of the Device.
// Slice and pointer fields are duplicated so modifications to the copy
// do not affect the original. This is essential for cache isolation.
func (d *Device) Clone() *Device {
	if d == nil {
		return nil
	}

	cpy := *d // Shallow copy of value fields

	if d.Addr != nil {
		addr := *d.Addr
		cpy.Addr = &addr
	}
	if d.Capabilities != nil {
		cpy.Capabilities = make([]Capability, len(d.Capabilities))
		copy(cpy.Capabilities, d.Capabilities)
	}

	return &cpy
}

// HasCapability reports whether the device advertises the given capability.
func (d *Device) HasCapability(c Capability) bool {
	for _, have := range d.Capabilities {
		if have == c {
			return true
		}
	}
	return false
}

// Capability represents what a device can do.
type Capability string

// Capability constants.
const (
	CapOnOff      Capability = "on_off"
	CapBrightness Capability = "brightness"
	CapColorRGB   Capability = "color_rgb"  //nolint:misspell // vendor API uses American "color"
	CapColorTemp  Capability = "color_temp" //nolint:misspell // vendor API uses American "color"
)

// AllCapabilities returns all valid capability values.
func AllCapabilities() []Capability {
	return []Capability{CapOnOff, CapBrightness, CapColorRGB, CapColorTemp}
}

// PowerState is the tri-state power value of a device.
type PowerState string

// PowerState constants.
const (
	PowerOn      PowerState = "on"
	PowerOff     PowerState = "off"
	PowerUnknown PowerState = "unknown"
)

// Color is an RGB triple, each channel 0-255.
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// DecodeColor splits a packed color integer into independent channels.
// The wire reports color as a single integer, e.g. 0x8B00FF, which
// decodes to (139, 0, 255).
func DecodeColor(packed int) Color {
	return Color{
		R: uint8((packed >> 16) & 0xFF), //nolint:gosec // masked to one byte
		G: uint8((packed >> 8) & 0xFF),  //nolint:gosec // masked to one byte
		B: uint8(packed & 0xFF),         //nolint:gosec // masked to one byte
	}
}

// Packed returns the color as a single packed integer, the form the
// wire protocols expect.
func (c Color) Packed() int {
	return int(c.R)<<16 | int(c.G)<<8 | int(c.B)
}

// State is a point-in-time device state as reported by a transport.
//
// Color is reported in packed integer form here; it is decoded into
// channels when a snapshot is built. ColorPacked and ColorTempK are
// alternative representations: a device reports one or the other,
// and both may be absent when unsupported.
type State struct {
	Power       PowerState     `json:"power"`
	Brightness  *int           `json:"brightness,omitempty"` // 0-100
	ColorPacked *int           `json:"color,omitempty"`      // packed RGB integer
	ColorTempK  *int           `json:"color_temp,omitempty"` // Kelvin
	Raw         map[string]any `json:"raw,omitempty"`        // opaque capability payload
}
