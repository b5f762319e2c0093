package snapshot

import (
	"time"

	"github.com/aurorelabs/glowstate/internal/device"
)

// Snapshot captures one device's observable configuration at a point in
// time: power, brightness, and color (or color temperature).
//
// Color and ColorTempK are alternative, not simultaneous, authoritative
// representations: a device reports one or the other at capture time,
// and both may be absent if unsupported. Raw carries the capability
// payload exactly as the transport reported it; this package never
// interprets it.
type Snapshot struct {
	// DeviceID is the opaque device identifier.
	DeviceID string `json:"device_id"`

	// Power is the captured power state.
	Power device.PowerState `json:"power"`

	// Brightness is the captured level 0-100, or nil if unsupported or
	// the capture failed.
	Brightness *int `json:"brightness,omitempty"`

	// Color is the captured RGB value, decoded into channels.
	Color *device.Color `json:"color,omitempty"`

	// ColorTempK is the captured color temperature in Kelvin. A wire
	// value of 0 is invalid and is normalised to nil at capture.
	ColorTempK *int `json:"color_temp_k,omitempty"`

	// CapturedAt is when the state query completed.
	CapturedAt time.Time `json:"captured_at"`

	// Raw is the opaque capability payload passed through unmodified.
	Raw map[string]any `json:"raw,omitempty"`
}

// New builds a Snapshot from a transport state query result.
//
// The packed color integer is split into independent channel values
// before storage, and a color temperature of exactly 0 is normalised
// to absent.
func New(deviceID string, state device.State, at time.Time) *Snapshot {
	s := &Snapshot{
		DeviceID:   deviceID,
		Power:      state.Power,
		CapturedAt: at,
		Raw:        state.Raw,
	}
	if s.Power == "" {
		s.Power = device.PowerUnknown
	}

	if state.Brightness != nil {
		b := *state.Brightness
		s.Brightness = &b
	}
	if state.ColorPacked != nil {
		c := device.DecodeColor(*state.ColorPacked)
		s.Color = &c
	}
	if state.ColorTempK != nil && *state.ColorTempK != 0 {
		k := *state.ColorTempK
		s.ColorTempK = &k
	}

	return s
}

// Degraded builds a Snapshot for a device whose state query failed:
// power unknown, every other field absent. The batch entry still
// exists, so callers can tell "queried and failed" from "never asked".
func Degraded(deviceID string, at time.Time) *Snapshot {
	return &Snapshot{
		DeviceID:   deviceID,
		Power:      device.PowerUnknown,
		CapturedAt: at,
	}
}

// Clone creates an independent copy of the Snapshot.
// Pointer fields are duplicated so mutations of the copy do not reach
// the original. Raw is shared: it is opaque and never mutated here.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}

	cpy := *s
	if s.Brightness != nil {
		b := *s.Brightness
		cpy.Brightness = &b
	}
	if s.Color != nil {
		c := *s.Color
		cpy.Color = &c
	}
	if s.ColorTempK != nil {
		k := *s.ColorTempK
		cpy.ColorTempK = &k
	}
	return &cpy
}

// IsDegraded reports whether the snapshot carries no usable state.
func (s *Snapshot) IsDegraded() bool {
	return s.Power == device.PowerUnknown &&
		s.Brightness == nil && s.Color == nil && s.ColorTempK == nil
}
