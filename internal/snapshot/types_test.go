package snapshot

import (
	"testing"
	"time"

	"github.com/aurorelabs/glowstate/internal/device"
)

func intPtr(v int) *int { return &v }

// ─── Snapshot Construction ───

func TestNewDecodesPackedColor(t *testing.T) {
	state := device.State{
		Power:       device.PowerOn,
		Brightness:  intPtr(80),
		ColorPacked: intPtr(0x8B00FF),
	}

	snap := New("dev-1", state, time.Now())

	if snap.Color == nil {
		t.Fatal("Color = nil, want decoded channels")
	}
	if snap.Color.R != 139 || snap.Color.G != 0 || snap.Color.B != 255 {
		t.Errorf("Color = (%d,%d,%d), want (139,0,255)", snap.Color.R, snap.Color.G, snap.Color.B)
	}
	if snap.Brightness == nil || *snap.Brightness != 80 {
		t.Errorf("Brightness = %v, want 80", snap.Brightness)
	}
	if snap.Power != device.PowerOn {
		t.Errorf("Power = %q, want %q", snap.Power, device.PowerOn)
	}
}

func TestNewNormalisesZeroColorTemp(t *testing.T) {
	state := device.State{
		Power:      device.PowerOn,
		ColorTempK: intPtr(0),
	}

	snap := New("dev-1", state, time.Now())

	if snap.ColorTempK != nil {
		t.Errorf("ColorTempK = %v, want nil for wire value 0", *snap.ColorTempK)
	}
}

func TestNewKeepsValidColorTemp(t *testing.T) {
	state := device.State{
		Power:      device.PowerOn,
		ColorTempK: intPtr(2700),
	}

	snap := New("dev-1", state, time.Now())

	if snap.ColorTempK == nil || *snap.ColorTempK != 2700 {
		t.Errorf("ColorTempK = %v, want 2700", snap.ColorTempK)
	}
}

func TestNewDefaultsEmptyPowerToUnknown(t *testing.T) {
	snap := New("dev-1", device.State{}, time.Now())

	if snap.Power != device.PowerUnknown {
		t.Errorf("Power = %q, want %q", snap.Power, device.PowerUnknown)
	}
}

func TestNewCopiesPointerFields(t *testing.T) {
	b := 50
	state := device.State{Power: device.PowerOn, Brightness: &b}

	snap := New("dev-1", state, time.Now())
	b = 99

	if *snap.Brightness != 50 {
		t.Errorf("Brightness = %d after caller mutation, want 50", *snap.Brightness)
	}
}

// ─── Degraded Snapshots ───

func TestDegraded(t *testing.T) {
	at := time.Now()
	snap := Degraded("dev-1", at)

	if snap.DeviceID != "dev-1" {
		t.Errorf("DeviceID = %q, want %q", snap.DeviceID, "dev-1")
	}
	if snap.Power != device.PowerUnknown {
		t.Errorf("Power = %q, want %q", snap.Power, device.PowerUnknown)
	}
	if !snap.IsDegraded() {
		t.Error("IsDegraded() = false, want true")
	}
	if !snap.CapturedAt.Equal(at) {
		t.Errorf("CapturedAt = %v, want %v", snap.CapturedAt, at)
	}
}

func TestIsDegradedFalseWithState(t *testing.T) {
	tests := []struct {
		name string
		snap *Snapshot
	}{
		{"power known", &Snapshot{Power: device.PowerOff}},
		{"brightness set", &Snapshot{Power: device.PowerUnknown, Brightness: intPtr(10)}},
		{"color set", &Snapshot{Power: device.PowerUnknown, Color: &device.Color{R: 1}}},
		{"color temp set", &Snapshot{Power: device.PowerUnknown, ColorTempK: intPtr(4000)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.snap.IsDegraded() {
				t.Error("IsDegraded() = true, want false")
			}
		})
	}
}

// ─── Clone ───

func TestCloneIndependence(t *testing.T) {
	orig := &Snapshot{
		DeviceID:   "dev-1",
		Power:      device.PowerOn,
		Brightness: intPtr(70),
		Color:      &device.Color{R: 10, G: 20, B: 30},
		ColorTempK: intPtr(3000),
	}

	cpy := orig.Clone()
	*cpy.Brightness = 1
	cpy.Color.R = 99
	*cpy.ColorTempK = 1

	if *orig.Brightness != 70 {
		t.Errorf("original Brightness = %d after clone mutation, want 70", *orig.Brightness)
	}
	if orig.Color.R != 10 {
		t.Errorf("original Color.R = %d after clone mutation, want 10", orig.Color.R)
	}
	if *orig.ColorTempK != 3000 {
		t.Errorf("original ColorTempK = %d after clone mutation, want 3000", *orig.ColorTempK)
	}
}

func TestCloneNil(t *testing.T) {
	var snap *Snapshot
	if snap.Clone() != nil {
		t.Error("Clone() of nil = non-nil, want nil")
	}
}
