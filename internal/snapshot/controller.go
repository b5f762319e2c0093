package snapshot

import (
	"context"
	"time"

	"github.com/aurorelabs/glowstate/internal/device"
)

// Controller is the transport interface the snapshot engine consumes.
//
// Every call addresses one device and is idempotent. Retries and
// timeouts belong to the transport; this package never retries a
// failed call and imposes no batch-level wall-clock bound of its own.
type Controller interface {
	// QueryState reads the device's current observable state.
	QueryState(ctx context.Context, deviceID string) (device.State, error)

	// SetPower switches the device on or off.
	SetPower(ctx context.Context, deviceID string, on bool) error

	// SetBrightness sets the brightness level 0-100.
	SetBrightness(ctx context.Context, deviceID string, level int) error

	// SetColor sets an RGB color. The first color command also cancels
	// any autonomous reactive mode the device may be running.
	SetColor(ctx context.Context, deviceID string, color device.Color) error

	// SetColorTemperature sets a white color temperature in Kelvin.
	SetColorTemperature(ctx context.Context, deviceID string, kelvin int) error
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

// Recorder receives telemetry about commands and batches.
// Satisfied by the InfluxDB client; writes must be non-blocking.
type Recorder interface {
	// WriteCommandResult records one device command's outcome.
	WriteCommandResult(deviceID, operation string, success bool, duration time.Duration)

	// WriteSnapshotBatch records a whole capture or restore batch.
	WriteSnapshotBatch(kind string, total, failed int, duration time.Duration)
}

// noopRecorder is a recorder that does nothing.
type noopRecorder struct{}

func (noopRecorder) WriteCommandResult(string, string, bool, time.Duration) {}
func (noopRecorder) WriteSnapshotBatch(string, int, int, time.Duration)     {}

// EventPublisher broadcasts batch completion events.
// Satisfied by the MQTT client.
type EventPublisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}
