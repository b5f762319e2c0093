package influxdb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aurorelabs/glowstate/internal/infrastructure/config"
)

// ─── Connection ───

func TestConnectDisabled(t *testing.T) {
	cfg := config.InfluxDBConfig{Enabled: false}

	if _, err := Connect(cfg); !errors.Is(err, ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestCloseOnNilClient(t *testing.T) {
	c := &Client{}
	if err := c.Close(); err != nil {
		t.Errorf("Close() on zero client = %v, want nil", err)
	}
}

func TestHealthCheckDisconnected(t *testing.T) {
	c := &Client{}
	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}
}

// ─── Disconnected Writes ───

// Writes on a disconnected client must be silent no-ops: telemetry is
// optional and must never take a restore batch down with it.
func TestWritesNoOpWhenDisconnected(t *testing.T) {
	c := &Client{}

	c.WriteCommandResult("dev-1", "set_power", true, 10*time.Millisecond)
	c.WriteSnapshotBatch("capture", 5, 1, time.Second)
	c.WritePoint("custom", map[string]string{"k": "v"}, map[string]interface{}{"f": 1})
	c.Flush()
}

// ─── Error Callback ───

func TestHandleWriteErrorsInvokesCallback(t *testing.T) {
	c := &Client{}

	received := make(chan error, 1)
	c.SetOnError(func(err error) { received <- err })

	errorsCh := make(chan error, 1)
	go c.handleWriteErrors(errorsCh)

	wantErr := errors.New("buffer full")
	errorsCh <- wantErr
	close(errorsCh)

	select {
	case got := <-received:
		if !errors.Is(got, wantErr) {
			t.Errorf("callback error = %v, want %v", got, wantErr)
		}
	case <-time.After(time.Second):
		t.Fatal("error callback never invoked")
	}
}
