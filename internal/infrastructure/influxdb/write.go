package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteCommandResult records one device command's outcome.
//
// This is the primary telemetry stream: every state query and restore
// command lands here, tagged by device and operation. The write is
// non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - deviceID: Unique identifier for the device
//   - operation: Command name (e.g., "query_state", "set_color")
//   - success: Whether the command succeeded
//   - duration: Wall-clock time the command took
//
// Example:
//
//	client.WriteCommandResult("AA:BB:CC:DD", "set_brightness", true, 84*time.Millisecond)
func (c *Client) WriteCommandResult(deviceID, operation string, success bool, duration time.Duration) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"device_command",
		map[string]string{
			"device_id": deviceID,
			"operation": operation,
		},
		map[string]interface{}{
			"success":     success,
			"duration_ms": float64(duration.Milliseconds()),
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteSnapshotBatch records a whole capture or restore batch.
//
// Parameters:
//   - kind: Batch kind, "capture" or "restore"
//   - total: Number of devices in the batch
//   - failed: Number of devices that failed or degraded
//   - duration: Wall-clock time for the whole batch
func (c *Client) WriteSnapshotBatch(kind string, total, failed int, duration time.Duration) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"snapshot_batch",
		map[string]string{
			"kind": kind,
		},
		map[string]interface{}{
			"total":       total,
			"failed":      failed,
			"duration_ms": float64(duration.Milliseconds()),
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}
