// Package influxdb provides time-series telemetry for glowstate.
//
// Two measurement streams are written:
//
//	device_command  – one point per device command (query or restore
//	                  step), tagged by device_id and operation, with
//	                  success and duration fields
//	snapshot_batch  – one point per capture/restore batch with totals,
//	                  failure counts, and batch duration
//
// Writes go through the non-blocking batched WriteAPI, so recording
// telemetry never slows a restore sequence. Async write failures are
// surfaced through the SetOnError callback.
//
// The client satisfies the snapshot engine's Recorder interface, which
// keeps the engine free of any InfluxDB dependency.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    // telemetry is optional, log and continue
//	}
//	defer client.Close()
//
//	mgr.SetRecorder(client)
package influxdb
