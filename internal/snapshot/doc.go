// Package snapshot implements the device state snapshot engine: it
// captures the observable state of many lighting devices in parallel,
// holds the results in memory, and later replays them back to the
// devices in the strict per-device order the hardware requires.
//
// # Architecture
//
//	┌──────────────────────────────────────────────────────┐
//	│                       Manager                        │
//	│            Save / Restore / Get / Clear              │
//	└─────────┬──────────────────────────┬─────────────────┘
//	          │                          │
//	┌─────────▼─────────┐      ┌─────────▼─────────┐
//	│     Capturer      │      │     Restorer      │
//	│  bounded fan-out  │      │  bounded fan-out  │
//	│  query → Snapshot │      │  per-device       │
//	│                   │      │  sequencer        │
//	└─────────┬─────────┘      └─────────┬─────────┘
//	          │                          │
//	          │        ┌───────┐         │
//	          ├───────▶│ Store │◀────────┤
//	          │        └───────┘         │
//	┌─────────▼──────────────────────────▼─────────────────┐
//	│                     Controller                       │
//	│      QueryState / SetPower / SetColor / ...          │
//	└──────────────────────────────────────────────────────┘
//
// Capture is failure-isolated: a device whose state cannot be queried
// yields a degraded snapshot and the batch always completes. Restore
// runs one sequencer per device (power, then color, then brightness,
// with settling delays between dependent commands); a step failure
// fails that device alone and skips its remaining steps.
//
// # Key Types
//
//   - Manager: public surface owning the store and both orchestrators
//   - Snapshot: immutable record of one device's captured state
//   - Store: in-memory snapshot holder keyed by device id
//   - Capturer: parallel state capture with a worker ceiling
//   - Restorer: parallel restore with strict per-device ordering
//   - Controller: transport abstraction the orchestrators drive
//
// # Thread Safety
//
// All exported types are safe for concurrent use. Parallelism exists
// only across devices; commands to a single device are strictly
// sequential.
//
// # Usage
//
//	mgr := snapshot.NewManager(transportClient)
//	mgr.SetLogger(logger)
//	mgr.SetWorkers(cfg.Snapshot.Workers)
//
//	snaps, _ := mgr.Save(ctx, deviceIDs)
//	// ... scene override runs ...
//	results, err := mgr.Restore(ctx, deviceIDs)
package snapshot
