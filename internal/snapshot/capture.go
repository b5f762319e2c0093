package snapshot

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultWorkers bounds how many per-device operations run concurrently
// within one batch. It exists to cap outbound request burst size against
// the rate-limited cloud API, not for correctness: raising it only
// changes concurrency, never the outcome.
const DefaultWorkers = 20

// Capturer fans out parallel state queries across devices and stores
// the resulting snapshots.
//
// A query failure for one device never affects another: the batch
// always produces an entry for every requested device, degraded (all
// fields absent) on failure.
//
// Thread Safety: Save is safe for concurrent use.
type Capturer struct {
	ctrl    Controller
	store   *Store
	workers int
	logger  Logger
	metrics Recorder
}

// NewCapturer creates a capture orchestrator writing into store.
func NewCapturer(ctrl Controller, store *Store) *Capturer {
	return &Capturer{
		ctrl:    ctrl,
		store:   store,
		workers: DefaultWorkers,
		logger:  noopLogger{},
		metrics: noopRecorder{},
	}
}

// SetLogger sets the logger for the capturer.
func (c *Capturer) SetLogger(logger Logger) {
	c.logger = logger
}

// SetWorkers sets the worker ceiling. Values below 1 are ignored.
func (c *Capturer) SetWorkers(n int) {
	if n >= 1 {
		c.workers = n
	}
}

// SetRecorder sets the telemetry recorder for the capturer.
func (c *Capturer) SetRecorder(r Recorder) {
	if r != nil {
		c.metrics = r
	}
}

// Save captures the current state of every given device.
//
// It issues exactly one state query per device, running up to
// min(len(ids), workers) queries concurrently. Results are collected
// as they complete; completion order is unrelated to input order.
//
// The returned map holds an entry for every requested device. Each
// captured snapshot is also saved to the store, overwriting any
// previous snapshot for that device.
func (c *Capturer) Save(ctx context.Context, ids []string) map[string]*Snapshot {
	started := time.Now()

	results := make(map[string]*Snapshot, len(ids))
	var mu sync.Mutex

	// A plain group, not WithContext: one device's failure must never
	// cancel sibling queries.
	var g errgroup.Group
	g.SetLimit(c.workers)

	for _, id := range ids {
		id := id
		g.Go(func() error {
			snap := c.captureOne(ctx, id)

			// Each key is written by exactly one worker.
			c.store.Put(snap)

			mu.Lock()
			results[id] = snap
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // workers never return errors; failures degrade snapshots

	failed := 0
	for _, snap := range results {
		if snap.IsDegraded() {
			failed++
		}
	}

	duration := time.Since(started)
	c.logger.Info("capture batch complete",
		"devices", len(ids),
		"degraded", failed,
		"duration_ms", duration.Milliseconds(),
	)
	c.metrics.WriteSnapshotBatch("capture", len(ids), failed, duration)

	return results
}

// captureOne queries a single device and builds its snapshot.
// A transport failure degrades only this device's snapshot.
func (c *Capturer) captureOne(ctx context.Context, id string) *Snapshot {
	started := time.Now()

	state, err := c.ctrl.QueryState(ctx, id)
	duration := time.Since(started)
	c.metrics.WriteCommandResult(id, "query_state", err == nil, duration)

	if err != nil {
		c.logger.Warn("state query failed, storing degraded snapshot",
			"device_id", id,
			"error", err,
		)
		return Degraded(id, time.Now().UTC())
	}

	return New(id, state, time.Now().UTC())
}
