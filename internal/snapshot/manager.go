package snapshot

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event topics published after each batch completes.
const (
	topicCaptureEvent = "glowstate/event/capture"
	topicRestoreEvent = "glowstate/event/restore"
)

// batchEvent is the JSON payload published after a capture or restore
// batch finishes.
type batchEvent struct {
	BatchID   string   `json:"batch_id"`
	Kind      string   `json:"kind"`
	Devices   int      `json:"devices"`
	Failed    []string `json:"failed,omitempty"`
	Strict    bool     `json:"strict,omitempty"`
	Timestamp string   `json:"timestamp"`
}

// Manager is the public surface of the snapshot engine. It owns the
// store and coordinates the capture and restore orchestrators over it.
//
// Thread Safety: all methods are safe for concurrent use. Interleaved
// Save and Restore calls over the same devices are serialised only at
// the store level; callers wanting a consistent fleet-wide view should
// not overlap batches for the same ids.
type Manager struct {
	store    *Store
	capturer *Capturer
	restorer *Restorer
	strict   bool
	logger   Logger
	events   EventPublisher
}

// NewManager creates a snapshot manager driving devices through ctrl.
func NewManager(ctrl Controller) *Manager {
	store := NewStore()
	return &Manager{
		store:    store,
		capturer: NewCapturer(ctrl, store),
		restorer: NewRestorer(ctrl, store),
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the manager and both orchestrators.
func (m *Manager) SetLogger(logger Logger) {
	m.logger = logger
	m.capturer.SetLogger(logger)
	m.restorer.SetLogger(logger)
}

// SetWorkers sets the worker ceiling for both orchestrators.
func (m *Manager) SetWorkers(n int) {
	m.capturer.SetWorkers(n)
	m.restorer.SetWorkers(n)
}

// SetSettleDelays overrides the restore settling delays.
func (m *Manager) SetSettleDelays(powerOn, color time.Duration) {
	m.restorer.SetSettleDelays(powerOn, color)
}

// SetStrict switches restore to strict mode: after a batch finishes,
// any device failure raises ErrRestoreFailed instead of being recorded
// silently in the result map.
func (m *Manager) SetStrict(strict bool) {
	m.strict = strict
}

// SetRecorder sets the telemetry recorder for both orchestrators.
func (m *Manager) SetRecorder(rec Recorder) {
	m.capturer.SetRecorder(rec)
	m.restorer.SetRecorder(rec)
}

// SetEventPublisher enables batch completion events. Pass nil to
// disable. Publish failures are logged, never raised.
func (m *Manager) SetEventPublisher(pub EventPublisher) {
	m.events = pub
}

// Save captures the current state of the given devices and holds the
// snapshots, overwriting any previously held snapshot per device. A
// device whose state cannot be queried yields a degraded snapshot; the
// batch always completes.
func (m *Manager) Save(ctx context.Context, ids []string) map[string]*Snapshot {
	snaps := m.capturer.Save(ctx, ids)

	var failed []string
	for id, snap := range snaps {
		if snap.IsDegraded() {
			failed = append(failed, id)
		}
	}
	m.publishEvent(topicCaptureEvent, "capture", len(snaps), failed, false)
	return snaps
}

// Restore replays held snapshots back to their devices. When ids is
// empty every held snapshot is restored. The result map holds an entry
// for every attempted device; in strict mode ErrRestoreFailed is also
// returned once the whole batch has finished if any device failed.
func (m *Manager) Restore(ctx context.Context, ids []string) (map[string]bool, error) {
	results, err := m.restorer.Restore(ctx, ids, !m.strict)

	var failed []string
	for id, ok := range results {
		if !ok {
			failed = append(failed, id)
		}
	}
	m.publishEvent(topicRestoreEvent, "restore", len(results), failed, m.strict)
	return results, err
}

// Get returns a copy of the held snapshot for a device, or
// ErrSnapshotNotFound when none is held.
func (m *Manager) Get(deviceID string) (*Snapshot, error) {
	snap, ok := m.store.Get(deviceID)
	if !ok {
		return nil, ErrSnapshotNotFound
	}
	return snap, nil
}

// Clear discards held snapshots. With no ids every snapshot is
// dropped; with ids only those devices' snapshots are dropped. Returns
// the number of snapshots removed. Clearing ids with no held snapshot
// is a no-op, not an error.
func (m *Manager) Clear(ids ...string) int {
	if len(ids) == 0 {
		n := m.store.Clear()
		m.logger.Info("snapshots cleared", "removed", n)
		return n
	}

	removed := 0
	for _, id := range ids {
		if m.store.Remove(id) {
			removed++
		}
	}
	m.logger.Info("snapshots cleared", "removed", removed)
	return removed
}

// DeviceIDs returns the ids of all devices with a held snapshot.
func (m *Manager) DeviceIDs() []string {
	return m.store.DeviceIDs()
}

// publishEvent emits a batch completion event when a publisher is set.
func (m *Manager) publishEvent(topic, kind string, devices int, failed []string, strict bool) {
	if m.events == nil {
		return
	}

	evt := batchEvent{
		BatchID:   uuid.NewString(),
		Kind:      kind,
		Devices:   devices,
		Failed:    failed,
		Strict:    strict,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		m.logger.Warn("marshalling batch event failed", "error", err)
		return
	}
	if err := m.events.Publish(topic, payload, 1, false); err != nil {
		m.logger.Warn("publishing batch event failed", "topic", topic, "error", err)
	}
}
