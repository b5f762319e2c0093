package snapshot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aurorelabs/glowstate/internal/device"
)

// Default settling delays between dependent commands to one device.
const (
	// DefaultPowerOnSettle is the pause after power-on. A device is not
	// guaranteed ready to accept further commands immediately after it
	// powers up.
	DefaultPowerOnSettle = 500 * time.Millisecond

	// DefaultColorSettle is the pause after the color (or color
	// temperature) command, so the mode-cancelling command is processed
	// before the dependent brightness command arrives.
	DefaultColorSettle = 300 * time.Millisecond
)

// phase is a step in the per-device restore sequence.
//
// The sequence is INIT → POWERING → {DONE | SET_COLOR → SET_BRIGHTNESS
// → DONE} | FAILED. Within one device the steps are strictly
// sequential; parallelism exists only across devices.
type phase int

// Restore sequence phases.
const (
	phaseInit phase = iota
	phasePowering
	phaseSetColor
	phaseSetBrightness
	phaseDone
	phaseFailed
)

// String returns the phase name for logging.
func (p phase) String() string {
	switch p {
	case phaseInit:
		return "init"
	case phasePowering:
		return "powering"
	case phaseSetColor:
		return "set_color"
	case phaseSetBrightness:
		return "set_brightness"
	case phaseDone:
		return "done"
	case phaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Restorer fans out per-device restore sequences across a batch,
// bounded by the worker ceiling, and aggregates a per-device success
// map. One device's failure never affects another device's sequence.
//
// Thread Safety: Restore is safe for concurrent use.
type Restorer struct {
	ctrl          Controller
	store         *Store
	workers       int
	powerOnSettle time.Duration
	colorSettle   time.Duration
	logger        Logger
	metrics       Recorder
}

// NewRestorer creates a restore orchestrator reading from store.
func NewRestorer(ctrl Controller, store *Store) *Restorer {
	return &Restorer{
		ctrl:          ctrl,
		store:         store,
		workers:       DefaultWorkers,
		powerOnSettle: DefaultPowerOnSettle,
		colorSettle:   DefaultColorSettle,
		logger:        noopLogger{},
		metrics:       noopRecorder{},
	}
}

// SetLogger sets the logger for the restorer.
func (r *Restorer) SetLogger(logger Logger) {
	r.logger = logger
}

// SetWorkers sets the worker ceiling. Values below 1 are ignored.
func (r *Restorer) SetWorkers(n int) {
	if n >= 1 {
		r.workers = n
	}
}

// SetSettleDelays overrides the settling delays.
// Negative values are ignored.
func (r *Restorer) SetSettleDelays(powerOn, color time.Duration) {
	if powerOn >= 0 {
		r.powerOnSettle = powerOn
	}
	if color >= 0 {
		r.colorSettle = color
	}
}

// SetRecorder sets the telemetry recorder for the restorer.
func (r *Restorer) SetRecorder(rec Recorder) {
	if rec != nil {
		r.metrics = rec
	}
}

// Restore replays held snapshots back to their devices.
//
// When ids is empty, every device currently in the store is restored.
// Sequences run up to the worker ceiling in parallel; within one device
// the command order is strict and interleaved with settling delays.
//
// With skipOnError true (the default policy), a device's sequence
// failure is recorded as false in the result map and never raised.
// With skipOnError false (strict), every sequence still runs to
// completion independently, and ErrRestoreFailed is returned once the
// whole batch has finished if any device failed.
//
// The result map, not the error, is the primary channel for partial
// success: it holds an entry for every attempted device.
func (r *Restorer) Restore(ctx context.Context, ids []string, skipOnError bool) (map[string]bool, error) {
	if len(ids) == 0 {
		ids = r.store.DeviceIDs()
	}

	started := time.Now()
	results := make(map[string]bool, len(ids))
	var mu sync.Mutex

	// A plain group, not WithContext: strict mode still lets every
	// in-flight sequence finish rather than cancelling siblings.
	var g errgroup.Group
	g.SetLimit(r.workers)

	for _, id := range ids {
		id := id
		g.Go(func() error {
			ok := r.restoreOne(ctx, id)
			mu.Lock()
			results[id] = ok
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // sequence failures are carried in the result map

	failed := 0
	for _, ok := range results {
		if !ok {
			failed++
		}
	}

	duration := time.Since(started)
	r.logger.Info("restore batch complete",
		"devices", len(ids),
		"failed", failed,
		"strict", !skipOnError,
		"duration_ms", duration.Milliseconds(),
	)
	r.metrics.WriteSnapshotBatch("restore", len(ids), failed, duration)

	if !skipOnError && failed > 0 {
		return results, fmt.Errorf("%w: %d of %d devices", ErrRestoreFailed, failed, len(ids))
	}
	return results, nil
}

// restoreOne looks up and replays a single device's snapshot.
func (r *Restorer) restoreOne(ctx context.Context, id string) bool {
	snap, ok := r.store.Get(id)
	if !ok {
		r.logger.Warn("no snapshot held for device", "device_id", id)
		return false
	}

	if err := r.runSequence(ctx, snap); err != nil {
		r.logger.Warn("restore sequence failed",
			"device_id", id,
			"error", err,
		)
		return false
	}
	return true
}

// runSequence executes the per-device restore state machine.
//
// Order matters: the color (or color temperature) command implicitly
// cancels any autonomous reactive mode the device may be running.
// Issuing brightness first would leave that mode in control and the
// override would race against it. This mode-cancel behaviour is a
// device-firmware contract this engine assumes but cannot verify.
//
// Any command failure fails the device and skips its remaining steps:
// after a failed power-on the device may not be on at all, so sending
// color or brightness would be meaningless. The settling delays
// suspend only this device's goroutine; sibling sequences keep making
// progress.
func (r *Restorer) runSequence(ctx context.Context, snap *Snapshot) error {
	st := phaseInit
	id := snap.DeviceID

	// Power step.
	switch snap.Power {
	case device.PowerOff:
		// Fire-and-forget power-off: a device restored to off gets no
		// further commands.
		st = phasePowering
		if err := r.command(ctx, id, "set_power", func() error {
			return r.ctrl.SetPower(ctx, id, false)
		}); err != nil {
			return r.fail(id, st, err)
		}
		st = phaseDone
		r.logger.Debug("restore complete", "device_id", id, "phase", st.String())
		return nil

	case device.PowerOn:
		st = phasePowering
		if err := r.command(ctx, id, "set_power", func() error {
			return r.ctrl.SetPower(ctx, id, true)
		}); err != nil {
			return r.fail(id, st, err)
		}
		if err := r.settle(ctx, r.powerOnSettle); err != nil {
			return r.fail(id, st, err)
		}

	default:
		// Power unknown: degraded snapshots restore as no-ops, and a
		// snapshot with saved color/brightness but unknown power skips
		// only the power command.
	}

	// Color step, before brightness, never the reverse.
	switch {
	case snap.Color != nil:
		st = phaseSetColor
		if err := r.command(ctx, id, "set_color", func() error {
			return r.ctrl.SetColor(ctx, id, *snap.Color)
		}); err != nil {
			return r.fail(id, st, err)
		}
		if err := r.settle(ctx, r.colorSettle); err != nil {
			return r.fail(id, st, err)
		}

	case snap.ColorTempK != nil:
		st = phaseSetColor
		if err := r.command(ctx, id, "set_color_temperature", func() error {
			return r.ctrl.SetColorTemperature(ctx, id, *snap.ColorTempK)
		}); err != nil {
			return r.fail(id, st, err)
		}
		if err := r.settle(ctx, r.colorSettle); err != nil {
			return r.fail(id, st, err)
		}
	}

	// Brightness is the terminal step.
	if snap.Brightness != nil {
		st = phaseSetBrightness
		if err := r.command(ctx, id, "set_brightness", func() error {
			return r.ctrl.SetBrightness(ctx, id, *snap.Brightness)
		}); err != nil {
			return r.fail(id, st, err)
		}
	}

	st = phaseDone
	r.logger.Debug("restore complete", "device_id", id, "phase", st.String())
	return nil
}

// command runs one transport call and records its telemetry.
func (r *Restorer) command(_ context.Context, id, operation string, call func() error) error {
	started := time.Now()
	err := call()
	r.metrics.WriteCommandResult(id, operation, err == nil, time.Since(started))
	return err
}

// settle suspends this device's sequence for the given duration.
// Only this goroutine waits; sibling devices keep running.
func (r *Restorer) settle(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("settling interrupted: %w", ctx.Err())
	}
}

// fail wraps a step failure with its phase for the caller's log line.
func (r *Restorer) fail(id string, st phase, err error) error {
	return fmt.Errorf("device %q phase %s: %w", id, st, err)
}
