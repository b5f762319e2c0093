package device

import (
	"context"
	"fmt"
	"sync"
)

// Logger defines the logging interface used by the Registry.
// This allows different logging implementations to be used.
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

// Registry provides device catalogue access with caching and thread safety.
// It wraps a Repository and adds an in-memory cache for fast lookups.
//
// The cache is populated on startup via RefreshCache() and kept in sync
// by cache-invalidating operations.
//
// All public methods are thread-safe.
type Registry struct {
	repo    Repository
	cache   map[string]*Device // Cached devices by ID
	cacheMu sync.RWMutex       // Protects cache
	logger  Logger
}

// NewRegistry creates a new device registry.
// The repository is used for persistence; the registry adds caching.
func NewRegistry(repo Repository) *Registry {
	return &Registry{
		repo:   repo,
		cache:  make(map[string]*Device),
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// RefreshCache reloads all devices from the repository into the cache.
// This should be called on application startup and after a catalogue sync.
func (r *Registry) RefreshCache(ctx context.Context) error {
	devices, err := r.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("loading devices: %w", err)
	}

	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()

	// Clear and rebuild cache with independent copies
	r.cache = make(map[string]*Device, len(devices))
	for i := range devices {
		d := devices[i]
		r.cache[d.ID] = d.Clone()
	}

	r.logger.Info("device cache refreshed", "count", len(devices))
	return nil
}

// GetDevice retrieves a device by ID.
// Returns ErrDeviceNotFound if the device does not exist.
// The returned device is a copy; callers can safely modify it.
func (r *Registry) GetDevice(ctx context.Context, id string) (*Device, error) {
	// Try cache first
	r.cacheMu.RLock()
	cached, ok := r.cache[id]
	r.cacheMu.RUnlock()

	if ok {
		// Return a copy to prevent external mutation of cache
		return cached.Clone(), nil
	}

	// Fall back to repository (might be a new device not yet cached)
	dev, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Cache for future lookups (store a copy)
	r.cacheMu.Lock()
	r.cache[id] = dev.Clone()
	r.cacheMu.Unlock()

	return dev, nil
}

// ListDevices retrieves all devices.
// The returned devices are copies; callers can safely modify them.
func (r *Registry) ListDevices(ctx context.Context) ([]Device, error) {
	r.cacheMu.RLock()
	if len(r.cache) > 0 {
		devices := make([]Device, 0, len(r.cache))
		for _, d := range r.cache {
			devices = append(devices, *d.Clone())
		}
		r.cacheMu.RUnlock()
		return devices, nil
	}
	r.cacheMu.RUnlock()

	// Cache empty: load from repository
	return r.repo.List(ctx)
}

// DeviceIDs returns the IDs of all cached devices.
func (r *Registry) DeviceIDs() []string {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()

	ids := make([]string, 0, len(r.cache))
	for id := range r.cache {
		ids = append(ids, id)
	}
	return ids
}

// SyncDevices replaces catalogue rows with the given devices (typically
// the cloud device list) and refreshes the cache.
//
// Devices that already exist are overwritten wholesale; devices absent
// from the given list are left untouched, so a flaky cloud listing does
// not erase known devices.
func (r *Registry) SyncDevices(ctx context.Context, devices []Device) error {
	for i := range devices {
		d := devices[i]
		if err := r.repo.Upsert(ctx, &d); err != nil {
			return fmt.Errorf("syncing device %q: %w", d.ID, err)
		}
	}

	r.logger.Info("device catalogue synced", "count", len(devices))
	return r.RefreshCache(ctx)
}

// SetDeviceAddr records the LAN address for a device after discovery.
// Pass nil to clear a stale address.
func (r *Registry) SetDeviceAddr(ctx context.Context, id string, addr *string) error {
	if err := r.repo.UpdateAddr(ctx, id, addr); err != nil {
		return err
	}

	r.cacheMu.Lock()
	if cached, ok := r.cache[id]; ok {
		if addr != nil {
			a := *addr
			cached.Addr = &a
		} else {
			cached.Addr = nil
		}
	}
	r.cacheMu.Unlock()

	return nil
}
