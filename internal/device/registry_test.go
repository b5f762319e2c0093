package device

import (
	"context"
	"errors"
	"sync"
	"testing"
)

// mockRepository is an in-memory Repository for registry tests.
type mockRepository struct {
	mu      sync.Mutex
	devices map[string]*Device
	listErr error
}

func newMockRepository() *mockRepository {
	return &mockRepository{devices: make(map[string]*Device)}
}

func (m *mockRepository) GetByID(_ context.Context, id string) (*Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.devices[id]
	if !ok {
		return nil, ErrDeviceNotFound
	}
	return d.Clone(), nil
}

func (m *mockRepository) List(_ context.Context) ([]Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	devices := make([]Device, 0, len(m.devices))
	for _, d := range m.devices {
		devices = append(devices, *d.Clone())
	}
	return devices, nil
}

func (m *mockRepository) Upsert(_ context.Context, device *Device) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.devices[device.ID] = device.Clone()
	return nil
}

func (m *mockRepository) UpdateAddr(_ context.Context, id string, addr *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.devices[id]
	if !ok {
		return ErrDeviceNotFound
	}
	d.Addr = addr
	return nil
}

func (m *mockRepository) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.devices[id]; !ok {
		return ErrDeviceNotFound
	}
	delete(m.devices, id)
	return nil
}

func TestRegistry_GetDevice_CacheHit(t *testing.T) {
	repo := newMockRepository()
	repo.devices["dev-1"] = testDevice("dev-1", "Strip")

	registry := NewRegistry(repo)
	ctx := context.Background()

	if err := registry.RefreshCache(ctx); err != nil {
		t.Fatalf("RefreshCache: %v", err)
	}

	// Break the repository; cached lookups must still work
	repo.listErr = errors.New("repository down")
	repo.mu.Lock()
	delete(repo.devices, "dev-1")
	repo.mu.Unlock()

	got, err := registry.GetDevice(ctx, "dev-1")
	if err != nil {
		t.Fatalf("GetDevice: %v", err)
	}
	if got.Name != "Strip" {
		t.Errorf("Name = %q, want %q", got.Name, "Strip")
	}
}

func TestRegistry_GetDevice_CacheMissFallsBack(t *testing.T) {
	repo := newMockRepository()
	registry := NewRegistry(repo)
	ctx := context.Background()

	repo.devices["dev-2"] = testDevice("dev-2", "Lamp")

	got, err := registry.GetDevice(ctx, "dev-2")
	if err != nil {
		t.Fatalf("GetDevice: %v", err)
	}
	if got.ID != "dev-2" {
		t.Errorf("ID = %q, want %q", got.ID, "dev-2")
	}
}

func TestRegistry_GetDevice_NotFound(t *testing.T) {
	registry := NewRegistry(newMockRepository())

	_, err := registry.GetDevice(context.Background(), "missing")
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("expected ErrDeviceNotFound, got: %v", err)
	}
}

func TestRegistry_GetDevice_ReturnsCopy(t *testing.T) {
	repo := newMockRepository()
	repo.devices["dev-1"] = testDevice("dev-1", "Strip")

	registry := NewRegistry(repo)
	ctx := context.Background()
	_ = registry.RefreshCache(ctx)

	first, _ := registry.GetDevice(ctx, "dev-1")
	first.Name = "Mutated"

	second, _ := registry.GetDevice(ctx, "dev-1")
	if second.Name != "Strip" {
		t.Errorf("cache was mutated through returned copy: Name = %q", second.Name)
	}
}

func TestRegistry_SyncDevices(t *testing.T) {
	repo := newMockRepository()
	registry := NewRegistry(repo)
	ctx := context.Background()

	devices := []Device{
		*testDevice("dev-1", "Strip"),
		*testDevice("dev-2", "Lamp"),
	}
	if err := registry.SyncDevices(ctx, devices); err != nil {
		t.Fatalf("SyncDevices: %v", err)
	}

	ids := registry.DeviceIDs()
	if len(ids) != 2 {
		t.Errorf("DeviceIDs = %v, want 2 entries", ids)
	}
}

func TestRegistry_SetDeviceAddr(t *testing.T) {
	repo := newMockRepository()
	repo.devices["dev-1"] = testDevice("dev-1", "Strip")

	registry := NewRegistry(repo)
	ctx := context.Background()
	_ = registry.RefreshCache(ctx)

	addr := "192.168.1.99"
	if err := registry.SetDeviceAddr(ctx, "dev-1", &addr); err != nil {
		t.Fatalf("SetDeviceAddr: %v", err)
	}

	got, _ := registry.GetDevice(ctx, "dev-1")
	if got.Addr == nil || *got.Addr != addr {
		t.Errorf("Addr = %v, want %q", got.Addr, addr)
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	repo := newMockRepository()
	repo.devices["dev-1"] = testDevice("dev-1", "Strip")

	registry := NewRegistry(repo)
	ctx := context.Background()
	_ = registry.RefreshCache(ctx)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = registry.GetDevice(ctx, "dev-1")
			_ = registry.DeviceIDs()
		}()
	}
	wg.Wait()
}
