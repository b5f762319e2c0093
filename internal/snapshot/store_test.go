package snapshot

import (
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/aurorelabs/glowstate/internal/device"
)

// ─── Put / Get ───

func TestStorePutGet(t *testing.T) {
	store := NewStore()
	snap := &Snapshot{DeviceID: "dev-1", Power: device.PowerOn, CapturedAt: time.Now()}

	store.Put(snap)

	got, ok := store.Get("dev-1")
	if !ok {
		t.Fatal("Get() ok = false, want true")
	}
	if got.Power != device.PowerOn {
		t.Errorf("Power = %q, want %q", got.Power, device.PowerOn)
	}
}

func TestStorePutOverwrites(t *testing.T) {
	store := NewStore()
	store.Put(&Snapshot{DeviceID: "dev-1", Power: device.PowerOn, Brightness: intPtr(80)})
	store.Put(&Snapshot{DeviceID: "dev-1", Power: device.PowerOff})

	got, _ := store.Get("dev-1")
	if got.Power != device.PowerOff {
		t.Errorf("Power = %q after overwrite, want %q", got.Power, device.PowerOff)
	}
	if got.Brightness != nil {
		t.Error("Brightness survived overwrite, want full replacement")
	}
	if store.Len() != 1 {
		t.Errorf("Len() = %d, want 1", store.Len())
	}
}

func TestStorePutIgnoresInvalid(t *testing.T) {
	store := NewStore()
	store.Put(nil)
	store.Put(&Snapshot{})

	if store.Len() != 0 {
		t.Errorf("Len() = %d after invalid puts, want 0", store.Len())
	}
}

func TestStoreGetReturnsCopy(t *testing.T) {
	store := NewStore()
	store.Put(&Snapshot{DeviceID: "dev-1", Power: device.PowerOn, Brightness: intPtr(50)})

	got, _ := store.Get("dev-1")
	*got.Brightness = 1

	again, _ := store.Get("dev-1")
	if *again.Brightness != 50 {
		t.Errorf("stored Brightness = %d after caller mutation, want 50", *again.Brightness)
	}
}

func TestStoreGetMissing(t *testing.T) {
	store := NewStore()
	if _, ok := store.Get("nope"); ok {
		t.Error("Get() ok = true for missing device, want false")
	}
}

// ─── Remove / Clear ───

func TestStoreRemove(t *testing.T) {
	store := NewStore()
	store.Put(&Snapshot{DeviceID: "dev-1", Power: device.PowerOff})

	if !store.Remove("dev-1") {
		t.Error("Remove() = false, want true")
	}
	if store.Remove("dev-1") {
		t.Error("second Remove() = true, want false")
	}
	if store.Exists("dev-1") {
		t.Error("Exists() = true after remove, want false")
	}
}

func TestStoreClear(t *testing.T) {
	store := NewStore()
	store.Put(&Snapshot{DeviceID: "dev-1", Power: device.PowerOn})
	store.Put(&Snapshot{DeviceID: "dev-2", Power: device.PowerOff})

	if n := store.Clear(); n != 2 {
		t.Errorf("Clear() = %d, want 2", n)
	}
	if store.Len() != 0 {
		t.Errorf("Len() = %d after clear, want 0", store.Len())
	}
	if n := store.Clear(); n != 0 {
		t.Errorf("Clear() of empty store = %d, want 0", n)
	}
}

func TestStoreDeviceIDs(t *testing.T) {
	store := NewStore()
	store.Put(&Snapshot{DeviceID: "b", Power: device.PowerOn})
	store.Put(&Snapshot{DeviceID: "a", Power: device.PowerOn})

	ids := store.DeviceIDs()
	sort.Strings(ids)
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Errorf("DeviceIDs() = %v, want [a b]", ids)
	}
}

// ─── Concurrency ───

func TestStoreConcurrentAccess(t *testing.T) {
	store := NewStore()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		id := string(rune('a' + i))
		go func() {
			defer wg.Done()
			store.Put(&Snapshot{DeviceID: id, Power: device.PowerOn})
		}()
		go func() {
			defer wg.Done()
			store.Get(id)
			store.Len()
		}()
	}
	wg.Wait()

	if store.Len() != 20 {
		t.Errorf("Len() = %d after concurrent puts, want 20", store.Len())
	}
}
