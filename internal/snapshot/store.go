package snapshot

import "sync"

// Store holds at most one Snapshot per device ID for the lifetime of
// the process. Snapshots are never persisted to durable storage.
//
// The store is deliberately not a package-level global: it is
// constructed alongside its owning client and passed by reference into
// the capture and restore orchestrators.
//
// A single coarse lock guards all mutation. The orchestrators never
// have two workers writing the same key, so the lock is for simplicity
// rather than correctness.
type Store struct {
	mu        sync.RWMutex
	snapshots map[string]*Snapshot
}

// NewStore creates an empty snapshot store.
func NewStore() *Store {
	return &Store{
		snapshots: make(map[string]*Snapshot),
	}
}

// Put saves a snapshot, fully overwriting any existing entry for the
// same device. There is no field-level merge.
func (s *Store) Put(snap *Snapshot) {
	if snap == nil || snap.DeviceID == "" {
		return
	}

	s.mu.Lock()
	s.snapshots[snap.DeviceID] = snap.Clone()
	s.mu.Unlock()
}

// Get retrieves the snapshot for a device without mutating the entry.
// The returned snapshot is a copy; callers can safely modify it.
func (s *Store) Get(id string) (*Snapshot, bool) {
	s.mu.RLock()
	snap, ok := s.snapshots[id]
	s.mu.RUnlock()

	if !ok {
		return nil, false
	}
	return snap.Clone(), true
}

// Exists reports whether a snapshot is held for the device.
func (s *Store) Exists(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.snapshots[id]
	return ok
}

// Remove deletes the snapshot for a device.
// It reports whether an entry was removed.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.snapshots[id]; !ok {
		return false
	}
	delete(s.snapshots, id)
	return true
}

// Clear removes every snapshot and returns how many were held.
func (s *Store) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.snapshots)
	s.snapshots = make(map[string]*Snapshot)
	return n
}

// DeviceIDs returns the IDs of all devices with a held snapshot.
func (s *Store) DeviceIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.snapshots))
	for id := range s.snapshots {
		ids = append(ids, id)
	}
	return ids
}

// Len returns the number of held snapshots.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.snapshots)
}
