// Package device provides the device catalogue for glowstate.
//
// The catalogue is the list of known lights in the fleet: identity,
// model, capabilities, and an optional LAN address. Rows originate from
// the cloud device list and are persisted in SQLite so LAN-only
// operation works without cloud access.
//
// # Architecture
//
//	┌─────────────────────────────────────────────────────────────┐
//	│                     Device Catalogue                         │
//	│                                                              │
//	│  ┌──────────────────┐        ┌──────────────────┐           │
//	│  │     Registry     │        │    Repository    │           │
//	│  │   (registry.go)  │───────▶│  (repository.go) │           │
//	│  │                  │        │                  │           │
//	│  │ • Cached lookups │        │ • SQLite queries │           │
//	│  │ • Catalogue sync │        │ • JSON marshal   │           │
//	│  │ • Thread safety  │        │ • Upsert rows    │           │
//	│  └──────────────────┘        └──────────────────┘           │
//	└─────────────────────────────────────────────────────────────┘
//
// # Key Types
//
//   - Device: one light in the fleet (ID, SKU, name, LAN address, capabilities)
//   - PowerState: tri-state power value (on, off, unknown)
//   - Color: RGB triple with packed-integer encode/decode
//   - State: a transport-level state query result
//
// # Usage
//
//	repo := device.NewSQLiteRepository(db.DB)
//	registry := device.NewRegistry(repo)
//	registry.SetLogger(log)
//
//	if err := registry.RefreshCache(ctx); err != nil {
//	    return err
//	}
//
//	dev, err := registry.GetDevice(ctx, "14:7A:60:74:F4:07:47:2D")
//
// # Thread Safety
//
// The Registry is safe for concurrent use. All operations are protected
// by a read-write mutex. The Repository implementation must also be
// thread-safe.
package device
