// Package transport implements the dual-path device transport: a
// vendor cloud HTTPS API as the universally available slow path and a
// direct LAN UDP JSON protocol as the fast path for devices with a
// known local address.
//
// # Architecture
//
//	┌──────────────────────────────────────────────┐
//	│                    Client                    │
//	│   resolve device → LAN if addressable,       │
//	│   cloud fallback within the same call        │
//	└──────────┬─────────────────────┬─────────────┘
//	           │                     │
//	┌──────────▼──────────┐ ┌────────▼────────────┐
//	│      LANClient      │ │     CloudClient     │
//	│  UDP JSON :4003     │ │  HTTPS REST API     │
//	│  replies on :4002   │ │  API-key header     │
//	│  multicast scan     │ │  rate limited       │
//	└─────────────────────┘ └─────────────────────┘
//
// All network timeouts live in this package. Set commands over the LAN
// are fire-and-forget, matching the device protocol; cloud commands are
// acknowledged HTTP round trips.
//
// # Thread Safety
//
// All exported types are safe for concurrent use. The LAN client
// serialises request/reply exchanges on its shared socket.
package transport
