package snapshot

import "errors"

// Domain errors for the snapshot package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, snapshot.ErrRestoreFailed) {
//	    // at least one device failed in a strict-mode batch
//	}
var (
	// ErrSnapshotNotFound is returned when a device has no held snapshot.
	ErrSnapshotNotFound = errors.New("snapshot: not found")

	// ErrRestoreFailed is returned from a strict-mode restore after
	// every device sequence has finished, when at least one failed.
	ErrRestoreFailed = errors.New("snapshot: restore failed")
)
