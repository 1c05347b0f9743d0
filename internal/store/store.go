// Package store persists session snapshots for the trading engine.
// The engine itself performs no I/O; the session layer saves its
// serializable snapshot here after every mutating call and restores it on
// demand. Implementations: PostgreSQL (source of truth), Redis, and
// in-memory (for testing).
package store

import (
	"context"
	"errors"

	"github.com/coinsim/trade-engine/internal/model"
)

// ErrNotFound is returned when no snapshot exists for a session ID.
var ErrNotFound = errors.New("store: session not found")

// SessionStore persists engine snapshots keyed by session ID.
type SessionStore interface {
	// Save upserts the snapshot for a session.
	Save(ctx context.Context, id string, snap model.Snapshot) error

	// Load returns the stored snapshot, or ErrNotFound.
	Load(ctx context.Context, id string) (model.Snapshot, error)

	// Delete removes a session's snapshot. Deleting a missing session
	// is not an error.
	Delete(ctx context.Context, id string) error

	// List returns the IDs of all stored sessions.
	List(ctx context.Context) ([]string, error)
}
