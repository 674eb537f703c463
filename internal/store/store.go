// Package store provides the persistence layer for profiles and chat logs.
// Two backends implement the same Store interface: a hosted Firestore
// backend and an embedded SQLite backend for local deployments.
package store

import (
	"context"
	"errors"
)

// ErrProfileNotFound is returned by GetProfile when no profile document
// exists for the requested id.
var ErrProfileNotFound = errors.New("profile not found")

// Store defines the persistence operations used by the HTTP handlers.
// Methods accept context.Context for cancellation.
//
// GetHistory returns an empty slice (not an error) when no chat log exists
// yet for the profile id; the first turn creates it.
type Store interface {
	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error

	// SaveProfile overwrites the profile stored under profileID.
	SaveProfile(ctx context.Context, profileID string, profile *Profile) error

	// GetProfile retrieves a profile by id. Returns ErrProfileNotFound if absent.
	GetProfile(ctx context.Context, profileID string) (*Profile, error)

	// ListProfiles returns the id and display name of every stored profile.
	ListProfiles(ctx context.Context) ([]ProfileSummary, error)

	// AppendTurn atomically appends one turn to the profile's chat log,
	// creating the log if it does not exist.
	AppendTurn(ctx context.Context, profileID string, turn Turn) error

	// GetHistory returns the full ordered turn list for a profile id.
	GetHistory(ctx context.Context, profileID string) ([]Turn, error)

	// RunMaintenance performs backend maintenance (VACUUM for SQLite).
	// A no-op for backends that need none.
	RunMaintenance(ctx context.Context) error

	// Close releases the underlying client or connection pool.
	Close() error
}
