// Package store holds the persistence backends of the ledger: Postgres for
// deployments and an in-memory map for development and tests.
package store

import (
	"context"

	"hours-ledger/internal/model"
)

// Store is the persistence surface the record store and the hierarchy
// resolver run against. Both backends return model sentinel errors.
type Store interface {
	GetUser(ctx context.Context, id string) (*model.User, error)
	ListUsersByManager(ctx context.Context, managerID string) ([]model.User, error)
	ListUsersByRole(ctx context.Context, role model.Role) ([]model.User, error)
	GetProject(ctx context.Context, id string) (*model.Project, error)

	CreateEntry(ctx context.Context, e model.TimeEntry) (model.TimeEntry, error)
	GetEntry(ctx context.Context, id string) (model.TimeEntry, error)
	// UpdateEntry writes e if the stored version still equals e.Version and
	// returns the row with its version bumped.
	UpdateEntry(ctx context.Context, e model.TimeEntry) (model.TimeEntry, error)
	DeleteEntry(ctx context.Context, id string, version int) error
	ListEntries(ctx context.Context, ownerIDs []string, r model.DateRange) ([]model.TimeEntry, error)

	Ping(ctx context.Context) error
}

// Seeder upserts directory records.
type Seeder interface {
	PutUser(ctx context.Context, u model.User) error
	PutProject(ctx context.Context, p model.Project) error
}
