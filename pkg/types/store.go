package types

import (
	"context"
	"errors"
)

// Store persists catalog items. Every mutating call runs in a single
// transaction: either the whole change is committed or none of it is.
type Store interface {
	// Insert assigns a new ID to item, persists it, and returns the ID.
	Insert(ctx context.Context, item *Item) (int64, error)

	// Get returns the item with the given ID, or a NotFoundError.
	Get(ctx context.Context, id int64) (*Item, error)

	// Update loads the item, applies mutate, and writes the result back in
	// the same transaction. ID and Kind changes made by mutate are ignored.
	// If mutate returns an error nothing is written and that error is
	// returned unchanged.
	Update(ctx context.Context, id int64, mutate func(*Item) error) (*Item, error)

	// Delete removes the item with the given ID, or returns a NotFoundError.
	Delete(ctx context.Context, id int64) error

	// Fetch returns items matching filter in ascending ID order.
	// The result is empty, not nil, when nothing matches.
	Fetch(ctx context.Context, filter Filter) ([]*Item, error)

	// Clear removes every item and returns how many were removed.
	Clear(ctx context.Context) (int64, error)

	// CountByYear returns the number of items per release year, ascending.
	CountByYear(ctx context.Context) ([]YearCount, error)

	// Ping checks that the underlying database is reachable.
	Ping(ctx context.Context) error
}

// YearCount is one bucket of CountByYear.
type YearCount struct {
	ReleaseYear int `json:"releaseYear"`
	Count       int `json:"count"`
}

// Backend is a Store with an attach/detach lifecycle.
type Backend interface {
	Store

	// Attach opens the database described by config and prepares the
	// schema. Returns ErrAlreadyAttached if called twice.
	Attach(config Config) error

	// Detach closes the database. Idempotent. Afterwards every Store call
	// returns ErrDetached.
	Detach() error
}

// Backend lifecycle errors.
var (
	ErrDetached        = errors.New("backend is detached")
	ErrAlreadyAttached = errors.New("backend is already attached")
)
