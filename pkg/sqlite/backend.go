// Package sqlite provides the public factory for the catalog storage
// backend while keeping implementation details internal.
package sqlite

import (
	"github.com/mesh-intelligence/moviedex/internal/sqlite"
	"github.com/mesh-intelligence/moviedex/pkg/types"
)

// NewBackend creates a new storage backend. The engine (SQLite or
// PostgreSQL) is chosen by the Config passed to Attach.
//
// Example:
//
//	backend := sqlite.NewBackend()
//	err := backend.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: "~/.local/share/moviedex",
//	})
//	defer backend.Detach()
func NewBackend() types.Backend {
	return sqlite.NewBackend()
}
