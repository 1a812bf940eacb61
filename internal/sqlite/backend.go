// Package sqlite implements the relational storage backend for the catalog.
// SQLite is the default engine; the same code drives PostgreSQL through a
// dialect switch selected by types.Config.Backend.
package sqlite

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/jmoiron/sqlx"

	"github.com/mesh-intelligence/moviedex/pkg/types"
)

// DatabaseFile is the SQLite database file created inside Config.DataDir.
const DatabaseFile = "moviedex.db"

// Compile-time interface check: Backend must implement types.Backend.
var _ types.Backend = (*Backend)(nil)

// Backend implements types.Backend over database/sql through sqlx.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sqlx.DB
	dialect  dialect
}

// NewBackend creates a new backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend() *Backend {
	return &Backend{}
}

// Attach opens the database described by config and creates the schema if
// it does not exist. Existing data is kept.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	d, err := dialectFor(config.Backend)
	if err != nil {
		return err
	}

	dsn, err := dataSourceName(config)
	if err != nil {
		return err
	}

	db, err := sqlx.Open(d.driver, dsn)
	if err != nil {
		return fmt.Errorf("opening %s database: %w", d.name, err)
	}
	if d.singleWriter {
		// One connection serializes writers and keeps the busy handler simple.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("connecting to %s database: %w", d.name, err)
	}

	for _, stmt := range d.schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return fmt.Errorf("creating schema: %w", err)
		}
	}

	b.db = db
	b.dialect = d
	b.config = config
	b.attached = true
	return nil
}

// Detach closes the database. After Detach, all operations return
// ErrDetached. Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	if err := b.db.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	b.db = nil
	b.attached = false
	return nil
}

// Ping checks that the database is reachable.
func (b *Backend) Ping(ctx context.Context) error {
	db, err := b.handle()
	if err != nil {
		return err
	}
	return db.PingContext(ctx)
}

// handle returns the open database or ErrDetached.
func (b *Backend) handle() (*sqlx.DB, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrDetached
	}
	return b.db, nil
}

// dataSourceName builds the driver DSN. For SQLite it creates DataDir and
// points at DatabaseFile inside it.
func dataSourceName(config types.Config) (string, error) {
	if config.Backend == types.BackendPostgres {
		return config.DSN, nil
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", fmt.Errorf("creating data dir: %w", err)
	}

	q := url.Values{}
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "journal_mode(WAL)")
	return "file:" + filepath.Join(dataDir, DatabaseFile) + "?" + q.Encode(), nil
}
