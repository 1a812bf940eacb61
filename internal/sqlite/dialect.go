package sqlite

import (
	"database/sql/driver"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"golang.org/x/text/cases"
	msqlite "modernc.org/sqlite"

	"github.com/mesh-intelligence/moviedex/pkg/types"
)

const (
	sqliteDriver   = "sqlite"
	postgresDriver = "postgres"
)

// foldFunc is the SQLite scalar that case-folds text with full Unicode
// rules. The built-in LIKE folds ASCII only.
const foldFunc = "moviedex_fold"

func init() {
	// modernc registers as "sqlite", which sqlx does not know by name.
	sqlx.BindDriver(sqliteDriver, sqlx.QUESTION)
	if err := msqlite.RegisterDeterministicScalarFunction(foldFunc, 1, foldValue); err != nil {
		panic(fmt.Sprintf("register %s: %v", foldFunc, err))
	}
}

// foldValue case-folds a TEXT argument and passes NULL and other types
// through unchanged.
func foldValue(_ *msqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case string:
		return cases.Fold().String(v), nil
	case []byte:
		return cases.Fold().String(string(v)), nil
	default:
		return v, nil
	}
}

// dialect holds the SQL that differs between engines. Queries are written
// with ? placeholders and rebound per driver.
type dialect struct {
	name         string
	driver       string
	singleWriter bool
	schema       []string

	// like is the pattern operator and fold wraps both of its operands
	// so the comparison ignores case.
	like string
	fold string

	// genreMatch is a predicate over items.genres that is true when any
	// element matches the single bound LIKE pattern. Rows whose genres
	// column is not a JSON array never match.
	genreMatch string
}

var sqliteDialect = dialect{
	name:         types.BackendSQLite,
	driver:       sqliteDriver,
	singleWriter: true,
	schema:       append([]string{createItemsSQLite}, indexDDL...),
	like:         "LIKE",
	fold:         foldFunc + "(%s)",
	genreMatch: `CASE WHEN json_valid(items.genres) THEN
        CASE WHEN json_type(items.genres) = 'array' THEN EXISTS (
            SELECT 1 FROM json_each(items.genres) g
            WHERE g.type = 'text' AND ` + foldFunc + `(g.value) LIKE ` + foldFunc + `(?) ESCAPE '\'
        ) ELSE 0 END
    ELSE 0 END`,
}

var postgresDialect = dialect{
	name:   types.BackendPostgres,
	driver: postgresDriver,
	schema: append([]string{createItemsPostgres, createGenreArrayPostgres}, indexDDL...),
	like:   "ILIKE",
	fold:   "%s",
	genreMatch: `EXISTS (
        SELECT 1 FROM json_array_elements_text(` + genreArrayFunc + `(items.genres)) g
        WHERE g ILIKE ? ESCAPE '\'
    )`,
}

// folded wraps expr in the dialect's case fold.
func (d dialect) folded(expr string) string {
	return fmt.Sprintf(d.fold, expr)
}

func dialectFor(backend string) (dialect, error) {
	switch backend {
	case types.BackendSQLite:
		return sqliteDialect, nil
	case types.BackendPostgres:
		return postgresDialect, nil
	default:
		return dialect{}, fmt.Errorf("%w: %s", types.ErrBackendUnknown, backend)
	}
}
