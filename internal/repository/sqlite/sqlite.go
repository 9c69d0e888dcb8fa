// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY modernc.org/sqlite?
// It is a pure Go translation of SQLite, so the binary builds without a C
// toolchain and ":memory:" databases make repository tests fast and isolated.
//
// WHY sqlx ON TOP OF database/sql?
// sqlx keeps the database/sql model (pools, transactions, context) but scans
// rows straight into structs using `db:"..."` tags, which removes the long
// Scan(&a, &b, &c, ...) lists. Both *sqlx.DB and *sqlx.Tx satisfy
// sqlx.ExtContext, so every repository is written once against that
// interface and works inside or outside a transaction.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"

	"github.com/sakif/hometender/internal/repository"
)

// compile-time checks
var (
	_ repository.Transactor = (*DB)(nil)
	_ repository.Store      = (*store)(nil)
)

// DB owns the connection pool and hands out repositories bound to it.
type DB struct {
	conn *sqlx.DB
	store
}

// New opens the SQLite database at dbPath and brings its schema up to date.
//
// dbPath examples:
//   - "data/hometender.db" → file-based database (persistent)
//   - ":memory:"           → in-memory database (tests)
//
// SINGLE CONNECTION:
// SQLite allows one writer at a time, and every connection to ":memory:"
// sees its own empty database. Capping the pool at one connection makes
// both facts harmless: PRAGMAs set here stick, and there is exactly one
// database. The cost is that code inside WithinTx must only use the Store
// it is given, or it will wait forever for the connection the transaction
// already holds.
//
// Per-connection settings travel in the DSN (see dsn) so that a replacement
// connection gets them too.
func New(dbPath string) (*DB, error) {
	raw, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	raw.SetMaxOpenConns(1)
	raw.SetMaxIdleConns(1)
	raw.SetConnMaxLifetime(0)

	if err := raw.Ping(); err != nil {
		raw.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets readers proceed while a write is in flight.
	if _, err := raw.Exec("PRAGMA journal_mode=WAL"); err != nil {
		raw.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	if err := migrateUp(raw); err != nil {
		raw.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return wrap(raw), nil
}

// connPragmas are applied by the driver to every connection it opens.
// Foreign keys are OFF by default in SQLite; ownership cascades and the
// "ingredient in use" rule both depend on them.
var connPragmas = []string{
	"_pragma=foreign_keys(1)",
	"_pragma=busy_timeout(5000)",
}

// dsn appends connPragmas to dbPath, keeping any query it already has.
func dsn(dbPath string) string {
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	return dbPath + sep + strings.Join(connPragmas, "&")
}

// wrap builds a DB around an already configured *sql.DB. Tests use it to
// put a sqlmock connection behind the repositories.
func wrap(raw *sql.DB) *DB {
	conn := sqlx.NewDb(raw, "sqlite")
	return &DB{conn: conn, store: store{q: conn}}
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping reports whether the database is reachable. Used by the health check.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// WithinTx runs fn in one transaction. The transaction commits only if fn
// returns nil; any error or panic rolls it back.
func (db *DB) WithinTx(ctx context.Context, fn func(repository.Store) error) error {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&store{q: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing transaction: %w", err)
	}
	return nil
}

// store hands out repositories that all run their queries through q,
// which is either the pool or an open transaction.
type store struct {
	q sqlx.ExtContext
}

func (s *store) Members() repository.MemberRepository {
	return &MemberRepo{q: s.q}
}

func (s *store) Ingredients() repository.IngredientRepository {
	return &IngredientRepo{q: s.q}
}

func (s *store) Recipes() repository.RecipeRepository {
	return &RecipeRepo{q: s.q}
}
