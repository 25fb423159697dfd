package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/claude/healthsync/internal/models"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "modernc.org/sqlite"
)

// Supported database drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// ErrNotFound is returned by single-row lookups when no row exists.
var ErrNotFound = errors.New("not found")

//go:embed migrations
var migrationsFS embed.FS

// DB provides repository methods over PostgreSQL (pgx pool) or SQLite.
// Queries are written once with ? placeholders and rebound for PostgreSQL.
type DB struct {
	conn   conn
	driver string
	now    func() time.Time
}

// New creates a DB backed by a PostgreSQL connection pool.
func New(ctx context.Context, dsn string) (*DB, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &DB{conn: pgConn{pool: pool}, driver: DriverPostgres, now: time.Now}, nil
}

// NewSQLite opens (or creates) a SQLite database file.
func NewSQLite(ctx context.Context, path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	// A single connection serialises writers and keeps pragmas in effect.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting %q: %w", p, err)
		}
	}
	return &DB{conn: sqlConn{db: db}, driver: DriverSQLite, now: time.Now}, nil
}

// Open connects using the named driver.
func Open(ctx context.Context, driver, dsn string) (*DB, error) {
	switch driver {
	case DriverPostgres:
		return New(ctx, dsn)
	case DriverSQLite:
		return NewSQLite(ctx, dsn)
	default:
		return nil, fmt.Errorf("unknown database driver %q", driver)
	}
}

// Driver returns the driver name the DB was opened with.
func (db *DB) Driver() string {
	return db.driver
}

// Close releases the underlying pool or handle.
func (db *DB) Close() {
	db.conn.close()
}

// RunMigrations applies all pending embedded migrations for the driver.
func RunMigrations(driver, dsn string) error {
	var dir, url string
	switch driver {
	case DriverPostgres:
		dir, url = "migrations/postgres", dsn
	case DriverSQLite:
		dir, url = "migrations/sqlite", "sqlite://"+dsn
	default:
		return fmt.Errorf("unknown database driver %q", driver)
	}

	src, err := iofs.New(migrationsFS, dir)
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, url)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

// rows is the subset of pgx.Rows and *sql.Rows the repositories use.
type rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

type row interface {
	Scan(dest ...any) error
}

type conn interface {
	exec(ctx context.Context, query string, args ...any) error
	query(ctx context.Context, query string, args ...any) (rows, error)
	queryRow(ctx context.Context, query string, args ...any) row
	close()
}

type pgConn struct {
	pool *pgxpool.Pool
}

func (c pgConn) exec(ctx context.Context, query string, args ...any) error {
	_, err := c.pool.Exec(ctx, rebind(query), args...)
	return err
}

func (c pgConn) query(ctx context.Context, query string, args ...any) (rows, error) {
	return c.pool.Query(ctx, rebind(query), args...)
}

func (c pgConn) queryRow(ctx context.Context, query string, args ...any) row {
	return pgRow{c.pool.QueryRow(ctx, rebind(query), args...)}
}

func (c pgConn) close() { c.pool.Close() }

type pgRow struct{ pgx.Row }

func (r pgRow) Scan(dest ...any) error {
	if err := r.Row.Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

type sqlConn struct {
	db *sql.DB
}

func (c sqlConn) exec(ctx context.Context, query string, args ...any) error {
	_, err := c.db.ExecContext(ctx, query, args...)
	return err
}

func (c sqlConn) query(ctx context.Context, query string, args ...any) (rows, error) {
	r, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return sqlRows{r}, nil
}

func (c sqlConn) queryRow(ctx context.Context, query string, args ...any) row {
	return sqlRow{c.db.QueryRowContext(ctx, query, args...)}
}

func (c sqlConn) close() { _ = c.db.Close() }

type sqlRows struct{ *sql.Rows }

func (r sqlRows) Close() { _ = r.Rows.Close() }

type sqlRow struct{ *sql.Row }

func (r sqlRow) Scan(dest ...any) error {
	if err := r.Row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// rebind rewrites ? placeholders into PostgreSQL's $n form.
func rebind(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// rangeWhere builds the WHERE clause for an inclusive date range. With only
// one bound set it compares against that bound alone.
func rangeWhere(r models.DateRange) (string, []any) {
	switch {
	case r.Start != "" && r.End != "":
		return " WHERE date BETWEEN ? AND ?", []any{r.Start, r.End}
	case r.Start != "":
		return " WHERE date >= ?", []any{r.Start}
	case r.End != "":
		return " WHERE date <= ?", []any{r.End}
	}
	return "", nil
}

func (db *DB) stamp() string {
	return db.now().UTC().Format(time.RFC3339Nano)
}

func parseStamp(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
