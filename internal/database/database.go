// Package database stores an exported catalog in SQLite so it can be queried
// with plain SQL.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/brellorand/memento-mori-client/internal/cache"
)

// ErrClosed is returned by operations on a closed Database
var ErrClosed = errors.New("database connection is closed")

// Database is an open SQLite file holding (or about to hold) an exported
// catalog
type Database struct {
	db   *sql.DB
	path string
}

// DatabaseOptions configures how the SQLite file is opened
type DatabaseOptions struct {
	// Path to the SQLite database file
	Path string

	// ReadOnly opens an existing file without write access. The file is not
	// created when missing.
	ReadOnly bool

	// WALMode switches the journal to write-ahead logging
	WALMode bool

	// ForeignKeys enforces the bundle_paths to bundles reference
	ForeignKeys bool

	// BusyTimeout is how long a statement waits on a locked file
	BusyTimeout time.Duration
}

// DefaultDatabaseOptions returns the options used for exports
func DefaultDatabaseOptions(path string) *DatabaseOptions {
	return &DatabaseOptions{
		Path:        path,
		WALMode:     true,
		ForeignKeys: true,
		BusyTimeout: 30 * time.Second,
	}
}

// NewDatabase opens the database file, creating it and its directory unless
// options.ReadOnly is set
func NewDatabase(options *DatabaseOptions) (*Database, error) {
	if options == nil {
		return nil, errors.New("database options cannot be nil")
	}
	if options.Path == "" {
		return nil, errors.New("database path cannot be empty")
	}

	if options.ReadOnly {
		if !cache.FileExists(options.Path) {
			return nil, fmt.Errorf("database %s does not exist", options.Path)
		}
	} else if dir := filepath.Dir(options.Path); dir != "." {
		if err := cache.EnsureDir(dir); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dataSourceName(options))
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", options.Path, err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connecting to database %s: %w", options.Path, err)
	}

	return &Database{db: db, path: options.Path}, nil
}

// Path returns the database file path
func (d *Database) Path() string {
	return d.path
}

// Close closes the connection. Closing twice is a no-op.
func (d *Database) Close() error {
	if d.db == nil {
		return nil
	}
	err := d.db.Close()
	d.db = nil
	if err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	return nil
}

func (d *Database) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	if d.db == nil {
		return nil, ErrClosed
	}
	tx, err := d.db.BeginTx(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	return tx, nil
}

func (d *Database) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if d.db == nil {
		return nil, ErrClosed
	}
	result, err := d.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("executing statement: %w", err)
	}
	return result, nil
}

func (d *Database) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	if d.db == nil {
		return nil, ErrClosed
	}
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}
	return rows, nil
}

// QueryRow runs a query expected to return at most one row. Errors surface
// from Scan.
func (d *Database) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return d.db.QueryRowContext(ctx, query, args...)
}

// Tables returns the names of all tables except SQLite's own, sorted
func (d *Database) Tables(ctx context.Context) ([]string, error) {
	rows, err := d.Query(ctx, `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite\_%' ESCAPE '\' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning table name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// HasUserTables reports whether any table other than the underscore
// prefixed bookkeeping tables exists
func (d *Database) HasUserTables(ctx context.Context) (bool, error) {
	tables, err := d.Tables(ctx)
	if err != nil {
		return false, err
	}
	for _, t := range tables {
		if !strings.HasPrefix(t, "_") {
			return true, nil
		}
	}
	return false, nil
}

// Column describes one column of a table
type Column struct {
	Name       string
	Type       string
	NotNull    bool
	Default    *string
	PrimaryKey bool
}

// Columns returns the columns of a table in declaration order. An unknown
// table yields no columns.
func (d *Database) Columns(ctx context.Context, table string) ([]Column, error) {
	rows, err := d.Query(ctx, `SELECT name, type, "notnull", dflt_value, pk FROM pragma_table_info(?)`, table)
	if err != nil {
		return nil, fmt.Errorf("reading columns of %s: %w", table, err)
	}
	defer rows.Close()

	var cols []Column
	for rows.Next() {
		var (
			c   Column
			def sql.NullString
			pk  int
		)
		if err := rows.Scan(&c.Name, &c.Type, &c.NotNull, &def, &pk); err != nil {
			return nil, fmt.Errorf("scanning column of %s: %w", table, err)
		}
		if def.Valid {
			c.Default = &def.String
		}
		c.PrimaryKey = pk > 0
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

// dataSourceName builds a go-sqlite3 file URI carrying the connection pragmas
func dataSourceName(options *DatabaseOptions) string {
	params := url.Values{}
	if options.ReadOnly {
		params.Set("mode", "ro")
	} else {
		params.Set("mode", "rwc")
		params.Set("_synchronous", "NORMAL")
	}
	if options.WALMode && !options.ReadOnly {
		params.Set("_journal_mode", "WAL")
	}
	if options.ForeignKeys {
		params.Set("_foreign_keys", "on")
	}
	if options.BusyTimeout > 0 {
		params.Set("_busy_timeout", strconv.FormatInt(options.BusyTimeout.Milliseconds(), 10))
	}
	params.Set("_cache_size", "-20000")

	return "file:" + options.Path + "?" + params.Encode()
}
