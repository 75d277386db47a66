// Package catalog is the database access layer of desshell. It wraps
// database/sql with the dictionary and DDL operations the shell
// exposes, split per engine behind the Dialect interface.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"desshell/internal/config"
	"desshell/internal/domain"

	go_ora "github.com/sijms/go-ora/v2"
	_ "modernc.org/sqlite"
)

// connectRetryDelay is the pause before the single reconnect attempt
var connectRetryDelay = 3 * time.Second

// Catalog is an open session against one catalog database
type Catalog struct {
	db      *sql.DB
	dialect Dialect

	// Name is the profile name this session was opened with (dessci,
	// desoper, destest, ...)
	Name string
	// User is the schema user the session authenticated as
	User string

	chunkSize int
}

// Open connects to the database described by prof. A failed first
// attempt is retried once after a short delay before giving up.
func Open(ctx context.Context, name string, prof config.Profile) (*Catalog, error) {
	var (
		driverName string
		dsn        string
		dialect    Dialect
	)

	switch prof.Driver {
	case "oracle":
		driverName = "oracle"
		dsn = go_ora.BuildUrl(prof.Host, prof.Port, prof.Service, prof.User, prof.Password, nil)
		dialect = &oracleDialect{dbname: name}
	case "sqlite", "":
		driverName = "sqlite"
		path := prof.Path
		if path == "" {
			path = ":memory:"
		}
		dsn = path
		dialect = &sqliteDialect{}
	default:
		return nil, fmt.Errorf("unknown driver %q in profile %q", prof.Driver, name)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}

	// An in-memory SQLite database exists per connection; keep the
	// pool at one so every statement sees the same database
	if driverName == "sqlite" && strings.Contains(dsn, ":memory:") {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		slog.Warn("connect failed, retrying", "profile", name, "error", err)
		select {
		case <-time.After(connectRetryDelay):
		case <-ctx.Done():
			db.Close()
			return nil, ctx.Err()
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("connect to %s: %w", name, err)
		}
	}

	c := &Catalog{
		db:        db,
		dialect:   dialect,
		Name:      name,
		User:      prof.User,
		chunkSize: 50000,
	}

	if err := dialect.init(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize %s dialect: %w", dialect.DriverName(), err)
	}

	return c, nil
}

// SetChunkSize overrides the default bulk-insert chunk size
func (c *Catalog) SetChunkSize(n int) {
	if n > 0 {
		c.chunkSize = n
	}
}

// Close closes the database connection
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Dialect exposes the engine-specific half of the catalog
func (c *Catalog) Dialect() Dialect { return c.dialect }

// Query runs arbitrary SQL and collects the full result in memory
func (c *Catalog) Query(ctx context.Context, query string, args ...any) (*Result, error) {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRows(rows)
}

// Exec runs SQL that returns no rows and reports the affected count
func (c *Catalog) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := c.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		// Some drivers cannot report a count for DDL; that is fine
		return 0, nil
	}
	return n, nil
}

// TableExists reports whether the table is visible to the session
func (c *Catalog) TableExists(ctx context.Context, table string) (bool, error) {
	return c.dialect.TableExists(ctx, c.db, table)
}

// Describe returns the table comment, a row estimate, and the column
// listing (optionally restricted to names matching a LIKE pattern)
func (c *Catalog) Describe(ctx context.Context, table, pattern string) (*TableDescription, error) {
	return c.dialect.Describe(ctx, c.db, table, pattern)
}

// FindTables lists tables and views matching a LIKE pattern
func (c *Catalog) FindTables(ctx context.Context, pattern string) (*Result, error) {
	return c.dialect.FindTables(ctx, c.db, pattern)
}

// FindTablesWithColumn lists tables having a column matching a LIKE pattern
func (c *Catalog) FindTablesWithColumn(ctx context.Context, pattern string) (*Result, error) {
	return c.dialect.FindTablesWithColumn(ctx, c.db, pattern)
}

// FindUsers searches catalog accounts by first, last, or user name
func (c *Catalog) FindUsers(ctx context.Context, pattern string) (*Result, error) {
	return c.dialect.FindUsers(ctx, c.db, pattern)
}

// AddTableComment attaches a comment to a table
func (c *Catalog) AddTableComment(ctx context.Context, table, comment string) error {
	return c.dialect.CommentOnTable(ctx, c.db, table, comment)
}

// AddColumnComment attaches a comment to a single column
func (c *Catalog) AddColumnComment(ctx context.Context, table, column, comment string) error {
	return c.dialect.CommentOnColumn(ctx, c.db, table, column, comment)
}

// ChangePassword sets a new password for the session user
func (c *Catalog) ChangePassword(ctx context.Context, password string) error {
	return c.dialect.AlterPassword(ctx, c.db, c.User, password)
}

// CallProc executes a stored procedure with positional arguments
func (c *Catalog) CallProc(ctx context.Context, name string, args []any) error {
	return c.dialect.CallProc(ctx, c.db, name, args)
}

// DescribeProc lists a stored procedure's arguments
func (c *Catalog) DescribeProc(ctx context.Context, name string) (*Result, error) {
	return c.dialect.DescribeProc(ctx, c.db, name)
}

// Result is a fully collected query result
type Result struct {
	Columns []string
	Rows    []domain.Row
}

// Empty reports whether the result has no rows
func (r *Result) Empty() bool { return r == nil || len(r.Rows) == 0 }

// collectRows drains a sql.Rows into a Result, converting driver
// byte slices into strings for display
func collectRows(rows *sql.Rows) (*Result, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read result columns: %w", err)
	}

	res := &Result{Columns: cols}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				vals[i] = string(b)
			}
		}
		res.Rows = append(res.Rows, domain.Row(vals))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return res, nil
}
