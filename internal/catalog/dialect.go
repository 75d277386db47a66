package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"desshell/internal/domain"
)

// ErrUnsupported marks operations a dialect cannot provide (for
// example user search on SQLite, which has no account dictionary)
var ErrUnsupported = errors.New("operation not supported by this database")

// TableDescription is what describe_table prints: the table comment,
// an estimated row count as reported by the dictionary, and one row
// per column (name, type, format, comment)
type TableDescription struct {
	Table    string
	Comment  string
	RowCount string
	Columns  *Result
}

// Dialect is the engine-specific half of the catalog: dictionary
// lookups, DDL generation, and placeholder syntax
type Dialect interface {
	DriverName() string

	// init runs once after connecting (auxiliary tables, pragmas)
	init(ctx context.Context, db *sql.DB) error

	TableExists(ctx context.Context, db *sql.DB, table string) (bool, error)
	Describe(ctx context.Context, db *sql.DB, table, pattern string) (*TableDescription, error)
	FindTables(ctx context.Context, db *sql.DB, pattern string) (*Result, error)
	FindTablesWithColumn(ctx context.Context, db *sql.DB, pattern string) (*Result, error)
	FindUsers(ctx context.Context, db *sql.DB, pattern string) (*Result, error)

	CreateTableSQL(table string, schema domain.Schema) string
	InsertSQL(table string, schema domain.Schema) string

	CommentOnTable(ctx context.Context, db *sql.DB, table, comment string) error
	CommentOnColumn(ctx context.Context, db *sql.DB, table, column, comment string) error

	AlterPassword(ctx context.Context, db *sql.DB, user, password string) error

	CallProc(ctx context.Context, db *sql.DB, name string, args []any) error
	DescribeProc(ctx context.Context, db *sql.DB, name string) (*Result, error)
}

// splitOwner separates an OWNER.TABLE reference. The owner comes back
// empty for a bare table name.
func splitOwner(table string) (owner, name string) {
	if i := strings.IndexByte(table, '.'); i >= 0 {
		return strings.ToUpper(table[:i]), strings.ToUpper(table[i+1:])
	}
	return "", strings.ToUpper(table)
}

// quoteComment doubles single quotes so a comment can be embedded in
// COMMENT ON ... DDL, which takes no bind variables
func quoteComment(comment string) string {
	return strings.ReplaceAll(comment, "'", "''")
}

// describeColumns is the column header shared by both dialects so
// describe_table output looks the same everywhere
var describeColumns = []string{"COLUMN_NAME", "DATA_TYPE", "DATA_FORMAT", "COMMENTS"}

func validateIdentifier(kind, name string) error {
	if err := domain.ValidateTableName(name); err != nil {
		return fmt.Errorf("%s: %w", kind, err)
	}
	return nil
}
