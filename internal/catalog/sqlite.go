package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"desshell/internal/domain"
)

// sqliteDialect backs local scratch databases and the test suite.
// SQLite has no comment DDL and no account or procedure dictionary;
// comments live in a side table and the rest reports ErrUnsupported.
type sqliteDialect struct{}

func (d *sqliteDialect) DriverName() string { return "sqlite" }

func (d *sqliteDialect) init(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS catalog_comments (
			table_name  TEXT NOT NULL,
			column_name TEXT NOT NULL DEFAULT '',
			comments    TEXT NOT NULL,
			PRIMARY KEY (table_name, column_name)
		)`)
	if err != nil {
		return fmt.Errorf("create catalog_comments: %w", err)
	}
	return nil
}

func (d *sqliteDialect) TableExists(ctx context.Context, db *sql.DB, table string) (bool, error) {
	_, name := splitOwner(table)
	var n int
	err := db.QueryRowContext(ctx, `
		select count(*) from sqlite_master
		where type in ('table', 'view') and upper(name) = ?`, name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check table %s: %w", table, err)
	}
	return n > 0, nil
}

func (d *sqliteDialect) Describe(ctx context.Context, db *sql.DB, table, pattern string) (*TableDescription, error) {
	_, name := splitOwner(table)

	var actual string
	err := db.QueryRowContext(ctx, `
		select name from sqlite_master
		where type in ('table', 'view') and upper(name) = ?`, name).Scan(&actual)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("table %s not found", name)
	}
	if err != nil {
		return nil, fmt.Errorf("describe %s: %w", table, err)
	}

	desc := &TableDescription{Table: actual}

	// An uncommented table simply has no row in the side table
	err = db.QueryRowContext(ctx, `
		select comments from catalog_comments
		where table_name = ? and column_name = ''`, actual).Scan(&desc.Comment)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("table comment for %s: %w", table, err)
	}

	var n int64
	if err := db.QueryRowContext(ctx,
		fmt.Sprintf(`select count(*) from "%s"`, actual)).Scan(&n); err == nil {
		desc.RowCount = fmt.Sprintf("%d", n)
	} else {
		desc.RowCount = "Not available"
	}

	query := `
		select p.name, upper(p.type), '',
		coalesce(c.comments, '')
		from pragma_table_info(?) p
		left join catalog_comments c
		on c.table_name = ? and upper(c.column_name) = upper(p.name)`
	args := []any{actual, actual}
	if pattern != "" {
		query += ` where upper(p.name) like upper(?)`
		args = append(args, pattern)
	}
	query += ` order by p.name`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("describe %s: %w", table, err)
	}
	defer rows.Close()

	cols, err := collectRows(rows)
	if err != nil {
		return nil, err
	}
	cols.Columns = describeColumns
	desc.Columns = cols
	return desc, nil
}

func (d *sqliteDialect) FindTables(ctx context.Context, db *sql.DB, pattern string) (*Result, error) {
	rows, err := db.QueryContext(ctx, `
		select 'main' as owner, name as table_name from sqlite_master
		where type in ('table', 'view')
		and name not like 'sqlite_%' and name <> 'catalog_comments'
		and upper(name) like upper(?)
		order by name`, pattern)
	if err != nil {
		return nil, fmt.Errorf("find tables: %w", err)
	}
	defer rows.Close()
	return collectRows(rows)
}

func (d *sqliteDialect) FindTablesWithColumn(ctx context.Context, db *sql.DB, pattern string) (*Result, error) {
	rows, err := db.QueryContext(ctx, `
		select m.name as table_name, p.name as column_name
		from sqlite_master m, pragma_table_info(m.name) p
		where m.type = 'table'
		and m.name not like 'sqlite_%' and m.name <> 'catalog_comments'
		and upper(p.name) like upper(?)
		order by m.name, p.name`, pattern)
	if err != nil {
		return nil, fmt.Errorf("find tables with column: %w", err)
	}
	defer rows.Close()
	return collectRows(rows)
}

func (d *sqliteDialect) FindUsers(ctx context.Context, db *sql.DB, pattern string) (*Result, error) {
	return nil, fmt.Errorf("user search: %w", ErrUnsupported)
}

func (d *sqliteDialect) CreateTableSQL(table string, schema domain.Schema) string {
	defs := make([]string, len(schema.Columns))
	for i, c := range schema.Columns {
		defs[i] = fmt.Sprintf("%s %s", strings.ToUpper(c.Name), c.SQLiteType())
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", strings.ToUpper(table), strings.Join(defs, ", "))
}

func (d *sqliteDialect) InsertSQL(table string, schema domain.Schema) string {
	names := make([]string, len(schema.Columns))
	binds := make([]string, len(schema.Columns))
	for i, c := range schema.Columns {
		names[i] = strings.ToUpper(c.Name)
		binds[i] = "?"
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		strings.ToUpper(table), strings.Join(names, ", "), strings.Join(binds, ", "))
}

func (d *sqliteDialect) upsertComment(ctx context.Context, db *sql.DB, table, column, comment string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO catalog_comments (table_name, column_name, comments)
		VALUES (?, ?, ?)
		ON CONFLICT(table_name, column_name) DO UPDATE SET comments = excluded.comments`,
		table, column, comment)
	return err
}

func (d *sqliteDialect) CommentOnTable(ctx context.Context, db *sql.DB, table, comment string) error {
	if err := validateIdentifier("table", table); err != nil {
		return err
	}
	exists, err := d.TableExists(ctx, db, table)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("table %s not found", table)
	}
	_, name := splitOwner(table)
	var actual string
	if err := db.QueryRowContext(ctx, `
		select name from sqlite_master where upper(name) = ?`, name).Scan(&actual); err != nil {
		return err
	}
	return d.upsertComment(ctx, db, actual, "", comment)
}

func (d *sqliteDialect) CommentOnColumn(ctx context.Context, db *sql.DB, table, column, comment string) error {
	if err := validateIdentifier("table", table); err != nil {
		return err
	}
	if err := validateIdentifier("column", column); err != nil {
		return err
	}
	desc, err := d.Describe(ctx, db, table, "")
	if err != nil {
		return err
	}
	found := false
	for _, row := range desc.Columns.Rows {
		if name, ok := row[0].(string); ok && strings.EqualFold(name, column) {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("column %s not found in table %s", column, table)
	}
	return d.upsertComment(ctx, db, desc.Table, strings.ToUpper(column), comment)
}

func (d *sqliteDialect) AlterPassword(ctx context.Context, db *sql.DB, user, password string) error {
	return fmt.Errorf("password change: %w", ErrUnsupported)
}

func (d *sqliteDialect) CallProc(ctx context.Context, db *sql.DB, name string, args []any) error {
	return fmt.Errorf("stored procedures: %w", ErrUnsupported)
}

func (d *sqliteDialect) DescribeProc(ctx context.Context, db *sql.DB, name string) (*Result, error) {
	return nil, fmt.Errorf("stored procedures: %w", ErrUnsupported)
}
