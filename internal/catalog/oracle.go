package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"desshell/internal/domain"
)

// go-ora binds plain positional arguments by placeholder occurrence,
// not by number, so every query numbers its placeholders uniquely in
// argument order and repeated values are passed once per occurrence.
const oracleColumnListQuery = `
	select atc.column_name, atc.data_type,
	case atc.data_type
	when 'NUMBER' then '(' || atc.data_precision || ',' || atc.data_scale || ')'
	when 'VARCHAR2' then atc.char_length || ' characters'
	else atc.data_length || '' end as data_format,
	acc.comments
	from all_tab_cols atc, all_col_comments acc
	where atc.owner = :1 and atc.table_name = :2
	and acc.owner = :3 and acc.table_name = :4
	and acc.column_name = atc.column_name`

const oracleColumnPatternClause = ` and atc.column_name like :5`

const oracleDesUsersQuery = `
	select * from des_users
	where upper(firstname) like upper(:1)
	or upper(lastname) like upper(:2)
	or upper(username) like upper(:3)`

const oracleDBAUsersQuery = `
	select username, created from dba_users
	where upper(username) like upper(:1)
	order by username`

// oracleDialect speaks to the production DES catalog through the
// ALL_* dictionary views. Queries follow the ones the original client
// issued; user search differs per database the way DES instances do.
type oracleDialect struct {
	// dbname selects the account view: the science and operations
	// databases expose DES_USERS, the test database only DBA_USERS
	dbname string
}

func (d *oracleDialect) DriverName() string { return "oracle" }

func (d *oracleDialect) init(ctx context.Context, db *sql.DB) error { return nil }

// resolve finds the owning schema for a table reference. A bare name
// is searched across ALL_TABLES and ALL_VIEWS; an OWNER.TABLE
// reference is taken as-is.
func (d *oracleDialect) resolve(ctx context.Context, db *sql.DB, table string) (owner, name string, err error) {
	owner, name = splitOwner(table)
	if owner != "" {
		return owner, name, nil
	}

	err = db.QueryRowContext(ctx, `
		select owner from (
			select owner, table_name from all_tables
			union all
			select owner, view_name from all_views
			union all
			select owner, mview_name from all_mviews
		) where table_name = :1 and rownum = 1`, name).Scan(&owner)
	if err == sql.ErrNoRows {
		return "", "", fmt.Errorf("table %s not found", name)
	}
	if err != nil {
		return "", "", fmt.Errorf("resolve table %s: %w", name, err)
	}
	return owner, name, nil
}

func (d *oracleDialect) TableExists(ctx context.Context, db *sql.DB, table string) (bool, error) {
	owner, name := splitOwner(table)
	var n int
	var err error
	if owner == "" {
		err = db.QueryRowContext(ctx, `
			select count(*) from all_tables where table_name = :1`, name).Scan(&n)
	} else {
		err = db.QueryRowContext(ctx, `
			select count(*) from all_tables where table_name = :1 and owner = :2`, name, owner).Scan(&n)
	}
	if err != nil {
		return false, fmt.Errorf("check table %s: %w", table, err)
	}
	return n > 0, nil
}

func (d *oracleDialect) Describe(ctx context.Context, db *sql.DB, table, pattern string) (*TableDescription, error) {
	owner, name, err := d.resolve(ctx, db, table)
	if err != nil {
		return nil, err
	}

	desc := &TableDescription{Table: owner + "." + name}

	// Table comment, falling back to materialized view comments.
	// COMMENTS is nullable, so scan through NullString.
	var comment sql.NullString
	err = db.QueryRowContext(ctx, `
		select comments from all_tab_comments
		where owner = :1 and table_name = :2`, owner, name).Scan(&comment)
	if err == sql.ErrNoRows {
		err = db.QueryRowContext(ctx, `
			select comments from all_mview_comments
			where owner = :1 and mview_name = :2`, owner, name).Scan(&comment)
	}
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("table comment for %s: %w", table, err)
	}
	desc.Comment = comment.String

	// Estimated row count from the optimizer statistics
	var numRows sql.NullString
	err = db.QueryRowContext(ctx, `
		select to_char(num_rows) from all_tables
		where table_name = :1 and owner = :2`, name, owner).Scan(&numRows)
	if err == nil && numRows.Valid {
		desc.RowCount = numRows.String
	} else {
		desc.RowCount = "Not available"
	}

	query := oracleColumnListQuery
	args := []any{owner, name, owner, name}
	if pattern != "" {
		query += oracleColumnPatternClause
		args = append(args, strings.ToUpper(pattern))
	}
	query += ` order by atc.column_name`

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

func (d *oracleDialect) FindTables(ctx context.Context, db *sql.DB, pattern string) (*Result, error) {
	rows, err := db.QueryContext(ctx, `
		select owner, table_name from all_tables
		where upper(table_name) like :1`, strings.ToUpper(pattern))
	if err != nil {
		return nil, fmt.Errorf("find tables: %w", err)
	}
	defer rows.Close()
	return collectRows(rows)
}

func (d *oracleDialect) FindTablesWithColumn(ctx context.Context, db *sql.DB, pattern string) (*Result, error) {
	rows, err := db.QueryContext(ctx, `
		select t.owner || '.' || t.table_name as table_name, t.column_name
		from all_tab_cols t
		where t.column_name like :1`, strings.ToUpper(pattern))
	if err != nil {
		return nil, fmt.Errorf("find tables with column: %w", err)
	}
	defer rows.Close()
	return collectRows(rows)
}

func (d *oracleDialect) FindUsers(ctx context.Context, db *sql.DB, pattern string) (*Result, error) {
	var (
		query string
		args  []any
	)
	if d.dbname == "destest" {
		query = oracleDBAUsersQuery
		args = []any{pattern}
	} else {
		query = oracleDesUsersQuery
		args = []any{pattern, pattern, pattern}
	}
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	defer rows.Close()
	return collectRows(rows)
}

func (d *oracleDialect) CreateTableSQL(table string, schema domain.Schema) string {
	defs := make([]string, len(schema.Columns))
	for i, c := range schema.Columns {
		defs[i] = fmt.Sprintf("%s %s", strings.ToUpper(c.Name), c.OracleType())
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", strings.ToUpper(table), strings.Join(defs, ", "))
}

func (d *oracleDialect) InsertSQL(table string, schema domain.Schema) string {
	names := make([]string, len(schema.Columns))
	binds := make([]string, len(schema.Columns))
	for i, c := range schema.Columns {
		names[i] = strings.ToUpper(c.Name)
		binds[i] = fmt.Sprintf(":%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		strings.ToUpper(table), strings.Join(names, ", "), strings.Join(binds, ", "))
}

func (d *oracleDialect) CommentOnTable(ctx context.Context, db *sql.DB, table, comment string) error {
	if err := validateIdentifier("table", table); err != nil {
		return err
	}
	// COMMENT is DDL and takes no binds
	_, err := db.ExecContext(ctx,
		fmt.Sprintf("comment on table %s is '%s'", table, quoteComment(comment)))
	return err
}

func (d *oracleDialect) CommentOnColumn(ctx context.Context, db *sql.DB, table, column, comment string) error {
	if err := validateIdentifier("table", table); err != nil {
		return err
	}
	if err := validateIdentifier("column", column); err != nil {
		return err
	}
	_, err := db.ExecContext(ctx,
		fmt.Sprintf("comment on column %s.%s is '%s'", table, column, quoteComment(comment)))
	return err
}

func (d *oracleDialect) AlterPassword(ctx context.Context, db *sql.DB, user, password string) error {
	if err := validateIdentifier("user", user); err != nil {
		return err
	}
	if strings.ContainsAny(password, `"`) {
		return fmt.Errorf("password may not contain double quotes")
	}
	// ALTER USER is DDL and takes no binds
	_, err := db.ExecContext(ctx,
		fmt.Sprintf(`alter user %s identified by "%s"`, user, password))
	return err
}

func (d *oracleDialect) CallProc(ctx context.Context, db *sql.DB, name string, args []any) error {
	if err := validateIdentifier("procedure", name); err != nil {
		return err
	}
	binds := make([]string, len(args))
	for i := range args {
		binds[i] = fmt.Sprintf(":%d", i+1)
	}
	block := fmt.Sprintf("BEGIN %s(%s); END;", name, strings.Join(binds, ", "))
	_, err := db.ExecContext(ctx, block, args...)
	return err
}

func (d *oracleDialect) DescribeProc(ctx context.Context, db *sql.DB, name string) (*Result, error) {
	rows, err := db.QueryContext(ctx, `
		select argument_name, data_type, position, in_out
		from all_arguments
		where object_name = :1
		order by position`, strings.ToUpper(name))
	if err != nil {
		return nil, fmt.Errorf("describe procedure %s: %w", name, err)
	}
	defer rows.Close()
	return collectRows(rows)
}
