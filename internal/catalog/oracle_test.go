package catalog

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"regexp"
	"strconv"
	"testing"

	_ "modernc.org/sqlite"
)

// sqlite reads :n as a named parameter and refuses positional binds
// against it, so the fixture driver rewrites the dialect's Oracle-style
// :n placeholders to sqlite's positional ?n form before preparing
var oraclePlaceholders = regexp.MustCompile(`:(\d+)`)

type oracleBindDriver struct{ drv driver.Driver }

func (d oracleBindDriver) Open(name string) (driver.Conn, error) {
	conn, err := d.drv.Open(name)
	if err != nil {
		return nil, err
	}
	return oracleBindConn{conn}, nil
}

// oracleBindConn exposes only the basic Conn interface; database/sql
// then routes every query through Prepare, where the rewrite happens
type oracleBindConn struct{ driver.Conn }

func (c oracleBindConn) Prepare(query string) (driver.Stmt, error) {
	return c.Conn.Prepare(oraclePlaceholders.ReplaceAllString(query, `?${1}`))
}

func init() {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		panic(err)
	}
	drv := db.Driver()
	db.Close()
	sql.Register("sqlite-oraclebind", oracleBindDriver{drv})
}

// ============================================================================
// Placeholder numbering
// ============================================================================

// The driver binds plain arguments by placeholder occurrence, so a
// query must use each :n exactly once, numbered 1..n in argument order
func TestOracleQueriesBindEachPlaceholderOnce(t *testing.T) {
	tests := []struct {
		name  string
		query string
		args  int
	}{
		{"column listing", oracleColumnListQuery, 4},
		{"column listing with pattern", oracleColumnListQuery + oracleColumnPatternClause, 5},
		{"des_users search", oracleDesUsersQuery, 3},
		{"dba_users search", oracleDBAUsersQuery, 1},
	}

	re := regexp.MustCompile(`:(\d+)`)
	for _, tt := range tests {
		matches := re.FindAllStringSubmatch(tt.query, -1)
		if len(matches) != tt.args {
			t.Errorf("%s: %d placeholders for %d arguments", tt.name, len(matches), tt.args)
		}
		seen := make(map[int]bool)
		for _, m := range matches {
			n, _ := strconv.Atoi(m[1])
			if seen[n] {
				t.Errorf("%s: placeholder :%d used more than once", tt.name, n)
			}
			seen[n] = true
			if n < 1 || n > tt.args {
				t.Errorf("%s: placeholder :%d out of range 1..%d", tt.name, n, tt.args)
			}
		}
	}
}

// ============================================================================
// Dictionary queries against a fixture
// ============================================================================

// newDictionaryFixture builds an in-memory database carrying the slice
// of the Oracle data dictionary the dialect queries, so the dictionary
// SQL runs without a production server
func newDictionaryFixture(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite-oraclebind", ":memory:")
	if err != nil {
		t.Fatalf("failed to open fixture database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	stmts := []string{
		`CREATE TABLE all_tables (owner TEXT, table_name TEXT, num_rows INTEGER)`,
		`CREATE TABLE all_tab_comments (owner TEXT, table_name TEXT, comments TEXT)`,
		`CREATE TABLE all_mview_comments (owner TEXT, mview_name TEXT, comments TEXT)`,
		`CREATE TABLE all_tab_cols (owner TEXT, table_name TEXT, column_name TEXT,
			data_type TEXT, data_precision INTEGER, data_scale INTEGER,
			char_length INTEGER, data_length INTEGER)`,
		`CREATE TABLE all_col_comments (owner TEXT, table_name TEXT, column_name TEXT, comments TEXT)`,
		`CREATE TABLE des_users (username TEXT, firstname TEXT, lastname TEXT)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("fixture DDL failed: %v", err)
		}
	}
	return db
}

func TestOracleDescribeColumnListing(t *testing.T) {
	db := newDictionaryFixture(t)
	ctx := context.Background()

	// Table comment left NULL, one column commented and one not
	mustExec := func(q string, args ...any) {
		t.Helper()
		if _, err := db.Exec(q, args...); err != nil {
			t.Fatalf("seed fixture: %v", err)
		}
	}
	mustExec(`INSERT INTO all_tab_comments VALUES ('DES', 'OBJECTS', NULL)`)
	mustExec(`INSERT INTO all_tab_cols VALUES ('DES', 'OBJECTS', 'RA', 'NUMBER', 10, 8, 0, 22)`)
	mustExec(`INSERT INTO all_tab_cols VALUES ('DES', 'OBJECTS', 'BAND', 'VARCHAR2', 0, 0, 1, 1)`)
	mustExec(`INSERT INTO all_col_comments VALUES ('DES', 'OBJECTS', 'RA', 'right ascension')`)
	mustExec(`INSERT INTO all_col_comments VALUES ('DES', 'OBJECTS', 'BAND', NULL)`)

	d := &oracleDialect{dbname: "dessci"}
	desc, err := d.Describe(ctx, db, "DES.OBJECTS", "")
	if err != nil {
		t.Fatalf("Describe failed: %v", err)
	}
	if desc.Comment != "" {
		t.Errorf("NULL table comment read as %q", desc.Comment)
	}
	if len(desc.Columns.Rows) != 2 {
		t.Fatalf("listed %d columns, want 2", len(desc.Columns.Rows))
	}
	// Listing is ordered by column name
	if desc.Columns.Rows[0][0] != "BAND" || desc.Columns.Rows[1][0] != "RA" {
		t.Errorf("column order = %v, %v", desc.Columns.Rows[0][0], desc.Columns.Rows[1][0])
	}
	if desc.Columns.Rows[1][3] != "right ascension" {
		t.Errorf("RA comment = %v", desc.Columns.Rows[1][3])
	}

	// Column pattern narrows the listing
	desc, err = d.Describe(ctx, db, "DES.OBJECTS", "RA%")
	if err != nil {
		t.Fatalf("Describe with pattern failed: %v", err)
	}
	if len(desc.Columns.Rows) != 1 || desc.Columns.Rows[0][0] != "RA" {
		t.Errorf("pattern listing = %v", desc.Columns.Rows)
	}
}

func TestOracleDescribeMviewCommentFallback(t *testing.T) {
	db := newDictionaryFixture(t)

	if _, err := db.Exec(`INSERT INTO all_mview_comments VALUES ('DES', 'PHOTOZ', 'photo-z summary')`); err != nil {
		t.Fatalf("seed fixture: %v", err)
	}

	d := &oracleDialect{dbname: "dessci"}
	desc, err := d.Describe(context.Background(), db, "DES.PHOTOZ", "")
	if err != nil {
		t.Fatalf("Describe failed: %v", err)
	}
	if desc.Comment != "photo-z summary" {
		t.Errorf("comment = %q, want mview fallback", desc.Comment)
	}
}

func TestOracleFindUsers(t *testing.T) {
	db := newDictionaryFixture(t)

	seed := []string{
		`INSERT INTO des_users VALUES ('JSMITH', 'JANE', 'SMITH')`,
		`INSERT INTO des_users VALUES ('BDOE', 'BOB', 'DOE')`,
	}
	for _, stmt := range seed {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("seed fixture: %v", err)
		}
	}

	d := &oracleDialect{dbname: "dessci"}
	res, err := d.FindUsers(context.Background(), db, "%smith%")
	if err != nil {
		t.Fatalf("FindUsers failed: %v", err)
	}
	if len(res.Rows) != 1 {
		t.Fatalf("matched %d users, want 1", len(res.Rows))
	}
	if res.Rows[0][0] != "JSMITH" {
		t.Errorf("matched user = %v", res.Rows[0][0])
	}
}
