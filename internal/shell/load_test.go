package shell

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeCSVFixture(t *testing.T, name string, rows int) string {
	t.Helper()
	var sb strings.Builder
	sb.WriteString("ID,RA,BAND\n")
	for i := 0; i < rows; i++ {
		fmt.Fprintf(&sb, "%d,%g,g\n", i, float64(i)*1.5)
	}
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(sb.String()), 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}
	return path
}

func countRows(t *testing.T, s *Shell, table string) int64 {
	t.Helper()
	res, err := s.cat.Query(context.Background(), "select count(*) from "+table)
	if err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	n, ok := res.Rows[0][0].(int64)
	if !ok {
		t.Fatalf("count came back as %T", res.Rows[0][0])
	}
	return n
}

func TestLoadTable(t *testing.T) {
	s, out := newTestShell(t)
	path := writeCSVFixture(t, "objects.csv", 12)

	mustExecute(t, s, "load_table "+path+" --tablename mycat --chunksize 5")

	text := out.String()
	if !strings.Contains(text, "Table MYCAT loaded successfully with 12 rows in 3 chunks") {
		t.Errorf("banner missing: %q", text)
	}
	if !strings.Contains(text, "grant select on MYCAT to DES_READER") {
		t.Errorf("grant hint missing: %q", text)
	}
	if n := countRows(t, s, "mycat"); n != 12 {
		t.Errorf("loaded %d rows, want 12", n)
	}
}

func TestLoadTableDefaultsToBasename(t *testing.T) {
	s, _ := newTestShell(t)
	path := writeCSVFixture(t, "exposures.csv", 3)

	mustExecute(t, s, "load_table "+path)

	exists, err := s.cat.TableExists(context.Background(), "exposures")
	if err != nil || !exists {
		t.Errorf("exposures table missing: %v", err)
	}
}

func TestLoadTableRefusesExisting(t *testing.T) {
	s, _ := newTestShell(t)
	path := writeCSVFixture(t, "dup.csv", 2)
	mustExecute(t, s, "load_table "+path+" --tablename twice")

	err := s.Execute(context.Background(), "load_table "+path+" --tablename twice")
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Errorf("err = %v", err)
	}
	if !strings.Contains(err.Error(), "DROP TABLE TWICE;") {
		t.Errorf("drop hint missing: %v", err)
	}
}

func TestAppendTable(t *testing.T) {
	s, out := newTestShell(t)
	path := writeCSVFixture(t, "grow.csv", 10)

	mustExecute(t, s, "load_table "+path+" --tablename grower")
	out.Reset()
	mustExecute(t, s, "append_table "+path+" --tablename grower --chunksize 4")

	if !strings.Contains(out.String(), "Appended 10 rows to table GROWER in 3 chunks") {
		t.Errorf("banner missing: %q", out.String())
	}
	if n := countRows(t, s, "grower"); n != 20 {
		t.Errorf("table has %d rows, want 20", n)
	}
}

func TestAppendTableRequiresExisting(t *testing.T) {
	s, _ := newTestShell(t)
	path := writeCSVFixture(t, "orphan.csv", 2)

	err := s.Execute(context.Background(), "append_table "+path)
	if err == nil || !strings.Contains(err.Error(), "does not exist") {
		t.Errorf("err = %v", err)
	}
}

func TestLoadTableRejectsChunkedHDF5(t *testing.T) {
	s, _ := newTestShell(t)

	// Rejected before the file is touched
	err := s.Execute(context.Background(), "load_table nonexistent.h5 --chunksize 100")
	if err == nil || !strings.Contains(err.Error(), "HDF5") {
		t.Errorf("err = %v", err)
	}
	err = s.Execute(context.Background(), "load_table nonexistent.h5 --memsize 64")
	if err == nil || !strings.Contains(err.Error(), "HDF5") {
		t.Errorf("err = %v", err)
	}
}

func TestLoadTableRejectsBadNames(t *testing.T) {
	s, _ := newTestShell(t)
	path := writeCSVFixture(t, "ok.csv", 2)

	for _, bad := range []string{"bad-name", "bad$name", "2mass"} {
		err := s.Execute(context.Background(), "load_table "+path+" --tablename "+bad)
		if err == nil {
			t.Errorf("table name %q accepted", bad)
		}
	}
}

func TestLoadTableRejectsUnknownFormat(t *testing.T) {
	s, _ := newTestShell(t)
	err := s.Execute(context.Background(), "load_table data.xlsx")
	if err == nil || !strings.Contains(err.Error(), "Unrecognized file type") {
		t.Errorf("err = %v", err)
	}
}

func TestLoadTableMemsizeChunking(t *testing.T) {
	s, out := newTestShell(t)
	path := writeCSVFixture(t, "memsized.csv", 30)

	// A generous budget loads everything in one chunk
	mustExecute(t, s, "load_table "+path+" --tablename bigmem --memsize 100")
	if !strings.Contains(out.String(), "30 rows in 1 chunks") {
		t.Errorf("banner = %q", out.String())
	}
}

func TestLoadTableHelp(t *testing.T) {
	s, out := newTestShell(t)
	mustExecute(t, s, "load_table --help")
	if !strings.Contains(out.String(), "Usage: load_table") {
		t.Errorf("help = %q", out.String())
	}
}
