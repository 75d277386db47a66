package fileio

import (
	"os"
	"path/filepath"
	"testing"

	"desshell/internal/domain"
)

var exportSchema = domain.Schema{Columns: []domain.Column{
	{Name: "ID", Kind: domain.KindInt64},
	{Name: "RA", Kind: domain.KindFloat64},
}}

func exportRows(n int) []domain.Row {
	rows := make([]domain.Row, n)
	for i := range rows {
		rows[i] = domain.Row{int64(i), float64(i) * 1.5}
	}
	return rows
}

func TestRotatingWriterSingleFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "result.csv")

	w, err := NewRotatingWriter(path, exportSchema, 1000)
	if err != nil {
		t.Fatalf("NewRotatingWriter failed: %v", err)
	}
	if err := w.WriteChunk(exportRows(10)); err != nil {
		t.Fatalf("WriteChunk failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("output file missing: %v", err)
	}
	if w.FileCount() != 1 {
		t.Errorf("FileCount = %d, want 1", w.FileCount())
	}

	// No rollover means no suffixed files
	if _, err := os.Stat(filepath.Join(dir, "result_000001.csv")); err == nil {
		t.Error("unexpected suffixed file for single-file output")
	}
}

func TestRotatingWriterRollsOver(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "result.csv")

	w, err := NewRotatingWriter(path, exportSchema, 1)
	if err != nil {
		t.Fatalf("NewRotatingWriter failed: %v", err)
	}
	// Force a tiny cap so a handful of chunks rotates
	w.maxBytes = 64

	for i := 0; i < 3; i++ {
		if err := w.WriteChunk(exportRows(10)); err != nil {
			t.Fatalf("WriteChunk %d failed: %v", i, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// The first file must have been renamed into the numbered series
	if _, err := os.Stat(path); err == nil {
		t.Error("unsuffixed first file still present after rollover")
	}
	if _, err := os.Stat(filepath.Join(dir, "result_000001.csv")); err != nil {
		t.Errorf("first rolled file missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "result_000002.csv")); err != nil {
		t.Errorf("second file missing: %v", err)
	}
	if w.FileCount() < 2 {
		t.Errorf("FileCount = %d, want >= 2", w.FileCount())
	}

	// Every file carries the header so each is loadable on its own
	for _, name := range []string{"result_000001.csv", "result_000002.csv"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		if len(data) == 0 || string(data[:6]) != "ID,RA\n" {
			t.Errorf("%s missing header: %q", name, string(data))
		}
	}
}

func TestRotatingWriterRejectsUnknownType(t *testing.T) {
	if _, err := NewRotatingWriter("out.xlsx", exportSchema, 10); err == nil {
		t.Fatal("unknown extension accepted")
	}
}
