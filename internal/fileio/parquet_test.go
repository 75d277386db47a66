package fileio

import (
	"path/filepath"
	"testing"

	"desshell/internal/domain"
)

func TestParquetRoundTrip(t *testing.T) {
	schema := domain.Schema{Columns: []domain.Column{
		{Name: "ID", Kind: domain.KindInt64},
		{Name: "RA", Kind: domain.KindFloat64},
		{Name: "BAND", Kind: domain.KindString},
	}}
	path := filepath.Join(t.TempDir(), "objects.parquet")

	w, err := Create(path, schema)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	rows := []domain.Row{
		{int64(1), 10.5, "g"},
		{int64(2), 20.25, "r"},
		{int64(3), 30.125, "i"},
	}
	if err := w.WriteChunk(rows); err != nil {
		t.Fatalf("WriteChunk failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer r.Close()

	got, err := r.Schema()
	if err != nil {
		t.Fatalf("Schema failed: %v", err)
	}
	if got.Len() != 3 {
		t.Fatalf("schema has %d columns, want 3", got.Len())
	}

	all := drain(t, r, 2)
	if len(all) != 3 {
		t.Fatalf("read %d rows, want 3", len(all))
	}

	// Parquet groups order fields alphabetically, so address cells by
	// column name rather than input position
	byName := func(row domain.Row, name string) any {
		for i, c := range got.Columns {
			if c.Name == name {
				return row[i]
			}
		}
		t.Fatalf("column %s missing", name)
		return nil
	}

	if v := byName(all[0], "ID").(int64); v != 1 {
		t.Errorf("ID = %v", v)
	}
	if v := byName(all[1], "RA").(float64); v != 20.25 {
		t.Errorf("RA = %v", v)
	}
	if v := byName(all[2], "BAND").(string); v != "i" {
		t.Errorf("BAND = %v", v)
	}
}
