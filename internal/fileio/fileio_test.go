package fileio

import (
	"errors"
	"strings"
	"testing"

	"desshell/internal/domain"
)

func TestCheckFiletype(t *testing.T) {
	for _, name := range []string{"data.csv", "data.tab", "data.h5", "data.fits", "data.parquet", ".csv", ".FITS"} {
		if err := CheckFiletype(name); err != nil {
			t.Errorf("CheckFiletype(%q) = %v, want nil", name, err)
		}
	}

	err := CheckFiletype("data.xlsx")
	if err == nil {
		t.Fatal("unknown extension accepted")
	}
	var ute *UnrecognizedTypeError
	if !errors.As(err, &ute) {
		t.Fatalf("error type = %T", err)
	}
	msg := err.Error()
	if !strings.Contains(msg, "Unrecognized file type: '.xlsx'") {
		t.Errorf("message = %q", msg)
	}
	if !strings.Contains(msg, "'.csv', '.tab', '.h5', '.fits', '.parquet'") {
		t.Errorf("supported list missing: %q", msg)
	}
}

func TestOpenUnknownExtension(t *testing.T) {
	if _, err := Open("data.xml"); err == nil {
		t.Fatal("Open accepted unknown extension")
	}
}

func TestSupportsChunkedLoad(t *testing.T) {
	if SupportsChunkedLoad("data.h5") {
		t.Error("h5 should not support chunked loads")
	}
	for _, name := range []string{"data.csv", "data.tab", "data.fits", "data.parquet"} {
		if !SupportsChunkedLoad(name) {
			t.Errorf("%s should support chunked loads", name)
		}
	}
}

func TestEstimateChunkRows(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("RA,DEC\n")
	for i := 0; i < 50; i++ {
		sb.WriteString("1.12345678,2.87654321\n")
	}
	path := writeFixture(t, "estimate.csv", sb.String())

	n, err := EstimateChunkRows(path, 1)
	if err != nil {
		t.Fatalf("EstimateChunkRows failed: %v", err)
	}
	// Two floats a row is 16 bytes, so 1 MB should hold tens of
	// thousands of rows
	if n < 1000 {
		t.Errorf("estimate = %d, suspiciously small", n)
	}

	if _, err := EstimateChunkRows(path, 0); err == nil {
		t.Error("zero memory budget accepted")
	}

	empty := writeFixture(t, "empty.csv", "RA,DEC\n")
	if _, err := EstimateChunkRows(empty, 1); err == nil {
		t.Error("empty file should fail estimation")
	}
}

// brokenReader serves one row and then a non-EOF read failure
type brokenReader struct{}

func (brokenReader) Schema() (domain.Schema, error) {
	return domain.Schema{Columns: []domain.Column{{Name: "X", Kind: domain.KindInt64}}}, nil
}

func (brokenReader) ReadChunk(n int) ([]domain.Row, error) {
	return []domain.Row{{int64(1)}}, errors.New("read failed")
}

func (brokenReader) Close() error { return nil }

func TestEstimateRowsPropagatesReadErrors(t *testing.T) {
	_, err := estimateRows("broken.csv", brokenReader{}, 1)
	if err == nil {
		t.Fatal("read failure during sampling was swallowed")
	}
	if !strings.Contains(err.Error(), "read failed") {
		t.Errorf("error = %v, want the reader failure", err)
	}
}
