package fileio

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/astrogo/fitsio"

	"desshell/internal/domain"
)

// fitsReader reads the binary table in HDU 1, the layout the survey
// pipelines produce
type fitsReader struct {
	f      *os.File
	fits   *fitsio.File
	table  *fitsio.Table
	schema domain.Schema
	pos    int64
	nrows  int64
}

func openFITS(path string) (domain.RowReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	fits, err := fitsio.Open(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("read FITS %s: %w", path, err)
	}

	if len(fits.HDUs()) < 2 {
		fits.Close()
		f.Close()
		return nil, fmt.Errorf("read FITS %s: no table extension", path)
	}
	table, ok := fits.HDU(1).(*fitsio.Table)
	if !ok {
		fits.Close()
		f.Close()
		return nil, fmt.Errorf("read FITS %s: HDU 1 is not a table", path)
	}

	cols := table.Cols()
	schema := domain.Schema{Columns: make([]domain.Column, len(cols))}
	for i, c := range cols {
		schema.Columns[i] = domain.Column{
			Name: c.Name,
			Kind: domain.KindFromFITS(c.Format),
		}
	}

	return &fitsReader{
		f:      f,
		fits:   fits,
		table:  table,
		schema: schema,
		nrows:  table.NumRows(),
	}, nil
}

func (r *fitsReader) Schema() (domain.Schema, error) { return r.schema, nil }

func (r *fitsReader) ReadChunk(n int) ([]domain.Row, error) {
	if r.pos >= r.nrows {
		return nil, io.EOF
	}
	end := r.pos + int64(n)
	if end > r.nrows {
		end = r.nrows
	}

	rows, err := r.table.Read(r.pos, end)
	if err != nil {
		return nil, fmt.Errorf("read FITS rows [%d,%d): %w", r.pos, end, err)
	}
	defer rows.Close()

	var out []domain.Row
	for rows.Next() {
		ptrs := r.scanTargets()
		if err := rows.Scan(ptrs...); err != nil {
			return out, fmt.Errorf("scan FITS row: %w", err)
		}
		row := make(domain.Row, len(ptrs))
		for i, p := range ptrs {
			row[i] = deref(p)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return out, fmt.Errorf("iterate FITS rows: %w", err)
	}

	r.pos = end
	if r.pos >= r.nrows {
		return out, io.EOF
	}
	return out, nil
}

// scanTargets allocates one typed destination per column
func (r *fitsReader) scanTargets() []any {
	ptrs := make([]any, r.schema.Len())
	for i, c := range r.schema.Columns {
		switch c.Kind {
		case domain.KindInt64:
			ptrs[i] = new(int64)
		case domain.KindFloat32:
			ptrs[i] = new(float32)
		case domain.KindFloat64:
			ptrs[i] = new(float64)
		case domain.KindBool:
			ptrs[i] = new(bool)
		default:
			ptrs[i] = new(string)
		}
	}
	return ptrs
}

func deref(p any) any {
	switch x := p.(type) {
	case *int64:
		return *x
	case *float32:
		return *x
	case *float64:
		return *x
	case *bool:
		return *x
	case *string:
		return *x
	default:
		return p
	}
}

func (r *fitsReader) Close() error {
	r.fits.Close()
	return r.f.Close()
}

// fitsWriter writes rows into a binary table named DATA in HDU 1
type fitsWriter struct {
	f      *os.File
	fits   *fitsio.File
	table  *fitsio.Table
	schema domain.Schema
}

func createFITS(path string, schema domain.Schema) (Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}

	fits, err := fitsio.Create(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create FITS %s: %w", path, err)
	}

	phdu, err := fitsio.NewPrimaryHDU(nil)
	if err != nil {
		fits.Close()
		f.Close()
		return nil, fmt.Errorf("create FITS primary HDU: %w", err)
	}
	if err := fits.Write(phdu); err != nil {
		fits.Close()
		f.Close()
		return nil, fmt.Errorf("write FITS primary HDU: %w", err)
	}

	cols := make([]fitsio.Column, schema.Len())
	for i, c := range schema.Columns {
		cols[i] = fitsio.Column{Name: c.Name, Format: c.FITSFormat()}
	}
	table, err := fitsio.NewTable("DATA", cols, fitsio.BINARY_TBL)
	if err != nil {
		fits.Close()
		f.Close()
		return nil, fmt.Errorf("create FITS table: %w", err)
	}

	return &fitsWriter{f: f, fits: fits, table: table, schema: schema}, nil
}

func (w *fitsWriter) WriteChunk(rows []domain.Row) error {
	for _, row := range rows {
		rec := make(map[string]interface{}, len(row))
		for i, v := range row {
			c := w.schema.Columns[i]
			rec[c.Name] = fitsValue(c.Kind, v)
		}
		if err := w.table.Write(&rec); err != nil {
			return fmt.Errorf("write FITS row: %w", err)
		}
	}
	return nil
}

// fitsValue coerces a cell into the binary-table element type for its
// column; NULLs become zero values since FITS tables have no nulls
func fitsValue(kind domain.Kind, v any) interface{} {
	switch kind {
	case domain.KindInt64:
		if x, ok := v.(int64); ok {
			return x
		}
		return int64(0)
	case domain.KindFloat32:
		if x, ok := v.(float32); ok {
			return x
		}
		return float32(0)
	case domain.KindFloat64:
		if x, ok := v.(float64); ok {
			return x
		}
		return float64(0)
	case domain.KindBool:
		if x, ok := v.(bool); ok {
			return x
		}
		return false
	case domain.KindTime:
		if x, ok := v.(time.Time); ok {
			return x.Format("2006-01-02T15:04:05")
		}
		return ""
	default:
		if x, ok := v.(string); ok {
			return x
		}
		if b, ok := v.([]byte); ok {
			return string(b)
		}
		return ""
	}
}

func (w *fitsWriter) Close() error {
	var firstErr error
	if err := w.fits.Write(w.table); err != nil {
		firstErr = fmt.Errorf("write FITS table: %w", err)
	}
	if err := w.table.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := w.fits.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := w.f.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
