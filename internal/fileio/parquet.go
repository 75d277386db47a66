package fileio

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/parquet-go/parquet-go"

	"desshell/internal/domain"
)

// parquetReader reads any flat parquet file through the generic row
// interface, mapping physical types onto the normalized kinds
type parquetReader struct {
	f      *os.File
	reader *parquet.GenericReader[map[string]any]
	schema domain.Schema
	done   bool
}

func openParquet(path string) (domain.RowReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	pf, err := parquet.OpenFile(f, st.Size())
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("read parquet %s: %w", path, err)
	}

	fileSchema := pf.Schema()
	schema := domain.Schema{}
	for _, field := range fileSchema.Fields() {
		kind, err := kindFromParquet(field)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("read parquet %s: column %s: %w", path, field.Name(), err)
		}
		schema.Columns = append(schema.Columns, domain.Column{Name: field.Name(), Kind: kind})
	}

	return &parquetReader{
		f:      f,
		reader: parquet.NewGenericReader[map[string]any](f, fileSchema),
		schema: schema,
	}, nil
}

func kindFromParquet(field parquet.Field) (domain.Kind, error) {
	if field.Leaf() {
		switch field.Type().Kind() {
		case parquet.Boolean:
			return domain.KindBool, nil
		case parquet.Int32, parquet.Int64:
			return domain.KindInt64, nil
		case parquet.Float:
			return domain.KindFloat32, nil
		case parquet.Double:
			return domain.KindFloat64, nil
		case parquet.ByteArray, parquet.FixedLenByteArray:
			return domain.KindString, nil
		}
	}
	return "", fmt.Errorf("unsupported parquet type")
}

func (r *parquetReader) Schema() (domain.Schema, error) { return r.schema, nil }

func (r *parquetReader) ReadChunk(n int) ([]domain.Row, error) {
	if r.done {
		return nil, io.EOF
	}

	buf := make([]map[string]any, n)
	count, err := r.reader.Read(buf)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("read parquet rows: %w", err)
	}
	if err == io.EOF {
		r.done = true
	}
	if count == 0 {
		return nil, io.EOF
	}

	out := make([]domain.Row, count)
	for i := 0; i < count; i++ {
		row := make(domain.Row, r.schema.Len())
		for j, c := range r.schema.Columns {
			row[j] = normalizeParquetValue(c.Kind, buf[i][c.Name])
		}
		out[i] = row
	}
	if r.done {
		return out, io.EOF
	}
	return out, nil
}

// normalizeParquetValue widens parquet natives to the kind's Go type
func normalizeParquetValue(kind domain.Kind, v any) any {
	if v == nil {
		return nil
	}
	switch kind {
	case domain.KindInt64:
		switch x := v.(type) {
		case int32:
			return int64(x)
		case int64:
			return x
		}
	case domain.KindString:
		switch x := v.(type) {
		case []byte:
			return string(x)
		case string:
			return x
		}
	}
	return v
}

func (r *parquetReader) Close() error {
	r.reader.Close()
	return r.f.Close()
}

// parquetWriter writes rows through the generic writer with a schema
// built from the normalized columns
type parquetWriter struct {
	f      *os.File
	writer *parquet.GenericWriter[map[string]any]
	schema domain.Schema
}

func createParquet(path string, schema domain.Schema) (Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}

	group := parquet.Group{}
	for _, c := range schema.Columns {
		group[c.Name] = parquet.Optional(parquetNode(c.Kind))
	}
	fileSchema := parquet.NewSchema("catalog", group)

	return &parquetWriter{
		f:      f,
		writer: parquet.NewGenericWriter[map[string]any](f, fileSchema),
		schema: schema,
	}, nil
}

func parquetNode(kind domain.Kind) parquet.Node {
	switch kind {
	case domain.KindInt64:
		return parquet.Leaf(parquet.Int64Type)
	case domain.KindFloat32:
		return parquet.Leaf(parquet.FloatType)
	case domain.KindFloat64:
		return parquet.Leaf(parquet.DoubleType)
	case domain.KindBool:
		return parquet.Leaf(parquet.BooleanType)
	default:
		return parquet.String()
	}
}

func (w *parquetWriter) WriteChunk(rows []domain.Row) error {
	recs := make([]map[string]any, len(rows))
	for i, row := range rows {
		rec := make(map[string]any, len(row))
		for j, v := range row {
			c := w.schema.Columns[j]
			if v == nil {
				continue
			}
			switch c.Kind {
			case domain.KindTime:
				if t, ok := v.(time.Time); ok {
					rec[c.Name] = t.Format("2006-01-02 15:04:05")
					continue
				}
				rec[c.Name] = fmt.Sprintf("%v", v)
			case domain.KindBytes:
				if b, ok := v.([]byte); ok {
					rec[c.Name] = string(b)
					continue
				}
				rec[c.Name] = v
			default:
				rec[c.Name] = v
			}
		}
		recs[i] = rec
	}

	if _, err := w.writer.Write(recs); err != nil {
		return fmt.Errorf("write parquet rows: %w", err)
	}
	return nil
}

func (w *parquetWriter) Close() error {
	if err := w.writer.Close(); err != nil {
		w.f.Close()
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return w.f.Close()
}
