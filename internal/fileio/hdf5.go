package fileio

import (
	"fmt"
	"io"
	"time"

	"gonum.org/v1/hdf5"

	"desshell/internal/domain"
)

// HDF5 layout: one 1-D dataset per column at the file root, plus a
// string dataset named columnOrderDataset preserving column order.
// Bools are stored as int64 and timestamps as strings; HDF5 has no
// native representation for either.
const columnOrderDataset = "__columns__"

// hdf5Reader loads every column up front and serves chunks from
// memory; column-wise HDF5 files cannot be streamed row by row, which
// is also why chunked loading of .h5 files is refused upstream
type hdf5Reader struct {
	schema domain.Schema
	cols   [][]any
	nrows  int
	pos    int
}

func openHDF5(path string) (domain.RowReader, error) {
	f, err := hdf5.OpenFile(path, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	names, err := readColumnOrder(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	r := &hdf5Reader{}
	for _, name := range names {
		col, kind, err := readColumn(f, name)
		if err != nil {
			return nil, fmt.Errorf("read %s column %s: %w", path, name, err)
		}
		if r.nrows == 0 {
			r.nrows = len(col)
		} else if len(col) != r.nrows {
			return nil, fmt.Errorf("read %s: column %s has %d rows, expected %d",
				path, name, len(col), r.nrows)
		}
		r.schema.Columns = append(r.schema.Columns, domain.Column{Name: name, Kind: kind})
		r.cols = append(r.cols, col)
	}
	return r, nil
}

func readColumnOrder(f *hdf5.File) ([]string, error) {
	dset, err := f.OpenDataset(columnOrderDataset)
	if err != nil {
		return nil, fmt.Errorf("missing %s dataset: %w", columnOrderDataset, err)
	}
	defer dset.Close()

	space := dset.Space()
	defer space.Close()
	n := space.SimpleExtentNPoints()

	names := make([]string, n)
	if err := dset.Read(&names); err != nil {
		return nil, fmt.Errorf("read column order: %w", err)
	}
	return names, nil
}

func readColumn(f *hdf5.File, name string) ([]any, domain.Kind, error) {
	dset, err := f.OpenDataset(name)
	if err != nil {
		return nil, "", err
	}
	defer dset.Close()

	space := dset.Space()
	defer space.Close()
	n := space.SimpleExtentNPoints()

	dtype, err := dset.Datatype()
	if err != nil {
		return nil, "", err
	}
	defer dtype.Close()

	switch dtype.Class() {
	case hdf5.T_INTEGER:
		data := make([]int64, n)
		if err := dset.Read(&data); err != nil {
			return nil, "", err
		}
		col := make([]any, n)
		for i, v := range data {
			col[i] = v
		}
		return col, domain.KindInt64, nil
	case hdf5.T_FLOAT:
		data := make([]float64, n)
		if err := dset.Read(&data); err != nil {
			return nil, "", err
		}
		col := make([]any, n)
		for i, v := range data {
			col[i] = v
		}
		return col, domain.KindFloat64, nil
	case hdf5.T_STRING:
		data := make([]string, n)
		if err := dset.Read(&data); err != nil {
			return nil, "", err
		}
		col := make([]any, n)
		for i, v := range data {
			col[i] = v
		}
		return col, domain.KindString, nil
	default:
		return nil, "", fmt.Errorf("unsupported HDF5 type class %v", dtype.Class())
	}
}

func (r *hdf5Reader) Schema() (domain.Schema, error) { return r.schema, nil }

func (r *hdf5Reader) ReadChunk(n int) ([]domain.Row, error) {
	if r.pos >= r.nrows {
		return nil, io.EOF
	}
	end := r.pos + n
	if end > r.nrows {
		end = r.nrows
	}

	out := make([]domain.Row, 0, end-r.pos)
	for i := r.pos; i < end; i++ {
		row := make(domain.Row, len(r.cols))
		for j, col := range r.cols {
			row[j] = col[i]
		}
		out = append(out, row)
	}
	r.pos = end
	if r.pos >= r.nrows {
		return out, io.EOF
	}
	return out, nil
}

func (r *hdf5Reader) Close() error { return nil }

// hdf5Writer buffers all rows and writes the file on Close, one
// dataset per column
type hdf5Writer struct {
	path   string
	schema domain.Schema
	rows   []domain.Row
}

func createHDF5(path string, schema domain.Schema) (Writer, error) {
	return &hdf5Writer{path: path, schema: schema}, nil
}

func (w *hdf5Writer) WriteChunk(rows []domain.Row) error {
	w.rows = append(w.rows, rows...)
	return nil
}

func (w *hdf5Writer) Close() error {
	f, err := hdf5.CreateFile(w.path, hdf5.F_ACC_TRUNC)
	if err != nil {
		return fmt.Errorf("create %s: %w", w.path, err)
	}
	defer f.Close()

	n := uint(len(w.rows))

	if err := writeStringDataset(f, columnOrderDataset, w.schema.Names()); err != nil {
		return fmt.Errorf("write column order: %w", err)
	}

	for j, c := range w.schema.Columns {
		switch c.Kind {
		case domain.KindInt64, domain.KindBool:
			data := make([]int64, n)
			for i, row := range w.rows {
				switch v := row[j].(type) {
				case int64:
					data[i] = v
				case bool:
					if v {
						data[i] = 1
					}
				}
			}
			if err := writeDataset(f, c.Name, hdf5.T_NATIVE_INT64, &data, n); err != nil {
				return fmt.Errorf("write column %s: %w", c.Name, err)
			}
		case domain.KindFloat32, domain.KindFloat64:
			data := make([]float64, n)
			for i, row := range w.rows {
				switch v := row[j].(type) {
				case float64:
					data[i] = v
				case float32:
					data[i] = float64(v)
				}
			}
			if err := writeDataset(f, c.Name, hdf5.T_NATIVE_DOUBLE, &data, n); err != nil {
				return fmt.Errorf("write column %s: %w", c.Name, err)
			}
		default:
			data := make([]string, n)
			for i, row := range w.rows {
				switch v := row[j].(type) {
				case string:
					data[i] = v
				case []byte:
					data[i] = string(v)
				case time.Time:
					data[i] = v.Format("2006-01-02 15:04:05")
				case nil:
				default:
					data[i] = fmt.Sprintf("%v", v)
				}
			}
			if err := writeStringDataset(f, c.Name, data); err != nil {
				return fmt.Errorf("write column %s: %w", c.Name, err)
			}
		}
	}
	return nil
}

func writeDataset(f *hdf5.File, name string, dtype *hdf5.Datatype, data any, n uint) error {
	space, err := hdf5.CreateSimpleDataspace([]uint{n}, nil)
	if err != nil {
		return err
	}
	defer space.Close()

	dset, err := f.CreateDataset(name, dtype, space)
	if err != nil {
		return err
	}
	defer dset.Close()

	return dset.Write(data)
}

func writeStringDataset(f *hdf5.File, name string, data []string) error {
	return writeDataset(f, name, hdf5.T_GO_STRING, &data, uint(len(data)))
}
