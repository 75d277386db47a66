// Package fileio normalizes tabular files (columnar text, HDF5, FITS
// binary tables, Parquet) into the schema/row representation the bulk
// loader consumes, and writes query results back out in the same
// formats. Formats are selected by file extension.
package fileio

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"desshell/internal/domain"
)

// Extensions lists the supported file types in display order
var Extensions = []string{".csv", ".tab", ".h5", ".fits", ".parquet"}

// Writer receives rows for one output file. The schema is fixed at
// creation time.
type Writer interface {
	WriteChunk(rows []domain.Row) error
	Close() error
}

// UnrecognizedTypeError reports an extension outside Extensions
type UnrecognizedTypeError struct {
	Ext string
}

func (e *UnrecognizedTypeError) Error() string {
	quoted := make([]string, len(Extensions))
	for i, ext := range Extensions {
		quoted[i] = "'" + ext + "'"
	}
	return fmt.Sprintf("Unrecognized file type: '%s'\nSupported filetypes:\n %s",
		e.Ext, strings.Join(quoted, ", "))
}

// ext extracts the extension from a filename, also accepting a bare
// extension like ".csv"
func ext(filename string) string {
	e := filepath.Ext(filename)
	if e == "" {
		e = filename
	}
	return strings.ToLower(e)
}

// CheckFiletype validates the extension of filename against the
// supported set
func CheckFiletype(filename string) error {
	e := ext(filename)
	for _, known := range Extensions {
		if e == known {
			return nil
		}
	}
	return &UnrecognizedTypeError{Ext: e}
}

// Open returns a reader for the file, chosen by extension
func Open(path string) (domain.RowReader, error) {
	if err := CheckFiletype(path); err != nil {
		return nil, err
	}
	switch ext(path) {
	case ".csv":
		return openCSV(path, ',')
	case ".tab":
		return openCSV(path, ' ')
	case ".h5":
		return openHDF5(path)
	case ".fits":
		return openFITS(path)
	case ".parquet":
		return openParquet(path)
	}
	return nil, &UnrecognizedTypeError{Ext: ext(path)}
}

// Create returns a writer for the file, chosen by extension
func Create(path string, schema domain.Schema) (Writer, error) {
	if err := CheckFiletype(path); err != nil {
		return nil, err
	}
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	switch ext(path) {
	case ".csv":
		return createCSV(path, schema, ',')
	case ".tab":
		return createCSV(path, schema, ' ')
	case ".h5":
		return createHDF5(path, schema)
	case ".fits":
		return createFITS(path, schema)
	case ".parquet":
		return createParquet(path, schema)
	}
	return nil, &UnrecognizedTypeError{Ext: ext(path)}
}

// SupportsChunkedLoad reports whether the format can be read
// incrementally. HDF5 columns are read whole, so chunked loading is
// refused for .h5 files.
func SupportsChunkedLoad(path string) bool {
	return ext(path) != ".h5"
}

// estimateSampleRows bounds how many rows the size estimator reads
const estimateSampleRows = 200

// EstimateChunkRows estimates how many rows of the file fit in a
// memory budget of memMB megabytes, from a sample of the leading rows
func EstimateChunkRows(path string, memMB int) (int, error) {
	if memMB <= 0 {
		return 0, fmt.Errorf("memory budget must be positive, got %d", memMB)
	}
	r, err := Open(path)
	if err != nil {
		return 0, err
	}
	defer r.Close()
	return estimateRows(path, r, memMB)
}

func estimateRows(path string, r domain.RowReader, memMB int) (int, error) {
	rows, err := r.ReadChunk(estimateSampleRows)
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("sample %s: %w", path, err)
	}
	if len(rows) == 0 {
		return 0, fmt.Errorf("sample %s: file has no rows", path)
	}

	var total int64
	for _, row := range rows {
		total += rowBytes(row)
	}
	perRow := total / int64(len(rows))
	if perRow <= 0 {
		perRow = 1
	}

	n := int64(memMB) << 20 / perRow
	if n < 1 {
		n = 1
	}
	return int(n), nil
}

// rowBytes approximates the in-memory size of one row
func rowBytes(row domain.Row) int64 {
	var n int64
	for _, v := range row {
		switch x := v.(type) {
		case nil:
			n += 8
		case string:
			n += int64(len(x)) + 16
		case []byte:
			n += int64(len(x)) + 24
		case time.Time:
			n += 24
		default:
			n += 8
		}
	}
	return n
}
