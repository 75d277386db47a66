package domain

import (
	"fmt"
	"strings"
	"unicode"
)

// Kind is the normalized column type shared by the database layer and
// the file readers/writers. Every supported file format maps its native
// column descriptors onto these kinds before rows reach the loader.
type Kind string

const (
	KindInt64   Kind = "int64"
	KindFloat32 Kind = "float32"
	KindFloat64 Kind = "float64"
	KindString  Kind = "string"
	KindBytes   Kind = "bytes"
	KindBool    Kind = "bool"
	KindTime    Kind = "time"
)

// Column describes a single column in the normalized representation
type Column struct {
	Name string
	Kind Kind

	// Width is the maximum byte length for string columns (0 = unknown)
	Width int

	// Precision and Scale carry NUMBER(p,s) information when the column
	// came from the database dictionary
	Precision int
	Scale     int
}

// Schema is an ordered list of columns
type Schema struct {
	Columns []Column
}

// Names returns the column names in schema order
func (s Schema) Names() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// Lookup returns the column with the given name (case-insensitive)
func (s Schema) Lookup(name string) (Column, bool) {
	for _, c := range s.Columns {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return Column{}, false
}

// Len returns the number of columns
func (s Schema) Len() int { return len(s.Columns) }

// Row is a single record, positionally aligned with a Schema
type Row []any

// RowReader is the common source of tabular data consumed by the bulk
// loader. File readers implement it; ReadChunk returns up to n rows and
// io.EOF once the source is exhausted.
type RowReader interface {
	Schema() (Schema, error)
	ReadChunk(n int) ([]Row, error)
	Close() error
}

// invalidNameChars are rejected in table names because they collide
// with Oracle identifier syntax or shell expansion
const invalidNameChars = "-$~@* "

// ValidateTableName checks that name is usable as an unquoted table name
func ValidateTableName(name string) error {
	if name == "" {
		return fmt.Errorf("table name is empty")
	}
	if strings.ContainsAny(name, invalidNameChars) {
		return fmt.Errorf("invalid table name %q: may not contain any of %q", name, invalidNameChars)
	}
	r := rune(name[0])
	if !unicode.IsLetter(r) {
		return fmt.Errorf("invalid table name %q: must start with a letter", name)
	}
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '.' {
			return fmt.Errorf("invalid table name %q: character %q not allowed", name, r)
		}
	}
	return nil
}

// ValidateSchema checks every column name and kind
func (s Schema) Validate() error {
	if len(s.Columns) == 0 {
		return fmt.Errorf("schema has no columns")
	}
	seen := make(map[string]bool, len(s.Columns))
	for _, c := range s.Columns {
		if err := ValidateTableName(c.Name); err != nil {
			return fmt.Errorf("column: %w", err)
		}
		key := strings.ToUpper(c.Name)
		if seen[key] {
			return fmt.Errorf("duplicate column %q", c.Name)
		}
		seen[key] = true
		switch c.Kind {
		case KindInt64, KindFloat32, KindFloat64, KindString, KindBytes, KindBool, KindTime:
		default:
			return fmt.Errorf("column %q: unknown kind %q", c.Name, c.Kind)
		}
	}
	return nil
}
