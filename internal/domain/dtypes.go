package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Type mapping between the normalized kinds, Oracle column types,
// SQLite column types, and FITS binary-table format codes.

// KindFromOracle maps an Oracle dictionary type name to a Kind.
// NUMBER columns with scale zero are treated as integers; anything
// with a fractional scale becomes float64.
func KindFromOracle(typeName string, precision, scale int) Kind {
	switch strings.ToUpper(typeName) {
	case "NUMBER":
		if scale == 0 {
			return KindInt64
		}
		return KindFloat64
	case "BINARY_FLOAT":
		return KindFloat32
	case "BINARY_DOUBLE", "FLOAT":
		return KindFloat64
	case "VARCHAR2", "NVARCHAR2", "CHAR", "NCHAR", "CLOB", "LONG":
		return KindString
	case "BLOB", "RAW", "LONG RAW":
		return KindBytes
	case "DATE", "TIMESTAMP", "TIMESTAMP(6)", "TIMESTAMP WITH TIME ZONE":
		return KindTime
	default:
		return KindString
	}
}

// OracleType returns the Oracle column type used when creating tables
func (c Column) OracleType() string {
	switch c.Kind {
	case KindInt64:
		return "NUMBER(19)"
	case KindFloat32:
		return "BINARY_FLOAT"
	case KindFloat64:
		return "BINARY_DOUBLE"
	case KindBool:
		return "NUMBER(1)"
	case KindTime:
		return "TIMESTAMP"
	case KindBytes:
		return "BLOB"
	default:
		w := c.Width
		if w <= 0 {
			w = 1024
		}
		return fmt.Sprintf("VARCHAR2(%d)", w)
	}
}

// SQLiteType returns the SQLite column affinity used when creating tables
func (c Column) SQLiteType() string {
	switch c.Kind {
	case KindInt64, KindBool:
		return "INTEGER"
	case KindFloat32, KindFloat64:
		return "REAL"
	case KindBytes:
		return "BLOB"
	default:
		return "TEXT"
	}
}

// KindFromSQLite maps a declared SQLite type to a Kind
func KindFromSQLite(typeName string) Kind {
	t := strings.ToUpper(typeName)
	switch {
	case strings.Contains(t, "INT"):
		return KindInt64
	case strings.Contains(t, "REAL"), strings.Contains(t, "FLOA"), strings.Contains(t, "DOUB"):
		return KindFloat64
	case strings.Contains(t, "BLOB"):
		return KindBytes
	default:
		return KindString
	}
}

// FITSFormat returns the binary-table TFORM code for the column
func (c Column) FITSFormat() string {
	switch c.Kind {
	case KindInt64:
		return "K"
	case KindFloat32:
		return "E"
	case KindFloat64:
		return "D"
	case KindBool:
		return "L"
	case KindTime:
		return "29A"
	default:
		w := c.Width
		if w <= 0 {
			w = 64
		}
		return fmt.Sprintf("%dA", w)
	}
}

// KindFromFITS maps a TFORM format code back to a Kind
func KindFromFITS(tform string) Kind {
	f := strings.TrimSpace(strings.ToUpper(tform))
	// Strip any repeat count prefix ("12A", "1D", ...)
	i := 0
	for i < len(f) && f[i] >= '0' && f[i] <= '9' {
		i++
	}
	if i == len(f) {
		return KindString
	}
	switch f[i] {
	case 'B', 'I', 'J', 'K':
		return KindInt64
	case 'E':
		return KindFloat32
	case 'D':
		return KindFloat64
	case 'L':
		return KindBool
	default:
		return KindString
	}
}

// timeLayouts accepted when parsing text cells into timestamps
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// SniffKind inspects a sample of text cells and picks the narrowest
// kind that can represent all of them. Empty cells are ignored; a
// sample with no usable cells comes back as a string column.
func SniffKind(samples []string) Kind {
	kind := Kind("")
	for _, s := range samples {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		k := sniffCell(s)
		kind = widen(kind, k)
		if kind == KindString {
			break
		}
	}
	if kind == "" {
		return KindString
	}
	return kind
}

func sniffCell(s string) Kind {
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		return KindInt64
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return KindFloat64
	}
	switch strings.ToLower(s) {
	case "true", "false":
		return KindBool
	}
	for _, layout := range timeLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return KindTime
		}
	}
	return KindString
}

// widen merges the kind seen so far with the kind of a new cell
func widen(have, next Kind) Kind {
	if have == "" || have == next {
		return next
	}
	if (have == KindInt64 && next == KindFloat64) || (have == KindFloat64 && next == KindInt64) {
		return KindFloat64
	}
	return KindString
}

// ParseCell converts a text cell into the Go value for the given kind.
// Empty cells become nil so the driver inserts NULL.
func ParseCell(s string, kind Kind) (any, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	switch kind {
	case KindInt64:
		return strconv.ParseInt(s, 10, 64)
	case KindFloat32:
		v, err := strconv.ParseFloat(s, 32)
		return float32(v), err
	case KindFloat64:
		return strconv.ParseFloat(s, 64)
	case KindBool:
		return strconv.ParseBool(strings.ToLower(s))
	case KindTime:
		var lastErr error
		for _, layout := range timeLayouts {
			t, err := time.Parse(layout, s)
			if err == nil {
				return t, nil
			}
			lastErr = err
		}
		return nil, lastErr
	case KindBytes:
		return []byte(s), nil
	default:
		return s, nil
	}
}

// FormatCell renders a value for text output. Floats keep eight
// decimal digits to match the catalog's export convention.
func FormatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(x, 'f', 8, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', 8, 32)
	case time.Time:
		return x.Format("2006-01-02 15:04:05")
	case []byte:
		return string(x)
	default:
		return fmt.Sprintf("%v", x)
	}
}
