package fileio

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"desshell/internal/domain"
)

// sniffSampleRows bounds how many rows are buffered to infer column
// kinds before streaming resumes
const sniffSampleRows = 500

// recordSource abstracts comma-separated and whitespace-separated
// line formats behind one record reader
type recordSource interface {
	read() ([]string, error)
}

type csvRecords struct {
	r *csv.Reader
}

func (c *csvRecords) read() ([]string, error) { return c.r.Read() }

type fieldRecords struct {
	s *bufio.Scanner
}

func (f *fieldRecords) read() ([]string, error) {
	for f.s.Scan() {
		line := strings.TrimSpace(f.s.Text())
		if line == "" {
			continue
		}
		return strings.Fields(line), nil
	}
	if err := f.s.Err(); err != nil {
		return nil, err
	}
	return nil, io.EOF
}

// textReader reads .csv and .tab files. The first record must be the
// column header; kinds are sniffed from a buffered sample, which is
// served back before the rest of the stream.
type textReader struct {
	f      *os.File
	src    recordSource
	schema domain.Schema
	sample []domain.Row
	done   bool
}

func openCSV(path string, sep rune) (domain.RowReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	var src recordSource
	if sep == ',' {
		r := csv.NewReader(f)
		r.TrimLeadingSpace = true
		src = &csvRecords{r: r}
	} else {
		s := bufio.NewScanner(f)
		s.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
		src = &fieldRecords{s: s}
	}

	tr := &textReader{f: f, src: src}
	if err := tr.readHeader(path); err != nil {
		f.Close()
		return nil, err
	}
	return tr, nil
}

func (t *textReader) readHeader(path string) error {
	header, err := t.src.read()
	if err != nil {
		return fmt.Errorf("read header of %s: %w", path, err)
	}
	if len(header) == 0 {
		return fmt.Errorf("read header of %s: empty header row", path)
	}

	// Buffer a sample of raw records to pick column kinds
	var records [][]string
	for len(records) < sniffSampleRows {
		rec, err := t.src.read()
		if err == io.EOF {
			t.done = true
			break
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		records = append(records, rec)
	}

	cols := make([]domain.Column, len(header))
	for i, name := range header {
		samples := make([]string, 0, len(records))
		width := 0
		for _, rec := range records {
			if i < len(rec) {
				samples = append(samples, rec[i])
				if len(rec[i]) > width {
					width = len(rec[i])
				}
			}
		}
		cols[i] = domain.Column{
			Name:  strings.TrimSpace(name),
			Kind:  domain.SniffKind(samples),
			Width: width,
		}
	}
	t.schema = domain.Schema{Columns: cols}

	t.sample = make([]domain.Row, 0, len(records))
	for _, rec := range records {
		row, err := t.convert(rec)
		if err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		t.sample = append(t.sample, row)
	}
	return nil
}

func (t *textReader) convert(rec []string) (domain.Row, error) {
	if len(rec) != t.schema.Len() {
		return nil, fmt.Errorf("record has %d fields, header has %d", len(rec), t.schema.Len())
	}
	row := make(domain.Row, len(rec))
	for i, cell := range rec {
		v, err := domain.ParseCell(cell, t.schema.Columns[i].Kind)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", t.schema.Columns[i].Name, err)
		}
		row[i] = v
	}
	return row, nil
}

func (t *textReader) Schema() (domain.Schema, error) { return t.schema, nil }

func (t *textReader) ReadChunk(n int) ([]domain.Row, error) {
	var out []domain.Row

	// Serve the sniffing buffer first
	if len(t.sample) > 0 {
		take := n
		if take > len(t.sample) {
			take = len(t.sample)
		}
		out = t.sample[:take]
		t.sample = t.sample[take:]
		if len(out) == n {
			if t.done && len(t.sample) == 0 {
				return out, io.EOF
			}
			return out, nil
		}
	}

	if t.done {
		if len(out) == 0 {
			return nil, io.EOF
		}
		return out, io.EOF
	}

	for len(out) < n {
		rec, err := t.src.read()
		if err == io.EOF {
			t.done = true
			if len(out) == 0 {
				return nil, io.EOF
			}
			return out, io.EOF
		}
		if err != nil {
			return out, err
		}
		row, err := t.convert(rec)
		if err != nil {
			return out, err
		}
		out = append(out, row)
	}
	return out, nil
}

func (t *textReader) Close() error { return t.f.Close() }

// textWriter writes .csv and .tab files with a header row. Floats are
// written with eight decimal digits.
type textWriter struct {
	f      *os.File
	w      *bufio.Writer
	schema domain.Schema
	sep    string
	csv    *csv.Writer
}

func createCSV(path string, schema domain.Schema, sep rune) (Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}

	tw := &textWriter{f: f, schema: schema}
	if sep == ',' {
		tw.csv = csv.NewWriter(f)
		if err := tw.csv.Write(schema.Names()); err != nil {
			f.Close()
			return nil, err
		}
	} else {
		tw.sep = " "
		tw.w = bufio.NewWriter(f)
		if _, err := tw.w.WriteString(strings.Join(schema.Names(), tw.sep) + "\n"); err != nil {
			f.Close()
			return nil, err
		}
	}
	return tw, nil
}

func (t *textWriter) WriteChunk(rows []domain.Row) error {
	for _, row := range rows {
		fields := make([]string, len(row))
		for i, v := range row {
			fields[i] = domain.FormatCell(v)
		}
		if t.csv != nil {
			if err := t.csv.Write(fields); err != nil {
				return err
			}
		} else {
			if _, err := t.w.WriteString(strings.Join(fields, t.sep) + "\n"); err != nil {
				return err
			}
		}
	}
	return nil
}

func (t *textWriter) Close() error {
	if t.csv != nil {
		t.csv.Flush()
		if err := t.csv.Error(); err != nil {
			t.f.Close()
			return err
		}
	} else if t.w != nil {
		if err := t.w.Flush(); err != nil {
			t.f.Close()
			return err
		}
	}
	return t.f.Close()
}
