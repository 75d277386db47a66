package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"desshell/internal/domain"
)

// LoadReport summarizes a bulk load or append
type LoadReport struct {
	Rows   int64
	Chunks int
}

// CreateTable creates a table from a normalized schema
func (c *Catalog) CreateTable(ctx context.Context, table string, schema domain.Schema) error {
	if err := domain.ValidateTableName(table); err != nil {
		return err
	}
	if err := schema.Validate(); err != nil {
		return err
	}
	if _, err := c.db.ExecContext(ctx, c.dialect.CreateTableSQL(table, schema)); err != nil {
		return fmt.Errorf("create table %s: %w", table, err)
	}
	return nil
}

// DropTable removes a table. Used to roll back a failed initial load.
func (c *Catalog) DropTable(ctx context.Context, table string) error {
	if err := domain.ValidateTableName(table); err != nil {
		return err
	}
	if _, err := c.db.ExecContext(ctx, fmt.Sprintf("DROP TABLE %s", strings.ToUpper(table))); err != nil {
		return fmt.Errorf("drop table %s: %w", table, err)
	}
	return nil
}

// LoadTable creates table from the reader's schema and inserts every
// row in chunks. Each chunk commits in its own transaction; a failure
// mid-load drops the half-created table before returning.
func (c *Catalog) LoadTable(ctx context.Context, table string, src domain.RowReader, chunk int) (LoadReport, error) {
	schema, err := src.Schema()
	if err != nil {
		return LoadReport{}, fmt.Errorf("read schema: %w", err)
	}

	if err := c.CreateTable(ctx, table, schema); err != nil {
		return LoadReport{}, err
	}

	report, err := c.insertAll(ctx, table, schema, src, chunk)
	if err != nil {
		if dropErr := c.DropTable(ctx, table); dropErr != nil {
			return report, fmt.Errorf("%w (cleanup failed: %v)", err, dropErr)
		}
		return report, err
	}
	return report, nil
}

// AppendTable inserts the reader's rows into an existing table. The
// table is left as-is on failure; previously committed chunks stay.
func (c *Catalog) AppendTable(ctx context.Context, table string, src domain.RowReader, chunk int) (LoadReport, error) {
	schema, err := src.Schema()
	if err != nil {
		return LoadReport{}, fmt.Errorf("read schema: %w", err)
	}
	if err := schema.Validate(); err != nil {
		return LoadReport{}, err
	}
	return c.insertAll(ctx, table, schema, src, chunk)
}

func (c *Catalog) insertAll(ctx context.Context, table string, schema domain.Schema, src domain.RowReader, chunk int) (LoadReport, error) {
	if chunk <= 0 {
		chunk = c.chunkSize
	}
	insertSQL := c.dialect.InsertSQL(table, schema)

	var report LoadReport
	for {
		rows, err := src.ReadChunk(chunk)
		if len(rows) > 0 {
			if err := c.insertChunk(ctx, insertSQL, schema, rows); err != nil {
				return report, fmt.Errorf("insert chunk %d into %s: %w", report.Chunks+1, table, err)
			}
			report.Rows += int64(len(rows))
			report.Chunks++
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return report, nil
			}
			return report, fmt.Errorf("read chunk %d: %w", report.Chunks+1, err)
		}
	}
}

// insertChunk writes one chunk inside a transaction with a prepared
// statement, so a partial chunk never lands
func (c *Catalog) insertChunk(ctx context.Context, insertSQL string, schema domain.Schema, rows []domain.Row) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	width := schema.Len()
	for i, row := range rows {
		if len(row) != width {
			return fmt.Errorf("row %d has %d values, schema has %d columns", i, len(row), width)
		}
		if _, err := stmt.ExecContext(ctx, []any(row)...); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit chunk: %w", err)
	}
	return nil
}
