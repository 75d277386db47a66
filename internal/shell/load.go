package shell

import (
	"context"
	"fmt"
	"strings"

	"desshell/internal/catalog"
	"desshell/internal/domain"
	"desshell/internal/fileio"
)

func (s *Shell) cmdLoadTable(ctx context.Context, rest string) error {
	return s.loadFile(ctx, rest, false)
}

func (s *Shell) cmdAppendTable(ctx context.Context, rest string) error {
	return s.loadFile(ctx, rest, true)
}

// loadFile is the shared load_table / append_table path: parse the
// options, derive and validate the table name, check existence the
// right way around, then hand the file reader to the bulk loader.
func (s *Shell) loadFile(ctx context.Context, rest string, appendMode bool) error {
	cmdName := "load_table"
	if appendMode {
		cmdName = "append_table"
	}

	opts, err := parseLoadArgs(rest)
	if err != nil {
		return fmt.Errorf("%w\n%s", err, s.usage(cmdName))
	}
	if opts.Help {
		s.out.Plainf("%s", s.commands[cmdName].about)
		s.out.Plainf("%s", s.usage(cmdName))
		return nil
	}

	if err := fileio.CheckFiletype(opts.File); err != nil {
		return err
	}
	if (opts.ChunkSize > 0 || opts.MemMB > 0) && !fileio.SupportsChunkedLoad(opts.File) {
		return fmt.Errorf("chunked loading is not supported for HDF5 files; %s is read whole", opts.File)
	}

	table := opts.Table
	if table == "" {
		table = defaultTableName(opts.File)
	}
	if err := domain.ValidateTableName(table); err != nil {
		return err
	}
	upper := strings.ToUpper(table)

	exists, err := s.cat.TableExists(ctx, table)
	if err != nil {
		return err
	}
	if !appendMode && exists {
		return fmt.Errorf("table %s already exists. Drop it first with: DROP TABLE %s;", upper, upper)
	}
	if appendMode && !exists {
		return fmt.Errorf("table %s does not exist. Create it with load_table", upper)
	}

	chunk := opts.ChunkSize
	if opts.MemMB > 0 {
		est, err := fileio.EstimateChunkRows(opts.File, opts.MemMB)
		if err != nil {
			return err
		}
		if chunk == 0 || est < chunk {
			chunk = est
		}
	}

	src, err := fileio.Open(opts.File)
	if err != nil {
		return err
	}
	defer src.Close()

	var report catalog.LoadReport
	if appendMode {
		report, err = s.cat.AppendTable(ctx, table, src, chunk)
	} else {
		report, err = s.cat.LoadTable(ctx, table, src, chunk)
	}
	if err != nil {
		return err
	}

	if appendMode {
		s.out.Successf("Appended %d rows to table %s in %d chunks", report.Rows, upper, report.Chunks)
		return nil
	}
	s.out.Successf("Table %s loaded successfully with %d rows in %d chunks", upper, report.Rows, report.Chunks)
	s.out.Hintf("To share the table run: grant select on %s to DES_READER;", upper)
	return nil
}
