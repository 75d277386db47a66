// Package shell implements the interactive prompt: a line-based
// read-eval loop that dispatches the catalog commands and falls
// through to raw SQL for anything it does not recognize.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"desshell/internal/catalog"
	"desshell/internal/config"
	"desshell/internal/domain"
	"desshell/internal/fileio"
)

// errQuit ends the read loop without reporting an error
var errQuit = errors.New("quit")

// IsQuit reports whether the error is the exit/quit sentinel
func IsQuit(err error) bool { return errors.Is(err, errQuit) }

// Shell is one interactive session against a catalog database
type Shell struct {
	cfg     *config.Config
	cfgPath string
	cat     *catalog.Catalog
	profile string
	in      io.Reader
	out     *Printer

	// readPassword prompts without echo; swapped for a stub in tests
	readPassword func(prompt string) (string, error)

	commands map[string]command
}

type command struct {
	usage string
	about string
	run   func(ctx context.Context, rest string) error
}

// New builds a shell over an open catalog session. cfgPath may be
// empty when the config was built from defaults; set_password then
// saves to the default location.
func New(cfg *config.Config, cfgPath string, cat *catalog.Catalog, profile string, in io.Reader, out io.Writer, noColor bool) *Shell {
	s := &Shell{
		cfg:          cfg,
		cfgPath:      cfgPath,
		cat:          cat,
		profile:      profile,
		in:           in,
		out:          NewPrinter(out, noColor),
		readPassword: termReadPassword,
	}
	s.commands = map[string]command{
		"execproc": {
			usage: "execproc PROC('arg1', 2, ...) | execproc PROC describe",
			about: "Run a stored procedure, or list its arguments with a trailing 'describe'.",
			run:   s.cmdExecProc,
		},
		"set_password": {
			usage: "set_password",
			about: "Change the database password for the current user and store it in the config file.",
			run:   s.cmdSetPassword,
		},
		"change_db": {
			usage: "change_db PROFILE",
			about: "Reconnect to another configured database profile.",
			run:   s.cmdChangeDB,
		},
		"find_user": {
			usage: "find_user PATTERN",
			about: "Search catalog accounts by first, last, or user name.",
			run:   s.cmdFindUser,
		},
		"describe_table": {
			usage: "describe_table TABLE [with PATTERN]",
			about: "Show a table's comment, row estimate, and column listing.",
			run:   s.cmdDescribeTable,
		},
		"find_tables": {
			usage: "find_tables PATTERN",
			about: "List tables and views whose name matches PATTERN.",
			run:   s.cmdFindTables,
		},
		"find_tables_with_column": {
			usage: "find_tables_with_column PATTERN",
			about: "List tables having a column whose name matches PATTERN.",
			run:   s.cmdFindTablesWithColumn,
		},
		"load_table": {
			usage: "load_table FILE [--tablename NAME] [--chunksize ROWS] [--memsize MB]",
			about: "Create a table from a data file and bulk insert its rows.",
			run:   s.cmdLoadTable,
		},
		"append_table": {
			usage: "append_table FILE [--tablename NAME] [--chunksize ROWS] [--memsize MB]",
			about: "Insert a data file's rows into an existing table.",
			run:   s.cmdAppendTable,
		},
		"add_comment": {
			usage: "add_comment table TABLE 'comment' | add_comment column TABLE.COLUMN 'comment'",
			about: "Attach a comment to a table or a column.",
			run:   s.cmdAddComment,
		},
	}
	return s
}

func (s *Shell) promptText() string {
	return strings.ToUpper(s.profile) + " ~> "
}

// Run reads lines until EOF or exit. Command errors are printed and
// the loop continues.
func (s *Shell) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(s.in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	for {
		s.out.Prompt(s.promptText())
		if !scanner.Scan() {
			fmt.Fprintln(s.out.w)
			return scanner.Err()
		}
		if err := s.Execute(ctx, scanner.Text()); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			s.out.Errorf("%v", err)
		}
	}
}

// Execute runs a single input line
func (s *Shell) Execute(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	word, rest := splitWord(line)
	switch lw := strings.ToLower(stripSemicolon(word)); lw {
	case "exit", "quit":
		return errQuit
	case "help":
		s.printHelp(stripSemicolon(rest))
		return nil
	default:
		if cmd, ok := s.commands[lw]; ok {
			return cmd.run(ctx, rest)
		}
	}
	return s.runSQL(ctx, line)
}

func (s *Shell) usage(name string) string {
	return "Usage: " + s.commands[name].usage
}

func (s *Shell) printHelp(topic string) {
	if topic != "" {
		if cmd, ok := s.commands[strings.ToLower(topic)]; ok {
			s.out.Plainf("%s", cmd.about)
			s.out.Plainf("Usage: %s", cmd.usage)
			return
		}
		s.out.Plainf("No such command: %s", topic)
		return
	}

	names := make([]string, 0, len(s.commands))
	for name := range s.commands {
		names = append(names, name)
	}
	sort.Strings(names)

	s.out.Titlef("Available commands")
	for _, name := range names {
		s.out.Plainf("  %-24s %s", name, s.commands[name].about)
	}
	s.out.Plainf("")
	s.out.Plainf("Anything else runs as SQL. Append '> file.csv' to export the result.")
	s.out.Plainf("Type exit or quit to leave.")
}

// runSQL is the fallthrough for lines that are not shell commands
func (s *Shell) runSQL(ctx context.Context, line string) error {
	query, outfile := splitRedirect(stripSemicolon(line))
	if query == "" {
		return fmt.Errorf("empty query")
	}

	if outfile != "" || isQuery(query) {
		res, err := s.cat.Query(ctx, query)
		if err != nil {
			return err
		}
		if outfile != "" {
			return s.exportResult(res, outfile)
		}
		s.out.Table(res)
		return nil
	}

	n, err := s.cat.Exec(ctx, query)
	if err != nil {
		return err
	}
	s.out.Successf("Done. %d rows affected", n)
	return nil
}

// isQuery reports whether the statement produces a result set
func isQuery(sql string) bool {
	word, _ := splitWord(sql)
	switch strings.ToLower(word) {
	case "select", "with", "pragma", "explain", "show", "describe":
		return true
	}
	return false
}

// exportResult writes a collected result through the rotating file
// writer, splitting output once a file passes the configured cap
func (s *Shell) exportResult(res *catalog.Result, path string) error {
	schema, err := resultSchema(res)
	if err != nil {
		return err
	}

	w, err := fileio.NewRotatingWriter(path, schema, s.cfg.MaxFileMB)
	if err != nil {
		return err
	}

	chunk := s.cfg.ChunkSize
	if chunk <= 0 {
		chunk = 50000
	}
	if len(res.Rows) == 0 {
		// Write the header alone so the file exists
		if err := w.WriteChunk(nil); err != nil {
			w.Close()
			return err
		}
	}
	for start := 0; start < len(res.Rows); start += chunk {
		end := start + chunk
		if end > len(res.Rows) {
			end = len(res.Rows)
		}
		if err := w.WriteChunk(res.Rows[start:end]); err != nil {
			w.Close()
			return err
		}
	}
	if err := w.Close(); err != nil {
		return err
	}

	if n := w.FileCount(); n > 1 {
		s.out.Successf("Wrote %d rows to %d files", len(res.Rows), n)
	} else {
		s.out.Successf("Wrote %d rows to %s", len(res.Rows), path)
	}
	return nil
}

// resultSchema derives a file schema from a query result, typing each
// column by its first non-null value
func resultSchema(res *catalog.Result) (domain.Schema, error) {
	if res == nil || len(res.Columns) == 0 {
		return domain.Schema{}, fmt.Errorf("query returned no columns")
	}
	cols := make([]domain.Column, len(res.Columns))
	for i, name := range res.Columns {
		kind := domain.KindString
		for _, row := range res.Rows {
			if i < len(row) && row[i] != nil {
				kind = kindOfValue(row[i])
				break
			}
		}
		cols[i] = domain.Column{Name: name, Kind: kind}
	}
	schema := domain.Schema{Columns: cols}
	return schema, schema.Validate()
}

func kindOfValue(v any) domain.Kind {
	switch v.(type) {
	case int64, int32, int:
		return domain.KindInt64
	case float64:
		return domain.KindFloat64
	case float32:
		return domain.KindFloat32
	case bool:
		return domain.KindBool
	case []byte:
		return domain.KindBytes
	case time.Time:
		return domain.KindTime
	default:
		return domain.KindString
	}
}
