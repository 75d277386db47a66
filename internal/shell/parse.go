package shell

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"desshell/internal/fileio"
)

// splitWord splits off the first whitespace-delimited word
func splitWord(line string) (word, rest string) {
	line = strings.TrimSpace(line)
	if i := strings.IndexFunc(line, unicode.IsSpace); i >= 0 {
		return line[:i], strings.TrimSpace(line[i+1:])
	}
	return line, ""
}

// stripSemicolon drops one trailing statement terminator
func stripSemicolon(line string) string {
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(line), ";"))
}

// unquote strips one pair of matching single or double quotes
func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

// splitRedirect splits "SQL > file.ext" into the query text and the
// output path. Only a trailing lone token with a recognized extension
// counts, so comparison operators inside the SQL are left alone.
func splitRedirect(line string) (query, outfile string) {
	i := strings.LastIndexByte(line, '>')
	if i < 0 {
		return line, ""
	}
	candidate := strings.TrimSpace(line[i+1:])
	if candidate == "" || strings.ContainsAny(candidate, " \t") {
		return line, ""
	}
	if filepath.Ext(candidate) == "" || fileio.CheckFiletype(candidate) != nil {
		return line, ""
	}
	return strings.TrimSpace(line[:i]), candidate
}

// parseProcCall parses the execproc argument forms:
//
//	myproc
//	myproc describe
//	myproc('str', 1.5, 42)
//	myproc() describe
func parseProcCall(input string) (name string, args []any, describe bool, err error) {
	s := stripSemicolon(input)
	if s == "" {
		return "", nil, false, fmt.Errorf("procedure name required")
	}

	if i := strings.IndexByte(s, '('); i >= 0 {
		name = strings.TrimSpace(s[:i])
		if name == "" {
			return "", nil, false, fmt.Errorf("procedure name required")
		}
		j := strings.LastIndexByte(s, ')')
		if j < i {
			return "", nil, false, fmt.Errorf("missing closing parenthesis")
		}
		switch tail := strings.TrimSpace(s[j+1:]); {
		case tail == "":
		case strings.EqualFold(tail, "describe"):
			describe = true
		default:
			return "", nil, false, fmt.Errorf("unexpected text after closing parenthesis: %s", tail)
		}
		args, err = parseProcArgs(s[i+1 : j])
		return name, args, describe, err
	}

	fields := strings.Fields(s)
	name = fields[0]
	switch {
	case len(fields) == 1:
		return name, nil, false, nil
	case len(fields) == 2 && strings.EqualFold(fields[1], "describe"):
		return name, nil, true, nil
	}
	return "", nil, false, fmt.Errorf("unexpected arguments after procedure name")
}

// parseProcArgs splits a comma-separated argument list, honoring
// quoting. Quoted tokens stay strings; bare tokens become int64 or
// float64 when they parse as numbers.
func parseProcArgs(s string) ([]any, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}

	type token struct {
		text   string
		quoted bool
	}
	var (
		tokens []token
		cur    strings.Builder
		quote  byte
		wasQ   bool
	)
	flush := func() error {
		text := strings.TrimSpace(cur.String())
		if text == "" && !wasQ {
			return fmt.Errorf("empty procedure argument")
		}
		tokens = append(tokens, token{text: text, quoted: wasQ})
		cur.Reset()
		wasQ = false
		return nil
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			} else {
				cur.WriteByte(c)
			}
		case c == '\'' || c == '"':
			quote = c
			wasQ = true
		case c == ',':
			if err := flush(); err != nil {
				return nil, err
			}
		default:
			cur.WriteByte(c)
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated quote in procedure arguments")
	}
	if err := flush(); err != nil {
		return nil, err
	}

	args := make([]any, len(tokens))
	for i, t := range tokens {
		if t.quoted {
			args[i] = t.text
			continue
		}
		if n, err := strconv.ParseInt(t.text, 10, 64); err == nil {
			args[i] = n
			continue
		}
		if f, err := strconv.ParseFloat(t.text, 64); err == nil {
			args[i] = f
			continue
		}
		args[i] = t.text
	}
	return args, nil
}

// likePattern wraps a bare word so a substring search comes out of
// LIKE; explicit wildcards are passed through untouched
func likePattern(p string) string {
	if strings.ContainsAny(p, "%_") {
		return p
	}
	return "%" + p + "%"
}

// loadOptions are the parsed load_table / append_table arguments
type loadOptions struct {
	File      string
	Table     string
	ChunkSize int
	MemMB     int
	Help      bool
}

func parseLoadArgs(rest string) (loadOptions, error) {
	var o loadOptions
	fields := strings.Fields(stripSemicolon(rest))
	for i := 0; i < len(fields); i++ {
		f := fields[i]
		switch {
		case f == "-h" || f == "--help":
			o.Help = true
		case f == "--tablename" || f == "--chunksize" || f == "--memsize":
			if i+1 >= len(fields) {
				return o, fmt.Errorf("%s requires a value", f)
			}
			val := fields[i+1]
			i++
			if f == "--tablename" {
				o.Table = val
				continue
			}
			n, err := strconv.Atoi(val)
			if err != nil || n <= 0 {
				return o, fmt.Errorf("%s requires a positive integer, got %q", f, val)
			}
			if f == "--chunksize" {
				o.ChunkSize = n
			} else {
				o.MemMB = n
			}
		case strings.HasPrefix(f, "-"):
			return o, fmt.Errorf("unknown option %s", f)
		case o.File == "":
			o.File = f
		default:
			return o, fmt.Errorf("unexpected argument %s", f)
		}
	}
	if !o.Help && o.File == "" {
		return o, fmt.Errorf("file name required")
	}
	return o, nil
}

// defaultTableName derives a table name from the file basename
func defaultTableName(file string) string {
	base := filepath.Base(file)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
