package shell

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"desshell/internal/catalog"
	"desshell/internal/domain"
)

// Night-sky palette with the usual semantic colors
var (
	colorTitle   = lipgloss.Color("#5FAFFF") // steel blue, headers and the prompt
	colorSuccess = lipgloss.Color("#2CD7A7")
	colorError   = lipgloss.Color("#E74C3C")
	colorHint    = lipgloss.Color("#56B6C2")
	colorMuted   = lipgloss.Color("#5C6370")
)

var styles = struct {
	Title   lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Hint    lipgloss.Style
	Muted   lipgloss.Style
}{
	Title:   lipgloss.NewStyle().Bold(true).Foreground(colorTitle),
	Success: lipgloss.NewStyle().Foreground(colorSuccess),
	Error:   lipgloss.NewStyle().Foreground(colorError),
	Hint:    lipgloss.NewStyle().Foreground(colorHint),
	Muted:   lipgloss.NewStyle().Foreground(colorMuted),
}

// Printer writes the shell's user-facing output. With noColor set all
// styling is dropped, keeping the output greppable in scripts and
// stable in tests.
type Printer struct {
	w       io.Writer
	noColor bool
}

func NewPrinter(w io.Writer, noColor bool) *Printer {
	return &Printer{w: w, noColor: noColor}
}

func (p *Printer) render(s lipgloss.Style, text string) string {
	if p.noColor {
		return text
	}
	return s.Render(text)
}

// Prompt writes the prompt without a trailing newline
func (p *Printer) Prompt(text string) {
	fmt.Fprint(p.w, p.render(styles.Title, text))
}

func (p *Printer) Plainf(format string, args ...any) {
	fmt.Fprintf(p.w, format+"\n", args...)
}

func (p *Printer) Titlef(format string, args ...any) {
	fmt.Fprintln(p.w, p.render(styles.Title, fmt.Sprintf(format, args...)))
}

func (p *Printer) Successf(format string, args ...any) {
	fmt.Fprintln(p.w, p.render(styles.Success, fmt.Sprintf(format, args...)))
}

func (p *Printer) Errorf(format string, args ...any) {
	fmt.Fprintln(p.w, p.render(styles.Error, "ERROR: "+fmt.Sprintf(format, args...)))
}

func (p *Printer) Hintf(format string, args ...any) {
	fmt.Fprintln(p.w, p.render(styles.Hint, fmt.Sprintf(format, args...)))
}

// Table renders a query result as space-aligned columns with a row
// count underneath
func (p *Printer) Table(res *catalog.Result) {
	if res == nil || len(res.Columns) == 0 {
		p.Plainf("0 rows returned")
		return
	}

	widths := make([]int, len(res.Columns))
	for i, name := range res.Columns {
		widths[i] = len(name)
	}
	cells := make([][]string, len(res.Rows))
	for r, row := range res.Rows {
		cells[r] = make([]string, len(res.Columns))
		for c := range res.Columns {
			var text string
			if c < len(row) {
				text = domain.FormatCell(row[c])
			}
			cells[r][c] = text
			if len(text) > widths[c] {
				widths[c] = len(text)
			}
		}
	}

	var line strings.Builder
	writeRow := func(values []string) {
		line.Reset()
		for c, v := range values {
			if c > 0 {
				line.WriteString("  ")
			}
			line.WriteString(v)
			if c < len(values)-1 {
				line.WriteString(strings.Repeat(" ", widths[c]-len(v)))
			}
		}
		fmt.Fprintln(p.w, strings.TrimRight(line.String(), " "))
	}

	fmt.Fprintln(p.w, p.render(styles.Title, headerLine(res.Columns, widths)))
	for _, row := range cells {
		writeRow(row)
	}

	word := "rows"
	if len(res.Rows) == 1 {
		word = "row"
	}
	fmt.Fprintln(p.w, p.render(styles.Muted, fmt.Sprintf("\n%d %s returned", len(res.Rows), word)))
}

func headerLine(names []string, widths []int) string {
	var b strings.Builder
	for i, name := range names {
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(name)
		if i < len(names)-1 {
			b.WriteString(strings.Repeat(" ", widths[i]-len(name)))
		}
	}
	return b.String()
}
