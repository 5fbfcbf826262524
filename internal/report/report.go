// Package report renders configuration diagnostics and hook listings for
// terminal output.
package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/rodaine/table"
)

var (
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F5F")).Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFAA00"))
	codeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#0099FF"))
	boldStyle  = lipgloss.NewStyle().Bold(true)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00D787"))
)

// Diagnostic is an error that can point at the configuration entry at fault.
type Diagnostic interface {
	error
	Code() string
	Help() string
	Subject() string
	Label() string
}

// Row is one hook in a listing.
type Row struct {
	Name    string
	Event   string
	Command []string
}

// Printer writes styled output; styling is dropped when the writer is not a
// terminal or NO_COLOR is set.
type Printer struct {
	w     io.Writer
	color bool
}

// New returns a Printer for w.
func New(w io.Writer) *Printer {
	return &Printer{w: w, color: colorEnabled(w)}
}

// Plain returns a Printer that never styles.
func Plain(w io.Writer) *Printer {
	return &Printer{w: w}
}

func colorEnabled(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (p *Printer) style(s lipgloss.Style, text string) string {
	if !p.color {
		return text
	}
	return s.Render(text)
}

// Error renders err. Diagnostics get a pointer at the faulty key or value and
// a help line; other errors print as a single line.
func (p *Printer) Error(err error) {
	var d Diagnostic
	if !errors.As(err, &d) {
		fmt.Fprintf(p.w, "%s %v\n", p.style(errorStyle, "×"), err)
		return
	}
	subject := d.Subject()
	fmt.Fprintf(p.w, "%s %s\n", p.style(errorStyle, "×"), p.style(boldStyle, d.Error()))
	fmt.Fprintf(p.w, "  %s\n", p.style(codeStyle, d.Code()))
	fmt.Fprintf(p.w, "   ╭─[plugin]\n")
	fmt.Fprintf(p.w, "   │ %s\n", subject)
	fmt.Fprintf(p.w, "   │ %s\n", p.style(labelStyle, strings.Repeat("─", max(1, lipgloss.Width(subject)))+" "+d.Label()))
	fmt.Fprintf(p.w, "   ╰─\n")
	fmt.Fprintf(p.w, "  %s %s\n", p.style(helpStyle, "help:"), d.Help())
}

// OK prints a success line.
func (p *Printer) OK(format string, args ...any) {
	fmt.Fprintf(p.w, "%s %s\n", p.style(okStyle, "✓"), fmt.Sprintf(format, args...))
}

// Hooks prints rows as an aligned table.
func (p *Printer) Hooks(rows []Row) {
	if len(rows) == 0 {
		fmt.Fprintln(p.w, p.style(codeStyle, "no hooks configured"))
		return
	}
	tbl := table.New("NAME", "EVENT", "COMMAND").WithWriter(p.w).WithPadding(2)
	tbl.WithWidthFunc(lipgloss.Width)
	if p.color {
		tbl.WithHeaderFormatter(func(format string, vals ...interface{}) string {
			return boldStyle.Render(fmt.Sprintf(format, vals...))
		})
	}
	for _, r := range rows {
		tbl.AddRow(r.Name, r.Event, FormatArgv(r.Command))
	}
	tbl.Print()
}

// FormatArgv quotes arguments that contain spaces or are empty.
func FormatArgv(argv []string) string {
	parts := make([]string, len(argv))
	for i, a := range argv {
		if a == "" || strings.ContainsAny(a, " \t\"'") {
			parts[i] = fmt.Sprintf("%q", a)
		} else {
			parts[i] = a
		}
	}
	return strings.Join(parts, " ")
}
