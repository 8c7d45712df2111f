package commands

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Output prints user facing messages
type Output interface {
	Printf(format string, a ...any)
	Println(a ...any)
	Success(format string, a ...any)
	Info(format string, a ...any)
	Warn(format string, a ...any)
	Error(format string, a ...any)
	KeyValue(key, value string)
}

// ConsoleOutput writes styled messages to a writer
type ConsoleOutput struct {
	w       io.Writer
	noColor bool

	success lipgloss.Style
	info    lipgloss.Style
	warn    lipgloss.Style
	err     lipgloss.Style
	key     lipgloss.Style
}

// NewConsoleOutput creates an output writing to w. With noColor every
// message is written unstyled.
func NewConsoleOutput(w io.Writer, noColor bool) *ConsoleOutput {
	r := lipgloss.NewRenderer(w)
	return &ConsoleOutput{
		w:       w,
		noColor: noColor,
		success: r.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
		info:    r.NewStyle().Foreground(lipgloss.Color("4")),
		warn:    r.NewStyle().Foreground(lipgloss.Color("3")),
		err:     r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		key:     r.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

func (o *ConsoleOutput) paint(style lipgloss.Style, s string) string {
	if o.noColor {
		return s
	}
	return style.Render(s)
}

func (o *ConsoleOutput) Printf(format string, a ...any) {
	fmt.Fprintf(o.w, format, a...)
}

func (o *ConsoleOutput) Println(a ...any) {
	fmt.Fprintln(o.w, a...)
}

func (o *ConsoleOutput) Success(format string, a ...any) {
	fmt.Fprintln(o.w, o.paint(o.success, "✔ "+fmt.Sprintf(format, a...)))
}

func (o *ConsoleOutput) Info(format string, a ...any) {
	fmt.Fprintln(o.w, o.paint(o.info, "› "+fmt.Sprintf(format, a...)))
}

func (o *ConsoleOutput) Warn(format string, a ...any) {
	fmt.Fprintln(o.w, o.paint(o.warn, "! "+fmt.Sprintf(format, a...)))
}

func (o *ConsoleOutput) Error(format string, a ...any) {
	fmt.Fprintln(o.w, o.paint(o.err, "✖ "+fmt.Sprintf(format, a...)))
}

// KeyValue prints an aligned "key: value" line
func (o *ConsoleOutput) KeyValue(key, value string) {
	fmt.Fprintf(o.w, "  %s %s\n", o.paint(o.key, fmt.Sprintf("%-16s", key+":")), value)
}
