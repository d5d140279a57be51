package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// printer writes user facing messages; logs go to slog on stderr
type printer struct {
	out io.Writer

	ok   *color.Color
	warn *color.Color
	fail *color.Color
	info *color.Color
}

func newPrinter(out io.Writer) *printer {
	return &printer{
		out:  out,
		ok:   color.New(color.FgGreen),
		warn: color.New(color.FgYellow),
		fail: color.New(color.FgRed),
		info: color.New(color.FgCyan),
	}
}

func (p *printer) Success(format string, args ...any) {
	p.ok.Fprintf(p.out, format+"\n", args...)
}

func (p *printer) Warn(format string, args ...any) {
	p.warn.Fprintf(p.out, format+"\n", args...)
}

func (p *printer) Error(err error) {
	p.fail.Fprintf(p.out, "Error: %v\n", err)
}

func (p *printer) Plain(format string, args ...any) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

// Report implements processor.ProgressSink
func (p *printer) Report(msg string) {
	if msg == "" {
		return
	}
	p.info.Fprintln(p.out, msg)
}

// PrintError prints a command error in red
func PrintError(w io.Writer, err error) {
	newPrinter(w).Error(err)
}
