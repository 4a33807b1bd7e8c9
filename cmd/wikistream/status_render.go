package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"wikistream/internal/pipeline"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset     = "\x1b[0m"
	ansiRed       = "\x1b[31m"
	ansiGreen     = "\x1b[32m"
	ansiYellow    = "\x1b[33m"
	ansiBlue      = "\x1b[34m"
	ansiClearLine = "\r\x1b[2K"
)

var statusStyles = map[statusKind]struct{ label, color string }{
	statusInfo:  {"INFO", ansiBlue},
	statusOK:    {"OK", ansiGreen},
	statusWarn:  {"WARN", ansiYellow},
	statusError: {"ERROR", ansiRed},
}

func paint(s, color string, colorize bool) string {
	if !colorize || color == "" {
		return s
	}
	return color + s + ansiReset
}

// renderStatusLine formats "  Label:   [KIND] message" with a fixed label column.
func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	style := statusStyles[kind]
	var b strings.Builder
	fmt.Fprintf(&b, "  %-20s [%s]", label+":", style.label)
	if message != "" {
		b.WriteByte(' ')
		b.WriteString(message)
	}
	return paint(b.String(), style.color, colorize)
}

func renderSectionHeader(title string, colorize bool) []string {
	line := "== " + strings.TrimSpace(title) + " =="
	return []string{
		paint(line, ansiBlue, colorize),
		paint(strings.Repeat("-", len(line)), ansiBlue, colorize),
	}
}

func shouldColorize(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

// progressReporter prints pipeline snapshots. On a terminal the line is
// redrawn in place; otherwise every snapshot gets its own line.
type progressReporter struct {
	out io.Writer
	tty bool
}

func newProgressReporter(out io.Writer) *progressReporter {
	return &progressReporter{out: out, tty: shouldColorize(out)}
}

func (r *progressReporter) Report(s pipeline.Snapshot) {
	line := pipeline.FormatSnapshot(s)
	if !r.tty {
		fmt.Fprintln(r.out, line)
		return
	}
	kind := statusInfo
	if s.Final {
		kind = statusOK
	}
	fmt.Fprint(r.out, ansiClearLine+paint(line, statusStyles[kind].color, true))
	if s.Final {
		fmt.Fprintln(r.out)
	}
}
