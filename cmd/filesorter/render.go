package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const ansiReset = "\x1b[0m"

var statusStyles = map[statusKind]struct {
	label string
	color string
}{
	statusInfo:  {"INFO", "\x1b[34m"},
	statusOK:    {"OK", "\x1b[32m"},
	statusWarn:  {"WARN", "\x1b[33m"},
	statusError: {"ERROR", "\x1b[31m"},
}

func (k statusKind) String() string {
	if style, ok := statusStyles[k]; ok {
		return style.label
	}
	return statusStyles[statusInfo].label
}

func (k statusKind) paint(s string) string {
	style, ok := statusStyles[k]
	if !ok {
		return s
	}
	return style.color + s + ansiReset
}

// Labels are padded so messages line up across a block of status lines.
const statusLabelWidth = 14

func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "  %-*s [%s]", statusLabelWidth, label+":", kind)
	if message != "" {
		b.WriteByte(' ')
		b.WriteString(message)
	}
	if colorize {
		return kind.paint(b.String())
	}
	return b.String()
}

func renderSectionHeader(title string, colorize bool) []string {
	line := "== " + strings.TrimSpace(title) + " =="
	lines := []string{line, strings.Repeat("-", len(line))}
	if colorize {
		for i := range lines {
			lines[i] = statusInfo.paint(lines[i])
		}
	}
	return lines
}

// tallyKind grades a finished run: any failure is an error, a cancelled run a
// warning, and a run that moved nothing is informational.
func tallyKind(moved, failed int, cancelled bool) statusKind {
	switch {
	case failed > 0:
		return statusError
	case cancelled:
		return statusWarn
	case moved == 0:
		return statusInfo
	default:
		return statusOK
	}
}

func tallyMessage(moved, skipped, failed int, took string, cancelled bool) string {
	msg := fmt.Sprintf("moved %d, skipped %d, failed %d in %s", moved, skipped, failed, took)
	if cancelled {
		msg += " (cancelled)"
	}
	return msg
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func writeLines(w io.Writer, lines ...string) {
	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
}
