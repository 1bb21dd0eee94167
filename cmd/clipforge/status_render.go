package main

import (
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

// health classifies one line of `status` output.
type health int

const (
	healthInfo health = iota
	healthOK
	healthWarn
	healthErr
)

func (h health) label() string {
	switch h {
	case healthOK:
		return "OK"
	case healthWarn:
		return "WARN"
	case healthErr:
		return "ERROR"
	default:
		return "INFO"
	}
}

func (h health) color() text.Color {
	switch h {
	case healthOK:
		return text.FgGreen
	case healthWarn:
		return text.FgYellow
	case healthErr:
		return text.FgRed
	default:
		return text.FgBlue
	}
}

// statusReport writes the aligned, optionally colored sections of the
// `status` command.
type statusReport struct {
	out      io.Writer
	colorize bool
}

func (r statusReport) section(title string) {
	line := "== " + title + " =="
	if r.colorize {
		line = text.FgBlue.Sprint(line)
	}
	fmt.Fprintln(r.out, line)
}

func (r statusReport) line(label string, h health, message string) {
	state := "[" + h.label() + "]"
	if message != "" {
		state += " " + message
	}
	formatted := fmt.Sprintf("  %-16s %s", label+":", state)
	if r.colorize {
		formatted = h.color().Sprint(formatted)
	}
	fmt.Fprintln(r.out, formatted)
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
