package main

import (
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

type checkState int

const (
	stateOK checkState = iota
	stateFailed
)

func (s checkState) label() string {
	if s == stateFailed {
		return "FAILED"
	}
	return "OK"
}

func (s checkState) colors() text.Colors {
	if s == stateFailed {
		return text.Colors{text.FgRed, text.Bold}
	}
	return text.Colors{text.FgGreen}
}

// render returns the state label, coloured when colorize is set.
func (s checkState) render(colorize bool) string {
	if !colorize {
		return s.label()
	}
	return s.colors().Sprint(s.label())
}

// shouldColorize reports whether writer is an interactive terminal.
func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
