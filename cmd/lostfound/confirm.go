package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"

	"lostfound/internal/model"
)

var errNotInteractive = errors.New("confirmation required: run from a terminal or pass --yes")

// isTerminal reports whether r is attached to a terminal.
func isTerminal(r io.Reader) bool {
	if f, ok := r.(interface{ Fd() uintptr }); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}

// confirm asks a yes/no question on out and reads the answer from in.
// Non-terminal input is refused so scripts must opt in explicitly.
func confirm(in io.Reader, out io.Writer, question string) (bool, error) {
	if !isTerminal(in) {
		return false, errNotInteractive
	}
	return readConfirmation(in, out, question)
}

func readConfirmation(in io.Reader, out io.Writer, question string) (bool, error) {
	fmt.Fprintf(out, "%s [y/N]: ", question)

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("reading answer: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes", "t", "tak":
		return true, nil
	}
	return false, nil
}

// statusLabel colours operation and item statuses for terminal output.
func statusLabel(status string) string {
	switch status {
	case "success", string(model.StatusFound):
		return color.GreenString("%-10s", status)
	case "error":
		return color.RedString("%-10s", status)
	case string(model.StatusReturned):
		return color.CyanString("%-10s", status)
	default:
		return color.YellowString("%-10s", status)
	}
}
