package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
)

// UI prints human output to out and diagnostics to errOut. In JSON mode only
// JSON documents are written.
type UI struct {
	out      io.Writer
	errOut   io.Writer
	noColor  bool
	jsonMode bool
}

// NewUI creates a UI.
func NewUI(out, errOut io.Writer, jsonMode, noColor bool) *UI {
	return &UI{out: out, errOut: errOut, noColor: noColor, jsonMode: jsonMode}
}

func (ui *UI) paint(attr color.Attribute, format string, args ...interface{}) string {
	s := fmt.Sprintf(format, args...)
	if ui.noColor {
		return s
	}
	return color.New(attr).Sprint(s)
}

// Success prints a success message.
func (ui *UI) Success(format string, args ...interface{}) {
	if ui.jsonMode {
		return
	}
	fmt.Fprintln(ui.out, ui.paint(color.FgGreen, "✓ "+format, args...))
}

// Error prints an error message.
func (ui *UI) Error(format string, args ...interface{}) {
	if ui.jsonMode {
		return
	}
	fmt.Fprintln(ui.errOut, ui.paint(color.FgRed, "✗ "+format, args...))
}

// Warning prints a warning message.
func (ui *UI) Warning(format string, args ...interface{}) {
	if ui.jsonMode {
		return
	}
	fmt.Fprintln(ui.out, ui.paint(color.FgYellow, "⚠ "+format, args...))
}

// Info prints an info message.
func (ui *UI) Info(format string, args ...interface{}) {
	if ui.jsonMode {
		return
	}
	fmt.Fprintln(ui.out, ui.paint(color.FgCyan, "ℹ "+format, args...))
}

// Section prints a section header.
func (ui *UI) Section(title string) {
	if ui.jsonMode {
		return
	}
	fmt.Fprintln(ui.out)
	fmt.Fprintln(ui.out, ui.paint(color.FgMagenta, "━━━ %s ━━━", strings.ToUpper(title)))
	fmt.Fprintln(ui.out)
}

// KeyValue prints a key-value pair.
func (ui *UI) KeyValue(key string, value interface{}) {
	if ui.jsonMode {
		return
	}
	fmt.Fprintf(ui.out, "  %s %v\n", ui.paint(color.FgYellow, "%s:", key), value)
}

// Line prints a plain line.
func (ui *UI) Line(format string, args ...interface{}) {
	if ui.jsonMode {
		return
	}
	fmt.Fprintf(ui.out, format+"\n", args...)
}

// JSON writes v as an indented JSON document.
func (ui *UI) JSON(v any) error {
	enc := json.NewEncoder(ui.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Spinner shows message with an animated spinner until stop is called. It
// is a no-op in JSON mode and when stderr is not a terminal.
func (ui *UI) Spinner(message string) (stop func()) {
	if ui.jsonMode || !isTerminal(os.Stderr) {
		return func() {}
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " " + message
	s.Writer = os.Stderr
	s.Start()
	return s.Stop
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
