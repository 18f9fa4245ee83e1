// Package formatter holds the terminal palette and status lines shared by
// every command. Structured data goes through package output.
package formatter

import (
	"github.com/fatih/color"
	"github.com/zfogg/chirp/cli/pkg/output"
)

var (
	Bold   = color.New(color.Bold)
	Dim    = color.New(color.Faint)
	Handle = color.New(color.FgCyan, color.Bold)
	Accent = color.New(color.FgMagenta)
)

func PrintSuccess(format string, args ...interface{}) {
	output.PrintSuccess(format, args...)
}

func PrintError(format string, args ...interface{}) {
	output.PrintError(format, args...)
}

func PrintInfo(format string, args ...interface{}) {
	output.PrintInfo(format, args...)
}

func PrintWarning(format string, args ...interface{}) {
	output.PrintWarning(format, args...)
}

// PrintKeyValue prints a record as sorted key: value lines, or JSON with --output json
func PrintKeyValue(data map[string]interface{}) {
	_ = output.PrintRecord("", data)
}
