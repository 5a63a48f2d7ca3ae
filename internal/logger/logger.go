// Package logger configures the diagnostic logger for the examsplit CLI.
//
// Diagnostics (probe traces, resolved paths, subprocess argv) go to stderr
// through github.com/charmbracelet/log, keeping stdout reserved for command
// output (text tables or JSON). The --verbose flag switches the level from
// Warn to Debug; user-facing results never go through this logger.
package logger

import (
	"os"

	charmlog "github.com/charmbracelet/log"
)

// New creates the CLI diagnostic logger. With verbose=false only warnings
// and errors surface, so normal runs stay quiet on stderr.
func New(verbose bool) *charmlog.Logger {
	l := charmlog.NewWithOptions(os.Stderr, charmlog.Options{
		ReportTimestamp: false,
	})
	if verbose {
		l.SetLevel(charmlog.DebugLevel)
	} else {
		l.SetLevel(charmlog.WarnLevel)
	}
	return l
}
