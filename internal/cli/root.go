// Package cli implements the cobra-based CLI commands for examsplit.
//
// Each subcommand (run, doctor, install) is defined in its own file
// within this package. This file defines the root command that serves as
// the parent for all subcommands and handles global flags.
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/exam-tools/examsplit/internal/logger"
	"github.com/exam-tools/examsplit/internal/model"
)

// Global flag variables shared across all subcommands.
// These are bound to cobra persistent flags on the root command,
// which makes them available to every subcommand automatically.
var (
	// jsonOutput controls whether command output is formatted as JSON.
	// When true, all output uses structured JSON format for machine consumption.
	// When false (default), output uses human-readable text format.
	jsonOutput bool

	// verbose enables debug-level diagnostic logging on stderr.
	verbose bool

	// pauseBeforeExit mirrors the run command's --pause flag so a fatal
	// launch error also waits for Enter after its message is printed,
	// keeping it readable in a terminal window that closes on exit.
	pauseBeforeExit bool
)

// diag is the diagnostic logger for probe traces and subprocess argv.
// It writes to stderr only; stdout stays reserved for command output.
// Reconfigured in PersistentPreRun once the --verbose flag is parsed.
var diag *charmlog.Logger = logger.New(false)

// version, commit, and date are set at build time via ldflags.
// They are injected from the main package to display version information.
var (
	// Version is the semantic version of the binary (e.g., "1.0.0").
	Version = "dev"

	// Commit is the Git commit hash the binary was built from.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// NewRootCommand creates and configures the root cobra command.
// This is the entry point for the entire CLI application.
//
// The root command itself does not perform any action — it only provides
// help text and global flags. Actual functionality is provided by
// subcommands (run, doctor, install).
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "examsplit",
		Short: "Environment-checked launcher for the exam-paper splitting tool",
		Long: `examsplit checks the Python environment the exam-paper splitting tool
needs, installs its dependencies when they are missing, and dispatches
the tool with the right interpreter.

The launch pipeline probes the interpreter, verifies its version,
import-checks the required modules, and only then runs pip — so a
machine with everything in place goes straight to the tool.`,

		// SilenceUsage prevents cobra from printing usage on every error.
		// We handle error output ourselves for cleaner UX.
		SilenceUsage: true,

		// SilenceErrors prevents cobra from printing errors automatically.
		// We format errors ourselves (text or JSON based on --json flag).
		SilenceErrors: true,

		// Version is displayed when --version flag is used.
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),

		// Reconfigure the diagnostic logger once flags are parsed, so
		// --verbose applies to every subcommand.
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			diag = logger.New(verbose)
		},
	}

	// PersistentFlags are inherited by all subcommands.
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	// Register subcommands. Each subcommand is defined in its own file
	// (run.go, doctor.go, install.go) and returns a *cobra.Command.
	rootCmd.AddCommand(NewRunCommand())
	rootCmd.AddCommand(NewDoctorCommand())
	rootCmd.AddCommand(NewInstallCommand())

	return rootCmd
}

// Execute runs the root command and handles exit codes.
// This is the main entry point called from main.go.
//
// It inspects errors returned by cobra commands and translates them
// into appropriate OS exit codes. CLIError types carry their own
// exit codes; other errors default to exit code 1.
func Execute(rootCmd *cobra.Command) {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(int(finishWithError(err)))
	}
}

// finishWithError prints the error, honors the run command's pause, and
// returns the process exit code. The pause comes after the message so
// the user acknowledges the failure with it still on screen.
func finishWithError(err error) model.ExitCode {
	code := model.ExitLaunchFailure
	if cliErr, ok := err.(*model.CLIError); ok {
		code = cliErr.Code
		printError(cliErr.Message, cliErr.Err)
	} else {
		// Generic error — exit with code 1.
		printError(err.Error(), nil)
	}
	waitForEnter(pauseBeforeExit)
	return code
}

// printError outputs an error message in the appropriate format
// (JSON or text) based on the --json global flag.
func printError(message string, underlying error) {
	if jsonOutput {
		errObj := map[string]interface{}{
			"error": map[string]interface{}{
				"message": message,
			},
		}
		if underlying != nil {
			if errMap, ok := errObj["error"].(map[string]interface{}); ok {
				errMap["detail"] = underlying.Error()
			}
		}
		// Errors go to stderr even in JSON mode, because stdout is
		// reserved for successful command output.
		data, _ := json.MarshalIndent(errObj, "", "  ")
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		if underlying != nil {
			fmt.Fprintf(os.Stderr, "Error: %s: %v\n", message, underlying)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %s\n", message)
		}
	}
}

// IsJSONOutput returns whether the --json flag is set.
// Subcommands use this to decide their output format.
func IsJSONOutput() bool {
	return jsonOutput
}
