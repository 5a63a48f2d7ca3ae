// Package model defines the domain types and value objects for the
// examsplit launcher CLI.
//
// This package contains pure data structures with no external dependencies.
// All entities (CheckResult, Interpreter, Requirement, LaunchReport) are
// transient values produced by probing the host environment at runtime —
// the launcher keeps no persistent state.
//
// The package also defines exit codes (ExitCode) and a custom error type
// (CLIError) that carries exit codes for proper OS process exit handling.
package model
