// Package model defines the domain types for the examsplit launcher CLI.
//
// The launcher performs a fixed sequence of environment probes before
// dispatching the exam-splitting tool: interpreter presence, interpreter
// version, required module imports, dependency installation. Each probe
// produces a CheckResult; the aggregate of a launch attempt is a
// LaunchReport. Nothing here touches the filesystem or network — these
// types are assembled by the python, manifest, and installer packages.
package model

import (
	"fmt"
	"strings"
	"time"
)

// CheckStatus represents the outcome of a single environment check.
// The doctor command renders one CheckResult per probe, and the run
// command aborts on the first failing check in its pipeline.
type CheckStatus string

const (
	// StatusPass indicates the check succeeded and the launch can proceed.
	StatusPass CheckStatus = "pass"

	// StatusWarn indicates a non-fatal finding. The launch proceeds, but
	// the user should be told (e.g., tesseract missing for OCR fallback).
	StatusWarn CheckStatus = "warn"

	// StatusFail indicates a fatal finding. The run pipeline stops and the
	// doctor command exits non-zero when any check has this status.
	StatusFail CheckStatus = "fail"

	// StatusSkip indicates the check did not apply in the current
	// configuration (e.g., Docker probe when container mode is off).
	StatusSkip CheckStatus = "skip"
)

// String returns the string representation of CheckStatus.
// This method satisfies the fmt.Stringer interface, enabling
// human-readable output in CLI commands and logging.
func (s CheckStatus) String() string {
	return string(s)
}

// IsValid checks whether the CheckStatus value is one of the
// predefined valid states.
func (s CheckStatus) IsValid() bool {
	switch s {
	case StatusPass, StatusWarn, StatusFail, StatusSkip:
		return true
	default:
		return false
	}
}

// ParseCheckStatus converts a string to a CheckStatus.
// Returns an error if the string does not match any valid status.
func ParseCheckStatus(s string) (CheckStatus, error) {
	status := CheckStatus(strings.ToLower(s))
	if !status.IsValid() {
		return "", fmt.Errorf("invalid check status: %q (valid: pass, warn, fail, skip)", s)
	}
	return status, nil
}

// CheckResult is the outcome of a single environment probe, as shown by
// the doctor command and consulted by the run pipeline.
type CheckResult struct {
	// Name identifies the probe (e.g., "python", "module:cv2", "pip").
	Name string `json:"name"`

	// Status is the probe outcome.
	Status CheckStatus `json:"status"`

	// Detail is a short human-readable finding (version found, path used,
	// error summary). Shown in the doctor table's DETAIL column.
	Detail string `json:"detail,omitempty"`

	// Guidance holds remediation hints printed under failing checks,
	// one line each (e.g., "Install Python 3.8+ and expose it on PATH").
	Guidance []string `json:"guidance,omitempty"`
}

// Failed reports whether this check should abort a launch.
// Warnings and skips never abort.
func (c CheckResult) Failed() bool {
	return c.Status == StatusFail
}

// AnyFailed reports whether any check in the slice failed. The doctor
// command uses this to decide its process exit code.
func AnyFailed(checks []CheckResult) bool {
	for _, c := range checks {
		if c.Failed() {
			return true
		}
	}
	return false
}

// Interpreter describes a resolved Python interpreter on the host.
// The Version field is the raw version string ("3.11.4"); semantic
// comparison against the manifest minimum happens in the python package
// so that model stays dependency-free.
type Interpreter struct {
	// Binary is the command name that was probed (e.g., "python3").
	Binary string `json:"binary"`

	// Path is the absolute path resolved via PATH lookup.
	Path string `json:"path"`

	// Version is the interpreter version as reported by --version,
	// without the "Python " prefix (e.g., "3.11.4").
	Version string `json:"version"`
}

// String returns a human-readable "binary (version) at path" form used
// in verbose logging and doctor output.
func (i Interpreter) String() string {
	if i.Version == "" {
		return fmt.Sprintf("%s at %s", i.Binary, i.Path)
	}
	return fmt.Sprintf("%s %s at %s", i.Binary, i.Version, i.Path)
}

// Requirement is a single entry parsed from a pip requirements manifest.
// Only the subset of the requirements grammar the launcher needs is
// modeled: name, optional version constraint, and editable installs.
type Requirement struct {
	// Name is the distribution name (e.g., "paddleocr"). Empty for
	// editable installs, where Raw carries the whole line.
	Name string `json:"name"`

	// Constraint is the version constraint as written ("==2.7.0",
	// ">=1.24", ""). The launcher passes it through to pip untouched.
	Constraint string `json:"constraint,omitempty"`

	// Editable marks "-e <path-or-url>" lines, which are forwarded to
	// pip verbatim via Raw.
	Editable bool `json:"editable,omitempty"`

	// Raw is the original manifest line with surrounding whitespace and
	// trailing comments stripped.
	Raw string `json:"raw"`
}

// String returns the requirement in the form pip would accept.
func (r Requirement) String() string {
	return r.Raw
}

// LaunchReport summarizes a completed (or aborted) run pipeline.
// It is rendered as text or JSON by the run command.
type LaunchReport struct {
	// Interpreter is the resolved interpreter, zero-valued in
	// container mode where no host interpreter is used.
	Interpreter Interpreter `json:"interpreter"`

	// InstallRan is true when the dependency install step executed.
	InstallRan bool `json:"installRan"`

	// InstallSkipReason explains why the install step was skipped
	// ("all modules present", "--skip-install"). Empty when it ran.
	InstallSkipReason string `json:"installSkipReason,omitempty"`

	// ExitCode is the exit code of the dispatched entry-point script.
	ExitCode int `json:"exitCode"`

	// Duration is the wall-clock time of the entry-point run only,
	// excluding probes and installation.
	Duration time.Duration `json:"duration"`
}

// ExitCode defines the CLI exit codes. These form the operational
// contract with wrapper scripts and CI: the two fatal launcher
// conditions (interpreter missing, install failed) share code 1, while
// configuration and Docker problems are distinguishable. A failing
// entry-point script propagates its own exit code instead of these.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitLaunchFailure indicates the launch could not proceed:
	// interpreter not found, version too old, or dependency
	// installation failed. Also the fallback for unspecified errors.
	ExitLaunchFailure ExitCode = 1

	// ExitManifestInvalid indicates the launcher manifest or the
	// requirements file could not be parsed or failed validation.
	ExitManifestInvalid ExitCode = 2

	// ExitDockerUnavailable indicates container mode was requested but
	// the Docker daemon is not reachable.
	ExitDockerUnavailable ExitCode = 3
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
