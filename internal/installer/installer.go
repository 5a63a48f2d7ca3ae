// Package installer runs the dependency installation step of the launch
// pipeline: "python -m pip install -r <requirements>".
//
// Installation is the only mutating step the launcher performs, so it is
// serialized with an exclusive file lock (github.com/gofrs/flock) held
// next to the requirements manifest. Two launches racing on the same
// project wait on each other instead of running pip concurrently into
// the same site-packages.
package installer

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/exam-tools/examsplit/internal/model"
)

// lockRetryInterval is how often a blocked launch re-attempts the
// install lock while waiting for a concurrent pip run to finish.
const lockRetryInterval = 500 * time.Millisecond

// lockFileName is the lock file placed in the requirements manifest's
// directory. Dot-prefixed so it stays out of the tool's own file listings.
const lockFileName = ".examsplit-install.lock"

// Installer runs pip installs for a resolved interpreter.
//
// The struct is currently stateless but exists as a receiver so future
// options (quiet mode, custom pip binary) can be added without breaking
// callers.
type Installer struct{}

// New creates an Installer instance.
func New() *Installer {
	return &Installer{}
}

// BuildArgs constructs the interpreter argument list for the install
// invocation. pip is invoked as a module ("-m pip") so packages land in
// the same interpreter that will run the entry point, and extra flags
// from the manifest are appended last so they can override defaults.
func BuildArgs(requirementsPath string, extraFlags []string) []string {
	args := make([]string, 0, 5+len(extraFlags))
	args = append(args, "-m", "pip", "install", "-r", requirementsPath)
	args = append(args, extraFlags...)
	return args
}

// LockPath returns the install lock file path for a requirements
// manifest: a fixed name in the manifest's directory, so every launch of
// the same project contends on the same lock regardless of invocation
// directory.
func LockPath(requirementsPath string) string {
	return filepath.Join(filepath.Dir(requirementsPath), lockFileName)
}

// Install runs pip against the requirements manifest under the install
// lock, streaming pip's output to the terminal. It blocks until a
// concurrent install (if any) releases the lock or ctx is cancelled.
//
// Returns a model.CLIError with ExitLaunchFailure (exit code 1) when the
// install fails — the "dependency installation failed" fatal condition
// of the launcher.
func (i *Installer) Install(ctx context.Context, interp model.Interpreter, requirementsPath string, extraFlags []string) error {
	lock := flock.New(LockPath(requirementsPath))

	locked, err := lock.TryLockContext(ctx, lockRetryInterval)
	if err != nil {
		return model.WrapCLIError(
			model.ExitLaunchFailure,
			"could not acquire the install lock",
			err,
		)
	}
	if !locked {
		return model.NewCLIError(
			model.ExitLaunchFailure,
			"another installation is in progress",
		)
	}
	defer func() { _ = lock.Unlock() }()

	// pip's progress output goes straight to the terminal: a several-
	// hundred-megabyte OCR stack download with no feedback looks hung.
	// #nosec G204 — requirementsPath and flags come from the manifest, not remote input
	cmd := exec.CommandContext(ctx, interp.Path, BuildArgs(requirementsPath, extraFlags)...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return model.WrapCLIError(
			model.ExitLaunchFailure,
			fmt.Sprintf("dependency installation failed (pip install -r %s)", requirementsPath),
			err,
		)
	}
	return nil
}
