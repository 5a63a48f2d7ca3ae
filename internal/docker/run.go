// run.go dispatches the entry point inside a container for the
// --container run mode. The project directory is bind-mounted at the
// configured workdir so input files and the tool's output directory
// behave exactly as a host run.
//
// The run itself shells out to "docker run" rather than driving the SDK:
// image pulls, TTY handling, and progress output then match what users
// see with docker directly, and the argument list stays auditable in
// verbose logs.
package docker

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/exam-tools/examsplit/internal/model"
)

// RunSpec describes a containerized entry-point dispatch.
type RunSpec struct {
	// Image is the Docker image carrying the interpreter and the
	// tool's native dependencies.
	Image string

	// ProjectDir is the absolute host path bind-mounted into the
	// container.
	ProjectDir string

	// Workdir is the mount point and working directory inside the
	// container.
	Workdir string

	// EntryPoint is the script path relative to Workdir.
	EntryPoint string

	// Args are the entry point's arguments (positional inputs plus
	// manifest extra args).
	Args []string

	// Env are extra KEY=VALUE pairs passed into the container.
	Env []string
}

// BuildRunArgs constructs the "docker run" argument list for a spec.
// Split out from RunPipeline as a pure function so the exact argv is
// unit-testable without a daemon.
func BuildRunArgs(spec RunSpec) []string {
	args := []string{
		"run", "--rm",
		"-v", fmt.Sprintf("%s:%s", spec.ProjectDir, spec.Workdir),
		"-w", spec.Workdir,
	}
	for _, e := range spec.Env {
		args = append(args, "-e", e)
	}
	// Interactive stdin lets the tool's own prompts work; no TTY flag
	// because the launcher may itself be running non-interactively.
	args = append(args, "-i", spec.Image, "python", spec.EntryPoint)
	args = append(args, spec.Args...)
	return args
}

// RunPipeline runs the entry point inside the container and returns the
// child's exit code. Stdio is inherited so the tool's progress output
// reaches the terminal.
//
// A non-zero container exit is NOT an error — the caller propagates it.
// An error is returned only when docker itself could not be invoked.
func RunPipeline(ctx context.Context, spec RunSpec) (int, error) {
	// #nosec G204 — argv is built from the manifest and CLI flags, not remote input
	cmd := exec.CommandContext(ctx, "docker", BuildRunArgs(spec)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode(), nil
	}
	return -1, model.WrapCLIError(
		model.ExitDockerUnavailable,
		fmt.Sprintf("failed to run container image %q", spec.Image),
		err,
	)
}
