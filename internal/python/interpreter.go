package python

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/exam-tools/examsplit/internal/model"
)

// DefaultCandidates is the interpreter probe order used when neither the
// manifest nor the --python flag names a binary. "python3" comes first
// because "python" still resolves to Python 2 on some systems, and "py"
// covers the Windows launcher.
var DefaultCandidates = []string{"python3", "python", "py"}

// envOverride is the environment variable that, when set, is prepended to
// the candidate list. It lets users pin a virtualenv interpreter without
// editing the manifest.
const envOverride = "EXAMSPLIT_PYTHON"

// Manager resolves and drives Python interpreters.
//
// The lookPath field is injectable so tests can simulate hosts with or
// without an interpreter on PATH, without touching the real environment.
type Manager struct {
	lookPath func(string) (string, error)
}

// Options configures a Manager. The zero value uses exec.LookPath.
type Options struct {
	// LookPath overrides PATH resolution. Tests use this to simulate
	// missing or present binaries.
	LookPath func(string) (string, error)
}

// NewManager creates a Manager with the given options.
func NewManager(opts Options) *Manager {
	lookPath := opts.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	return &Manager{lookPath: lookPath}
}

// Candidates builds the interpreter probe list: the explicit override
// (from --python) first, then $EXAMSPLIT_PYTHON, then the manifest
// candidates, then DefaultCandidates. Duplicates are removed while
// preserving first-occurrence order.
func Candidates(override string, manifestCandidates []string) []string {
	var out []string
	seen := make(map[string]bool)

	add := func(c string) {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			return
		}
		seen[c] = true
		out = append(out, c)
	}

	add(override)
	add(os.Getenv(envOverride))
	for _, c := range manifestCandidates {
		add(c)
	}
	for _, c := range DefaultCandidates {
		add(c)
	}
	return out
}

// Resolve finds the first candidate binary present on PATH and probes its
// version. Returns a model.CLIError with ExitLaunchFailure (exit code 1)
// when no candidate resolves — this is the "interpreter not found" fatal
// condition of the launcher.
//
// A candidate that resolves but fails the version probe is still
// returned (with an empty Version) rather than skipped: a broken
// interpreter is more useful to report than a silent fallthrough to a
// different one.
func (m *Manager) Resolve(ctx context.Context, candidates []string) (model.Interpreter, error) {
	for _, bin := range candidates {
		path, err := m.lookPath(bin)
		if err != nil {
			continue
		}

		interp := model.Interpreter{Binary: bin, Path: path}
		if version, verr := m.Version(ctx, path); verr == nil {
			interp.Version = version
		}
		return interp, nil
	}

	return model.Interpreter{}, model.NewCLIError(
		model.ExitLaunchFailure,
		fmt.Sprintf("python interpreter not found (tried: %s)", strings.Join(candidates, ", ")),
	)
}

// Version probes the interpreter version by running "<bin> --version".
//
// CombinedOutput is used because Python 2 printed the version banner to
// stderr while Python 3 prints it to stdout; capturing both handles
// either vintage.
func (m *Manager) Version(ctx context.Context, bin string) (string, error) {
	cmd := exec.CommandContext(ctx, bin, "--version")
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("%s --version failed: %w", bin, err)
	}
	return ParseVersionOutput(string(output))
}

// ParseVersionOutput extracts the semantic version from "--version"
// output such as "Python 3.11.4\n". The version is validated with the
// semver library so that comparison against the manifest minimum cannot
// be fed garbage.
func ParseVersionOutput(output string) (string, error) {
	s := strings.TrimSpace(output)
	s = strings.TrimPrefix(s, "Python")
	s = strings.TrimSpace(s)

	// Release candidates print forms like "3.13.0rc1"; strip the
	// pre-release tail down to the dotted core before validating.
	if i := strings.IndexFunc(s, func(r rune) bool {
		return (r < '0' || r > '9') && r != '.'
	}); i > 0 {
		s = s[:i]
	}

	v, err := semver.NewVersion(s)
	if err != nil {
		return "", fmt.Errorf("unrecognized python version output %q: %w", strings.TrimSpace(output), err)
	}
	return v.String(), nil
}

// MeetsMinimum reports whether version satisfies the ">= min" constraint.
// Both arguments must be valid semver strings; min may be a partial
// version like "3.8" (treated as "3.8.0" by the constraint parser).
func MeetsMinimum(version, min string) (bool, error) {
	v, err := semver.NewVersion(version)
	if err != nil {
		return false, fmt.Errorf("invalid interpreter version %q: %w", version, err)
	}
	c, err := semver.NewConstraint(">= " + min)
	if err != nil {
		return false, fmt.Errorf("invalid minimum version %q: %w", min, err)
	}
	return c.Check(v), nil
}

// HasModule probes whether a module is importable by the interpreter,
// by running `python -c "import <module>"`. The probe's own output is
// discarded — only the exit status matters.
func (m *Manager) HasModule(ctx context.Context, interp model.Interpreter, module string) bool {
	// #nosec G204 — module names are validated by manifest.ValidateConfig
	cmd := exec.CommandContext(ctx, interp.Path, "-c", "import "+module)
	return cmd.Run() == nil
}

// MissingModules returns the subset of modules that fail the import
// probe, in input order. An empty result means the install step can be
// skipped entirely.
func (m *Manager) MissingModules(ctx context.Context, interp model.Interpreter, modules []string) []string {
	var missing []string
	for _, mod := range modules {
		if !m.HasModule(ctx, interp, mod) {
			missing = append(missing, mod)
		}
	}
	return missing
}

// PipVersion probes pip availability via "python -m pip --version" and
// returns the first output line on success. Invoking pip as a module
// (rather than a standalone "pip" binary) guarantees it installs into
// the same interpreter the entry point will run under.
func (m *Manager) PipVersion(ctx context.Context, interp model.Interpreter) (string, error) {
	cmd := exec.CommandContext(ctx, interp.Path, "-m", "pip", "--version")
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("pip not available for %s: %w", interp.Path, err)
	}
	line, _, _ := strings.Cut(strings.TrimSpace(string(output)), "\n")
	return line, nil
}

// Run dispatches the entry-point script with the given arguments and
// returns the child's exit code. Stdio is inherited so the tool's
// progress output and prompts reach the terminal directly.
//
// A non-zero child exit is NOT an error here — the caller decides how to
// propagate it. An error is returned only when the process could not be
// started at all.
func (m *Manager) Run(ctx context.Context, interp model.Interpreter, script string, args []string, workdir string, extraEnv map[string]string) (int, error) {
	argv := append([]string{script}, args...)
	// #nosec G204 — script and args come from the manifest and CLI, not remote input
	cmd := exec.CommandContext(ctx, interp.Path, argv...)
	cmd.Dir = workdir
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	cmd.Env = os.Environ()
	for k, v := range extraEnv {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}

	// A started-but-failed child carries its exit code in ExitError.
	// Everything else (script missing, permission denied) is a launch
	// failure in its own right.
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode(), nil
	}
	return -1, model.WrapCLIError(
		model.ExitLaunchFailure,
		fmt.Sprintf("failed to start %s %s", interp.Binary, script),
		err,
	)
}
