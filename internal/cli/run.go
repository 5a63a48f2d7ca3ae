// Package cli — run.go implements the "examsplit run" command.
//
// The run command is the launch pipeline — the reason this binary
// exists. It performs, in order:
//  1. Manifest resolution and validation
//  2. Optional .env loading
//  3. Interpreter discovery and version gate
//  4. Import probes for the required modules
//  5. Conditional dependency installation (skipped when all modules import)
//  6. Entry-point dispatch with exit-code propagation
//
// The two fatal launcher conditions — interpreter not found and
// dependency installation failed — both exit with code 1. A failing
// entry point propagates its own exit code instead.
package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/spf13/cobra"

	"github.com/exam-tools/examsplit/internal/docker"
	"github.com/exam-tools/examsplit/internal/installer"
	"github.com/exam-tools/examsplit/internal/manifest"
	"github.com/exam-tools/examsplit/internal/model"
	"github.com/exam-tools/examsplit/internal/python"
)

// runFlags holds the flag values for the run command.
// These are bound to cobra flags in NewRunCommand.
type runFlags struct {
	manifestPath string // --manifest: explicit launcher manifest path
	pythonBin    string // --python: pin a specific interpreter binary
	skipInstall  bool   // --skip-install: never run pip
	forceInstall bool   // --force-install: run pip even when modules import
	pause        bool   // --pause: wait for Enter before exiting
	container    bool   // --container: run inside the configured Docker image
}

// NewRunCommand creates the "run" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewRunCommand() *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run [input-files...]",
		Short: "Check the environment, install dependencies if needed, and run the tool",
		Long: `Run the exam-paper splitting tool after verifying its environment.

The interpreter is located first (honoring --python, $EXAMSPLIT_PYTHON,
and the manifest's candidate list). Required modules are import-checked;
only when one is missing does pip install run, against the requirements
manifest. The entry point then receives all positional arguments plus
the manifest's extra args, and its exit code becomes this command's
exit code.

Examples:
  examsplit run sample.pdf
  examsplit run --python /opt/venv/bin/python exam.pdf
  examsplit run --skip-install sample.pdf --mode fast
  examsplit run --container exam.pdf`,

		// The tool accepts arbitrary inputs and flags of its own, all
		// forwarded verbatim.
		Args: cobra.ArbitraryArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runLaunch(cmd.Context(), args, flags)
		},
	}

	cmd.Flags().StringVar(&flags.manifestPath, "manifest", "", "Launcher manifest path (default: discover launcher.jsonc/.json/.yaml)")
	cmd.Flags().StringVar(&flags.pythonBin, "python", "", "Python interpreter to use (binary name or path)")
	cmd.Flags().BoolVar(&flags.skipInstall, "skip-install", false, "Skip the dependency installation step")
	cmd.Flags().BoolVar(&flags.forceInstall, "force-install", false, "Run pip install even when all modules import")
	cmd.Flags().BoolVar(&flags.pause, "pause", false, "Wait for Enter before exiting")
	cmd.Flags().BoolVar(&flags.container, "container", false, "Run inside the manifest's container image instead of a host interpreter")

	return cmd
}

// runLaunch is the main orchestration function for the run command.
func runLaunch(ctx context.Context, args []string, flags *runFlags) error {
	// Mirror --pause for the error paths: Execute waits after printing a
	// fatal error, matching the success-path pause below.
	pauseBeforeExit = flags.pause

	// Step 1: Project directory is wherever the user invoked the launcher.
	projectDir, err := os.Getwd()
	if err != nil {
		return model.WrapCLIError(model.ExitLaunchFailure, "failed to get current directory", err)
	}

	// Step 2: Resolve the manifest (explicit path, discovered file, or
	// built-in defaults) and validate before any subprocess runs.
	cfg, manifestPath, err := manifest.LoadOrDefault(projectDir, flags.manifestPath)
	if err != nil {
		return err
	}
	if issues := manifest.ValidateConfig(cfg); len(issues) > 0 {
		return model.NewCLIError(model.ExitManifestInvalid, formatValidationIssues(issues))
	}
	diag.Debug("manifest resolved", "path", manifestDisplayPath(manifestPath))

	printBanner(cfg.Name)

	// Step 3: Load the .env file, if configured, before any subprocess
	// inherits the environment.
	if err := manifest.LoadEnvFile(resolveProjectPath(projectDir, cfg.EnvFile), false); err != nil {
		return err
	}

	// Step 4: Assemble the entry point's argument list: positional
	// inputs first, manifest extra args after.
	extraArgs, err := manifest.SplitExtraArgs(cfg.ExtraArgs)
	if err != nil {
		return err
	}
	entryArgs := append(append([]string{}, args...), extraArgs...)

	// Container mode replaces the whole host-side pipeline: the image is
	// expected to carry the interpreter and every dependency.
	if flags.container {
		return runInContainer(ctx, projectDir, cfg, entryArgs, flags)
	}

	report := model.LaunchReport{}

	// Step 5: Locate the interpreter. Missing interpreter is the first
	// fatal launcher condition (exit code 1).
	pm := python.NewManager(python.Options{})
	candidates := python.Candidates(flags.pythonBin, cfg.Python.Candidates)
	diag.Debug("probing interpreter", "candidates", strings.Join(candidates, ", "))

	interp, err := pm.Resolve(ctx, candidates)
	if err != nil {
		return err
	}
	report.Interpreter = interp
	diag.Debug("interpreter resolved", "path", interp.Path, "version", interp.Version)
	if !IsJSONOutput() {
		fmt.Printf("Found %s\n", interp)
	}

	// Step 6: Version gate. An unknown version is let through with a
	// warning rather than blocking the launch on a probe quirk.
	if cfg.Python.MinVersion != "" {
		if interp.Version == "" {
			diag.Warn("could not determine interpreter version; skipping minimum check")
		} else if ok, verr := python.MeetsMinimum(interp.Version, cfg.Python.MinVersion); verr != nil {
			diag.Warn("version comparison failed", "err", verr)
		} else if !ok {
			return model.NewCLIError(model.ExitLaunchFailure,
				fmt.Sprintf("python %s is older than the required minimum %s", interp.Version, cfg.Python.MinVersion))
		}
	}

	// Step 7: Decide whether to install. The import probes make a
	// warm environment launch with no pip invocation at all.
	if err := maybeInstall(ctx, pm, interp, projectDir, cfg, flags, &report); err != nil {
		return err
	}

	// Step 8: Dispatch the entry point with inherited stdio and
	// propagate its exit code.
	if !IsJSONOutput() {
		fmt.Printf("Starting %s...\n\n", cfg.EntryPoint)
	}
	start := time.Now()
	exitCode, err := pm.Run(ctx, interp, cfg.EntryPoint, entryArgs, projectDir, nil)
	if err != nil {
		return err
	}
	report.ExitCode = exitCode
	report.Duration = time.Since(start)

	printRunResult(cfg.EntryPoint, report)

	if exitCode != 0 {
		// The pause for a failing script happens in Execute, after the
		// propagated error is printed.
		return model.NewCLIError(model.ExitCode(exitCode),
			fmt.Sprintf("%s exited with status %d", cfg.EntryPoint, exitCode))
	}
	waitForEnter(flags.pause)
	return nil
}

// maybeInstall runs the dependency installation step when it is needed:
// forced, or at least one required module fails its import probe.
// Installation failure is the second fatal launcher condition (exit
// code 1); the CLIError from the installer already carries it.
func maybeInstall(ctx context.Context, pm *python.Manager, interp model.Interpreter, projectDir string, cfg *manifest.Config, flags *runFlags, report *model.LaunchReport) error {
	if flags.skipInstall {
		report.InstallSkipReason = "--skip-install"
		diag.Debug("install skipped by flag")
		return nil
	}

	missing := pm.MissingModules(ctx, interp, cfg.Modules)
	if len(missing) == 0 && !flags.forceInstall {
		report.InstallSkipReason = "all required modules present"
		diag.Debug("install skipped", "reason", report.InstallSkipReason)
		return nil
	}

	if len(missing) > 0 && !IsJSONOutput() {
		fmt.Printf("Missing modules: %s\n", strings.Join(missing, ", "))
	}

	reqPath := resolveProjectPath(projectDir, cfg.Requirements)
	if _, err := os.Stat(reqPath); os.IsNotExist(err) {
		if len(missing) > 0 {
			return model.NewCLIError(model.ExitManifestInvalid,
				fmt.Sprintf("requirements file %s not found but modules are missing: %s",
					cfg.Requirements, strings.Join(missing, ", ")))
		}
		// Reached with --force-install and a warm environment.
		return model.NewCLIError(model.ExitManifestInvalid,
			fmt.Sprintf("requirements file %s not found", cfg.Requirements))
	}

	if !IsJSONOutput() {
		fmt.Printf("Installing dependencies from %s...\n", cfg.Requirements)
	}
	diag.Debug("running pip install", "requirements", reqPath, "extraFlags", strings.Join(cfg.Pip.ExtraFlags, " "))

	inst := installer.New()
	if err := inst.Install(ctx, interp, reqPath, cfg.Pip.ExtraFlags); err != nil {
		return err
	}
	report.InstallRan = true
	return nil
}

// runInContainer handles the --container path: verify the daemon, then
// run the entry point inside the configured image with the project
// directory bind-mounted.
func runInContainer(ctx context.Context, projectDir string, cfg *manifest.Config, entryArgs []string, flags *runFlags) error {
	if cfg.Container.Image == "" {
		return model.NewCLIError(model.ExitManifestInvalid,
			"--container requires container.image in the launcher manifest")
	}

	cli, err := docker.NewClient()
	if err != nil {
		return err // NewClient already returns CLIError with ExitDockerUnavailable
	}
	defer func() { _ = cli.Close() }()

	if err := cli.Ping(ctx); err != nil {
		return err
	}
	diag.Debug("docker daemon reachable", "image", cfg.Container.Image)

	if !IsJSONOutput() {
		fmt.Printf("Starting %s in %s...\n\n", cfg.EntryPoint, cfg.Container.Image)
	}

	start := time.Now()
	exitCode, err := docker.RunPipeline(ctx, docker.RunSpec{
		Image:      cfg.Container.Image,
		ProjectDir: projectDir,
		Workdir:    cfg.Container.Workdir,
		EntryPoint: cfg.EntryPoint,
		Args:       entryArgs,
	})
	if err != nil {
		return err
	}

	report := model.LaunchReport{
		InstallSkipReason: "container mode",
		ExitCode:          exitCode,
		Duration:          time.Since(start),
	}
	printRunResult(cfg.EntryPoint, report)

	if exitCode != 0 {
		return model.NewCLIError(model.ExitCode(exitCode),
			fmt.Sprintf("%s exited with status %d", cfg.EntryPoint, exitCode))
	}
	waitForEnter(flags.pause)
	return nil
}

// printBanner prints the ASCII banner in text mode. JSON consumers get
// clean machine-readable output with no decoration.
func printBanner(name string) {
	if IsJSONOutput() {
		return
	}
	figure.NewFigure("examsplit", "", true).Print()
	if name != "" {
		fmt.Printf("  %s launcher\n\n", name)
	}
}

// printRunResult outputs the launch report in text or JSON format.
func printRunResult(entryPoint string, report model.LaunchReport) {
	if IsJSONOutput() {
		data, _ := json.MarshalIndent(report, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Println()
	if report.ExitCode == 0 {
		fmt.Printf("%s finished in %s\n", entryPoint, report.Duration.Round(time.Millisecond))
	} else {
		fmt.Printf("%s exited with status %d after %s\n",
			entryPoint, report.ExitCode, report.Duration.Round(time.Millisecond))
	}
	if report.InstallRan {
		fmt.Println("Dependencies were installed during this run.")
	} else if report.InstallSkipReason != "" {
		fmt.Printf("Install step skipped (%s).\n", report.InstallSkipReason)
	}
}

// pauseInput is where --pause reads its Enter keypress from. A variable
// so tests can feed input without a terminal.
var pauseInput io.Reader = os.Stdin

// waitForEnter implements the --pause behavior: block until the user
// presses Enter. Success paths call it directly; fatal errors reach it
// through finishWithError so the message stays on screen.
func waitForEnter(pause bool) {
	if !pause {
		return
	}
	fmt.Print("Press Enter to exit...")
	_, _ = bufio.NewReader(pauseInput).ReadString('\n')
}

// resolveProjectPath joins a manifest-relative path with the project
// directory, leaving absolute paths and empty values untouched.
func resolveProjectPath(projectDir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(projectDir, path)
}

// manifestDisplayPath renders the manifest path for logging, with a
// stable marker for the built-in defaults.
func manifestDisplayPath(path string) string {
	if path == "" {
		return "(built-in defaults)"
	}
	return path
}

// formatValidationIssues joins manifest validation errors into a single
// multi-line message for the error printer.
func formatValidationIssues(issues []manifest.ValidationError) string {
	lines := make([]string, 0, len(issues)+1)
	lines = append(lines, "invalid launcher manifest:")
	for _, issue := range issues {
		lines = append(lines, fmt.Sprintf("  %s: %s", issue.Field, issue.Message))
	}
	return strings.Join(lines, "\n")
}
