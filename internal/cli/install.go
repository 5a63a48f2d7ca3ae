// Package cli — install.go implements the "examsplit install" command.
//
// The install command runs the dependency installation unconditionally,
// without the import probes that let the run pipeline skip it. It is
// the remediation step doctor points at when a module probe fails, and
// doubles as a pre-warm for machines that will run offline later.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/exam-tools/examsplit/internal/installer"
	"github.com/exam-tools/examsplit/internal/manifest"
	"github.com/exam-tools/examsplit/internal/model"
	"github.com/exam-tools/examsplit/internal/python"
)

// installFlags holds the flag values for the install command.
type installFlags struct {
	manifestPath string // --manifest: explicit launcher manifest path
	pythonBin    string // --python: pin a specific interpreter binary
}

// NewInstallCommand creates the "install" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewInstallCommand() *cobra.Command {
	flags := &installFlags{}

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install the tool's dependencies with pip",
		Long: `Install the tool's Python dependencies from the requirements manifest,
regardless of whether the required modules already import.

The install runs under a file lock, so concurrent launches of the same
project wait for each other instead of racing pip.

Examples:
  examsplit install
  examsplit install --python /opt/venv/bin/python`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstall(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVar(&flags.manifestPath, "manifest", "", "Launcher manifest path (default: discover launcher.jsonc/.json/.yaml)")
	cmd.Flags().StringVar(&flags.pythonBin, "python", "", "Python interpreter to use (binary name or path)")

	return cmd
}

// runInstall is the main logic function for the install command.
func runInstall(ctx context.Context, flags *installFlags) error {
	projectDir, err := os.Getwd()
	if err != nil {
		return model.WrapCLIError(model.ExitLaunchFailure, "failed to get current directory", err)
	}

	cfg, manifestPath, err := manifest.LoadOrDefault(projectDir, flags.manifestPath)
	if err != nil {
		return err
	}
	if issues := manifest.ValidateConfig(cfg); len(issues) > 0 {
		return model.NewCLIError(model.ExitManifestInvalid, formatValidationIssues(issues))
	}
	diag.Debug("manifest resolved", "path", manifestDisplayPath(manifestPath))

	// The requirements manifest must exist for an explicit install —
	// unlike the run pipeline, there is no "nothing missing" shortcut.
	reqPath := resolveProjectPath(projectDir, cfg.Requirements)
	reqs, warnings, err := manifest.LoadRequirements(reqPath)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		diag.Warn(w)
	}

	pm := python.NewManager(python.Options{})
	interp, err := pm.Resolve(ctx, python.Candidates(flags.pythonBin, cfg.Python.Candidates))
	if err != nil {
		return err
	}
	diag.Debug("interpreter resolved", "path", interp.Path, "version", interp.Version)

	if !IsJSONOutput() {
		fmt.Printf("Installing %d requirement(s) from %s using %s...\n\n",
			len(reqs), cfg.Requirements, interp)
	}

	inst := installer.New()
	if err := inst.Install(ctx, interp, reqPath, cfg.Pip.ExtraFlags); err != nil {
		return err
	}

	printInstallResult(cfg.Requirements, interp, reqs)
	return nil
}

// printInstallResult outputs the install summary in text or JSON format.
func printInstallResult(requirements string, interp model.Interpreter, reqs []model.Requirement) {
	if IsJSONOutput() {
		type resultJSON struct {
			Requirements string              `json:"requirements"`
			Interpreter  model.Interpreter   `json:"interpreter"`
			Installed    []model.Requirement `json:"installed"`
		}
		data, _ := json.MarshalIndent(resultJSON{
			Requirements: requirements,
			Interpreter:  interp,
			Installed:    reqs,
		}, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Printf("\nInstalled %d requirement(s) from %s.\n", len(reqs), requirements)
}
