// Package cli — doctor.go implements the "examsplit doctor" command.
//
// The doctor command runs every environment probe the launch pipeline
// relies on and reports them as a pass/warn/fail/skip table (or JSON),
// without installing anything or running the tool. It exits 0 when no
// check failed and 1 otherwise, so CI can gate on a ready environment.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"github.com/exam-tools/examsplit/internal/docker"
	"github.com/exam-tools/examsplit/internal/manifest"
	"github.com/exam-tools/examsplit/internal/model"
	"github.com/exam-tools/examsplit/internal/python"
)

// doctorFlags holds the flag values for the doctor command.
type doctorFlags struct {
	manifestPath string // --manifest: explicit launcher manifest path
	pythonBin    string // --python: pin a specific interpreter binary
}

// NewDoctorCommand creates the "doctor" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewDoctorCommand() *cobra.Command {
	flags := &doctorFlags{}

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the environment without launching the tool",
		Long: `Run every environment check the launch pipeline performs and report
the results without installing dependencies or running the tool.

Checks cover the launcher manifest, the Python interpreter and its
version, pip, each required module, the requirements file, the entry
point, the tesseract binary (warn-only), and — when container mode is
configured — the Docker daemon.

Examples:
  examsplit doctor
  examsplit doctor --json
  examsplit doctor --python /opt/venv/bin/python`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVar(&flags.manifestPath, "manifest", "", "Launcher manifest path (default: discover launcher.jsonc/.json/.yaml)")
	cmd.Flags().StringVar(&flags.pythonBin, "python", "", "Python interpreter to use (binary name or path)")

	return cmd
}

// runDoctor is the main logic function for the doctor command.
func runDoctor(ctx context.Context, flags *doctorFlags) error {
	projectDir, err := os.Getwd()
	if err != nil {
		return model.WrapCLIError(model.ExitLaunchFailure, "failed to get current directory", err)
	}

	cfg, manifestPath, err := manifest.LoadOrDefault(projectDir, flags.manifestPath)
	if err != nil {
		return err
	}

	checks := collectChecks(ctx, projectDir, manifestPath, cfg, flags.pythonBin)
	printDoctorResult(checks)

	if model.AnyFailed(checks) {
		return model.NewCLIError(model.ExitLaunchFailure, "environment is not ready")
	}
	return nil
}

// collectChecks runs every probe in pipeline order and returns one
// CheckResult per probe. Probes never abort the sequence — the point of
// doctor is the complete picture.
func collectChecks(ctx context.Context, projectDir, manifestPath string, cfg *manifest.Config, pythonBin string) []model.CheckResult {
	var checks []model.CheckResult

	// Manifest: presence and validity.
	checks = append(checks, manifestCheck(manifestPath, cfg))

	// Interpreter: discovery and version, sharing the run pipeline's
	// candidate order.
	pm := python.NewManager(python.Options{})
	interp, resolveErr := pm.Resolve(ctx, python.Candidates(pythonBin, cfg.Python.Candidates))
	checks = append(checks, interpreterCheck(interp, resolveErr))
	checks = append(checks, versionCheck(interp, cfg.Python.MinVersion, resolveErr))

	// pip and module probes only make sense with an interpreter.
	if resolveErr == nil {
		checks = append(checks, pipCheck(ctx, pm, interp))
		for _, mod := range cfg.Modules {
			checks = append(checks, moduleCheck(ctx, pm, interp, mod))
		}
	} else {
		checks = append(checks, model.CheckResult{Name: "pip", Status: model.StatusSkip, Detail: "no interpreter"})
		for _, mod := range cfg.Modules {
			checks = append(checks, model.CheckResult{Name: "module:" + mod, Status: model.StatusSkip, Detail: "no interpreter"})
		}
	}

	// Project files: requirements manifest and entry point.
	checks = append(checks, requirementsCheck(projectDir, cfg.Requirements))
	checks = append(checks, entryPointCheck(projectDir, cfg.EntryPoint))

	// tesseract is warn-only: the tool's OCR stack can use it as a
	// fallback engine, but a missing binary never blocks a launch.
	checks = append(checks, tesseractCheck())

	// Docker matters only when container mode is configured.
	checks = append(checks, dockerCheck(ctx, cfg.Container.Image))

	return checks
}

// manifestCheck reports which manifest is in effect and whether it
// validates.
func manifestCheck(manifestPath string, cfg *manifest.Config) model.CheckResult {
	if issues := manifest.ValidateConfig(cfg); len(issues) > 0 {
		guidance := make([]string, 0, len(issues))
		for _, issue := range issues {
			guidance = append(guidance, fmt.Sprintf("%s: %s", issue.Field, issue.Message))
		}
		return model.CheckResult{
			Name:     "manifest",
			Status:   model.StatusFail,
			Detail:   fmt.Sprintf("%d validation error(s)", len(issues)),
			Guidance: guidance,
		}
	}
	return model.CheckResult{
		Name:   "manifest",
		Status: model.StatusPass,
		Detail: manifestDisplayPath(manifestPath),
	}
}

// interpreterCheck reports interpreter discovery.
func interpreterCheck(interp model.Interpreter, resolveErr error) model.CheckResult {
	if resolveErr != nil {
		return model.CheckResult{
			Name:   "python",
			Status: model.StatusFail,
			Detail: resolveErr.Error(),
			Guidance: []string{
				"Install Python 3 and expose it on PATH",
				"Or pin an interpreter with --python or $EXAMSPLIT_PYTHON",
			},
		}
	}
	return model.CheckResult{
		Name:   "python",
		Status: model.StatusPass,
		Detail: interp.String(),
	}
}

// versionCheck reports the minimum-version gate.
func versionCheck(interp model.Interpreter, minVersion string, resolveErr error) model.CheckResult {
	check := model.CheckResult{Name: "python-version"}

	switch {
	case resolveErr != nil:
		check.Status = model.StatusSkip
		check.Detail = "no interpreter"
	case minVersion == "":
		check.Status = model.StatusSkip
		check.Detail = "no minimum configured"
	case interp.Version == "":
		check.Status = model.StatusWarn
		check.Detail = "version could not be determined"
	default:
		ok, err := python.MeetsMinimum(interp.Version, minVersion)
		switch {
		case err != nil:
			check.Status = model.StatusWarn
			check.Detail = err.Error()
		case ok:
			check.Status = model.StatusPass
			check.Detail = fmt.Sprintf("%s >= %s", interp.Version, minVersion)
		default:
			check.Status = model.StatusFail
			check.Detail = fmt.Sprintf("%s < %s", interp.Version, minVersion)
			check.Guidance = []string{fmt.Sprintf("Upgrade Python to %s or newer", minVersion)}
		}
	}
	return check
}

// pipCheck reports pip availability for the resolved interpreter.
func pipCheck(ctx context.Context, pm *python.Manager, interp model.Interpreter) model.CheckResult {
	pipVersion, err := pm.PipVersion(ctx, interp)
	if err != nil {
		return model.CheckResult{
			Name:     "pip",
			Status:   model.StatusFail,
			Detail:   "pip is not available",
			Guidance: []string{fmt.Sprintf("Run: %s -m ensurepip --upgrade", interp.Binary)},
		}
	}
	return model.CheckResult{Name: "pip", Status: model.StatusPass, Detail: pipVersion}
}

// moduleCheck reports a single import probe.
func moduleCheck(ctx context.Context, pm *python.Manager, interp model.Interpreter, mod string) model.CheckResult {
	if pm.HasModule(ctx, interp, mod) {
		return model.CheckResult{Name: "module:" + mod, Status: model.StatusPass, Detail: "importable"}
	}
	return model.CheckResult{
		Name:     "module:" + mod,
		Status:   model.StatusFail,
		Detail:   "import failed",
		Guidance: []string{"Run: examsplit install"},
	}
}

// requirementsCheck reports the requirements manifest: present with a
// parse summary, or warn when absent (a warm environment may simply not
// carry one).
func requirementsCheck(projectDir, requirements string) model.CheckResult {
	path := resolveProjectPath(projectDir, requirements)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return model.CheckResult{
			Name:   "requirements",
			Status: model.StatusWarn,
			Detail: fmt.Sprintf("%s not found — install step would fail if needed", requirements),
		}
	}

	reqs, warnings, err := manifest.LoadRequirements(path)
	if err != nil {
		return model.CheckResult{Name: "requirements", Status: model.StatusFail, Detail: err.Error()}
	}

	check := model.CheckResult{
		Name:   "requirements",
		Status: model.StatusPass,
		Detail: fmt.Sprintf("%s (%d entries)", requirements, len(reqs)),
	}
	if len(warnings) > 0 {
		check.Status = model.StatusWarn
		check.Guidance = warnings
	}
	return check
}

// entryPointCheck reports whether the script to dispatch exists.
func entryPointCheck(projectDir, entryPoint string) model.CheckResult {
	path := resolveProjectPath(projectDir, entryPoint)
	if _, err := os.Stat(path); err != nil {
		return model.CheckResult{
			Name:     "entry-point",
			Status:   model.StatusFail,
			Detail:   fmt.Sprintf("%s not found", entryPoint),
			Guidance: []string{"Run examsplit from the tool's project directory"},
		}
	}
	return model.CheckResult{Name: "entry-point", Status: model.StatusPass, Detail: entryPoint}
}

// tesseractCheck probes the tesseract binary. Warn-only.
func tesseractCheck() model.CheckResult {
	if path, err := exec.LookPath("tesseract"); err == nil {
		return model.CheckResult{Name: "tesseract", Status: model.StatusPass, Detail: path}
	}
	return model.CheckResult{
		Name:     "tesseract",
		Status:   model.StatusWarn,
		Detail:   "tesseract binary missing",
		Guidance: []string{"Install Tesseract OCR if the fallback engine is needed"},
	}
}

// dockerCheck probes the Docker daemon when container mode is
// configured, and skips otherwise.
func dockerCheck(ctx context.Context, image string) model.CheckResult {
	if image == "" {
		return model.CheckResult{Name: "docker", Status: model.StatusSkip, Detail: "container mode not configured"}
	}

	cli, err := docker.NewClient()
	if err != nil {
		return model.CheckResult{
			Name:     "docker",
			Status:   model.StatusFail,
			Detail:   err.Error(),
			Guidance: []string{"Start Docker, or launch without --container"},
		}
	}
	defer func() { _ = cli.Close() }()

	if err := cli.Ping(ctx); err != nil {
		return model.CheckResult{
			Name:     "docker",
			Status:   model.StatusFail,
			Detail:   "daemon not responding",
			Guidance: []string{"Start Docker, or launch without --container"},
		}
	}
	return model.CheckResult{Name: "docker", Status: model.StatusPass, Detail: "daemon reachable (image: " + image + ")"}
}

// printDoctorResult outputs the check list in text or JSON format.
func printDoctorResult(checks []model.CheckResult) {
	if IsJSONOutput() {
		type resultJSON struct {
			Checks []model.CheckResult `json:"checks"`
			Ready  bool                `json:"ready"`
		}
		data, _ := json.MarshalIndent(resultJSON{
			Checks: checks,
			Ready:  !model.AnyFailed(checks),
		}, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Print(FormatCheckList(checks))

	passed, warned, failed := SummarizeChecks(checks)
	fmt.Println()
	if failed == 0 {
		fmt.Printf("Environment ready: %d passed, %d warning(s).\n", passed, warned)
	} else {
		fmt.Printf("Environment NOT ready: %d check(s) failed, %d warning(s).\n", failed, warned)
	}
}

// FormatCheckList renders checks as an aligned text table with guidance
// lines indented under their check.
//
// This function is exported for testing purposes (tested in doctor_test.go).
//
// Example output:
//
//	CHECK            STATUS  DETAIL
//	python           pass    python3 3.11.4 at /usr/bin/python3
//	module:cv2       fail    import failed
//	                         ↳ Run: examsplit install
func FormatCheckList(checks []model.CheckResult) string {
	var b strings.Builder

	// The NAME column widens to the longest check name so module probes
	// with long names stay aligned.
	nameWidth := len("CHECK")
	for _, c := range checks {
		if len(c.Name) > nameWidth {
			nameWidth = len(c.Name)
		}
	}

	fmt.Fprintf(&b, "%-*s  %-6s  %s\n", nameWidth, "CHECK", "STATUS", "DETAIL")
	for _, c := range checks {
		fmt.Fprintf(&b, "%-*s  %-6s  %s\n", nameWidth, c.Name, c.Status, c.Detail)
		for _, g := range c.Guidance {
			fmt.Fprintf(&b, "%-*s          ↳ %s\n", nameWidth, "", g)
		}
	}
	return b.String()
}

// SummarizeChecks counts checks by outcome. Skipped checks are not
// counted in any bucket.
//
// This function is exported for testing purposes.
func SummarizeChecks(checks []model.CheckResult) (passed, warned, failed int) {
	for _, c := range checks {
		switch c.Status {
		case model.StatusPass:
			passed++
		case model.StatusWarn:
			warned++
		case model.StatusFail:
			failed++
		}
	}
	return passed, warned, failed
}
