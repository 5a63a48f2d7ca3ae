package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/shlex"
	"github.com/joho/godotenv"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/exam-tools/examsplit/internal/model"
)

// Config is the parsed launcher manifest. Every field has a default, so
// a project without a manifest still launches — the manifest exists to
// override, not to gate.
type Config struct {
	// Name is a display name for the launched tool, used in the banner
	// and doctor heading.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Python configures interpreter discovery.
	Python PythonConfig `json:"python,omitempty" yaml:"python,omitempty"`

	// Modules lists importable module names probed before launch.
	// If every module imports cleanly, the install step is skipped.
	Modules []string `json:"modules,omitempty" yaml:"modules,omitempty"`

	// Requirements is the pip manifest path, relative to the project
	// directory.
	Requirements string `json:"requirements,omitempty" yaml:"requirements,omitempty"`

	// EntryPoint is the script dispatched after the checks pass,
	// relative to the project directory.
	EntryPoint string `json:"entryPoint,omitempty" yaml:"entry_point,omitempty"`

	// ExtraArgs is a single shell-quoted string appended to the entry
	// point's argument list (split with shlex, not passed to a shell).
	ExtraArgs string `json:"extraArgs,omitempty" yaml:"extra_args,omitempty"`

	// EnvFile is an optional dotenv file loaded into the process
	// environment before any subprocess runs.
	EnvFile string `json:"envFile,omitempty" yaml:"env_file,omitempty"`

	// Pip configures the install invocation.
	Pip PipConfig `json:"pip,omitempty" yaml:"pip,omitempty"`

	// Container configures the optional containerized run mode.
	Container ContainerConfig `json:"container,omitempty" yaml:"container,omitempty"`
}

// PythonConfig configures interpreter discovery and the version gate.
type PythonConfig struct {
	// Candidates are binary names (or absolute paths) probed in order
	// before the built-in defaults (python3, python, py).
	Candidates []string `json:"candidates,omitempty" yaml:"candidates,omitempty"`

	// MinVersion is the minimum interpreter version, as a full or
	// partial semver string (e.g., "3.8").
	MinVersion string `json:"minVersion,omitempty" yaml:"min_version,omitempty"`
}

// PipConfig configures the dependency install step.
type PipConfig struct {
	// ExtraFlags are appended to "pip install -r <requirements>"
	// (e.g., "--index-url", "https://mirror/simple").
	ExtraFlags []string `json:"extraFlags,omitempty" yaml:"extra_flags,omitempty"`
}

// ContainerConfig configures the --container run mode, where the entry
// point runs inside a Docker image instead of a host interpreter.
type ContainerConfig struct {
	// Image is the Docker image carrying the interpreter and the
	// tool's native dependencies. Required for container mode.
	Image string `json:"image,omitempty" yaml:"image,omitempty"`

	// Workdir is the mount point for the project directory inside the
	// container. Defaults to /work.
	Workdir string `json:"workdir,omitempty" yaml:"workdir,omitempty"`
}

// Default returns the built-in configuration, tuned to the
// exam-splitting tool this launcher ships with: main.py entry point,
// requirements.txt manifest, and the import probes of its OCR stack.
func Default() *Config {
	return &Config{
		Name: "exam splitter",
		Python: PythonConfig{
			MinVersion: "3.8",
		},
		Modules:      []string{"paddleocr", "cv2", "PIL", "numpy"},
		Requirements: "requirements.txt",
		EntryPoint:   "main.py",
		Container: ContainerConfig{
			Workdir: "/work",
		},
	}
}

// candidateNames are the manifest filenames probed by Find, in priority
// order. JSONC is the primary format; the YAML forms are alternatives.
var candidateNames = []string{
	"launcher.jsonc",
	"launcher.json",
	"launcher.yaml",
	"launcher.yml",
}

// Find searches projectDir for a launcher manifest and returns the path
// of the first candidate that exists, or "" when none is present.
// A missing manifest is not an error — the defaults apply.
func Find(projectDir string) string {
	for _, name := range candidateNames {
		path := filepath.Join(projectDir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// Load reads and parses the manifest at path, layered over the defaults:
// fields absent from the file keep their default values. The format is
// chosen by extension — .yaml/.yml parse as YAML, everything else as
// JSONC (comments and trailing commas stripped before encoding/json).
//
// Returns a model.CLIError with ExitManifestInvalid on unreadable or
// unparsable input.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitManifestInvalid,
			fmt.Sprintf("cannot read launcher manifest %s", path),
			err,
		)
	}
	return Parse(data, path)
}

// Parse decodes manifest bytes over the defaults. The path parameter is
// used for format detection and error messages only.
func Parse(data []byte, path string) (*Config, error) {
	cfg := Default()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, model.WrapCLIError(
				model.ExitManifestInvalid,
				fmt.Sprintf("invalid YAML in launcher manifest %s", path),
				err,
			)
		}
	default:
		// Strip JSONC comments (// and /* */) and trailing commas
		// before handing the bytes to encoding/json.
		cleanJSON := jsonc.ToJSON(data)
		if err := json.Unmarshal(cleanJSON, cfg); err != nil {
			return nil, model.WrapCLIError(
				model.ExitManifestInvalid,
				fmt.Sprintf("invalid JSON in launcher manifest %s", path),
				err,
			)
		}
	}

	// Re-apply defaults that unmarshalling may have clobbered with
	// explicit empty values.
	if cfg.Container.Workdir == "" {
		cfg.Container.Workdir = "/work"
	}

	return cfg, nil
}

// LoadOrDefault resolves the effective configuration for a project
// directory: an explicit path wins, otherwise the first discovered
// manifest, otherwise the defaults. The returned string is the manifest
// path actually used ("" for defaults).
func LoadOrDefault(projectDir, explicitPath string) (*Config, string, error) {
	path := explicitPath
	if path == "" {
		path = Find(projectDir)
	}
	if path == "" {
		return Default(), "", nil
	}

	cfg, err := Load(path)
	if err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

// SplitExtraArgs splits the manifest's extraArgs string into an argv
// slice using shell quoting rules. The split happens in-process — no
// shell is ever invoked, so metacharacters carry no meaning beyond
// quoting.
func SplitExtraArgs(s string) ([]string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	args, err := shlex.Split(s)
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitManifestInvalid,
			fmt.Sprintf("cannot parse extraArgs %q", s),
			err,
		)
	}
	return args, nil
}

// LoadEnvFile loads a dotenv file into the process environment. When the
// file comes from the manifest (explicit=false) a missing file is
// silently ignored; a file named on the command line must exist.
func LoadEnvFile(path string, explicit bool) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if explicit {
			return model.WrapCLIError(
				model.ExitManifestInvalid,
				fmt.Sprintf("env file %s does not exist", path),
				err,
			)
		}
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return model.WrapCLIError(
			model.ExitManifestInvalid,
			fmt.Sprintf("failed to load env file %s", path),
			err,
		)
	}
	return nil
}
