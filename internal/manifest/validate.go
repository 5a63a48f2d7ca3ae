// validate.go checks the launcher manifest before any subprocess runs.
// Validation failures surface all at once (a slice, not first-error) so
// a user fixing a manifest sees every problem in one pass.
package manifest

import (
	"fmt"
	"path/filepath"
	"regexp"

	"github.com/Masterminds/semver/v3"
)

// ValidationError represents a specific validation failure in the
// launcher manifest.
type ValidationError struct {
	// Field is the manifest field that failed validation (e.g., "entryPoint").
	Field string

	// Message describes what's wrong with the field value.
	Message string
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("launcher manifest validation error: %s: %s", e.Field, e.Message)
}

// moduleNameRegex matches importable Python module paths: identifiers
// separated by dots (e.g., "cv2", "PIL.Image").
var moduleNameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

// ValidateConfig performs conformance checks on a parsed launcher
// manifest. It returns a list of validation errors (empty list = valid
// configuration).
//
// Checks performed:
//   - entryPoint must be set and relative to the project directory
//   - requirements path must be relative
//   - module probe names must be valid Python import paths
//   - python.minVersion must parse as (partial) semver
//   - container.image must be set when other container fields are
func ValidateConfig(cfg *Config) []ValidationError {
	var errors []ValidationError

	// Check 1: Entry point is the whole point of the launcher.
	if cfg.EntryPoint == "" {
		errors = append(errors, ValidationError{
			Field:   "entryPoint",
			Message: "entry point script must be set",
		})
	} else if filepath.IsAbs(cfg.EntryPoint) {
		errors = append(errors, ValidationError{
			Field:   "entryPoint",
			Message: "entry point must be relative to the project directory",
		})
	}

	// Check 2: Requirements path stays inside the project.
	if cfg.Requirements != "" && filepath.IsAbs(cfg.Requirements) {
		errors = append(errors, ValidationError{
			Field:   "requirements",
			Message: "requirements path must be relative to the project directory",
		})
	}

	// Check 3: Module probes feed directly into "python -c import ...",
	// so names must be plain import paths.
	for _, mod := range cfg.Modules {
		if !moduleNameRegex.MatchString(mod) {
			errors = append(errors, ValidationError{
				Field:   "modules",
				Message: fmt.Sprintf("%q is not a valid Python module name", mod),
			})
		}
	}

	// Check 4: The minimum version must be comparable. Partial versions
	// like "3.8" are valid (coerced to "3.8.0").
	if cfg.Python.MinVersion != "" {
		if _, err := semver.NewVersion(cfg.Python.MinVersion); err != nil {
			errors = append(errors, ValidationError{
				Field:   "python.minVersion",
				Message: fmt.Sprintf("%q is not a valid version: %v", cfg.Python.MinVersion, err),
			})
		}
	}

	// Check 5: Container mode cannot run without an image. Workdir alone
	// carries a default, so only flag it when it was customized.
	if cfg.Container.Image == "" && cfg.Container.Workdir != "" && cfg.Container.Workdir != "/work" {
		errors = append(errors, ValidationError{
			Field:   "container.image",
			Message: "container.image is required when container settings are customized",
		})
	}

	return errors
}
