// requirements.go parses the pip requirements manifest that gates the
// install step. Only the subset of the requirements grammar the launcher
// needs is handled: plain "name<op>version" lines, comments, blank
// lines, editable installs, and include directives (reported, skipped).
// Everything parsed here is passed back to pip verbatim, so an
// incompletely understood constraint never breaks an install — it only
// degrades the doctor report's detail column.
package manifest

import (
	"fmt"
	"os"
	"strings"

	"github.com/exam-tools/examsplit/internal/model"
)

// constraint operators in match-priority order. Two-character operators
// must be probed before their one-character prefixes.
var constraintOps = []string{"==", ">=", "<=", "~=", "!=", ">", "<"}

// LoadRequirements reads and parses a requirements file.
//
// Returns the parsed entries, a list of human-readable warnings for
// lines the launcher understands but does not follow (e.g., nested
// "-r other.txt" includes), and a model.CLIError with ExitManifestInvalid
// when the file cannot be read.
func LoadRequirements(path string) ([]model.Requirement, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, model.WrapCLIError(
			model.ExitManifestInvalid,
			fmt.Sprintf("cannot read requirements file %s", path),
			err,
		)
	}
	reqs, warnings := ParseRequirements(string(data))
	return reqs, warnings, nil
}

// ParseRequirements parses requirements-file content line by line.
//
// Handled forms:
//
//	paddleocr==2.7.0        name + constraint
//	numpy>=1.24             name + constraint
//	opencv-python           bare name
//	pillow[extra]==10.0     extras kept as part of the name
//	-e ./vendor/toolkit     editable install, forwarded verbatim
//	# comment / blank       skipped
//	-r base.txt             skipped with a warning (not followed)
//
// Unparsable lines are kept as bare Raw entries rather than dropped, so
// pip still sees them on install.
func ParseRequirements(content string) ([]model.Requirement, []string) {
	var reqs []model.Requirement
	var warnings []string

	for _, line := range strings.Split(content, "\n") {
		line = stripComment(line)
		if line == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, "-r ") || strings.HasPrefix(line, "--requirement "):
			// Nested includes would need recursive resolution with
			// cycle detection; pip handles them itself on install, so
			// the launcher only loses per-entry detail in doctor.
			warnings = append(warnings, fmt.Sprintf("requirements include %q not followed", line))
			continue

		case strings.HasPrefix(line, "-c ") || strings.HasPrefix(line, "--constraint "):
			warnings = append(warnings, fmt.Sprintf("constraint file %q not followed", line))
			continue

		case strings.HasPrefix(line, "-e ") || strings.HasPrefix(line, "--editable "):
			reqs = append(reqs, model.Requirement{Editable: true, Raw: line})
			continue

		case strings.HasPrefix(line, "-"):
			// Other pip options (--index-url etc.) are forwarded
			// untouched.
			reqs = append(reqs, model.Requirement{Raw: line})
			continue
		}

		reqs = append(reqs, parseRequirementLine(line))
	}

	return reqs, warnings
}

// stripComment removes a trailing "#" comment and surrounding whitespace.
// Per the pip grammar, a comment mid-line must be preceded by whitespace;
// a "#" inside a URL fragment is not a comment. The launcher only meets
// plain name lines, so whitespace-preceded "#" is sufficient here.
func stripComment(line string) string {
	line = strings.TrimSpace(line)
	if strings.HasPrefix(line, "#") {
		return ""
	}
	if i := strings.Index(line, " #"); i >= 0 {
		line = line[:i]
	}
	return strings.TrimSpace(line)
}

// parseRequirementLine splits a plain requirement into name and
// constraint at the first operator occurrence.
func parseRequirementLine(line string) model.Requirement {
	for _, op := range constraintOps {
		if i := strings.Index(line, op); i > 0 {
			return model.Requirement{
				Name:       strings.TrimSpace(line[:i]),
				Constraint: strings.TrimSpace(line[i:]),
				Raw:        line,
			}
		}
	}
	return model.Requirement{Name: line, Raw: line}
}
