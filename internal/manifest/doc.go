// Package manifest handles the launcher's configuration surfaces: the
// launcher manifest, the pip requirements file, and the optional .env file.
//
// The launcher manifest supports JSONC (JSON with Comments) via
// github.com/tidwall/jsonc, matching the comment-friendly config style of
// editor tooling, plus a YAML form for users who prefer it. When no
// manifest exists the built-in defaults (tuned to the exam-splitting
// tool: main.py entry point, requirements.txt, PaddleOCR-stack import
// probes) apply unchanged.
//
// Key responsibilities:
//   - Locate and parse the launcher manifest (JSONC or YAML)
//   - Validate the parsed configuration before any subprocess runs
//   - Parse the requirements file into structured entries
//   - Load .env files and split the extra-args string shell-style
package manifest
