// Package python locates and drives the Python interpreter that runs the
// exam-splitting tool.
//
// All interpreter operations are performed via os/exec calls to the python
// binary, rather than embedding an interpreter. This approach:
//   - Uses the exact interpreter (and virtualenv) the user sees in their shell
//   - Keeps the launcher CGO-free and trivially cross-compilable
//   - Lets the probes double as documentation of what the tool needs
//
// The Manager struct provides interpreter discovery with a configurable
// candidate list, version probing (validated as semver against a minimum),
// import probes for required modules, pip detection, and the final
// dispatch of the entry-point script with inherited stdio.
package python
