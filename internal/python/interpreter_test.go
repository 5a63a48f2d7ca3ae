package python

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exam-tools/examsplit/internal/model"
)

// TestParseVersionOutput verifies extraction of the semantic version from
// the various "--version" banner forms seen across Python releases.
func TestParseVersionOutput(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		want    string
		wantErr bool
	}{
		{
			name:   "python3 banner",
			output: "Python 3.11.4\n",
			want:   "3.11.4",
		},
		{
			name:   "no trailing newline",
			output: "Python 3.8.10",
			want:   "3.8.10",
		},
		{
			name:   "release candidate suffix stripped",
			output: "Python 3.13.0rc1\n",
			want:   "3.13.0",
		},
		{
			name:   "two-component version normalized",
			output: "Python 3.9\n",
			want:   "3.9.0",
		},
		{
			name:   "surrounding whitespace",
			output: "  Python 3.10.12  \n",
			want:   "3.10.12",
		},
		{
			name:    "empty output",
			output:  "",
			wantErr: true,
		},
		{
			name:    "garbage output",
			output:  "command not found",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseVersionOutput(tt.output)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestMeetsMinimum verifies semver comparison against the manifest
// minimum, including partial minimum versions like "3.8".
func TestMeetsMinimum(t *testing.T) {
	tests := []struct {
		name    string
		version string
		min     string
		want    bool
		wantErr bool
	}{
		{name: "above minimum", version: "3.11.4", min: "3.8", want: true},
		{name: "exactly minimum", version: "3.8.0", min: "3.8", want: true},
		{name: "below minimum", version: "3.7.9", min: "3.8", want: false},
		{name: "full minimum form", version: "3.8.1", min: "3.8.0", want: true},
		{name: "major version below", version: "2.7.18", min: "3.8", want: false},
		{name: "invalid version", version: "not-a-version", min: "3.8", wantErr: true},
		{name: "invalid minimum", version: "3.11.4", min: "latest", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MeetsMinimum(tt.version, tt.min)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestCandidates verifies probe-order assembly: override first, then
// manifest candidates, then defaults, with duplicates removed.
func TestCandidates(t *testing.T) {
	t.Run("defaults only", func(t *testing.T) {
		assert.Equal(t, []string{"python3", "python", "py"}, Candidates("", nil))
	})

	t.Run("override comes first", func(t *testing.T) {
		got := Candidates("/opt/venv/bin/python", nil)
		assert.Equal(t, "/opt/venv/bin/python", got[0])
	})

	t.Run("manifest candidates precede defaults", func(t *testing.T) {
		got := Candidates("", []string{"python3.11"})
		assert.Equal(t, []string{"python3.11", "python3", "python", "py"}, got)
	})

	t.Run("duplicates removed", func(t *testing.T) {
		got := Candidates("python3", []string{"python3", "python"})
		assert.Equal(t, []string{"python3", "python", "py"}, got)
	})

	t.Run("environment override", func(t *testing.T) {
		t.Setenv(envOverride, "/custom/python")
		got := Candidates("", nil)
		assert.Equal(t, "/custom/python", got[0])
	})

	t.Run("blank entries ignored", func(t *testing.T) {
		got := Candidates("  ", []string{"", " "})
		assert.Equal(t, []string{"python3", "python", "py"}, got)
	})
}

// TestManager_Resolve verifies candidate resolution with an injected
// LookPath, covering the interpreter-absent fatal path (exit code 1).
func TestManager_Resolve(t *testing.T) {
	ctx := context.Background()

	t.Run("no interpreter on PATH", func(t *testing.T) {
		m := NewManager(Options{
			LookPath: func(string) (string, error) {
				return "", errors.New("executable file not found in $PATH")
			},
		})

		_, err := m.Resolve(ctx, []string{"python3", "python"})
		require.Error(t, err)

		var cliErr *model.CLIError
		require.ErrorAs(t, err, &cliErr)
		assert.Equal(t, model.ExitLaunchFailure, cliErr.Code)
		assert.Contains(t, cliErr.Message, "not found")
		assert.Contains(t, cliErr.Message, "python3")
	})

	t.Run("first candidate wins", func(t *testing.T) {
		// A path that cannot exist keeps the version probe from ever
		// execing a real binary on the test host.
		fakePath := filepath.Join(t.TempDir(), "missing", "python")
		m := NewManager(Options{
			LookPath: func(bin string) (string, error) {
				if bin == "python" {
					return fakePath, nil
				}
				return "", errors.New("not found")
			},
		})

		interp, err := m.Resolve(ctx, []string{"python3", "python", "py"})
		require.NoError(t, err)
		assert.Equal(t, "python", interp.Binary)
		assert.Equal(t, fakePath, interp.Path)

		// The failed probe leaves the version empty rather than skipping
		// the candidate.
		assert.Equal(t, "", interp.Version)
	})
}

// writeScriptStub writes an executable script that exits with the given
// code, standing in for a resolved interpreter.
func writeScriptStub(t *testing.T, dir string, exitCode int) string {
	t.Helper()
	path := filepath.Join(dir, "python-stub")
	script := fmt.Sprintf("#!/bin/sh\nexit %d\n", exitCode)
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

// TestManager_Run verifies entry-point dispatch against a stub
// interpreter: the child's exit code comes back verbatim, and only an
// unstartable process is an error.
func TestManager_Run(t *testing.T) {
	ctx := context.Background()
	m := NewManager(Options{})

	t.Run("child exit code propagated verbatim", func(t *testing.T) {
		dir := t.TempDir()
		interp := model.Interpreter{Binary: "python3", Path: writeScriptStub(t, dir, 42)}

		code, err := m.Run(ctx, interp, "main.py", nil, dir, nil)
		require.NoError(t, err)
		assert.Equal(t, 42, code)
	})

	t.Run("clean exit", func(t *testing.T) {
		dir := t.TempDir()
		interp := model.Interpreter{Binary: "python3", Path: writeScriptStub(t, dir, 0)}

		code, err := m.Run(ctx, interp, "main.py", nil, dir, nil)
		require.NoError(t, err)
		assert.Equal(t, 0, code)
	})

	t.Run("unstartable interpreter is a launch failure", func(t *testing.T) {
		dir := t.TempDir()
		interp := model.Interpreter{Binary: "python3", Path: filepath.Join(dir, "missing", "python")}

		code, err := m.Run(ctx, interp, "main.py", nil, dir, nil)
		require.Error(t, err)
		assert.Equal(t, -1, code)

		var cliErr *model.CLIError
		require.ErrorAs(t, err, &cliErr)
		assert.Equal(t, model.ExitLaunchFailure, cliErr.Code)
	})
}
