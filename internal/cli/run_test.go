// Package cli — run_test.go covers the launch-pipeline pieces that run
// hermetically: the install decision in maybeInstall (driven by a stub
// interpreter instead of a real Python) and the pause behavior on
// failing exits.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exam-tools/examsplit/internal/manifest"
	"github.com/exam-tools/examsplit/internal/model"
	"github.com/exam-tools/examsplit/internal/python"
)

// writeInterpreterStub writes an executable script that exits with the
// given code, standing in for a Python interpreter in import probes and
// pip invocations.
func writeInterpreterStub(t *testing.T, dir string, exitCode int) string {
	t.Helper()
	path := filepath.Join(dir, "python-stub")
	script := fmt.Sprintf("#!/bin/sh\nexit %d\n", exitCode)
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

// TestMaybeInstall verifies the install decision: skipped when every
// module imports, skipped by flag, run when forced, and the errors when
// the requirements file is absent.
func TestMaybeInstall(t *testing.T) {
	ctx := context.Background()
	pm := python.NewManager(python.Options{})

	t.Run("skipped when all modules import", func(t *testing.T) {
		dir := t.TempDir()
		interp := model.Interpreter{Binary: "python3", Path: writeInterpreterStub(t, dir, 0)}
		cfg := manifest.Default()
		cfg.Modules = []string{"paddleocr"}

		report := model.LaunchReport{}
		err := maybeInstall(ctx, pm, interp, dir, cfg, &runFlags{}, &report)
		require.NoError(t, err)
		assert.False(t, report.InstallRan)
		assert.Equal(t, "all required modules present", report.InstallSkipReason)
	})

	t.Run("skipped by flag without probing", func(t *testing.T) {
		cfg := manifest.Default()
		report := model.LaunchReport{}

		// Zero-valued interpreter: the flag short-circuits before any
		// probe could exec it.
		err := maybeInstall(ctx, pm, model.Interpreter{}, t.TempDir(), cfg, &runFlags{skipInstall: true}, &report)
		require.NoError(t, err)
		assert.False(t, report.InstallRan)
		assert.Equal(t, "--skip-install", report.InstallSkipReason)
	})

	t.Run("forced install runs against the requirements file", func(t *testing.T) {
		dir := t.TempDir()
		interp := model.Interpreter{Binary: "python3", Path: writeInterpreterStub(t, dir, 0)}
		require.NoError(t, os.WriteFile(filepath.Join(dir, "requirements.txt"), []byte("numpy\n"), 0o644))
		cfg := manifest.Default()
		cfg.Modules = nil

		report := model.LaunchReport{}
		err := maybeInstall(ctx, pm, interp, dir, cfg, &runFlags{forceInstall: true}, &report)
		require.NoError(t, err)
		assert.True(t, report.InstallRan)
		assert.Empty(t, report.InstallSkipReason)
	})

	t.Run("missing modules without requirements file", func(t *testing.T) {
		dir := t.TempDir()
		interp := model.Interpreter{Binary: "python3", Path: writeInterpreterStub(t, dir, 1)}
		cfg := manifest.Default()
		cfg.Modules = []string{"paddleocr"}

		report := model.LaunchReport{}
		err := maybeInstall(ctx, pm, interp, dir, cfg, &runFlags{}, &report)
		require.Error(t, err)

		var cliErr *model.CLIError
		require.ErrorAs(t, err, &cliErr)
		assert.Equal(t, model.ExitManifestInvalid, cliErr.Code)
		assert.Contains(t, cliErr.Message, "modules are missing: paddleocr")
	})

	t.Run("forced install without requirements file", func(t *testing.T) {
		cfg := manifest.Default()
		cfg.Modules = nil

		report := model.LaunchReport{}
		err := maybeInstall(ctx, pm, model.Interpreter{}, t.TempDir(), cfg, &runFlags{forceInstall: true}, &report)
		require.Error(t, err)

		var cliErr *model.CLIError
		require.ErrorAs(t, err, &cliErr)
		assert.Equal(t, model.ExitManifestInvalid, cliErr.Code)
		assert.Contains(t, cliErr.Message, "requirements file requirements.txt not found")
		// No warm environment ever has "missing" modules to name here.
		assert.NotContains(t, cliErr.Message, "missing")
	})
}

// TestFinishWithError verifies the fatal-error exit path: the exit code
// comes from the CLIError, and the pause runs after the message so a
// failed launch waits for acknowledgment like a successful one.
func TestFinishWithError(t *testing.T) {
	t.Run("pause consumes input after a fatal error", func(t *testing.T) {
		prevPause, prevInput := pauseBeforeExit, pauseInput
		t.Cleanup(func() { pauseBeforeExit, pauseInput = prevPause, prevInput })

		in := strings.NewReader("\n")
		pauseBeforeExit = true
		pauseInput = in

		code := finishWithError(model.NewCLIError(model.ExitLaunchFailure, "python interpreter not found"))
		assert.Equal(t, model.ExitLaunchFailure, code)
		assert.Equal(t, 0, in.Len())
	})

	t.Run("no pause without the flag", func(t *testing.T) {
		prevPause, prevInput := pauseBeforeExit, pauseInput
		t.Cleanup(func() { pauseBeforeExit, pauseInput = prevPause, prevInput })

		in := strings.NewReader("\n")
		pauseBeforeExit = false
		pauseInput = in

		code := finishWithError(errors.New("boom"))
		assert.Equal(t, model.ExitLaunchFailure, code)
		assert.Equal(t, 1, in.Len())
	})

	t.Run("exit code carried through", func(t *testing.T) {
		code := finishWithError(model.NewCLIError(model.ExitManifestInvalid, "invalid launcher manifest"))
		assert.Equal(t, model.ExitManifestInvalid, code)
	})
}
