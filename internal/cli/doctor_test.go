// Package cli — doctor_test.go contains unit tests for the pure
// formatting and aggregation functions used by the doctor command.
//
// These tests verify data transformation logic without requiring a
// Python interpreter, Docker daemon, or any external dependencies.
package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/exam-tools/examsplit/internal/model"
)

// TestFormatCheckList verifies the text table rendering, including
// column alignment and guidance lines.
func TestFormatCheckList(t *testing.T) {
	checks := []model.CheckResult{
		{Name: "python", Status: model.StatusPass, Detail: "python3 3.11.4 at /usr/bin/python3"},
		{
			Name:     "module:paddleocr",
			Status:   model.StatusFail,
			Detail:   "import failed",
			Guidance: []string{"Run: examsplit install"},
		},
		{Name: "docker", Status: model.StatusSkip, Detail: "container mode not configured"},
	}

	out := FormatCheckList(checks)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")

	// Header + three checks + one guidance line.
	assert.Len(t, lines, 5)
	assert.Contains(t, lines[0], "CHECK")
	assert.Contains(t, lines[0], "STATUS")
	assert.Contains(t, lines[0], "DETAIL")

	// The name column is padded to the widest name, so every status
	// starts at the same offset. Guidance lines follow their check.
	statusCol := strings.Index(lines[1], "pass")
	assert.Equal(t, statusCol, strings.Index(lines[2], "fail"))
	assert.Equal(t, statusCol, strings.Index(lines[4], "skip"))

	// Guidance is indented under its check.
	assert.Contains(t, lines[3], "Run: examsplit install")
	assert.True(t, strings.HasPrefix(lines[3], " "))
}

// TestFormatCheckList_Empty verifies that an empty check list still
// renders a header and nothing else.
func TestFormatCheckList_Empty(t *testing.T) {
	out := FormatCheckList(nil)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	assert.Len(t, lines, 1)
	assert.Contains(t, lines[0], "CHECK")
}

// TestSummarizeChecks verifies outcome counting; skips must not be
// counted in any bucket.
func TestSummarizeChecks(t *testing.T) {
	tests := []struct {
		name       string
		checks     []model.CheckResult
		wantPass   int
		wantWarn   int
		wantFailed int
	}{
		{
			name: "empty",
		},
		{
			name: "mixed outcomes",
			checks: []model.CheckResult{
				{Name: "python", Status: model.StatusPass},
				{Name: "pip", Status: model.StatusPass},
				{Name: "tesseract", Status: model.StatusWarn},
				{Name: "module:cv2", Status: model.StatusFail},
				{Name: "docker", Status: model.StatusSkip},
			},
			wantPass:   2,
			wantWarn:   1,
			wantFailed: 1,
		},
		{
			name: "skips only",
			checks: []model.CheckResult{
				{Name: "docker", Status: model.StatusSkip},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			passed, warned, failed := SummarizeChecks(tt.checks)
			assert.Equal(t, tt.wantPass, passed)
			assert.Equal(t, tt.wantWarn, warned)
			assert.Equal(t, tt.wantFailed, failed)
		})
	}
}

// TestResolveProjectPath verifies project-relative path resolution used
// across the commands. The function is defined in run.go but tested
// here as it is a shared utility across the CLI.
func TestResolveProjectPath(t *testing.T) {
	assert.Equal(t, "", resolveProjectPath("/proj", ""))
	assert.Equal(t, "/abs/requirements.txt", resolveProjectPath("/proj", "/abs/requirements.txt"))
	assert.Equal(t, "/proj/requirements.txt", resolveProjectPath("/proj", "requirements.txt"))
	assert.Equal(t, "/proj/deps/requirements.txt", resolveProjectPath("/proj", "deps/requirements.txt"))
}

// TestManifestDisplayPath verifies the defaults marker.
func TestManifestDisplayPath(t *testing.T) {
	assert.Equal(t, "(built-in defaults)", manifestDisplayPath(""))
	assert.Equal(t, "/proj/launcher.jsonc", manifestDisplayPath("/proj/launcher.jsonc"))
}
