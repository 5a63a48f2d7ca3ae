package docker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestBuildRunArgs verifies the exact "docker run" argv produced for
// container mode, since a wrong mount or workdir would silently run the
// tool against the wrong files.
func TestBuildRunArgs(t *testing.T) {
	tests := []struct {
		name string
		spec RunSpec
		want []string
	}{
		{
			name: "minimal spec",
			spec: RunSpec{
				Image:      "exam-tools/splitter:latest",
				ProjectDir: "/home/u/exams",
				Workdir:    "/work",
				EntryPoint: "main.py",
			},
			want: []string{
				"run", "--rm",
				"-v", "/home/u/exams:/work",
				"-w", "/work",
				"-i", "exam-tools/splitter:latest", "python", "main.py",
			},
		},
		{
			name: "with args and env",
			spec: RunSpec{
				Image:      "exam-tools/splitter:latest",
				ProjectDir: "/home/u/exams",
				Workdir:    "/work",
				EntryPoint: "main.py",
				Args:       []string{"sample.pdf", "--mode", "fast"},
				Env:        []string{"EXAM_LANG=ch"},
			},
			want: []string{
				"run", "--rm",
				"-v", "/home/u/exams:/work",
				"-w", "/work",
				"-e", "EXAM_LANG=ch",
				"-i", "exam-tools/splitter:latest", "python", "main.py",
				"sample.pdf", "--mode", "fast",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildRunArgs(tt.spec))
		})
	}
}
