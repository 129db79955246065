package graph

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Provision pre-creates the parent directory of every job output, plus a
// parallel log directory under logRoot mirroring the output directory with
// its leading path separators stripped. It runs exactly once, after the
// graph for the requested targets is finalized and before any job
// executes, so a job can never fail merely because its output or log
// redirection directory does not yet exist. Existing directories are not
// an error; running Provision twice is a no-op.
func Provision(jobs []*Job, logRoot string) error {
	dirs := make(map[string]struct{})
	for _, job := range jobs {
		for _, out := range job.Task.Outputs {
			dir := filepath.Dir(out)
			dirs[dir] = struct{}{}
			dirs[logDir(logRoot, out)] = struct{}{}
		}
	}
	for dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("provisioning %q: %w", dir, err)
		}
	}
	return nil
}

// LogPath returns the log file for a given output target under logRoot:
// the output's directory mirrored below logRoot, with the output's base
// name plus a .log suffix.
func LogPath(logRoot, output string) string {
	return filepath.Join(logDir(logRoot, output), filepath.Base(output)+".log")
}

func logDir(logRoot, output string) string {
	dir := filepath.Dir(output)
	stripped := strings.TrimLeft(dir, string(filepath.Separator))
	return filepath.Join(logRoot, stripped)
}
