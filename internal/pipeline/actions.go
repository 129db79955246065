package pipeline

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/genoflow/genoflow/internal/ctxlog"
	"github.com/genoflow/genoflow/internal/graph"
	"github.com/genoflow/genoflow/internal/rules"
)

// runProgram invokes a registered external program for a task, routing its
// stdout and stderr to the task's log file under the provisioned log
// mirror. If the program declares an initialization prelude, the prelude
// and the command run in one shell so environment setup carries over. A
// non-zero exit is surfaced with the log path for operator diagnosis.
func (p *Pipeline) runProgram(ctx context.Context, programName string, task *rules.Task, args ...string) error {
	logger := ctxlog.FromContext(ctx)

	prog, ok := p.cfg.Programs[programName]
	if !ok {
		return fmt.Errorf("program %q is not in the registry", programName)
	}

	logPath := graph.LogPath(p.logRoot, task.Target())
	logFile, err := os.Create(logPath)
	if err != nil {
		return fmt.Errorf("opening log %q: %w", logPath, err)
	}
	defer logFile.Close()

	var cmd *exec.Cmd
	if prog.Init != "" {
		line := prog.Init + " && " + shellJoin(append([]string{prog.Path}, args...))
		cmd = exec.CommandContext(ctx, "sh", "-c", line)
	} else {
		cmd = exec.CommandContext(ctx, prog.Path, args...)
	}
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	logger.Info("Running program.", "program", programName, "target", task.Target(), "log", logPath)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("program %q failed for target %q (log: %s): %w", programName, task.Target(), logPath, err)
	}
	return nil
}

// shellJoin renders a command line for sh -c, single-quoting every word.
func shellJoin(words []string) string {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = "'" + strings.ReplaceAll(w, "'", `'\''`) + "'"
	}
	return strings.Join(quoted, " ")
}
