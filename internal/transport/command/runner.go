// Package command runs the external binaries the pipeline depends on.
package command

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Runner executes an external command. Tests substitute a stub.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// ExecRunner runs commands with os/exec. The process is killed when ctx is done.
type ExecRunner struct {
	Logger *zap.Logger
}

// Run implements Runner.
func (r ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	err := cmd.Run()

	if r.Logger != nil {
		fields := []zap.Field{
			zap.String("cmd", name),
			zap.String("args", strings.Join(args, " ")),
			zap.Duration("duration", time.Since(start)),
		}
		if err != nil {
			r.Logger.Warn("exec failed", append(fields,
				zap.Error(err),
				zap.String("stderr", Truncate(errb.String(), 8<<10)),
			)...)
		} else {
			r.Logger.Debug("exec ok", append(fields, zap.Int("stdout_bytes", out.Len()))...)
		}
	}

	return out.Bytes(), errb.Bytes(), err //nolint:wrapcheck // callers add command context
}

// Truncate cuts s to limit bytes, marking the cut.
func Truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "...(truncated)"
}
