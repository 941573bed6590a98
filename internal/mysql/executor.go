// internal/mysql/executor.go
package mysql

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	DefaultQueryTimeout   = 30 * time.Second
	DefaultMaxOutputBytes = 10 << 20 // 10 MiB
)

// ErrOutputTooLarge is returned by a Runner when the client wrote more than
// the configured ceiling.
var ErrOutputTooLarge = errors.New("query output exceeds size limit")

// Executor runs one statement against one target. Implementations never
// return Go errors; failures are reported through QueryResult.
type Executor interface {
	Execute(ctx context.Context, sqlText string, opts ConnectionOptions) QueryResult
}

// Runner starts a process and returns its combined stdout and stderr.
type Runner interface {
	Run(ctx context.Context, cmd Command) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	MaxOutputBytes int
}

func (r ExecRunner) Run(ctx context.Context, cmd Command) ([]byte, error) {
	limit := r.MaxOutputBytes
	if limit <= 0 {
		limit = DefaultMaxOutputBytes
	}

	c := exec.CommandContext(ctx, cmd.Path, cmd.Args...)
	buf := &cappedBuffer{limit: limit}
	c.Stdout = buf
	c.Stderr = buf

	err := c.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return buf.Bytes(), fmt.Errorf("mysql client did not finish: %w", ctxErr)
	}
	if buf.overflow {
		return buf.Bytes(), ErrOutputTooLarge
	}
	return buf.Bytes(), err
}

// cappedBuffer keeps the first limit bytes and silently drops the rest so
// the child never blocks on a full pipe.
type cappedBuffer struct {
	bytes.Buffer
	limit    int
	overflow bool
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	remaining := b.limit - b.Len()
	if remaining <= 0 {
		b.overflow = b.overflow || len(p) > 0
		return len(p), nil
	}
	if len(p) > remaining {
		b.overflow = true
		b.Buffer.Write(p[:remaining])
		return len(p), nil
	}
	return b.Buffer.Write(p)
}

// CLIExecutor executes statements by spawning the mysql command-line
// client in batch mode, one process per call.
type CLIExecutor struct {
	ClientPath string
	Timeout    time.Duration
	Runner     Runner
	Logger     log.FieldLogger
}

// NewCLIExecutor returns an executor using clientPath (default "mysql").
func NewCLIExecutor(clientPath string, timeout time.Duration, maxOutputBytes int) *CLIExecutor {
	return &CLIExecutor{
		ClientPath: clientPath,
		Timeout:    timeout,
		Runner:     ExecRunner{MaxOutputBytes: maxOutputBytes},
	}
}

func (e *CLIExecutor) logger() log.FieldLogger {
	if e.Logger == nil {
		return log.StandardLogger()
	}
	return e.Logger
}

func (e *CLIExecutor) Execute(ctx context.Context, sqlText string, opts ConnectionOptions) QueryResult {
	timeout := e.Timeout
	if timeout <= 0 {
		timeout = DefaultQueryTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := BuildCommand(e.ClientPath, opts, sqlText)
	runner := e.Runner
	if runner == nil {
		runner = ExecRunner{}
	}

	start := time.Now()
	out, err := runner.Run(ctx, cmd)
	text := string(out)

	entry := e.logger().WithFields(log.Fields{
		"command":     cmd.Redacted(),
		"duration_ms": time.Since(start).Milliseconds(),
		"bytes":       len(out),
	})

	// The client reports SQL errors on stderr and exits non-zero; prefer its
	// message over the generic exit status.
	if msg, ok := ClientError(text); ok {
		entry.WithField("error", msg).Debug("mysql client reported an error")
		return Failed(msg)
	}
	if err != nil {
		entry.WithError(err).Warn("mysql client failed")
		return Failed(processErrorMessage(err, text))
	}

	res := ParseBatchOutput(text)
	entry.WithFields(log.Fields{
		"rows":     res.RowCount,
		"has_tabs": res.HasTabs,
	}).Debug("mysql client finished")
	return res
}

func processErrorMessage(err error, out string) string {
	out = strings.TrimSpace(out)
	if out == "" {
		return err.Error()
	}
	const maxDetail = 500
	if len(out) > maxDetail {
		out = out[:maxDetail] + "..."
	}
	return fmt.Sprintf("%v: %s", err, out)
}
