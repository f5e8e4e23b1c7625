// Package launcher drives the evaluation processes of a batch, one at
// a time, in plan order.
package launcher

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"go.uber.org/zap"

	"github.com/cw-kang/rleval-cli/internal/plan"
	"github.com/cw-kang/rleval-cli/internal/results"
)

// Result is the outcome of one evaluation process.
type Result struct {
	Invocation plan.Invocation
	ExitCode   int
	Err        error
	Duration   time.Duration
	Stats      results.Stats
}

// CommandRunner runs one child process to completion, feeding each
// stdout line to onLine as it arrives.
type CommandRunner interface {
	Run(ctx context.Context, name string, args []string, onLine func(string)) (int, error)
}

type execRunner struct {
	stdout io.Writer
	stderr io.Writer
}

func (r execRunner) Run(ctx context.Context, name string, args []string, onLine func(string)) (int, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(os.Environ(), "PYTHONUNBUFFERED=1")
	cmd.Stderr = r.stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return -1, fmt.Errorf("failed to open stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return -1, fmt.Errorf("failed to start %s: %w", name, err)
	}

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		fmt.Fprintln(r.stdout, line)
		if onLine != nil {
			onLine(line)
		}
	}
	if scanner.Err() != nil {
		// keep draining so the child never blocks on a full pipe
		io.Copy(r.stdout, stdout)
	}

	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), err
		}
		return -1, err
	}
	return 0, nil
}

type Launcher struct {
	python string
	logger *zap.Logger
	runner CommandRunner
}

type Option func(*Launcher)

// WithRunner replaces the process runner.
func WithRunner(r CommandRunner) Option {
	return func(l *Launcher) { l.runner = r }
}

func New(python string, logger *zap.Logger, opts ...Option) *Launcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Launcher{
		python: python,
		logger: logger,
		runner: execRunner{stdout: os.Stdout, stderr: os.Stderr},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run launches every invocation in order. A failing invocation never
// stops the batch; only ctx cancellation cuts it short.
func (l *Launcher) Run(ctx context.Context, invocations []plan.Invocation) ([]Result, error) {
	outcomes := make([]Result, 0, len(invocations))

	for i, inv := range invocations {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}

		if _, err := os.Stat(inv.CheckpointPath); err != nil {
			l.logger.Warn("checkpoint not found, launching anyway",
				zap.String("run_name", inv.RunName),
				zap.String("checkpoint", inv.CheckpointPath))
		}

		l.logger.Info("launching evaluation",
			zap.Int("index", i+1),
			zap.Int("total", len(invocations)),
			zap.String("run_name", inv.RunName),
			zap.String("module", inv.Module()),
			zap.String("env_id", inv.EnvID))

		collector := results.NewCollector()
		start := time.Now()
		code, err := l.runner.Run(ctx, l.python, inv.Argv(), collector.Line)

		outcome := Result{
			Invocation: inv,
			ExitCode:   code,
			Err:        err,
			Duration:   time.Since(start),
			Stats:      collector.Stats(),
		}
		outcomes = append(outcomes, outcome)

		if err != nil {
			l.logger.Warn("evaluation failed",
				zap.String("run_name", inv.RunName),
				zap.Int("exit_code", code),
				zap.Duration("duration", outcome.Duration),
				zap.Error(err))
		} else {
			l.logger.Info("evaluation finished",
				zap.String("run_name", inv.RunName),
				zap.Duration("duration", outcome.Duration),
				zap.Int("episodes", outcome.Stats.Episodes))
		}

		if ctx.Err() != nil {
			return outcomes, ctx.Err()
		}
	}

	return outcomes, nil
}

// LastExitCode is what a finished batch exits with: the exit code of
// its final invocation, successful or not.
func LastExitCode(outcomes []Result) int {
	if len(outcomes) == 0 {
		return 0
	}
	return outcomes[len(outcomes)-1].ExitCode
}
