package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

var ErrEmptyCommand = errors.New("command path is empty")

// Command is one emulator invocation: `Path Args...`.
type Command struct {
	Path string
	Args []string
}

func (c Command) String() string {
	return strings.TrimSpace(c.Path + " " + strings.Join(c.Args, " "))
}

// Runner abstracts launching an emulator with its combined output sent to out.
type Runner interface {
	Run(ctx context.Context, cmd Command, out io.Writer) error
}

// ExecRunner executes commands on the local host.
type ExecRunner struct {
	// WaitDelay bounds how long Run waits for output pipes after the child
	// is killed. Zero uses one second.
	WaitDelay time.Duration
}

func (r ExecRunner) Run(ctx context.Context, cmd Command, out io.Writer) error {
	if strings.TrimSpace(cmd.Path) == "" {
		return ErrEmptyCommand
	}
	c := exec.CommandContext(ctx, cmd.Path, cmd.Args...)
	c.Stdout = out
	c.Stderr = out
	c.WaitDelay = r.WaitDelay
	if c.WaitDelay <= 0 {
		c.WaitDelay = time.Second
	}
	return c.Run()
}

// Target describes one trace capture.
type Target struct {
	Label   string
	Command Command
	Output  string
	Timeout time.Duration
}

// Outcome is what Capture observed about the child.
type Outcome struct {
	TimedOut bool
	ExitCode int
	Elapsed  time.Duration
}

// Capture runs target.Command with stdout and stderr redirected into a
// freshly truncated target.Output. Hitting the timeout is the normal way
// an emulator stops and is not an error. The child's exit status is
// recorded but otherwise ignored. Launch and file errors are returned.
func Capture(ctx context.Context, r Runner, target Target) (out Outcome, err error) {
	if target.Timeout <= 0 {
		return Outcome{}, fmt.Errorf("capture %s: timeout must be positive", target.Label)
	}
	f, err := os.Create(target.Output)
	if err != nil {
		return Outcome{}, fmt.Errorf("capture %s: create %s: %w", target.Label, target.Output, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("capture %s: close %s: %w", target.Label, target.Output, cerr)
		}
	}()

	runCtx, cancel := context.WithTimeout(ctx, target.Timeout)
	defer cancel()

	start := time.Now()
	runErr := r.Run(runCtx, target.Command, f)
	out.Elapsed = time.Since(start)

	switch {
	case runErr == nil:
		log.Debug().
			Str("label", target.Label).
			Str("cmd", target.Command.String()).
			Dur("elapsed", out.Elapsed).
			Msg("emulator exited before timeout")
		return out, nil
	case ctx.Err() != nil:
		return out, fmt.Errorf("capture %s: %w", target.Label, ctx.Err())
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		out.TimedOut = true
		log.Info().Str("output", target.Output).Msgf("Logged %s trace", target.Label)
		return out, nil
	}

	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		out.ExitCode = exitErr.ExitCode()
		log.Debug().
			Str("label", target.Label).
			Int("exit_code", out.ExitCode).
			Msg("emulator exited with non-zero status")
		return out, nil
	}
	return out, fmt.Errorf("capture %s: run %s: %w", target.Label, target.Command, runErr)
}
