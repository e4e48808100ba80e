package backend

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
	"time"

	"github.com/mancerhq/mancer/core/invariant"
	"github.com/mancerhq/mancer/core/mcerrors"
	"github.com/mancerhq/mancer/core/mcontext"
)

// Local exit code conventions, POSIX-compatible and shared with the CLI
// surface in spec.md §6.
const (
	ExitSuccess          = 0
	ExitCommandFailed    = 1
	ExitTimeout          = 124
	ExitPermissionDenied = 126
	ExitSpawnFailed      = 127
)

// LocalBackend runs commands via os/exec, inheriting cwd and env from
// the ExecutionContext.
type LocalBackend struct{}

// NewLocalBackend returns a stateless LocalBackend.
func NewLocalBackend() *LocalBackend { return &LocalBackend{} }

func (b *LocalBackend) Kind() string { return "local" }

// Execute spawns a POSIX-sh-equivalent shell with cmdString as a single
// command line.
func (b *LocalBackend) Execute(ctx context.Context, cmdString string, execCtx *mcontext.Context, opts Options) (Result, error) {
	invariant.Precondition(cmdString != "", "cmdString cannot be empty")
	invariant.NotNil(execCtx, "execCtx")

	cmd := exec.CommandContext(ctx, "sh", "-c", cmdString)
	cmd.Dir = execCtx.Cwd()
	cmd.Env = mapToEnv(execCtx.Env())
	configureCommandForCancellation(cmd)

	if len(opts.Stdin) > 0 {
		cmd.Stdin = bytes.NewReader(opts.Stdin)
	}

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = teeTarget(&stdoutBuf, StreamStdout, opts)
	cmd.Stderr = teeTarget(&stderrBuf, StreamStderr, opts)

	if err := cmd.Start(); err != nil {
		return Result{ExitCode: ExitSpawnFailed}, spawnError(err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	var pollStop chan struct{}
	if opts.LiveOutput {
		pollStop = make(chan struct{})
		go pollLiveOutput(intervalOrDefault(opts.Interval), pollStop)
	}

	select {
	case <-ctx.Done():
		terminateCommandOnCancel(cmd)
		<-done
		if pollStop != nil {
			close(pollStop)
		}
		exitCode := -1
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			exitCode = ExitTimeout
		}
		return Result{ExitCode: exitCode, Stdout: stdoutBuf.Bytes(), Stderr: stderrBuf.Bytes()}, ctxDoneError(ctx)

	case err := <-done:
		if pollStop != nil {
			close(pollStop)
		}
		exitCode := ExitSuccess
		if err != nil {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				exitCode = exitErr.ExitCode()
				if exitCode == -1 {
					exitCode = ExitTimeout
				}
			} else {
				exitCode = ExitSpawnFailed
			}
		}
		return Result{ExitCode: exitCode, Stdout: stdoutBuf.Bytes(), Stderr: stderrBuf.Bytes()}, nil
	}
}

// pollLiveOutput is a placeholder polling loop: real streaming is done
// by the io.Writer tee below, which hands each chunk to the Sink as soon
// as the child writes it. The loop only ticks at Interval until stopped;
// it does not read, flush, or deliver any output itself.
func pollLiveOutput(interval time.Duration, stop chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}
	}
}

func teeTarget(buf *bytes.Buffer, stream Stream, opts Options) io.Writer {
	if !opts.LiveOutput || opts.Sink == nil {
		return buf
	}
	return io.MultiWriter(buf, &sinkWriter{stream: stream, sink: opts.Sink})
}

type sinkWriter struct {
	stream Stream
	sink   Sink
}

func (w *sinkWriter) Write(p []byte) (int, error) {
	w.sink.Write(w.stream, p)
	return len(p), nil
}

func spawnError(err error) error {
	return mcerrors.Wrap(mcerrors.BackendSpawnFailed, "failed to start local shell", err)
}

func mapToEnv(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	return out
}
