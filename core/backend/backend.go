// Package backend implements ExecutionBackend: the capability that runs
// a built shell string and returns (exit, stdout, stderr). LocalBackend
// and RemoteBackend are the two variants spec.md §4.1 names; both are
// idempotent with respect to their inputs and neither retries.
package backend

import (
	"context"
	"errors"
	"time"

	"github.com/mancerhq/mancer/core/mcerrors"
	"github.com/mancerhq/mancer/core/mcontext"
)

// Sink receives incremental output while live_output is true. Backends
// that cannot stream (nothing in this package needs to) may ignore it.
type Sink interface {
	Write(stream Stream, chunk []byte)
}

// Stream identifies which stream a Sink chunk came from.
type Stream int

const (
	StreamStdout Stream = iota
	StreamStderr
)

// Options configures a single Backend.Execute call.
type Options struct {
	// LiveOutput, when true, tees stdout/stderr to Sink at Interval
	// polling granularity while still accumulating the final buffers.
	LiveOutput bool
	Interval   time.Duration
	Sink       Sink
	// Stdin, when non-nil, is fed to the child/remote command. Used by
	// sudo password delivery and by commands that consume piped input.
	Stdin []byte
}

// Result is the raw outcome of a backend execution, prior to parsing.
type Result struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// Backend executes a single already-rendered shell command line against
// an ExecutionContext. Implementations are stateless with respect to
// their inputs: the same cmdString + context snapshot performs the same
// work every time (side effects on the target notwithstanding).
type Backend interface {
	// Execute runs cmdString as a single non-interactive command line.
	// Context cancellation must map to (Result{ExitCode: -1}, mcerrors
	// wrapping Cancelled); an expired deadline maps to
	// (Result{ExitCode: ExitTimeout}, mcerrors wrapping Timeout).
	Execute(ctx context.Context, cmdString string, execCtx *mcontext.Context, opts Options) (Result, error)

	// Kind identifies the backend for fingerprinting and logging
	// ("local" or "remote").
	Kind() string
}

// defaultInterval is used when Options.Interval is zero but LiveOutput
// is requested.
const defaultInterval = 100 * time.Millisecond

func intervalOrDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return defaultInterval
	}
	return d
}

// ctxDoneError materializes ctx.Err() into the mcerrors.Timeout/Cancelled
// kind the Backend contract above promises, so errKind (core/command) and
// the CLI's exit-code mapping (cmd/mancer) can tell a deadline from a plain
// cancellation instead of both collapsing into CommandFailed.
func ctxDoneError(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return mcerrors.Wrap(mcerrors.Timeout, "command exceeded its deadline", ctx.Err())
	}
	return mcerrors.Wrap(mcerrors.Cancelled, "command was cancelled", ctx.Err())
}
