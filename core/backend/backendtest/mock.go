// Package backendtest provides a scriptable in-memory backend.Backend for
// deterministic tests of the command pipeline, chains, and cache without
// spawning real processes or opening real SSH sessions. Adapted from the
// teacher's MockTransport.
package backendtest

import (
	"context"
	"errors"
	"sync"

	"github.com/mancerhq/mancer/core/backend"
	"github.com/mancerhq/mancer/core/mcerrors"
	"github.com/mancerhq/mancer/core/mcontext"
)

// Response is a configured (exitCode, stdout, stderr) triple for one
// exact command string.
type Response struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Err      error
}

// Call records one Execute invocation for later assertions.
type Call struct {
	CmdString string
	Cwd       string
	Env       map[string]string
	Stdin     string
}

// Backend is a scriptable backend.Backend.
type Backend struct {
	mu sync.Mutex

	responses map[string]Response
	defaultResponse Response

	calls []Call
	kind  string
}

// New returns a Backend whose Kind() reports "local" by default; use
// WithKind to simulate a remote backend's identity.
func New() *Backend {
	return &Backend{
		responses: make(map[string]Response),
		kind:      "local",
	}
}

// WithKind overrides Kind() (e.g. "remote") and returns the receiver.
func (b *Backend) WithKind(kind string) *Backend {
	b.kind = kind
	return b
}

// SetResponse configures the exact response for cmdString.
func (b *Backend) SetResponse(cmdString string, exitCode int, stdout, stderr string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.responses[cmdString] = Response{ExitCode: exitCode, Stdout: stdout, Stderr: stderr}
}

// SetDefaultResponse configures the response used when no exact match
// exists for a given command string.
func (b *Backend) SetDefaultResponse(exitCode int, stdout, stderr string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.defaultResponse = Response{ExitCode: exitCode, Stdout: stdout, Stderr: stderr}
}

// Calls returns a copy of recorded calls in invocation order.
func (b *Backend) Calls() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Call, len(b.calls))
	copy(out, b.calls)
	return out
}

func (b *Backend) Kind() string { return b.kind }

func (b *Backend) Execute(ctx context.Context, cmdString string, execCtx *mcontext.Context, opts backend.Options) (backend.Result, error) {
	if ctx.Err() != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return backend.Result{ExitCode: backend.ExitTimeout}, mcerrors.Wrap(mcerrors.Timeout, "command exceeded its deadline", ctx.Err())
		}
		return backend.Result{ExitCode: -1}, mcerrors.Wrap(mcerrors.Cancelled, "command was cancelled", ctx.Err())
	}

	b.mu.Lock()
	resp, ok := b.responses[cmdString]
	if !ok {
		resp = b.defaultResponse
	}
	b.calls = append(b.calls, Call{
		CmdString: cmdString,
		Cwd:       execCtx.Cwd(),
		Env:       execCtx.Env(),
		Stdin:     string(opts.Stdin),
	})
	b.mu.Unlock()

	if resp.Err != nil {
		return backend.Result{ExitCode: resp.ExitCode}, resp.Err
	}

	if opts.LiveOutput && opts.Sink != nil {
		if len(resp.Stdout) > 0 {
			opts.Sink.Write(backend.StreamStdout, []byte(resp.Stdout))
		}
		if len(resp.Stderr) > 0 {
			opts.Sink.Write(backend.StreamStderr, []byte(resp.Stderr))
		}
	}

	return backend.Result{
		ExitCode: resp.ExitCode,
		Stdout:   []byte(resp.Stdout),
		Stderr:   []byte(resp.Stderr),
	}, nil
}
