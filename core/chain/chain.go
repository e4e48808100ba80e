// Package chain implements CommandChain: pipe (stdin plumbing) and then
// (sequential, context-propagating) composition of Commands (spec.md
// §4.4).
package chain

import (
	"context"
	"time"

	"github.com/mancerhq/mancer/core/backend"
	"github.com/mancerhq/mancer/core/cache"
	"github.com/mancerhq/mancer/core/command"
	"github.com/mancerhq/mancer/core/dataformat"
	"github.com/mancerhq/mancer/core/history"
	"github.com/mancerhq/mancer/core/invariant"
	"github.com/mancerhq/mancer/core/mcontext"
	"github.com/mancerhq/mancer/core/result"
	"github.com/mancerhq/mancer/core/version"
)

// op identifies how two chain steps are composed.
type op int

const (
	opPipe op = iota
	opThen
)

// link is one edge in the chain: how right was attached to the chain
// built so far.
type link struct {
	cmd command.Command
	op  op
}

// Chain composes a sequence of Commands with pipe/then semantics.
// Immutable after construction, like Command itself: Pipe/Then return a
// new Chain.
type Chain struct {
	first           command.Command
	rest            []link
	preferredFormat dataformat.Format
}

// New starts a chain from a single command.
func New(first command.Command) Chain {
	return Chain{first: first}
}

// Pipe appends other as a data-flow step: left's raw_output feeds right
// as context.parameters["input_data"].
func (c Chain) Pipe(other command.Command) Chain {
	cp := c.cloneLinks()
	cp.rest = append(cp.rest, link{cmd: other, op: opPipe})
	return cp
}

// Then appends other as a sequential step: left runs to completion, its
// context mutations propagate via a clone, then right runs (skipped if
// left failed).
func (c Chain) Then(other command.Command) Chain {
	cp := c.cloneLinks()
	cp.rest = append(cp.rest, link{cmd: other, op: opThen})
	return cp
}

// WithDataFormat sets the preferred format applied only to the last
// step of the chain.
func (c Chain) WithDataFormat(f dataformat.Format) Chain {
	cp := c.cloneLinks()
	cp.preferredFormat = f
	return cp
}

func (c Chain) cloneLinks() Chain {
	cp := c
	cp.rest = append([]link(nil), c.rest...)
	return cp
}

// renderable reports whether the chain can render as a single
// "a | b | c" shell string the remote/local shell executes atomically
// (spec.md §4.4). PipeCompatible() means "consumes stdin" (SPEC_FULL.md
// §C.5's table), so only commands that receive piped input — every
// command except c.first — need it; c.first never receives anything
// from the chain and may be any stdout producer (ps, df, ls, ...), per
// SPEC_FULL.md §C.5: "they may still appear on the left of a pipe".
func (c Chain) renderable() bool {
	for _, l := range c.rest {
		if l.op != opPipe || !l.cmd.PipeCompatible() {
			return false
		}
	}
	return true
}

// Execute runs the chain to completion against the given environment.
// Pipe segments that are fully pipe-compatible materialize into one
// rendered "a | b | ..." shell string and execute as a single backend
// call; a then-boundary (or a command that opts out of pipe rendering)
// falls back to per-step materialization with explicit input_result
// plumbing.
func (c Chain) Execute(ctx context.Context, execCtx *mcontext.Context, b backend.Backend,
	registry *version.Registry, resultCache *cache.Cache, opts backend.Options) result.Result {

	invariant.NotNil(execCtx, "execCtx")
	invariant.NotNil(b, "backend")

	if len(c.rest) == 0 {
		return c.finalize(c.first.Execute(ctx, execCtx, b, registry, resultCache, opts, nil))
	}

	if c.renderable() {
		return c.finalize(c.executeAsRenderedPipe(ctx, execCtx, b, registry, resultCache, opts))
	}
	return c.finalize(c.executeStepwise(ctx, execCtx, b, registry, resultCache, opts))
}

// executeAsRenderedPipe runs the whole chain as a single shell-rendered
// "left | right | ..." command line, the atomic form spec.md §4.4
// prefers when every step is pipe-compatible. Bash-pipe convention
// means only the rightmost command's exit code and stdout are
// observable, so that one backend call determines overall success and
// feeds the rightmost command's parser; history still records one step
// per original command, named correctly, sharing that shared outcome
// (spec.md §8 scenario 2: history.length==2 with step[1]=="ps",
// step[2]=="grep").
func (c Chain) executeAsRenderedPipe(ctx context.Context, execCtx *mcontext.Context, b backend.Backend,
	registry *version.Registry, resultCache *cache.Cache, opts backend.Options) result.Result {

	cmds := append([]command.Command{c.first}, linkCommands(c.rest)...)
	rendered := renderPipeline(cmds)
	last := cmds[len(cmds)-1]

	fp, cacheEligible := tryFingerprint(resultCache, c.noCacheAny(cmds), opts, execCtx, rendered)
	if cacheEligible {
		if cached, ok := resultCache.Get(fp); ok {
			return markLastCached(cached)
		}
	}

	backendResult, execErr := b.Execute(ctx, rendered, execCtx, opts)

	h := history.New()
	snapshot := history.ContextSnapshot{Cwd: execCtx.Cwd(), Mode: string(execCtx.Mode()), Host: execCtx.HostOrLocal()}
	stdout, stderr := string(backendResult.Stdout), string(backendResult.Stderr)

	if execErr != nil {
		for _, cmd := range cmds {
			h.Append(history.NewStep(0, cmd.Name(), cmd.RenderSelf(), time.Now(), time.Now(),
				backendResult.ExitCode, false, stdout, stderr, string(dataformat.LIST), 0, snapshot))
		}
		return result.New(false, backendResult.ExitCode, stdout, stderr, nil, dataformat.LIST, h)
	}

	success := last.DetermineSuccess(backendResult.ExitCode, stdout, stderr)
	parser := last.SelectParser(ctx, b, execCtx, registry)
	nativeFormat, structured, _ := parser.Parse(stdout)

	for _, cmd := range cmds {
		h.Append(history.NewStep(0, cmd.Name(), cmd.RenderSelf(), time.Now(), time.Now(),
			backendResult.ExitCode, success, stdout, stderr, string(nativeFormat), dataformat.RecordCount(structured), snapshot))
	}

	r := result.New(success, backendResult.ExitCode, stdout, stderr, structured, nativeFormat, h)
	if cacheEligible {
		_ = resultCache.Put(fp, r, 0)
	}
	return r
}

func linkCommands(links []link) []command.Command {
	cmds := make([]command.Command, len(links))
	for i, l := range links {
		cmds[i] = l.cmd
	}
	return cmds
}

func renderPipeline(cmds []command.Command) string {
	rendered := cmds[0].RenderSelf()
	for _, cmd := range cmds[1:] {
		rendered += " | " + cmd.RenderSelf()
	}
	return rendered
}

func (c Chain) noCacheAny(cmds []command.Command) bool {
	for _, cmd := range cmds {
		if cmd.NoCache() {
			return true
		}
	}
	return false
}

func tryFingerprint(resultCache *cache.Cache, noCache bool, opts backend.Options, execCtx *mcontext.Context, rendered string) (cache.Fingerprint, bool) {
	if resultCache == nil || cache.ShouldBypass(noCache, opts.LiveOutput, "", false) {
		return "", false
	}
	fp, err := cache.ComputeFingerprint(cache.FingerprintInput{
		RenderedString: rendered,
		Cwd:            execCtx.Cwd(),
		Env:            execCtx.Env(),
		Mode:           string(execCtx.Mode()),
		HostOrLocal:    execCtx.HostOrLocal(),
		UID:            execCtx.UIDOrLocal(),
	})
	if err != nil {
		return "", false
	}
	return fp, true
}

// markLastCached appends a fresh history step recording this cache
// lookup itself, per spec.md §4.3 step 5 ("a fresh history step marked
// cached=true"), rather than rewriting the step the cached result was
// originally produced with.
func markLastCached(r result.Result) result.Result {
	steps := r.History.Steps()
	if len(steps) == 0 {
		return r
	}
	last := steps[len(steps)-1]
	now := time.Now()
	step := history.NewStep(0, last.CommandName, last.CommandString, now, now,
		r.ExitCode, r.Success, r.RawOutput, r.ErrorOutput, last.DataFormat,
		last.StructuredSummary.RecordCount, last.ContextSnapshot)
	step.Cached = true
	r.History.Append(step)
	return r
}

// executeStepwise runs each link in order, handling pipe (data-flow) and
// then (context-propagating, short-circuiting) semantics individually
// and merging every step's history into one combined result.
func (c Chain) executeStepwise(ctx context.Context, execCtx *mcontext.Context, b backend.Backend,
	registry *version.Registry, resultCache *cache.Cache, opts backend.Options) result.Result {

	currentCtx := execCtx
	left := c.first.Execute(ctx, currentCtx, b, registry, resultCache, opts, nil)
	combinedHistory := left.History

	for _, l := range c.rest {
		if l.op == opThen && !left.Success {
			left.History = combinedHistory
			return left
		}

		var inputResult *result.Result
		stepCtx := currentCtx
		if l.op == opPipe {
			inputResult = &left
		} else {
			stepCtx = currentCtx.Clone()
			applyContextMutations(stepCtx, left)
		}

		right := l.cmd.Execute(ctx, stepCtx, b, registry, resultCache, opts, inputResult)
		combinedHistory = combinedHistory.Merge(right.History)
		right.History = combinedHistory
		left = right
		currentCtx = stepCtx
	}

	return left
}

// applyContextMutations applies a then-step's declared context changes
// (cwd/env adjustments surfaced in metadata by cd/export-style commands)
// to the clone that will carry into the next step.
func applyContextMutations(ctx *mcontext.Context, prior result.Result) {
	if newCwd, ok := prior.Metadata["cwd_override"]; ok {
		if s, ok := newCwd.(string); ok && s != "" {
			ctx.SetCwd(s)
		}
	}
	if envOverride, ok := prior.Metadata["env_override"]; ok {
		if kv, ok := envOverride.(map[string]string); ok {
			for k, v := range kv {
				ctx.SetEnv(k, v)
			}
		}
	}
}

// finalize applies the chain-level preferred format to the last step's
// result, per spec.md §4.4 ("with_data_format(fmt) sets a preferred
// format applied only to the last step of the chain").
func (c Chain) finalize(r result.Result) result.Result {
	if c.preferredFormat == "" || c.preferredFormat == r.DataFormat {
		return r
	}
	return r.ToFormat(c.preferredFormat)
}
