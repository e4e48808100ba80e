// Package command implements Command: the polymorphic, immutable-after-
// build value every concrete command (echo, df, grep, ...) is shaped
// from, plus the full execution pipeline described in spec.md §4.3.
package command

import (
	"context"
	"strings"
	"time"

	"github.com/mancerhq/mancer/core/backend"
	"github.com/mancerhq/mancer/core/cache"
	"github.com/mancerhq/mancer/core/dataformat"
	"github.com/mancerhq/mancer/core/history"
	"github.com/mancerhq/mancer/core/invariant"
	"github.com/mancerhq/mancer/core/mcerrors"
	"github.com/mancerhq/mancer/core/mcontext"
	"github.com/mancerhq/mancer/core/result"
	"github.com/mancerhq/mancer/core/version"
)

// Option is a `--flag value` pair in a command's rendered string; the
// flag and value are always emitted as two separate tokens. A zero-value
// HasValue means the option is emitted as a bare flag (no value token
// follows).
type Option struct {
	Flag     string
	Value    string
	HasValue bool
}

// Parser converts a command's raw stdout into structured output in the
// parser's native DataFormat. Concrete parsers live in the parsers
// package; Command only depends on this interface to stay decoupled
// from any particular tool's output grammar.
type Parser interface {
	Parse(stdout string) (dataformat.Format, any, error)
}

// SuccessFn overrides the default exit_code==0 success rule (spec.md
// §4.3 step 7: grep's "no match" vs. ls's partial-success-with-warning).
type SuccessFn func(exitCode int, stdout, stderr string) bool

func defaultSuccess(exitCode int, _, _ string) bool { return exitCode == 0 }

// Command is immutable after construction: every With* method returns a
// new value sharing no mutable state with the receiver.
type Command struct {
	name            string
	args            []string
	options         []Option
	flags           []string
	pipes           []Command
	preferredFormat dataformat.Format
	toolName        string
	versionAdapters map[string]string
	requiresSudo    bool
	noCache         bool
	pipeCompatible  bool

	defaultParser Parser
	parsersByID   map[string]Parser
	successFn     SuccessFn
	cacheTTL      time.Duration
}

// New builds the base Command for a tool named executable. Concrete
// commands (in the commands package) wrap this and expose their own
// builder surface; everything here is the shared plumbing every command
// needs regardless of what it does.
func New(executable string, defaultParser Parser) Command {
	invariant.Precondition(executable != "", "command name cannot be empty")
	invariant.NotNil(defaultParser, "defaultParser")
	return Command{
		name:            executable,
		defaultParser:   defaultParser,
		parsersByID:     make(map[string]Parser),
		successFn:       defaultSuccess,
		pipeCompatible:  true,
		preferredFormat: dataformat.LIST,
	}
}

func (c Command) cloneSlices() Command {
	cp := c
	cp.args = append([]string(nil), c.args...)
	cp.options = append([]Option(nil), c.options...)
	cp.flags = append([]string(nil), c.flags...)
	cp.pipes = append([]Command(nil), c.pipes...)
	cp.parsersByID = make(map[string]Parser, len(c.parsersByID))
	for k, v := range c.parsersByID {
		cp.parsersByID[k] = v
	}
	cp.versionAdapters = make(map[string]string, len(c.versionAdapters))
	for k, v := range c.versionAdapters {
		cp.versionAdapters[k] = v
	}
	return cp
}

// Name returns the command's executable name.
func (c Command) Name() string { return c.name }

// WithArg appends a positional argument and returns a new Command.
func (c Command) WithArg(arg string) Command {
	cp := c.cloneSlices()
	cp.args = append(cp.args, arg)
	return cp
}

// WithOption appends a `--flag value` option. duplicating a
// single-valued flag is a builder error; callers that need repeated
// flags should use WithFlag-style composition in their concrete command.
func (c Command) WithOption(flag, value string) Command {
	invariant.Precondition(flag != "", "option flag cannot be empty")
	for _, o := range c.options {
		invariant.Precondition(o.Flag != flag, "option %q is already set", flag)
	}
	cp := c.cloneSlices()
	cp.options = append(cp.options, Option{Flag: flag, Value: value, HasValue: true})
	return cp
}

// WithFlag appends a bare boolean flag (no value).
func (c Command) WithFlag(flag string) Command {
	invariant.Precondition(flag != "", "flag cannot be empty")
	cp := c.cloneSlices()
	cp.flags = append(cp.flags, flag)
	return cp
}

// WithDataFormat sets the preferred output format; DataFormatConverter
// runs after parsing if this differs from the parser's native format.
func (c Command) WithDataFormat(f dataformat.Format) Command {
	cp := c.cloneSlices()
	cp.preferredFormat = f
	return cp
}

// WithToolName sets the tool whose version gates parser-adapter
// dispatch (spec.md §4.3 steps 2-3).
func (c Command) WithToolName(name string) Command {
	cp := c.cloneSlices()
	cp.toolName = name
	return cp
}

// WithVersionAdapter registers parserID under pattern, keyed into
// parsers by id via WithParser.
func (c Command) WithVersionAdapter(pattern, parserID string) Command {
	invariant.Precondition(pattern != "", "version pattern cannot be empty")
	invariant.Precondition(parserID != "", "parser id cannot be empty")
	cp := c.cloneSlices()
	cp.versionAdapters[pattern] = parserID
	return cp
}

// WithParser registers the concrete Parser implementation for parserID,
// so SelectAdapter's chosen id can be resolved at execution time.
func (c Command) WithParser(parserID string, p Parser) Command {
	invariant.NotNil(p, "parser")
	cp := c.cloneSlices()
	cp.parsersByID[parserID] = p
	return cp
}

// WithRequiresSudo marks the command as needing a sudo wrapper.
func (c Command) WithRequiresSudo() Command {
	cp := c.cloneSlices()
	cp.requiresSudo = true
	return cp
}

// WithNoCache excludes the command from ResultCache reads and writes.
func (c Command) WithNoCache() Command {
	cp := c.cloneSlices()
	cp.noCache = true
	return cp
}

// WithCacheTTL overrides the cache TTL for this command's results.
func (c Command) WithCacheTTL(ttl time.Duration) Command {
	cp := c.cloneSlices()
	cp.cacheTTL = ttl
	return cp
}

// WithSuccessFn overrides the default exit_code==0 success rule.
func (c Command) WithSuccessFn(fn SuccessFn) Command {
	invariant.NotNil(fn, "success function")
	cp := c.cloneSlices()
	cp.successFn = fn
	return cp
}

// WithPipe appends other to this command's internal pipe chain, so
// Render() produces "c | other | ...". The chain package does not use
// it: a Chain renders its own pipeline from each command's RenderSelf.
func (c Command) WithPipe(other Command) Command {
	cp := c.cloneSlices()
	cp.pipes = append(cp.pipes, other)
	return cp
}

// WithPipeIncompatible marks a command that does not consume stdin, so
// it cannot be a receiving (non-first) step of a shell-rendered "|"
// chain. It may still be the first, left-most step of one.
func (c Command) WithPipeIncompatible() Command {
	cp := c.cloneSlices()
	cp.pipeCompatible = false
	return cp
}

// PipeCompatible reports whether this command can receive piped input
// as a non-first step of a shell-rendered "left | right" string.
func (c Command) PipeCompatible() bool { return c.pipeCompatible }

// NoCache reports whether this command's results must never be cached.
func (c Command) NoCache() bool { return c.noCache }

// ToolName returns the tool whose version gates parser dispatch.
func (c Command) ToolName() string { return c.toolName }

// shellMetachars is the exact set spec.md §4.3 names as requiring
// single-quoting.
const shellMetachars = " \t'\"$`\\|&;<>(){}*?[]~#"

// quoteArg single-quotes v if it contains any shell metacharacter,
// escaping embedded single quotes as '\''. Empty strings are always
// quoted, since an unquoted empty argument vanishes entirely.
func quoteArg(v string) string {
	if v == "" {
		return "''"
	}
	if !strings.ContainsAny(v, shellMetachars) {
		return v
	}
	var b strings.Builder
	b.WriteByte('\'')
	for _, r := range v {
		if r == '\'' {
			b.WriteString(`'\''`)
		} else {
			b.WriteRune(r)
		}
	}
	b.WriteByte('\'')
	return b.String()
}

// Render computes the command's shell string: executable name, then
// space-separated flags, options, and positional args in the order they
// were added, then any internal pipe chain.
func (c Command) Render() string {
	var parts []string
	parts = append(parts, c.name)
	for _, f := range c.flags {
		parts = append(parts, quoteArg(f))
	}
	for _, o := range c.options {
		parts = append(parts, quoteArg(o.Flag))
		if o.HasValue {
			parts = append(parts, quoteArg(o.Value))
		}
	}
	for _, a := range c.args {
		parts = append(parts, quoteArg(a))
	}
	rendered := strings.Join(parts, " ")
	for _, p := range c.pipes {
		rendered += " | " + p.Render()
	}
	return rendered
}

// Build returns the executable name and the fully rendered shell
// string, per spec.md §4.3's build() contract.
func (c Command) Build() (executable, renderedString string) {
	return c.name, c.Render()
}

// RenderSelf renders flags/options/args without any internal pipe
// chain, for callers (the chain package) that need each command's own
// fragment of a shell-rendered pipeline separately from the whole.
func (c Command) RenderSelf() string {
	var parts []string
	parts = append(parts, c.name)
	for _, f := range c.flags {
		parts = append(parts, quoteArg(f))
	}
	for _, o := range c.options {
		parts = append(parts, quoteArg(o.Flag))
		if o.HasValue {
			parts = append(parts, quoteArg(o.Value))
		}
	}
	for _, a := range c.args {
		parts = append(parts, quoteArg(a))
	}
	return strings.Join(parts, " ")
}

// SelectParser resolves the Parser this command would use for the given
// backend/context (version-adapter dispatch, falling back to the
// command's default parser). Exported for the chain package's
// rendered-pipe fast path, which must apply the rightmost command's
// parser to the pipeline's combined stdout.
func (c Command) SelectParser(ctx context.Context, b backend.Backend, execCtx *mcontext.Context, registry *version.Registry) Parser {
	return c.selectParser(ctx, b, execCtx, registry)
}

// DetermineSuccess applies this command's success rule (default or
// overridden via WithSuccessFn) to a raw execution outcome.
func (c Command) DetermineSuccess(exitCode int, stdout, stderr string) bool {
	return c.successFn(exitCode, stdout, stderr)
}

// fingerprintInputFor derives the cache fingerprint components for this
// command under execCtx, matching spec.md §4.8's key shape exactly.
func fingerprintInputFor(rendered string, execCtx *mcontext.Context) cache.FingerprintInput {
	return cache.FingerprintInput{
		RenderedString: rendered,
		Cwd:            execCtx.Cwd(),
		Env:            execCtx.Env(),
		Mode:           string(execCtx.Mode()),
		HostOrLocal:    execCtx.HostOrLocal(),
		UID:            execCtx.UIDOrLocal(),
	}
}

func (c Command) selectParser(ctx context.Context, b backend.Backend, execCtx *mcontext.Context, registry *version.Registry) Parser {
	if c.toolName == "" || len(c.versionAdapters) == 0 {
		return c.defaultParser
	}
	tv := registry.Detect(ctx, c.toolName, b, execCtx)
	parserID, ok := version.SelectAdapter(tv.Version, c.versionAdapters)
	if !ok {
		return c.defaultParser
	}
	p, ok := c.parsersByID[parserID]
	if !ok {
		return c.defaultParser
	}
	return p
}

func (c Command) renderWithSudo(execCtx *mcontext.Context) string {
	rendered := c.Render()
	if c.requiresSudo && execCtx.Mode() == mcontext.ModeLocal {
		return "sudo -S -p '' " + rendered
	}
	return rendered
}

// Execute runs the full pipeline spec.md §4.3 describes: version
// detection, parser selection, sudo wrapping, cache lookup, backend
// dispatch, success determination, parsing, optional format conversion,
// history, and cache write. inputResult, when non-nil, is merged into
// execCtx as context.parameters["input_data"] before anything else
// (pipe plumbing).
func (c Command) Execute(ctx context.Context, execCtx *mcontext.Context, b backend.Backend,
	registry *version.Registry, resultCache *cache.Cache, opts backend.Options, inputResult *result.Result) result.Result {

	invariant.NotNil(execCtx, "execCtx")
	invariant.NotNil(b, "backend")

	if inputResult != nil {
		execCtx.SetParameter("input_data", inputResult.RawOutput)
	}

	parser := c.selectParser(ctx, b, execCtx, registry)
	rendered := c.renderWithSudo(execCtx)

	contextNoCache, _ := execCtx.Parameter("no_cache")
	contextNoCacheBool, _ := contextNoCache.(bool)

	var fp cache.Fingerprint
	cacheEligible := resultCache != nil && !cache.ShouldBypass(c.noCache, opts.LiveOutput, "", contextNoCacheBool)
	if cacheEligible {
		computed, err := cache.ComputeFingerprint(fingerprintInputFor(rendered, execCtx))
		if err == nil {
			fp = computed
			if cached, ok := resultCache.Get(fp); ok {
				cached = markCached(cached)
				return cached
			}
		} else {
			cacheEligible = false
		}
	}

	if opts.Stdin == nil {
		if data, ok := execCtx.Parameter("input_data"); ok {
			if s, ok := data.(string); ok {
				opts.Stdin = []byte(s)
			}
		}
	}

	backendResult, execErr := b.Execute(ctx, rendered, execCtx, opts)

	h := history.New()
	snapshot := history.ContextSnapshot{Cwd: execCtx.Cwd(), Mode: string(execCtx.Mode()), Host: execCtx.HostOrLocal()}

	if execErr != nil {
		r := result.New(false, backendResult.ExitCode, string(backendResult.Stdout), string(backendResult.Stderr), nil, dataformat.LIST, h)
		r = r.WithMetadata("error_kind", errKind(execErr))
		r = r.WithMetadata("error_message", execErr.Error())
		h.Append(history.NewStep(0, c.name, rendered, time.Now(), time.Now(), backendResult.ExitCode, false,
			string(backendResult.Stdout), string(backendResult.Stderr), string(dataformat.LIST), 0, snapshot))
		return r
	}

	stdout := string(backendResult.Stdout)
	stderr := string(backendResult.Stderr)
	success := c.successFn(backendResult.ExitCode, stdout, stderr)

	nativeFormat, structured, parseErr := parser.Parse(stdout)
	metadata := map[string]any{}
	if parseErr != nil {
		metadata["error_kind"] = string(mcerrors.ParserFailed)
		metadata["error_message"] = parseErr.Error()
		nativeFormat = dataformat.LIST
		structured = []dataformat.Record{}
	}

	r := result.New(success, backendResult.ExitCode, stdout, stderr, structured, nativeFormat, h)
	for k, v := range metadata {
		r = r.WithMetadata(k, v)
	}

	recordCount := dataformat.RecordCount(structured)
	step := history.NewStep(0, c.name, rendered, time.Now(), time.Now(), backendResult.ExitCode, success,
		stdout, stderr, string(nativeFormat), recordCount, snapshot)
	r.History.Append(step)

	if c.preferredFormat != "" && c.preferredFormat != nativeFormat {
		converted := r.ToFormat(c.preferredFormat)
		if conversionErr, failed := converted.Metadata["conversion_error"]; failed {
			r = r.WithMetadata("conversion_error", conversionErr)
		} else {
			converted.Success = success
			r = converted
		}
	}

	if cacheEligible && !c.noCache {
		_ = resultCache.Put(fp, r, c.cacheTTL)
	}

	return r
}

// markCached appends a fresh history step recording this cache lookup
// itself, per spec.md §4.3 step 5 ("a fresh history step marked
// cached=true"), rather than rewriting the execution step the cached
// result was originally produced with.
func markCached(r result.Result) result.Result {
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

func errKind(err error) string {
	if mErr, ok := err.(*mcerrors.Error); ok {
		return string(mErr.Kind)
	}
	return string(mcerrors.CommandFailed)
}
