// Package orchestrator implements the Orchestrator facade spec.md §6
// describes: the single entry point that owns a process's
// ExecutionContext, ResultCache, ToolVersionRegistry, and
// ExecutionHistory, and exposes create_command/execute/history/remote-
// switching to the CLI and any other embedder. spec.md §9's Open
// Question 1 (ShellRunner/CommandManager merge) resolves to this one
// facade; there is no second entry point to reconcile.
package orchestrator

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/mancerhq/mancer/commands"
	"github.com/mancerhq/mancer/core/backend"
	"github.com/mancerhq/mancer/core/cache"
	"github.com/mancerhq/mancer/core/chain"
	"github.com/mancerhq/mancer/core/command"
	"github.com/mancerhq/mancer/core/history"
	"github.com/mancerhq/mancer/core/mcontext"
	"github.com/mancerhq/mancer/core/result"
	"github.com/mancerhq/mancer/core/version"
	"github.com/mancerhq/mancer/internal/config"
	"github.com/mancerhq/mancer/internal/logx"
)

// Orchestrator is the long-lived object an embedder constructs once per
// process (or per logical session) and reuses across many executions.
// Its own ExecutionContext is cloned before each execute call (spec.md
// §4.9), so executions never observe each other's cwd/env/parameter
// mutations directly.
type Orchestrator struct {
	id   string
	ctx  *mcontext.Context
	log  logx.Log

	local  backend.Backend
	remote *backend.RemoteBackend

	registry     *version.Registry
	resultCache  *cache.Cache
	cacheEnabled bool

	history *history.History
}

// New constructs an Orchestrator from a loaded Config (spec.md §6's
// "config provider, consumed once at construction"). log is injected,
// never fetched from a singleton (SPEC_FULL.md §A).
func New(cfg config.Config, log logx.Log) *Orchestrator {
	registry := version.NewRegistry()
	for tool, patterns := range cfg.AllowedVersions {
		registry.SetAllowed(tool, patterns)
	}

	id := uuid.NewString()
	o := &Orchestrator{
		id:           id,
		ctx:          mcontext.New(),
		log:          log.WithFields(map[string]any{"component": "orchestrator", "orchestrator_id": id}),
		local:        backend.NewLocalBackend(),
		registry:     registry,
		resultCache:  cache.NewWithTTL(cfg.Cache.Capacity, secondsToDuration(cfg.Cache.TTLSeconds)),
		cacheEnabled: !cfg.Cache.Disable,
		history:      history.New(),
	}
	return o
}

// ID returns the Orchestrator instance's correlation id, attached to
// every log line it emits.
func (o *Orchestrator) ID() string { return o.id }

// CreateCommand looks up name in the command registry and returns its
// bare Command. On a miss it also returns the closest registered name
// (Levenshtein distance via fuzzy.RankFind) so a CLI caller can print
// "did you mean?" — pure ergonomics, SPEC_FULL.md §C.1.
func (o *Orchestrator) CreateCommand(name string) (cmd command.Command, ok bool, suggestion string) {
	cmd, ok = commands.Create(name)
	if ok {
		return cmd, true, ""
	}
	return command.Command{}, false, o.suggest(name)
}

func (o *Orchestrator) suggest(name string) string {
	ranks := fuzzy.RankFind(name, commands.Names())
	if len(ranks) == 0 {
		return ""
	}
	best := ranks[0]
	for _, r := range ranks[1:] {
		if r.Distance < best.Distance {
			best = r
		}
	}
	return best.Target
}

// SetRemoteExecution switches the Orchestrator's context into REMOTE
// mode against target. The remote backend (and its connection pool) is
// created lazily on first use.
func (o *Orchestrator) SetRemoteExecution(target mcontext.RemoteTarget) {
	if o.remote == nil {
		o.remote = backend.NewRemoteBackend()
	}
	o.ctx.SetRemoteTarget(target)
}

// SetLocalExecution switches the Orchestrator's context back to LOCAL
// mode.
func (o *Orchestrator) SetLocalExecution() {
	o.ctx.SetMode(mcontext.ModeLocal)
}

// EnableCache/DisableCache toggle result caching without discarding
// already-cached entries: a later EnableCache call sees whatever a
// prior enabled period had already populated.
func (o *Orchestrator) EnableCache()  { o.cacheEnabled = true }
func (o *Orchestrator) DisableCache() { o.cacheEnabled = false }

// GetHistory returns the Orchestrator's accumulated execution history.
func (o *Orchestrator) GetHistory() *history.History { return o.history }

// activeBackend returns the backend matching the Orchestrator's current
// execution mode.
func (o *Orchestrator) activeBackend() backend.Backend {
	if o.ctx.Mode() == mcontext.ModeRemote {
		return o.remote
	}
	return o.local
}

func (o *Orchestrator) resultCacheOrNil() *cache.Cache {
	if !o.cacheEnabled {
		return nil
	}
	return o.resultCache
}

// Execute runs a single Command against the Orchestrator's own cloned
// ExecutionContext (spec.md §4.9), logging a line at call start/end,
// merging the step into the Orchestrator's running history, and
// returning the CommandResult.
func (o *Orchestrator) Execute(ctx context.Context, cmd command.Command, liveOutput bool) result.Result {
	execCtx := o.ctx.Clone()
	b := o.activeBackend()

	log := o.log.WithFields(map[string]any{"command": cmd.Name()})
	log.Debug("execute start")

	o.warnIfDisallowedVersion(ctx, cmd, b, execCtx)

	r := cmd.Execute(ctx, execCtx, b, o.registry, o.resultCacheOrNil(), backend.Options{LiveOutput: liveOutput}, nil)
	o.history = o.history.Merge(r.History)

	if r.Success {
		log.Info("execute ok")
	} else {
		log.WithFields(map[string]any{"exit_code": r.ExitCode}).Warn("execute failed")
	}
	return r
}

// ExecuteChain runs a CommandChain (pipe/then composition) the same
// way: cloned context, shared backend/registry/cache, history merge.
func (o *Orchestrator) ExecuteChain(ctx context.Context, c chain.Chain, liveOutput bool) result.Result {
	execCtx := o.ctx.Clone()
	b := o.activeBackend()

	o.log.Debug("execute chain start")
	r := c.Execute(ctx, execCtx, b, o.registry, o.resultCacheOrNil(), backend.Options{LiveOutput: liveOutput})
	o.history = o.history.Merge(r.History)
	return r
}

// warnIfDisallowedVersion detects the command's tool version (if it
// declared one via WithToolName) and logs a warning when it falls
// outside the configured allow-list. spec.md names is_allowed as a
// registry query but never mandates hard-blocking a disallowed
// version, so mancer surfaces it as a log line rather than a failure.
func (o *Orchestrator) warnIfDisallowedVersion(ctx context.Context, cmd command.Command, b backend.Backend, execCtx *mcontext.Context) {
	tool := cmd.ToolName()
	if tool == "" {
		return
	}
	tv := o.registry.Detect(ctx, tool, b, execCtx)
	if tv.Version == "unknown" {
		return
	}
	if !o.registry.IsAllowed(tool, tv.Version) {
		o.log.WithFields(map[string]any{"tool": tool, "version": tv.Version}).
			Warn("detected tool version is outside the configured allow-list")
	}
}

// Close releases the Orchestrator's remote connection pool, if one was
// ever opened.
func (o *Orchestrator) Close() error {
	if o.remote == nil {
		return nil
	}
	return o.remote.Close()
}

func secondsToDuration(seconds int) time.Duration {
	if seconds <= 0 {
		return cache.DefaultTTL
	}
	return time.Duration(seconds) * time.Second
}
