// Package version implements ToolVersion detection and the process-wide
// ToolVersionRegistry, plus the version-pattern matching used to select a
// parser adapter for a command's detected tool version (spec.md §4.5).
package version

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/mancerhq/mancer/core/backend"
	"github.com/mancerhq/mancer/core/mcontext"
)

// ToolVersion is a parsed `<tool> --version` result.
type ToolVersion struct {
	ToolName   string
	Version    string // "X.Y.Z", "X.Y", or "unknown"
	RawOutput  string
	DetectedAt time.Time
}

// toolRegexes lets a command register a tool-specific first-choice regex
// (e.g. BusyBox's non-GNU --version banner) ahead of the generic fallback
// chain.
var toolRegexes = map[string]*regexp.Regexp{}

// RegisterToolRegex registers a tool-specific version regex. The first
// submatch is taken as the version string. Call during init() of the
// command that needs it.
func RegisterToolRegex(toolName string, pattern *regexp.Regexp) {
	toolRegexes[toolName] = pattern
}

var (
	gnuFormat  = regexp.MustCompile(`\(GNU [^)]*\)\s+(\d+\.\d+(?:\.\d+)?)`)
	bsdFormat  = regexp.MustCompile(`version\s+(\d+\.\d+(?:\.\d+)?)`)
	anyNumber  = regexp.MustCompile(`\b(\d+\.\d+(?:\.\d+)?)\b`)
)

// parseVersionOutput runs the regex fallback chain spec.md §4.5
// describes: tool-specific regex, then GNU format, then BSD format, then
// any X.Y(.Z) in the first two lines, then "unknown".
func parseVersionOutput(toolName, output string) string {
	if re, ok := toolRegexes[toolName]; ok {
		if m := re.FindStringSubmatch(output); len(m) > 1 {
			return m[1]
		}
	}
	if m := gnuFormat.FindStringSubmatch(output); len(m) > 1 {
		return m[1]
	}
	if m := bsdFormat.FindStringSubmatch(output); len(m) > 1 {
		return m[1]
	}
	lines := strings.SplitN(output, "\n", 3)
	firstTwo := strings.Join(lines[:min(2, len(lines))], "\n")
	if m := anyNumber.FindStringSubmatch(firstTwo); len(m) > 1 {
		return m[1]
	}
	return "unknown"
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// cacheKey identifies a detection result's scope: the same tool probed
// against two different hosts (or local vs. remote) must not share a
// cached version.
type cacheKey struct {
	toolName   string
	backendKind string
	target     string
}

// Registry is the process-wide, lazily populated tool-version cache.
// Detection runs once per (tool, backend kind, target); subsequent
// Get/Detect calls return the cached value until Invalidate is called.
type Registry struct {
	mu      sync.Mutex
	cache   map[cacheKey]ToolVersion
	allowed map[string][]string // tool -> allowed version patterns
}

// NewRegistry returns an empty Registry. One Registry is shared
// process-wide in production but each test should construct its own to
// avoid cross-test leakage (spec.md §9).
func NewRegistry() *Registry {
	return &Registry{
		cache:   make(map[cacheKey]ToolVersion),
		allowed: make(map[string][]string),
	}
}

// Detect runs `<tool> --version` (falling back to `-V`) via b and caches
// the parsed result keyed by (toolName, b.Kind(), target).
func (r *Registry) Detect(ctx context.Context, toolName string, b backend.Backend, execCtx *mcontext.Context) ToolVersion {
	key := cacheKey{toolName: toolName, backendKind: b.Kind(), target: execCtx.HostOrLocal()}

	r.mu.Lock()
	if cached, ok := r.cache[key]; ok {
		r.mu.Unlock()
		return cached
	}
	r.mu.Unlock()

	tv := r.detectUncached(ctx, toolName, b, execCtx)

	r.mu.Lock()
	r.cache[key] = tv
	r.mu.Unlock()

	return tv
}

func (r *Registry) detectUncached(ctx context.Context, toolName string, b backend.Backend, execCtx *mcontext.Context) ToolVersion {
	result, err := b.Execute(ctx, toolName+" --version", execCtx, backend.Options{})
	if err != nil || result.ExitCode != 0 || len(result.Stdout) == 0 {
		result, err = b.Execute(ctx, toolName+" -V", execCtx, backend.Options{})
	}
	if err != nil || (result.ExitCode != 0 && len(result.Stdout) == 0) {
		raw := string(result.Stderr)
		return ToolVersion{ToolName: toolName, Version: "unknown", RawOutput: raw, DetectedAt: now()}
	}

	raw := string(result.Stdout)
	return ToolVersion{
		ToolName:   toolName,
		Version:    parseVersionOutput(toolName, raw),
		RawOutput:  raw,
		DetectedAt: now(),
	}
}

// now is a seam so tests can avoid depending on wall-clock ordering if
// ever needed; production always uses time.Now().
var now = time.Now

// Get returns the cached version for toolName under any scope, or false
// if nothing has been detected yet. Used by callers that only care
// whether detection has happened at all (e.g. diagnostics).
func (r *Registry) Get(toolName string) (ToolVersion, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, tv := range r.cache {
		if key.toolName == toolName {
			return tv, true
		}
	}
	return ToolVersion{}, false
}

// Invalidate clears every cached detection for toolName across all
// backend/target scopes.
func (r *Registry) Invalidate(toolName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key := range r.cache {
		if key.toolName == toolName {
			delete(r.cache, key)
		}
	}
}

// SetAllowed sets the allow-list of version patterns for toolName.
func (r *Registry) SetAllowed(toolName string, patterns []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.allowed[toolName] = patterns
}

// IsAllowed reports whether version matches any pattern in toolName's
// allow-list. An empty/unset allow-list allows everything.
func (r *Registry) IsAllowed(toolName, ver string) bool {
	r.mu.Lock()
	patterns := r.allowed[toolName]
	r.mu.Unlock()

	if len(patterns) == 0 {
		return true
	}
	for _, p := range patterns {
		if Matches(p, ver) {
			return true
		}
	}
	return false
}

// String renders a ToolVersion for logs/diagnostics.
func (tv ToolVersion) String() string {
	return fmt.Sprintf("%s %s", tv.ToolName, tv.Version)
}
