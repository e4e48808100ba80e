package commands

import (
	"github.com/mancerhq/mancer/core/command"
	"github.com/mancerhq/mancer/parsers"
)

// SystemctlStatus builds `systemctl is-active <unit>`, a read-only
// query: cacheable, no sudo. Not pipe-compatible: unit queries only ever
// produce a single status line — still fine on the left of a rendered
// pipe (SPEC_FULL.md §C.5).
func SystemctlStatus(unit string, opts ...Option) command.Command {
	c := command.New("systemctl", parsers.SystemctlStatus()).
		WithArg("is-active").
		WithArg(unit).
		WithPipeIncompatible()
	return apply(c, opts)
}

// SystemctlListUnits builds `systemctl --type service list-units`, a
// read-only query over every service unit's load/active/sub state. Not
// pipe-compatible (it never consumes stdin), but may still appear on
// the left of a rendered pipe (SPEC_FULL.md §C.5).
func SystemctlListUnits(opts ...Option) command.Command {
	c := command.New("systemctl", parsers.SystemctlListUnits()).
		WithOption("--type", "service").
		WithArg("list-units").
		WithPipeIncompatible()
	return apply(c, opts)
}

// SystemctlAction builds `systemctl <action> <unit>` for a
// state-changing action (start, stop, restart, reload, enable,
// disable). It requires sudo and is marked no_cache: a state mutation
// must re-execute every time it is invoked, per spec.md §8 scenario 5's
// "no cache entry created" assertion for systemctl failures and
// SPEC_FULL.md §C.3's per-command no_cache table. Not pipe-compatible,
// though it may still appear on the left of a rendered pipe
// (SPEC_FULL.md §C.5).
func SystemctlAction(action, unit string, opts ...Option) command.Command {
	c := command.New("systemctl", parsers.SystemctlStatus()).
		WithArg(action).
		WithArg(unit).
		WithRequiresSudo().
		WithNoCache().
		WithPipeIncompatible()
	return apply(c, opts)
}
