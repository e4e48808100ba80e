// Package commands provides a concrete builder surface — echo, cat,
// grep, wc, head, tail, ls, df, ps, hostname, systemctl, uname, du — atop
// core/command.Command, each wired to its native parsers.Parser and its
// own pipe-compatibility/cache/success-override decisions (SPEC_FULL.md
// §C.3, §C.5).
package commands

import "github.com/mancerhq/mancer/core/command"

// Option mutates a Command under construction. Every constructor in this
// package accepts a variadic list of Options applied, in order, after
// its required arguments — the same shape as Command's own With*
// methods, just scoped to what a given tool actually supports.
type Option func(command.Command) command.Command

func apply(c command.Command, opts []Option) command.Command {
	for _, opt := range opts {
		c = opt(c)
	}
	return c
}

// WithPath appends a positional file/path argument. Shared by every
// command whose only per-invocation variability beyond its required
// argument is a list of target paths (cat, du, ls, head, tail, wc).
func WithPath(path string) Option {
	return func(c command.Command) command.Command { return c.WithArg(path) }
}

// WithFlag appends a bare boolean flag (e.g. "-l", "-a", "-h").
func WithFlag(flag string) Option {
	return func(c command.Command) command.Command { return c.WithFlag(flag) }
}

// WithOption appends a `--flag value` option.
func WithOption(flag, value string) Option {
	return func(c command.Command) command.Command { return c.WithOption(flag, value) }
}
