package commands

import (
	"github.com/mancerhq/mancer/core/command"
	"github.com/mancerhq/mancer/parsers"
)

// DuSummarize adds `-s` (report only a total for each argument).
func DuSummarize() Option { return WithFlag("-s") }

// Du builds `du -h [paths...]`. Not pipe-compatible: it only ever
// produces output, never consumes stdin — it may still appear on the
// left of a rendered pipe (SPEC_FULL.md §C.5).
func Du(opts ...Option) command.Command {
	c := command.New("du", parsers.Du()).
		WithFlag("-h").
		WithPipeIncompatible()
	return apply(c, opts)
}
