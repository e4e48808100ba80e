package commands

import (
	"github.com/mancerhq/mancer/core/command"
	"github.com/mancerhq/mancer/parsers"
)

// Df builds `df -h [paths...]`. Its output parser is version-gated: GNU
// coreutils df (the default) and BSD/macOS df (detected as the "1.x"
// tool-version band their wrapper reports) lay out columns differently,
// which is exactly the scenario version-adapter dispatch exists for
// (spec.md §4.5; scenario 6 of §8 uses df as its format-conversion
// example). Not pipe-compatible: df never consumes stdin, though it may
// still appear on the left of a rendered pipe (SPEC_FULL.md §C.5).
func Df(opts ...Option) command.Command {
	c := command.New("df", parsers.DfGNU()).
		WithFlag("-h").
		WithToolName("df").
		WithVersionAdapter("1.x", "bsd").
		WithParser("bsd", parsers.DfBSD()).
		WithPipeIncompatible()
	return apply(c, opts)
}
