package commands

import (
	"github.com/mancerhq/mancer/core/command"
	"github.com/mancerhq/mancer/parsers"
)

// UnameAll adds `-a` (all identification fields).
func UnameAll() Option { return WithFlag("-a") }

// Uname builds `uname`. Not pipe-compatible: it only ever produces a
// single line, never consumes stdin — it may still appear on the left
// of a rendered pipe (SPEC_FULL.md §C.5).
func Uname(opts ...Option) command.Command {
	return apply(command.New("uname", parsers.Line()).WithPipeIncompatible(), opts)
}
