package commands

import (
	"github.com/mancerhq/mancer/core/command"
	"github.com/mancerhq/mancer/parsers"
)

// Cat builds `cat [paths...]`. With no paths it reads stdin, which is
// exactly the shape a pipe's right-hand side needs, so Cat keeps the
// base Command's default pipe-compatible=true (SPEC_FULL.md §C.5).
func Cat(opts ...Option) command.Command {
	return apply(command.New("cat", parsers.Line()), opts)
}
