package commands

import (
	"github.com/mancerhq/mancer/core/command"
	"github.com/mancerhq/mancer/parsers"
)

// Echo builds `echo <text>`. Its only output is whatever was printed, so
// the default LineParser is sufficient; echo keeps the base Command's
// default pipe-compatibility. As a chain's first step it renders on the
// left of a pipe ("echo x | grep x") whatever that setting is.
func Echo(text string, opts ...Option) command.Command {
	return apply(command.New("echo", parsers.Line()).WithArg(text), opts)
}
