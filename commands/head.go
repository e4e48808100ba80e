package commands

import (
	"strconv"

	"github.com/mancerhq/mancer/core/command"
	"github.com/mancerhq/mancer/parsers"
)

// Head builds `head -n <count> [paths...]`. count <= 0 omits `-n`
// entirely, taking head's own default (10 lines). Pipe compatible:
// consumes stdin when no path is given (SPEC_FULL.md §C.5).
func Head(count int, opts ...Option) command.Command {
	c := command.New("head", parsers.Line())
	if count > 0 {
		c = c.WithOption("-n", strconv.Itoa(count))
	}
	return apply(c, opts)
}
