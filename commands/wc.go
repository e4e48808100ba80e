package commands

import (
	"github.com/mancerhq/mancer/core/command"
	"github.com/mancerhq/mancer/parsers"
)

// WcLines adds `-l` (count lines only).
func WcLines() Option { return WithFlag("-l") }

// WcWords adds `-w` (count words only).
func WcWords() Option { return WithFlag("-w") }

// WcBytes adds `-c` (count bytes only).
func WcBytes() Option { return WithFlag("-c") }

// Wc builds `wc [flags] [paths...]`. Pipe compatible: consumes stdin
// when no path argument is given (SPEC_FULL.md §C.5).
func Wc(opts ...Option) command.Command {
	return apply(command.New("wc", parsers.Wc()), opts)
}
