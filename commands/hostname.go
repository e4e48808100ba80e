package commands

import (
	"github.com/mancerhq/mancer/core/command"
	"github.com/mancerhq/mancer/parsers"
)

// HostnameFQDN adds `-f` (print the fully qualified domain name).
func HostnameFQDN() Option { return WithFlag("-f") }

// Hostname builds `hostname`. Not pipe-compatible: it only ever
// produces a single line, never consumes stdin — it may still appear on
// the left of a rendered pipe (SPEC_FULL.md §C.5).
func Hostname(opts ...Option) command.Command {
	return apply(command.New("hostname", parsers.Line()).WithPipeIncompatible(), opts)
}
