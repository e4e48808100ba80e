package commands

import (
	"time"

	"github.com/mancerhq/mancer/core/command"
	"github.com/mancerhq/mancer/parsers"
)

// psCacheTTL is shorter than the process-wide default: a process
// snapshot goes stale in seconds, not minutes.
const psCacheTTL = 2 * time.Second

// Ps builds `ps -ef`, the form spec.md §8 scenario 2 pipes into grep.
// Not pipe-compatible: ps never consumes stdin, only ever produces it —
// it may still appear on the left of a rendered pipe (SPEC_FULL.md
// §C.5); PipeCompatible()==false only rules out ps as a receiving step.
func Ps(opts ...Option) command.Command {
	c := command.New("ps", parsers.Ps()).
		WithArg("-ef").
		WithCacheTTL(psCacheTTL).
		WithPipeIncompatible()
	return apply(c, opts)
}
