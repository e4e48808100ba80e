package commands

import (
	"github.com/mancerhq/mancer/core/command"
	"github.com/mancerhq/mancer/parsers"
)

// LsAll adds `-a` (include dotfiles).
func LsAll() Option { return WithFlag("-a") }

// lsSuccess treats exit 1 as partial success (ls emits it alongside a
// stderr warning when some, but not all, requested paths are readable —
// spec.md §4.3 step 7, SPEC_FULL.md §C.3). The warning itself survives
// in the step's ExitCode/ErrorExcerpt fields rather than a separate
// metadata flag.
func lsSuccess(exitCode int, _, _ string) bool {
	return exitCode == 0 || exitCode == 1
}

// Ls builds `ls -l [paths...]` (add LsAll for `-a`). Not pipe-compatible: it never consumes
// stdin, only ever produces output — it may still appear on the left of
// a rendered pipe (SPEC_FULL.md §C.5).
func Ls(opts ...Option) command.Command {
	c := command.New("ls", parsers.Ls()).
		WithFlag("-l").
		WithSuccessFn(lsSuccess).
		WithPipeIncompatible()
	return apply(c, opts)
}
