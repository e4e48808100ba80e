package commands

import (
	"github.com/mancerhq/mancer/core/command"
	"github.com/mancerhq/mancer/parsers"
)

// GrepIgnoreCase adds `-i`.
func GrepIgnoreCase() Option { return WithFlag("-i") }

// GrepInvertMatch adds `-v`.
func GrepInvertMatch() Option { return WithFlag("-v") }

// GrepLineNumber adds `-n`, which parsers.Grep recognizes and splits out
// as a separate "line_number" field.
func GrepLineNumber() Option { return WithFlag("-n") }

// GrepCount adds `-c`, which changes grep's stdout to a single integer
// and is therefore not combined with GrepLineNumber in practice.
func GrepCount() Option { return WithFlag("-c") }

// Grep builds `grep <pattern> [paths...]`. Keeps the default
// exit_code==0 success rule: spec.md §9's Open Question 2 flags grep's
// "no match" exit 1 as ambiguous, and this resolves it literally as the
// spec text states it ("grep's no-match... may still be success=false") —
// callers that want a match-attempted-but-absent result to still read as
// success should pass a custom success override at the call site. Pipe
// compatible: grep is one of the stdin-consuming tools named in spec.md
// §4.4 (SPEC_FULL.md §C.5).
func Grep(pattern string, opts ...Option) command.Command {
	return apply(command.New("grep", parsers.Grep()).WithArg(pattern), opts)
}
