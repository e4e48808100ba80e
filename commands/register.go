package commands

import (
	"sort"

	"github.com/mancerhq/mancer/core/command"
	"github.com/mancerhq/mancer/parsers"
)

// factories maps a registered command name to a zero-argument
// constructor producing that command's "bare" Command: parser, pipe
// compatibility, cache policy, and success override already wired, but
// with no required argument (grep's pattern, echo's text, ...) filled
// in — callers finish building it with Command's own With* methods
// before execute (spec.md §4.9's create_command(name) -> Command).
var factories = map[string]func() command.Command{
	"echo": func() command.Command { return command.New("echo", parsers.Line()) },
	"cat":  func() command.Command { return Cat() },
	"grep": func() command.Command { return command.New("grep", parsers.Grep()) },
	"wc":   func() command.Command { return Wc() },
	"head": func() command.Command { return command.New("head", parsers.Line()) },
	"tail": func() command.Command { return command.New("tail", parsers.Line()) },
	"ls":   func() command.Command { return Ls() },
	"df":   func() command.Command { return Df() },
	"ps":   func() command.Command { return Ps() },
	"hostname":  func() command.Command { return Hostname() },
	"systemctl": func() command.Command {
		return command.New("systemctl", parsers.SystemctlStatus()).WithPipeIncompatible()
	},
	"uname":     func() command.Command { return Uname() },
	"du":        func() command.Command { return Du() },
}

// Create looks up name in the registry and returns its bare Command. The
// bool mirrors spec.md §4.9's "unknown names return null" contract.
func Create(name string) (command.Command, bool) {
	factory, ok := factories[name]
	if !ok {
		return command.Command{}, false
	}
	return factory(), true
}

// Names returns every registered command name, sorted, for the
// orchestrator's fuzzy "did you mean?" suggestions on a miss.
func Names() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
