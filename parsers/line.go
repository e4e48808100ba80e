// Package parsers implements command.Parser for the concrete commands in
// the commands package: turning raw stdout into canonical LIST records
// (or, for version-gated tools, into whichever native format a
// version-adapter selects). Every parser here is stateless and
// side-effect free, so the same Parser value is safely shared across
// concurrent Command.Execute calls.
package parsers

import (
	"strings"

	"github.com/mancerhq/mancer/core/dataformat"
)

// LineParser turns stdout into one LIST record per non-empty line, under
// key "line". The default parser for tools whose output has no
// structure worth extracting (echo, cat, hostname, uname).
type LineParser struct{}

// Line returns the shared LineParser value.
func Line() LineParser { return LineParser{} }

func (LineParser) Parse(stdout string) (dataformat.Format, any, error) {
	return dataformat.LIST, linesToRecords(stdout), nil
}

func linesToRecords(stdout string) []dataformat.Record {
	var records []dataformat.Record
	for _, line := range strings.Split(stdout, "\n") {
		if line == "" {
			continue
		}
		records = append(records, dataformat.Record{"line": line})
	}
	return records
}
