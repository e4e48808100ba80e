package parsers

import "github.com/mancerhq/mancer/core/dataformat"

// DuParser parses `du` output: one "<size>\t<path>" or "<size> <path>"
// line per entry.
type DuParser struct{}

// Du returns the shared DuParser value.
func Du() DuParser { return DuParser{} }

func (DuParser) Parse(stdout string) (dataformat.Format, any, error) {
	records := []dataformat.Record{}
	for _, line := range nonEmptyLines(stdout) {
		fields := splitFields(line, 2)
		if len(fields) < 2 {
			continue
		}
		records = append(records, dataformat.Record{"size": fields[0], "path": fields[1]})
	}
	return dataformat.LIST, records, nil
}
