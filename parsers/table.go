package parsers

import (
	"strings"

	"github.com/mancerhq/mancer/core/dataformat"
)

// TableParser splits stdout's first line into whitespace-separated
// column headers and maps every following line onto those headers by
// position, with the last column absorbing any remaining whitespace
// (so a trailing free-text column like `ps`'s CMD or `systemctl`'s
// DESCRIPTION is not truncated at its first space). Used directly by
// tools whose fixed-width banner already names its own columns, and as
// the building block generic table-shaped output parsers specialize.
type TableParser struct {
	// LowerColumns lowercases and normalizes header names (ps's "CMD"
	// becomes "cmd") so records use stable, predictable keys.
	LowerColumns bool
}

// Table returns a TableParser with normalized (lowercased) column names.
func Table() TableParser { return TableParser{LowerColumns: true} }

func (p TableParser) Parse(stdout string) (dataformat.Format, any, error) {
	lines := nonEmptyLines(stdout)
	if len(lines) == 0 {
		return dataformat.LIST, []dataformat.Record{}, nil
	}

	headers := splitFields(lines[0], 0)
	if p.LowerColumns {
		for i, h := range headers {
			headers[i] = strings.ToLower(h)
		}
	}

	records := make([]dataformat.Record, 0, len(lines)-1)
	for _, line := range lines[1:] {
		fields := splitFields(line, len(headers))
		rec := make(dataformat.Record, len(headers))
		for i, h := range headers {
			if i < len(fields) {
				rec[h] = fields[i]
			} else {
				rec[h] = nil
			}
		}
		records = append(records, rec)
	}
	return dataformat.LIST, records, nil
}

func nonEmptyLines(stdout string) []string {
	var out []string
	for _, line := range strings.Split(stdout, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}

// splitFields splits line on runs of whitespace into at most maxFields
// tokens (0 means unlimited); the final token absorbs any remaining
// text (internal whitespace included) so a trailing free-text column
// survives intact.
func splitFields(line string, maxFields int) []string {
	trimmed := strings.TrimSpace(line)
	if maxFields <= 0 {
		return strings.Fields(trimmed)
	}

	var fields []string
	rest := trimmed
	for len(fields) < maxFields-1 {
		rest = strings.TrimLeft(rest, " \t")
		idx := strings.IndexAny(rest, " \t")
		if idx < 0 {
			break
		}
		fields = append(fields, rest[:idx])
		rest = rest[idx:]
	}
	rest = strings.TrimLeft(rest, " \t")
	if rest != "" {
		fields = append(fields, rest)
	}
	return fields
}
