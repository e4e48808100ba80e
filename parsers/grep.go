package parsers

import (
	"strings"

	"github.com/mancerhq/mancer/core/dataformat"
)

// GrepParser turns grep's stdout into LIST records. When a line carries
// a `grep -n`-style "<number>:<rest>" prefix it splits into
// {"line_number": "<n>", "text": "<rest>"}; otherwise the whole line
// becomes {"text": "<line>"}.
type GrepParser struct{}

// Grep returns the shared GrepParser value.
func Grep() GrepParser { return GrepParser{} }

func (GrepParser) Parse(stdout string) (dataformat.Format, any, error) {
	var records []dataformat.Record
	for _, line := range strings.Split(stdout, "\n") {
		if line == "" {
			continue
		}
		if num, text, ok := splitLineNumberPrefix(line); ok {
			records = append(records, dataformat.Record{"line_number": num, "text": text})
			continue
		}
		records = append(records, dataformat.Record{"text": line})
	}
	return dataformat.LIST, records, nil
}

// splitLineNumberPrefix recognizes grep -n's "123:rest of line" prefix.
func splitLineNumberPrefix(line string) (num, text string, ok bool) {
	idx := strings.Index(line, ":")
	if idx <= 0 {
		return "", "", false
	}
	prefix := line[:idx]
	for _, r := range prefix {
		if r < '0' || r > '9' {
			return "", "", false
		}
	}
	return prefix, line[idx+1:], true
}
