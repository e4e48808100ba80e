package parsers

import (
	"strings"

	"github.com/mancerhq/mancer/core/dataformat"
)

// DfGNUParser parses GNU coreutils `df -h` output, whose six columns
// (Filesystem, Size, Used, Avail, Use%, Mounted on) are fixed regardless
// of locale. This is the default df parser (coreutils 8.x/9.x share the
// same column layout).
type DfGNUParser struct{}

// DfGNU returns the shared DfGNUParser value.
func DfGNU() DfGNUParser { return DfGNUParser{} }

func (DfGNUParser) Parse(stdout string) (dataformat.Format, any, error) {
	lines := nonEmptyLines(stdout)
	if len(lines) == 0 {
		return dataformat.LIST, []dataformat.Record{}, nil
	}

	records := make([]dataformat.Record, 0, len(lines)-1)
	for _, line := range lines[1:] {
		fields := splitFields(line, 6)
		if len(fields) < 6 {
			continue
		}
		records = append(records, dataformat.Record{
			"filesystem":  fields[0],
			"size":        fields[1],
			"used":        fields[2],
			"avail":       fields[3],
			"use_percent": strings.TrimSuffix(fields[4], "%"),
			"mounted_on":  fields[5],
		})
	}
	return dataformat.LIST, records, nil
}

// DfBSDParser parses BSD df's `-h` output, whose header additionally
// splits Capacity out from a combined iused/ifree/%iused trio that GNU
// df does not print by default. commands.Df registers it as the version
// adapter for the "1.x" band.
type DfBSDParser struct{}

// DfBSD returns the shared DfBSDParser value.
func DfBSD() DfBSDParser { return DfBSDParser{} }

func (DfBSDParser) Parse(stdout string) (dataformat.Format, any, error) {
	lines := nonEmptyLines(stdout)
	if len(lines) == 0 {
		return dataformat.LIST, []dataformat.Record{}, nil
	}

	records := make([]dataformat.Record, 0, len(lines)-1)
	for _, line := range lines[1:] {
		fields := splitFields(line, 9)
		if len(fields) < 9 {
			continue
		}
		records = append(records, dataformat.Record{
			"filesystem":  fields[0],
			"size":        fields[1],
			"used":        fields[2],
			"avail":       fields[3],
			"use_percent": strings.TrimSuffix(fields[4], "%"),
			"iused":       fields[5],
			"ifree":       fields[6],
			"iuse_percent": strings.TrimSuffix(fields[7], "%"),
			"mounted_on":  fields[8],
		})
	}
	return dataformat.LIST, records, nil
}
