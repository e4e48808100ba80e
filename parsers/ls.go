package parsers

import (
	"strings"

	"github.com/mancerhq/mancer/core/dataformat"
)

// LsParser parses `ls -la` long-listing output: permissions, link
// count, owner, group, size, and a three-token date, with the entry
// name absorbing the remainder (symlinks render as "name -> target").
// The leading "total N" line, if present, is dropped.
type LsParser struct{}

// Ls returns the shared LsParser value.
func Ls() LsParser { return LsParser{} }

func (LsParser) Parse(stdout string) (dataformat.Format, any, error) {
	var records []dataformat.Record
	for _, line := range nonEmptyLines(stdout) {
		if strings.HasPrefix(line, "total ") {
			continue
		}
		fields := splitFields(line, 9)
		if len(fields) < 9 {
			continue
		}
		records = append(records, dataformat.Record{
			"permissions": fields[0],
			"links":       fields[1],
			"owner":       fields[2],
			"group":       fields[3],
			"size":        fields[4],
			"month":       fields[5],
			"day":         fields[6],
			"time_or_year": fields[7],
			"name":        fields[8],
		})
	}
	if records == nil {
		records = []dataformat.Record{}
	}
	return dataformat.LIST, records, nil
}
