package parsers

import (
	"strconv"
	"strings"

	"github.com/mancerhq/mancer/core/dataformat"
)

// WcParser parses `wc`'s output: one or more counter columns (lines,
// words, bytes, depending on flags) followed by an optional filename.
// Since the column meaning depends on which flags were passed, it
// labels columns generically ("count_1", "count_2", ...) plus "file"
// when a filename trails the counters.
type WcParser struct{}

// Wc returns the shared WcParser value.
func Wc() WcParser { return WcParser{} }

func (WcParser) Parse(stdout string) (dataformat.Format, any, error) {
	records := []dataformat.Record{}
	for _, line := range nonEmptyLines(stdout) {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		rec := dataformat.Record{}
		counters := fields
		if last := fields[len(fields)-1]; !isAllDigits(last) {
			rec["file"] = last
			counters = fields[:len(fields)-1]
		}
		for i, f := range counters {
			rec[countKey(i)] = f
		}
		records = append(records, rec)
	}
	return dataformat.LIST, records, nil
}

func countKey(i int) string {
	return "count_" + strconv.Itoa(i+1)
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
