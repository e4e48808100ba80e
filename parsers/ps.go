package parsers

import "github.com/mancerhq/mancer/core/dataformat"

// PsParser parses `ps -ef` output: UID PID PPID C STIME TTY TIME CMD,
// with CMD absorbing the remainder of the line verbatim (it may itself
// contain spaces).
type PsParser struct{}

// Ps returns the shared PsParser value.
func Ps() PsParser { return PsParser{} }

var psColumns = []string{"uid", "pid", "ppid", "c", "stime", "tty", "time", "cmd"}

func (PsParser) Parse(stdout string) (dataformat.Format, any, error) {
	lines := nonEmptyLines(stdout)
	if len(lines) == 0 {
		return dataformat.LIST, []dataformat.Record{}, nil
	}

	records := make([]dataformat.Record, 0, len(lines)-1)
	for _, line := range lines[1:] {
		fields := splitFields(line, len(psColumns))
		rec := make(dataformat.Record, len(psColumns))
		for i, col := range psColumns {
			if i < len(fields) {
				rec[col] = fields[i]
			} else {
				rec[col] = nil
			}
		}
		records = append(records, rec)
	}
	return dataformat.LIST, records, nil
}
