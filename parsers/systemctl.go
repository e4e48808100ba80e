package parsers

import (
	"strings"

	"github.com/mancerhq/mancer/core/dataformat"
)

// SystemctlListUnitsParser parses `systemctl list-units --type=service`
// output: UNIT LOAD ACTIVE SUB DESCRIPTION, with DESCRIPTION absorbing
// the remainder of the line. The summary footer ("N loaded units
// listed.") and blank separator lines are dropped.
type SystemctlListUnitsParser struct{}

// SystemctlListUnits returns the shared parser value.
func SystemctlListUnits() SystemctlListUnitsParser { return SystemctlListUnitsParser{} }

var systemctlColumns = []string{"unit", "load", "active", "sub", "description"}

func (SystemctlListUnitsParser) Parse(stdout string) (dataformat.Format, any, error) {
	records := []dataformat.Record{}
	for _, line := range nonEmptyLines(stdout) {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasSuffix(trimmed, "listed.") || strings.HasPrefix(trimmed, "UNIT") {
			continue
		}
		fields := splitFields(trimmed, len(systemctlColumns))
		if len(fields) < len(systemctlColumns) {
			continue
		}
		rec := make(dataformat.Record, len(systemctlColumns))
		for i, col := range systemctlColumns {
			rec[col] = fields[i]
		}
		records = append(records, rec)
	}
	return dataformat.LIST, records, nil
}

// SystemctlStatusParser parses the single-token stdout of
// `systemctl is-active`/`is-enabled` into one LIST record under key
// "status" (e.g. "active", "inactive", "failed").
type SystemctlStatusParser struct{}

// SystemctlStatus returns the shared parser value.
func SystemctlStatus() SystemctlStatusParser { return SystemctlStatusParser{} }

func (SystemctlStatusParser) Parse(stdout string) (dataformat.Format, any, error) {
	status := strings.TrimSpace(stdout)
	if status == "" {
		return dataformat.LIST, []dataformat.Record{}, nil
	}
	return dataformat.LIST, []dataformat.Record{{"status": status}}, nil
}
