package parsers

import (
	"testing"

	"github.com/mancerhq/mancer/core/dataformat"
	"github.com/stretchr/testify/assert"
)

func TestLineParserSkipsEmptyLines(t *testing.T) {
	_, out, err := Line().Parse("a\n\nb\n")
	assert.NoError(t, err)
	records := out.([]dataformat.Record)
	assert.Len(t, records, 2)
	assert.Equal(t, "a", records[0]["line"])
	assert.Equal(t, "b", records[1]["line"])
}

func TestTableParserMapsHeadersByPosition(t *testing.T) {
	stdout := "NAME AGE\nalice 30\nbob 41\n"
	_, out, err := Table().Parse(stdout)
	assert.NoError(t, err)
	records := out.([]dataformat.Record)
	assert.Len(t, records, 2)
	assert.Equal(t, "alice", records[0]["name"])
	assert.Equal(t, "30", records[0]["age"])
}

func TestGrepParserSplitsLineNumberPrefix(t *testing.T) {
	_, out, err := Grep().Parse("12:found it\nno prefix here\n")
	assert.NoError(t, err)
	records := out.([]dataformat.Record)
	assert.Equal(t, "12", records[0]["line_number"])
	assert.Equal(t, "found it", records[0]["text"])
	assert.Equal(t, "no prefix here", records[1]["text"])
	_, hasNum := records[1]["line_number"]
	assert.False(t, hasNum)
}

func TestDfGNUParserParsesSixColumns(t *testing.T) {
	stdout := "Filesystem      Size  Used Avail Use% Mounted on\n" +
		"/dev/sda1        50G   20G   28G  42% /\n"
	_, out, err := DfGNU().Parse(stdout)
	assert.NoError(t, err)
	records := out.([]dataformat.Record)
	assert.Len(t, records, 1)
	assert.Equal(t, "/dev/sda1", records[0]["filesystem"])
	assert.Equal(t, "42", records[0]["use_percent"])
	assert.Equal(t, "/", records[0]["mounted_on"])
}

func TestPsParserAbsorbsCmdRemainder(t *testing.T) {
	stdout := "UID PID PPID C STIME TTY TIME CMD\n" +
		"root 1 0 0 08:00 ? 00:00:01 /sbin/init splash\n"
	_, out, err := Ps().Parse(stdout)
	assert.NoError(t, err)
	records := out.([]dataformat.Record)
	assert.Len(t, records, 1)
	assert.Equal(t, "root", records[0]["uid"])
	assert.Equal(t, "/sbin/init splash", records[0]["cmd"])
}

func TestSystemctlListUnitsParserDropsHeaderAndFooter(t *testing.T) {
	stdout := "UNIT LOAD ACTIVE SUB DESCRIPTION\n" +
		"nginx.service loaded active running The nginx HTTP server\n" +
		"\n1 loaded units listed.\n"
	_, out, err := SystemctlListUnits().Parse(stdout)
	assert.NoError(t, err)
	records := out.([]dataformat.Record)
	assert.Len(t, records, 1)
	assert.Equal(t, "nginx.service", records[0]["unit"])
	assert.Equal(t, "The nginx HTTP server", records[0]["description"])
}

func TestSystemctlStatusParserTrimsWhitespace(t *testing.T) {
	_, out, err := SystemctlStatus().Parse("active\n")
	assert.NoError(t, err)
	records := out.([]dataformat.Record)
	assert.Equal(t, "active", records[0]["status"])
}

func TestWcParserLabelsCountersAndFile(t *testing.T) {
	_, out, err := Wc().Parse("  12  34 567 file.txt\n")
	assert.NoError(t, err)
	records := out.([]dataformat.Record)
	assert.Equal(t, "12", records[0]["count_1"])
	assert.Equal(t, "34", records[0]["count_2"])
	assert.Equal(t, "567", records[0]["count_3"])
	assert.Equal(t, "file.txt", records[0]["file"])
}

func TestDuParserSplitsSizeAndPath(t *testing.T) {
	_, out, err := Du().Parse("4.0K\t/tmp/x\n")
	assert.NoError(t, err)
	records := out.([]dataformat.Record)
	assert.Equal(t, "4.0K", records[0]["size"])
	assert.Equal(t, "/tmp/x", records[0]["path"])
}

func TestLsParserParsesLongListingAndSkipsTotalLine(t *testing.T) {
	stdout := "total 8\n" +
		"-rw-r--r-- 1 root root 4096 Jan 1 12:00 file.txt\n"
	_, out, err := Ls().Parse(stdout)
	assert.NoError(t, err)
	records := out.([]dataformat.Record)
	assert.Len(t, records, 1)
	assert.Equal(t, "file.txt", records[0]["name"])
	assert.Equal(t, "-rw-r--r--", records[0]["permissions"])
}
