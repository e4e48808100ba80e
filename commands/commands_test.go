package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEchoRendersQuotedText(t *testing.T) {
	_, rendered := Echo("hello world").Build()
	assert.Equal(t, "echo 'hello world'", rendered)
}

func TestGrepRendersPatternAndOptions(t *testing.T) {
	c := Grep("bash", GrepIgnoreCase(), GrepLineNumber())
	_, rendered := c.Build()
	assert.Equal(t, "grep -i -n bash", rendered)
}

func TestGrepIsPipeCompatible(t *testing.T) {
	assert.True(t, Grep("bash").PipeCompatible())
}

func TestPsIsNotPipeCompatible(t *testing.T) {
	assert.False(t, Ps().PipeCompatible())
	_, rendered := Ps().Build()
	assert.Equal(t, "ps -ef", rendered)
}

func TestDfRegistersBSDVersionAdapter(t *testing.T) {
	_, rendered := Df().Build()
	assert.Equal(t, "df -h", rendered)
	assert.Equal(t, "df", Df().ToolName())
}

func TestLsSuccessTreatsExitOneAsPartialSuccess(t *testing.T) {
	c := Ls()
	assert.True(t, c.DetermineSuccess(0, "", ""))
	assert.True(t, c.DetermineSuccess(1, "", "some paths unreadable"))
	assert.False(t, c.DetermineSuccess(2, "", "fatal"))
}

func TestSystemctlActionRequiresSudoAndNoCache(t *testing.T) {
	c := SystemctlAction("restart", "nginx")
	assert.True(t, c.NoCache())
	_, rendered := c.Build()
	assert.Equal(t, "systemctl restart nginx", rendered, "sudo wrapping is applied inside Execute, not Build")
}

func TestCreateReturnsRegisteredCommand(t *testing.T) {
	c, ok := Create("grep")
	assert.True(t, ok)
	assert.Equal(t, "grep", c.Name())
}

func TestCreateUnknownNameReturnsFalse(t *testing.T) {
	_, ok := Create("grpe")
	assert.False(t, ok)
}

func TestNamesIsSortedAndComplete(t *testing.T) {
	names := Names()
	assert.Contains(t, names, "echo")
	assert.Contains(t, names, "systemctl")
	for i := 1; i < len(names); i++ {
		assert.LessOrEqual(t, names[i-1], names[i])
	}
}
