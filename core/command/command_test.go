package command

import (
	"context"
	"strings"
	"testing"

	"github.com/mancerhq/mancer/core/backend"
	"github.com/mancerhq/mancer/core/backend/backendtest"
	"github.com/mancerhq/mancer/core/cache"
	"github.com/mancerhq/mancer/core/dataformat"
	"github.com/mancerhq/mancer/core/mcontext"
	"github.com/mancerhq/mancer/core/result"
	"github.com/mancerhq/mancer/core/version"
	"github.com/stretchr/testify/assert"
)

// lineParser is a minimal test-only Parser: one LIST record per
// non-empty stdout line, under key "line".
type lineParser struct{}

func (lineParser) Parse(stdout string) (dataformat.Format, any, error) {
	var records []dataformat.Record
	for _, line := range strings.Split(stdout, "\n") {
		if line == "" {
			continue
		}
		records = append(records, dataformat.Record{"line": line})
	}
	return dataformat.LIST, records, nil
}

func newTestEnv() (*mcontext.Context, *version.Registry, *cache.Cache) {
	return mcontext.New(), version.NewRegistry(), cache.New(10)
}

func TestRenderQuotesMetacharacters(t *testing.T) {
	c := New("echo", lineParser{}).WithArg("hello world")
	_, rendered := c.Build()
	assert.Equal(t, "echo 'hello world'", rendered)
}

func TestRenderLeavesSimpleArgsUnquoted(t *testing.T) {
	c := New("hostname", lineParser{})
	_, rendered := c.Build()
	assert.Equal(t, "hostname", rendered)
}

func TestRenderEscapesEmbeddedSingleQuotes(t *testing.T) {
	c := New("echo", lineParser{}).WithArg("it's here")
	_, rendered := c.Build()
	assert.Equal(t, `echo 'it'\''s here'`, rendered)
}

func TestWithOptionRendersFlagThenValue(t *testing.T) {
	c := New("grep", lineParser{}).WithOption("-e", "bash").WithArg("logfile")
	_, rendered := c.Build()
	assert.Equal(t, "grep -e bash logfile", rendered)
}

func TestBuilderMethodsReturnIndependentCommands(t *testing.T) {
	base := New("echo", lineParser{})
	withArg := base.WithArg("x")

	_, baseRendered := base.Build()
	_, withArgRendered := withArg.Build()
	assert.Equal(t, "echo", baseRendered)
	assert.Equal(t, "echo x", withArgRendered)
}

func TestExecuteEchoRoundTrip(t *testing.T) {
	ctx, registry, c := newTestEnv()
	b := backendtest.New()
	b.SetResponse("echo 'hello world'", 0, "hello world\n", "")

	cmd := New("echo", lineParser{}).WithArg("hello world")
	r := cmd.Execute(context.Background(), ctx, b, registry, c, backend.Options{}, nil)

	assert.True(t, r.Success)
	assert.Equal(t, 0, r.ExitCode)
	assert.Equal(t, "hello world\n", r.RawOutput)
	assert.Equal(t, 1, r.History.Len())
}

func TestExecuteAppliesSuccessOverride(t *testing.T) {
	ctx, registry, c := newTestEnv()
	b := backendtest.New()
	b.SetResponse("grep bash", 1, "", "")

	cmd := New("grep", lineParser{}).WithArg("bash").WithSuccessFn(func(exitCode int, _, _ string) bool {
		return exitCode == 0 || exitCode == 1
	})
	r := cmd.Execute(context.Background(), ctx, b, registry, c, backend.Options{}, nil)

	assert.True(t, r.Success, "grep exit 1 (no match) should still be success under the override")
}

func TestExecuteCachesSecondCallAndMarksCached(t *testing.T) {
	ctx, registry, c := newTestEnv()
	b := backendtest.New()
	b.SetResponse("hostname", 0, "myhost\n", "")

	cmd := New("hostname", lineParser{})
	first := cmd.Execute(context.Background(), ctx, b, registry, c, backend.Options{}, nil)
	assert.Len(t, b.Calls(), 1)

	second := cmd.Execute(context.Background(), ctx, b, registry, c, backend.Options{}, nil)
	assert.Len(t, b.Calls(), 1, "second execute must be served from cache")
	assert.Equal(t, first.RawOutput, second.RawOutput)
	assert.True(t, second.History.Steps()[second.History.Len()-1].Cached)
	assert.Equal(t, first.History.Len()+1, second.History.Len(),
		"a cache hit appends a fresh history step rather than rewriting the original one")
}

func TestExecuteSkipsCacheWhenNoCache(t *testing.T) {
	ctx, registry, c := newTestEnv()
	b := backendtest.New()
	b.SetResponse("rm -rf /tmp/x", 0, "", "")

	cmd := New("rm", lineParser{}).WithArg("-rf").WithArg("/tmp/x").WithNoCache()
	cmd.Execute(context.Background(), ctx, b, registry, c, backend.Options{}, nil)
	cmd.Execute(context.Background(), ctx, b, registry, c, backend.Options{}, nil)

	assert.Len(t, b.Calls(), 2, "no_cache commands must re-execute every time")
}

func TestExecutePipesInputDataFromPriorResult(t *testing.T) {
	ctx, registry, c := newTestEnv()
	b := backendtest.New()
	b.SetResponse("grep bash", 0, "bash\n", "")

	prior := result.New(true, 0, "ps -ef\nbash\n", "", nil, dataformat.LIST, nil)
	cmd := New("grep", lineParser{}).WithArg("bash")
	r := cmd.Execute(context.Background(), ctx, b, registry, c, backend.Options{}, &prior)

	assert.True(t, r.Success)
	data, ok := ctx.Parameter("input_data")
	assert.True(t, ok)
	assert.Equal(t, "ps -ef\nbash\n", data)
}

func TestExecuteConvertsToPreferredFormat(t *testing.T) {
	ctx, registry, c := newTestEnv()
	b := backendtest.New()
	b.SetResponse("hostname", 0, "myhost\n", "")

	cmd := New("hostname", lineParser{}).WithDataFormat(dataformat.JSON)
	r := cmd.Execute(context.Background(), ctx, b, registry, c, backend.Options{}, nil)

	assert.True(t, r.Success)
	assert.Equal(t, dataformat.JSON, r.DataFormat)
}

func TestExecuteParserFailureDoesNotFailCommand(t *testing.T) {
	ctx, registry, c := newTestEnv()
	b := backendtest.New()
	b.SetResponse("hostname", 0, "myhost\n", "")

	cmd := New("hostname", failingParser{})
	r := cmd.Execute(context.Background(), ctx, b, registry, c, backend.Options{}, nil)

	assert.True(t, r.Success, "a parser failure must not flip command success")
	assert.Contains(t, r.Metadata, "error_kind")
}

type failingParser struct{}

func (failingParser) Parse(stdout string) (dataformat.Format, any, error) {
	return "", nil, assertError("parser exploded")
}

type assertError string

func (e assertError) Error() string { return string(e) }
