package version

import (
	"context"
	"testing"

	"github.com/mancerhq/mancer/core/backend"
	"github.com/mancerhq/mancer/core/backend/backendtest"
	"github.com/mancerhq/mancer/core/mcontext"
	"github.com/stretchr/testify/assert"
)

func TestDetectCachesPerToolBackendTarget(t *testing.T) {
	b := backendtest.New()
	b.SetResponse("grep --version", 0, "grep (GNU grep) 3.11\n", "")

	r := NewRegistry()
	ctx := mcontext.New()

	tv1 := r.Detect(context.Background(), "grep", b, ctx)
	assert.Equal(t, "3.11", tv1.Version)

	// Change the configured response; cached result must not change.
	b.SetResponse("grep --version", 0, "grep (GNU grep) 99.0\n", "")
	tv2 := r.Detect(context.Background(), "grep", b, ctx)
	assert.Equal(t, "3.11", tv2.Version)
	assert.Len(t, b.Calls(), 1, "second Detect must be served from cache")
}

func TestInvalidateClearsCache(t *testing.T) {
	b := backendtest.New()
	b.SetResponse("grep --version", 0, "grep (GNU grep) 3.11\n", "")

	r := NewRegistry()
	ctx := mcontext.New()

	r.Detect(context.Background(), "grep", b, ctx)
	r.Invalidate("grep")

	b.SetResponse("grep --version", 0, "grep (GNU grep) 3.12\n", "")
	tv := r.Detect(context.Background(), "grep", b, ctx)
	assert.Equal(t, "3.12", tv.Version)
}

func TestDetectFallsBackToDashV(t *testing.T) {
	b := backendtest.New()
	b.SetResponse("df --version", 1, "", "unknown option")
	b.SetResponse("df -V", 0, "df version 8.2\n", "")

	r := NewRegistry()
	tv := r.Detect(context.Background(), "df", b, mcontext.New())
	assert.Equal(t, "8.2", tv.Version)
}

func TestDetectUnknownWhenUnparseable(t *testing.T) {
	b := backendtest.New()
	b.SetResponse("weirdtool --version", 1, "", "command not found")
	b.SetResponse("weirdtool -V", 1, "", "command not found")

	r := NewRegistry()
	tv := r.Detect(context.Background(), "weirdtool", b, mcontext.New())
	assert.Equal(t, "unknown", tv.Version)
}

func TestIsAllowedWithEmptyListAllowsAll(t *testing.T) {
	r := NewRegistry()
	assert.True(t, r.IsAllowed("grep", "3.11"))
}

func TestIsAllowedRespectsAllowList(t *testing.T) {
	r := NewRegistry()
	r.SetAllowed("grep", []string{"3.x"})
	assert.True(t, r.IsAllowed("grep", "3.11"))
	assert.False(t, r.IsAllowed("grep", "4.0.0"))
}

var _ backend.Backend = (*backendtest.Backend)(nil)
