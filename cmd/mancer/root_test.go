package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mancerhq/mancer/core/dataformat"
	"github.com/mancerhq/mancer/core/history"
	"github.com/mancerhq/mancer/core/mcerrors"
	"github.com/mancerhq/mancer/core/mcontext"
	"github.com/mancerhq/mancer/core/result"
)

func TestParseRemoteTargetSplitsUserHostPort(t *testing.T) {
	target, err := parseRemoteTarget("ops@db01.internal:2222", "", false, false)
	require.NoError(t, err)
	assert.Equal(t, "ops", target.User)
	assert.Equal(t, "db01.internal", target.Host)
	assert.Equal(t, 2222, target.Port)
	assert.Equal(t, mcontext.PolicyStrict, target.KnownHostsPolicy)
}

func TestParseRemoteTargetDefaultsPortAndHostOnly(t *testing.T) {
	target, err := parseRemoteTarget("db01.internal", "/home/ops/.ssh/id_ed25519", true, true)
	require.NoError(t, err)
	assert.Empty(t, target.User)
	assert.Equal(t, 22, target.Port)
	assert.Equal(t, "/home/ops/.ssh/id_ed25519", target.KeyPath)
	assert.Equal(t, mcontext.PolicyWarn, target.KnownHostsPolicy)
	assert.True(t, target.UseSudo)
}

func TestParseRemoteTargetRejectsEmptyHost(t *testing.T) {
	_, err := parseRemoteTarget("ops@", "", false, false)
	assert.Error(t, err)
}

func TestExitCodeForResultSuccessIsZero(t *testing.T) {
	r := result.New(true, 0, "ok\n", "", nil, dataformat.LIST, history.New())
	assert.Equal(t, 0, exitCodeForResult(r))
}

func TestExitCodeForResultMirrorsChildExitCode(t *testing.T) {
	r := result.New(false, 2, "", "not found\n", nil, dataformat.LIST, history.New())
	assert.Equal(t, 2, exitCodeForResult(r))
}

func TestExitCodeForResultMapsKnownErrorKind(t *testing.T) {
	r := result.New(false, -1, "", "", nil, dataformat.LIST, history.New())
	r = r.WithMetadata("error_kind", string(mcerrors.Timeout))
	assert.Equal(t, 124, exitCodeForResult(r))
}

func TestExitCodeForResultClampsOutOfRangeChildCode(t *testing.T) {
	r := result.New(false, 255, "", "connection refused\n", nil, dataformat.LIST, history.New())
	assert.Equal(t, 1, exitCodeForResult(r))
}
