package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mancerhq/mancer/internal/logx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchFileInvokesCallbackOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cache:\n  capacity: 10\n"), 0o644))

	reloaded := make(chan Config, 1)
	w, err := WatchFile(path, logx.NewRecorder(), func(cfg Config) { reloaded <- cfg })
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte("cache:\n  capacity: 99\n"), 0o644))

	select {
	case cfg := <-reloaded:
		assert.Equal(t, 99, cfg.Cache.Capacity)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for config reload callback")
	}
}
