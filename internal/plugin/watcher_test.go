// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 FluxStudio Contributors

package plugin_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/fluxstudio/fluxstudio/internal/plugin"
)

func receive(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case name, ok := <-ch:
		require.True(t, ok, "changes closed")
		return name
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
		return ""
	}
}

func TestWatcher_ReportsChangedPlugins(t *testing.T) {
	defer goleak.VerifyNone(t)

	root := t.TempDir()
	for _, name := range []string{"rugs", "lamps"} {
		require.NoError(t, os.Mkdir(filepath.Join(root, name), 0o755))
	}

	w, err := plugin.NewWatcher(root, plugin.WithDebounce(150*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	for _, f := range []string{"rugs/plugin.yaml", "rugs/main.lua", "lamps/plugin.yaml"} {
		require.NoError(t, os.WriteFile(filepath.Join(root, f), []byte("x"), 0o600))
	}
	assert.Equal(t, "lamps", receive(t, w.Changes()))
	assert.Equal(t, "rugs", receive(t, w.Changes()))

	require.NoError(t, os.Mkdir(filepath.Join(root, "fresh"), 0o755))
	assert.Equal(t, "fresh", receive(t, w.Changes()))
	require.NoError(t, os.WriteFile(filepath.Join(root, "fresh", "plugin.yaml"), []byte("x"), 0o600))
	assert.Equal(t, "fresh", receive(t, w.Changes()))

	cancel()
	<-done
	_, ok := <-w.Changes()
	assert.False(t, ok)
	require.NoError(t, w.Close())
}

func TestWatcher_CloseStopsRun(t *testing.T) {
	defer goleak.VerifyNone(t)

	w, err := plugin.NewWatcher(t.TempDir())
	require.NoError(t, err)
	done := make(chan struct{})
	go func() {
		w.Run(context.Background())
		close(done)
	}()

	require.NoError(t, w.Close())
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after Close")
	}
}

func TestWatcher_MissingDir(t *testing.T) {
	_, err := plugin.NewWatcher(filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}
