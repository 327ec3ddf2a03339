// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package policyfile

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/H0llyW00dzZ/tls-server-trust/src/internal/x509/trust"
	"github.com/H0llyW00dzZ/tls-server-trust/src/logger"
)

// watcherHarness runs a Watcher against a real temp file and collects the
// registries its callback receives.
type watcherHarness struct {
	path    string
	reloads chan *trust.Registry
	cancel  context.CancelFunc
	group   *errgroup.Group
}

// startWatcher writes the initial config, starts a short-debounce watcher on
// it, and returns a harness for driving changes.
func startWatcher(t *testing.T, loader *Loader, initial string) *watcherHarness {
	t.Helper()

	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(initial), 0o600))

	reloads := make(chan *trust.Registry, 8)
	watcher, err := NewWatcher(path, loader, func(registry *trust.Registry, fallback trust.Policy) {
		reloads <- registry
	})
	require.NoError(t, err)
	watcher.Debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return watcher.Start(gctx) })
	t.Cleanup(func() {
		cancel()
		g.Wait()
	})

	// Give the watch loops a moment to begin draining events.
	time.Sleep(50 * time.Millisecond)

	return &watcherHarness{path: path, reloads: reloads, cancel: cancel, group: g}
}

// awaitReload blocks until the callback delivers a registry or the deadline
// passes.
func (h *watcherHarness) awaitReload(t *testing.T) *trust.Registry {
	t.Helper()

	select {
	case registry := <-h.reloads:
		return registry
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a policy reload")
		return nil
	}
}

func TestNewWatcherValidation(t *testing.T) {
	t.Run("Nil Callback", func(t *testing.T) {
		_, err := NewWatcher("policy.yaml", &Loader{}, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrNilReloadFunc)
	})

	t.Run("Missing Directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "absent", "policy.yaml")
		_, err := NewWatcher(path, &Loader{}, func(*trust.Registry, trust.Policy) {})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "watching")
	})

	t.Run("Nil Loader Gets A Default", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "policy.yaml")
		require.NoError(t, os.WriteFile(path, []byte("{}"), 0o600))

		watcher, err := NewWatcher(path, nil, func(*trust.Registry, trust.Policy) {})
		require.NoError(t, err)
		require.NotNil(t, watcher.loader)
		assert.NoError(t, watcher.Close())
	})
}

func TestWatcherCloseWithoutStart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o600))

	watcher, err := NewWatcher(path, &Loader{}, func(*trust.Registry, trust.Policy) {})
	require.NoError(t, err)
	assert.NoError(t, watcher.Close())
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	harness := startWatcher(t, &Loader{}, "hosts:\n  a.test:\n    variant: disabled\n")

	require.NoError(t, os.WriteFile(harness.path, []byte("hosts:\n  b.test:\n    variant: disabled\n"), 0o600))

	registry := harness.awaitReload(t)
	assert.Equal(t, []string{"b.test"}, registry.Hosts())
}

func TestWatcherStopsOnCancel(t *testing.T) {
	harness := startWatcher(t, &Loader{}, "{}")

	harness.cancel()
	err := harness.group.Wait()
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWatcherKeepsLastGoodOnError(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewCLILogger()
	log.SetOutput(&buf)

	harness := startWatcher(t, &Loader{Log: log}, "hosts:\n  a.test:\n    variant: disabled\n")

	// Tab indentation makes the revision unparseable.
	require.NoError(t, os.WriteFile(harness.path, []byte("hosts:\n\ta.test: 1\n"), 0o600))

	assert.Eventually(t, func() bool {
		return bytes.Contains(buf.Bytes(), []byte("keeping previous policies"))
	}, 5*time.Second, 20*time.Millisecond)
	assert.Empty(t, harness.reloads)

	// A fixed revision loads again.
	require.NoError(t, os.WriteFile(harness.path, []byte("hosts:\n  fixed.test:\n    variant: disabled\n"), 0o600))

	registry := harness.awaitReload(t)
	assert.Equal(t, []string{"fixed.test"}, registry.Hosts())
}

func TestWatcherSeesAtomicRename(t *testing.T) {
	harness := startWatcher(t, &Loader{}, "hosts:\n  a.test:\n    variant: disabled\n")

	// Write-then-rename is how editors and config management save files.
	staging := harness.path + ".tmp"
	require.NoError(t, os.WriteFile(staging, []byte("hosts:\n  renamed.test:\n    variant: disabled\n"), 0o600))
	require.NoError(t, os.Rename(staging, harness.path))

	registry := harness.awaitReload(t)
	assert.Equal(t, []string{"renamed.test"}, registry.Hosts())
}

func TestWatcherCoalescesBursts(t *testing.T) {
	harness := startWatcher(t, &Loader{}, "hosts:\n  a.test:\n    variant: disabled\n")

	for i := range 5 {
		contents := "hosts:\n  burst.test:\n    variant: disabled\n"
		require.NoError(t, os.WriteFile(harness.path, []byte(contents), 0o600))
		if i < 4 {
			time.Sleep(2 * time.Millisecond)
		}
	}

	registry := harness.awaitReload(t)
	assert.Equal(t, []string{"burst.test"}, registry.Hosts())

	// The burst settles into far fewer reloads than writes.
	time.Sleep(200 * time.Millisecond)
	assert.LessOrEqual(t, len(harness.reloads), 2)
}
