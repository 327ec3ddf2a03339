// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package policyfile

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"

	"github.com/H0llyW00dzZ/tls-server-trust/src/internal/x509/trust"
)

// ErrNilReloadFunc indicates a watcher was constructed without a callback.
var ErrNilReloadFunc = errors.New("policyfile: reload callback must not be nil")

// defaultDebounce coalesces the event bursts editors and atomic saves emit
// for a single logical write.
const defaultDebounce = 250 * time.Millisecond

// ReloadFunc receives the registry and fallback policy built from a changed
// policy file. Implementations typically hand the registry to a probe
// session swap.
type ReloadFunc func(registry *trust.Registry, fallback trust.Policy)

// Watcher reloads a policy file whenever it changes on disk.
//
// The parent directory is watched rather than the file itself, so
// atomic-rename saves (write temp file, rename over the original) are
// observed as well as in-place writes. A revision that fails to load or
// build produces a warning and keeps the previous policies active.
type Watcher struct {
	// Debounce is how long the watcher waits after the last change event
	// before reloading. Defaults to 250ms.
	Debounce time.Duration

	path     string
	loader   *Loader
	onReload ReloadFunc
	fsnotify *fsnotify.Watcher
}

// NewWatcher creates a watcher for the policy file at path. The initial load
// stays with the caller; the watcher only reacts to subsequent changes.
func NewWatcher(path string, loader *Loader, onReload ReloadFunc) (*Watcher, error) {
	if onReload == nil {
		return nil, ErrNilReloadFunc
	}
	if loader == nil {
		loader = &Loader{}
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("policyfile: creating file watcher: %w", err)
	}

	cleaned := filepath.Clean(path)
	if err := fsWatcher.Add(filepath.Dir(cleaned)); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("policyfile: watching %s: %w", filepath.Dir(cleaned), err)
	}

	return &Watcher{
		Debounce: defaultDebounce,
		path:     cleaned,
		loader:   loader,
		onReload: onReload,
		fsnotify: fsWatcher,
	}, nil
}

// Start runs the watch and reload loops until ctx is cancelled, then closes
// the underlying file watcher. It returns the context's error on shutdown.
func (w *Watcher) Start(ctx context.Context) error {
	defer w.fsnotify.Close()

	trigger := make(chan struct{}, 1)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.watchLoop(ctx, trigger) })
	g.Go(func() error { return w.reloadLoop(ctx, trigger) })
	return g.Wait()
}

// Close releases the underlying file watcher. It only needs to be called
// when Start never ran; Start closes on its own way out.
func (w *Watcher) Close() error {
	return w.fsnotify.Close()
}

// watchLoop filters file system events down to changes of the policy file
// and coalesces them onto trigger.
func (w *Watcher) watchLoop(ctx context.Context, trigger chan<- struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsnotify.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			select {
			case trigger <- struct{}{}:
			default:
			}

		case err, ok := <-w.fsnotify.Errors:
			if !ok {
				return nil
			}
			w.loader.logf("Warning: watching %s: %v", w.path, err)
		}
	}
}

// reloadLoop debounces triggers and performs the reloads. Every trigger
// pushes the timer out, so a burst of events produces one reload after the
// burst settles.
func (w *Watcher) reloadLoop(ctx context.Context, trigger <-chan struct{}) error {
	timer := time.NewTimer(time.Hour)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-trigger:
			timer.Reset(w.Debounce)

		case <-timer.C:
			w.reload()
		}
	}
}

// reload rebuilds from the policy file and hands the result to the
// callback. Failures keep the previous policies.
func (w *Watcher) reload() {
	registry, fallback, err := w.loader.LoadAndBuild(w.path)
	if err != nil {
		w.loader.logf("Warning: reloading %s: %v; keeping previous policies", w.path, err)
		return
	}

	w.onReload(registry, fallback)
	w.loader.logf("Reloaded trust policies from %s (%d host entries)", w.path, registry.Len())
}
