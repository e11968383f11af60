package config

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestWatcherTriggersReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tally.yaml")
	if err := os.WriteFile(path, []byte("server:\n  listen_address: \":8080\"\n"), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	w, err := NewWatcher(path, nil)
	if err != nil {
		t.Fatalf("Failed to create watcher: %v", err)
	}

	var reloads atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Watch(ctx, func() error {
			reloads.Add(1)
			return nil
		})
	}()

	// Give the watcher time to register before writing
	time.Sleep(200 * time.Millisecond)

	if err := os.WriteFile(path, []byte("server:\n  listen_address: \":9090\"\n"), 0o644); err != nil {
		t.Fatalf("Failed to rewrite config: %v", err)
	}

	deadline := time.After(3 * time.Second)
	for reloads.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("Expected a reload after file change")
		case <-time.After(50 * time.Millisecond):
		}
	}

	if err := w.Stop(); err != nil {
		t.Errorf("Failed to stop watcher: %v", err)
	}
	<-done
}

func TestDebouncerCollapsesBursts(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)
	defer d.Stop()

	var calls atomic.Int32
	for i := 0; i < 10; i++ {
		d.Trigger(func() { calls.Add(1) })
	}

	time.Sleep(200 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Errorf("Expected burst to collapse to 1 call, got %d", got)
	}
}

func TestWatcherStopBeforeStart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tally.yaml")
	if err := os.WriteFile(path, []byte("x: 1\n"), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	w, err := NewWatcher(path, nil)
	if err != nil {
		t.Fatalf("Failed to create watcher: %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Errorf("Expected stop before start to be a no-op, got %v", err)
	}
}
