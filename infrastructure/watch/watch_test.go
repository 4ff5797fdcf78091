package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNew_NoFiles(t *testing.T) {
	t.Parallel()
	if _, err := New(nil, DefaultOptions()); !errors.Is(err, ErrNoFiles) {
		t.Errorf("New(nil) error = %v, want ErrNoFiles", err)
	}
}

func TestNew_MissingDir(t *testing.T) {
	t.Parallel()
	missing := filepath.Join(t.TempDir(), "absent", "problem.yaml")
	if _, err := New([]string{missing}, DefaultOptions()); err == nil {
		t.Error("New() should fail for a missing directory")
	}
}

func TestWatcher_Run(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	watched := filepath.Join(dir, "problem.yaml")
	other := filepath.Join(dir, "other.yaml")
	for _, f := range []string{watched, other} {
		if err := os.WriteFile(f, []byte("a: 1\n"), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	w, err := New([]string{watched}, Options{Debounce: 20 * time.Millisecond})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	got := make(chan []string, 4)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(_ context.Context, changed []string) {
			got <- changed
		})
	}()

	// Give the watcher a moment to start receiving events.
	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(other, []byte("a: 2\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(watched, []byte("a: 3\n"), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	select {
	case changed := <-got:
		if len(changed) != 1 || filepath.Base(changed[0]) != "problem.yaml" {
			t.Errorf("changed = %v, want only problem.yaml", changed)
		}
	case <-ctx.Done():
		t.Fatal("no change delivered")
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}
