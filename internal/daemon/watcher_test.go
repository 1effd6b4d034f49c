package daemon

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCacheWatcher(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "state")
	path := filepath.Join(dir, "facts.json")

	changes := make(chan struct{}, 16)
	w, err := newCacheWatcher(path, func() { changes <- struct{}{} })
	if err != nil {
		t.Fatalf("newCacheWatcher: %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("cache directory not created: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	expectChange := func(what string) {
		t.Helper()
		select {
		case <-changes:
		case <-time.After(5 * time.Second):
			t.Fatalf("no change reported after %s", what)
		}
	}
	drain := func() {
		for {
			select {
			case <-changes:
			case <-time.After(200 * time.Millisecond):
				return
			}
		}
	}

	// Unrelated files in the directory are ignored.
	if err := os.WriteFile(filepath.Join(dir, ".facts.json.tmp"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	select {
	case <-changes:
		t.Fatal("change reported for unrelated file")
	case <-time.After(300 * time.Millisecond):
	}

	// Rename over the cache file, as an atomic save does.
	if err := os.Rename(filepath.Join(dir, ".facts.json.tmp"), path); err != nil {
		t.Fatal(err)
	}
	expectChange("rename")
	drain()

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	expectChange("remove")
}
