package watch

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func startWatcher(t *testing.T, w *Watcher) {
	t.Helper()
	w.Logger = log.New(io.Discard, "", 0)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	select {
	case <-w.Ready():
	case err := <-done:
		t.Fatalf("watcher exited early: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not start")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestNewRequiresFiles(t *testing.T) {
	if _, err := New(nil, 0, nil); err == nil {
		t.Error("expected error with no files")
	}
}

func TestNewDefaults(t *testing.T) {
	w, err := New([]string{"book.xlsx"}, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer w.watcher.Close()

	if w.Debounce != 500*time.Millisecond {
		t.Errorf("debounce = %s", w.Debounce)
	}
	if !filepath.IsAbs(w.Files[0]) {
		t.Errorf("expected absolute path, got %q", w.Files[0])
	}
}

func TestReloadOnWrite(t *testing.T) {
	dir := t.TempDir()
	book := filepath.Join(dir, "book.csv")
	if err := os.WriteFile(book, []byte("a\n1\n"), 0644); err != nil {
		t.Fatal(err)
	}

	var calls atomic.Int32
	w, err := New([]string{book}, 50*time.Millisecond, func(path string) error {
		if path != book {
			t.Errorf("reload path = %q", path)
		}
		calls.Add(1)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	startWatcher(t, w)

	for i := 0; i < 3; i++ {
		if err := os.WriteFile(book, []byte("a\n2\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	waitFor(t, func() bool { return calls.Load() >= 1 })
	time.Sleep(150 * time.Millisecond)
	if n := calls.Load(); n != 1 {
		t.Errorf("expected writes to be debounced into 1 reload, got %d", n)
	}
	events := w.Events()
	if len(events) != 1 || events[0].Status != "reloaded" {
		t.Errorf("events = %+v", events)
	}
}

func TestReloadOnReplace(t *testing.T) {
	dir := t.TempDir()
	book := filepath.Join(dir, "book.csv")
	if err := os.WriteFile(book, []byte("a\n1\n"), 0644); err != nil {
		t.Fatal(err)
	}

	var calls atomic.Int32
	w, err := New([]string{book}, 50*time.Millisecond, func(string) error {
		calls.Add(1)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	startWatcher(t, w)

	tmp := filepath.Join(dir, "book.tmp")
	if err := os.WriteFile(tmp, []byte("a\n3\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, book); err != nil {
		t.Fatal(err)
	}

	waitFor(t, func() bool { return calls.Load() >= 1 })
}

func TestIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	book := filepath.Join(dir, "book.csv")
	os.WriteFile(book, []byte("a\n"), 0644)

	var calls atomic.Int32
	w, err := New([]string{book}, 20*time.Millisecond, func(string) error {
		calls.Add(1)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	startWatcher(t, w)

	os.WriteFile(filepath.Join(dir, "other.csv"), []byte("b\n"), 0644)
	os.WriteFile(filepath.Join(dir, "~$book.csv"), []byte("lock"), 0644)
	time.Sleep(200 * time.Millisecond)

	if n := calls.Load(); n != 0 {
		t.Errorf("expected no reloads, got %d", n)
	}
}

func TestReloadErrorRecorded(t *testing.T) {
	dir := t.TempDir()
	book := filepath.Join(dir, "book.csv")
	os.WriteFile(book, []byte("a\n"), 0644)

	w, err := New([]string{book}, 20*time.Millisecond, func(string) error {
		return errors.New("corrupt workbook")
	})
	if err != nil {
		t.Fatal(err)
	}
	startWatcher(t, w)

	os.WriteFile(book, []byte("b\n"), 0644)
	waitFor(t, func() bool { return len(w.Events()) > 0 })

	evt := w.Events()[0]
	if evt.Status != "error" || evt.Error != "corrupt workbook" {
		t.Errorf("event = %+v", evt)
	}
}

func TestStartMissingDirectory(t *testing.T) {
	w, err := New([]string{filepath.Join(t.TempDir(), "missing", "book.xlsx")}, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	w.Logger = log.New(io.Discard, "", 0)
	if err := w.Start(context.Background()); err == nil {
		t.Error("expected error for a missing directory")
	}
}
