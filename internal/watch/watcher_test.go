package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DesignBuilderSoftware/db-batch/internal/logging"
	"github.com/DesignBuilderSoftware/db-batch/internal/models"
)

var testIntervals = Intervals{Poll: 5 * time.Millisecond, FastPoll: time.Millisecond}

func testLogger() *logging.Logger {
	return logging.NewLogger(os.Stderr)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func waitEvent(t *testing.T, q *Queue, w Watcher) *models.CompletionEvent {
	t.Helper()
	select {
	case <-w.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("Watcher did not terminate")
	}
	event, ok := q.Pop()
	if !ok {
		t.Fatal("Expected completion event, got shutdown")
	}
	return event
}

func TestSimpleWatcherAccumulatesAppearedFiles(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		filepath.Join(dir, "model.inp"),
		filepath.Join(dir, "model_epc.inp"),
		filepath.Join(dir, "model_ber.inp"),
	}
	writeFile(t, paths[0], "present before start")

	q := NewQueue()
	w := NewSimpleWatcher("office", paths, q, testIntervals, testLogger())
	w.Start()

	// Second file appears mid-run, the third never does.
	time.Sleep(15 * time.Millisecond)
	writeFile(t, paths[1], "appeared later")
	time.Sleep(15 * time.Millisecond)

	w.Stop()
	event := waitEvent(t, q, w)

	if event.Model != "office" {
		t.Errorf("Expected model office, got %s", event.Model)
	}
	if len(event.Files) != 2 {
		t.Fatalf("Expected 2 files, got %v", event.Files)
	}
	// Watch-set order is preserved regardless of appearance order.
	if event.Files[0] != paths[0] || event.Files[1] != paths[1] {
		t.Errorf("Unexpected file order: %v", event.Files)
	}
}

func TestSimpleWatcherEmitsEmptySetWhenNothingAppeared(t *testing.T) {
	dir := t.TempDir()
	q := NewQueue()
	w := NewSimpleWatcher("empty", []string{filepath.Join(dir, "never.inp")}, q, testIntervals, testLogger())
	w.Start()
	w.Stop()

	event := waitEvent(t, q, w)
	if len(event.Files) != 0 {
		t.Errorf("Expected no files, got %v", event.Files)
	}
}

func TestSimpleWatcherFinalSweepCatchesLateFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.inp")

	q := NewQueue()
	w := NewSimpleWatcher("late", []string{path}, q, Intervals{Poll: time.Second, FastPoll: time.Millisecond}, testLogger())
	w.Start()

	// File appears while the watcher sleeps through its long poll;
	// the post-stop sweep must still pick it up.
	time.Sleep(10 * time.Millisecond)
	writeFile(t, path, "late arrival")
	w.Stop()

	event := waitEvent(t, q, w)
	if len(event.Files) != 1 {
		t.Errorf("Expected late file in event, got %v", event.Files)
	}
}

func TestSimpleWatcherStopIsIdempotent(t *testing.T) {
	q := NewQueue()
	w := NewSimpleWatcher("twice", nil, q, testIntervals, testLogger())
	w.Start()
	w.Stop()
	w.Stop()

	event := waitEvent(t, q, w)
	if event.Model != "twice" {
		t.Errorf("Expected event for model twice, got %s", event.Model)
	}
	if q.Len() != 0 {
		t.Errorf("Expected exactly one event, %d items left", q.Len())
	}
}
