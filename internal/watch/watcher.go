package watch

import (
	"os"
	"sync"
	"time"

	"github.com/DesignBuilderSoftware/db-batch/internal/logging"
	"github.com/DesignBuilderSoftware/db-batch/internal/models"
)

// Intervals holds the watcher polling periods. Zero values fall back to
// the historical defaults so tests can speed everything up.
type Intervals struct {
	// Poll is the slow poll period used while waiting for files.
	Poll time.Duration

	// FastPoll is the period used while the status log is actively
	// being read.
	FastPoll time.Duration
}

func (iv Intervals) normalized() Intervals {
	if iv.Poll <= 0 {
		iv.Poll = time.Second
	}
	if iv.FastPoll <= 0 {
		iv.FastPoll = 100 * time.Millisecond
	}
	return iv
}

// Watcher observes one run. Start begins polling on its own goroutine;
// Stop requests cooperative termination and may be called more than
// once. Done is closed after the watcher has emitted its completion
// event and exited; the orchestrator must wait on it before starting
// the next run.
type Watcher interface {
	Start()
	Stop()
	Done() <-chan struct{}
}

// lifecycle carries the cooperative stop/done plumbing shared by both
// watcher variants.
type lifecycle struct {
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

func newLifecycle() lifecycle {
	return lifecycle{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// Stop requests cooperative termination. Safe to call multiple times.
func (l *lifecycle) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

// Done is closed once the completion event has been enqueued.
func (l *lifecycle) Done() <-chan struct{} {
	return l.done
}

func (l *lifecycle) stopped() bool {
	select {
	case <-l.stop:
		return true
	default:
		return false
	}
}

// sleep pauses for d, returning early with false when Stop was called.
func (l *lifecycle) sleep(d time.Duration) bool {
	select {
	case <-l.stop:
		return false
	case <-time.After(d):
		return true
	}
}

// SimpleWatcher polls a fixed set of expected output paths and records
// every path that becomes readable. It has no notion of success or
// failure: it runs until stopped and then emits the accumulated set.
type SimpleWatcher struct {
	lifecycle

	model     string
	paths     []string
	queue     *Queue
	intervals Intervals
	logger    *logging.Logger
}

// NewSimpleWatcher creates a watcher for the given run.
func NewSimpleWatcher(model string, paths []string, queue *Queue, intervals Intervals, logger *logging.Logger) *SimpleWatcher {
	return &SimpleWatcher{
		lifecycle: newLifecycle(),
		model:     model,
		paths:     paths,
		queue:     queue,
		intervals: intervals.normalized(),
		logger:    logger,
	}
}

// Start begins polling on a separate goroutine.
func (w *SimpleWatcher) Start() {
	go w.run()
}

func (w *SimpleWatcher) run() {
	defer close(w.done)

	seen := make(map[string]bool)
	for {
		w.sweep(seen)
		select {
		case <-w.stop:
			// One last sweep so files that appeared during the final
			// poll interval are not lost.
			w.sweep(seen)
			w.emit(seen)
			return
		case <-time.After(w.intervals.Poll):
		}
	}
}

// sweep try-opens every watched path and records the readable ones.
func (w *SimpleWatcher) sweep(seen map[string]bool) {
	for _, path := range w.paths {
		if seen[path] {
			continue
		}
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		f.Close()
		seen[path] = true
	}
}

// emit enqueues the accumulated file set, preserving watch-set order.
func (w *SimpleWatcher) emit(seen map[string]bool) {
	files := make([]string, 0, len(seen))
	for _, path := range w.paths {
		if seen[path] {
			files = append(files, path)
		}
	}
	w.logger.Debug().Str("model", w.model).Int("files", len(files)).Msg("Watcher finished")
	w.queue.Push(&models.CompletionEvent{Model: w.model, Files: files})
}
