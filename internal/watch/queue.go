// Package watch monitors the filesystem for run outputs while the
// external process executes, and hands completed file sets to the
// collector through an unbounded FIFO queue.
package watch

import (
	"sync"

	"github.com/DesignBuilderSoftware/db-batch/internal/models"
)

// queueItem is a tagged queue element so a shutdown request can never be
// confused with a legitimate completion event.
type queueItem struct {
	event    *models.CompletionEvent
	shutdown bool
}

// Queue is the hand-off channel between run watchers and the collector.
// Push never blocks: a watcher must be able to finish and exit even when
// the collector is busy with a slow copy. Pop blocks until an item is
// available.
type Queue struct {
	mu    sync.Mutex
	cond  *sync.Cond
	items []queueItem
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	q := &Queue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push enqueues one completion event without blocking.
func (q *Queue) Push(event *models.CompletionEvent) {
	q.mu.Lock()
	q.items = append(q.items, queueItem{event: event})
	q.mu.Unlock()
	q.cond.Signal()
}

// PushShutdown enqueues the shutdown sentinel. Items already queued are
// still drained before the collector sees it.
func (q *Queue) PushShutdown() {
	q.mu.Lock()
	q.items = append(q.items, queueItem{shutdown: true})
	q.mu.Unlock()
	q.cond.Signal()
}

// Pop blocks until an item is available. It returns ok=false when the
// popped item is the shutdown sentinel.
func (q *Queue) Pop() (event *models.CompletionEvent, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 {
		q.cond.Wait()
	}
	item := q.items[0]
	q.items = q.items[1:]
	if item.shutdown {
		return nil, false
	}
	return item.event, true
}

// Len returns the number of queued items.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
