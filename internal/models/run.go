// Package models defines the shared data types for batch runs.
package models

import (
	"sync"
)

// Analysis selects which calculation DesignBuilder performs and which
// watcher variant classifies the run.
type Analysis string

const (
	// AnalysisEplus runs an EnergyPlus simulation. Outcomes are read
	// from the eplusout.err status log.
	AnalysisEplus Analysis = "eplus"

	// AnalysisSbem runs an SBEM calculation. There is no status log;
	// the process exit itself is the only outcome signal.
	AnalysisSbem Analysis = "sbem"
)

// Valid reports whether the analysis type is supported.
func (a Analysis) Valid() bool {
	return a == AnalysisEplus || a == AnalysisSbem
}

// WorkItem is one model file to be processed by the external tool.
// Immutable once listed.
type WorkItem struct {
	// Name is the model identity: base file name, extension stripped.
	Name string

	// Path is the absolute source path of the model file.
	Path string

	// Ordinal is the 1-based position in the batch.
	Ordinal int
}

// Outcome classifies how a single run ended.
type Outcome string

const (
	OutcomeSuccessful Outcome = "successful"
	OutcomeFailed     Outcome = "failed"
	OutcomeTimedOut   Outcome = "expired"
	OutcomeSkipped    Outcome = "skipped"
)

// Outcomes lists all outcome kinds in report order.
var Outcomes = []Outcome{OutcomeSkipped, OutcomeTimedOut, OutcomeFailed, OutcomeSuccessful}

// Tally records exactly one outcome per work item. Appends interleave
// between the orchestrator goroutine (Skipped, TimedOut and sbem
// Successful) and the run watcher goroutine (Successful, Failed), so
// access is mutex-guarded and the first recorded outcome for a model
// wins: a process timeout and a fatal log line can both claim the same
// run, and the lists must still partition the batch.
type Tally struct {
	mu       sync.Mutex
	lists    map[Outcome][]string
	recorded map[string]Outcome
}

// NewTally creates an empty tally.
func NewTally() *Tally {
	return &Tally{
		lists:    make(map[Outcome][]string),
		recorded: make(map[string]Outcome),
	}
}

// Add records the outcome for a model. It reports whether the record
// was taken; a model that already has an outcome keeps it.
func (t *Tally) Add(outcome Outcome, model string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.recorded[model]; ok {
		return false
	}
	t.recorded[model] = outcome
	t.lists[outcome] = append(t.lists[outcome], model)
	return true
}

// Names returns a copy of the model names recorded for the outcome,
// in the order they were appended.
func (t *Tally) Names(outcome Outcome) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	names := make([]string, len(t.lists[outcome]))
	copy(names, t.lists[outcome])
	return names
}

// Count returns how many models ended with the given outcome.
func (t *Tally) Count(outcome Outcome) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.lists[outcome])
}

// Total returns the number of recorded outcomes across all kinds.
func (t *Tally) Total() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	total := 0
	for _, names := range t.lists {
		total += len(names)
	}
	return total
}

// CompletionEvent is the hand-off from a run watcher to the collector:
// the model name plus the ordered list of produced or retained file
// paths. Ownership of the referenced paths transfers with the event.
type CompletionEvent struct {
	Model string
	Files []string
}
