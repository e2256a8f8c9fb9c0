package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/DesignBuilderSoftware/db-batch/internal/models"
)

// ReportWriter appends single lines to the plain-text batch summary
// file. A disabled writer (empty path) turns every call into a no-op so
// callers never branch on whether reporting was requested.
//
// Appends are mutex-guarded: timeout lines come from the orchestrator
// goroutine while failure lines come from the watcher goroutine.
type ReportWriter struct {
	mu   sync.Mutex
	path string
}

// NewReportWriter creates the summary file in the results root and
// writes the header. The file name carries the analysis type and a
// timestamp so consecutive batches never clobber each other.
func NewReportWriter(resultsRoot string, analysis models.Analysis, numModels int) (*ReportWriter, error) {
	stamp := time.Now().Format("2006-01-02_15-04-05")
	path := filepath.Join(resultsRoot, fmt.Sprintf("summary_%s_%s.txt", analysis, stamp))

	header := fmt.Sprintf("Running '%s' analysis.\n\tNumber of files: '%d'.\n", analysis, numModels)
	if err := os.WriteFile(path, []byte(header), 0o644); err != nil {
		return nil, fmt.Errorf("cannot create report file: %w", err)
	}
	return &ReportWriter{path: path}, nil
}

// NewDisabledReport returns a writer whose methods do nothing.
func NewDisabledReport() *ReportWriter {
	return &ReportWriter{}
}

// Path returns the summary file location, empty when disabled.
func (w *ReportWriter) Path() string {
	return w.path
}

// Appendf appends one formatted line. Write errors are swallowed: a
// failing report must never interrupt the batch.
func (w *ReportWriter) Appendf(format string, args ...interface{}) {
	if w.path == "" {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	defer f.Close()
	fmt.Fprintf(f, format+"\n", args...)
}

// Finish appends the closing summary block with per-outcome counts.
func (w *ReportWriter) Finish(tally *models.Tally) {
	if w.path == "" {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return
	}
	defer f.Close()
	fmt.Fprint(f, SummaryText(tally))
}

// Labels for the summary block, printed in models.Outcomes order.
var outcomeLabels = map[models.Outcome]string{
	models.OutcomeSkipped:    "Skipped",
	models.OutcomeTimedOut:   "Timeout expired",
	models.OutcomeFailed:     "Failed",
	models.OutcomeSuccessful: "Successful",
}

// SummaryText renders the final tally block written to the report and
// echoed to the console.
func SummaryText(tally *models.Tally) string {
	rule := strings.Repeat("*", 50)

	var b strings.Builder
	fmt.Fprintf(&b, "\n%s\nSummary:\n", rule)
	for _, outcome := range models.Outcomes {
		fmt.Fprintf(&b, "\t%s: '%d' models.\n", outcomeLabels[outcome], tally.Count(outcome))
	}
	fmt.Fprintf(&b, "%s\n", rule)
	return b.String()
}
