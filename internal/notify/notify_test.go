package notify

import (
	"os"
	"testing"

	"github.com/DesignBuilderSoftware/db-batch/internal/logging"
	"github.com/DesignBuilderSoftware/db-batch/internal/models"
)

func TestNotifierGating(t *testing.T) {
	if !NewNotifier(true, logging.NewLogger(os.Stderr)).IsEnabled() {
		t.Error("Expected notifier enabled as constructed")
	}
	if NewNotifier(false, logging.NewLogger(os.Stderr)).IsEnabled() {
		t.Error("Expected notifier disabled as constructed")
	}
}

func TestBatchCompleteDisabledIsNoOp(t *testing.T) {
	n := NewNotifier(false, logging.NewLogger(os.Stderr))

	tally := models.NewTally()
	tally.Add(models.OutcomeSuccessful, "office")

	// Must return without touching the desktop notification backend.
	n.BatchComplete(models.AnalysisEplus, tally)
}
