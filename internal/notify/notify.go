// Package notify provides cross-platform desktop notifications for
// finished batches. It uses github.com/gen2brain/beeep.
package notify

import (
	"fmt"

	"github.com/gen2brain/beeep"

	"github.com/DesignBuilderSoftware/db-batch/internal/logging"
	"github.com/DesignBuilderSoftware/db-batch/internal/models"
)

// Notifier handles desktop notifications. Whether it is enabled is
// fixed at construction from config and flags.
type Notifier struct {
	logger  *logging.Logger
	enabled bool
}

// NewNotifier creates a new notifier.
func NewNotifier(enabled bool, logger *logging.Logger) *Notifier {
	return &Notifier{
		logger:  logger,
		enabled: enabled,
	}
}

// IsEnabled returns whether notifications are enabled.
func (n *Notifier) IsEnabled() bool {
	return n.enabled
}

// BatchComplete sends a notification summarizing the finished batch.
func (n *Notifier) BatchComplete(analysis models.Analysis, tally *models.Tally) {
	if !n.IsEnabled() {
		return
	}

	title := "db-batch"
	message := fmt.Sprintf(
		"'%s' batch finished.\n%d successful, %d failed, %d timed out, %d skipped.",
		analysis,
		tally.Count(models.OutcomeSuccessful),
		tally.Count(models.OutcomeFailed),
		tally.Count(models.OutcomeTimedOut),
		tally.Count(models.OutcomeSkipped),
	)

	if err := beeep.Notify(title, message, ""); err != nil {
		n.logger.Warn().Err(err).Msg("Failed to send batch completion notification")
	}
}
