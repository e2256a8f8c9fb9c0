// Package batch sequences external DesignBuilder runs: it launches one
// process at a time under a timeout, pairs each run with a filesystem
// watcher, and hands completed output sets to the background collector.
package batch

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/DesignBuilderSoftware/db-batch/internal/collect"
	"github.com/DesignBuilderSoftware/db-batch/internal/config"
	"github.com/DesignBuilderSoftware/db-batch/internal/diskspace"
	"github.com/DesignBuilderSoftware/db-batch/internal/logging"
	"github.com/DesignBuilderSoftware/db-batch/internal/models"
	"github.com/DesignBuilderSoftware/db-batch/internal/process"
	"github.com/DesignBuilderSoftware/db-batch/internal/progress"
	"github.com/DesignBuilderSoftware/db-batch/internal/scan"
	"github.com/DesignBuilderSoftware/db-batch/internal/validation"
	"github.com/DesignBuilderSoftware/db-batch/internal/watch"
)

// minResultsSpace is the free space wanted on the results filesystem
// before a batch starts. Falling below it only warns: the batch may
// still fit, and per-file copy errors are logged either way.
const minResultsSpace int64 = 512 * 1024 * 1024

// Options describe one batch run.
type Options struct {
	ModelsDir  string
	OutputsDir string
	Analysis   models.Analysis

	// Depth bounds model discovery below ModelsDir.
	Depth int

	// StartIndex and EndIndex bound the 1-based range of models
	// actually run; models outside it are recorded as skipped.
	// Zero values mean "from the first" and "to the last".
	StartIndex int
	EndIndex   int

	// WatchFiles overrides the default expected-output list. Nil uses
	// the defaults for the analysis type.
	WatchFiles []string

	// WriteReport enables the plain-text summary file.
	WriteReport bool

	Collect collect.Options
	Command CommandOptions
}

// Notifier is the completion notification hook; nil disables it.
type Notifier interface {
	BatchComplete(analysis models.Analysis, tally *models.Tally)
}

// killFunc matches process.KillByName so tests can stub the pre-run
// cleanup.
type killFunc func(name string, grace time.Duration, logger *logging.Logger) error

// Runner is the orchestrator: the sequencing control loop driving one
// external run at a time. At most one run is active at any moment, and
// the watcher for run n is always joined before run n+1 starts.
type Runner struct {
	opts     Options
	cfg      *config.Config
	invoker  process.Invoker
	logger   *logging.Logger
	progress progress.Reporter
	notifier Notifier
	kill     killFunc
}

// NewRunner creates a runner. The invoker must already have been
// validated against the executable path.
func NewRunner(opts Options, cfg *config.Config, invoker process.Invoker, logger *logging.Logger) *Runner {
	return &Runner{
		opts:     opts,
		cfg:      cfg,
		invoker:  invoker,
		logger:   logger,
		progress: progress.NewNoOpProgress(),
		kill:     process.KillByName,
	}
}

// SetProgress replaces the progress reporter.
func (r *Runner) SetProgress(p progress.Reporter) {
	r.progress = p
}

// SetNotifier sets the completion notification hook.
func (r *Runner) SetNotifier(n Notifier) {
	r.notifier = n
}

// Run executes the whole batch and returns the outcome tally. Fatal
// configuration errors abort before the first run; per-run timeouts and
// failures are recorded and never interrupt the batch.
func (r *Runner) Run(ctx context.Context) (*models.Tally, error) {
	if !r.opts.Analysis.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAnalysis, r.opts.Analysis)
	}

	// A leftover instance would swallow the automation command of the
	// first run. Best effort: a missing process is not an error.
	if err := r.kill(r.cfg.DesignBuilder.ProcessName, r.cfg.Batch.KillGrace, r.logger); err != nil {
		r.logger.Warn().Err(err).Msg("Pre-run process cleanup failed")
	}

	modelPaths, err := scan.Models(scan.Options{Root: r.opts.ModelsDir, Depth: r.opts.Depth})
	if err != nil {
		return nil, err
	}
	if len(modelPaths) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoModels, r.opts.ModelsDir)
	}

	start := r.opts.StartIndex
	if start < 1 {
		start = 1
	}
	if start > len(modelPaths) {
		return nil, fmt.Errorf("%w: start index %d, %d models", ErrInvalidStartIndex, start, len(modelPaths))
	}
	end := r.opts.EndIndex
	if end < 1 {
		end = len(modelPaths)
	}

	watchPaths, err := BuildWatchSet(r.opts.Analysis, r.cfg.DesignBuilder.AppDataDir, r.opts.WatchFiles)
	if err != nil {
		return nil, err
	}

	command, err := BuildCommand(r.opts.Command)
	if err != nil {
		return nil, err
	}
	r.logger.Info().Str("command", command).Msg("Composed automation command")

	// The purge step deletes expected outputs between runs; a results
	// tree inside the application data directory could lose collected
	// files to it.
	if validation.Within(r.opts.OutputsDir, r.cfg.DesignBuilder.AppDataDir) {
		return nil, fmt.Errorf("outputs directory %s is inside the application data directory %s",
			r.opts.OutputsDir, r.cfg.DesignBuilder.AppDataDir)
	}

	if err := os.MkdirAll(r.opts.OutputsDir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create outputs directory: %w", err)
	}

	if err := diskspace.Check(r.opts.OutputsDir, minResultsSpace); err != nil {
		r.logger.Warn().Err(err).Msg("Results filesystem is low on space")
	}

	report := NewDisabledReport()
	if r.opts.WriteReport {
		report, err = NewReportWriter(r.opts.OutputsDir, r.opts.Analysis, len(modelPaths))
		if err != nil {
			return nil, err
		}
		r.logger.Info().Str("path", report.Path()).Msg("Writing batch summary")
	}

	queue := watch.NewQueue()
	collector := collect.NewCollector(queue, r.opts.OutputsDir, r.opts.Collect, r.logger.Sub("collector"))
	collector.Start()

	tally := models.NewTally()
	intervals := watch.Intervals{
		Poll:     r.cfg.Batch.PollInterval,
		FastPoll: r.cfg.Batch.FastPoll,
	}

	r.progress.Start(int64(len(modelPaths)), "Running batch")

	for i, path := range modelPaths {
		ordinal := i + 1
		item := models.WorkItem{
			Name:    scan.ModelName(path),
			Path:    path,
			Ordinal: ordinal,
		}

		// Purge before the skip check so outputs of a previous attempt
		// never leak into the next run that is actually executed.
		PurgeWatchSet(watchPaths, r.logger)

		if ordinal < start || ordinal > end || ctx.Err() != nil {
			r.logger.Info().Int("index", ordinal).Int("total", len(modelPaths)).Str("model", item.Name).Msg("Skipping")
			tally.Add(models.OutcomeSkipped, item.Name)
			r.progress.Update(int64(ordinal))
			continue
		}

		r.logger.Info().Int("index", ordinal).Int("total", len(modelPaths)).Str("model", item.Name).Msg("Running")
		r.progress.SetDescription(item.Name)

		r.runOne(ctx, item, command, watchPaths, queue, tally, report, intervals)
		r.progress.Update(int64(ordinal))
	}

	// Every watcher has been joined inside the loop, so all completion
	// events are already queued; the sentinel goes in last and the
	// collector drains everything before it exits.
	report.Finish(tally)
	collector.Stop()
	collector.Wait()

	r.progress.Finish()
	fmt.Print(SummaryText(tally))

	if r.notifier != nil {
		r.notifier.BatchComplete(r.opts.Analysis, tally)
	}
	return tally, nil
}

// runOne drives a single non-skipped work item: watcher start, process
// invocation under timeout, outcome bookkeeping and watcher join.
func (r *Runner) runOne(ctx context.Context, item models.WorkItem, command string, watchPaths []string, queue *watch.Queue, tally *models.Tally, report *ReportWriter, intervals watch.Intervals) {
	watcher := r.newWatcher(item.Name, watchPaths, queue, tally, report, intervals)
	watcher.Start()

	completed, err := r.invoker.Run(ctx, item.Path, command)
	if err != nil {
		r.logger.Error().Err(err).Str("model", item.Name).Msg("Process invocation failed")
	}

	if !completed {
		r.logger.Warn().Str("model", item.Name).Msg("Timeout expired")
		// Force the watcher to emit whatever partial set it has seen.
		watcher.Stop()
	}

	if r.opts.Analysis == models.AnalysisSbem {
		// There is no asynchronous backend to keep waiting on: the
		// calculation is finished when the process returns. Give
		// trailing writes a moment to settle, then close the watcher.
		if completed {
			tally.Add(models.OutcomeSuccessful, item.Name)
		}
		watcher.Stop()
		sleepCtx(ctx, r.cfg.Batch.SettleDelay)
	}

	forced := r.joinWatcher(watcher)

	// The watcher has exited; whatever it recorded stands. A run whose
	// process blew the timeout, or whose watcher never saw a terminal
	// line within a full run timeout, is recorded here so every work
	// item ends with exactly one outcome.
	if !completed || forced {
		if tally.Add(models.OutcomeTimedOut, item.Name) {
			report.Appendf("File '%s' - Timeout expired!", item.Name)
		}
	}
}

// newWatcher selects the watcher variant for the analysis mode: the
// log-scanning watcher for EnergyPlus runs, plain existence polling
// otherwise.
func (r *Runner) newWatcher(model string, paths []string, queue *watch.Queue, tally *models.Tally, report *ReportWriter, intervals watch.Intervals) watch.Watcher {
	if r.opts.Analysis == models.AnalysisEplus {
		return watch.NewLogWatcher(model, paths, queue, r.cfg.DesignBuilder.JobServerDir, tally, report, intervals, r.logger.Sub("watcher"))
	}
	return watch.NewSimpleWatcher(model, paths, queue, intervals, r.logger.Sub("watcher"))
}

// joinWatcher waits for the watcher goroutine to terminate before the
// next run may start. A Simulation Manager run can keep producing
// output after the launcher process exits, so the wait is bounded by
// one full run timeout before the watcher is stopped forcibly. It
// reports whether the forced stop was needed.
func (r *Runner) joinWatcher(watcher watch.Watcher) bool {
	select {
	case <-watcher.Done():
		return false
	case <-time.After(r.cfg.Batch.Timeout):
		watcher.Stop()
	}
	<-watcher.Done()
	return true
}

// sleepCtx sleeps for d unless the context is cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
