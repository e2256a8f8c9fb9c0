package watch

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/DesignBuilderSoftware/db-batch/internal/logging"
	"github.com/DesignBuilderSoftware/db-batch/internal/models"
)

// Terminal marker lines written by EnergyPlus into its status log.
const (
	successMarker = "EnergyPlus Completed Successfully"
	fatalMarker   = "EnergyPlus Terminated--Fatal Error Detected"
)

// Files EnergyPlus reliably produces even when a run fails. Only these
// are collected for a failed run.
const (
	StatusFileName    = "eplusout.err"
	InputEchoFileName = "in.idf"
)

// FailureReporter appends per-run lines to the batch summary file.
type FailureReporter interface {
	Appendf(format string, args ...interface{})
}

// LogWatcher classifies an EnergyPlus run by tailing its status log.
//
// The run may execute through one of two backends: the standard one,
// which writes outputs directly into the expected directory, or the
// Simulation Manager, which relocates them into a freshly created job
// subdirectory. The watcher first resolves which backend is active,
// then reads the status log until a terminal marker appears or Stop is
// called.
type LogWatcher struct {
	lifecycle

	model     string
	paths     []string
	queue     *Queue
	jobsDir   string
	tally     *models.Tally
	report    FailureReporter
	intervals Intervals
	logger    *logging.Logger
}

// NewLogWatcher creates a log-scanning watcher for the given run.
// The expected paths must include the status log and the input echo
// file; this is validated before the batch starts.
func NewLogWatcher(model string, paths []string, queue *Queue, jobsDir string, tally *models.Tally, report FailureReporter, intervals Intervals, logger *logging.Logger) *LogWatcher {
	return &LogWatcher{
		lifecycle: newLifecycle(),
		model:     model,
		paths:     paths,
		queue:     queue,
		jobsDir:   jobsDir,
		tally:     tally,
		report:    report,
		intervals: intervals.normalized(),
		logger:    logger,
	}
}

// Start begins watching on a separate goroutine.
func (w *LogWatcher) Start() {
	go w.run()
}

func (w *LogWatcher) run() {
	defer close(w.done)

	paths := w.resolveBackend()
	statusPath := findByBase(paths, StatusFileName)

	success, sawTerminal := w.scanStatus(statusPath)

	files := paths
	switch {
	case sawTerminal && !success:
		// A failed run does not produce the remaining outputs; keep
		// only the status log and the input echo.
		if w.tally.Add(models.OutcomeFailed, w.model) && w.report != nil {
			w.report.Appendf("Model '%s' - EnergyPlus failed!", w.model)
		}
		files = retainedOnFailure(paths)

	case sawTerminal:
		w.tally.Add(models.OutcomeSuccessful, w.model)

	default:
		// Stopped externally before a terminal line: the orchestrator
		// owns the outcome record for this run. Emit the full set so
		// whatever was produced is still collected.
	}

	w.queue.Push(&models.CompletionEvent{Model: w.model, Files: files})
}

// resolveBackend determines where the run's outputs will appear.
//
// It snapshots the job-server subdirectories, then polls until the
// input echo file exists. If the status log shows up at its standard
// location the run uses the standard backend; if a new job subdirectory
// appeared instead, the run is managed and every expected path is
// rewritten into that subdirectory. A stop before resolution completes
// is inconclusive and falls back to the standard paths.
func (w *LogWatcher) resolveBackend() []string {
	inPath := findByBase(w.paths, InputEchoFileName)
	statusPath := findByBase(w.paths, StatusFileName)

	snapshot := w.listJobDirs()

	for {
		if !w.sleep(w.intervals.Poll) {
			return w.paths
		}
		if !fileExists(inPath) {
			continue
		}

		if fileExists(statusPath) {
			w.logger.Debug().Str("model", w.model).Msg("Running standard simulation")
			return w.paths
		}

		if jobDir := w.newJobDir(snapshot); jobDir != "" {
			w.logger.Debug().Str("model", w.model).Str("job_dir", jobDir).Msg("Running simulation under Simulation Manager")
			rewritten := make([]string, len(w.paths))
			for i, path := range w.paths {
				rewritten[i] = filepath.Join(jobDir, filepath.Base(path))
			}
			return rewritten
		}
	}
}

// scanStatus tails the status log until a terminal marker appears.
// sawTerminal is false when the watcher was stopped first; success is
// then reported true so no spurious failure line is written.
func (w *LogWatcher) scanStatus(statusPath string) (success, sawTerminal bool) {
	consumed := 0

	for {
		if !w.sleep(w.intervals.Poll) {
			return true, false
		}
		if !fileExists(statusPath) {
			continue
		}

		for {
			lines := readNewLines(statusPath, &consumed)
			for _, line := range lines {
				if strings.Contains(line, successMarker) {
					w.logger.Info().Str("model", w.model).Msg(successMarker)
					return true, true
				}
				if strings.Contains(line, fatalMarker) {
					w.logger.Warn().Str("model", w.model).Msg(fatalMarker)
					return false, true
				}
			}

			if w.stopped() {
				return true, false
			}
			if !w.sleep(w.intervals.FastPoll) {
				return true, false
			}
		}
	}
}

// listJobDirs returns the job-server subdirectories. Listing errors are
// treated as an empty set; the directory may not exist until the
// manager creates it.
func (w *LogWatcher) listJobDirs() map[string]bool {
	dirs := make(map[string]bool)
	entries, err := os.ReadDir(w.jobsDir)
	if err != nil {
		return dirs
	}
	for _, entry := range entries {
		if entry.IsDir() {
			dirs[filepath.Join(w.jobsDir, entry.Name())] = true
		}
	}
	return dirs
}

// newJobDir returns a job subdirectory not present in the snapshot, or
// an empty string when none appeared yet.
func (w *LogWatcher) newJobDir(snapshot map[string]bool) string {
	for dir := range w.listJobDirs() {
		if !snapshot[dir] {
			return dir
		}
	}
	return ""
}

// readNewLines returns the complete lines appended to the file since
// the previous call, tracking position in *consumed. A trailing partial
// line is left for the next call.
func readNewLines(path string, consumed *int) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	text := string(data)
	complete := strings.Count(text, "\n")
	lines := strings.SplitAfter(text, "\n")[:complete]

	if *consumed >= len(lines) {
		return nil
	}
	fresh := lines[*consumed:]
	*consumed = len(lines)

	for i, line := range fresh {
		fresh[i] = strings.TrimRight(line, "\r\n")
	}
	return fresh
}

// retainedOnFailure filters the expected set down to the files a failed
// run still produces, preserving order.
func retainedOnFailure(paths []string) []string {
	var kept []string
	for _, path := range paths {
		base := filepath.Base(path)
		if base == StatusFileName || base == InputEchoFileName {
			kept = append(kept, path)
		}
	}
	return kept
}

func findByBase(paths []string, base string) string {
	for _, path := range paths {
		if filepath.Base(path) == base {
			return path
		}
	}
	return ""
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
