package batch

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/DesignBuilderSoftware/db-batch/internal/logging"
	"github.com/DesignBuilderSoftware/db-batch/internal/models"
	"github.com/DesignBuilderSoftware/db-batch/internal/validation"
	"github.com/DesignBuilderSoftware/db-batch/internal/watch"
)

// Output files expected from an EnergyPlus run, relative to the
// calculation directory.
var eplusWatchFiles = []string{
	"in.idf",
	"eplusout.err",
	"eplusout.eso",
	"eplustbl.htm",
}

// Output files expected from an SBEM calculation.
var sbemWatchFiles = []string{
	"model.inp",
	"model_epc.inp",
	"model_epc[epc].pdf",
	"model_epc[rec].pdf",
	"model_epc[srec].pdf",
	"model_ber.inp",
	"model_ber[adv].pdf",
	"model_ber[ber].pdf",
	"model_ber[sadv].pdf",
}

// SBEM engine versions shipped with DesignBuilder; each has its own
// calculation directory under the application data folder.
var sbemVersions = []string{"41e", "54a", "54b", "55h", "56a"}

// DefaultWatchFiles returns the built-in watch-file list for the
// analysis type.
func DefaultWatchFiles(analysis models.Analysis) []string {
	switch analysis {
	case models.AnalysisEplus:
		return append([]string(nil), eplusWatchFiles...)
	case models.AnalysisSbem:
		return append([]string(nil), sbemWatchFiles...)
	}
	return nil
}

// calculationDirs returns the subdirectories of the application data
// folder where the analysis writes its outputs.
func calculationDirs(analysis models.Analysis) []string {
	if analysis == models.AnalysisEplus {
		return []string{"energyplus"}
	}
	return sbemVersions
}

// BuildWatchSet expands the watch-file list into the full set of
// expected output paths for one run. files may be nil to use the
// defaults; a custom eplus list must still contain the status log and
// the input echo file or the log-scanning watcher has nothing to read.
func BuildWatchSet(analysis models.Analysis, appDataDir string, files []string) ([]string, error) {
	if !analysis.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAnalysis, analysis)
	}
	if files == nil {
		files = DefaultWatchFiles(analysis)
	} else {
		for _, file := range files {
			if err := validation.ValidateWatchFileName(file); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidWatchFiles, err)
			}
		}
	}

	if analysis == models.AnalysisEplus {
		if !containsBase(files, watch.InputEchoFileName) || !containsBase(files, watch.StatusFileName) {
			return nil, fmt.Errorf("%w: eplus requires %q and %q",
				ErrInvalidWatchFiles, watch.InputEchoFileName, watch.StatusFileName)
		}
	}

	var paths []string
	for _, file := range files {
		for _, dir := range calculationDirs(analysis) {
			paths = append(paths, filepath.Join(appDataDir, dir, file))
		}
	}
	return paths, nil
}

// PurgeWatchSet deletes stale outputs left over from a previous run so
// they cannot be mistaken for this run's files. Already-absent files
// are expected; permission errors are logged but non-fatal.
func PurgeWatchSet(paths []string, logger *logging.Logger) {
	for _, path := range paths {
		err := os.Remove(path)
		if err == nil || os.IsNotExist(err) {
			continue
		}
		logger.Warn().Err(err).Str("path", path).Msg("Cannot remove stale output")
	}
}

func containsBase(files []string, name string) bool {
	for _, file := range files {
		if filepath.Base(file) == name {
			return true
		}
	}
	return false
}
