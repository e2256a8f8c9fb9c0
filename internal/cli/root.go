// Package cli provides the command-line interface for db-batch.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/DesignBuilderSoftware/db-batch/internal/batch"
	"github.com/DesignBuilderSoftware/db-batch/internal/collect"
	"github.com/DesignBuilderSoftware/db-batch/internal/config"
	"github.com/DesignBuilderSoftware/db-batch/internal/logging"
	"github.com/DesignBuilderSoftware/db-batch/internal/models"
	"github.com/DesignBuilderSoftware/db-batch/internal/notify"
	"github.com/DesignBuilderSoftware/db-batch/internal/pathutil"
	"github.com/DesignBuilderSoftware/db-batch/internal/process"
	"github.com/DesignBuilderSoftware/db-batch/internal/progress"
	"github.com/DesignBuilderSoftware/db-batch/internal/version"
)

var (
	// Global flags
	cfgFile string
	verbose bool

	// Run flags
	analysisType  string
	dbPath        string
	appDataDir    string
	jobServerDir  string
	timeoutSecs   int
	startIndex    int
	endIndex      int
	depth         int
	outputSubdirs bool
	modelNames    bool
	originalNames bool
	useSimManager bool
	noClose       bool
	simStartDate  []int
	simEndDate    []int
	changeAttrs   []string
	watchFiles    []string
	writeReport   bool
	notifyDone    bool

	logger *logging.Logger
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "db-batch MODELS_DIR OUTPUTS_DIR",
		Short: "Run a batch of DesignBuilder models and collect the results",
		Long: `db-batch ` + version.Version + ` - Built: ` + version.BuildTime + `
Runs DesignBuilder model files as an unattended batch: one external run
at a time under a timeout, with output files watched, classified and
copied into a results tree as each run completes.`,
		Args: cobra.ExactArgs(2),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = logging.NewDefaultLogger()
			if verbose {
				logging.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
		RunE: runBatch,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (shows debug messages)")

	rootCmd.Flags().StringVar(&analysisType, "analysis", "eplus", "Analysis type: eplus or sbem")
	rootCmd.Flags().StringVar(&dbPath, "db-path", "", "Path to the DesignBuilder executable")
	rootCmd.Flags().StringVar(&appDataDir, "app-data-dir", "", "Path to the DesignBuilder application data directory")
	rootCmd.Flags().StringVar(&jobServerDir, "job-server-dir", "", "Path to the Simulation Manager jobs directory")
	rootCmd.Flags().IntVar(&timeoutSecs, "timeout", 0, "Timeout in seconds for a single run")
	rootCmd.Flags().IntVar(&startIndex, "start-index", 1, "Starting index of the batch run (1-based)")
	rootCmd.Flags().IntVar(&endIndex, "end-index", 0, "Last index of the batch run (0 = last model)")
	rootCmd.Flags().IntVar(&depth, "depth", 1, "Look for model files n directory levels deep")
	rootCmd.Flags().BoolVar(&outputSubdirs, "output-subdirs", false, "Create a results subdirectory for each model")
	rootCmd.Flags().BoolVar(&modelNames, "model-names", false, "Use the model name in collected file titles")
	rootCmd.Flags().BoolVar(&originalNames, "original-names", false, "Keep the original file name in collected file titles")
	rootCmd.Flags().BoolVar(&useSimManager, "use-sim-manager", false, "Force simulation through the Simulation Manager")
	rootCmd.Flags().BoolVar(&noClose, "no-close", false, "Keep DesignBuilder open after executing the command")
	rootCmd.Flags().IntSliceVar(&simStartDate, "sim-start-date", nil, "Force simulation start date, format DD,MM")
	rootCmd.Flags().IntSliceVar(&simEndDate, "sim-end-date", nil, "Force simulation end date, format DD,MM")
	rootCmd.Flags().StringArrayVar(&changeAttrs, "change-attr", nil, "Override a model attribute, format NAME=VALUE (repeatable)")
	rootCmd.Flags().StringArrayVar(&watchFiles, "watch-file", nil, "Override the watched output file list (repeatable)")
	rootCmd.Flags().BoolVar(&writeReport, "report", false, "Write a plain-text batch summary file")
	rootCmd.Flags().BoolVar(&notifyDone, "notify", false, "Show a desktop notification when the batch finishes")

	rootCmd.Version = version.Version + " (" + version.BuildTime + ")"

	return rootCmd
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	applyFlagOverrides(cmd, cfg)

	analysis := models.Analysis(strings.ToLower(analysisType))
	if !analysis.Valid() {
		return fmt.Errorf("%w: %q (supported: eplus, sbem)", batch.ErrUnknownAnalysis, analysisType)
	}

	commandOpts, err := buildCommandOptions(analysis)
	if err != nil {
		return err
	}

	modelsDir, err := pathutil.Resolve(args[0])
	if err != nil {
		return fmt.Errorf("invalid models directory %q: %w", args[0], err)
	}
	outputsDir, err := pathutil.Resolve(args[1])
	if err != nil {
		return fmt.Errorf("invalid outputs directory %q: %w", args[1], err)
	}

	opts := batch.Options{
		ModelsDir:   modelsDir,
		OutputsDir:  outputsDir,
		Analysis:    analysis,
		Depth:       depth,
		StartIndex:  startIndex,
		EndIndex:    endIndex,
		WatchFiles:  watchFiles,
		WriteReport: writeReport,
		Collect: collect.Options{
			IncludeModelName: modelNames,
			IncludeOrigName:  originalNames,
			MakeSubdirs:      outputSubdirs,
		},
		Command: commandOpts,
	}

	launcher, err := process.NewLauncher(cfg.DesignBuilder.ExePath, cfg.Batch.Timeout, logger.Sub("process"))
	if err != nil {
		return err
	}

	runner := batch.NewRunner(opts, cfg, launcher, logger)
	if !verbose {
		runner.SetProgress(progress.NewCLIProgress())
	}
	if cfg.Notifications.Enabled || notifyDone {
		runner.SetNotifier(notify.NewNotifier(true, logger))
	}

	logger.Info().
		Str("analysis", string(analysis)).
		Str("models_dir", opts.ModelsDir).
		Str("outputs_dir", opts.OutputsDir).
		Msg("Starting batch")

	_, err = runner.Run(cmd.Context())
	return err
}

// applyFlagOverrides copies explicitly set flags over the file-loaded
// configuration.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	if dbPath != "" {
		cfg.DesignBuilder.ExePath = dbPath
	}
	if appDataDir != "" {
		cfg.DesignBuilder.AppDataDir = appDataDir
	}
	if jobServerDir != "" {
		cfg.DesignBuilder.JobServerDir = jobServerDir
	}
	if cmd.Flags().Changed("timeout") && timeoutSecs > 0 {
		cfg.Batch.Timeout = time.Duration(timeoutSecs) * time.Second
	}
}

// buildCommandOptions converts the date and attribute flags into the
// automation command options.
func buildCommandOptions(analysis models.Analysis) (batch.CommandOptions, error) {
	opts := batch.CommandOptions{
		Analysis:      analysis,
		UseSimManager: useSimManager,
		NoClose:       noClose,
	}

	var err error
	if opts.SimStartDate, err = parseDayMonth("sim-start-date", simStartDate); err != nil {
		return opts, err
	}
	if opts.SimEndDate, err = parseDayMonth("sim-end-date", simEndDate); err != nil {
		return opts, err
	}

	for _, raw := range changeAttrs {
		name, value, found := strings.Cut(raw, "=")
		if !found || name == "" {
			return opts, fmt.Errorf("invalid --change-attr %q, expected NAME=VALUE", raw)
		}
		opts.ChangeAttributes = append(opts.ChangeAttributes, batch.Attribute{Name: name, Value: value})
	}
	return opts, nil
}

func parseDayMonth(flag string, values []int) (*batch.DayMonth, error) {
	if len(values) == 0 {
		return nil, nil
	}
	if len(values) != 2 {
		return nil, fmt.Errorf("invalid --%s, expected DD,MM", flag)
	}
	return &batch.DayMonth{Day: values[0], Month: values[1]}, nil
}

// Execute runs the root command with signal-aware cancellation.
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rootCmd := NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
