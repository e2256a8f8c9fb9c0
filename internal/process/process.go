// Package process invokes the external DesignBuilder executable and
// manages stray instances of it.
package process

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/shirou/gopsutil/v4/process"

	"github.com/DesignBuilderSoftware/db-batch/internal/logging"
)

// Invoker launches one external run and reports whether it finished
// within the timeout. Implementations block until the process exits or
// the timeout fires.
type Invoker interface {
	// Run starts the executable for the given model file with the
	// composed command arguments. It returns false when the timeout
	// expired and the process had to be killed.
	Run(ctx context.Context, modelPath, command string) (completed bool, err error)
}

// Launcher is the production Invoker backed by os/exec.
type Launcher struct {
	ExePath string
	Timeout time.Duration
	Logger  *logging.Logger
}

// NewLauncher creates a Launcher for the given executable.
// The executable must exist; a bad path aborts before any run starts.
func NewLauncher(exePath string, timeout time.Duration, logger *logging.Logger) (*Launcher, error) {
	info, err := os.Stat(exePath)
	if err != nil {
		return nil, fmt.Errorf("executable path %s is not valid: %w", exePath, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("executable path %s is a directory", exePath)
	}
	return &Launcher{ExePath: exePath, Timeout: timeout, Logger: logger}, nil
}

// Run blocks until DesignBuilder exits or the timeout fires.
// The model path and the /process command travel as a single argument,
// matching how DesignBuilder parses its automation command line.
func (l *Launcher) Run(ctx context.Context, modelPath, command string) (bool, error) {
	runCtx, cancel := context.WithTimeout(ctx, l.Timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, l.ExePath, modelPath+" "+command)

	err := cmd.Run()
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return false, nil
	}
	if err != nil {
		// A non-zero exit is not fatal for the batch; the watcher and
		// the output files decide how the run is classified.
		l.Logger.Debug().Err(err).Str("model", modelPath).Msg("Process exited with error")
	}
	return true, nil
}

// KillByName terminates every running process with the given image name,
// escalating from a graceful terminate to a hard kill after the grace
// period. A missing process is not an error.
func KillByName(name string, grace time.Duration, logger *logging.Logger) error {
	procs, err := process.Processes()
	if err != nil {
		return fmt.Errorf("cannot list processes: %w", err)
	}

	var matched []*process.Process
	for _, p := range procs {
		pname, err := p.Name()
		if err != nil {
			continue
		}
		if pname == name {
			matched = append(matched, p)
		}
	}
	if len(matched) == 0 {
		return nil
	}

	for _, p := range matched {
		logger.Warn().Int32("pid", p.Pid).Str("name", name).Msg("Terminating running instance")
		if err := p.Terminate(); err != nil {
			logger.Debug().Err(err).Int32("pid", p.Pid).Msg("Terminate failed, will kill")
		}
	}

	deadline := time.Now().Add(grace)
	for time.Now().Before(deadline) {
		if !anyRunning(matched) {
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}

	for _, p := range matched {
		if running, _ := p.IsRunning(); running {
			logger.Warn().Int32("pid", p.Pid).Msg("Forcing kill after grace period")
			if err := p.Kill(); err != nil {
				logger.Error().Err(err).Int32("pid", p.Pid).Msg("Kill failed")
			}
		}
	}
	return nil
}

func anyRunning(procs []*process.Process) bool {
	for _, p := range procs {
		if running, _ := p.IsRunning(); running {
			return true
		}
	}
	return false
}
