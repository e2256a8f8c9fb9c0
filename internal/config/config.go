// Package config provides configuration management for the batch runner.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"gopkg.in/ini.v1"
)

// Default values used when neither the config file nor a flag overrides them.
const (
	DefaultTimeout      = 600 * time.Second
	DefaultPollInterval = time.Second
	DefaultFastPoll     = 100 * time.Millisecond
	DefaultSettleDelay  = 3 * time.Second
	DefaultKillGrace    = 3 * time.Second

	// DefaultProcessName is the image name used for the pre-run cleanup kill.
	DefaultProcessName = "DesignBuilder.exe"
)

// Config is the merged batch configuration. Values come from the optional
// INI config file and are then overridden by CLI flags.
//
// Config file location:
//   - Windows: %USERPROFILE%\.config\db-batch\config
//   - Unix: ~/.config/db-batch/config
//
// INI format:
//
//	[designbuilder]
//	exe_path = C:\Program Files (x86)\DesignBuilder\DesignBuilder.exe
//	app_data_dir = C:\Users\me\AppData\Local\DesignBuilder
//	job_server_dir = C:\ProgramData\DesignBuilder\JobServer\Users\User
//
//	[batch]
//	timeout_seconds = 600
//	poll_interval_ms = 1000
//	fast_poll_ms = 100
//	settle_seconds = 3
//
//	[notifications]
//	enabled = true
type Config struct {
	DesignBuilder DesignBuilderConfig
	Batch         BatchConfig
	Notifications NotificationConfig
}

// DesignBuilderConfig locates the external executable and its data folders.
type DesignBuilderConfig struct {
	// ExePath is the DesignBuilder executable invoked for every run.
	ExePath string `ini:"exe_path"`

	// AppDataDir is the DesignBuilder application data directory where
	// calculation outputs appear.
	AppDataDir string `ini:"app_data_dir"`

	// JobServerDir is the Simulation Manager jobs directory. New job
	// subdirectories appearing here indicate a managed-backend run.
	JobServerDir string `ini:"job_server_dir"`

	// ProcessName is the image name terminated before the batch starts.
	ProcessName string `ini:"process_name"`
}

// BatchConfig holds run loop timing parameters.
type BatchConfig struct {
	// Timeout is the wall-clock limit for a single run.
	Timeout time.Duration `ini:"-"`

	// PollInterval is the watcher's slow poll period.
	PollInterval time.Duration `ini:"-"`

	// FastPoll is the watcher's poll period while the status log is
	// actively growing.
	FastPoll time.Duration `ini:"-"`

	// SettleDelay is how long to wait after a run for trailing writes
	// before the watcher is stopped (sbem only).
	SettleDelay time.Duration `ini:"-"`

	// KillGrace is the terminate-to-kill escalation window for the
	// pre-run process cleanup.
	KillGrace time.Duration `ini:"-"`

	TimeoutSeconds int `ini:"timeout_seconds"`
	PollIntervalMS int `ini:"poll_interval_ms"`
	FastPollMS     int `ini:"fast_poll_ms"`
	SettleSeconds  int `ini:"settle_seconds"`
	KillGraceSecs  int `ini:"kill_grace_seconds"`
}

// NotificationConfig controls the desktop notification at batch completion.
type NotificationConfig struct {
	Enabled bool `ini:"enabled"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		DesignBuilder: DesignBuilderConfig{
			ExePath:      defaultExePath(),
			AppDataDir:   defaultAppDataDir(),
			JobServerDir: defaultJobServerDir(),
			ProcessName:  DefaultProcessName,
		},
		Batch: BatchConfig{
			Timeout:      DefaultTimeout,
			PollInterval: DefaultPollInterval,
			FastPoll:     DefaultFastPoll,
			SettleDelay:  DefaultSettleDelay,
			KillGrace:    DefaultKillGrace,
		},
		Notifications: NotificationConfig{
			Enabled: false,
		},
	}
}

// ConfigPath returns the per-user config file location.
func ConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", "db-batch", "config"), nil
}

// Load reads the config file at path, applying values on top of defaults.
// A missing file is not an error: defaults are returned unchanged.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		var err error
		path, err = ConfigPath()
		if err != nil {
			return cfg, nil
		}
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	file, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := file.Section("designbuilder").MapTo(&cfg.DesignBuilder); err != nil {
		return nil, fmt.Errorf("invalid [designbuilder] section: %w", err)
	}
	if err := file.Section("batch").MapTo(&cfg.Batch); err != nil {
		return nil, fmt.Errorf("invalid [batch] section: %w", err)
	}
	if err := file.Section("notifications").MapTo(&cfg.Notifications); err != nil {
		return nil, fmt.Errorf("invalid [notifications] section: %w", err)
	}

	cfg.applyDurations()
	return cfg, nil
}

// applyDurations converts the integer INI fields into durations, keeping
// defaults where the file left a field unset.
func (c *Config) applyDurations() {
	if c.Batch.TimeoutSeconds > 0 {
		c.Batch.Timeout = time.Duration(c.Batch.TimeoutSeconds) * time.Second
	}
	if c.Batch.PollIntervalMS > 0 {
		c.Batch.PollInterval = time.Duration(c.Batch.PollIntervalMS) * time.Millisecond
	}
	if c.Batch.FastPollMS > 0 {
		c.Batch.FastPoll = time.Duration(c.Batch.FastPollMS) * time.Millisecond
	}
	if c.Batch.SettleSeconds > 0 {
		c.Batch.SettleDelay = time.Duration(c.Batch.SettleSeconds) * time.Second
	}
	if c.Batch.KillGraceSecs > 0 {
		c.Batch.KillGrace = time.Duration(c.Batch.KillGraceSecs) * time.Second
	}
}

func defaultExePath() string {
	if runtime.GOOS == "windows" {
		return `C:\Program Files (x86)\DesignBuilder\DesignBuilder.exe`
	}
	return "/opt/designbuilder/designbuilder"
}

func defaultAppDataDir() string {
	if runtime.GOOS == "windows" {
		if local := os.Getenv("LOCALAPPDATA"); local != "" {
			return filepath.Join(local, "DesignBuilder")
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "DesignBuilder"
	}
	return filepath.Join(home, ".local", "share", "DesignBuilder")
}

func defaultJobServerDir() string {
	if runtime.GOOS == "windows" {
		return `C:\ProgramData\DesignBuilder\JobServer\Users\User`
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "JobServer"
	}
	return filepath.Join(home, ".local", "share", "DesignBuilder", "JobServer")
}
