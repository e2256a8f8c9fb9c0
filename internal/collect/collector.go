// Package collect drains completed-run file sets from the hand-off
// queue and relocates them into the results tree.
package collect

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/DesignBuilderSoftware/db-batch/internal/logging"
	"github.com/DesignBuilderSoftware/db-batch/internal/watch"
)

// Options control how collected files are named and placed.
type Options struct {
	// IncludeModelName replaces the destination base name with the
	// model name.
	IncludeModelName bool

	// IncludeOrigName keeps the original base name in the title as
	// "<model> - <original>". Only meaningful together with
	// IncludeModelName.
	IncludeOrigName bool

	// MakeSubdirs places each model's results under its own
	// subdirectory of the results root. Only meaningful when a model
	// name is present.
	MakeSubdirs bool
}

// Collector is the long-lived background consumer of the hand-off
// queue. It terminates only after the shutdown sentinel has been
// popped, so every event enqueued before Stop is still processed.
type Collector struct {
	queue  *watch.Queue
	root   string
	opts   Options
	logger *logging.Logger
	done   chan struct{}
}

// NewCollector creates a collector writing into the results root.
func NewCollector(queue *watch.Queue, resultsRoot string, opts Options, logger *logging.Logger) *Collector {
	return &Collector{
		queue:  queue,
		root:   resultsRoot,
		opts:   opts,
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Start begins the drain loop on its own goroutine.
func (c *Collector) Start() {
	go c.drain()
}

// Stop enqueues the shutdown sentinel. In-flight copies are never
// interrupted; the queue is drained before the loop exits.
func (c *Collector) Stop() {
	c.queue.PushShutdown()
}

// Wait blocks until the drain loop has exited.
func (c *Collector) Wait() {
	<-c.done
}

func (c *Collector) drain() {
	defer close(c.done)

	for {
		event, ok := c.queue.Pop()
		if !ok {
			return
		}
		for _, src := range event.Files {
			if err := c.copyOne(src, event.Model); err != nil {
				// One locked or missing file must never abort the
				// remaining copies or crash the batch.
				c.logger.Warn().Err(err).Str("model", event.Model).Str("src", src).Msg("Cannot copy result file")
			}
		}
	}
}

// copyOne copies a single produced file to its destination, creating
// the per-model subdirectory on demand.
func (c *Collector) copyOne(src, model string) error {
	name := DestName(src, model, c.opts)

	destDir := c.root
	if c.opts.MakeSubdirs && model != "" {
		destDir = filepath.Join(c.root, model)
		if err := os.MkdirAll(destDir, 0o755); err != nil {
			return fmt.Errorf("cannot create results directory: %w", err)
		}
	}

	return copyFile(src, filepath.Join(destDir, name))
}

// DestName composes the destination base name for a collected file.
//
//	model name off            -> <original>.<ext>
//	model name on             -> <model>.<ext>
//	model name + orig name on -> <model> - <original>.<ext>
func DestName(src, model string, opts Options) string {
	base := filepath.Base(src)
	if model == "" || !opts.IncludeModelName {
		return base
	}

	ext := filepath.Ext(base)
	if opts.IncludeOrigName {
		orig := strings.TrimSuffix(base, ext)
		return fmt.Sprintf("%s - %s%s", model, orig, ext)
	}
	return model + ext
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("cannot open source: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("cannot create destination: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copy failed: %w", err)
	}
	return out.Close()
}
