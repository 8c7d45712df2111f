package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"
	"time"
)

// Watch generates once and again on every change to the spec file until
// interrupted
func (c *Controller) Watch(ctx context.Context, opts GenerateOptions) error {
	opts, err := c.generateOptions(opts)
	if err != nil {
		c.deps.Output.Error("%v", err)
		return err
	}
	if c.deps.Watchers == nil {
		c.deps.Watchers = watcherFactory{logger: c.deps.Logger}
	}

	out := c.deps.Output
	out.Info("Watching %s (%s → %s)", opts.Spec, opts.Language, opts.Output)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	c.deps.SignalNotifier.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer c.deps.SignalNotifier.Stop(sigChan)

	go func() {
		select {
		case <-sigChan:
			out.Println()
			out.Info("Stopping watcher...")
			cancel()
		case <-ctx.Done():
		}
	}()

	w, err := c.deps.Watchers.NewWatcher([]string{opts.Spec}, func(ctx context.Context, path string) error {
		out.Info("%s Regenerating from %s", time.Now().Format("15:04:05"), path)

		result, err := c.deps.Generator.Generate(ctx, opts.generatorOptions())
		if err != nil {
			c.reportGenerateError(err)
			c.deps.Tracker.CaptureError(ctx, err)
			return err
		}
		c.reportGenerated(opts.Output, result)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer w.Close()

	if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("watcher error: %w", err)
	}
	return nil
}
