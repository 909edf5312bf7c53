package main

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

// watchAndRerun runs fn once, then re-runs it each time a markdown file
// under the repository root changes, until interrupted. This is the
// read-only --watch convenience described in SPEC_FULL.md: a dispatcher
// layer nicety built on the teacher's fsnotify usage, outside the core's
// transactional boundary.
func watchAndRerun(cmd *cobra.Command, fn func() error) error {
	if err := fn(); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(app.Root); err != nil {
		return fmt.Errorf("watch %s: %w", app.Root, err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "watching for changes, press ctrl-c to stop")
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(event.Name, ".md") {
				continue
			}
			if _, err := app.Reconcile(cmd.Context()); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "reconcile:", err)
				continue
			}
			if err := fn(); err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "error:", err)
			}
		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintln(cmd.ErrOrStderr(), "watch error:", watchErr)
		case <-cmd.Context().Done():
			return nil
		}
	}
}
