package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/0xcro3dile/resume-intel/internal/adapters/filewatcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Upload resumes dropped into <inbox>/<user id>/",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return watch(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func watch(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	app, err := buildApp(ctx, log)
	if err != nil {
		return err
	}

	fs := afero.NewOsFs()
	if err := fs.MkdirAll(app.cfg.Inbox.Dir, 0o750); err != nil {
		return err
	}

	watcher, err := filewatcher.NewFSNotifyWatcher(app.cfg.Inbox.Extensions, log)
	if err != nil {
		return err
	}
	defer watcher.Stop()

	inbox := filewatcher.NewInbox(watcher, fs, app.resumes, app.cfg.Inbox.Dir, 0, log)
	runErr := inbox.Run(ctx)
	if runErr != nil {
		log.Error("inbox stopped", zap.Error(runErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.close(shutdownCtx); err != nil {
		log.Warn("closing services", zap.Error(err))
	}
	return runErr
}
