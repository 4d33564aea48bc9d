package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httpapi "github.com/0xcro3dile/resume-intel/internal/infrastructure/http"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the resume and suggestion API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return serve(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (overrides server.addr)")
}

func serve(parent context.Context) error {
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

	addr := app.cfg.Server.Addr
	if flag := serveCmd.Flags().Lookup("addr"); flag != nil && flag.Changed {
		addr = flag.Value.String()
	}

	server := httpapi.NewServer(httpapi.Services{
		Resumes:     app.resumes,
		Suggestions: app.suggestions,
		Feedback:    app.feedback,
		Insights:    app.insights,
	}, httpapi.Options{
		BodyLimitMB: app.cfg.Server.BodyLimitMB,
		CORSOrigins: app.cfg.Server.CORSOrigins,
	}, log)

	errc := make(chan error, 1)
	go func() { errc <- server.Listen(addr) }()

	select {
	case err = <-errc:
		log.Error("server stopped", zap.Error(err))
	case <-ctx.Done():
		log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if serr := server.Shutdown(shutdownCtx); serr != nil {
		log.Warn("http shutdown", zap.Error(serr))
	}
	if cerr := app.close(shutdownCtx); cerr != nil {
		log.Warn("closing services", zap.Error(cerr))
	}
	return err
}
