package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"taskbot/internal/transport/webhook"
)

func (r *RootCommand) newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook server",
		Long: `Run the HTTP webhook until interrupted.

Endpoints:
  POST /v1/messages   {"user_id": 42, "text": "/list"}
  GET  /v1/ws         websocket chat stream, same JSON per frame
  GET  /healthz       store health`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			app, err := r.newApp(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if err := app.Close(); err != nil {
					app.logger.Warn("close failed", "error", err)
				}
			}()

			srv := webhook.NewServer(app.handler, app.repo, webhook.Options{
				Addr:            app.config.Server.Addr,
				ReadTimeout:     app.config.Server.ReadTimeout,
				WriteTimeout:    app.config.Server.WriteTimeout,
				ShutdownTimeout: app.config.Server.ShutdownTimeout,
				AllowedOrigins:  app.config.Server.CORSOrigins,
				Logger:          app.logger,
			})
			return srv.ListenAndServe(ctx)
		},
	}
}
