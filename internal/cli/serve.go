package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wayfarer-app/wayfarer/internal/server"
)

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve generations, health and metrics over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			if addr == "" {
				addr = app.Config.Metrics.Addr
			}
			if app.Config.Generation.PrewarmOnStart {
				app.Pipeline.Prewarm()
			}

			srv := server.New(app.Pipeline, server.Config{
				Limiter:  app.Limiter,
				Gatherer: app.Registry,
				Metrics:  app.Metrics,
				Stats:    app.Stats,
				Log:      app.Log,
			})
			app.Log.Info("starting", zap.String("model", app.Resource.Name()), zap.String("config", app.ConfigPath))
			return srv.ListenAndServe(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default metrics.addr)")
	return cmd
}
