package cli

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/moviedex/internal/api"
	"github.com/mesh-intelligence/moviedex/internal/catalog"
	"github.com/mesh-intelligence/moviedex/internal/metrics"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog HTTP API",
		Long:  "Serve the catalog over HTTP until interrupted. SIGINT and SIGTERM trigger a graceful shutdown.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.load()
			if err != nil {
				return err
			}
			if addr != "" {
				s.Server.Addr = addr
			}

			log := a.newLogger(cmd, s, true)
			backend, err := attach(s)
			if err != nil {
				return err
			}
			defer backend.Detach()

			m := metrics.New()
			svc := catalog.New(backend, catalog.WithLogger(log), catalog.WithMetrics(m))
			srv := api.NewServer(svc, s.apiConfig(), api.WithLogger(log), api.WithMetrics(m))

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			log.Info("starting moviedex",
				slog.String("backend", s.Backend),
				slog.String("data_dir", s.DataDir),
				slog.String("addr", s.Server.Addr),
			)
			if err := srv.ListenAndServe(ctx); err != nil {
				return sysErr("%w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}
