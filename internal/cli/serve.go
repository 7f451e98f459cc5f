package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/railmap/pkg/server"
)

// shutdownTimeout bounds graceful shutdown of the HTTP server.
const shutdownTimeout = 10 * time.Second

// serveCommand runs the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var flags feedFlags
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve maps and search over HTTP",
		Long: `Serve starts the HTTP API:

  GET /healthz             build information
  GET /api/route-types     route types in the feed
  GET /api/map             map model as JSON
  GET /api/map.{format}    map as json, dot, svg or png
  GET /api/search?q=...    station and route search`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.Addr
			}

			ctx := cmd.Context()
			runner, err := c.newRunner(ctx, cfg, flags.noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			opts := flags.pipelineOptions(cfg, c.Logger)
			if err := opts.ValidateForFetch(); err != nil {
				return err
			}

			lis, err := net.Listen("tcp", addr)
			if err != nil {
				return err
			}
			return c.serve(ctx, lis, server.New(runner, opts, c.Logger))
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")

	return cmd
}

// serve runs h on lis until ctx is cancelled, then shuts down gracefully.
func (c *CLI) serve(ctx context.Context, lis net.Listener, h http.Handler) error {
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c.Logger.Info("listening", "addr", lis.Addr().String())
		if err := srv.Serve(lis); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		c.Logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
