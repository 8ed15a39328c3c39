package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		addr  string
		seeds []string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the HTTP server. With cluster.enabled the node gossips its token
to the seeds; otherwise it serves a one-node ring restored from its last
snapshot.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("addr") {
				a.cfg.HTTP.Addr = addr
			}
			if !cmd.Flags().Changed("join") {
				seeds = a.cfg.Cluster.Seeds
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx, seeds)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides http.addr)")
	cmd.Flags().StringSliceVar(&seeds, "join", nil, "gossip seeds (overrides cluster.seeds)")
	return cmd
}

// serve runs until ctx is canceled or the listener fails.
func (a *app) serve(ctx context.Context, seeds []string) error {
	n, err := a.newNode(ctx, seeds)
	if err != nil {
		return err
	}

	hc := a.cfg.HTTP
	srv := &http.Server{
		Addr:         hc.Addr,
		Handler:      n.handler,
		ReadTimeout:  hc.ReadTimeout,
		WriteTimeout: hc.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("serving", "addr", hc.Addr, "node", n.name, "cluster", a.cfg.Cluster.Enabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), hc.ShutdownTimeout)
		defer cancel()
		return errors.Join(
			srv.Shutdown(shutdownCtx),
			n.shutdown(shutdownCtx, hc.ShutdownTimeout),
		)
	})
	return g.Wait()
}
