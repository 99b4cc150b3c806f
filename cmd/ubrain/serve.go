package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/aretw0/ubrain/pkg/core"
	"github.com/aretw0/ubrain/pkg/httpapi"
)

var (
	serveAddr  string
	serveGrace time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API under /api/ub",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		rt, cfg := openRuntime(ctx)
		defer rt.Close()

		if err := rt.Service.WatchMapping(ctx); err != nil {
			if !errors.Is(err, core.ErrUnsupported) {
				fatal("Failed to watch mapping file", err)
			}
			slog.Debug("mapping watch disabled", "error", err)
		}

		addr := cfg.Addr
		if serveAddr != "" {
			addr = serveAddr
		}
		srv := httpapi.New(rt.Service, httpapi.Config{
			APIKey:         cfg.APIKey,
			RateLimit:      cfg.RateLimit,
			RateWindow:     cfg.RateWindow,
			TrustedProxies: cfg.TrustedProxies,
			Logger:         slog.Default(),
		})
		if cfg.APIKey == "" {
			slog.Warn("no API key configured, every request is accepted")
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return srv.Listen(addr)
		})
		g.Go(func() error {
			<-gctx.Done()
			slog.Info("shutting down", "grace", serveGrace)
			shutdownCtx, cancel := context.WithTimeout(context.Background(), serveGrace)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
		if err := g.Wait(); err != nil {
			fatal("Server stopped", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default UB_ADDR or :8080)")
	serveCmd.Flags().DurationVar(&serveGrace, "grace", 10*time.Second, "Time allowed for in-flight requests on shutdown")
}
