package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/JonMunkholm/pdf2ynab/internal/core"
	"github.com/JonMunkholm/pdf2ynab/internal/web"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the conversion API and upload page over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := appFrom(cmd.Context())
			if addr != "" {
				host, port, err := splitAddr(addr)
				if err != nil {
					return err
				}
				a.cfg.Server.Host, a.cfg.Server.Port = host, port
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			svc, store, closeFn, err := a.newService(ctx, true)
			if err != nil {
				return err
			}
			defer closeFn()

			var hist web.HistoryLister
			if store != nil {
				hist = store
			}
			server := web.NewServer(svc, a.cfg, hist)

			slog.Info("server starting",
				"addr", a.cfg.Server.Addr(),
				"formats", core.FormatCount(),
				"history", store != nil,
				"max_concurrent", a.cfg.Convert.MaxConcurrent,
			)

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				if err := server.Start(); !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				slog.Info("shutting down...")

				shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), a.cfg.Server.ShutdownTimeout)
				defer cancel()
				return server.Shutdown(shutdownCtx)
			})
			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address host:port (env SERVER_HOST, SERVER_PORT)")
	return cmd
}

// splitAddr parses host:port; the host may be empty.
func splitAddr(addr string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid --addr %q: %w", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return "", 0, fmt.Errorf("invalid --addr %q: port must be 1-65535", addr)
	}
	return host, port, nil
}
