package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/banshee-data/rodeval/internal/db"
	"github.com/banshee-data/rodeval/internal/monitoring"
)

func newServeCmd(a *app) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve stored runs over HTTP with SQL debugging under /debug/",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.opts.DBPath == "" {
				return errors.New("serve needs a results database: set --db")
			}
			database, err := db.NewDB(a.opts.DBPath)
			if err != nil {
				return fmt.Errorf("open results db: %w", err)
			}
			defer database.Close()

			mux := http.NewServeMux()
			(&apiServer{store: db.NewRunStore(database.DB)}).routes(mux)
			if err := database.AttachAdminRoutes(mux); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			printInfo("serving %s on http://%s", a.opts.DBPath, listen)
			return serve(ctx, listen, mux)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "localhost:8080", "address to listen on")
	return cmd
}

// serve runs an HTTP server until ctx is cancelled, then shuts it down.
func serve(ctx context.Context, addr string, mux *http.ServeMux) error {
	server := &http.Server{
		Addr: addr,
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			monitoring.Debugf("got request %s %q", r.Method, r.URL.Path)
			mux.ServeHTTP(w, r)
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		monitoring.Logf("listening on %s", addr)
		errc <- server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}
	monitoring.Logf("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		monitoring.Logf("HTTP server shutdown error: %v", err)
		// Force close the server if graceful shutdown fails
		return server.Close()
	}
	return nil
}
