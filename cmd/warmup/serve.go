package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/mastercactapus/cncwarmup/archive"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func (a *app) serveCmd() *cobra.Command {
	var addr, dataDir string
	var memory bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the program generator over HTTP.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.Addr
			}
			if dataDir == "" {
				dataDir = a.cfg.DataDir
			}
			if memory {
				dataDir = ""
			}
			return a.serve(cmd.Context(), addr, dataDir)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Address to bind the HTTP server to.")
	cmd.Flags().StringVar(&dataDir, "dir", "", "Data directory for the program archive.")
	cmd.Flags().BoolVar(&memory, "memory", false, "Keep the program archive in memory only.")
	return cmd
}

// withAccessLog adds CORS headers and logs every request.
func withAccessLog(log logrus.FieldLogger, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "*")
		log.WithFields(logrus.Fields{
			"method": req.Method,
			"path":   req.URL.Path,
			"remote": req.RemoteAddr,
		}).Debug("request")
		h.ServeHTTP(w, req)
	})
}

func (a *app) serve(ctx context.Context, addr, dataDir string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := archive.Open(dataDir)
	if err != nil {
		return err
	}
	defer store.Close()

	opt, err := a.emitterOptions()
	if err != nil {
		return err
	}
	api := newAPI(apiConfig{
		Machines: a.machines,
		Store:    store,
		Settings: a.cfg.Settings,
		Dialect:  a.cfg.Dialect,
		Options:  opt,
		Logger:   a.log,
	})
	defer api.Close()

	srv := &http.Server{
		Addr:              addr,
		Handler:           withAccessLog(a.log, api),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	a.log.WithFields(logrus.Fields{"addr": addr, "dir": dataDir}).Info("serving")

	select {
	case err = <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = srv.Shutdown(shutdownCtx)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
