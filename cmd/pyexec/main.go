package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/soochol/pyexec/internal/api"
	"github.com/soochol/pyexec/internal/config"
	"github.com/soochol/pyexec/internal/logging"
	"github.com/soochol/pyexec/internal/nodes"
	"github.com/soochol/pyexec/internal/push"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if len(os.Args) > 1 && os.Args[1] == "serve" {
		if err := serve(); err != nil {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
		return
	}
	fmt.Println("pyexec v0.1.0")
	fmt.Println("Usage: pyexec serve")
}

func serve() error {
	cfg, err := config.LoadDefault()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	slog.SetDefault(logger)

	hub := push.NewHub(logger)
	rt := nodes.NewRuntime(cfg, hub)
	srv := api.NewServer(nodes.Defaults(rt), rt, logger)
	srv.SetPushHandler(hub)
	if cfg.Server.WebDir != "" {
		srv.SetWebDir(cfg.Server.WebDir)
	}

	httpSrv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting pyexec server", "addr", httpSrv.Addr, "languages", rt.Evaluators.Languages())
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("shutting down")
		hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
