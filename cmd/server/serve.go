// cmd/server/serve.go
package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jswiatek/sherlock13/internal/auth"
	"github.com/jswiatek/sherlock13/internal/catalogue"
	"github.com/jswiatek/sherlock13/internal/handlers"
	"github.com/jswiatek/sherlock13/internal/metrics"
	"github.com/jswiatek/sherlock13/internal/middleware"
	"github.com/jswiatek/sherlock13/internal/session"
)

func serve(ctx context.Context, cfg *Config) error {
	logger := logrus.New()
	if cfg.verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	if err := auth.Init(); err != nil {
		return err
	}

	cat := catalogue.Default()
	if err := cat.Validate(); err != nil {
		return fmt.Errorf("catalogue is inconsistent: %w", err)
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	reg := session.NewRegistry(cat, rng, logger)
	metrics.RegisterSessionGauge(reg.Count)

	es := handlers.NewEngineServer(reg, logger)

	mux := http.NewServeMux()
	logged := middleware.LogMiddleware(logger)
	mux.Handle("/ws", handlers.WSHandler(logger, es, cfg.origins))
	mux.Handle("/qr/", logged(handlers.QRHandler(logger, cfg.publicURL, reg)))
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/healthz", handlers.HealthzHandler())

	janitorCtx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()
	go reg.Janitor(janitorCtx, cfg.sweepInterval, cfg.sessionTimeout)

	srv := &http.Server{
		Addr:    net.JoinHostPort(cfg.bind, strconv.Itoa(cfg.port)),
		Handler: mux,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Running on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
