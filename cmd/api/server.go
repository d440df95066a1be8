package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// serve blocks until SIGINT or SIGTERM, then gives in-flight requests 20
// seconds to finish.
func (app *application) serve() error {
	apiServer := &http.Server{
		Addr:         app.cfg.Addr,
		Handler:      app.routes(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	shutdownErr := make(chan error)
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit
		app.logger.Info("shutting down server", "signal", s.String())

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()
		shutdownErr <- apiServer.Shutdown(ctx)
	}()

	app.logger.Info("starting server", "addr", apiServer.Addr, "env", app.cfg.Env)
	err := apiServer.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	if err := <-shutdownErr; err != nil {
		return err
	}
	app.logger.Info("server stopped", "addr", apiServer.Addr)
	return nil
}
