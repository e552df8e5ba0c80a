package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/tetraminz/emotion_insights/internal/api"
	"github.com/tetraminz/emotion_insights/internal/config"
)

func main() {
	log.SetFlags(log.LstdFlags)
	if err := config.LoadDotEnv(); err != nil {
		log.Fatalf("error: %v", err)
	}
	cfg, err := parseFlags(flag.NewFlagSet("emotion_api", flag.ContinueOnError), os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatalf("error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("error: %v", err)
	}
}

func run(ctx context.Context, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	st, err := cfg.OpenStore(ctx)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	process, closer, err := cfg.NewProcess()
	if err != nil {
		return err
	}
	defer closer.Close()

	srv := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Port),
		Handler: api.NewServer(process, st, api.Options{
			AllowedOrigins: cfg.Origins(),
			JWTSecret:      cfg.JWTSecret,
		}).Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[api] listening on %s classifier=%s insights=%s auth=%t", srv.Addr, cfg.Classifier, cfg.Insights, cfg.JWTSecret != "")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	log.Printf("[api] shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
