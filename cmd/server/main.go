package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"gwi.com/beauty-box/internal/api"
	"gwi.com/beauty-box/internal/app"
	"gwi.com/beauty-box/internal/config"
	"gwi.com/beauty-box/internal/events"
	"gwi.com/beauty-box/internal/logger"
)

func main() {
	importFile := flag.String("import", "", "Import a product file (.csv, .json, .xlsx) into a session's subscription and exit")
	session := flag.String("session", "", "Session id used with -import")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		// the logger is not configured yet
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup("beauty-box", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, *importFile == "")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer a.Close()

	if *importFile != "" {
		if err := runImport(a, *session, *importFile); err != nil {
			log.Fatal().Err(err).Str("file", *importFile).Msg("Import failed")
		}
		return
	}

	if err := serve(ctx, cfg, a); err != nil {
		log.Error().Err(err).Msg("Server stopped with error")
		return
	}
	log.Info().Msg("Server exiting gracefully")
}

func runImport(a *app.App, session, path string) error {
	if session == "" {
		return errors.New("-session is required with -import")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	res, err := a.Subscriptions.Import(session, filepath.Base(path), data)
	if err != nil {
		return err
	}
	log.Info().
		Str("session", session).
		Int("added", len(res.Added)).
		Strs("dropped", res.Dropped).
		Int("skipped", res.Skipped).
		Msg(res.Message)
	return nil
}

func serve(ctx context.Context, cfg *config.Config, a *app.App) error {
	hub := events.NewHub(a.Bus, cfg.WSBuffer)
	defer hub.Close()

	apiHandler := api.NewAPIHandler(api.Services{
		Catalog:       a.Catalog,
		Carts:         a.Carts,
		Orders:        a.Orders,
		Subscriptions: a.Subscriptions,
		Chat:          a.Chat,
		Hub:           hub,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           api.NewRouter(apiHandler),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second, // assistant replies wait on the LLM
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msg("Starting server. Press Ctrl+C to quit.")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on %s: %w", srv.Addr, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down server...")
		// websocket connections are hijacked and not tracked by Shutdown
		hub.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
