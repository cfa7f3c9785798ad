// Command diceduel starts the dice match server.
//
// It exposes three surfaces on one HTTP listener: the REST API under /api,
// the WebSocket push transport on /ws, and an MCP endpoint on /mcp. Match
// records are persisted to postgres when DATABASE_DSN (or --database-dsn)
// is set; otherwise they are kept in memory for the life of the process.
package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"diceduel/api"
	"diceduel/config"
	"diceduel/game/match"
	"diceduel/game/service"
	"diceduel/identity"
	"diceduel/record"
	mcptransport "diceduel/transport/mcp"
	"diceduel/transport/websocket"
)

const (
	Version = "1.0.0"
	AppName = "Dice Duel Server"
)

func main() {
	cfg := config.Load()

	cmd := &cli.Command{
		Name:    "diceduel",
		Usage:   "two-player dice match server",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "HTTP listen address",
				Value: cfg.Addr,
			},
			&cli.StringFlag{
				Name:  "database-dsn",
				Usage: "postgres DSN for match records (empty keeps records in memory)",
				Value: cfg.DatabaseDSN,
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logging",
				Value: cfg.Debug,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg.Addr = cmd.String("addr")
			cfg.DatabaseDSN = cmd.String("database-dsn")
			cfg.Debug = cmd.Bool("debug")
			return run(ctx, cfg)
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	log.Info().Str("version", Version).Msgf("starting %s", AppName)

	// Match record store: postgres when configured, in-memory otherwise.
	var store record.Store
	if cfg.DatabaseDSN != "" {
		gs, err := record.Open(cfg.DatabaseDSN)
		if err != nil {
			return err
		}
		store = gs
		log.Info().Msg("match records persisted to postgres")
	} else {
		store = record.NewMemoryStore()
		log.Warn().Msg("no DATABASE_DSN set, match records are in-memory only")
	}
	recorder := record.NewAsyncRecorder(store)
	defer recorder.Close()

	registry := match.NewRegistry(match.Config{Rounds: cfg.Rounds}, recorder)
	svc := service.NewMatchService(registry, identity.Passthrough{}, store)

	sweeper, err := service.StartSweeper(registry, cfg.SweepInterval, cfg.SweepGrace)
	if err != nil {
		return err
	}
	defer sweeper.Shutdown()

	hub := websocket.NewHub(svc, registry)
	go hub.Run()

	apiServer := api.NewServer(svc, hub)
	mcpServer := mcptransport.NewServer(svc, Version)

	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)
	mainRouter.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpServer.MCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		data, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(data)
	})

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      mainRouter,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("HTTP server listening")
		log.Info().Msgf("REST API: http://%s/api", cfg.Addr)
		log.Info().Msgf("WebSocket: ws://%s/ws?user=<user_id>", cfg.Addr)
		log.Info().Msgf("MCP endpoint: http://%s/mcp", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	log.Info().Msg("server stopped")
	return nil
}
