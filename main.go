// Command chessrooms starts the realtime chess room server.
//
// It exposes room entry points and a small REST surface over HTTP, and the
// realtime game protocol over a WebSocket endpoint. Flags control host/port
// and debug logging; every flag can also come from the environment or a .env
// file.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/sapdemon/chess-test/api"
	"github.com/sapdemon/chess-test/game/coordinator"
	"github.com/sapdemon/chess-test/game/room"
	"github.com/sapdemon/chess-test/game/rules"
	"github.com/sapdemon/chess-test/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Chess Rooms Server"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cmd := &cli.Command{
		Name:    "chessrooms",
		Usage:   "realtime two-player chess rooms over WebSocket",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "host",
				Value:   "localhost",
				Usage:   "HTTP server host",
				Sources: cli.EnvVars("HOST"),
			},
			&cli.IntFlag{
				Name:    "port",
				Value:   3000,
				Usage:   "HTTP server port",
				Sources: cli.EnvVars("PORT"),
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "Enable debug logging",
				Sources: cli.EnvVars("DEBUG"),
			},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	setupLogging(cmd.Bool("debug"))

	addr := fmt.Sprintf("%s:%d", cmd.String("host"), cmd.Int("port"))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           buildHandler(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Handle shutdown signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msgf("%s v%s listening", AppName, Version)
		log.Info().Msgf("rooms: http://%s/", addr)
		log.Info().Msgf("websocket: ws://%s/ws", addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	log.Info().Msg("server stopped")
	return nil
}

// buildHandler wires the registry, rules engine, hub, and coordinator into
// the HTTP handler.
func buildHandler() http.Handler {
	registry := room.NewRegistry()
	hub := websocket.NewHub()
	coord := coordinator.New(registry, rules.NewChessEngine(), hub)
	hub.Attach(coord)
	return api.NewServer(coord, hub)
}

func setupLogging(debug bool) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
