package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rocketscienceinc/tictactoe-grid/internal/config"
	"github.com/rocketscienceinc/tictactoe-grid/internal/game"
	"github.com/rocketscienceinc/tictactoe-grid/internal/repository"
	"github.com/rocketscienceinc/tictactoe-grid/internal/repository/storage"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs a console game on stdin/stdout.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	var boardRepo repository.BoardRepository

	if conf.Redis.Enabled {
		redisAddrString := conf.Redis.GetRedisAddr()
		if redisAddrString == "" {
			return ErrAddrNotFound
		}

		redisClient, err := storage.New(ctx, redisAddrString)
		if err != nil {
			return fmt.Errorf("could not connect to redis storage: %w", err)
		}

		defer func() {
			if err = redisClient.Close(); err != nil {
				log.Error("could not close redis storage", "error", err)
			}
		}()

		boardRepo = repository.NewBoardRepository(redisClient)
	}

	session := game.NewSession(logger, conf.GameID, boardRepo)
	if err := session.Resume(ctx); err != nil {
		return fmt.Errorf("could not resume game: %w", err)
	}

	// the console read blocks, so the game runs aside and a signal can still stop the app
	gameErrCh := make(chan error, 1)
	go func() {
		log.Info("Starting game", "game_id", conf.GameID, "persistent", conf.Redis.Enabled)
		gameErrCh <- session.Play(ctx, os.Stdin, os.Stdout)
	}()

	select {
	case err := <-gameErrCh:
		if err != nil {
			return fmt.Errorf("game error: %w", err)
		}

		log.Info("Game finished", "winner", session.Winner.String())
		return nil
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}
