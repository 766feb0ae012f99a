package application

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/config"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/repository"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/repository/storage"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/room"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/session"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/usecase"
	"github.com/rocketscienceinc/tictactoe-rooms/transport/rest"
	"github.com/rocketscienceinc/tictactoe-rooms/transport/tcp"
	"github.com/rocketscienceinc/tictactoe-rooms/transport/websocket"
)

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)
	go func() {
		select {
		case sig := <-sigs:
			log.Info("Received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	matchRepo, closeRepo, err := newMatchRepository(ctx, log, conf)
	if err != nil {
		return err
	}
	defer closeRepo()

	matchManager := usecase.NewMatchManager(logger, matchRepo, conf.Redis.RecentMatches)

	registry := room.NewRegistry(logger)
	dispatcher := room.NewDispatcher(logger, registry)
	handler := session.NewHandler(logger, registry, dispatcher, matchManager)

	group, groupCtx := errgroup.WithContext(ctx)

	// run HTTP server
	group.Go(func() error {
		log.Info("Starting HTTP server", "port", conf.HTTPPort)
		if httpErr := rest.New(logger, registry, matchManager).Start(groupCtx, conf.HTTPPort); httpErr != nil {
			return fmt.Errorf("HTTP server error: %w", httpErr)
		}
		return nil
	})

	// run Websocket server
	group.Go(func() error {
		log.Info("Starting WebSocket server", "port", conf.SocketPort)
		if wsErr := websocket.New(logger, handler, conf.WebSocket).Start(groupCtx, conf.SocketPort); wsErr != nil {
			return fmt.Errorf("WebSocket server error: %w", wsErr)
		}
		return nil
	})

	// run TCP server
	group.Go(func() error {
		log.Info("Starting TCP server", "port", conf.TCPPort)
		server := tcp.New(logger, handler, conf.WebSocket.ReadLimit, conf.WebSocket.SendBuffer)
		if tcpErr := server.Start(groupCtx, conf.TCPPort); tcpErr != nil {
			return fmt.Errorf("TCP server error: %w", tcpErr)
		}
		return nil
	})

	if err = group.Wait(); err != nil {
		return err
	}

	log.Info("Application context canceled, shutting down")

	return nil
}

// newMatchRepository - redis when enabled, process memory otherwise.
func newMatchRepository(ctx context.Context, log *slog.Logger, conf *config.Config) (repository.MatchRepository, func(), error) {
	if !conf.Redis.Enabled {
		log.Info("Redis disabled, keeping match history in memory")
		return repository.NewMemoryMatchRepository(conf.Redis.RecentMatches), func() {}, nil
	}

	redisStorage, err := storage.NewRedisStorage(ctx, conf.Redis.GetRedisAddr())
	if err != nil {
		return nil, nil, fmt.Errorf("could not connect to redis storage: %w", err)
	}

	closeFn := func() {
		if err := redisStorage.Close(); err != nil {
			log.Error("could not close redis storage", "error", err)
		}
	}

	repo := repository.NewMatchRepository(redisStorage.Connection, conf.Redis.RecentMatches, conf.Redis.MatchTTL)

	return repo, closeFn, nil
}
