package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	familysim "github.com/Naoya-Yasuda/hera-ai-family-simulator"
	"github.com/Naoya-Yasuda/hera-ai-family-simulator/config"
	"github.com/Naoya-Yasuda/hera-ai-family-simulator/dispatch"
	"github.com/Naoya-Yasuda/hera-ai-family-simulator/generation"
	"github.com/Naoya-Yasuda/hera-ai-family-simulator/generation/anthropic"
	"github.com/Naoya-Yasuda/hera-ai-family-simulator/generation/openai"
	"github.com/Naoya-Yasuda/hera-ai-family-simulator/logging"
	"github.com/Naoya-Yasuda/hera-ai-family-simulator/server"
	"github.com/Naoya-Yasuda/hera-ai-family-simulator/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := logging.New(&logging.Config{
		Level:  parseLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
	})

	store, err := buildStore(cfg)
	if err != nil {
		log.Fatalf("failed to initialize session store: %v", err)
	}
	collab := buildCollaborator(cfg)
	logger.Info("collaborator configured", "provider", collab.Info().Provider)

	sim := familysim.New(collab, func(o *familysim.Options) {
		o.Store = store
		o.Logger = logger
		o.Dispatch = func(d *dispatch.Options) {
			d.MaxRespondersPerTurn = cfg.Dispatch.MaxRespondersPerTurn
			d.PerPersonaTimeout = cfg.Dispatch.PerPersonaTimeout.Std()
			d.TurnDeadline = cfg.Dispatch.TurnDeadline.Std()
			d.HistoryWindow = cfg.Dispatch.HistoryWindow
		}
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.New(sim, logger).Router(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	logger.Info("family simulator listening", "addr", cfg.Server.Addr, "store", cfg.Store.Backend)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func buildStore(cfg *config.Config) (session.Store, error) {
	switch cfg.Store.Backend {
	case "file":
		return session.NewFileStore(cfg.Store.Dir)
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.Store.RedisAddr})
		return session.NewRedisStore(client, func(o *session.RedisOptions) {
			o.Prefix = cfg.Store.RedisPrefix
		}), nil
	default:
		return session.NewInMemoryStore(), nil
	}
}

func buildCollaborator(cfg *config.Config) generation.Collaborator {
	switch cfg.Provider.Name {
	case "openai":
		return openai.New(func(o *openai.Options) {
			if cfg.Provider.Model != "" {
				o.Model = cfg.Provider.Model
			}
		})
	case "anthropic":
		return anthropic.New(func(o *anthropic.Options) {
			if cfg.Provider.Model != "" {
				o.Model = anthropicsdk.Model(cfg.Provider.Model)
			}
		})
	default:
		return generation.NewMock()
	}
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
