package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/daem-platform/daem-backend/internal/analysis/sentiment"
	"github.com/daem-platform/daem-backend/internal/config"
	"github.com/daem-platform/daem-backend/internal/handler"
	"github.com/daem-platform/daem-backend/internal/service/conversation"
	"github.com/daem-platform/daem-backend/internal/service/reply"
	sessionservice "github.com/daem-platform/daem-backend/internal/service/session"
	"github.com/daem-platform/daem-backend/internal/store"
	"github.com/daem-platform/daem-backend/internal/store/memory"
	"github.com/daem-platform/daem-backend/internal/store/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		logrus.WithError(err).Warn("no .env file loaded, continuing with system environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}

	st, err := openStore(cfg.Storage)
	if err != nil {
		logrus.WithError(err).Fatal("failed to open store")
	}

	agent, err := conversation.EnsureAgentUser(ctx, st)
	if err != nil {
		logrus.WithError(err).Fatal("failed to provision agent identity")
	}

	analyzer := sentiment.NewKeywordAnalyzer()
	replies := buildReplyGenerator(ctx, cfg.AI)

	sessions := sessionservice.NewManager(st, cfg.Session.IdleTimeout)
	pipeline := conversation.NewPipeline(st, st, analyzer, replies, agent)

	router := handler.NewRouter(handler.Deps{
		Store:    st,
		Sessions: sessions,
		Pipeline: pipeline,
	})

	startServer(ctx, cfg.Server, router)
}

func openStore(cfg config.StorageConfig) (store.Store, error) {
	if cfg.Path == "" {
		logrus.Info("DB_PATH not set, using in-memory store")
		return memory.New(), nil
	}
	logrus.WithField("path", cfg.Path).Info("using sqlite store")
	return sqlite.Open(cfg.Path)
}

func buildReplyGenerator(ctx context.Context, cfg config.AIConfig) reply.Generator {
	if !cfg.Enabled() {
		logrus.Info("ark credentials not configured, using canned replies")
		return reply.NewStaticGenerator()
	}

	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		logrus.WithError(err).Warn("failed to create chat model, falling back to canned replies")
		return reply.NewStaticGenerator()
	}

	generator, err := reply.NewLLMGenerator(ctx, chatModel)
	if err != nil {
		logrus.WithError(err).Warn("failed to build reply chain, falling back to canned replies")
		return reply.NewStaticGenerator()
	}

	logrus.Info("LLM reply generator initialized")
	return generator
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logrus.WithField("addr", serverCfg.Addr).Info("daem backend listening")
	if err := runServer(ctx, srv); err != nil {
		logrus.WithError(err).Fatal("server error")
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
