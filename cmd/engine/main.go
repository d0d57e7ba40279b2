package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/scholarline/scholarline/engine/internal/api"
	"github.com/scholarline/scholarline/engine/internal/capability"
	"github.com/scholarline/scholarline/engine/internal/config"
	"github.com/scholarline/scholarline/engine/internal/conversation"
	"github.com/scholarline/scholarline/engine/internal/engine"
	"github.com/scholarline/scholarline/engine/internal/events"
	"github.com/scholarline/scholarline/engine/internal/llm"
	"github.com/scholarline/scholarline/engine/internal/persona"
	"github.com/scholarline/scholarline/engine/internal/search"
	"github.com/scholarline/scholarline/engine/internal/secrets"
	"github.com/scholarline/scholarline/engine/internal/store"
	memorystore "github.com/scholarline/scholarline/engine/internal/store/memory"
	"github.com/scholarline/scholarline/engine/internal/store/postgres"
)

type server interface {
	Start(ctx context.Context, addr string) error
}

var (
	loadConfig = func() (config.Config, error) {
		return config.Load(), nil
	}
	newLogger = func() (*zap.Logger, error) {
		return zap.NewProduction()
	}
	newBroker        = events.NewBroker
	newPostgresStore = func(conn string) (store.Store, func(), error) {
		pg, err := postgres.New(conn)
		if err != nil {
			return nil, nil, err
		}
		return pg, func() { _ = pg.Close() }, nil
	}
	newProvider = llm.NewProvider
	newServer   = func(st store.Store, eng api.TurnRunner, broker *events.Broker, ranker *search.Ranker, cfg config.Config, logger *zap.Logger) server {
		return api.NewServer(st, eng, broker, ranker, cfg, logger)
	}
	notifyContext = signal.NotifyContext
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := notifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	st, closeStore, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	if closeStore != nil {
		defer closeStore()
	}

	apiKey, err := secrets.ResolveAPIKey(cfg.OpenAIAPIKey, cfg.OpenAIAPIKeyEnc, cfg.SecretsKey)
	if err != nil {
		return err
	}
	provider, err := newProvider(llm.Config{
		Provider: cfg.LLMProvider,
		Model:    cfg.LLMModel,
		BaseURL:  cfg.LLMBaseURL,
		APIKey:   apiKey,
	})
	if err != nil {
		return err
	}
	oracle := llm.NewOracle(provider, persona.Load())

	var embedder search.Embedder = search.LexicalOnly{}
	if apiKey != "" {
		embedder = llm.NewOpenAIEmbedder(llm.OpenAIConfig{
			APIKey:  apiKey,
			Model:   cfg.EmbeddingModel,
			BaseURL: cfg.EmbeddingBaseURL,
		})
	} else {
		logger.Warn("no embedding credentials, search ranking is lexical only")
	}
	ranker := search.NewRanker(st, embedder)

	registry := capability.NewRegistry()
	registry.Register(capability.SearchScholarships(ranker, cfg.DefaultSearchLimit))
	registry.Register(capability.CreateApplication(st))
	registry.Register(capability.CreateTasks(st))

	conversationLog := conversation.NewLog(conversation.Options{
		MaxThreads:  cfg.MaxThreads,
		TTL:         cfg.ThreadTTL,
		MaxMessages: cfg.MaxHistoryMessages,
	})
	broker := newBroker()
	eng := engine.New(oracle, registry, conversationLog, broker, logger, cfg.MaxTurnIterations)

	srv := newServer(st, eng, broker, ranker, cfg, logger)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		addr := fmt.Sprintf(":%s", cfg.Port)
		logger.Info("scholarline engine listening", zap.String("addr", addr), zap.String("store", cfg.StoreBackend))
		err := srv.Start(groupCtx, addr)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	group.Go(func() error {
		return runEvictionJanitor(groupCtx, conversationLog, cfg.ThreadTTL, logger)
	})
	return group.Wait()
}

func openStore(cfg config.Config, logger *zap.Logger) (store.Store, func(), error) {
	if cfg.StoreBackend == "memory" {
		st := memorystore.New()
		st.SeedScholarships(memorystore.SampleScholarships())
		logger.Info("using in-memory store with sample catalog")
		return st, nil, nil
	}
	return newPostgresStore(cfg.PostgresURL)
}

func runEvictionJanitor(ctx context.Context, conversationLog *conversation.Log, ttl time.Duration, logger *zap.Logger) error {
	interval := ttl / 2
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if evicted := conversationLog.EvictExpired(); evicted > 0 {
				logger.Info("evicted idle threads", zap.Int("count", evicted))
			}
		}
	}
}
