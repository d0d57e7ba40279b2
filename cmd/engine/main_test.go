package main

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/scholarline/scholarline/engine/internal/api"
	"github.com/scholarline/scholarline/engine/internal/config"
	"github.com/scholarline/scholarline/engine/internal/events"
	"github.com/scholarline/scholarline/engine/internal/search"
	"github.com/scholarline/scholarline/engine/internal/store"
)

type stubServer struct {
	err error
}

func (s stubServer) Start(ctx context.Context, addr string) error {
	return s.err
}

func captureEngineDeps() func() {
	origLoadConfig := loadConfig
	origNewLogger := newLogger
	origNewBroker := newBroker
	origNewPostgresStore := newPostgresStore
	origNewProvider := newProvider
	origNewServer := newServer
	origNotifyContext := notifyContext

	return func() {
		loadConfig = origLoadConfig
		newLogger = origNewLogger
		newBroker = origNewBroker
		newPostgresStore = origNewPostgresStore
		newProvider = origNewProvider
		newServer = origNewServer
		notifyContext = origNotifyContext
	}
}

func testConfig() config.Config {
	return config.Config{
		Port:               "0",
		StoreBackend:       "memory",
		LLMProvider:        "local",
		MaxTurnIterations:  8,
		DefaultSearchLimit: 5,
		MaxThreads:         16,
		ThreadTTL:          time.Minute,
		MaxHistoryMessages: 80,
	}
}

func stubDeps(cfg config.Config, srv server) {
	loadConfig = func() (config.Config, error) { return cfg, nil }
	newLogger = func() (*zap.Logger, error) { return zap.NewNop(), nil }
	newServer = func(store.Store, api.TurnRunner, *events.Broker, *search.Ranker, config.Config, *zap.Logger) server {
		return srv
	}
	notifyContext = func(ctx context.Context, signals ...os.Signal) (context.Context, context.CancelFunc) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		return cancelled, func() {}
	}
}

func TestRunSuccess(t *testing.T) {
	restore := captureEngineDeps()
	t.Cleanup(restore)

	stubDeps(testConfig(), stubServer{})
	require.NoError(t, run())
}

func TestRunServerError(t *testing.T) {
	restore := captureEngineDeps()
	t.Cleanup(restore)

	serverErr := errors.New("listen failed")
	stubDeps(testConfig(), stubServer{err: serverErr})
	require.ErrorIs(t, run(), serverErr)
}

func TestRunStoreError(t *testing.T) {
	restore := captureEngineDeps()
	t.Cleanup(restore)

	cfg := testConfig()
	cfg.StoreBackend = "postgres"
	cfg.PostgresURL = "postgres://example"
	stubDeps(cfg, stubServer{})

	storeErr := errors.New("connection refused")
	newPostgresStore = func(conn string) (store.Store, func(), error) {
		return nil, nil, storeErr
	}
	require.ErrorIs(t, run(), storeErr)
}

func TestRunUnsupportedProvider(t *testing.T) {
	restore := captureEngineDeps()
	t.Cleanup(restore)

	cfg := testConfig()
	cfg.LLMProvider = "carrier-pigeon"
	stubDeps(cfg, stubServer{})
	require.Error(t, run())
}

func TestOpenStore_MemorySeedsSampleCatalog(t *testing.T) {
	cfg := testConfig()
	st, closeStore, err := openStore(cfg, zap.NewNop())
	require.NoError(t, err)
	require.Nil(t, closeStore)

	scholarships, err := st.ListScholarships(context.Background(), 100)
	require.NoError(t, err)
	require.NotEmpty(t, scholarships)
}
