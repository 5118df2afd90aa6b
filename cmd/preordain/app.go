package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/ramonehamilton/preordain/internal/config"
	"github.com/ramonehamilton/preordain/internal/datastore"
	"github.com/ramonehamilton/preordain/internal/games"
	"github.com/ramonehamilton/preordain/internal/identity"
	"github.com/ramonehamilton/preordain/internal/logging"
	"github.com/ramonehamilton/preordain/internal/storage"
	"github.com/ramonehamilton/preordain/internal/storage/repository"
	"github.com/ramonehamilton/preordain/internal/syncer"
	"github.com/ramonehamilton/preordain/internal/trackobot"
)

// app holds the wired components for one command invocation.
type app struct {
	cfg        *config.Config
	log        zerolog.Logger
	db         *storage.DB
	index      repository.CacheIndexRepository
	store      *datastore.Store
	client     *trackobot.Client
	reconciler *syncer.Reconciler
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig(opts *rootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	if opts.dataDir != "" {
		cfg.Storage.DataDir = opts.dataDir
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	if opts.baseURL != "" {
		cfg.API.BaseURL = opts.baseURL
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newApp(opts *rootOptions) (*app, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	log, err := logging.New(logging.FromConfig(cfg.Log))
	if err != nil {
		return nil, err
	}

	busyTimeout, _ := cfg.GetBusyTimeout()
	dbConfig := storage.DefaultConfig(cfg.DatabasePath())
	dbConfig.BusyTimeout = busyTimeout
	dbConfig.JournalMode = cfg.Storage.JournalMode

	db, err := storage.Open(dbConfig)
	if err != nil {
		return nil, err
	}

	store, err := datastore.NewStore(cfg.DatasetDir())
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	apiTimeout, _ := cfg.GetAPITimeout()
	initialBackoff, _ := cfg.GetInitialBackoff()
	breakerTimeout, _ := cfg.GetBreakerTimeout()
	client := trackobot.NewClient(trackobot.ClientOptions{
		BaseURL:          cfg.API.BaseURL,
		RateLimit:        rate.Limit(cfg.API.RequestsPerSec),
		Timeout:          apiTimeout,
		MaxRetries:       cfg.API.MaxRetries,
		InitialBackoff:   initialBackoff,
		FailureThreshold: cfg.API.FailureThreshold,
		BreakerTimeout:   breakerTimeout,
		Logger:           log,
	})

	syncTimeout, _ := cfg.GetSyncTimeout()
	index := repository.NewCacheIndexRepository(db)
	reconciler := syncer.NewReconciler(client, index, store, syncer.Config{
		FetchConcurrency: cfg.Sync.FetchConcurrency,
		Timeout:          syncTimeout,
	}, log)

	return &app{
		cfg:        cfg,
		log:        log,
		db:         db,
		index:      index,
		store:      store,
		client:     client,
		reconciler: reconciler,
	}, nil
}

func (a *app) Close() {
	a.store.Close()
	if err := a.db.Close(); err != nil {
		a.log.Warn().Err(err).Msg("failed to close cache index")
	}
}

func (a *app) identity() (identity.Identity, error) {
	if err := a.cfg.RequireAccount(); err != nil {
		return identity.Identity{}, err
	}
	return identity.Identity{Username: a.cfg.Account.Username, Token: a.cfg.Account.Token}, nil
}

// dataset returns the account's games, syncing first unless offline.
func (a *app) dataset(ctx context.Context, offline bool) (*games.Dataset, error) {
	id, err := a.identity()
	if err != nil {
		return nil, err
	}

	if offline {
		return a.reconciler.LoadCached(ctx, id)
	}

	result, err := a.reconciler.Sync(ctx, id)
	if err != nil {
		return nil, err
	}
	return result.Dataset, nil
}
