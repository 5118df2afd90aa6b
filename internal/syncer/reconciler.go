// Package syncer reconciles a remote game history with the local cache.
package syncer

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/ramonehamilton/preordain/internal/datastore"
	"github.com/ramonehamilton/preordain/internal/games"
	"github.com/ramonehamilton/preordain/internal/identity"
	"github.com/ramonehamilton/preordain/internal/storage/models"
	"github.com/ramonehamilton/preordain/internal/storage/repository"
	"github.com/ramonehamilton/preordain/internal/trackobot"
)

// Fetcher returns one page of an account's history.
type Fetcher interface {
	FetchPage(ctx context.Context, username, token string, page int) (*trackobot.HistoryPage, error)
}

// DatasetStore persists raw and normalized histories.
type DatasetStore interface {
	WriteRaw(ref string, records []games.RawRecord) error
	ReadRaw(ref string) ([]games.RawRecord, error)
	WriteDataset(ref string, ds *games.Dataset) error
	ReadDataset(ref string) (*games.Dataset, error)
	Remove(ref string) error
}

// Config holds reconciler settings.
type Config struct {
	// FetchConcurrency bounds parallel page requests (default 1, sequential)
	FetchConcurrency int

	// Timeout bounds a whole sync (0 = no limit beyond the caller's context)
	Timeout time.Duration
}

// DefaultConfig returns a sequential configuration.
func DefaultConfig() Config {
	return Config{FetchConcurrency: 1, Timeout: 5 * time.Minute}
}

// Result describes the outcome of a sync.
type Result struct {
	Dataset      *games.Dataset
	Entry        *models.CacheEntry
	CacheHit     bool
	TotalCount   int
	PagesFetched int
}

// Reconciler decides between reusing a cached history and refetching it.
type Reconciler struct {
	fetcher Fetcher
	index   repository.CacheIndexRepository
	store   DatasetStore
	config  Config
	log     zerolog.Logger

	inflight singleflight.Group
	newRefs  func(key string) datastore.Refs
}

// NewReconciler creates a reconciler.
func NewReconciler(fetcher Fetcher, index repository.CacheIndexRepository, store DatasetStore, config Config, log zerolog.Logger) *Reconciler {
	if config.FetchConcurrency < 1 {
		config.FetchConcurrency = 1
	}
	return &Reconciler{
		fetcher: fetcher,
		index:   index,
		store:   store,
		config:  config,
		log:     log.With().Str("component", "syncer").Logger(),
		newRefs: datastore.NewRefs,
	}
}

// Sync brings the cached history for id up to date and returns it.
// Concurrent calls for the same identity share one sync.
func (r *Reconciler) Sync(ctx context.Context, id identity.Identity) (*Result, error) {
	key := id.Key()
	v, err, shared := r.inflight.Do(key, func() (interface{}, error) {
		return r.sync(ctx, id, key)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		r.log.Debug().Str("identity", identity.ShortKey(key)).Msg("joined in-flight sync")
	}
	return v.(*Result), nil
}

func (r *Reconciler) sync(ctx context.Context, id identity.Identity, key string) (*Result, error) {
	if r.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.Timeout)
		defer cancel()
	}

	log := r.log.With().Str("identity", identity.ShortKey(key)).Logger()
	start := time.Now()

	entry, err := r.lookup(ctx, key, log)
	if err != nil {
		return nil, err
	}

	first, err := r.fetcher.FetchPage(ctx, id.Username, id.Token, 1)
	if err != nil {
		return nil, fetchFailed(1, err)
	}
	total := first.TotalItems()

	if entry != nil && entry.ExpectedCount == total {
		ds, err := r.store.ReadDataset(entry.NormalizedRef)
		if err == nil {
			log.Info().Int("games", ds.Len()).Dur("took", time.Since(start)).Msg("history unchanged, using cache")
			return &Result{Dataset: ds, Entry: entry, CacheHit: true, TotalCount: total, PagesFetched: 1}, nil
		}
		log.Warn().Err(err).Str("ref", entry.NormalizedRef).Msg("cached dataset unreadable, refetching")
	} else if entry != nil {
		log.Info().Int("cached", entry.ExpectedCount).Int("remote", total).Msg("history changed, refetching")
	}

	records, err := r.fetchRemaining(ctx, id, first)
	if err != nil {
		return nil, err
	}

	ds := games.Normalize(records)
	if n := ds.WarningCount(); n > 0 {
		log.Warn().Int("warnings", n).Msg("normalized history with warnings")
	}

	newEntry, err := r.commit(ctx, key, total, records, ds)
	if err != nil {
		return nil, err
	}

	if entry != nil {
		r.removeRefs(log, entry.RawRef, entry.NormalizedRef)
	}

	log.Info().
		Int("games", ds.Len()).
		Int("pages", first.TotalPages()).
		Dur("took", time.Since(start)).
		Msg("history synced")

	return &Result{
		Dataset:      ds,
		Entry:        newEntry,
		TotalCount:   total,
		PagesFetched: first.TotalPages(),
	}, nil
}

// lookup reads the cache entry; a corrupt entry counts as a miss.
func (r *Reconciler) lookup(ctx context.Context, key string, log zerolog.Logger) (*models.CacheEntry, error) {
	entry, err := r.index.Lookup(ctx, key)
	if errors.Is(err, repository.ErrCorruptEntry) {
		log.Warn().Err(err).Msg("ignoring corrupt cache entry")
		return nil, nil
	}
	if err != nil {
		return nil, storageFailed("failed to look up cache entry", err)
	}
	return entry, nil
}

// fetchRemaining fetches pages 2..n and returns all records in page order.
func (r *Reconciler) fetchRemaining(ctx context.Context, id identity.Identity, first *trackobot.HistoryPage) ([]games.RawRecord, error) {
	totalPages := first.TotalPages()
	pages := make([][]games.RawRecord, totalPages)
	pages[0] = first.History

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.config.FetchConcurrency)
	for p := 2; p <= totalPages; p++ {
		page := p
		g.Go(func() error {
			res, err := r.fetcher.FetchPage(gctx, id.Username, id.Token, page)
			if err != nil {
				return fetchFailed(page, err)
			}
			pages[page-1] = res.History
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	size := 0
	for _, p := range pages {
		size += len(p)
	}
	records := make([]games.RawRecord, 0, size)
	for _, p := range pages {
		records = append(records, p...)
	}
	return records, nil
}

// commit writes both files under fresh refs and then points the index at
// them. On failure the new files are removed and the index is untouched.
func (r *Reconciler) commit(ctx context.Context, key string, total int, records []games.RawRecord, ds *games.Dataset) (*models.CacheEntry, error) {
	refs := r.newRefs(key)
	log := r.log.With().Str("identity", identity.ShortKey(key)).Logger()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := r.store.WriteRaw(refs.Raw, records); err != nil {
		r.removeRefs(log, refs.Raw)
		return nil, storageFailed("failed to write raw history", err)
	}
	if err := r.store.WriteDataset(refs.Normalized, ds); err != nil {
		r.removeRefs(log, refs.Raw, refs.Normalized)
		return nil, storageFailed("failed to write dataset", err)
	}

	entry := &models.CacheEntry{
		IdentityKey:   key,
		ExpectedCount: total,
		RawRef:        refs.Raw,
		NormalizedRef: refs.Normalized,
	}
	if err := r.index.Upsert(ctx, entry); err != nil {
		r.removeRefs(log, refs.Raw, refs.Normalized)
		return nil, storageFailed("failed to update cache index", err)
	}

	return entry, nil
}

func (r *Reconciler) removeRefs(log zerolog.Logger, refs ...string) {
	for _, ref := range refs {
		if err := r.store.Remove(ref); err != nil {
			log.Warn().Err(err).Str("ref", ref).Msg("failed to remove dataset file")
		}
	}
}

// LoadCached returns the cached dataset for id without contacting the service.
func (r *Reconciler) LoadCached(ctx context.Context, id identity.Identity) (*games.Dataset, error) {
	entry, err := r.cachedEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	ds, err := r.store.ReadDataset(entry.NormalizedRef)
	if err != nil {
		return nil, storageFailed("failed to read cached dataset", err)
	}
	return ds, nil
}

// LoadRaw returns the cached raw history for id.
func (r *Reconciler) LoadRaw(ctx context.Context, id identity.Identity) ([]games.RawRecord, error) {
	entry, err := r.cachedEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	records, err := r.store.ReadRaw(entry.RawRef)
	if err != nil {
		return nil, storageFailed("failed to read cached history", err)
	}
	return records, nil
}

func (r *Reconciler) cachedEntry(ctx context.Context, id identity.Identity) (*models.CacheEntry, error) {
	entry, err := r.index.Lookup(ctx, id.Key())
	if errors.Is(err, repository.ErrCorruptEntry) {
		return nil, ErrNoCache
	}
	if err != nil {
		return nil, storageFailed("failed to look up cache entry", err)
	}
	if entry == nil {
		return nil, ErrNoCache
	}
	return entry, nil
}
