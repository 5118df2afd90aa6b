// Package repository implements persistence for the cache index.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ramonehamilton/preordain/internal/storage"
	"github.com/ramonehamilton/preordain/internal/storage/models"
)

// ErrCorruptEntry is returned when a stored cache entry cannot be trusted.
// Callers treat it as a cache miss.
var ErrCorruptEntry = errors.New("corrupt cache entry")

// CacheIndexRepository maps identity keys to cached dataset references.
type CacheIndexRepository interface {
	// Lookup returns the entry for key, or nil if there is none.
	Lookup(ctx context.Context, key string) (*models.CacheEntry, error)

	// Upsert inserts the entry or overwrites the count and references of
	// an existing one.
	Upsert(ctx context.Context, entry *models.CacheEntry) error

	// List returns every entry ordered by most recent update.
	List(ctx context.Context) ([]*models.CacheEntry, error)
}

type cacheIndexRepository struct {
	db  *storage.DB
	now func() time.Time
}

// NewCacheIndexRepository creates a new cache index repository.
func NewCacheIndexRepository(db *storage.DB) CacheIndexRepository {
	return &cacheIndexRepository{db: db, now: time.Now}
}

// Lookup retrieves the cache entry for an identity key.
func (r *cacheIndexRepository) Lookup(ctx context.Context, key string) (*models.CacheEntry, error) {
	query := `
		SELECT identity_key, expected_count, raw_ref, normalized_ref, created_at, updated_at
		FROM cache_entries
		WHERE identity_key = ?
	`
	entry, err := scanEntry(r.db.Conn().QueryRowContext(ctx, query, key))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Upsert writes the entry in a single statement inside a transaction, so
// two writers for the same key are serialized by sqlite.
func (r *cacheIndexRepository) Upsert(ctx context.Context, entry *models.CacheEntry) error {
	if entry == nil || entry.IdentityKey == "" {
		return fmt.Errorf("cache entry must have an identity key")
	}
	if entry.ExpectedCount < 0 {
		return fmt.Errorf("cache entry count cannot be negative: %d", entry.ExpectedCount)
	}

	now := r.now().UTC()
	query := `
		INSERT INTO cache_entries (
			identity_key, expected_count, raw_ref, normalized_ref, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(identity_key) DO UPDATE SET
			expected_count = excluded.expected_count,
			raw_ref = excluded.raw_ref,
			normalized_ref = excluded.normalized_ref,
			updated_at = excluded.updated_at
	`

	err := r.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, query,
			entry.IdentityKey,
			entry.ExpectedCount,
			entry.RawRef,
			entry.NormalizedRef,
			now,
			now,
		)
		return err
	})
	if err != nil {
		return wrapUnavailable("failed to upsert cache entry", err)
	}

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now
	return nil
}

// List returns all cache entries, skipping rows that fail validation.
func (r *cacheIndexRepository) List(ctx context.Context) ([]*models.CacheEntry, error) {
	query := `
		SELECT identity_key, expected_count, raw_ref, normalized_ref, created_at, updated_at
		FROM cache_entries
		ORDER BY updated_at DESC
	`
	rows, err := r.db.Conn().QueryContext(ctx, query)
	if err != nil {
		return nil, wrapUnavailable("failed to list cache entries", err)
	}
	defer rows.Close()

	var entries []*models.CacheEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if errors.Is(err, ErrCorruptEntry) {
			continue
		}
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapUnavailable("failed to iterate cache entries", err)
	}

	return entries, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*models.CacheEntry, error) {
	var (
		key                  string
		count, rawRef        sql.NullString
		normRef              sql.NullString
		createdAt, updatedAt sql.NullString
	)

	err := row.Scan(&key, &count, &rawRef, &normRef, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, wrapUnavailable("failed to scan cache entry", err)
	}

	// Counts are scanned as text so a non-numeric value reads as corrupt
	// rather than as a driver error.
	n, convErr := strconv.Atoi(count.String)
	if !count.Valid || convErr != nil || n < 0 {
		return nil, fmt.Errorf("%w: %s has invalid count", ErrCorruptEntry, key)
	}
	if !rawRef.Valid || rawRef.String == "" || !normRef.Valid || normRef.String == "" {
		return nil, fmt.Errorf("%w: %s has missing dataset references", ErrCorruptEntry, key)
	}

	created, ok := parseTimestamp(createdAt)
	if !ok {
		return nil, fmt.Errorf("%w: %s has invalid created_at", ErrCorruptEntry, key)
	}
	updated, ok := parseTimestamp(updatedAt)
	if !ok {
		return nil, fmt.Errorf("%w: %s has invalid updated_at", ErrCorruptEntry, key)
	}

	return &models.CacheEntry{
		IdentityKey:   key,
		ExpectedCount: n,
		RawRef:        rawRef.String,
		NormalizedRef: normRef.String,
		CreatedAt:     created,
		UpdatedAt:     updated,
	}, nil
}

// Timestamps are scanned as text for the same reason as counts. The driver
// hands parseable DATETIME values over as time.Time, which database/sql
// renders as RFC 3339; anything else is the raw column text.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
}

func parseTimestamp(v sql.NullString) (time.Time, bool) {
	if !v.Valid {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, v.String); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func wrapUnavailable(msg string, err error) error {
	if errors.Is(err, storage.ErrUnavailable) {
		return fmt.Errorf("%s: %w", msg, err)
	}
	return fmt.Errorf("%w: %s: %w", storage.ErrUnavailable, msg, err)
}
