// Package models defines the rows stored in the cache index database.
package models

import "time"

// CacheEntry maps an identity key to the files holding its cached history.
type CacheEntry struct {
	IdentityKey   string
	ExpectedCount int
	RawRef        string
	NormalizedRef string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
