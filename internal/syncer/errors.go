package syncer

import (
	"errors"
	"fmt"
)

// ErrStorageUnavailable wraps failures of the cache index or dataset files.
var ErrStorageUnavailable = errors.New("storage unavailable")

// ErrNoCache is returned by offline loads when an identity has never synced.
var ErrNoCache = errors.New("no cached history for identity")

// FetchFailedError reports a history fetch that aborted a sync.
type FetchFailedError struct {
	Page   int
	Reason string
	Err    error
}

func (e *FetchFailedError) Error() string {
	return fmt.Sprintf("fetch failed on page %d: %s", e.Page, e.Reason)
}

func (e *FetchFailedError) Unwrap() error {
	return e.Err
}

func fetchFailed(page int, err error) error {
	return &FetchFailedError{Page: page, Reason: err.Error(), Err: err}
}

func storageFailed(msg string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorageUnavailable, msg, err)
}
