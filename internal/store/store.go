package store

import (
	"context"
	"errors"
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Keys used by the application.
const (
	KeySettings  = "settings"
	KeyHistory   = "history"
	KeyAnalytics = "analytics"
)

// Store is an opaque key-value persistence collaborator. Values are
// JSON-encoded. Get reports found=false, with no error, for an absent key so
// callers can fall back to their default.
type Store interface {
	Get(ctx context.Context, key string, dst any) (found bool, err error)
	Set(ctx context.Context, key string, value any) error
}

// ErrStorageUnavailable is matched by every *StorageUnavailableError.
var ErrStorageUnavailable = errors.New("storage unavailable")

// StorageUnavailableError reports that the backing store could not serve a
// request.
type StorageUnavailableError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageUnavailableError) Error() string {
	return fmt.Sprintf("storage unavailable: %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageUnavailableError) Unwrap() error { return e.Err }

func (e *StorageUnavailableError) Is(target error) bool { return target == ErrStorageUnavailable }

func unavailable(op, key string, err error) error {
	return &StorageUnavailableError{Op: op, Key: key, Err: err}
}
