package storage

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/julianstephens/wellcheck/internal/constants"
	"github.com/julianstephens/wellcheck/internal/models"
)

// Provider is the durable wellness log.
type Provider interface {
	// Lifecycle
	Init() error
	Close() error

	// Load returns every entry, deduplicated by (username, date) with the
	// last written row winning. Corrupt rows are coerced, never returned as
	// errors.
	Load() ([]models.Entry, error)
	// Append persists a new entry. It fails with a CONFLICT error when the
	// user already has an entry for that date and with an IO error when the
	// store cannot be locked or written.
	Append(models.Entry) error
	// ClearAll wipes every entry, leaving an empty log.
	ClearAll() error
	// HasEntry reports whether username already checked in on date.
	HasEntry(username string, date time.Time) (bool, error)

	// Utils
	Path() string
}

// Options configures a store.
type Options struct {
	// LockTimeout bounds the wait for exclusive write access.
	LockTimeout time.Duration
}

func (o Options) lockTimeout() time.Duration {
	if o.LockTimeout <= 0 {
		return constants.DefaultLockTimeout
	}
	return o.LockTimeout
}

// IsSQLitePath reports whether path names a SQLite database rather than a
// CSV log.
func IsSQLitePath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return true
	default:
		return false
	}
}

// Open picks the backend from the path extension.
func Open(path string, opts Options) Provider {
	if IsSQLitePath(path) {
		return NewSQLiteStore(path, opts)
	}
	return NewCSVStore(path, opts)
}

func hasEntry(entries []models.Entry, username string, date time.Time) bool {
	key := models.Entry{Username: strings.TrimSpace(username), Date: models.DateOnly(date)}.Key()
	for _, e := range entries {
		if e.Key() == key {
			return true
		}
	}
	return false
}
