package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	werrors "github.com/julianstephens/wellcheck/internal/errors"
	"github.com/julianstephens/wellcheck/internal/filelock"
	"github.com/julianstephens/wellcheck/internal/logger"
	"github.com/julianstephens/wellcheck/internal/models"
	"github.com/julianstephens/wellcheck/internal/validation"
)

// CSVStore keeps the wellness log in a flat CSV file. Writers rewrite the
// whole file under a sidecar lock; readers never lock.
//
// Rewriting the file on every append keeps the header stable and duplicate
// rows out of the file, at the cost of O(n) writes. That is fine for a
// personal journal; a larger log would want an append-only file with
// periodic compaction.
type CSVStore struct {
	path        string
	lock        *filelock.Lock
	lockTimeout time.Duration
	validator   *validation.Validator
}

func NewCSVStore(path string, opts Options) *CSVStore {
	return &CSVStore{
		path:        path,
		lock:        filelock.ForFile(path),
		lockTimeout: opts.lockTimeout(),
		validator:   validation.New(),
	}
}

func (s *CSVStore) Path() string {
	return s.path
}

// LockPath returns the sidecar lock file guarding writes.
func (s *CSVStore) LockPath() string {
	return s.lock.Path()
}

// Lock exposes the sidecar lock for diagnostics.
func (s *CSVStore) Lock() *filelock.Lock {
	return s.lock
}

func (s *CSVStore) Close() error {
	return nil
}

// Init creates the data directory and an empty log.
func (s *CSVStore) Init() error {
	if _, err := os.Stat(s.path); err == nil {
		return fmt.Errorf("storage already initialized at %s", s.path)
	}
	if err := s.ensureFile(); err != nil {
		return werrors.IO("init storage", err)
	}
	return nil
}

// ensureFile creates the log with just the header row when it is missing.
// O_EXCL keeps a concurrent writer's file from being replaced.
func (s *CSVStore) ensureFile() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil
		}
		return fmt.Errorf("failed to create data file: %w", err)
	}
	defer f.Close()

	if err := encodeEntries(f, nil); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	logger.Info("Created wellness log", "path", s.path)
	return nil
}

// Load reads the whole log from disk. A log that exists but cannot be read
// or parsed is reported as empty so the app stays usable; only a log that
// cannot be created is an error.
func (s *CSVStore) Load() ([]models.Entry, error) {
	if err := s.ensureFile(); err != nil {
		return nil, werrors.IO("load entries", err)
	}

	entries, err := s.read()
	if err != nil {
		logger.Error("Wellness log unreadable, showing empty log", "path", s.path, "error", err)
		return []models.Entry{}, nil
	}
	return entries, nil
}

// read returns a CORRUPT_DATA error when the content cannot be parsed and an
// IO error when the file cannot be read.
func (s *CSVStore) read() ([]models.Entry, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []models.Entry{}, nil
		}
		return nil, werrors.IO("read entries", err)
	}

	entries, stats, err := decodeEntries(bytes.NewReader(data))
	if err != nil {
		return nil, werrors.New(werrors.KindCorruptData, "parse entries", err)
	}
	if stats.Coerced > 0 || stats.Undated > 0 || stats.Duplicates > 0 {
		logger.Warn("Repaired wellness log on load",
			"path", s.path,
			"rows", stats.Rows,
			"coerced_fields", stats.Coerced,
			"undated_rows", stats.Undated,
			"duplicates_dropped", stats.Duplicates,
		)
	}
	logger.Debug("Loaded wellness log", "path", s.path, "entries", len(entries))
	return entries, nil
}

// Append adds e unless the same user already has an entry for that date.
// The existence check and the write happen under the sidecar lock against
// a fresh read of the file.
func (s *CSVStore) Append(e models.Entry) error {
	const op = "append entry"

	e = prepareEntry(e)
	if result := s.validator.ValidateEntry(e); result.HasIssues() {
		return result.Err()
	}

	if err := s.lock.Acquire(context.Background(), s.lockTimeout); err != nil {
		return werrors.IO(op, err)
	}
	defer s.release()

	entries, err := s.read()
	if err != nil {
		if !errors.Is(err, werrors.ErrCorruptData) {
			return err
		}
		// Keep the unreadable file aside instead of overwriting it
		aside, qErr := s.quarantine()
		if qErr != nil {
			return werrors.IO(op, qErr)
		}
		logger.Error("Moved unreadable wellness log aside", "path", s.path, "moved_to", aside, "error", err)
		entries = nil
	}

	if hasEntry(entries, e.Username, e.Date) {
		return werrors.Conflict(op, "%s already checked in on %s", e.Username, e.Day())
	}

	entries = append(entries, e)
	if err := s.writeAll(entries); err != nil {
		return werrors.IO(op, err)
	}

	logger.Info("Saved check-in", "username", e.Username, "date", e.Day(), "score", e.WellnessScore)
	return nil
}

// ClearAll rewrites the log to just its header. It takes the same lock as
// Append so a wipe cannot interleave with a write.
func (s *CSVStore) ClearAll() error {
	const op = "clear entries"

	if err := s.lock.Acquire(context.Background(), s.lockTimeout); err != nil {
		return werrors.IO(op, err)
	}
	defer s.release()

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return werrors.IO(op, err)
	}
	if err := s.writeAll(nil); err != nil {
		return werrors.IO(op, err)
	}

	logger.Warn("Cleared all wellness entries", "path", s.path)
	return nil
}

func (s *CSVStore) HasEntry(username string, date time.Time) (bool, error) {
	entries, err := s.Load()
	if err != nil {
		return false, err
	}
	return hasEntry(entries, username, date), nil
}

func (s *CSVStore) release() {
	if err := s.lock.Release(); err != nil {
		logger.Error("Failed to release lock", "path", s.lock.Path(), "error", err)
	}
}

// writeAll replaces the log atomically via a temp file in the same directory.
func (s *CSVStore) writeAll(entries []models.Entry) error {
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if err := encodeEntries(tmp, entries); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to serialize entries: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		if removeErr := os.Remove(tmpPath); removeErr != nil {
			logger.Warn("Failed to remove temp file", "path", tmpPath, "error", removeErr)
		}
		return fmt.Errorf("failed to replace data file: %w", err)
	}
	return nil
}

func (s *CSVStore) quarantine() (string, error) {
	aside := fmt.Sprintf("%s.corrupt-%s", s.path, time.Now().Format("20060102-150405"))
	if err := os.Rename(s.path, aside); err != nil {
		return "", fmt.Errorf("failed to move unreadable log aside: %w", err)
	}
	return aside, nil
}

var _ Provider = (*CSVStore)(nil)
