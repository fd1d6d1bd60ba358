package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	werrors "github.com/julianstephens/wellcheck/internal/errors"
	"github.com/julianstephens/wellcheck/internal/filelock"
	"github.com/julianstephens/wellcheck/internal/logger"
	"github.com/julianstephens/wellcheck/internal/migration"
	"github.com/julianstephens/wellcheck/internal/models"
	"github.com/julianstephens/wellcheck/internal/validation"
	"github.com/julianstephens/wellcheck/migrations"
)

// SQLiteStore keeps the wellness log in a SQLite database. Uniqueness per
// (username, date) is enforced by the schema; writers still take the
// sidecar lock so backups and restores see a quiet file.
type SQLiteStore struct {
	path        string
	mu          sync.Mutex
	db          *sql.DB
	lock        *filelock.Lock
	lockTimeout time.Duration
	validator   *validation.Validator
}

func NewSQLiteStore(path string, opts Options) *SQLiteStore {
	return &SQLiteStore{
		path:        path,
		lock:        filelock.ForFile(path),
		lockTimeout: opts.lockTimeout(),
		validator:   validation.New(),
	}
}

func (s *SQLiteStore) Path() string {
	return s.path
}

// Lock exposes the sidecar lock for diagnostics.
func (s *SQLiteStore) Lock() *filelock.Lock {
	return s.lock
}

func (s *SQLiteStore) Init() error {
	if _, err := os.Stat(s.path); err == nil {
		return fmt.Errorf("storage already initialized at %s", s.path)
	}
	if err := s.open(); err != nil {
		return werrors.IO("init storage", err)
	}
	logger.Info("Created wellness database", "path", s.path)
	return nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

// open connects and brings the schema up to date. The busy timeout mirrors
// the lock timeout so a second writer waits instead of failing immediately.
func (s *SQLiteStore) open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(%d)", s.path, s.lockTimeout.Milliseconds())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := runMigrations(db); err != nil {
		db.Close()
		return werrors.New(werrors.KindCorruptData, "migrate database", err)
	}

	s.db = db
	return nil
}

func runMigrations(db *sql.DB) error {
	subFS, err := fs.Sub(migrations.FS, "sqlite")
	if err != nil {
		return fmt.Errorf("failed to access sqlite migrations: %w", err)
	}

	runner := migration.NewRunner(db, subFS)
	_, err = runner.ApplyMigrations(func(msg string) {
		logger.Debug(msg)
	})
	return err
}

// SchemaVersion reports the applied and the newest known schema versions.
func (s *SQLiteStore) SchemaVersion() (current, latest int, err error) {
	if err := s.open(); err != nil {
		return 0, 0, err
	}
	subFS, err := fs.Sub(migrations.FS, "sqlite")
	if err != nil {
		return 0, 0, fmt.Errorf("failed to access sqlite migrations: %w", err)
	}

	runner := migration.NewRunner(s.db, subFS)
	if current, err = runner.GetCurrentVersion(); err != nil {
		return 0, 0, err
	}
	if latest, err = runner.GetLatestVersion(); err != nil {
		return 0, 0, err
	}
	return current, latest, nil
}

func (s *SQLiteStore) Load() ([]models.Entry, error) {
	if err := s.open(); err != nil {
		if errors.Is(err, werrors.ErrCorruptData) {
			logger.Error("Wellness database unreadable, showing empty log", "path", s.path, "error", err)
			return []models.Entry{}, nil
		}
		return nil, werrors.IO("load entries", err)
	}

	rows, err := s.db.Query(`
		SELECT username, date, sleep_hours, screen_time, stress_level,
		       mood, wellness_score, tip, journal
		FROM entries ORDER BY rowid`)
	if err != nil {
		logger.Error("Failed to query wellness database, showing empty log", "path", s.path, "error", err)
		return []models.Entry{}, nil
	}
	defer rows.Close()

	entries := []models.Entry{}
	undated := 0
	for rows.Next() {
		var e models.Entry
		var date, mood string
		if err := rows.Scan(
			&e.Username, &date, &e.SleepHours, &e.ScreenTime, &e.StressLevel,
			&mood, &e.WellnessScore, &e.Tip, &e.Journal,
		); err != nil {
			logger.Error("Failed to read wellness row, showing empty log", "path", s.path, "error", err)
			return []models.Entry{}, nil
		}
		if d, ok := parseDay(date); ok {
			e.Date = d
		} else {
			undated++
		}
		e.Mood = models.Mood(mood)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		logger.Error("Failed to read wellness database, showing empty log", "path", s.path, "error", err)
		return []models.Entry{}, nil
	}

	if undated > 0 {
		logger.Warn("Wellness database has undated rows", "path", s.path, "undated_rows", undated)
	}
	// unreadable dates collapse onto one key per user, as in the CSV log
	if kept := dedupLastWins(entries); len(kept) != len(entries) {
		logger.Warn("Dropped duplicate wellness rows", "path", s.path, "duplicates_dropped", len(entries)-len(kept))
		entries = kept
	}
	logger.Debug("Loaded wellness database", "path", s.path, "entries", len(entries))
	return entries, nil
}

func (s *SQLiteStore) Append(e models.Entry) error {
	const op = "append entry"

	e = prepareEntry(e)
	if result := s.validator.ValidateEntry(e); result.HasIssues() {
		return result.Err()
	}

	if err := s.lock.Acquire(context.Background(), s.lockTimeout); err != nil {
		return werrors.IO(op, err)
	}
	defer s.release()

	if err := s.open(); err != nil {
		return werrors.IO(op, err)
	}

	_, err := s.db.Exec(`
		INSERT INTO entries (
			id, username, date, sleep_hours, screen_time, stress_level,
			mood, wellness_score, tip, journal, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), e.Username, e.Day(), e.SleepHours, e.ScreenTime, e.StressLevel,
		string(e.Mood), e.WellnessScore, e.Tip, e.Journal, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return werrors.Conflict(op, "%s already checked in on %s", e.Username, e.Day())
		}
		return werrors.IO(op, err)
	}

	logger.Info("Saved check-in", "username", e.Username, "date", e.Day(), "score", e.WellnessScore)
	return nil
}

func (s *SQLiteStore) ClearAll() error {
	const op = "clear entries"

	if err := s.lock.Acquire(context.Background(), s.lockTimeout); err != nil {
		return werrors.IO(op, err)
	}
	defer s.release()

	if err := s.open(); err != nil {
		return werrors.IO(op, err)
	}
	if _, err := s.db.Exec("DELETE FROM entries"); err != nil {
		return werrors.IO(op, err)
	}

	logger.Warn("Cleared all wellness entries", "path", s.path)
	return nil
}

func (s *SQLiteStore) HasEntry(username string, date time.Time) (bool, error) {
	if err := s.open(); err != nil {
		if errors.Is(err, werrors.ErrCorruptData) {
			return false, nil
		}
		return false, werrors.IO("check entry", err)
	}

	day := models.Entry{Date: models.DateOnly(date)}.Day()
	var exists bool
	err := s.db.QueryRow(
		"SELECT EXISTS(SELECT 1 FROM entries WHERE username = ? AND date = ?)",
		strings.TrimSpace(username), day,
	).Scan(&exists)
	if err != nil {
		return false, werrors.IO("check entry", err)
	}
	return exists, nil
}

func (s *SQLiteStore) release() {
	if err := s.lock.Release(); err != nil {
		logger.Error("Failed to release lock", "path", s.lock.Path(), "error", err)
	}
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

var _ Provider = (*SQLiteStore)(nil)
