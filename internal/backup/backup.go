package backup

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/wellcheck/internal/constants"
	werrors "github.com/julianstephens/wellcheck/internal/errors"
	"github.com/julianstephens/wellcheck/internal/filelock"
	"github.com/julianstephens/wellcheck/internal/logger"
	"github.com/julianstephens/wellcheck/internal/storage"
)

// BackupInfo contains information about a backup file
type BackupInfo struct {
	Path      string
	Timestamp time.Time
	Size      int64
}

// Manager handles backup operations for a wellness log file
type Manager struct {
	dataPath    string
	backupDir   string
	suffix      string
	sqlite      bool
	lock        *filelock.Lock
	lockTimeout time.Duration
}

// NewManager creates a backup manager for the log at dataPath. Backups live
// in a "backups" directory next to it. A zero lockTimeout uses the default.
func NewManager(dataPath string, lockTimeout time.Duration) *Manager {
	if lockTimeout <= 0 {
		lockTimeout = constants.DefaultLockTimeout
	}
	suffix := filepath.Ext(dataPath)
	if suffix == "" {
		suffix = ".csv"
	}
	return &Manager{
		dataPath:    dataPath,
		backupDir:   filepath.Join(filepath.Dir(dataPath), constants.BackupDirName),
		suffix:      suffix,
		sqlite:      storage.IsSQLitePath(dataPath),
		lock:        filelock.ForFile(dataPath),
		lockTimeout: lockTimeout,
	}
}

// GetBackupDir returns the backup directory path
func (m *Manager) GetBackupDir() string {
	return m.backupDir
}

// CreateBackup copies the log into the backup directory and prunes backups
// beyond the retention limit. Writers are held off while the copy is taken.
func (m *Manager) CreateBackup() (string, error) {
	const op = "create backup"

	if err := m.lock.Acquire(context.Background(), m.lockTimeout); err != nil {
		return "", werrors.IO(op, err)
	}
	defer m.release()

	path, err := m.createBackup(false)
	if err != nil {
		return "", err
	}

	if err := m.rotateBackups(); err != nil {
		logger.Warn("Failed to rotate old backups", "dir", m.backupDir, "error", err)
	}
	return path, nil
}

// createBackup expects the caller to hold the lock. A raw backup copies the
// file bytes as they are, even when the database cannot be opened.
func (m *Manager) createBackup(raw bool) (string, error) {
	const op = "create backup"

	if err := os.MkdirAll(m.backupDir, 0700); err != nil {
		return "", werrors.IO(op, fmt.Errorf("failed to create backup directory: %w", err))
	}

	if _, err := os.Stat(m.dataPath); os.IsNotExist(err) {
		return "", werrors.IO(op, fmt.Errorf("data file does not exist: %s", m.dataPath))
	}

	backupPath, err := m.nextBackupPath()
	if err != nil {
		return "", werrors.IO(op, err)
	}

	if m.sqlite && !raw {
		err = m.backupDatabase(backupPath)
	} else {
		err = copyFile(m.dataPath, backupPath)
	}
	if err != nil {
		os.Remove(backupPath)
		return "", werrors.IO(op, err)
	}

	logger.Info("Created backup", "path", backupPath)
	return backupPath, nil
}

// nextBackupPath picks a unique name with minute precision, falling back to
// seconds and then a counter.
func (m *Manager) nextBackupPath() (string, error) {
	now := time.Now()
	path := m.backupName(now.Format("20060102-1504"))
	if !exists(path) {
		return path, nil
	}

	timestamp := now.Format("20060102-150405")
	path = m.backupName(timestamp)
	for counter := 1; exists(path); counter++ {
		if counter > 100 {
			return "", fmt.Errorf("failed to generate unique backup filename")
		}
		path = m.backupName(fmt.Sprintf("%s-%d", timestamp, counter))
	}
	return path, nil
}

func (m *Manager) backupName(stamp string) string {
	return filepath.Join(m.backupDir, constants.BackupFilePrefix+stamp+m.suffix)
}

// backupDatabase takes a consistent copy with VACUUM INTO, falling back to a
// plain file copy.
func (m *Manager) backupDatabase(destPath string) error {
	srcDB, err := sql.Open("sqlite", m.dataPath+"?mode=ro")
	if err != nil {
		return fmt.Errorf("failed to open source database: %w", err)
	}
	defer srcDB.Close()

	var count int
	if err := srcDB.QueryRow("SELECT COUNT(*) FROM sqlite_master").Scan(&count); err != nil {
		return fmt.Errorf("source database appears to be corrupted: %w", err)
	}

	if _, err := srcDB.Exec("VACUUM INTO ?", destPath); err != nil {
		logger.Debug("VACUUM INTO failed, copying file", "error", err)
		srcDB.Close()
		return copyFile(m.dataPath, destPath)
	}
	return nil
}

// ListBackups returns all backups, newest first.
func (m *Manager) ListBackups() ([]BackupInfo, error) {
	if _, err := os.Stat(m.backupDir); os.IsNotExist(err) {
		return []BackupInfo{}, nil
	}

	entries, err := os.ReadDir(m.backupDir)
	if err != nil {
		return nil, werrors.IO("list backups", fmt.Errorf("failed to read backup directory: %w", err))
	}

	backups := []BackupInfo{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if !strings.HasPrefix(name, constants.BackupFilePrefix) || !strings.HasSuffix(name, m.suffix) {
			continue
		}

		timestamp, ok := parseBackupTimestamp(strings.TrimSuffix(strings.TrimPrefix(name, constants.BackupFilePrefix), m.suffix))
		if !ok {
			continue
		}

		path := filepath.Join(m.backupDir, name)
		info, err := os.Stat(path)
		if err != nil {
			continue
		}

		backups = append(backups, BackupInfo{
			Path:      path,
			Timestamp: timestamp,
			Size:      info.Size(),
		})
	}

	// Name order breaks timestamp ties so counter suffixes stay in order
	sort.Slice(backups, func(i, j int) bool {
		if !backups[i].Timestamp.Equal(backups[j].Timestamp) {
			return backups[i].Timestamp.After(backups[j].Timestamp)
		}
		return counterOf(backups[i].Path) > counterOf(backups[j].Path)
	})

	return backups, nil
}

// parseBackupTimestamp accepts YYYYMMDD-HHMM or YYYYMMDD-HHMMSS with an
// optional -N counter.
func parseBackupTimestamp(s string) (time.Time, bool) {
	parts := strings.Split(s, "-")
	if len(parts) == 3 {
		if _, err := strconv.Atoi(parts[2]); err != nil {
			return time.Time{}, false
		}
		s = strings.Join(parts[:2], "-")
	}

	for _, layout := range []string{"20060102-1504", "20060102-150405"} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func counterOf(path string) int {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	parts := strings.Split(base, "-")
	if len(parts) < 4 {
		return 0
	}
	n, _ := strconv.Atoi(parts[len(parts)-1])
	return n
}

// rotateBackups removes old backups beyond the retention limit
func (m *Manager) rotateBackups() error {
	backups, err := m.ListBackups()
	if err != nil {
		return err
	}

	for i := constants.MaxBackups; i < len(backups); i++ {
		if err := os.Remove(backups[i].Path); err != nil {
			return fmt.Errorf("failed to remove old backup %s: %w", backups[i].Path, err)
		}
		logger.Debug("Removed old backup", "path", backups[i].Path)
	}
	return nil
}

// RestoreBackup replaces the log with backupPath after checking the backup
// is readable. The current log is backed up first; its path is returned
// (empty when there was no log to save).
func (m *Manager) RestoreBackup(backupPath string) (string, error) {
	const op = "restore backup"

	if _, err := os.Stat(backupPath); os.IsNotExist(err) {
		return "", werrors.IO(op, fmt.Errorf("backup file does not exist: %s", backupPath))
	}

	if err := m.verifyBackup(backupPath); err != nil {
		return "", werrors.New(werrors.KindCorruptData, op, fmt.Errorf("backup file is corrupted or invalid: %w", err))
	}

	if err := m.lock.Acquire(context.Background(), m.lockTimeout); err != nil {
		return "", werrors.IO(op, err)
	}
	defer m.release()

	var safety string
	if exists(m.dataPath) {
		var err error
		// Not rotated, so the backup being restored can't be pruned
		safety, err = m.createBackup(true)
		if err != nil {
			return "", fmt.Errorf("failed to backup current data before restore: %w", err)
		}
	}

	tempPath := m.dataPath + ".restore.tmp"
	if err := copyFile(backupPath, tempPath); err != nil {
		os.Remove(tempPath)
		return safety, werrors.IO(op, fmt.Errorf("failed to copy backup file: %w", err))
	}

	if err := os.Rename(tempPath, m.dataPath); err != nil {
		if removeErr := os.Remove(tempPath); removeErr != nil {
			logger.Warn("Failed to remove temporary file", "path", tempPath, "error", removeErr)
		}
		return safety, werrors.IO(op, fmt.Errorf("failed to restore data file: %w", err))
	}

	logger.Info("Restored backup", "from", backupPath, "to", m.dataPath)
	return safety, nil
}

// Verify checks that the file at path (a backup or the live log) can be
// read back by the matching store.
func (m *Manager) Verify(path string) error {
	return m.verifyBackup(path)
}

// verifyBackup checks that a backup can be read back by the matching store.
func (m *Manager) verifyBackup(path string) error {
	if m.sqlite {
		return verifyDatabase(path)
	}
	return verifyCSV(path)
}

func verifyDatabase(path string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return err
	}
	defer db.Close()

	var count int
	return db.QueryRow("SELECT COUNT(*) FROM sqlite_master").Scan(&count)
}

func verifyCSV(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("file is empty")
		}
		return err
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}
	for _, col := range []string{"username", "date"} {
		if !slices.Contains(header, col) {
			return fmt.Errorf("header is missing the %s column", col)
		}
	}

	for {
		if _, err := reader.Read(); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

func (m *Manager) release() {
	if err := m.lock.Release(); err != nil {
		logger.Error("Failed to release lock", "path", m.lock.Path(), "error", err)
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// copyFile copies a file from src to dst
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := destFile.ReadFrom(sourceFile); err != nil {
		return err
	}

	return destFile.Sync()
}
