// Package filelock provides an exclusive, timeout-bounded lock on a sidecar
// file. It serialises writers across processes (OS advisory lock) and across
// goroutines of the same process (a mutex per lock path).
package filelock

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/julianstephens/wellcheck/internal/constants"
)

// ErrTimeout is returned when the lock could not be acquired in time.
var ErrTimeout = errors.New("timed out waiting for lock")

var findProcessFunc = ps.FindProcess

var (
	registryMu sync.Mutex
	registry   = map[string]*sync.Mutex{}
)

func processMutex(path string) *sync.Mutex {
	key := path
	if abs, err := filepath.Abs(path); err == nil {
		key = abs
	}

	registryMu.Lock()
	defer registryMu.Unlock()
	mu, ok := registry[key]
	if !ok {
		mu = &sync.Mutex{}
		registry[key] = mu
	}
	return mu
}

// Lock is an exclusive lock backed by the file at path.
type Lock struct {
	path string
	mu   *sync.Mutex
	f    *os.File // set only while held
}

// New returns a lock on path. The file is created on first acquisition and
// is never removed.
func New(path string) *Lock {
	return &Lock{
		path: path,
		mu:   processMutex(path),
	}
}

// ForFile returns the sidecar lock guarding dataPath ("<dataPath>.lock").
func ForFile(dataPath string) *Lock {
	return New(dataPath + constants.LockFileSuffix)
}

func (l *Lock) Path() string {
	return l.path
}

// Acquire blocks until the lock is held, the timeout elapses (ErrTimeout),
// or ctx is cancelled.
func (l *Lock) Acquire(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(constants.LockPollInterval)
	defer ticker.Stop()

	for {
		ok, err := l.tryAcquire()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}

		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("%w: %s after %s", ErrTimeout, l.path, timeout)
			}
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (l *Lock) tryAcquire() (bool, error) {
	if !l.mu.TryLock() {
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0700); err != nil {
		l.mu.Unlock()
		return false, fmt.Errorf("failed to create lock directory: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		l.mu.Unlock()
		return false, fmt.Errorf("failed to open lock file: %w", err)
	}

	locked, err := tryLockFile(f)
	if err != nil || !locked {
		f.Close()
		l.mu.Unlock()
		if err != nil {
			return false, fmt.Errorf("failed to lock %s: %w", l.path, err)
		}
		return false, nil
	}

	l.f = f
	// Holder pid is informational only; a failed write does not void the lock
	_ = f.Truncate(0)
	_, _ = f.WriteAt([]byte(strconv.Itoa(os.Getpid())+"\n"), 0)
	return true, nil
}

// Release drops the lock. Releasing a lock that is not held is a no-op.
func (l *Lock) Release() error {
	if l.f == nil {
		return nil
	}
	f := l.f
	l.f = nil
	defer l.mu.Unlock()

	_ = f.Truncate(0)
	unlockErr := unlockFile(f)
	closeErr := f.Close()
	if unlockErr != nil {
		return fmt.Errorf("failed to unlock %s: %w", l.path, unlockErr)
	}
	return closeErr
}

// HolderInfo describes the process recorded in the lock file.
type HolderInfo struct {
	PID        int
	Executable string
	Alive      bool
}

// Holder reports the process that last recorded itself in the lock file.
// A zero PID means the lock is not currently held.
func (l *Lock) Holder() (HolderInfo, error) {
	content, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return HolderInfo{}, nil
		}
		return HolderInfo{}, fmt.Errorf("failed to read lock file: %w", err)
	}

	content = bytes.TrimSpace(content)
	if len(content) == 0 {
		return HolderInfo{}, nil
	}

	pid, err := strconv.Atoi(string(content))
	if err != nil {
		return HolderInfo{}, fmt.Errorf("lock file is malformed: %q", content)
	}

	info := HolderInfo{PID: pid}
	process, err := findProcessFunc(pid)
	if err == nil && process != nil {
		info.Alive = true
		info.Executable = process.Executable()
	}
	return info, nil
}
