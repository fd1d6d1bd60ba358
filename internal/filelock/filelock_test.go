package filelock

import (
	"bufio"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/mitchellh/go-ps"
)

func TestAcquireRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv.lock")
	lock := New(path)

	if err := lock.Acquire(context.Background(), time.Second); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("lock file not created: %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}

	// Lock is reusable after release
	if err := lock.Acquire(context.Background(), time.Second); err != nil {
		t.Fatalf("second Acquire failed: %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("second Release failed: %v", err)
	}
}

func TestReleaseWithoutAcquire(t *testing.T) {
	lock := New(filepath.Join(t.TempDir(), "x.lock"))
	if err := lock.Release(); err != nil {
		t.Errorf("Release on unheld lock should be a no-op, got %v", err)
	}
}

func TestAcquireTimesOut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv.lock")
	holder := New(path)
	if err := holder.Acquire(context.Background(), time.Second); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer holder.Release()

	start := time.Now()
	err := New(path).Acquire(context.Background(), 150*time.Millisecond)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed < 150*time.Millisecond {
		t.Errorf("Acquire returned after %v, before the timeout", elapsed)
	}
}

func TestAcquireHonoursCancellation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv.lock")
	holder := New(path)
	if err := holder.Acquire(context.Background(), time.Second); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer holder.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := New(path).Acquire(ctx, 5*time.Second)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestAcquireSerialisesGoroutines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv.lock")

	var (
		wg      sync.WaitGroup
		active  int
		maxSeen int
		mu      sync.Mutex
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lock := New(path)
			if err := lock.Acquire(context.Background(), 5*time.Second); err != nil {
				t.Errorf("Acquire failed: %v", err)
				return
			}
			mu.Lock()
			active++
			if active > maxSeen {
				maxSeen = active
			}
			mu.Unlock()

			time.Sleep(5 * time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
			if err := lock.Release(); err != nil {
				t.Errorf("Release failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if maxSeen != 1 {
		t.Errorf("expected at most one holder at a time, saw %d", maxSeen)
	}
}

func TestHolderReportsCurrentProcess(t *testing.T) {
	lock := ForFile(filepath.Join(t.TempDir(), "wellness_data.csv"))
	if err := lock.Acquire(context.Background(), time.Second); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	info, err := lock.Holder()
	if err != nil {
		t.Fatalf("Holder failed: %v", err)
	}
	if info.PID != os.Getpid() {
		t.Errorf("Holder PID = %d, want %d", info.PID, os.Getpid())
	}
	if !info.Alive {
		t.Error("expected current process to be reported alive")
	}

	if err := lock.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	info, err = lock.Holder()
	if err != nil {
		t.Fatalf("Holder after release failed: %v", err)
	}
	if info.PID != 0 {
		t.Errorf("expected no holder after release, got PID %d", info.PID)
	}
}

func TestHolderDeadProcess(t *testing.T) {
	origFind := findProcessFunc
	defer func() { findProcessFunc = origFind }()
	findProcessFunc = func(int) (ps.Process, error) { return nil, nil }

	path := filepath.Join(t.TempDir(), "stale.lock")
	if err := os.WriteFile(path, []byte("424242\n"), 0600); err != nil {
		t.Fatal(err)
	}

	info, err := New(path).Holder()
	if err != nil {
		t.Fatalf("Holder failed: %v", err)
	}
	if info.PID != 424242 || info.Alive {
		t.Errorf("Holder = %+v, want dead pid 424242", info)
	}
}

func TestHolderMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.lock")
	if err := os.WriteFile(path, []byte("not-a-pid"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := New(path).Holder(); err == nil {
		t.Error("expected error for malformed lock file")
	}
}

// TestAcquireAcrossProcesses holds the lock in a helper subprocess and
// verifies this process cannot take it until the helper exits.
func TestAcquireAcrossProcesses(t *testing.T) {
	if p := os.Getenv("GO_TEST_LOCK_HELPER"); p != "" {
		lock := New(p)
		if err := lock.Acquire(context.Background(), 5*time.Second); err != nil {
			os.Exit(2)
		}
		os.Stdout.WriteString("ready\n")
		// Hold until the parent closes stdin
		bufio.NewReader(os.Stdin).ReadString('\n')
		lock.Release()
		os.Exit(0)
	}

	path := filepath.Join(t.TempDir(), "shared.lock")
	cmd := exec.Command(os.Args[0], "-test.run=TestAcquireAcrossProcesses")
	cmd.Env = append(os.Environ(), "GO_TEST_LOCK_HELPER="+path)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		t.Fatal(err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		t.Fatal(err)
	}
	if err := cmd.Start(); err != nil {
		t.Fatalf("failed to start helper: %v", err)
	}

	line, err := bufio.NewReader(stdout).ReadString('\n')
	if err != nil || line != "ready\n" {
		stdin.Close()
		cmd.Wait()
		t.Fatalf("helper did not acquire lock: %q, %v", line, err)
	}

	if err := New(path).Acquire(context.Background(), 200*time.Millisecond); !errors.Is(err, ErrTimeout) {
		t.Errorf("expected ErrTimeout while helper holds lock, got %v", err)
	}

	info, err := New(path).Holder()
	if err != nil {
		t.Errorf("Holder failed: %v", err)
	} else if info.PID != cmd.Process.Pid {
		t.Errorf("Holder PID = %d, want helper pid %d", info.PID, cmd.Process.Pid)
	}

	stdin.Close()
	if err := cmd.Wait(); err != nil {
		t.Fatalf("helper exited with error: %v", err)
	}

	lock := New(path)
	if err := lock.Acquire(context.Background(), time.Second); err != nil {
		t.Fatalf("Acquire after helper exit failed: %v", err)
	}
	lock.Release()
}
