package storage

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	werrors "github.com/julianstephens/wellcheck/internal/errors"
	"github.com/julianstephens/wellcheck/internal/filelock"
	"github.com/julianstephens/wellcheck/internal/models"
)

var backends = []struct {
	name string
	file string
}{
	{"csv", "wellness_data.csv"},
	{"sqlite", "wellness.db"},
}

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		t.Fatalf("bad test date %q: %v", s, err)
	}
	return d
}

func newEntry(t *testing.T, username, date string) models.Entry {
	return models.Entry{
		Username:    username,
		Date:        day(t, date),
		SleepHours:  8,
		ScreenTime:  3,
		StressLevel: 0,
		Mood:        models.MoodHappy,
		Journal:     "feeling good",
	}
}

func openStore(t *testing.T, file string, opts Options) Provider {
	t.Helper()
	store := Open(filepath.Join(t.TempDir(), file), opts)
	t.Cleanup(func() { store.Close() })
	return store
}

func forEachBackend(t *testing.T, fn func(t *testing.T, store Provider)) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			fn(t, openStore(t, b.file, Options{}))
		})
	}
}

func TestOpen_SelectsBackend(t *testing.T) {
	tests := []struct {
		path   string
		sqlite bool
	}{
		{"data.csv", false},
		{"data", false},
		{"data.db", true},
		{"data.SQLITE", true},
		{"data.sqlite3", true},
	}
	for _, tt := range tests {
		store := Open(tt.path, Options{})
		_, isSQLite := store.(*SQLiteStore)
		if isSQLite != tt.sqlite {
			t.Errorf("Open(%q): sqlite=%v, want %v", tt.path, isSQLite, tt.sqlite)
		}
	}
}

func TestStore_LoadEmpty(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store Provider) {
		entries, err := store.Load()
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if len(entries) != 0 {
			t.Errorf("expected empty log, got %d entries", len(entries))
		}
	})
}

func TestStore_InitTwice(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store Provider) {
		if err := store.Init(); err != nil {
			t.Fatalf("first Init: %v", err)
		}
		if err := store.Init(); err == nil {
			t.Error("second Init should fail")
		}
	})
}

func TestStore_AppendRecomputesDerivedFields(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store Provider) {
		e := newEntry(t, "  alice  ", "2026-10-18")
		e.Date = e.Date.Add(15 * time.Hour)
		e.SleepHours = 5
		e.ScreenTime = 9
		e.StressLevel = 8
		e.Mood = "tired"
		e.WellnessScore = 99
		e.Tip = "ignored"

		if err := store.Append(e); err != nil {
			t.Fatalf("Append: %v", err)
		}

		entries, err := store.Load()
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if len(entries) != 1 {
			t.Fatalf("expected 1 entry, got %d", len(entries))
		}
		got := entries[0]
		if got.Username != "alice" {
			t.Errorf("username = %q, want trimmed", got.Username)
		}
		if got.Day() != "2026-10-18" || got.Date.Hour() != 0 {
			t.Errorf("date = %v, want midnight 2026-10-18", got.Date)
		}
		if got.Mood != models.MoodTired {
			t.Errorf("mood = %q, want canonical %q", got.Mood, models.MoodTired)
		}
		// sleep 25 + stress 6 + screen 10
		if got.WellnessScore != 41 {
			t.Errorf("score = %d, want 41", got.WellnessScore)
		}
		want := "🛌 Try sleeping 7–8 hours. 📱 Too much screen time! Reduce it. 😣 High stress! Try breathing exercises. 💤 Take a power nap."
		if got.Tip != want {
			t.Errorf("tip = %q, want %q", got.Tip, want)
		}
		if got.Journal != "feeling good" {
			t.Errorf("journal = %q", got.Journal)
		}
	})
}

func TestStore_HalfHoursRoundTrip(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store Provider) {
		e := newEntry(t, "alice", "2026-10-18")
		e.SleepHours = 7.5
		e.ScreenTime = 0.5
		if err := store.Append(e); err != nil {
			t.Fatalf("Append: %v", err)
		}
		entries, err := store.Load()
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if entries[0].SleepHours != 7.5 || entries[0].ScreenTime != 0.5 {
			t.Errorf("hours = %v/%v, want 7.5/0.5", entries[0].SleepHours, entries[0].ScreenTime)
		}
	})
}

func TestStore_Conflict(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store Provider) {
		if err := store.Append(newEntry(t, "alice", "2026-10-18")); err != nil {
			t.Fatalf("first Append: %v", err)
		}

		dup := newEntry(t, "alice", "2026-10-18")
		dup.Journal = "second try"
		err := store.Append(dup)
		if !errors.Is(err, werrors.ErrConflict) {
			t.Fatalf("expected CONFLICT, got %v", err)
		}

		entries, err := store.Load()
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if len(entries) != 1 {
			t.Fatalf("expected log size 1 after conflict, got %d", len(entries))
		}
		if entries[0].Journal != "feeling good" {
			t.Errorf("original entry was modified: %q", entries[0].Journal)
		}
	})
}

func TestStore_SameUserDifferentDates(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store Provider) {
		for _, d := range []string{"2026-10-17", "2026-10-18"} {
			if err := store.Append(newEntry(t, "alice", d)); err != nil {
				t.Fatalf("Append %s: %v", d, err)
			}
		}
		if err := store.Append(newEntry(t, "bob", "2026-10-18")); err != nil {
			t.Fatalf("Append bob: %v", err)
		}

		entries, err := store.Load()
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if len(entries) != 3 {
			t.Fatalf("expected 3 entries, got %d", len(entries))
		}
		if entries[0].Day() != "2026-10-17" || entries[2].Username != "bob" {
			t.Errorf("entries not in insertion order: %+v", entries)
		}
	})
}

func TestStore_ValidationRejected(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store Provider) {
		e := newEntry(t, "alice", "2026-10-18")
		e.StressLevel = 11
		if err := store.Append(e); !errors.Is(err, werrors.ErrValidation) {
			t.Fatalf("expected VALIDATION, got %v", err)
		}
		entries, _ := store.Load()
		if len(entries) != 0 {
			t.Errorf("invalid entry was persisted")
		}
	})
}

func TestStore_HasEntry(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store Provider) {
		if err := store.Append(newEntry(t, "alice", "2026-10-18")); err != nil {
			t.Fatalf("Append: %v", err)
		}

		tests := []struct {
			user string
			date string
			want bool
		}{
			{"alice", "2026-10-18", true},
			{" alice ", "2026-10-18", true},
			{"alice", "2026-10-19", false},
			{"Alice", "2026-10-18", false},
			{"bob", "2026-10-18", false},
		}
		for _, tt := range tests {
			got, err := store.HasEntry(tt.user, day(t, tt.date).Add(9*time.Hour))
			if err != nil {
				t.Fatalf("HasEntry: %v", err)
			}
			if got != tt.want {
				t.Errorf("HasEntry(%q, %s) = %v, want %v", tt.user, tt.date, got, tt.want)
			}
		}
	})
}

func TestStore_ClearAll(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store Provider) {
		for _, u := range []string{"alice", "bob"} {
			if err := store.Append(newEntry(t, u, "2026-10-18")); err != nil {
				t.Fatalf("Append: %v", err)
			}
		}
		if err := store.ClearAll(); err != nil {
			t.Fatalf("ClearAll: %v", err)
		}

		entries, err := store.Load()
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if len(entries) != 0 {
			t.Errorf("expected empty log after ClearAll, got %d", len(entries))
		}

		if err := store.Append(newEntry(t, "alice", "2026-10-18")); err != nil {
			t.Errorf("Append after ClearAll: %v", err)
		}
	})
}

func TestStore_ConcurrentAppendsDistinctUsers(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store Provider) {
		const writers = 8
		pending := make([]models.Entry, writers)
		for i := range pending {
			pending[i] = newEntry(t, fmt.Sprintf("user%d", i), "2026-10-18")
		}

		var g errgroup.Group
		for _, e := range pending {
			g.Go(func() error {
				return store.Append(e)
			})
		}
		if err := g.Wait(); err != nil {
			t.Fatalf("concurrent Append: %v", err)
		}

		entries, err := store.Load()
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		if len(entries) != writers {
			t.Errorf("expected %d entries, got %d", writers, len(entries))
		}
	})
}

func TestStore_ConcurrentAppendsSameKey(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store Provider) {
		entry := newEntry(t, "alice", "2026-10-18")

		var saved, conflicts atomic.Int32
		var g errgroup.Group
		for i := 0; i < 6; i++ {
			g.Go(func() error {
				err := store.Append(entry)
				switch {
				case err == nil:
					saved.Add(1)
				case errors.Is(err, werrors.ErrConflict):
					conflicts.Add(1)
				default:
					return err
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if saved.Load() != 1 || conflicts.Load() != 5 {
			t.Errorf("saved=%d conflicts=%d, want 1/5", saved.Load(), conflicts.Load())
		}
	})
}

func TestStore_LockTimeout(t *testing.T) {
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			store := openStore(t, b.file, Options{LockTimeout: 100 * time.Millisecond})

			holder := filelock.ForFile(store.Path())
			if err := holder.Acquire(t.Context(), time.Second); err != nil {
				t.Fatalf("Acquire: %v", err)
			}
			defer holder.Release()

			err := store.Append(newEntry(t, "alice", "2026-10-18"))
			if !errors.Is(err, werrors.ErrIO) {
				t.Fatalf("expected IO_ERROR, got %v", err)
			}
			if !errors.Is(err, filelock.ErrTimeout) {
				t.Errorf("expected lock timeout cause, got %v", err)
			}

			if err := store.ClearAll(); !errors.Is(err, werrors.ErrIO) {
				t.Errorf("ClearAll: expected IO_ERROR, got %v", err)
			}
		})
	}
}
