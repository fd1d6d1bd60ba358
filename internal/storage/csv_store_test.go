package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/julianstephens/wellcheck/internal/models"
)

const testHeader = "username,date,sleep_hours,screen_time,stress_level,mood,wellness_score,tip,journal\n"

func setupCSVStore(t *testing.T, content string) *CSVStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wellness_data.csv")
	if content != "" {
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatalf("failed to seed data file: %v", err)
		}
	}
	return NewCSVStore(path, Options{})
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}

func TestCSVStore_LoadCreatesHeaderOnlyFile(t *testing.T) {
	store := setupCSVStore(t, "")

	entries, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no entries, got %d", len(entries))
	}
	if got := readFile(t, store.Path()); got != testHeader {
		t.Errorf("file content = %q, want header only", got)
	}
}

func TestCSVStore_UnreadablePathLoadsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wellness_data.csv")
	if err := os.Mkdir(path, 0700); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	store := NewCSVStore(path, Options{})

	entries, err := store.Load()
	if err != nil {
		t.Fatalf("Load should not fail on an unreadable log: %v", err)
	}
	if entries == nil || len(entries) != 0 {
		t.Errorf("expected empty non-nil log, got %#v", entries)
	}
}

func TestCSVStore_InitCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "wellness_data.csv")
	store := NewCSVStore(path, Options{})
	if err := store.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if got := readFile(t, path); got != testHeader {
		t.Errorf("file content = %q, want header only", got)
	}
}

func TestCSVStore_FileFormat(t *testing.T) {
	store := setupCSVStore(t, "")
	e := newEntry(t, "alice", "2026-10-18")
	e.Journal = "long day, but \"ok\""
	if err := store.Append(e); err != nil {
		t.Fatalf("Append: %v", err)
	}

	want := testHeader + "alice,2026-10-18,8.0,3.0,0,Happy,100,,\"long day, but \"\"ok\"\"\"\n"
	if got := readFile(t, store.Path()); got != want {
		t.Errorf("file content:\n%q\nwant:\n%q", got, want)
	}
}

func TestCSVStore_DuplicateRowsLastWins(t *testing.T) {
	store := setupCSVStore(t, testHeader+
		"alice,2026-10-17,8.0,3.0,0,Happy,100,,first\n"+
		"bob,2026-10-17,6.0,4.0,2,Tired,70,,\n"+
		"alice,2026-10-17,7.0,2.0,1,Sad,92,,second\n")

	entries, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries after dedup, got %d", len(entries))
	}
	if entries[0].Username != "bob" {
		t.Errorf("expected bob first, got %s", entries[0].Username)
	}
	if entries[1].Journal != "second" || entries[1].SleepHours != 7 {
		t.Errorf("expected the later alice row to win, got %+v", entries[1])
	}
}

func TestCSVStore_CoercesBadFields(t *testing.T) {
	store := setupCSVStore(t, testHeader+
		"alice,2026-10-17,abc,-3,99,Happy,xx,,\n"+
		"bob,not-a-date,7.0,2.0,3,Grumpy,80,,kept\n"+
		"carol,2026-10-17,13,30,5,Sad,150,,\n")

	entries, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}

	alice := entries[0]
	if alice.SleepHours != 0 || alice.ScreenTime != 0 || alice.StressLevel != 0 || alice.WellnessScore != 0 {
		t.Errorf("alice numerics not coerced to 0: %+v", alice)
	}

	bob := entries[1]
	if bob.HasDate() {
		t.Errorf("bob should have no date, got %v", bob.Date)
	}
	if bob.Mood != "Grumpy" || bob.Journal != "kept" {
		t.Errorf("bob text fields not kept verbatim: %+v", bob)
	}

	carol := entries[2]
	if carol.SleepHours != 0 || carol.ScreenTime != 0 || carol.WellnessScore != 0 {
		t.Errorf("carol out-of-range numerics not coerced: %+v", carol)
	}
	if carol.StressLevel != 5 {
		t.Errorf("carol stress = %d, want 5", carol.StressLevel)
	}
}

func TestCSVStore_ToleratesReorderedAndMissingColumns(t *testing.T) {
	store := setupCSVStore(t, "\ufeffdate,username,mood,sleep_hours\n2026-10-17,alice,Happy,6.5\n")

	entries, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	e := entries[0]
	if e.Username != "alice" || e.Day() != "2026-10-17" || e.SleepHours != 6.5 {
		t.Errorf("unexpected entry %+v", e)
	}
	if e.Tip != "" || e.Journal != "" {
		t.Errorf("missing columns should read as empty: %+v", e)
	}
}

func TestCSVStore_CorruptFileLoadsEmpty(t *testing.T) {
	store := setupCSVStore(t, "\x00\x01garbage that is not a wellness log\nmore garbage\n")

	entries, err := store.Load()
	if err != nil {
		t.Fatalf("Load should not fail on corrupt data: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected empty log, got %d entries", len(entries))
	}
}

func TestCSVStore_AppendMovesCorruptFileAside(t *testing.T) {
	const garbage = "\x00\x01garbage that is not a wellness log\n"
	store := setupCSVStore(t, garbage)

	if err := store.Append(newEntry(t, "alice", "2026-10-18")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	entries, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(entries) != 1 || entries[0].Username != "alice" {
		t.Fatalf("expected the new entry only, got %+v", entries)
	}

	matches, err := filepath.Glob(store.Path() + ".corrupt-*")
	if err != nil || len(matches) != 1 {
		t.Fatalf("expected one quarantined file, got %v (%v)", matches, err)
	}
	if got := readFile(t, matches[0]); got != garbage {
		t.Errorf("quarantined content = %q, want original bytes", got)
	}
}

func TestCSVStore_ClearAllLeavesHeader(t *testing.T) {
	store := setupCSVStore(t, "")
	if err := store.Append(newEntry(t, "alice", "2026-10-18")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := store.ClearAll(); err != nil {
		t.Fatalf("ClearAll: %v", err)
	}
	if got := readFile(t, store.Path()); got != testHeader {
		t.Errorf("file content = %q, want header only", got)
	}
}

func TestCSVStore_NoTempFilesLeftBehind(t *testing.T) {
	store := setupCSVStore(t, "")
	for _, d := range []string{"2026-10-16", "2026-10-17", "2026-10-18"} {
		if err := store.Append(newEntry(t, "alice", d)); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	dirEntries, err := os.ReadDir(filepath.Dir(store.Path()))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	for _, de := range dirEntries {
		if strings.Contains(de.Name(), ".tmp-") {
			t.Errorf("temp file left behind: %s", de.Name())
		}
	}
}

func TestFormatHours(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.0"},
		{8, "8.0"},
		{7.5, "7.5"},
		{12, "12.0"},
	}
	for _, tt := range tests {
		if got := formatHours(tt.in); got != tt.want {
			t.Errorf("formatHours(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseDay(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2026-10-18", "2026-10-18", true},
		{" 2026-10-18 ", "2026-10-18", true},
		{"2026-10-18 14:30:00", "2026-10-18", true},
		{"2026-10-18T14:30:00", "2026-10-18", true},
		{"18/10/2026", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := parseDay(tt.in)
		if ok != tt.ok {
			t.Errorf("parseDay(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			continue
		}
		if ok && (models.Entry{Date: got}).Day() != tt.want {
			t.Errorf("parseDay(%q) = %v, want %s", tt.in, got, tt.want)
		}
	}
}
