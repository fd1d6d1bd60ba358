package validation

import (
	"errors"
	"strings"
	"testing"
	"time"

	werrors "github.com/julianstephens/wellcheck/internal/errors"
	"github.com/julianstephens/wellcheck/internal/models"
	"github.com/julianstephens/wellcheck/internal/score"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", s, err)
	}
	return d
}

func validEntry(t *testing.T) models.Entry {
	return models.Entry{
		Username:    "alice",
		Date:        day(t, "2026-10-19"),
		SleepHours:  7.5,
		ScreenTime:  4,
		StressLevel: 3,
		Mood:        models.MoodHappy,
	}
}

func hasIssue(result ValidationResult, typ IssueType, field string) bool {
	for _, issue := range result.Issues {
		if issue.Type == typ && (field == "" || issue.Field == field) {
			return true
		}
	}
	return false
}

func TestValidateEntry_Valid(t *testing.T) {
	result := New().ValidateEntry(validEntry(t))
	if result.HasIssues() {
		t.Fatalf("expected no issues, got:\n%s", result.FormatReport())
	}
	if err := result.Err(); err != nil {
		t.Errorf("Err() = %v, want nil", err)
	}
}

func TestValidateEntry_Issues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.Entry)
		typ    IssueType
		field  string
	}{
		{"blank username", func(e *models.Entry) { e.Username = "   " }, IssueMissingUsername, "username"},
		{"long username", func(e *models.Entry) { e.Username = strings.Repeat("a", 31) }, IssueUsernameTooLong, "username"},
		{"missing date", func(e *models.Entry) { e.Date = time.Time{} }, IssueMissingDate, "date"},
		{"sleep above max", func(e *models.Entry) { e.SleepHours = 12.5 }, IssueOutOfRange, "sleep_hours"},
		{"negative sleep", func(e *models.Entry) { e.SleepHours = -1 }, IssueOutOfRange, "sleep_hours"},
		{"sleep off step", func(e *models.Entry) { e.SleepHours = 7.25 }, IssueInvalidStep, "sleep_hours"},
		{"screen above max", func(e *models.Entry) { e.ScreenTime = 25 }, IssueOutOfRange, "screen_time"},
		{"stress above max", func(e *models.Entry) { e.StressLevel = 11 }, IssueOutOfRange, "stress_level"},
		{"unknown mood", func(e *models.Entry) { e.Mood = "Grumpy" }, IssueUnknownMood, "mood"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := validEntry(t)
			tt.mutate(&e)
			result := New().ValidateEntry(e)
			if !hasIssue(result, tt.typ, tt.field) {
				t.Fatalf("expected %s on %s, got:\n%s", tt.typ, tt.field, result.FormatReport())
			}
			if err := result.Err(); !errors.Is(err, werrors.ErrValidation) {
				t.Errorf("Err() = %v, want VALIDATION kind", err)
			}
		})
	}
}

func TestValidateEntry_ReportsEveryField(t *testing.T) {
	e := models.Entry{SleepHours: 13, ScreenTime: -2, StressLevel: -1, Mood: "meh"}
	result := New().ValidateEntry(e)
	if len(result.Issues) != 6 {
		t.Errorf("expected 6 issues, got %d:\n%s", len(result.Issues), result.FormatReport())
	}
}

func TestValidateEntry_MoodCaseInsensitive(t *testing.T) {
	e := validEntry(t)
	e.Mood = "tired"
	if result := New().ValidateEntry(e); result.HasIssues() {
		t.Errorf("lowercase mood should be accepted, got:\n%s", result.FormatReport())
	}
}

func TestValidateLog(t *testing.T) {
	today := day(t, "2026-10-19")
	good := validEntry(t)
	good.WellnessScore = score.ComputeScore(good.SleepHours, good.ScreenTime, good.StressLevel)

	stale := good
	stale.WellnessScore = 10

	undated := good
	undated.Username = "bob"
	undated.Date = time.Time{}

	future := good
	future.Username = "carol"
	future.Date = day(t, "2026-10-25")

	entries := []models.Entry{good, stale, undated, future}
	result := New().ValidateLog(entries, today)

	for _, typ := range []IssueType{IssueDuplicateEntry, IssueScoreMismatch, IssueUndatedEntry, IssueFutureDatedEntry} {
		if !hasIssue(result, typ, "") {
			t.Errorf("expected %s, got:\n%s", typ, result.FormatReport())
		}
	}
}

func TestParseDate(t *testing.T) {
	if _, err := ParseDate("2026-13-01"); err == nil {
		t.Error("expected error for invalid month")
	}
	d, err := ParseDate(" 2026-02-28 ")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if d.Hour() != 0 || d.Day() != 28 {
		t.Errorf("unexpected date %v", d)
	}
}
