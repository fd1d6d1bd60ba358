package models

import (
	"strings"
	"time"

	"github.com/julianstephens/wellcheck/internal/constants"
)

// Mood is the self-reported mood for a check-in
type Mood string

const (
	MoodHappy    Mood = "Happy"
	MoodTired    Mood = "Tired"
	MoodSad      Mood = "Sad"
	MoodAnxious  Mood = "Anxious"
	MoodStressed Mood = "Stressed"
)

// Moods returns the selectable moods in display order.
func Moods() []Mood {
	return []Mood{MoodHappy, MoodTired, MoodSad, MoodAnxious, MoodStressed}
}

// ParseMood matches s against the known moods case-insensitively.
func ParseMood(s string) (Mood, bool) {
	s = strings.TrimSpace(s)
	for _, m := range Moods() {
		if strings.EqualFold(string(m), s) {
			return m, true
		}
	}
	return Mood(s), false
}

// Entry is one user's wellness check-in for one calendar day
type Entry struct {
	Username      string    `json:"username"`
	Date          time.Time `json:"date"` // midnight local; zero means no date
	SleepHours    float64   `json:"sleep_hours"`
	ScreenTime    float64   `json:"screen_time"`
	StressLevel   int       `json:"stress_level"`
	Mood          Mood      `json:"mood"`
	WellnessScore int       `json:"wellness_score"`
	Tip           string    `json:"tip"`
	Journal       string    `json:"journal"`
}

// EntryKey identifies an entry in the log: at most one per user per day
type EntryKey struct {
	Username string
	Day      string // YYYY-MM-DD, empty when the entry has no date
}

// HasDate reports whether the entry carries a usable calendar date.
func (e Entry) HasDate() bool {
	return !e.Date.IsZero()
}

// Day returns the entry date as YYYY-MM-DD, or "" when missing.
func (e Entry) Day() string {
	if !e.HasDate() {
		return ""
	}
	return e.Date.Format(constants.DateFormat)
}

func (e Entry) Key() EntryKey {
	return EntryKey{Username: e.Username, Day: e.Day()}
}

// DateOnly truncates t to midnight in its own location.
func DateOnly(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SameDay reports whether a and b fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
