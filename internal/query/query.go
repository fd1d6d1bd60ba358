// Package query derives views of the wellness log: recent trends, per-user
// history, and leaderboards. Every function works on a loaded snapshot and
// takes "today" explicitly.
package query

import (
	"sort"
	"time"

	"github.com/julianstephens/wellcheck/internal/constants"
	"github.com/julianstephens/wellcheck/internal/models"
)

// windowStart returns the first day of an n-day window ending on today.
func windowStart(today time.Time, n int) time.Time {
	return models.DateOnly(today).AddDate(0, 0, -(n - 1))
}

func inRange(e models.Entry, from, to time.Time) bool {
	return e.HasDate() && !e.Date.Before(from) && !e.Date.After(to)
}

// LastNDays returns entries dated within the n days ending on today,
// oldest first, keeping at most the n most recent. An empty username
// matches every user.
func LastNDays(entries []models.Entry, n int, username string, today time.Time) []models.Entry {
	if n <= 0 {
		return []models.Entry{}
	}

	from, to := windowStart(today, n), models.DateOnly(today)
	out := make([]models.Entry, 0, n)
	for _, e := range entries {
		if username != "" && e.Username != username {
			continue
		}
		if inRange(e, from, to) {
			out = append(out, e)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	if len(out) > n {
		out = out[len(out)-n:]
	}
	return out
}

// HistoryForUser returns every entry of username, newest first. Entries
// without a date sort last.
func HistoryForUser(entries []models.Entry, username string) []models.Entry {
	out := []models.Entry{}
	for _, e := range entries {
		if e.Username == username {
			out = append(out, e)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.HasDate() != b.HasDate() {
			return a.HasDate()
		}
		return a.Date.After(b.Date)
	})
	return out
}

// InWindow reports whether e falls inside window as seen from today.
func InWindow(e models.Entry, window models.Window, today time.Time) bool {
	switch window {
	case models.WindowWeekly:
		return inRange(e, windowStart(today, constants.WeeklyWindowDays), models.DateOnly(today))
	default:
		return e.HasDate() && models.SameDay(e.Date, today)
	}
}

// Leaderboard ranks users by mean score over the window. Ties keep the order
// in which users first appear in entries.
func Leaderboard(entries []models.Entry, window models.Window, today time.Time) []models.LeaderboardRow {
	type group struct {
		total int
		count int
	}

	groups := map[string]*group{}
	var order []string
	for _, e := range entries {
		if !InWindow(e, window, today) {
			continue
		}
		g, ok := groups[e.Username]
		if !ok {
			g = &group{}
			groups[e.Username] = g
			order = append(order, e.Username)
		}
		g.total += e.WellnessScore
		g.count++
	}

	rows := make([]models.LeaderboardRow, 0, len(order))
	for _, name := range order {
		g := groups[name]
		rows = append(rows, models.LeaderboardRow{
			Username:  name,
			MeanScore: float64(g.total) / float64(g.count),
			Entries:   g.count,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].MeanScore > rows[j].MeanScore
	})
	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows
}

// TodayEntry returns username's entry for the calendar day of date.
func TodayEntry(entries []models.Entry, username string, date time.Time) (models.Entry, bool) {
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if e.Username == username && e.HasDate() && models.SameDay(e.Date, date) {
			return e, true
		}
	}
	return models.Entry{}, false
}

// Summary averages a user's metrics over a window.
type Summary struct {
	Entries    int
	MeanSleep  float64
	MeanScreen float64
	MeanStress float64
	MeanScore  float64
	BestScore  int
	WorstScore int
	// TopMood is the most frequent mood; the first to reach the top count wins ties.
	TopMood models.Mood
}

// WeeklySummary summarises username's last seven days.
func WeeklySummary(entries []models.Entry, username string, today time.Time) Summary {
	week := LastNDays(entries, constants.WeeklyWindowDays, username, today)

	var s Summary
	if len(week) == 0 {
		return s
	}

	moodCounts := map[models.Mood]int{}
	topCount := 0
	s.BestScore, s.WorstScore = week[0].WellnessScore, week[0].WellnessScore
	for _, e := range week {
		s.MeanSleep += e.SleepHours
		s.MeanScreen += e.ScreenTime
		s.MeanStress += float64(e.StressLevel)
		s.MeanScore += float64(e.WellnessScore)
		s.BestScore = max(s.BestScore, e.WellnessScore)
		s.WorstScore = min(s.WorstScore, e.WellnessScore)

		moodCounts[e.Mood]++
		if moodCounts[e.Mood] > topCount {
			topCount = moodCounts[e.Mood]
			s.TopMood = e.Mood
		}
	}

	n := float64(len(week))
	s.Entries = len(week)
	s.MeanSleep /= n
	s.MeanScreen /= n
	s.MeanStress /= n
	s.MeanScore /= n
	return s
}
