package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/wellcheck/internal/constants"
	"github.com/julianstephens/wellcheck/internal/models"
	"github.com/julianstephens/wellcheck/internal/score"
)

// Date layouts accepted when reading; the first is the one written.
var dateLayouts = []string{
	constants.DateFormat,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

func parseDay(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return models.DateOnly(t), true
		}
	}
	return time.Time{}, false
}

func parseHours(s string, max float64) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 || v > max {
		return 0, false
	}
	return v, true
}

// parseBoundedInt accepts "7" and "7.0" alike, truncating toward zero.
func parseBoundedInt(s string, min, max int) (int, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	n := int(v)
	if n < min || n > max {
		return 0, false
	}
	return n, true
}

func formatHours(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// loadStats counts what decoding had to repair.
type loadStats struct {
	Rows       int
	Coerced    int
	Undated    int
	Duplicates int
}

// columnIndex maps header names to positions; missing columns read as "".
type columnIndex map[string]int

func (c columnIndex) get(record []string, name string) (string, bool) {
	i, ok := c[name]
	if !ok || i >= len(record) {
		return "", false
	}
	return record[i], true
}

// decodeEntries parses a wellness log. Row-level damage is repaired in
// place; an error is returned only when the file as a whole is unreadable.
func decodeEntries(r io.Reader) ([]models.Entry, loadStats, error) {
	var stats loadStats

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return []models.Entry{}, stats, nil
		}
		return nil, stats, fmt.Errorf("failed to read header: %w", err)
	}

	cols := columnIndex{}
	for i, name := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	if _, ok := cols["username"]; !ok {
		return nil, stats, fmt.Errorf("header has no username column: %v", header)
	}

	var entries []models.Entry
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("failed to read row %d: %w", stats.Rows+1, err)
		}
		stats.Rows++
		entries = append(entries, decodeRecord(cols, record, &stats))
	}

	deduped := dedupLastWins(entries)
	stats.Duplicates = len(entries) - len(deduped)
	return deduped, stats, nil
}

func decodeRecord(cols columnIndex, record []string, stats *loadStats) models.Entry {
	var e models.Entry

	e.Username, _ = cols.get(record, "username")

	raw, _ := cols.get(record, "date")
	if d, ok := parseDay(raw); ok {
		e.Date = d
	} else {
		stats.Undated++
	}

	coerce := func(ok bool) {
		if !ok {
			stats.Coerced++
		}
	}

	var ok bool
	raw, _ = cols.get(record, "sleep_hours")
	e.SleepHours, ok = parseHours(raw, constants.MaxSleepHours)
	coerce(ok)
	raw, _ = cols.get(record, "screen_time")
	e.ScreenTime, ok = parseHours(raw, constants.MaxScreenTime)
	coerce(ok)
	raw, _ = cols.get(record, "stress_level")
	e.StressLevel, ok = parseBoundedInt(raw, constants.MinStressLevel, constants.MaxStressLevel)
	coerce(ok)
	raw, _ = cols.get(record, "wellness_score")
	e.WellnessScore, ok = parseBoundedInt(raw, constants.MinScore, constants.MaxScore)
	coerce(ok)

	mood, _ := cols.get(record, "mood")
	e.Mood = models.Mood(mood)
	e.Tip, _ = cols.get(record, "tip")
	e.Journal, _ = cols.get(record, "journal")

	return e
}

// dedupLastWins keeps the last entry for each (username, date) key, in the
// position of that last occurrence.
func dedupLastWins(entries []models.Entry) []models.Entry {
	seen := make(map[models.EntryKey]bool, len(entries))
	kept := make([]models.Entry, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		key := entries[i].Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		kept = append(kept, entries[i])
	}
	for i, j := 0, len(kept)-1; i < j; i, j = i+1, j-1 {
		kept[i], kept[j] = kept[j], kept[i]
	}
	return kept
}

func encodeEntries(w io.Writer, entries []models.Entry) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(constants.Columns); err != nil {
		return err
	}
	for _, e := range entries {
		record := []string{
			e.Username,
			e.Day(),
			formatHours(e.SleepHours),
			formatHours(e.ScreenTime),
			strconv.Itoa(e.StressLevel),
			string(e.Mood),
			strconv.Itoa(e.WellnessScore),
			e.Tip,
			e.Journal,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// prepareEntry normalises a submission before it is persisted: the date
// becomes a pure calendar date and the derived fields are recomputed.
func prepareEntry(e models.Entry) models.Entry {
	e.Username = strings.TrimSpace(e.Username)
	e.Date = models.DateOnly(e.Date)
	if m, ok := models.ParseMood(string(e.Mood)); ok {
		e.Mood = m
	}
	e.WellnessScore = score.ComputeScore(e.SleepHours, e.ScreenTime, e.StressLevel)
	e.Tip = score.GenerateTip(e.SleepHours, e.ScreenTime, e.StressLevel, string(e.Mood))
	return e
}
