package validation

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/julianstephens/wellcheck/internal/constants"
	werrors "github.com/julianstephens/wellcheck/internal/errors"
	"github.com/julianstephens/wellcheck/internal/models"
	"github.com/julianstephens/wellcheck/internal/score"
)

// IssueType represents the type of validation issue
type IssueType string

const (
	IssueMissingUsername  IssueType = "missing_username"
	IssueUsernameTooLong  IssueType = "username_too_long"
	IssueMissingDate      IssueType = "missing_date"
	IssueOutOfRange       IssueType = "out_of_range"
	IssueInvalidStep      IssueType = "invalid_step"
	IssueUnknownMood      IssueType = "unknown_mood"
	IssueDuplicateEntry   IssueType = "duplicate_entry"
	IssueScoreMismatch    IssueType = "score_mismatch"
	IssueUndatedEntry     IssueType = "undated_entry"
	IssueFutureDatedEntry IssueType = "future_dated_entry"
)

// Issue represents a single problem found in an entry or in the log
type Issue struct {
	Type        IssueType
	Field       string
	Description string
	Username    string
	Date        string // YYYY-MM-DD format (if applicable)
}

// ValidationResult contains all detected issues
type ValidationResult struct {
	Issues []Issue
}

// HasIssues returns true if there are any issues
func (vr *ValidationResult) HasIssues() bool {
	return len(vr.Issues) > 0
}

// FormatReport returns a human-readable report of all issues
func (vr *ValidationResult) FormatReport() string {
	if !vr.HasIssues() {
		return "No issues detected."
	}

	report := "Issues detected:\n"
	for _, issue := range vr.Issues {
		report += fmt.Sprintf("- %s\n", issue.Description)
	}
	return report
}

// Err converts the result into a VALIDATION error, or nil when clean.
func (vr *ValidationResult) Err() error {
	if !vr.HasIssues() {
		return nil
	}
	msgs := make([]string, 0, len(vr.Issues))
	for _, issue := range vr.Issues {
		msgs = append(msgs, issue.Description)
	}
	return werrors.Validation("validate entry", "%s", strings.Join(msgs, "; "))
}

// Validator checks check-ins before they reach the store
type Validator struct{}

// New creates a new Validator
func New() *Validator {
	return &Validator{}
}

// ParseDate parses a YYYY-MM-DD date in the local timezone.
func ParseDate(s string) (time.Time, error) {
	d, err := time.ParseInLocation(constants.DateFormat, strings.TrimSpace(s), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format: %s (expected YYYY-MM-DD)", s)
	}
	return d, nil
}

// ValidateEntry checks the caller-supplied fields of a check-in. Derived
// fields (score, tip) are not inspected since the store recomputes them.
func (v *Validator) ValidateEntry(e models.Entry) ValidationResult {
	var result ValidationResult
	add := func(t IssueType, field, format string, args ...interface{}) {
		result.Issues = append(result.Issues, Issue{
			Type:        t,
			Field:       field,
			Description: fmt.Sprintf(format, args...),
			Username:    e.Username,
			Date:        e.Day(),
		})
	}

	name := strings.TrimSpace(e.Username)
	if name == "" {
		add(IssueMissingUsername, "username", "username is required")
	} else if utf8.RuneCountInString(name) > constants.MaxUsernameLen {
		add(IssueUsernameTooLong, "username", "username must be at most %d characters", constants.MaxUsernameLen)
	}

	if !e.HasDate() {
		add(IssueMissingDate, "date", "date is required")
	}

	checkHours := func(field string, value, lo, hi float64) {
		if math.IsNaN(value) || value < lo || value > hi {
			add(IssueOutOfRange, field, "%s must be between %g and %g (got %g)", field, lo, hi, value)
			return
		}
		if !isStep(value, constants.HoursStep) {
			add(IssueInvalidStep, field, "%s must be in steps of %g (got %g)", field, constants.HoursStep, value)
		}
	}
	checkHours("sleep_hours", e.SleepHours, constants.MinSleepHours, constants.MaxSleepHours)
	checkHours("screen_time", e.ScreenTime, constants.MinScreenTime, constants.MaxScreenTime)

	if e.StressLevel < constants.MinStressLevel || e.StressLevel > constants.MaxStressLevel {
		add(IssueOutOfRange, "stress_level", "stress_level must be between %d and %d (got %d)",
			constants.MinStressLevel, constants.MaxStressLevel, e.StressLevel)
	}

	if _, ok := models.ParseMood(string(e.Mood)); !ok {
		add(IssueUnknownMood, "mood", "unknown mood %q", e.Mood)
	}

	return result
}

// ValidateLog inspects a loaded log for inconsistencies that load-time
// normalisation tolerates but that are worth reporting.
func (v *Validator) ValidateLog(entries []models.Entry, today time.Time) ValidationResult {
	var result ValidationResult
	seen := make(map[models.EntryKey]bool)

	for _, e := range entries {
		key := e.Key()
		if seen[key] {
			result.Issues = append(result.Issues, Issue{
				Type:        IssueDuplicateEntry,
				Description: fmt.Sprintf("duplicate entry for %s on %s", e.Username, key.Day),
				Username:    e.Username,
				Date:        key.Day,
			})
		}
		seen[key] = true

		if !e.HasDate() {
			result.Issues = append(result.Issues, Issue{
				Type:        IssueUndatedEntry,
				Field:       "date",
				Description: fmt.Sprintf("entry for %s has no readable date", e.Username),
				Username:    e.Username,
			})
			continue
		}

		if e.Date.After(models.DateOnly(today)) {
			result.Issues = append(result.Issues, Issue{
				Type:        IssueFutureDatedEntry,
				Field:       "date",
				Description: fmt.Sprintf("entry for %s is dated in the future (%s)", e.Username, key.Day),
				Username:    e.Username,
				Date:        key.Day,
			})
		}

		if want := score.ComputeScore(e.SleepHours, e.ScreenTime, e.StressLevel); want != e.WellnessScore {
			result.Issues = append(result.Issues, Issue{
				Type:        IssueScoreMismatch,
				Field:       "wellness_score",
				Description: fmt.Sprintf("stored score %d for %s on %s does not match computed score %d", e.WellnessScore, e.Username, key.Day, want),
				Username:    e.Username,
				Date:        key.Day,
			})
		}
	}

	return result
}

func isStep(value, step float64) bool {
	q := value / step
	return math.Abs(q-math.Round(q)) < 1e-9
}
