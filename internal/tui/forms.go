package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/wellcheck/internal/constants"
	"github.com/julianstephens/wellcheck/internal/models"
	"github.com/julianstephens/wellcheck/internal/validation"
)

type LoginFormModel struct {
	Username string
	Date     string
}

type CheckInFormModel struct {
	Sleep   string
	Screen  string
	Stress  int
	Mood    models.Mood
	Journal string
}

// NewCheckInFormModel returns a form prefilled with 8h sleep, 3h screen
// time and stress 5.
func NewCheckInFormModel() *CheckInFormModel {
	return &CheckInFormModel{
		Sleep:  "8.0",
		Screen: "3.0",
		Stress: 5,
		Mood:   models.MoodHappy,
	}
}

// Entry converts the form into a check-in for username on date. Derived
// fields are left for the store to compute.
func (f *CheckInFormModel) Entry(username string, date time.Time) (models.Entry, error) {
	sleep, err := parseHalfHours(f.Sleep, constants.MaxSleepHours)
	if err != nil {
		return models.Entry{}, fmt.Errorf("sleep hours: %w", err)
	}
	screen, err := parseHalfHours(f.Screen, constants.MaxScreenTime)
	if err != nil {
		return models.Entry{}, fmt.Errorf("screen time: %w", err)
	}
	return models.Entry{
		Username:    username,
		Date:        models.DateOnly(date),
		SleepHours:  sleep,
		ScreenTime:  screen,
		StressLevel: f.Stress,
		Mood:        f.Mood,
		Journal:     strings.TrimSpace(f.Journal),
	}, nil
}

func parseHalfHours(s string, max float64) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("must be a number")
	}
	if v < 0 || v > max {
		return 0, fmt.Errorf("must be between 0 and %g", max)
	}
	if v*2 != float64(int(v*2)) {
		return 0, fmt.Errorf("must be in steps of %g", constants.HoursStep)
	}
	return v, nil
}

func validateUsername(s string) error {
	name := strings.TrimSpace(s)
	if name == "" {
		return fmt.Errorf("name is required")
	}
	if utf8.RuneCountInString(name) > constants.MaxUsernameLen {
		return fmt.Errorf("name must be at most %d characters", constants.MaxUsernameLen)
	}
	return nil
}

func validateDate(s string) error {
	_, err := validation.ParseDate(s)
	return err
}

// NewLoginForm asks for a name and the day being checked in.
func NewLoginForm(fm *LoginFormModel) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Your Name").
				Placeholder("e.g. alex").
				CharLimit(constants.MaxUsernameLen).
				Value(&fm.Username).
				Validate(validateUsername),
			huh.NewInput().
				Title("Check-in Date").
				Description("YYYY-MM-DD").
				Value(&fm.Date).
				Validate(validateDate),
		),
	).WithTheme(huh.ThemeDracula())
}

// NewCheckInForm builds the daily check-in questionnaire.
func NewCheckInForm(fm *CheckInFormModel) *huh.Form {
	stressOptions := make([]huh.Option[int], 0, constants.MaxStressLevel+1)
	for i := constants.MinStressLevel; i <= constants.MaxStressLevel; i++ {
		stressOptions = append(stressOptions, huh.NewOption(strconv.Itoa(i), i))
	}

	moodOptions := make([]huh.Option[models.Mood], 0, len(models.Moods()))
	for _, m := range models.Moods() {
		moodOptions = append(moodOptions, huh.NewOption(string(m), m))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("😴 Sleep Hours").
				Description("0 to 12, in half hours").
				Value(&fm.Sleep).
				Validate(func(s string) error {
					_, err := parseHalfHours(s, constants.MaxSleepHours)
					return err
				}),
			huh.NewInput().
				Title("📱 Screen Time (hrs)").
				Description("0 to 24, in half hours").
				Value(&fm.Screen).
				Validate(func(s string) error {
					_, err := parseHalfHours(s, constants.MaxScreenTime)
					return err
				}),
			huh.NewSelect[int]().
				Title("😰 Stress Level").
				Options(stressOptions...).
				Value(&fm.Stress),
			huh.NewSelect[models.Mood]().
				Title("😊 Mood").
				Options(moodOptions...).
				Value(&fm.Mood),
			huh.NewText().
				Title("📝 Journal").
				Description("Optional").
				Value(&fm.Journal),
		),
	).WithTheme(huh.ThemeDracula())
}

// NewConfirmForm builds a yes/no prompt bound to confirmed.
func NewConfirmForm(title, description string, confirmed *bool) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Affirmative("Yes").
				Negative("No").
				Value(confirmed),
		),
	).WithTheme(huh.ThemeDracula())
}
