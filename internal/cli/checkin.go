package cli

import (
	"fmt"
	"strconv"

	"github.com/julianstephens/wellcheck/internal/constants"
	werrors "github.com/julianstephens/wellcheck/internal/errors"
	"github.com/julianstephens/wellcheck/internal/models"
	"github.com/julianstephens/wellcheck/internal/query"
	"github.com/julianstephens/wellcheck/internal/tui"
)

type CheckinCmd struct {
	User    string  `short:"u" help:"Who is checking in (defaults to default_user)."`
	Date    string  `short:"d" help:"Day of the check-in (YYYY-MM-DD or 'today')." default:"today"`
	Sleep   float64 `short:"s" help:"Hours slept, 0-12 in half hours." default:"8"`
	Screen  float64 `short:"t" help:"Screen time in hours, 0-24 in half hours." default:"3"`
	Stress  int     `short:"x" help:"Stress level, 0-10." default:"5"`
	Mood    string  `short:"m" help:"Mood (Happy, Tired, Sad, Anxious, Stressed). Omit to fill in a form."`
	Journal string  `short:"j" help:"Optional journal note."`
}

func (c *CheckinCmd) Run(ctx *Context) error {
	user, err := ctx.resolveUser(c.User)
	if err != nil {
		return err
	}
	date, err := ctx.resolveDate(c.Date)
	if err != nil {
		return err
	}

	// Refuse early rather than after the form has been filled in.
	exists, err := ctx.Store.HasEntry(user, date)
	if err != nil {
		return err
	}
	if exists {
		return werrors.New(werrors.KindConflict, "check in",
			fmt.Errorf("%s already checked in on %s", user, date.Format(constants.DateFormat)))
	}

	entry := models.Entry{
		Username:    user,
		Date:        date,
		SleepHours:  c.Sleep,
		ScreenTime:  c.Screen,
		StressLevel: c.Stress,
		Mood:        models.Mood(c.Mood),
		Journal:     c.Journal,
	}

	if c.Mood == "" {
		fm := tui.NewCheckInFormModel()
		fm.Sleep = strconv.FormatFloat(c.Sleep, 'f', 1, 64)
		fm.Screen = strconv.FormatFloat(c.Screen, 'f', 1, 64)
		fm.Stress = c.Stress
		fm.Journal = c.Journal
		if err := tui.NewCheckInForm(fm).Run(); err != nil {
			return fmt.Errorf("check-in cancelled: %w", err)
		}
		if entry, err = fm.Entry(user, date); err != nil {
			return werrors.Validation("check in", "%v", err)
		}
	}

	if err := ctx.Store.Append(entry); err != nil {
		return err
	}

	entries, err := ctx.Store.Load()
	if err != nil {
		return err
	}
	saved, ok := query.TodayEntry(entries, user, date)
	if !ok {
		return fmt.Errorf("check-in for %s on %s was not found after saving", user, date.Format(constants.DateFormat))
	}

	ctx.printf("✓ Checked in %s for %s\n", user, saved.Day())
	printAnalysis(ctx, saved)
	return nil
}

func printAnalysis(ctx *Context, e models.Entry) {
	ctx.printf("  Wellness score: %d/100\n", e.WellnessScore)
	ctx.printf("  😴 %gh sleep | 📱 %gh screen | 😰 stress %d | %s\n", e.SleepHours, e.ScreenTime, e.StressLevel, e.Mood)
	if e.Tip != "" {
		ctx.printf("  💡 %s\n", e.Tip)
	}
	if e.Journal != "" {
		ctx.printf("  📝 %s\n", e.Journal)
	}
}
