package cli

import (
	"github.com/julianstephens/wellcheck/internal/constants"
	"github.com/julianstephens/wellcheck/internal/query"
	"github.com/julianstephens/wellcheck/internal/score"
)

type TodayCmd struct {
	User string `short:"u" help:"Whose check-in to show (defaults to default_user)."`
	Date string `short:"d" help:"Day to show (YYYY-MM-DD or 'today')." default:"today"`
}

func (c *TodayCmd) Run(ctx *Context) error {
	user, err := ctx.resolveUser(c.User)
	if err != nil {
		return err
	}
	date, err := ctx.resolveDate(c.Date)
	if err != nil {
		return err
	}

	entries, err := ctx.Store.Load()
	if err != nil {
		return err
	}

	entry, ok := query.TodayEntry(entries, user, date)
	if !ok {
		ctx.printf("No check-in for %s on %s yet.\n", user, date.Format(constants.DateFormat))
		ctx.println("Run 'wellcheck checkin' to add one.")
	} else {
		ctx.printf("📊 %s on %s\n", user, date.Format(constants.DisplayDateFormat))
		printAnalysis(ctx, entry)
	}

	ctx.println()
	ctx.println("🎯 Daily Goals")
	for _, g := range score.Goals {
		ctx.printf("  %-13s %s\n", g.Label, g.Value)
	}
	return nil
}
