package cli

import (
	"github.com/julianstephens/wellcheck/internal/constants"
	"github.com/julianstephens/wellcheck/internal/query"
	"github.com/julianstephens/wellcheck/internal/tui/components/weekly"
)

type WeekCmd struct {
	User  string `short:"u" help:"Whose week to show (defaults to default_user)."`
	Width int    `help:"Chart width in columns." default:"60"`
}

func (c *WeekCmd) Run(ctx *Context) error {
	user, err := ctx.resolveUser(c.User)
	if err != nil {
		return err
	}

	entries, err := ctx.Store.Load()
	if err != nil {
		return err
	}

	today := ctx.today()
	week := query.LastNDays(entries, constants.WeeklyWindowDays, user, today)
	summary := query.WeeklySummary(entries, user, today)

	ctx.printf("📈 %s, last %d days\n\n", user, constants.WeeklyWindowDays)
	ctx.println(weekly.Render(user, week, summary, c.Width))
	return nil
}
