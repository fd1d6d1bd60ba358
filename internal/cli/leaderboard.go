package cli

import (
	"github.com/julianstephens/wellcheck/internal/constants"
	"github.com/julianstephens/wellcheck/internal/models"
	"github.com/julianstephens/wellcheck/internal/query"
)

type LeaderboardCmd struct {
	Window string `short:"w" help:"Aggregation window (daily|weekly)." enum:"daily,weekly" default:"daily"`
}

func (c *LeaderboardCmd) Run(ctx *Context) error {
	window, err := models.ParseWindow(c.Window)
	if err != nil {
		return err
	}

	entries, err := ctx.Store.Load()
	if err != nil {
		return err
	}

	rows := query.Leaderboard(entries, window, ctx.today())
	ctx.printf("🏆 %s Leaderboard\n\n", window.Title())
	if len(rows) == 0 {
		ctx.println("No check-ins in this window yet.")
		return nil
	}

	for _, r := range rows {
		medal := r.Medal()
		if medal == "" {
			medal = "  "
		}
		ctx.printf("%s %2d. %-*s %6.1f  (%d check-ins)\n",
			medal, r.Rank, constants.MaxUsernameLen, r.Username, r.MeanScore, r.Entries)
	}
	return nil
}
