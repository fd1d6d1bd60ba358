package cli

import (
	"github.com/julianstephens/wellcheck/internal/constants"
	"github.com/julianstephens/wellcheck/internal/query"
)

type HistoryCmd struct {
	User  string `short:"u" help:"Whose history to show (defaults to default_user)."`
	Limit int    `short:"n" help:"Show at most this many entries (0 for all)." default:"0"`
}

func (c *HistoryCmd) Run(ctx *Context) error {
	user, err := ctx.resolveUser(c.User)
	if err != nil {
		return err
	}

	entries, err := ctx.Store.Load()
	if err != nil {
		return err
	}

	history := query.HistoryForUser(entries, user)
	if len(history) == 0 {
		ctx.printf("No check-ins for %s yet.\n", user)
		return nil
	}
	if c.Limit > 0 && len(history) > c.Limit {
		history = history[:c.Limit]
	}

	ctx.printf("📜 History for %s\n", user)
	for _, e := range history {
		day := "Undated"
		if e.HasDate() {
			day = e.Date.Format(constants.DisplayDateFormat)
		}
		ctx.printf("\n%s\n", day)
		printAnalysis(ctx, e)
	}
	return nil
}
