package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/wellcheck/internal/tui"
)

type TuiCmd struct {
	User string `short:"u" help:"Name to pre-fill on the login screen (defaults to default_user)."`
}

func (c *TuiCmd) Run(ctx *Context) error {
	if _, err := ctx.Store.Load(); err != nil {
		return err
	}

	user := c.User
	if user == "" {
		user = ctx.Config.DefaultUser
	}

	model := tui.NewModel(ctx.Store, tui.Options{
		DefaultUser: user,
		BeforeClear: ctx.PerformAutomaticBackup,
		Now:         ctx.Now,
	})

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("alas, there's been an error: %w", err)
	}
	return nil
}
