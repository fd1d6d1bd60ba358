package cli

import (
	"os"

	"github.com/julianstephens/wellcheck/internal/config"
)

type InitCmd struct {
	WriteConfig bool   `help:"Also write a config file pointing at the data file."`
	User        string `short:"u" help:"Default user to record in the config file."`
}

func (c *InitCmd) Run(ctx *Context) error {
	if err := ctx.Store.Init(); err != nil {
		return err
	}
	ctx.printf("✓ Initialized wellcheck storage at: %s\n", ctx.Store.Path())

	if !c.WriteConfig {
		return nil
	}

	path := config.ExpandPath(ctx.ConfigPath)
	if _, err := os.Stat(path); err == nil {
		ctx.printf("⚠ Config file already exists, leaving it untouched: %s\n", path)
		return nil
	}

	cfg := ctx.Config
	cfg.DataFile = ctx.Store.Path()
	if c.User != "" {
		cfg.DefaultUser = c.User
	}
	if err := config.Save(path, cfg); err != nil {
		return err
	}
	ctx.printf("✓ Wrote config file: %s\n", path)
	return nil
}
