package cli

type ClearCmd struct {
	Yes bool `short:"y" help:"Skip the confirmation prompt."`
}

func (c *ClearCmd) Run(ctx *Context) error {
	if !c.Yes {
		ctx.println("⚠️  WARNING: This removes every check-in for every user.")
		ctx.println("A backup of the current data will be created first.")
		ok, err := ctx.confirm("Continue?")
		if err != nil {
			return err
		}
		if !ok {
			ctx.println("Clear cancelled.")
			return nil
		}
	}

	ctx.PerformAutomaticBackup()

	if err := ctx.Store.ClearAll(); err != nil {
		return err
	}
	ctx.println("✓ All wellness data cleared.")
	return nil
}
