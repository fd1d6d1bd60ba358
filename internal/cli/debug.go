package cli

import (
	"encoding/json"
	"fmt"

	"github.com/julianstephens/wellcheck/internal/constants"
	"github.com/julianstephens/wellcheck/internal/filelock"
	"github.com/julianstephens/wellcheck/internal/logger"
	"github.com/julianstephens/wellcheck/internal/query"
)

type DebugCmd struct {
	DataPath  DebugDataPathCmd  `cmd:"" help:"Show data and config paths."`
	DumpUser  DebugDumpUserCmd  `cmd:"" help:"Dump a user's entries as JSON."`
	DumpEntry DebugDumpEntryCmd `cmd:"" help:"Dump one check-in as JSON."`
}

type DebugDataPathCmd struct{}

func (cmd *DebugDataPathCmd) Run(ctx *Context) error {
	// Output in machine-readable format
	output := map[string]string{
		"data":   ctx.Store.Path(),
		"config": ctx.ConfigPath,
		"lock":   filelock.ForFile(ctx.Store.Path()).Path(),
		"backup": ctx.backupManager().GetBackupDir(),
		"log":    logger.Path(),
	}
	return ctx.printJSON(output)
}

type DebugDumpUserCmd struct {
	User string `arg:"" help:"Username whose entries to dump."`
}

func (cmd *DebugDumpUserCmd) Run(ctx *Context) error {
	entries, err := ctx.Store.Load()
	if err != nil {
		return fmt.Errorf("failed to load entries: %w", err)
	}

	history := query.HistoryForUser(entries, cmd.User)
	if len(history) == 0 {
		return fmt.Errorf("no entries found for user: %s", cmd.User)
	}
	return ctx.printJSON(history)
}

type DebugDumpEntryCmd struct {
	User string `arg:"" help:"Username of the check-in."`
	Date string `arg:"" help:"Date of the check-in (YYYY-MM-DD or 'today')."`
}

func (cmd *DebugDumpEntryCmd) Run(ctx *Context) error {
	date, err := ctx.resolveDate(cmd.Date)
	if err != nil {
		return err
	}

	entries, err := ctx.Store.Load()
	if err != nil {
		return fmt.Errorf("failed to load entries: %w", err)
	}

	entry, ok := query.TodayEntry(entries, cmd.User, date)
	if !ok {
		return fmt.Errorf("no entry found for %s on %s", cmd.User, date.Format(constants.DateFormat))
	}
	return ctx.printJSON(entry)
}

func (c *Context) printJSON(v interface{}) error {
	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	c.println(string(jsonBytes))
	return nil
}
