package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/wellcheck/internal/cli"
	"github.com/julianstephens/wellcheck/internal/config"
	"github.com/julianstephens/wellcheck/internal/constants"
	werrors "github.com/julianstephens/wellcheck/internal/errors"
	"github.com/julianstephens/wellcheck/internal/logger"
	"github.com/julianstephens/wellcheck/internal/storage"
)

// How long a long-running session trusts its cached log before re-reading
// writes made by other processes.
const cacheMaxAge = 30 * time.Second

var CLI struct {
	Version     kong.VersionFlag
	Config      string        `help:"Config file path." type:"path" env:"WELLCHECK_CONFIG" default:"${config}"`
	Data        string        `help:"Wellness log path (.csv, or .db for SQLite). Overrides data_file." type:"path" env:"WELLCHECK_DATA"`
	Debug       bool          `help:"Log at debug level and mirror logs to stderr." env:"WELLCHECK_DEBUG"`
	LockTimeout time.Duration `help:"How long writers wait for the data file lock. Overrides lock_timeout."`

	Init          cli.InitCmd        `cmd:"" help:"Initialize wellcheck storage."`
	Tui           cli.TuiCmd         `cmd:"" help:"Launch the interactive dashboard." default:"1"`
	Checkin       cli.CheckinCmd     `cmd:"" help:"Record today's wellness check-in."`
	Today         cli.TodayCmd       `cmd:"" help:"Show a day's check-in and analysis."`
	Week          cli.WeekCmd        `cmd:"" help:"Chart the last seven days."`
	Leaderboard   cli.LeaderboardCmd `cmd:"" help:"Rank users by average wellness score."`
	History       cli.HistoryCmd     `cmd:"" help:"List past check-ins, newest first."`
	Clear         cli.ClearCmd       `cmd:"" help:"Delete every check-in (a backup is taken first)."`
	Backup        cli.BackupCmd      `cmd:"" help:"Manage data backups."`
	Doctor        cli.DoctorCmd      `cmd:"" help:"Run health checks and diagnostics."`
	Validate      cli.ValidateCmd    `cmd:"" help:"Report inconsistencies in the wellness log."`
	DebugCommands cli.DebugCmd       `cmd:"" name:"debug" help:"Debug commands for troubleshooting."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Daily wellness check-ins with scores, trends, and a leaderboard"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version": constants.Version,
			"config":  constants.DefaultConfigFile,
		},
	)

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", werrors.Format(err))
		os.Exit(1)
	}
	if CLI.Data != "" {
		cfg.DataFile = CLI.Data
	}
	if CLI.LockTimeout > 0 {
		cfg.LockTimeout = CLI.LockTimeout
	}
	cfg.Debug = cfg.Debug || CLI.Debug

	if err := logger.Init(logger.Config{
		Debug:     cfg.Debug,
		ConfigDir: filepath.Dir(config.ExpandPath(CLI.Config)),
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}
	defer logger.Close()
	logger.Debug("Starting", "command", ctx.Command(), "data", cfg.DataFile, "config", CLI.Config)

	store := storage.NewCachedView(
		storage.Open(cfg.DataFile, storage.Options{LockTimeout: cfg.LockTimeout}),
		cacheMaxAge,
	)
	defer store.Close()

	appCtx := &cli.Context{
		Store:      store,
		Config:     cfg,
		ConfigPath: CLI.Config,
	}

	if err := ctx.Run(appCtx); err != nil {
		store.Close()
		werrors.Fatal(err)
	}
}
