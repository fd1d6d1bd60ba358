package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/julianstephens/wellcheck/internal/filelock"
	"github.com/julianstephens/wellcheck/internal/storage"
	"github.com/julianstephens/wellcheck/internal/validation"
)

type DoctorCmd struct{}

// checkStatus is the outcome of one diagnostic.
type checkStatus int

const (
	checkOK checkStatus = iota
	checkWarn
	checkFail
	checkSkipped
)

type checkResult struct {
	status checkStatus
	detail string
}

func passed() checkResult { return checkResult{status: checkOK} }

func warn(format string, args ...interface{}) checkResult {
	return checkResult{status: checkWarn, detail: fmt.Sprintf(format, args...)}
}

func fail(err error) checkResult {
	return checkResult{status: checkFail, detail: fmt.Sprintf("Error: %v", err)}
}

func skipped(reason string) checkResult {
	return checkResult{status: checkSkipped, detail: reason}
}

func (cmd *DoctorCmd) Run(ctx *Context) error {
	ctx.println("Running diagnostics...")
	ctx.println()

	hasError := false
	report := func(name string, r checkResult) {
		switch r.status {
		case checkOK:
			ctx.printf("✓ %s: OK\n", name)
		case checkWarn:
			ctx.printf("⚠ %s: WARNING\n", name)
		case checkFail:
			ctx.printf("❌ %s: FAIL\n", name)
			hasError = true
		case checkSkipped:
			ctx.printf("⊘ %s: SKIPPED (%s)\n", name, r.detail)
			return
		}
		if r.detail != "" {
			ctx.printf("   %s\n", r.detail)
		}
	}

	reachable := checkDataReachable(ctx)
	report("Data file reachable", reachable)

	if reachable.status == checkFail {
		report("Data format", skipped("data file not reachable"))
		report("Schema version", skipped("data file not reachable"))
		report("Data validation", skipped("data file not reachable"))
	} else {
		report("Data format", checkDataFormat(ctx))
		report("Schema version", checkSchemaVersion(ctx))
		report("Data validation", checkValidation(ctx))
	}

	report("Write lock", checkLock(ctx))
	report("Backups present", checkBackupsPresent(ctx))
	report("Clock/timezone", checkClockTimezone(ctx))

	ctx.println()
	if hasError {
		ctx.println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}

	ctx.println("All diagnostics passed!")
	return nil
}

func checkDataReachable(ctx *Context) checkResult {
	path := ctx.Store.Path()
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return fail(fmt.Errorf("no data file at %s, run 'wellcheck init'", path))
		}
		return fail(err)
	}
	if _, err := ctx.Store.Load(); err != nil {
		return fail(fmt.Errorf("failed to load data: %w", err))
	}
	return passed()
}

// checkDataFormat catches a file the store would silently treat as empty.
func checkDataFormat(ctx *Context) checkResult {
	if err := ctx.backupManager().Verify(ctx.Store.Path()); err != nil {
		return fail(fmt.Errorf("data file is unreadable and will load as empty: %w", err))
	}
	return passed()
}

func checkSchemaVersion(ctx *Context) checkResult {
	sqliteStore, isSQLite := underlying(ctx.Store).(*storage.SQLiteStore)
	if !isSQLite {
		return skipped("CSV log has no schema version")
	}

	current, latest, err := sqliteStore.SchemaVersion()
	if err != nil {
		return fail(fmt.Errorf("failed to read schema version: %w", err))
	}
	if current > latest {
		return fail(fmt.Errorf("database schema version (%d) is newer than supported version (%d)", current, latest))
	}
	if current < latest {
		return fail(fmt.Errorf("migrations incomplete: current version %d, latest version %d", current, latest))
	}
	return passed()
}

func checkValidation(ctx *Context) checkResult {
	entries, err := ctx.Store.Load()
	if err != nil {
		return fail(err)
	}

	result := validation.New().ValidateLog(entries, ctx.today())
	if result.HasIssues() {
		return warn("%d issue(s), run 'wellcheck validate' for details", len(result.Issues))
	}
	return passed()
}

// checkLock reports a recorded holder; Release clears the record, so a
// leftover pid means a writer is active or died mid-write.
func checkLock(ctx *Context) checkResult {
	holder, err := filelock.ForFile(ctx.Store.Path()).Holder()
	if err != nil {
		return warn("%v", err)
	}
	switch {
	case holder.PID == 0:
		return passed()
	case holder.Alive:
		return warn("held by pid %d (%s)", holder.PID, holder.Executable)
	default:
		return warn("stale record from exited pid %d, the next write will reclaim it", holder.PID)
	}
}

func checkBackupsPresent(ctx *Context) checkResult {
	backups, err := ctx.backupManager().ListBackups()
	if err != nil {
		return warn("failed to list backups: %v", err)
	}

	if len(backups) == 0 {
		return warn("no backups found - consider creating one with 'wellcheck backup create'")
	}
	return passed()
}

func checkClockTimezone(ctx *Context) checkResult {
	// Check if system time is reasonable
	now := ctx.today()

	// Check if time is in a reasonable range (after 2020 and before 2100)
	if now.Year() < 2020 || now.Year() > 2100 {
		return fail(fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339)))
	}

	// Check-in dates follow the local calendar
	if _, offset := now.Zone(); offset == 0 {
		return checkResult{status: checkOK, detail: "Note: timezone is UTC"}
	}
	return passed()
}

// underlying unwraps a cached view to the backend it reads from.
func underlying(p storage.Provider) storage.Provider {
	if cv, ok := p.(*storage.CachedView); ok {
		return cv.Provider
	}
	return p
}
