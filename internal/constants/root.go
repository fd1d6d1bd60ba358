package constants

import "time"

// SessionState represents the current state of the TUI application
type SessionState int

const (
	AppName           = "wellcheck"
	DefaultConfigDir  = "~/.config/wellcheck"
	DefaultDataPath   = "~/.config/wellcheck/wellness_data.csv"
	DefaultConfigFile = "~/.config/wellcheck/config.toml"
	Version           = "v0.1.0"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// DisplayDateFormat is used for history cards ("January 02, 2006")
	DisplayDateFormat = "January 02, 2006"

	// ChartDateFormat labels chart columns ("Jan 02")
	ChartDateFormat = "Jan 02"

	// Lock constants
	LockFileSuffix     = ".lock"
	DefaultLockTimeout = 10 * time.Second
	LockPollInterval   = 50 * time.Millisecond

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "wellcheck-"

	// Entry bounds
	MaxUsernameLen = 30
	MinSleepHours  = 0.0
	MaxSleepHours  = 12.0
	MinScreenTime  = 0.0
	MaxScreenTime  = 24.0
	HoursStep      = 0.5
	MinStressLevel = 0
	MaxStressLevel = 10
	MinScore       = 0
	MaxScore       = 100

	// Query windows
	WeeklyWindowDays = 7
)

// Session States
const (
	StateLogin SessionState = iota
	StateCheckIn
	StateWeekly
	StateLeaderboard
	StateHistory
	StateConfirmClear
)

// Columns is the CSV header of the wellness log, in file order.
var Columns = []string{
	"username", "date", "sleep_hours", "screen_time", "stress_level",
	"mood", "wellness_score", "tip", "journal",
}
