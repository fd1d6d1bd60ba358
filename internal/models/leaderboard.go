package models

import (
	"fmt"
	"strings"
)

// Window is the date range used for leaderboard aggregation
type Window string

const (
	WindowDaily  Window = "daily"
	WindowWeekly Window = "weekly"
)

func ParseWindow(s string) (Window, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "daily", "day", "today":
		return WindowDaily, nil
	case "weekly", "week":
		return WindowWeekly, nil
	default:
		return "", fmt.Errorf("invalid leaderboard window: %q (expected daily or weekly)", s)
	}
}

func (w Window) Title() string {
	if w == WindowWeekly {
		return "Weekly"
	}
	return "Daily"
}

// LeaderboardRow is one ranked user in a leaderboard window
type LeaderboardRow struct {
	Rank      int
	Username  string
	MeanScore float64
	Entries   int
}

// Medal returns the podium medal for ranks 1-3.
func (r LeaderboardRow) Medal() string {
	switch r.Rank {
	case 1:
		return "🥇"
	case 2:
		return "🥈"
	case 3:
		return "🥉"
	default:
		return ""
	}
}
