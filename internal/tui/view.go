package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/wellcheck/internal/constants"
	"github.com/julianstephens/wellcheck/internal/query"
	"github.com/julianstephens/wellcheck/internal/score"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	if m.state == constants.StateLogin {
		return docStyle.Render(lipgloss.JoinVertical(
			lipgloss.Left,
			titleStyle.Render("🌿 Daily Wellness Check-in"),
			m.form.View(),
			m.viewStatus(),
		))
	}

	var content string
	switch m.state {
	case constants.StateCheckIn:
		content = m.viewCheckIn()
	case constants.StateWeekly:
		content = m.weeklyModel.View()
	case constants.StateLeaderboard:
		content = m.viewLeaderboard()
	case constants.StateHistory:
		content = m.historyModel.View()
	case constants.StateConfirmClear:
		content = lipgloss.JoinVertical(lipgloss.Left,
			dangerStyle.Render("This cannot be undone."),
			"",
			m.form.View(),
		)
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewHeader(),
		m.viewTabs(),
		docStyle.Render(content),
		m.viewStatus(),
		m.help.View(m),
	)
}

func (m Model) viewHeader() string {
	return headerStyle.Render(fmt.Sprintf("👋 Hi, %s | %s", m.username, m.date.Format(constants.DisplayDateFormat)))
}

func (m Model) viewTabs() string {
	var rendered []string
	active := m.state
	if active == constants.StateConfirmClear {
		active = m.previousState
	}
	for i, title := range []string{"Check-in", "Weekly", "Leaderboard", "History"} {
		if tabs[i] == active {
			rendered = append(rendered, activeTabStyle.Render(title))
		} else {
			rendered = append(rendered, inactiveTabStyle.Render(title))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m Model) viewStatus() string {
	switch {
	case m.errMsg != "":
		return dangerStyle.Render(m.errMsg)
	case m.status != "":
		return successStyle.Render(m.status)
	default:
		return ""
	}
}

func (m Model) viewGoals() string {
	lines := []string{headerStyle.Render("🎯 Daily Goals")}
	for _, g := range score.Goals {
		lines = append(lines, fmt.Sprintf("%-13s %s", g.Label, g.Value))
	}
	return goalStyle.Render(strings.Join(lines, "\n"))
}

func (m Model) viewCheckIn() string {
	if m.form != nil {
		return lipgloss.JoinHorizontal(lipgloss.Top, m.form.View(), "  ", m.viewGoals())
	}

	entry, ok := query.TodayEntry(m.entries, m.username, m.date)
	if !m.checkedIn || !ok {
		return lipgloss.JoinVertical(lipgloss.Left,
			fmt.Sprintf("You haven't checked in for %s yet.", m.date.Format(constants.DateFormat)),
			mutedStyle.Render("Press c to start your check-in."),
			"",
			m.viewGoals(),
		)
	}

	var b strings.Builder
	b.WriteString(successStyle.Render("✅ You've already checked in for this day."))
	b.WriteString("\n\n")
	b.WriteString(headerStyle.Render("📊 Today's Analysis"))
	b.WriteString("\n")
	b.WriteString(scoreStyle.Render(fmt.Sprintf("Wellness Score: %d/100", entry.WellnessScore)))
	b.WriteString("\n")
	fmt.Fprintf(&b, "😴 Sleep %gh | 📱 Screen %gh | 😰 Stress %d | %s\n",
		entry.SleepHours, entry.ScreenTime, entry.StressLevel, entry.Mood)
	if entry.Tip != "" {
		b.WriteString(warningStyle.Render("💡 " + entry.Tip))
		b.WriteString("\n")
	}
	if entry.Journal != "" {
		b.WriteString(mutedStyle.Render("📝 " + entry.Journal))
		b.WriteString("\n")
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, b.String(), "  ", m.viewGoals())
}

func (m Model) viewLeaderboard() string {
	rows := query.Leaderboard(m.entries, m.window, m.today())

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("🏆 %s Leaderboard", m.window.Title())))
	b.WriteString(mutedStyle.Render("  (w to switch)"))
	b.WriteString("\n\n")

	if len(rows) == 0 {
		b.WriteString(mutedStyle.Render("No check-ins in this window yet."))
		return b.String()
	}

	for _, r := range rows {
		medal := r.Medal()
		if medal == "" {
			medal = "  "
		}
		line := fmt.Sprintf("%s %2d. %-*s %6.1f  (%d)", medal, r.Rank, constants.MaxUsernameLen, r.Username, r.MeanScore, r.Entries)
		if r.Username == m.username {
			line = selfStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}
