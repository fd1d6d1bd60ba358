package weekly

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/wellcheck/internal/constants"
	"github.com/julianstephens/wellcheck/internal/models"
	"github.com/julianstephens/wellcheck/internal/query"
)

var (
	scoreBar  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	sleepBar  = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))
	screenBar = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	stressBar = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	summaryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)

// Model shows a user's last seven days as bar charts in a scrollable
// viewport.
type Model struct {
	viewport viewport.Model
	Username string
	Week     []models.Entry
	Summary  query.Summary
	width    int
	height   int
}

func New(width, height int) Model {
	vp := viewport.New(width, height)
	return Model{
		viewport: vp,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	return m.viewport.View()
}

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
	m.Render()
}

func (m *Model) SetWeek(username string, week []models.Entry, summary query.Summary) {
	m.Username = username
	m.Week = week
	m.Summary = summary
	m.Render()
}

func (m *Model) Render() {
	m.viewport.SetContent(Render(m.Username, m.Week, m.Summary, m.width))
}

// Render draws the weekly overview: a summary line followed by one chart
// per metric. It is shared with the non-interactive week command.
func Render(username string, week []models.Entry, summary query.Summary, width int) string {
	if len(week) == 0 {
		return mutedStyle.Render(fmt.Sprintf("No check-ins for %s in the last %d days.", username, constants.WeeklyWindowDays))
	}

	// label, gap, value
	barWidth := width - 16
	if barWidth < 10 {
		barWidth = 30
	}

	var b strings.Builder
	b.WriteString(summaryStyle.Render(fmt.Sprintf(
		"%d check-ins | avg score %.1f | best %d | worst %d | mostly %s",
		summary.Entries, summary.MeanScore, summary.BestScore, summary.WorstScore, summary.TopMood,
	)))
	b.WriteString("\n")
	scores := Series(week, func(e models.Entry) float64 { return float64(e.WellnessScore) })
	trend := make([]float64, len(scores))
	for i, p := range scores {
		trend[i] = p.Value
	}
	b.WriteString(mutedStyle.Render(fmt.Sprintf(
		"avg sleep %.1fh | avg screen %.1fh | avg stress %.1f | trend %s",
		summary.MeanSleep, summary.MeanScreen, summary.MeanStress, Sparkline(trend, constants.MaxScore),
	)))
	b.WriteString("\n\n")

	b.WriteString(BarChart("Wellness Score", scores, constants.MaxScore, barWidth, scoreBar))
	b.WriteString("\n")
	b.WriteString(BarChart("Sleep Hours", Series(week, func(e models.Entry) float64 { return e.SleepHours }), constants.MaxSleepHours, barWidth, sleepBar))
	b.WriteString("\n")
	b.WriteString(BarChart("Screen Time", Series(week, func(e models.Entry) float64 { return e.ScreenTime }), constants.MaxScreenTime, barWidth, screenBar))
	b.WriteString("\n")
	b.WriteString(BarChart("Stress Level", Series(week, func(e models.Entry) float64 { return float64(e.StressLevel) }), constants.MaxStressLevel, barWidth, stressBar))
	b.WriteString("\n")

	moods := make([]string, 0, len(week))
	for _, e := range week {
		moods = append(moods, fmt.Sprintf("%s %s", e.Date.Format(constants.ChartDateFormat), e.Mood))
	}
	b.WriteString(mutedStyle.Render("Mood: " + strings.Join(moods, ", ")))
	return b.String()
}
