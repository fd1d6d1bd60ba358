package history

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/wellcheck/internal/constants"
	"github.com/julianstephens/wellcheck/internal/models"
)

type Item struct {
	Entry models.Entry
}

func (i Item) Title() string {
	day := "Undated"
	if i.Entry.HasDate() {
		day = i.Entry.Date.Format(constants.DisplayDateFormat)
	}
	return fmt.Sprintf("%s | %d/100", day, i.Entry.WellnessScore)
}

func (i Item) Description() string {
	desc := fmt.Sprintf("%gh sleep | %gh screen | stress %d | %s",
		i.Entry.SleepHours, i.Entry.ScreenTime, i.Entry.StressLevel, i.Entry.Mood)
	if i.Entry.Journal != "" {
		desc += " | 📝"
	}
	return desc
}

func (i Item) FilterValue() string {
	return strings.Join([]string{i.Entry.Day(), string(i.Entry.Mood), i.Entry.Journal}, " ")
}

// Model lists a user's check-ins newest first.
type Model struct {
	list list.Model
}

func New(entries []models.Entry, width, height int) Model {
	l := list.New(items(entries), list.NewDefaultDelegate(), width, height)
	l.Title = "History"
	l.SetShowTitle(false)
	l.SetShowHelp(false) // We handle help globally in the main model

	return Model{list: l}
}

func items(entries []models.Entry) []list.Item {
	out := make([]list.Item, len(entries))
	for i, e := range entries {
		out[i] = Item{Entry: e}
	}
	return out
}

func (m *Model) SetEntries(entries []models.Entry) {
	m.list.SetItems(items(entries))
}

// Selected returns the highlighted entry.
func (m Model) Selected() (models.Entry, bool) {
	i, ok := m.list.SelectedItem().(Item)
	if !ok {
		return models.Entry{}, false
	}
	return i.Entry, true
}

// Filtering reports whether the filter prompt is taking keystrokes.
func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

func (m Model) Len() int {
	return len(m.list.Items())
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if len(m.list.Items()) == 0 && !m.Filtering() {
		return "\n  No check-ins yet.\n  Complete your first one on the Check-in tab."
	}

	view := m.list.View()
	if e, ok := m.Selected(); ok {
		var detail []string
		if e.Tip != "" {
			detail = append(detail, "  Tip: "+e.Tip)
		}
		if e.Journal != "" {
			detail = append(detail, "  Journal: "+e.Journal)
		}
		if len(detail) > 0 {
			view += "\n" + strings.Join(detail, "\n")
		}
	}
	return view
}

func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, height)
}
