package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/wellcheck/internal/constants"
	werrors "github.com/julianstephens/wellcheck/internal/errors"
	"github.com/julianstephens/wellcheck/internal/logger"
	"github.com/julianstephens/wellcheck/internal/models"
	"github.com/julianstephens/wellcheck/internal/query"
	"github.com/julianstephens/wellcheck/internal/storage"
	"github.com/julianstephens/wellcheck/internal/tui/components/history"
	"github.com/julianstephens/wellcheck/internal/tui/components/weekly"
)

// Options tune the model beyond its store.
type Options struct {
	// DefaultUser pre-fills the login form.
	DefaultUser string
	// BeforeClear runs before the log is wiped (automatic backup).
	BeforeClear func()
	// Now overrides the clock (tests).
	Now func() time.Time
}

type Model struct {
	store         storage.Provider
	opts          Options
	state         constants.SessionState
	previousState constants.SessionState
	keys          KeyMap
	help          help.Model
	weeklyModel   weekly.Model
	historyModel  history.Model
	form          *huh.Form
	loginForm     *LoginFormModel
	checkInForm   *CheckInFormModel
	confirmed     bool
	username      string
	date          time.Time
	entries       []models.Entry
	checkedIn     bool
	window        models.Window
	status        string
	errMsg        string
	quitting      bool
	width         int
	height        int
}

func NewModel(store storage.Provider, opts Options) Model {
	if opts.Now == nil {
		opts.Now = time.Now
	}

	m := Model{
		store:        store,
		opts:         opts,
		keys:         DefaultKeyMap(),
		help:         help.New(),
		weeklyModel:  weekly.New(0, 0),
		historyModel: history.New(nil, 0, 0),
		window:       models.WindowDaily,
	}
	m.startLogin()
	return m
}

func (m Model) ShortHelp() []key.Binding {
	if m.form != nil {
		return []key.Binding{m.keys.Cancel}
	}
	keys := []key.Binding{m.keys.Tab, m.keys.Quit, m.keys.Help}
	switch m.state {
	case constants.StateCheckIn:
		if !m.checkedIn {
			keys = append(keys, m.keys.CheckIn)
		}
	case constants.StateLeaderboard:
		keys = append(keys, m.keys.Window)
	}
	return append(keys, m.keys.Switch)
}

func (m Model) FullHelp() [][]key.Binding {
	global := []key.Binding{m.keys.Tab, m.keys.ShiftTab, m.keys.Quit, m.keys.Help}
	navigation := []key.Binding{m.keys.Up, m.keys.Down}
	actions := []key.Binding{m.keys.CheckIn, m.keys.Window, m.keys.Refresh, m.keys.Clear, m.keys.Switch}
	return [][]key.Binding{global, navigation, actions}
}

func (m Model) Init() tea.Cmd {
	if m.form != nil {
		return m.form.Init()
	}
	return nil
}

func (m Model) today() time.Time {
	return models.DateOnly(m.opts.Now())
}

// startLogin shows the name/date prompt, keeping the previous name so that
// switching accounts starts from a known value.
func (m *Model) startLogin() {
	name := m.username
	if name == "" {
		name = m.opts.DefaultUser
	}
	m.loginForm = &LoginFormModel{
		Username: name,
		Date:     m.today().Format(constants.DateFormat),
	}
	m.form = NewLoginForm(m.loginForm)
	m.state = constants.StateLogin
	m.status = ""
	m.errMsg = ""
}

// login enters the dashboard as username for date.
func (m *Model) login(username string, date time.Time) {
	m.username = strings.TrimSpace(username)
	m.date = models.DateOnly(date)
	m.form = nil
	m.state = constants.StateCheckIn
	logger.Debug("TUI login", "user", m.username, "date", m.date.Format(constants.DateFormat))
	m.refresh()
}

// refresh reloads the log and recomputes every dashboard view.
func (m *Model) refresh() {
	entries, err := m.store.Load()
	if err != nil {
		m.errMsg = fmt.Sprintf("Failed to load entries: %v", err)
		entries = nil
	}
	m.entries = entries

	checkedIn, err := m.store.HasEntry(m.username, m.date)
	if err != nil {
		m.errMsg = fmt.Sprintf("Failed to check today's entry: %v", err)
	}
	m.checkedIn = checkedIn

	today := m.today()
	m.weeklyModel.SetWeek(
		m.username,
		query.LastNDays(m.entries, constants.WeeklyWindowDays, m.username, today),
		query.WeeklySummary(m.entries, m.username, today),
	)
	m.historyModel.SetEntries(query.HistoryForUser(m.entries, m.username))
}

func (m *Model) startCheckIn() tea.Cmd {
	m.checkInForm = NewCheckInFormModel()
	m.form = NewCheckInForm(m.checkInForm)
	m.status = ""
	m.errMsg = ""
	return m.form.Init()
}

func (m *Model) startConfirmClear() tea.Cmd {
	m.previousState = m.state
	m.state = constants.StateConfirmClear
	m.confirmed = false
	m.form = NewConfirmForm(
		"Clear ALL wellness data?",
		"Every user's check-ins will be removed. A backup is taken first.",
		&m.confirmed,
	)
	return m.form.Init()
}

// submitCheckIn saves the form contents as today's entry.
func (m *Model) submitCheckIn(fm *CheckInFormModel) {
	m.form = nil
	entry, err := fm.Entry(m.username, m.date)
	if err != nil {
		m.errMsg = err.Error()
		return
	}

	if err := m.store.Append(entry); err != nil {
		if cv, ok := m.store.(*storage.CachedView); ok && werrors.KindOf(err) == werrors.KindConflict {
			// another writer got there first
			cv.Invalidate()
		}
		m.refresh()
		m.status = ""
		m.errMsg = describeSaveError(err, entry)
		return
	}

	m.errMsg = ""
	m.refresh()
	if saved, ok := query.TodayEntry(m.entries, m.username, m.date); ok {
		m.status = fmt.Sprintf("✓ Check-in saved! Wellness score: %d/100", saved.WellnessScore)
	} else {
		m.status = "✓ Check-in saved!"
	}
}

// clearAll wipes the log after the confirmation form.
func (m *Model) clearAll() {
	if m.opts.BeforeClear != nil {
		m.opts.BeforeClear()
	}
	if err := m.store.ClearAll(); err != nil {
		m.errMsg = fmt.Sprintf("Failed to clear data: %v", err)
		return
	}
	m.errMsg = ""
	m.status = "✓ All wellness data cleared."
	m.refresh()
}

func (m *Model) resize() {
	// tabs, header, status and help
	contentHeight := m.height - 8
	if contentHeight < 5 {
		contentHeight = 5
	}
	m.weeklyModel.SetSize(m.width-4, contentHeight)
	m.historyModel.SetSize(m.width-4, contentHeight-3)
}
