package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/wellcheck/internal/constants"
	werrors "github.com/julianstephens/wellcheck/internal/errors"
	"github.com/julianstephens/wellcheck/internal/models"
	"github.com/julianstephens/wellcheck/internal/storage"
	"github.com/julianstephens/wellcheck/internal/validation"
)

// Dashboard tabs in display order.
var tabs = []constants.SessionState{
	constants.StateCheckIn,
	constants.StateWeekly,
	constants.StateLeaderboard,
	constants.StateHistory,
}

func tabIndex(s constants.SessionState) int {
	for i, t := range tabs {
		if t == s {
			return i
		}
	}
	return 0
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.resize()

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.quitting = true
			return m, tea.Quit
		}
	}

	if m.form != nil {
		return m.updateForm(msg)
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && key.Matches(msg, m.keys.Cancel) && m.state != constants.StateLogin {
		m.cancelForm()
		return m, nil
	}

	var cmds []tea.Cmd
	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}
	cmds = append(cmds, cmd)

	switch m.form.State {
	case huh.StateCompleted:
		switch m.state {
		case constants.StateLogin:
			date, err := validation.ParseDate(m.loginForm.Date)
			if err != nil {
				m.startLogin()
				m.errMsg = err.Error()
				return m, m.form.Init()
			}
			m.login(m.loginForm.Username, date)
		case constants.StateConfirmClear:
			m.form = nil
			m.state = m.previousState
			if m.confirmed {
				m.clearAll()
			}
		default:
			m.submitCheckIn(m.checkInForm)
		}
	case huh.StateAborted:
		if m.state == constants.StateLogin {
			m.quitting = true
			return m, tea.Quit
		}
		m.cancelForm()
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) cancelForm() {
	m.form = nil
	m.errMsg = ""
	if m.state == constants.StateConfirmClear {
		m.state = m.previousState
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// The history filter prompt owns the keyboard while it is open.
	if m.state == constants.StateHistory && m.historyModel.Filtering() {
		var cmd tea.Cmd
		m.historyModel, cmd = m.historyModel.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Tab):
		m.state = tabs[(tabIndex(m.state)+1)%len(tabs)]
		return m, nil
	case key.Matches(msg, m.keys.ShiftTab):
		m.state = tabs[(tabIndex(m.state)-1+len(tabs))%len(tabs)]
		return m, nil
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.Switch):
		m.startLogin()
		return m, m.form.Init()
	case key.Matches(msg, m.keys.Clear):
		return m, m.startConfirmClear()
	case key.Matches(msg, m.keys.Refresh):
		if cv, ok := m.store.(*storage.CachedView); ok {
			cv.Invalidate()
		}
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	switch m.state {
	case constants.StateCheckIn:
		if key.Matches(msg, m.keys.CheckIn) && !m.checkedIn {
			cmd = m.startCheckIn()
		}
	case constants.StateWeekly:
		m.weeklyModel, cmd = m.weeklyModel.Update(msg)
	case constants.StateLeaderboard:
		if key.Matches(msg, m.keys.Window) {
			if m.window == models.WindowDaily {
				m.window = models.WindowWeekly
			} else {
				m.window = models.WindowDaily
			}
		}
	case constants.StateHistory:
		m.historyModel, cmd = m.historyModel.Update(msg)
	}
	return m, cmd
}

// describeSaveError turns a failed Append into a message for the status bar.
func describeSaveError(err error, e models.Entry) string {
	switch werrors.KindOf(err) {
	case werrors.KindConflict:
		return fmt.Sprintf("You already checked in for %s.", e.Day())
	case werrors.KindValidation:
		return fmt.Sprintf("Check-in rejected: %v", err)
	default:
		return fmt.Sprintf("Could not save check-in, please try again: %v", err)
	}
}
