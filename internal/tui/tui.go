// Package tui is the terminal front end for a game session.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/lox/fivehands/internal/game"
	"github.com/lox/fivehands/internal/session"
)

// Model is the Bubble Tea model for one session. It renders the latest
// session.View and turns key presses into session operations.
type Model struct {
	session     *session.Session
	logger      *log.Logger
	views       chan session.View
	unsubscribe func()

	// UI components
	nameInput       textinput.Model
	historyViewport viewport.Model

	// State
	view     session.View
	notice   string // last rejected operation
	quitting bool

	// Dimensions
	width  int
	height int
}

// viewMsg delivers a session view to Update
type viewMsg session.View

// NewModel creates a model attached to sess
func NewModel(sess *session.Session, logger *log.Logger) *Model {
	ti := textinput.New()
	ti.Placeholder = "Dein Name"
	ti.Focus()
	ti.CharLimit = 32
	ti.Width = 32
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	ti.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA"))
	ti.Prompt = "> "

	m := &Model{
		session:         sess,
		logger:          logger.WithPrefix("tui"),
		views:           make(chan session.View, 16),
		nameInput:       ti,
		historyViewport: viewport.New(40, 8),
		view:            sess.View(),
	}
	m.unsubscribe = sess.Subscribe(m.forward)
	return m
}

// forward is the session observer. It never blocks: when the buffer is full
// the oldest view is dropped, since every view supersedes the ones before it.
func (m *Model) forward(v session.View) {
	for {
		select {
		case m.views <- v:
			return
		default:
		}
		select {
		case <-m.views:
		default:
		}
	}
}

// Close detaches the model from its session
func (m *Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
}

// Init loads the ranking for the home screen and starts listening for views
func (m *Model) Init() tea.Cmd {
	if err := m.session.RefreshRankings(); err != nil {
		m.notice = err.Error()
	}
	return tea.Batch(textinput.Blink, m.waitForView())
}

func (m *Model) waitForView() tea.Cmd {
	return func() tea.Msg {
		return viewMsg(<-m.views)
	}
}

// Update handles messages in the TUI
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case viewMsg:
		m.apply(session.View(msg))
		return m, m.waitForView()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.historyViewport.Width = max(msg.Width-4, 10)
		m.historyViewport.Height = max(msg.Height-16, 3)
		m.logger.Debug("Updating dimensions", "width", m.width, "height", m.height)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		if m.view.State == session.Idle {
			if cmd, handled := m.handleHomeKey(msg); handled {
				return m, cmd
			}
		} else {
			m.handleGameKey(msg)
			return m, nil
		}
	}

	var cmd tea.Cmd
	if m.view.State == session.Idle {
		m.nameInput, cmd = m.nameInput.Update(msg)
		cmds = append(cmds, cmd)
	}
	m.historyViewport, cmd = m.historyViewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// apply installs v unless a newer view is already shown
func (m *Model) apply(v session.View) {
	if v.Seq < m.view.Seq {
		return
	}
	if v.State == session.Idle && m.view.State != session.Idle {
		m.nameInput.Focus()
	}
	m.view = v
	m.historyViewport.SetContent(m.renderHistory())
	m.historyViewport.GotoBottom()
}

func (m *Model) handleHomeKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch msg.String() {
	case "enter":
		m.run(m.session.Start(m.nameInput.Value()))
		if m.notice == "" {
			m.nameInput.Blur()
		}
		return nil, true
	case "tab":
		m.run(m.session.ToggleMode())
		return nil, true
	case "ctrl+r":
		m.run(m.session.RefreshRankings())
		return nil, true
	case "esc":
		m.quitting = true
		return tea.Quit, true
	}
	return nil, false
}

func (m *Model) handleGameKey(msg tea.KeyMsg) {
	key := msg.String()
	switch key {
	case "1", "2", "3", "4", "5":
		m.run(m.session.Submit(game.Hands[key[0]-'1']))
	case "esc":
		m.run(m.session.Exit())
	}
}

// run records the outcome of a session operation for display
func (m *Model) run(err error) {
	if err != nil {
		m.logger.Debug("Operation rejected", "state", m.view.State, "error", err)
		m.notice = err.Error()
		return
	}
	m.notice = ""
}

// View renders the TUI
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var body string
	if m.view.State == session.Idle {
		body = m.renderHome()
	} else {
		body = m.renderGame()
	}

	if m.width > 0 {
		return lipgloss.NewStyle().MaxWidth(m.width).Render(body)
	}
	return body
}

func (m *Model) renderHome() string {
	var b strings.Builder

	b.WriteString(HeaderStyle.Render("Fünf Hände"))
	b.WriteString("\n\n")
	b.WriteString(m.nameInput.View())
	b.WriteString("\n\n")
	b.WriteString(ButtonStyle.Render("[tab] " + m.view.ModeLabel()))
	b.WriteString("\n\n")
	b.WriteString(PaneStyle.Render(m.renderRankings()))
	b.WriteString("\n")
	b.WriteString(m.renderErrors())
	b.WriteString(InfoStyle.Render("Enter starten • Tab Modus wechseln • Ctrl+R Rangliste • Esc beenden"))

	return b.String()
}

func (m *Model) renderRankings() string {
	if m.view.RankingsLoading {
		return InfoStyle.Render("Rangliste wird geladen...")
	}
	if len(m.view.Rankings) == 0 {
		return session.RankingPlaceholder
	}

	lines := make([]string, len(m.view.Rankings))
	for i, entry := range m.view.Rankings {
		lines[i] = entry.String()
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderGame() string {
	var b strings.Builder

	b.WriteString(HeaderStyle.Render(fmt.Sprintf("%s • %s", m.view.Player, modeTitle(m.view.Remote))))
	b.WriteString("\n\n")
	b.WriteString(m.renderHands())
	b.WriteString("\n")
	b.WriteString(renderLegend())
	b.WriteString("\n")
	b.WriteString(StatusStyle.Render(m.view.Status()))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Gegner: %s", m.view.OpponentHand()))
	if m.view.Round != nil {
		b.WriteString("  ")
		b.WriteString(outcomeStyle(m.view.Round.Outcome).Render(session.OutcomeLabel(m.view.Round.Outcome)))
	}
	b.WriteString("\n\n")
	b.WriteString(PaneStyle.Render(m.historyViewport.View()))
	b.WriteString("\n")
	b.WriteString(m.renderErrors())
	b.WriteString(InfoStyle.Render("1-5 Hand wählen • Esc zurück • Ctrl+C beenden"))

	return b.String()
}

func (m *Model) renderHands() string {
	buttons := make([]string, len(game.Hands))
	for i, h := range game.Hands {
		label := fmt.Sprintf("%d %s", i+1, h)
		switch {
		case h == m.view.ChosenHand:
			buttons[i] = ChosenHandStyle.Render(label)
		case !m.view.Actions.Submit:
			buttons[i] = DisabledHandStyle.Render(label)
		default:
			buttons[i] = HandStyle.Render(label)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, buttons...)
}

// renderLegend lists which hands each hand defeats
func renderLegend() string {
	lines := make([]string, len(game.Hands))
	for i, h := range game.Hands {
		beaten := game.Beats(h)
		names := make([]string, len(beaten))
		for j, other := range beaten {
			names[j] = other.String()
		}
		lines[i] = fmt.Sprintf("%s schlägt %s", h, strings.Join(names, ", "))
	}
	return InfoStyle.Render(strings.Join(lines, "\n"))
}

func (m *Model) renderHistory() string {
	if len(m.view.History) == 0 {
		return InfoStyle.Render("Noch keine Runden gespielt.")
	}

	lines := make([]string, len(m.view.History))
	for i, round := range m.view.History {
		lines[i] = fmt.Sprintf("%3d. %-11s vs %-11s %s",
			i+1,
			round.PlayerHand,
			round.SystemHand,
			outcomeStyle(round.Outcome).Render(session.OutcomeLabel(round.Outcome)))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderErrors() string {
	var b strings.Builder
	if m.view.Error != "" {
		b.WriteString(ErrorStyle.Render(m.view.Error))
		b.WriteString("\n")
	}
	if m.notice != "" {
		b.WriteString(ErrorStyle.Render(m.notice))
		b.WriteString("\n")
	}
	return b.String()
}

func outcomeStyle(o game.Outcome) lipgloss.Style {
	switch o {
	case game.Win:
		return WinStyle
	case game.Lose:
		return LoseStyle
	default:
		return TieStyle
	}
}

func modeTitle(remote bool) string {
	if remote {
		return "Server"
	}
	return "Lokal"
}
