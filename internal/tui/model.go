package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"docquery/internal/domain"
)

// QueryPort is the TUI-facing subset of the query service.
type QueryPort interface {
	Query(ctx context.Context, requesterID, userID, query, sessionID string) (domain.Answer, error)
}

// Model is the Bubble Tea model for the interactive query console. Every
// answer shares the session id minted on the first question.
type Model struct {
	service   QueryPort
	userID    string
	sessionID string
	input     textinput.Model
	viewport  viewport.Model
	answer    string
	status    string
	ready     bool
	lastQuery string
}

// New creates a new console model for the given user.
func New(service QueryPort, userID, sessionID string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question about your documents and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		service:   service,
		userID:    userID,
		sessionID: sessionID,
		input:     ti,
		viewport:  vp,
		status:    "Ready. Type a question.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		// account for frames around answer and question boxes
		_, ah := answerBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		totalHeaderLines := 1
		totalFooterLines := 1                                    // status
		reserved := totalHeaderLines + totalFooterLines + qh + 1 // 1 spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-ah)
		m.viewport.SetContent(m.renderAnswer())
		return m, nil
	case tea.KeyMsg:
		// Global quits
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q != "" {
				ans, err := m.service.Query(context.Background(), m.userID, m.userID, q, m.sessionID)
				if err != nil {
					m.status = "Error: " + err.Error()
					m.answer = ""
				} else {
					m.sessionID = ans.SessionID
					m.answer = ans.Answer
					m.lastQuery = q
					m.status = fmt.Sprintf("Answered %q (session %s)", q, shortID(ans.SessionID))
					m.input.SetValue("")
				}
				m.viewport.SetContent(m.renderAnswer())
				return m, nil
			}
		case "down":
			m.viewport.LineDown(1)
			return m, nil
		case "up":
			m.viewport.LineUp(1)
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the console layout and current answer.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("DocQuery — " + m.userID)
	answer := answerBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	return header + "\n" + answer + "\n" + input + "\n" + status
}

func (m Model) renderAnswer() string {
	if m.answer == "" {
		return "No answer yet."
	}
	q := questionStyle.Render("Q: " + m.lastQuery)
	return q + "\n\n" + m.answer
}

var (
	answerBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	questionStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
)

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
