package tui

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"docmate/internal/models"
)

// Chat is the conversational core the UI drives.
type Chat interface {
	ProcessUserInput(ctx context.Context, text string) string
}

// DefaultTranscriptPath is where Ctrl+S saves the conversation.
const DefaultTranscriptPath = "documate_conversation.txt"

type replyMsg struct {
	session int
	text    string
}

type savedMsg struct {
	path string
	err  error
}

// Model is the Bubble Tea model for a chat session.
type Model struct {
	ctx      context.Context
	chat     Chat
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	turns    []models.Turn
	waiting  bool
	ready    bool
	title    string
	notice   string

	// session changes on reset so replies to cleared questions are dropped.
	session        int
	transcriptPath string
}

// New creates a chat model. ctx bounds every request the session makes.
// transcriptPath defaults to DefaultTranscriptPath.
func New(ctx context.Context, chat Chat, title, transcriptPath string) Model {
	if transcriptPath == "" {
		transcriptPath = DefaultTranscriptPath
	}
	ti := textinput.New()
	ti.Prompt = "You: "
	ti.Placeholder = "Ask about the document, Ctrl+C to quit"
	ti.Focus()
	ti.CharLimit = 0

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))

	return Model{
		ctx:            ctx,
		chat:           chat,
		input:          ti,
		viewport:       viewport.New(0, 0),
		spinner:        sp,
		title:          title,
		transcriptPath: transcriptPath,
	}
}

// Turns returns the transcript so far.
func (m Model) Turns() []models.Turn { return m.turns }

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, fh := transcriptStyle.GetFrameSize()
		_, ih := inputStyle.GetFrameSize()
		reserved := 2 + ih + 1 + fh
		m.viewport.Width = max(20, msg.Width-2)
		m.viewport.Height = max(3, msg.Height-reserved)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyCtrlR:
			m.turns = nil
			m.waiting = false
			m.session++
			m.notice = "Chat reset"
			m.input.Reset()
			m.refresh()
			return m, nil
		case tea.KeyCtrlS:
			if len(m.turns) == 0 {
				m.notice = "Nothing to save yet"
				return m, nil
			}
			return m, m.save()
		case tea.KeyEnter:
			if m.waiting {
				return m, nil
			}
			text := m.input.Value()
			m.input.Reset()
			m.turns = append(m.turns, models.Turn{Sender: models.SenderUser, Text: text})
			m.waiting = true
			m.notice = ""
			m.refresh()
			return m, tea.Batch(m.ask(text), m.spinner.Tick)
		}

	case savedMsg:
		if msg.err != nil {
			m.notice = "Save failed: " + msg.err.Error()
		} else {
			m.notice = "Conversation saved to " + msg.path
		}
		return m, nil

	case replyMsg:
		if msg.session != m.session {
			return m, nil
		}
		m.waiting = false
		m.turns = append(m.turns, models.Turn{Sender: models.SenderAssistant, Text: msg.text})
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if !m.waiting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) ask(text string) tea.Cmd {
	session := m.session
	return func() tea.Msg {
		return replyMsg{session: session, text: m.chat.ProcessUserInput(m.ctx, text)}
	}
}

func (m Model) save() tea.Cmd {
	path, text := m.transcriptPath, Transcript(m.turns)
	return func() tea.Msg {
		if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
			return savedMsg{path: path, err: fmt.Errorf("writing transcript: %w", err)}
		}
		return savedMsg{path: path}
	}
}

// Transcript renders turns as "User: ..." and "DocuMate: ..." paragraphs.
func Transcript(turns []models.Turn) string {
	var b strings.Builder
	for _, t := range turns {
		if t.Sender == models.SenderUser {
			b.WriteString("User: ")
		} else {
			b.WriteString("DocuMate: ")
		}
		b.WriteString(t.Text)
		b.WriteString("\n\n")
	}
	return b.String()
}

func (m *Model) refresh() {
	m.viewport.SetContent(renderTranscript(m.turns, m.viewport.Width))
	m.viewport.GotoBottom()
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := titleStyle.Render(m.title)
	status := statusStyle.Render("Enter to send, Ctrl+R reset, Ctrl+S save, Ctrl+C quit")
	if m.notice != "" {
		status = statusStyle.Render(m.notice)
	}
	if m.waiting {
		status = m.spinner.View() + statusStyle.Render(" DocuMate is thinking...")
	}
	return header + "\n" +
		transcriptStyle.Render(m.viewport.View()) + "\n" +
		inputStyle.Render(m.input.View()) + "\n" +
		status
}

func renderTranscript(turns []models.Turn, width int) string {
	if len(turns) == 0 {
		return statusStyle.Render("Ask a question about the document.")
	}
	wrap := lipgloss.NewStyle().Width(max(10, width-2))
	var b strings.Builder
	for i, t := range turns {
		if i > 0 {
			b.WriteString("\n\n")
		}
		if t.Sender == models.SenderUser {
			b.WriteString(userStyle.Render("You: "))
		} else {
			b.WriteString(botStyle.Render("DocuMate: "))
		}
		b.WriteString(wrap.Render(t.Text))
	}
	return b.String()
}

var (
	titleStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13"))
	transcriptStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	userStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	botStyle        = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
)
