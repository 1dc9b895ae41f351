package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sandronatchkebia/ZuriKnowledgeBase/internal/chat"
	"github.com/sandronatchkebia/ZuriKnowledgeBase/internal/textutil"
)

// ChatPort is the TUI-facing subset of the chat agent.
type ChatPort interface {
	Turn(ctx context.Context, history chat.History, message string) chat.History
}

// UploadPort registers a local file for later indexing.
type UploadPort interface {
	Upload(src string) (string, error)
}

const uploadCommand = "/upload"

type turnDoneMsg struct{ history chat.History }

type uploadDoneMsg struct{ status string }

// Model is the Bubble Tea model for the chat shell.
type Model struct {
	ctx      context.Context
	agent    ChatPort
	uploads  UploadPort
	input    textinput.Model
	viewport viewport.Model
	history  chat.History
	summary  string
	status   string
	busy     bool
	ready    bool
}

// New creates a new TUI model instance. summary is shown under the title.
func New(ctx context.Context, agent ChatPort, uploads UploadPort, summary string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask something about the papers... (/upload <path> to add a file)"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		ctx:      ctx,
		agent:    agent,
		uploads:  uploads,
		input:    ti,
		viewport: vp,
		summary:  summary,
		status:   "Ready.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// History returns the exchanges of this session so far.
func (m Model) History() chat.History { return m.history }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, ch := chatBoxStyle.GetFrameSize()
		_, ih := inputBoxStyle.GetFrameSize()
		reserved := 2 + 1 + ih + 1 // header+summary, status, spacer
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-ch)
		m.refresh()
		return m, nil

	case turnDoneMsg:
		m.busy = false
		m.history = msg.history
		m.status = "Ready."
		m.refresh()
		return m, nil

	case uploadDoneMsg:
		m.busy = false
		m.status = msg.status
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			text := strings.TrimSpace(m.input.Value())
			if text == "" || m.busy {
				return m, nil
			}
			m.input.SetValue("")
			m.busy = true
			if text == uploadCommand || strings.HasPrefix(text, uploadCommand+" ") {
				m.status = "Uploading..."
				return m, m.upload(strings.TrimSpace(strings.TrimPrefix(text, uploadCommand)))
			}
			m.status = "Thinking..."
			return m, m.turn(text)
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) turn(message string) tea.Cmd {
	history := m.history
	return func() tea.Msg {
		return turnDoneMsg{history: m.agent.Turn(m.ctx, history, message)}
	}
}

func (m Model) upload(path string) tea.Cmd {
	return func() tea.Msg {
		if path == "" {
			return uploadDoneMsg{status: "Usage: /upload <path>"}
		}
		if m.uploads == nil {
			return uploadDoneMsg{status: "Error: uploads are disabled"}
		}
		status, err := m.uploads.Upload(path)
		if err != nil {
			return uploadDoneMsg{status: "Error: " + err.Error()}
		}
		return uploadDoneMsg{status: status}
	}
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderHistory())
	m.viewport.GotoBottom()
}

// View renders the TUI layout and the conversation.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Zuri Knowledge Base")
	summary := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.summary)
	conversation := chatBoxStyle.Render(m.viewport.View())
	input := inputBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	return header + "\n" + summary + "\n" + conversation + "\n" + input + "\n" + status
}

func (m Model) renderHistory() string {
	if len(m.history) == 0 {
		return "Ask AI research questions, powered by your uploaded papers."
	}
	var b strings.Builder
	for i, e := range m.history {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(userStyle.Render("You: "))
		b.WriteString(e.User)
		b.WriteString("\n")
		b.WriteString(assistantStyle.Render("Zuri: "))
		b.WriteString(highlightBestSentence(e.Assistant, e.User))
	}
	return b.String()
}

var (
	chatBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	userStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
)

// highlightBestSentence emphasises the reply sentence sharing the most
// content words with the question. The sentence is wrapped where it stands
// so list and paragraph breaks survive.
func highlightBestSentence(text, query string) string {
	qTokens := make(map[string]struct{})
	for _, t := range textutil.ContentWords(query) {
		qTokens[t] = struct{}{}
	}
	if len(qTokens) == 0 {
		return text
	}
	lines := strings.Split(text, "\n")
	count, bestLine, bestScore := 0, 0, 0
	best := ""
	for i, line := range lines {
		for _, s := range textutil.Sentences(line) {
			count++
			if score := tokenOverlapScore(qTokens, s); score > bestScore {
				bestScore, bestLine, best = score, i, s
			}
		}
	}
	if count < 2 || bestScore == 0 {
		return text
	}
	// Sentences collapses runs of spaces, so an irregular line may not
	// contain the sentence verbatim.
	start := strings.Index(lines[bestLine], best)
	if start < 0 {
		return text
	}
	line := lines[bestLine]
	lines[bestLine] = line[:start] + highlightStyle.Render(best) + line[start+len(best):]
	return strings.Join(lines, "\n")
}

func tokenOverlapScore(queryTokens map[string]struct{}, sentence string) int {
	score := 0
	for t := range textutil.TokenSet(sentence) {
		if _, ok := queryTokens[t]; ok {
			score++
		}
	}
	return score
}
