// Package app is the terminal chat interface. It renders chatstate snapshots
// and routes every user action through the chatstate store.
package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"

	"nexus/internal/chatstate"
	"nexus/internal/logging"
)

const (
	minListWidth     = 20
	maxListWidth     = 36
	minViewportWidth = 20
	minContentHeight = 3
	composerHeight   = 3
	defaultTitle     = "New Chat"
)

type focusArea int

const (
	focusComposer focusArea = iota
	focusSidebar
)

type Options struct {
	NewSessionTitle string
	Logger          logging.Logger
}

type Model struct {
	store  *chatstate.Store
	logger logging.Logger
	keys   keyMap

	viewport viewport.Model
	composer textarea.Model
	spinner  spinner.Model

	snapshot        chatstate.State
	renderedVersion uint64
	renderedSession string

	focus        focusArea
	cursor       int
	pendingSends int
	status       string
	statusErr    bool
	newTitle     string
	width        int
	height       int
	listWidth    int
}

func NewModel(store *chatstate.Store, opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	title := strings.TrimSpace(opts.NewSessionTitle)
	if title == "" {
		title = defaultTitle
	}

	composer := textarea.New()
	composer.Placeholder = "Message"
	composer.ShowLineNumbers = false
	composer.Prompt = ""
	composer.CharLimit = 0
	composer.SetHeight(composerHeight)
	composer.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter", "ctrl+j"))
	composer.Focus()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = activityStyle

	m := Model{
		store:    store,
		logger:   logger.With(logging.F("component", "ui")),
		keys:     defaultKeyMap(),
		viewport: viewport.New(minViewportWidth, minContentHeight),
		composer: composer,
		spinner:  sp,
		snapshot: store.Snapshot(),
		newTitle: title,
		status:   "loading chats",
	}
	m.resize(80, 24)
	return m
}

func Run(store *chatstate.Store, opts Options) error {
	m := NewModel(store, opts)
	p := tea.NewProgram(&m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(initializeCmd(m.store), textarea.Blink)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil
	case storeResultMsg:
		return m, m.onStoreResult(msg)
	case spinner.TickMsg:
		m.sync()
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	var cmd tea.Cmd
	m.composer, cmd = m.composer.Update(msg)
	return m, cmd
}

func (m *Model) View() string {
	sidebar := renderSidebar(m.snapshot.Sessions, m.snapshot.CurrentSessionID, m.cursor, m.focus == focusSidebar, m.listWidth, m.height)
	divider := dividerStyle.Render(strings.TrimRight(strings.Repeat("│\n", m.height), "\n"))

	composerBox := composerStyle
	if m.focus == focusComposer {
		composerBox = composerFocusStyle
	}
	right := lipgloss.JoinVertical(lipgloss.Left,
		headerStyle.Render(truncateToWidth(m.headerText(), m.viewport.Width)),
		m.viewport.View(),
		composerBox.Render(m.composer.View()),
		m.statusLine(),
	)
	return lipgloss.JoinHorizontal(lipgloss.Top, sidebar, divider, right)
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.NewSession):
		m.setStatus("creating chat")
		return createSessionCmd(m.store, m.newTitle)
	case key.Matches(msg, m.keys.Focus):
		m.toggleFocus()
		return nil
	case key.Matches(msg, m.keys.Delete):
		return m.deleteCurrent()
	case key.Matches(msg, m.keys.Rename):
		return m.renameCurrent()
	case key.Matches(msg, m.keys.CopyCode):
		m.copyLastCodeBlock()
		return nil
	case key.Matches(msg, m.keys.CycleModel):
		m.cycleModel()
		return nil
	case key.Matches(msg, m.keys.ScrollUp), key.Matches(msg, m.keys.ScrollDown):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return cmd
	}

	if m.focus == focusSidebar {
		switch {
		case key.Matches(msg, m.keys.Up):
			return m.moveCursor(-1)
		case key.Matches(msg, m.keys.Down):
			return m.moveCursor(1)
		case key.Matches(msg, m.keys.Send):
			return m.selectAtCursor()
		}
		return nil
	}

	if key.Matches(msg, m.keys.Send) {
		return m.send()
	}
	var cmd tea.Cmd
	m.composer, cmd = m.composer.Update(msg)
	return cmd
}

func (m *Model) onStoreResult(msg storeResultMsg) tea.Cmd {
	if msg.op == opSend && m.pendingSends > 0 {
		m.pendingSends--
	}
	m.sync()

	if msg.err != nil {
		m.logger.Warn("ui_action_failed", logging.F("op", string(msg.op)), logging.Err(msg.err))
		switch {
		case errors.Is(msg.err, chatstate.ErrBusy):
			m.setStatus("still waiting for the previous reply")
		case msg.op == opInitialize:
			m.setStatusError("backend unavailable: " + msg.err.Error())
		default:
			m.setStatusError(fmt.Sprintf("%s failed: %v", msg.op, msg.err))
		}
		// Give back what the user typed unless they already started over.
		if (msg.op == opSend || msg.op == opRename) && strings.TrimSpace(m.composer.Value()) == "" {
			m.composer.SetValue(msg.draft)
		}
		return nil
	}

	switch msg.op {
	case opInitialize:
		m.setStatus(fmt.Sprintf("%d chats", len(m.snapshot.Sessions)))
	case opCreate:
		m.setStatus("new chat")
		m.focusComposer()
	case opDelete:
		m.setStatus("chat deleted")
	case opRename:
		m.setStatus("renamed")
	case opSend:
		m.setStatus("")
	default:
		m.setStatus("")
	}
	return nil
}

func (m *Model) send() tea.Cmd {
	text := m.composer.Value()
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if m.busy() {
		m.setStatus("still waiting for the previous reply")
		return nil
	}
	if m.snapshot.Current() == nil {
		m.setStatus("no chat selected; press ctrl+n")
		return nil
	}
	m.composer.Reset()
	m.pendingSends++
	m.setStatus("thinking")
	return tea.Batch(sendMessageCmd(m.store, text), m.spinner.Tick)
}

func (m *Model) deleteCurrent() tea.Cmd {
	id := m.snapshot.CurrentSessionID
	if m.focus == focusSidebar && m.cursor < len(m.snapshot.Sessions) {
		id = m.snapshot.Sessions[m.cursor].ID.String()
	}
	if id == "" {
		m.setStatus("nothing to delete")
		return nil
	}
	m.setStatus("deleting chat")
	return deleteSessionCmd(m.store, id)
}

func (m *Model) renameCurrent() tea.Cmd {
	id := m.snapshot.CurrentSessionID
	if id == "" {
		m.setStatus("nothing to rename")
		return nil
	}
	title := strings.TrimSpace(m.composer.Value())
	if title == "" {
		m.setStatus("type the new title in the composer, then ctrl+r")
		return nil
	}
	m.composer.Reset()
	return renameSessionCmd(m.store, id, title)
}

func (m *Model) copyLastCodeBlock() {
	block, ok := lastCodeBlock(m.snapshot.Current())
	if !ok || strings.TrimSpace(block.Code) == "" {
		m.setStatus("no code block to copy")
		return
	}
	method, err := copyTextToClipboard(block.Code)
	if err != nil {
		m.setStatusError("copy failed: " + err.Error())
		return
	}
	m.setStatus(fmt.Sprintf("code copied (%s clipboard)", method))
}

func (m *Model) cycleModel() {
	models := m.snapshot.Models
	if len(models) == 0 {
		m.setStatus("no models available")
		return
	}
	next := models[0]
	for i, name := range models {
		if name == m.snapshot.SelectedModel {
			next = models[(i+1)%len(models)]
			break
		}
	}
	if err := m.store.SelectModel(next); err != nil {
		m.setStatusError(err.Error())
		return
	}
	m.sync()
	m.setStatus("model: " + next)
}

func (m *Model) moveCursor(delta int) tea.Cmd {
	n := len(m.snapshot.Sessions)
	if n == 0 {
		return nil
	}
	next := m.cursor + delta
	if next < 0 || next >= n {
		return nil
	}
	m.cursor = next
	return m.selectAtCursor()
}

func (m *Model) selectAtCursor() tea.Cmd {
	if m.cursor < 0 || m.cursor >= len(m.snapshot.Sessions) {
		return nil
	}
	return selectSessionCmd(m.store, m.snapshot.Sessions[m.cursor].ID.String())
}

func (m *Model) toggleFocus() {
	if m.focus == focusComposer {
		m.focus = focusSidebar
		m.composer.Blur()
		return
	}
	m.focusComposer()
}

func (m *Model) focusComposer() {
	m.focus = focusComposer
	m.composer.Focus()
}

// sync pulls a fresh snapshot and re-renders the transcript only when the
// store changed or the layout did.
func (m *Model) sync() {
	version := m.store.Version()
	if version == m.renderedVersion && m.snapshot.Phase == chatstate.PhaseLoaded {
		return
	}
	m.snapshot = m.store.Snapshot()
	if _, idx := m.snapshot.Session(m.snapshot.CurrentSessionID); idx >= 0 && m.focus == focusComposer {
		m.cursor = idx
	}
	if m.cursor >= len(m.snapshot.Sessions) {
		m.cursor = max(len(m.snapshot.Sessions)-1, 0)
	}
	m.renderViewport()
	m.renderedVersion = version
}

func (m *Model) renderViewport() {
	current := m.snapshot.Current()
	switched := m.renderedSession != m.snapshot.CurrentSessionID
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(renderTranscript(current, m.viewport.Width))
	if switched || atBottom {
		m.viewport.GotoBottom()
	}
	m.renderedSession = m.snapshot.CurrentSessionID
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	listWidth := clamp(width/4, minListWidth, maxListWidth)
	if width-listWidth-1 < minViewportWidth {
		listWidth = max(width-minViewportWidth-1, 0)
	}
	m.listWidth = listWidth
	contentWidth := max(width-listWidth-1, minViewportWidth)
	// header + composer with border + status line
	chrome := 1 + composerHeight + 2 + 1
	m.viewport.Width = contentWidth
	m.viewport.Height = max(height-chrome, minContentHeight)
	m.composer.SetWidth(max(contentWidth-2, 1))
	m.renderViewport()
}

func (m *Model) busy() bool {
	return m.pendingSends > 0 || m.snapshot.Busy
}

func (m *Model) headerText() string {
	current := m.snapshot.Current()
	if current == nil {
		return "nexus"
	}
	return sessionTitle(current)
}

func (m *Model) statusLine() string {
	parts := make([]string, 0, 3)
	if m.busy() {
		parts = append(parts, m.spinner.View())
	}
	if m.status != "" {
		style := statusStyle
		if m.statusErr {
			style = statusErrorStyle
		}
		parts = append(parts, style.Render(m.status))
	}
	if model := m.snapshot.SelectedModel; model != "" {
		parts = append(parts, helpStyle.Render("["+model+"]"))
	}
	if len(parts) == 0 {
		parts = append(parts, helpStyle.Render(m.keys.helpLine()))
	}
	return xansi.Truncate(strings.Join(parts, " "), m.viewport.Width, "…")
}

func (m *Model) setStatus(status string) {
	m.status = status
	m.statusErr = false
}

func (m *Model) setStatusError(status string) {
	m.status = status
	m.statusErr = true
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
