package app

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"nexus/internal/types"
)

const untitledSession = "(untitled)"

// renderSidebar draws one line per session. The cursor row is highlighted
// when the sidebar has focus; the current session is always marked.
func renderSidebar(sessions []*types.ChatSession, currentID string, cursor int, focused bool, width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	lines := make([]string, 0, height)
	lines = append(lines, headerStyle.Render(truncateToWidth("Chats", width)))
	if len(sessions) == 0 {
		lines = append(lines, helpStyle.Render(truncateToWidth("ctrl+n to start", width)))
	}

	start := 0
	visible := height - 1
	if visible > 0 && cursor >= visible {
		start = cursor - visible + 1
	}
	for i := start; i < len(sessions) && len(lines) < height; i++ {
		session := sessions[i]
		marker := "  "
		if session.ID.String() == currentID {
			marker = "• "
		}
		row := padToWidth(marker+truncateToWidth(sessionTitle(session), width-2), width)
		switch {
		case focused && i == cursor:
			row = selectedStyle.Render(row)
		case session.ID.String() == currentID:
			row = activeSessionStyle.Render(row)
		default:
			row = sessionStyle.Render(row)
		}
		lines = append(lines, row)
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func sessionTitle(session *types.ChatSession) string {
	if session == nil {
		return untitledSession
	}
	title := strings.Join(strings.Fields(session.Title), " ")
	if title == "" {
		return untitledSession
	}
	return title
}

func truncateToWidth(text string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(text) <= width {
		return text
	}
	return runewidth.Truncate(text, width, "…")
}

func padToWidth(text string, width int) string {
	return runewidth.FillRight(text, width)
}
