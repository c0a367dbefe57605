package app

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"nexus/internal/types"
)

const emptyTranscript = "No messages yet. Type below and press enter."

// renderTranscript renders every message of the session as a bubble sized to
// the viewport width.
func renderTranscript(session *types.ChatSession, width int) string {
	if session == nil {
		return helpStyle.Render("Select a chat or press ctrl+n to start one.")
	}
	if len(session.Messages) == 0 {
		return helpStyle.Render(emptyTranscript)
	}
	bubbleWidth := width - 2*chatBubblePaddingHorizontal - 2
	if bubbleWidth < 10 {
		bubbleWidth = 10
	}
	blocks := make([]string, 0, len(session.Messages))
	for _, msg := range session.Messages {
		if msg == nil {
			continue
		}
		blocks = append(blocks, renderMessage(msg, bubbleWidth))
	}
	return strings.Join(blocks, "\n\n")
}

func renderMessage(msg *types.ChatMessage, width int) string {
	meta := roleLabel(msg)
	var body string
	var style lipgloss.Style
	switch msg.Role {
	case types.RoleUser:
		body = strings.TrimRight(msg.Content, "\n")
		style = userBubbleStyle
	case types.RoleSystem:
		body = strings.TrimRight(msg.Content, "\n")
		style = systemBubbleStyle
	default:
		body = renderMarkdown(msg.Content, width-2*chatBubblePaddingHorizontal)
		style = agentBubbleStyle
	}
	return chatMetaStyle.Render(meta) + "\n" + style.Width(width).Render(body)
}

func roleLabel(msg *types.ChatMessage) string {
	switch msg.Role {
	case types.RoleUser:
		return "You"
	case types.RoleSystem:
		return "System"
	}
	if msg.Model != "" {
		return "Assistant · " + msg.Model
	}
	return "Assistant"
}
