package app

import (
	"strings"

	"nexus/internal/types"
)

type codeBlock struct {
	Language string
	Code     string
}

// extractCodeBlocks returns the fenced code blocks in markdown content in
// document order. An unterminated fence runs to the end of the content.
func extractCodeBlocks(content string) []codeBlock {
	var (
		blocks  []codeBlock
		open    bool
		fence   string
		lang    string
		current []string
	)
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimRight(line, "\r")
		trimmed := strings.TrimLeft(line, " ")
		indent := len(line) - len(trimmed)
		if !open {
			marker, info, ok := parseFenceOpen(trimmed)
			if !ok || indent > 3 {
				continue
			}
			open = true
			fence = marker
			lang = info
			current = current[:0]
			continue
		}
		if indent <= 3 && isFenceClose(trimmed, fence) {
			blocks = append(blocks, codeBlock{Language: lang, Code: strings.Join(current, "\n")})
			open = false
			continue
		}
		current = append(current, line)
	}
	if open {
		blocks = append(blocks, codeBlock{Language: lang, Code: strings.Join(current, "\n")})
	}
	return blocks
}

func parseFenceOpen(line string) (marker, info string, ok bool) {
	if len(line) < 3 {
		return "", "", false
	}
	ch := line[0]
	if ch != '`' && ch != '~' {
		return "", "", false
	}
	n := 0
	for n < len(line) && line[n] == ch {
		n++
	}
	if n < 3 {
		return "", "", false
	}
	rest := strings.TrimSpace(line[n:])
	if ch == '`' && strings.ContainsRune(rest, '`') {
		return "", "", false
	}
	if fields := strings.Fields(rest); len(fields) > 0 {
		info = fields[0]
	}
	return line[:n], info, true
}

func isFenceClose(line, fence string) bool {
	if !strings.HasPrefix(line, fence) {
		return false
	}
	rest := strings.TrimLeft(line, fence[:1])
	return strings.TrimSpace(rest) == ""
}

// lastCodeBlock finds the newest code block in the session, searching
// messages from the most recent backwards.
func lastCodeBlock(session *types.ChatSession) (codeBlock, bool) {
	if session == nil {
		return codeBlock{}, false
	}
	for i := len(session.Messages) - 1; i >= 0; i-- {
		msg := session.Messages[i]
		if msg == nil {
			continue
		}
		blocks := extractCodeBlocks(msg.Content)
		if len(blocks) > 0 {
			return blocks[len(blocks)-1], true
		}
	}
	return codeBlock{}, false
}
