package app

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"

	"nexus/internal/types"
)

func TestTruncateToWidthHandlesWideRunes(t *testing.T) {
	got := truncateToWidth("日本語のタイトルです", 7)
	if w := runewidth.StringWidth(got); w > 7 {
		t.Fatalf("expected width <= 7, got %d (%q)", w, got)
	}
	if !strings.HasSuffix(got, "…") {
		t.Fatalf("expected ellipsis, got %q", got)
	}
	if truncateToWidth("short", 10) != "short" {
		t.Fatalf("short titles should be unchanged")
	}
}

func TestRenderSidebarMarksCurrentAndFillsHeight(t *testing.T) {
	sessions := []*types.ChatSession{
		{ID: "a", Title: "First chat"},
		{ID: "b", Title: ""},
	}
	out := renderSidebar(sessions, "b", 0, true, 20, 5)
	lines := strings.Split(out, "\n")
	if len(lines) != 5 {
		t.Fatalf("expected 5 lines, got %d", len(lines))
	}
	plain := ansi.Strip(out)
	if !strings.Contains(plain, "First chat") || !strings.Contains(plain, "• "+untitledSession) {
		t.Fatalf("unexpected sidebar:\n%s", plain)
	}
	for _, line := range lines {
		if w := ansi.StringWidth(line); w > 20 {
			t.Fatalf("line wider than sidebar: %d %q", w, ansi.Strip(line))
		}
	}
}

func TestRenderSidebarScrollsToCursor(t *testing.T) {
	sessions := make([]*types.ChatSession, 0, 10)
	for i := 0; i < 10; i++ {
		sessions = append(sessions, &types.ChatSession{ID: types.ID(string(rune('a' + i))), Title: "chat " + string(rune('a'+i))})
	}
	plain := ansi.Strip(renderSidebar(sessions, "", 9, true, 20, 4))
	if !strings.Contains(plain, "chat j") || strings.Contains(plain, "chat a") {
		t.Fatalf("expected view scrolled to cursor:\n%s", plain)
	}
}
