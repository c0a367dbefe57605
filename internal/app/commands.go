package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"nexus/internal/chatstate"
)

const requestTimeout = 10 * time.Second

func initializeCmd(store *chatstate.Store) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return storeResultMsg{op: opInitialize, err: store.Initialize(ctx)}
	}
}

func createSessionCmd(store *chatstate.Store, title string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		_, err := store.CreateSession(ctx, title)
		return storeResultMsg{op: opCreate, err: err}
	}
}

func selectSessionCmd(store *chatstate.Store, id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		_, err := store.SelectSession(ctx, id)
		return storeResultMsg{op: opSelect, err: err}
	}
}

func deleteSessionCmd(store *chatstate.Store, id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return storeResultMsg{op: opDelete, err: store.DeleteSession(ctx, id)}
	}
}

func renameSessionCmd(store *chatstate.Store, id, title string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return storeResultMsg{op: opRename, draft: title, err: store.RenameSession(ctx, id, title)}
	}
}

// sendMessageCmd has no deadline: model replies can take minutes.
func sendMessageCmd(store *chatstate.Store, text string) tea.Cmd {
	return func() tea.Msg {
		return storeResultMsg{op: opSend, draft: text, err: store.SendMessage(context.Background(), text)}
	}
}
