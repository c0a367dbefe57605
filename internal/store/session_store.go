// Package store persists chat sessions for the standalone backend.
package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"nexus/internal/types"
)

var ErrSessionNotFound = errors.New("session not found")

type SessionStore interface {
	List(ctx context.Context, limit, offset int) ([]*types.ChatSession, error)
	Get(ctx context.Context, id string) (*types.ChatSession, error)
	Create(ctx context.Context, id, title string) (*types.ChatSession, error)
	Rename(ctx context.Context, id, title string) (*types.ChatSession, error)
	Delete(ctx context.Context, id string) error
	AppendMessage(ctx context.Context, msg *types.ChatMessage) (*types.ChatMessage, error)
	Close() error
}

// sessionRecord is the stored form of a session. Messages live in their own
// bucket so appending does not rewrite the session.
type sessionRecord struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type messageRecord struct {
	ID        string     `json:"id"`
	ChatID    string     `json:"chat_id"`
	Role      types.Role `json:"role"`
	Content   string     `json:"content"`
	Model     string     `json:"model,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func (r *sessionRecord) toSession(messages []*types.ChatMessage) *types.ChatSession {
	if messages == nil {
		messages = []*types.ChatMessage{}
	}
	return &types.ChatSession{
		ID:        types.ID(r.ID),
		Title:     r.Title,
		Messages:  messages,
		CreatedAt: formatTime(r.CreatedAt),
		UpdatedAt: formatTime(r.UpdatedAt),
	}
}

func (r *messageRecord) toMessage() *types.ChatMessage {
	return &types.ChatMessage{
		ID:        types.ID(r.ID),
		ChatID:    types.ID(r.ChatID),
		Role:      r.Role,
		Content:   r.Content,
		Model:     r.Model,
		CreatedAt: formatTime(r.CreatedAt),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func page[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return items[:0]
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func normalizeID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", errors.New("session id is required")
	}
	return id, nil
}
