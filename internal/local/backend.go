// Package local runs chat sessions without a remote backend: sessions are kept
// in a bbolt file and replies come straight from a local Ollama server.
package local

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"nexus/internal/ident"
	"nexus/internal/logging"
	"nexus/internal/ollama"
	"nexus/internal/store"
	"nexus/internal/types"
)

const titleRunes = 30

type Model interface {
	Chat(ctx context.Context, req ollama.ChatRequest) (*ollama.ChatResponse, error)
	ListModels(ctx context.Context) ([]string, error)
}

type Backend struct {
	sessions     store.SessionStore
	model        Model
	defaultModel string
	logger       logging.Logger
}

func New(sessions store.SessionStore, model Model, defaultModel string, logger logging.Logger) *Backend {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Backend{
		sessions:     sessions,
		model:        model,
		defaultModel: strings.TrimSpace(defaultModel),
		logger:       logger.With(logging.F("component", "local_backend")),
	}
}

func (b *Backend) ListSessions(ctx context.Context, limit, offset int) ([]*types.ChatSession, error) {
	return b.sessions.List(ctx, limit, offset)
}

// ListModels asks the model server; when it cannot be reached the configured
// default model is offered so sending still works.
func (b *Backend) ListModels(ctx context.Context) ([]string, error) {
	models, err := b.model.ListModels(ctx)
	if err != nil || len(models) == 0 {
		if err != nil {
			b.logger.Warn("list_models_failed", logging.Err(err))
		}
		if b.defaultModel == "" {
			return []string{}, nil
		}
		return []string{b.defaultModel}, nil
	}
	return models, nil
}

func (b *Backend) CreateSession(ctx context.Context, title string) (*types.ChatSession, error) {
	return b.sessions.Create(ctx, ident.New(), title)
}

func (b *Backend) GetSession(ctx context.Context, id string) (*types.ChatSession, error) {
	return b.sessions.Get(ctx, id)
}

func (b *Backend) RenameSession(ctx context.Context, id, title string) (*types.ChatSession, error) {
	return b.sessions.Rename(ctx, id, title)
}

func (b *Backend) DeleteSession(ctx context.Context, id string) error {
	return b.sessions.Delete(ctx, id)
}

// SendMessage stores the user message, asks the model with the whole history
// and stores the reply. The first reply in a session also names it.
func (b *Backend) SendMessage(ctx context.Context, id, content, model string) (*types.ChatMessage, error) {
	if strings.TrimSpace(content) == "" {
		return nil, errors.New("message content is required")
	}
	model = strings.TrimSpace(model)
	if model == "" {
		model = b.defaultModel
	}
	session, err := b.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	firstExchange := len(session.Messages) == 0

	user, err := b.sessions.AppendMessage(ctx, &types.ChatMessage{
		ID:      types.ID(ident.New()),
		ChatID:  session.ID,
		Role:    types.RoleUser,
		Content: content,
		Model:   model,
	})
	if err != nil {
		return nil, fmt.Errorf("save user message: %w", err)
	}

	history := make([]ollama.Message, 0, len(session.Messages)+1)
	for _, msg := range session.Messages {
		history = append(history, ollama.Message{Role: string(msg.Role), Content: msg.Content})
	}
	history = append(history, ollama.Message{Role: string(user.Role), Content: user.Content})

	resp, err := b.model.Chat(ctx, ollama.ChatRequest{Model: model, Messages: history})
	if err != nil {
		b.logger.Error("model_chat_failed", logging.F("session_id", id), logging.Err(err))
		return nil, fmt.Errorf("model reply: %w", err)
	}
	if resp.Model != "" {
		model = resp.Model
	}

	reply, err := b.sessions.AppendMessage(ctx, &types.ChatMessage{
		ID:      types.ID(ident.New()),
		ChatID:  session.ID,
		Role:    types.RoleAssistant,
		Content: resp.Message.Content,
		Model:   model,
	})
	if err != nil {
		return nil, fmt.Errorf("save reply: %w", err)
	}

	if firstExchange {
		if _, err := b.sessions.Rename(ctx, id, titleFromReply(reply.Content)); err != nil {
			b.logger.Warn("retitle_failed", logging.F("session_id", id), logging.Err(err))
		}
	}
	return reply, nil
}

func titleFromReply(content string) string {
	runes := []rune(strings.TrimSpace(content))
	if len(runes) > titleRunes {
		runes = runes[:titleRunes]
	}
	return string(runes) + "..."
}
