package main

import (
	"context"
	"os"

	"nexus/internal/client"
	"nexus/internal/config"
	"nexus/internal/logging"
	"nexus/internal/types"
)

type clientFactory func() (commandClient, error)

type commandClient interface {
	ListSessions(ctx context.Context, limit, offset int) ([]*types.ChatSession, error)
	CreateSession(ctx context.Context, title string) (*types.ChatSession, error)
	GetSession(ctx context.Context, id string) (*types.ChatSession, error)
	RenameSession(ctx context.Context, id, title string) (*types.ChatSession, error)
	DeleteSession(ctx context.Context, id string) error
	SendMessage(ctx context.Context, id, content, model string) (*types.ChatMessage, error)
	ListMessages(ctx context.Context, id string, limit, offset int) ([]*types.ChatMessage, error)
	ListModels(ctx context.Context) ([]string, error)
}

// newBackendClient builds a transport client from the user's config. Client
// logs go to stderr so they never mix with command output.
func newBackendClient() (commandClient, error) {
	cfg, err := config.LoadCoreConfig()
	if err != nil {
		return nil, err
	}
	return client.New(cfg, newStderrLogger(cfg)), nil
}

var _ commandClient = (*client.Client)(nil)

func newStderrLogger(cfg config.CoreConfig) logging.Logger {
	return logging.New(os.Stderr, logging.ParseLevel(cfg.LogLevel()))
}
