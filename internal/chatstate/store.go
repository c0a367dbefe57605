// Package chatstate owns the client-side view of chat sessions.
//
// All mutations go through Store methods. Each method performs its backend
// round trip without holding the state lock, then commits the result through
// Reduce. The backend stays authoritative: after a message is sent the whole
// session is fetched again instead of being patched locally.
package chatstate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"nexus/internal/logging"
	"nexus/internal/types"
)

const (
	defaultSessionLimit = 10
	defaultSessionTitle = "New Chat"
)

var errMissingSessionID = errors.New("backend returned a session without an id")

// Backend is the subset of the chat API the store drives.
type Backend interface {
	ListSessions(ctx context.Context, limit, offset int) ([]*types.ChatSession, error)
	ListModels(ctx context.Context) ([]string, error)
	CreateSession(ctx context.Context, title string) (*types.ChatSession, error)
	GetSession(ctx context.Context, id string) (*types.ChatSession, error)
	RenameSession(ctx context.Context, id, title string) (*types.ChatSession, error)
	DeleteSession(ctx context.Context, id string) error
	SendMessage(ctx context.Context, id, content, model string) (*types.ChatMessage, error)
}

type Option func(*Store)

// WithSessionLimit sets how many sessions Initialize requests.
func WithSessionLimit(limit int) Option {
	return func(s *Store) {
		if limit > 0 {
			s.sessionLimit = limit
		}
	}
}

type Store struct {
	backend      Backend
	logger       logging.Logger
	sessionLimit int

	mu      sync.Mutex
	state   State
	version uint64
}

func New(backend Backend, logger logging.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = logging.Nop()
	}
	s := &Store{
		backend:      backend,
		logger:       logger.With(logging.F("component", "chatstate")),
		sessionLimit: defaultSessionLimit,
		state:        NewState(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Version increases by one for every committed transition.
func (s *Store) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Initialize loads sessions and models concurrently. A failed fetch is logged
// and treated as an empty result, so the store always ends up loaded. The
// returned error only reports what was degraded.
func (s *Store) Initialize(ctx context.Context) error {
	var (
		g           errgroup.Group
		sessions    []*types.ChatSession
		models      []string
		sessionsErr error
		modelsErr   error
	)
	g.Go(func() error {
		sessions, sessionsErr = s.backend.ListSessions(ctx, s.sessionLimit, 0)
		return nil
	})
	g.Go(func() error {
		models, modelsErr = s.backend.ListModels(ctx)
		return nil
	})
	_ = g.Wait()

	if sessionsErr != nil {
		s.logger.Error("load_sessions_failed", logging.Err(sessionsErr))
		sessions = nil
	}
	if modelsErr != nil {
		s.logger.Error("load_models_failed", logging.Err(modelsErr))
		models = nil
	}
	s.apply(Initialized{Sessions: sessions, Models: models})
	return errors.Join(sessionsErr, modelsErr)
}

// CreateSession creates a session on the backend and makes it current. A blank
// title becomes "New Chat".
func (s *Store) CreateSession(ctx context.Context, title string) (*types.ChatSession, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = defaultSessionTitle
	}
	session, err := s.backend.CreateSession(ctx, title)
	if err == nil && (session == nil || session.ID.IsZero()) {
		err = errMissingSessionID
	}
	if err != nil {
		s.logger.Error("create_session_failed", logging.Err(err))
		return nil, err
	}
	s.apply(SessionCreated{Session: session})
	return session.Clone(), nil
}

// SelectSession refetches the session so its history is current, then makes
// it the current session.
func (s *Store) SelectSession(ctx context.Context, id string) (*types.ChatSession, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, &ValidationError{Field: "id", Reason: "is required"}
	}
	session, err := s.backend.GetSession(ctx, id)
	if err != nil {
		s.logger.Error("select_session_failed", logging.F("session_id", id), logging.Err(err))
		return nil, err
	}
	if session == nil {
		return nil, errors.New("backend returned no session")
	}
	if session.ID.IsZero() {
		session.ID = types.ID(id)
	}
	s.apply(SessionSelected{Session: session})
	return session.Clone(), nil
}

func (s *Store) DeleteSession(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return &ValidationError{Field: "id", Reason: "is required"}
	}
	if err := s.backend.DeleteSession(ctx, id); err != nil {
		s.logger.Error("delete_session_failed", logging.F("session_id", id), logging.Err(err))
		return err
	}
	s.apply(SessionDeleted{ID: id})
	return nil
}

// RenameSession stores the title the backend echoes back, falling back to the
// requested title when the response carries none.
func (s *Store) RenameSession(ctx context.Context, id, title string) error {
	id = strings.TrimSpace(id)
	title = strings.TrimSpace(title)
	if id == "" {
		return &ValidationError{Field: "id", Reason: "is required"}
	}
	if title == "" {
		return &ValidationError{Field: "title", Reason: "is required"}
	}
	updated, err := s.backend.RenameSession(ctx, id, title)
	if err != nil {
		s.logger.Error("rename_session_failed", logging.F("session_id", id), logging.Err(err))
		return err
	}
	if updated != nil && strings.TrimSpace(updated.Title) != "" {
		title = updated.Title
	}
	s.apply(SessionRenamed{ID: id, Title: title})
	return nil
}

// SendMessage posts text to the current session and replaces the session with
// the backend's copy afterwards. It returns ErrBusy without touching the
// backend when another send is in flight.
func (s *Store) SendMessage(ctx context.Context, text string) error {
	s.mu.Lock()
	if s.state.Busy {
		s.mu.Unlock()
		return ErrBusy
	}
	if strings.TrimSpace(text) == "" {
		s.mu.Unlock()
		return &ValidationError{Field: "content", Reason: "is empty"}
	}
	if s.state.Current() == nil {
		s.mu.Unlock()
		return &ValidationError{Field: "session", Reason: "no current session"}
	}
	target := s.state.CurrentSessionID
	model := s.state.SelectedModel
	s.commitLocked(SendStarted{SessionID: target})
	s.mu.Unlock()

	logger := s.logger.With(logging.F("session_id", target))
	if _, err := s.backend.SendMessage(ctx, target, text, model); err != nil {
		logger.Error("send_message_failed", logging.Err(err))
		s.apply(SendFailed{SessionID: target})
		return err
	}
	session, err := s.backend.GetSession(ctx, target)
	if err == nil && (session == nil || session.ID.String() != target) {
		err = fmt.Errorf("refresh %s: %w", target, errMissingSessionID)
	}
	if err != nil {
		logger.Error("refresh_after_send_failed", logging.Err(err))
		s.apply(SendFailed{SessionID: target})
		return err
	}
	s.apply(SendCompleted{SessionID: target, Session: session})
	return nil
}

func (s *Store) SelectModel(model string) error {
	model = strings.TrimSpace(model)
	if model == "" {
		return &ValidationError{Field: "model", Reason: "is required"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.state.Models) > 0 && !s.state.HasModel(model) {
		return &ValidationError{Field: "model", Reason: "is not available"}
	}
	s.commitLocked(ModelSelected{Model: model})
	return nil
}

func (s *Store) apply(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commitLocked(ev)
}

func (s *Store) commitLocked(ev Event) {
	s.state = Reduce(s.state, ev)
	s.version++
}
