package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"nexus/internal/config"
	"nexus/internal/logging"
	"nexus/internal/types"
)

const (
	defaultSessionLimit = 10
	defaultMessageLimit = 50
)

var (
	errEmptyBody        = errors.New("empty response body")
	errMissingSessionID = errors.New("session has no id")
)

// Client talks to the chat backend. Every call is a single request with no
// retries; callers decide whether to try again.
type Client struct {
	baseURL string
	http    *http.Client
	logger  logging.Logger
}

func New(cfg config.CoreConfig, logger logging.Logger) *Client {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BackendBaseURL(), "/"),
		http: &http.Client{
			Timeout: cfg.BackendTimeout(),
		},
		logger: logger.With(logging.F("component", "client")),
	}
}

func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	var models []string
	if err := c.doJSON(ctx, http.MethodGet, "/models", nil, &models); err != nil {
		return nil, err
	}
	if models == nil {
		models = []string{}
	}
	return models, nil
}

func (c *Client) ListSessions(ctx context.Context, limit, offset int) ([]*types.ChatSession, error) {
	if limit <= 0 {
		limit = defaultSessionLimit
	}
	if offset < 0 {
		offset = 0
	}
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("offset", strconv.Itoa(offset))
	var sessions []*types.ChatSession
	if err := c.doJSON(ctx, http.MethodGet, "/chats?"+query.Encode(), nil, &sessions); err != nil {
		return nil, err
	}
	return compactSessions(sessions), nil
}

func (c *Client) CreateSession(ctx context.Context, title string) (*types.ChatSession, error) {
	var session types.ChatSession
	if err := c.doJSON(ctx, http.MethodPost, "/chats", CreateSessionRequest{Title: title}, &session); err != nil {
		return nil, err
	}
	if session.ID.IsZero() {
		return nil, &DecodeError{Path: "/chats", Cause: errMissingSessionID}
	}
	return &session, nil
}

func (c *Client) GetSession(ctx context.Context, id string) (*types.ChatSession, error) {
	path, err := sessionPath(id)
	if err != nil {
		return nil, err
	}
	var session types.ChatSession
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &session); err != nil {
		return nil, err
	}
	if session.ID.IsZero() {
		return nil, &DecodeError{Path: path, Cause: errMissingSessionID}
	}
	return &session, nil
}

func (c *Client) RenameSession(ctx context.Context, id, title string) (*types.ChatSession, error) {
	path, err := sessionPath(id)
	if err != nil {
		return nil, err
	}
	var session types.ChatSession
	if err := c.doJSON(ctx, http.MethodPut, path, UpdateSessionRequest{Title: title}, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *Client) DeleteSession(ctx context.Context, id string) error {
	path, err := sessionPath(id)
	if err != nil {
		return err
	}
	return c.doJSON(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) SendMessage(ctx context.Context, id, content, model string) (*types.ChatMessage, error) {
	path, err := sessionPath(id)
	if err != nil {
		return nil, err
	}
	var msg types.ChatMessage
	req := SendMessageRequest{Content: content, Model: model}
	if err := c.doJSON(ctx, http.MethodPost, path+"/messages", req, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (c *Client) ListMessages(ctx context.Context, id string, limit, offset int) ([]*types.ChatMessage, error) {
	path, err := sessionPath(id)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultMessageLimit
	}
	if offset < 0 {
		offset = 0
	}
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("offset", strconv.Itoa(offset))
	var messages []*types.ChatMessage
	if err := c.doJSON(ctx, http.MethodGet, path+"/messages?"+query.Encode(), nil, &messages); err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []*types.ChatMessage{}
	}
	return messages, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("backend_request_failed",
			logging.F("method", method),
			logging.F("path", path),
			logging.F("error", err),
		)
		return &TransportError{Method: method, Path: path, Cause: err}
	}
	defer resp.Body.Close()

	c.logger.Debug("backend_request",
		logging.F("method", method),
		logging.F("path", path),
		logging.F("status", resp.StatusCode),
		logging.F("latency_ms", time.Since(start).Milliseconds()),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeBackendError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	// An empty body is only acceptable when no payload is expected.
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			err = errEmptyBody
		}
		return &DecodeError{Path: path, Cause: err}
	}
	return nil
}

func decodeBackendError(resp *http.Response) error {
	data, _ := io.ReadAll(resp.Body)
	return &BackendError{StatusCode: resp.StatusCode, Body: string(data)}
}

func sessionPath(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("%w: session id is required", ErrMissingID)
	}
	return "/chats/" + url.PathEscape(id), nil
}

func compactSessions(sessions []*types.ChatSession) []*types.ChatSession {
	out := make([]*types.ChatSession, 0, len(sessions))
	for _, session := range sessions {
		if session == nil {
			continue
		}
		out = append(out, session)
	}
	return out
}
