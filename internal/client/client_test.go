package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"nexus/internal/ident"
	"nexus/internal/logging"
)

func newTestClient(url string) *Client {
	return &Client{
		baseURL: url,
		http:    &http.Client{},
		logger:  logging.Nop(),
	}
}

func TestClientSetsJSONHeaders(t *testing.T) {
	var contentType, accept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		accept = r.Header.Get("Accept")
		_, _ = w.Write([]byte(`["m1","m2"]`))
	}))
	defer server.Close()

	models, err := newTestClient(server.URL).ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels error: %v", err)
	}
	if len(models) != 2 || models[0] != "m1" || models[1] != "m2" {
		t.Fatalf("unexpected models: %#v", models)
	}
	if contentType != "application/json" || accept != "application/json" {
		t.Fatalf("unexpected headers: content-type=%q accept=%q", contentType, accept)
	}
}

func TestListSessionsQueryAndIdentifierNormalization(t *testing.T) {
	var seenPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenPath = r.URL.RequestURI()
		_, _ = w.Write([]byte(`[{"id":[0,1,2,3,4,5,6,7,8,9,10,11,12,13,14,15],"title":"Hi","messages":null}]`))
	}))
	defer server.Close()

	sessions, err := newTestClient(server.URL).ListSessions(context.Background(), 0, 0)
	if err != nil {
		t.Fatalf("ListSessions error: %v", err)
	}
	if seenPath != "/chats?limit=10&offset=0" {
		t.Fatalf("unexpected request path: %s", seenPath)
	}
	if len(sessions) != 1 || sessions[0].ID != "00010203-0405-0607-0809-0a0b0c0d0e0f" {
		t.Fatalf("unexpected sessions: %#v", sessions)
	}
	if sessions[0].Messages == nil {
		t.Fatalf("expected messages to be non-nil")
	}
}

func TestCreateRenameSendBodies(t *testing.T) {
	type seenRequest struct {
		method string
		path   string
		body   map[string]string
	}
	var seen []seenRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &body)
		seen = append(seen, seenRequest{method: r.Method, path: r.URL.Path, body: body})
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/chats":
			_, _ = w.Write([]byte(`{"id":"b","title":"New","messages":[]}`))
		case r.Method == http.MethodPut && r.URL.Path == "/chats/b":
			_, _ = w.Write([]byte(`{"id":"b","title":"Renamed"}`))
		case r.Method == http.MethodPost && r.URL.Path == "/chats/b/messages":
			_, _ = w.Write([]byte(`{"id":"m","chat_id":"b","role":"assistant","content":"hi there","model":"m1"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	ctx := context.Background()
	session, err := c.CreateSession(ctx, "New")
	if err != nil || session.ID != "b" {
		t.Fatalf("CreateSession: session=%#v err=%v", session, err)
	}
	renamed, err := c.RenameSession(ctx, "b", "Renamed")
	if err != nil || renamed.Title != "Renamed" {
		t.Fatalf("RenameSession: session=%#v err=%v", renamed, err)
	}
	msg, err := c.SendMessage(ctx, "b", "hello", "m1")
	if err != nil || msg.Content != "hi there" || msg.ChatID != "b" {
		t.Fatalf("SendMessage: msg=%#v err=%v", msg, err)
	}

	if len(seen) != 3 {
		t.Fatalf("expected 3 requests, got %d", len(seen))
	}
	if seen[0].body["title"] != "New" {
		t.Fatalf("unexpected create body: %#v", seen[0].body)
	}
	if seen[1].body["title"] != "Renamed" {
		t.Fatalf("unexpected rename body: %#v", seen[1].body)
	}
	if seen[2].body["content"] != "hello" || seen[2].body["model"] != "m1" {
		t.Fatalf("unexpected send body: %#v", seen[2].body)
	}
}

func TestDeleteSessionAcceptsNoContent(t *testing.T) {
	var method string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	if err := newTestClient(server.URL).DeleteSession(context.Background(), "a"); err != nil {
		t.Fatalf("DeleteSession error: %v", err)
	}
	if method != http.MethodDelete {
		t.Fatalf("unexpected method: %s", method)
	}
}

func TestEmptySuccessBodyIsDecodeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusCreated)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	ctx := context.Background()
	var decodeErr *DecodeError

	session, err := c.GetSession(ctx, "a")
	if !errors.As(err, &decodeErr) || session != nil {
		t.Fatalf("GetSession: expected DecodeError, got session=%#v err=%v", session, err)
	}
	session, err = c.CreateSession(ctx, "New")
	if !errors.As(err, &decodeErr) || session != nil {
		t.Fatalf("CreateSession: expected DecodeError, got session=%#v err=%v", session, err)
	}
	msg, err := c.SendMessage(ctx, "a", "hi", "m1")
	if !errors.As(err, &decodeErr) || msg != nil {
		t.Fatalf("SendMessage: expected DecodeError, got msg=%#v err=%v", msg, err)
	}
}

func TestSessionWithoutIDIsDecodeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"title":"ghost","messages":[]}`))
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	var decodeErr *DecodeError
	if _, err := c.GetSession(context.Background(), "a"); !errors.As(err, &decodeErr) {
		t.Fatalf("GetSession: expected DecodeError, got %v", err)
	}
	if _, err := c.CreateSession(context.Background(), "x"); !errors.As(err, &decodeErr) {
		t.Fatalf("CreateSession: expected DecodeError, got %v", err)
	}
}

func TestBackendErrorCarriesStatusAndBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("db down"))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).ListSessions(context.Background(), 10, 0)
	backendErr := AsBackendError(err)
	if backendErr == nil {
		t.Fatalf("expected BackendError, got %v", err)
	}
	if backendErr.StatusCode != http.StatusInternalServerError || backendErr.Body != "db down" {
		t.Fatalf("unexpected backend error: %#v", backendErr)
	}
}

func TestTransportErrorWhenServerUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := newTestClient(url).GetSession(context.Background(), "a")
	if !IsTransportError(err) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	var transportErr *TransportError
	if !errors.As(err, &transportErr) || transportErr.Cause == nil {
		t.Fatalf("expected cause on transport error: %#v", transportErr)
	}
}

func TestInvalidIdentifierSurfacesAsDecodeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":[1,2,3],"title":"bad"}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).GetSession(context.Background(), "a")
	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	if !errors.Is(err, ident.ErrInvalidIdentifier) {
		t.Fatalf("expected ErrInvalidIdentifier in chain, got %v", err)
	}
}

func TestMissingSessionIDFailsWithoutRequest(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).GetSession(context.Background(), "  ")
	if !errors.Is(err, ErrMissingID) {
		t.Fatalf("expected ErrMissingID, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected no request, got %d", calls)
	}
}

func TestListMessagesDefaultsLimit(t *testing.T) {
	var seenPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenPath = r.URL.RequestURI()
		_, _ = w.Write([]byte(`null`))
	}))
	defer server.Close()

	messages, err := newTestClient(server.URL).ListMessages(context.Background(), "a", 0, 5)
	if err != nil {
		t.Fatalf("ListMessages error: %v", err)
	}
	if seenPath != "/chats/a/messages?limit=50&offset=5" {
		t.Fatalf("unexpected request path: %s", seenPath)
	}
	if messages == nil || len(messages) != 0 {
		t.Fatalf("expected empty messages, got %#v", messages)
	}
}
