package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nexus/internal/logging"
	"nexus/internal/ollama"
)

type fakeChat struct {
	got  ollama.ChatRequest
	resp *ollama.ChatResponse
	err  error
}

func (f *fakeChat) Chat(ctx context.Context, req ollama.ChatRequest) (*ollama.ChatResponse, error) {
	f.got = req
	return f.resp, f.err
}

func newTestServer(chat ChatClient) *httptest.Server {
	return httptest.NewServer(New("", "test", chat, logging.Nop()).Handler())
}

func TestChatRelaysEnvelope(t *testing.T) {
	chat := &fakeChat{resp: &ollama.ChatResponse{
		Model:   "phi4:14b",
		Message: ollama.Message{Role: "assistant", Content: "hi"},
		Done:    true,
	}}
	server := newTestServer(chat)
	defer server.Close()

	body := `{"messages":[{"role":"user","content":"hello"}]}`
	resp, err := http.Post(server.URL+"/api/chat", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-Id") == "" {
		t.Fatalf("expected request id header")
	}
	var out ollama.ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Message.Content != "hi" || !out.Done {
		t.Fatalf("unexpected envelope: %#v", out)
	}
	if chat.got.Stream || len(chat.got.Messages) != 1 || chat.got.Messages[0].Content != "hello" {
		t.Fatalf("unexpected forwarded request: %#v", chat.got)
	}
}

func TestChatFailureEnvelope(t *testing.T) {
	server := newTestServer(&fakeChat{err: errors.New("connection refused")})
	defer server.Close()

	resp, err := http.Post(server.URL+"/api/chat", "application/json", strings.NewReader(`{"messages":[]}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
	var out map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out["error"] != "Failed to process the request" || out["details"] != "connection refused" {
		t.Fatalf("unexpected error body: %#v", out)
	}
}

func TestChatInvalidBody(t *testing.T) {
	chat := &fakeChat{}
	server := newTestServer(chat)
	defer server.Close()

	resp, err := http.Post(server.URL+"/api/chat", "application/json", bytes.NewBufferString("{"))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
}

func TestChatRejectsOversizedBody(t *testing.T) {
	chat := &fakeChat{}
	server := newTestServer(chat)
	defer server.Close()

	content := strings.Repeat("a", maxChatBodyBytes)
	body := `{"messages":[{"role":"user","content":"` + content + `"}]}`
	resp, err := http.Post(server.URL+"/api/chat", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", resp.StatusCode)
	}
	var envelope map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope["error"] != relayFailureMessage {
		t.Fatalf("unexpected envelope: %#v", envelope)
	}
	if len(chat.got.Messages) != 0 {
		t.Fatalf("oversized request must not reach the model")
	}
}

func TestChatRejectsOtherMethods(t *testing.T) {
	server := newTestServer(&fakeChat{})
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/chat")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.StatusCode)
	}
}

func TestHealth(t *testing.T) {
	server := newTestServer(&fakeChat{})
	defer server.Close()

	req, _ := http.NewRequest(http.MethodGet, server.URL+"/health", nil)
	req.Header.Set("X-Request-Id", "abc")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.Header.Get("X-Request-Id") != "abc" {
		t.Fatalf("expected request id to be echoed")
	}
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out["ok"] != true || out["version"] != "test" {
		t.Fatalf("unexpected health: %#v", out)
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- New("", "test", &fakeChat{}, logging.Nop()).Serve(ctx, ln)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for {
		resp, err := http.Get("http://" + ln.Addr().String() + "/health")
		if err == nil {
			resp.Body.Close()
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("server did not start: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("server did not stop")
	}
}
