package relay

import (
	"encoding/json"
	"net/http"
	"os"

	"nexus/internal/logging"
	"nexus/internal/ollama"
)

const (
	relayFailureMessage = "Failed to process the request"
	maxChatBodyBytes    = 4 << 20
)

type API struct {
	Version string
	Chat    ChatClient
	Logger  logging.Logger
}

type chatRequest struct {
	Model    string           `json:"model,omitempty"`
	Messages []ollama.Message `json:"messages"`
}

func (a *API) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", a.Health)
	mux.HandleFunc("/api/chat", a.ChatEndpoint)
}

func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"version": a.Version,
		"pid":     os.Getpid(),
	})
}

func (a *API) ChatEndpoint(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	var req chatRequest
	body := http.MaxBytesReader(w, r.Body, maxChatBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeRelayError(w, err)
		return
	}
	resp, err := a.Chat.Chat(r.Context(), ollama.ChatRequest{
		Model:    req.Model,
		Messages: req.Messages,
		Stream:   false,
	})
	if err != nil {
		a.logger().Error("relay_chat_failed", logging.Err(err))
		writeRelayError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) logger() logging.Logger {
	if a.Logger == nil {
		return logging.Nop()
	}
	return a.Logger
}
