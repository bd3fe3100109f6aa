package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

// ChatReply is what a ChatServer returns for one request. A zero Status
// means 200 and Content becomes the assistant message.
type ChatReply struct {
	Status  int
	Content string
	Header  http.Header
	// ErrorCode and ErrorMessage fill the OpenAI error envelope on non-200 replies.
	ErrorCode    string
	ErrorMessage string
}

// ChatServer is an httptest server speaking the chat completions wire format.
type ChatServer struct {
	URL      string
	requests atomic.Int64
}

// Requests returns how many completions were requested.
func (s *ChatServer) Requests() int {
	return int(s.requests.Load())
}

// StartChatServer serves POST /chat/completions with reply, which receives
// the user prompt of each request.
func StartChatServer(t testing.TB, reply func(prompt string) ChatReply) *ChatServer {
	t.Helper()
	chat := &ChatServer{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		chat.requests.Add(1)
		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		prompt := ""
		if len(req.Messages) > 0 {
			prompt = req.Messages[len(req.Messages)-1].Content
		}
		out := reply(prompt)
		for key, values := range out.Header {
			for _, value := range values {
				w.Header().Add(key, value)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		if out.Status != 0 && out.Status != http.StatusOK {
			w.WriteHeader(out.Status)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"message": out.ErrorMessage, "type": "error", "code": out.ErrorCode},
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      fmt.Sprintf("chatcmpl-%d", chat.Requests()),
			"object":  "chat.completion",
			"model":   req.Model,
			"choices": []map[string]any{{"index": 0, "finish_reason": "stop", "message": map[string]any{"role": "assistant", "content": out.Content}}},
		})
	}))
	t.Cleanup(server.Close)
	chat.URL = server.URL
	return chat
}
