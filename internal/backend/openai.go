package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/sashabaranov/go-openai"
)

// Provider kinds served by the OpenAI-compatible client.
const (
	KindOpenAI           = "openai"
	KindGroq             = "groq"
	KindOpenRouter       = "openrouter"
	KindOpenAICompatible = "openai_compatible"
)

var defaultBaseURLs = map[string]string{
	KindOpenAI:     "https://api.openai.com/v1",
	KindGroq:       "https://api.groq.com/openai/v1",
	KindOpenRouter: "https://openrouter.ai/api/v1",
}

// DefaultAPIKeyEnv returns the conventional credential variable for a kind.
func DefaultAPIKeyEnv(kind string) string {
	switch kind {
	case KindOpenAI:
		return "OPENAI_API_KEY"
	case KindGroq:
		return "GROQ_API_KEY"
	case KindOpenRouter:
		return "OPENROUTER_API_KEY"
	default:
		return ""
	}
}

// Kinds lists the supported provider kinds.
func Kinds() []string {
	return []string{KindOpenAI, KindGroq, KindOpenRouter, KindOpenAICompatible}
}

// HTTPDoer abstracts HTTP clients used by providers.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config describes one OpenAI-compatible backend.
type Config struct {
	ID        string
	Kind      string
	Model     string
	APIKey    string
	BaseURL   string
	MaxTokens int
	Client    HTTPDoer
}

// OpenAICompatible calls a chat-completions endpoint through go-openai.
type OpenAICompatible struct {
	id        string
	kind      string
	model     string
	maxTokens int
	client    *openai.Client
}

// NewOpenAICompatible validates cfg and builds the client.
func NewOpenAICompatible(cfg Config) (*OpenAICompatible, error) {
	if strings.TrimSpace(cfg.ID) == "" {
		return nil, fmt.Errorf("backend id is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("backend %s: model is required", cfg.ID)
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("backend %s: api key is required", cfg.ID)
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		known, ok := defaultBaseURLs[cfg.Kind]
		if !ok {
			return nil, fmt.Errorf("backend %s: base url is required for kind %q", cfg.ID, cfg.Kind)
		}
		baseURL = known
	}
	var doer HTTPDoer = http.DefaultClient
	if cfg.Client != nil {
		doer = cfg.Client
	}
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = strings.TrimRight(baseURL, "/")
	clientConfig.HTTPClient = headerRecorder{next: doer}
	return &OpenAICompatible{
		id:        cfg.ID,
		kind:      cfg.Kind,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		client:    openai.NewClientWithConfig(clientConfig),
	}, nil
}

func (b *OpenAICompatible) ID() string   { return b.id }
func (b *OpenAICompatible) Kind() string { return b.kind }

// Complete sends prompt as a single user message.
func (b *OpenAICompatible) Complete(ctx context.Context, prompt string) (string, error) {
	capture := &headerCapture{}
	ctx = context.WithValue(ctx, headerCaptureKey{}, capture)
	req := openai.ChatCompletionRequest{
		Model: b.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}
	// OpenAI rejects max_tokens for reasoning models; other providers only
	// document max_tokens.
	if b.kind == KindOpenAI {
		req.MaxCompletionTokens = b.maxTokens
	} else {
		req.MaxTokens = b.maxTokens
	}
	resp, err := b.client.CreateChatCompletion(ctx, req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", b.classify(err, capture.get())
	}
	if len(resp.Choices) == 0 {
		return "", &Error{Backend: b.id, Kind: b.kind, Message: "no choices returned"}
	}
	return resp.Choices[0].Message.Content, nil
}

func (b *OpenAICompatible) classify(err error, header http.Header) error {
	result := &Error{Backend: b.id, Kind: b.kind, Message: err.Error(), Header: header, Err: err}
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		result.StatusCode = apiErr.HTTPStatusCode
		result.Message = apiErr.Message
		if code, ok := apiErr.Code.(string); ok && code == "rate_limit_exceeded" {
			result.RateLimited = true
		}
	case errors.As(err, &reqErr):
		result.StatusCode = reqErr.HTTPStatusCode
	}
	if result.StatusCode == http.StatusTooManyRequests {
		result.RateLimited = true
	}
	return result
}

type headerCaptureKey struct{}

// headerCapture keeps the response headers of one request so that
// Retry-After is available after go-openai has turned the response into an
// error.
type headerCapture struct {
	mu     sync.Mutex
	header http.Header
}

func (c *headerCapture) set(header http.Header) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.header = header.Clone()
}

func (c *headerCapture) get() http.Header {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.header
}

type headerRecorder struct {
	next HTTPDoer
}

func (r headerRecorder) Do(req *http.Request) (*http.Response, error) {
	resp, err := r.next.Do(req)
	if err != nil || resp == nil {
		return resp, err
	}
	if capture, ok := req.Context().Value(headerCaptureKey{}).(*headerCapture); ok && resp.StatusCode >= 400 {
		capture.set(resp.Header)
	}
	return resp, err
}
