package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// chatMessage is the shared message shape for chat-style providers.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatRequest is the hosted chat-completions request body.
type chatRequest struct {
	Model               string        `json:"model"`
	Messages            []chatMessage `json:"messages"`
	Temperature         float64       `json:"temperature"`
	TopP                float64       `json:"top_p"`
	MaxCompletionTokens int           `json:"max_completion_tokens"`
	Stream              bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func chatMessages(r resolved) []chatMessage {
	msgs := make([]chatMessage, 0, 2)
	if r.system != "" {
		msgs = append(msgs, chatMessage{Role: "system", Content: r.system})
	}
	msgs = append(msgs, chatMessage{Role: "user", Content: r.user})
	return msgs
}

func postJSON(ctx context.Context, url string, body any) (*http.Request, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func extractChat(body []byte) (string, error) {
	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: decoding chat response: %v", ErrUnparseable, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: chat response has no choices", ErrUnparseable)
	}
	return resp.Choices[0].Message.Content, nil
}

// ---- local Ollama provider ----

// ollamaAdapter speaks the local Ollama generate API and pulls the model
// on first use if the server does not have it yet.
type ollamaAdapter struct {
	http *http.Client

	mu      sync.Mutex
	ensured map[string]bool
}

func newOllamaAdapter(client *http.Client) *ollamaAdapter {
	return &ollamaAdapter{http: client, ensured: make(map[string]bool)}
}

type ollamaRequest struct {
	Model   string        `json:"model"`
	System  string        `json:"system,omitempty"`
	Prompt  string        `json:"prompt"`
	Images  []string      `json:"images,omitempty"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options,omitempty"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
}

func (a *ollamaAdapter) prepare(ctx context.Context, r resolved) (*http.Request, error) {
	if err := a.ensureModel(ctx, r.baseURL, r.model); err != nil {
		return nil, err
	}
	body := ollamaRequest{
		Model:  r.model,
		System: r.system,
		Prompt: r.user,
		Images: r.images,
		Stream: false,
		Options: ollamaOptions{
			Temperature: r.temperature,
			NumPredict:  r.maxTokens,
		},
	}
	return postJSON(ctx, r.baseURL+"/api/generate", body)
}

func (a *ollamaAdapter) extract(body []byte) (string, error) {
	var resp ollamaResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: decoding ollama response: %v", ErrUnparseable, err)
	}
	return resp.Response, nil
}

// ensureModel checks the local tag list once per model and pulls on miss.
func (a *ollamaAdapter) ensureModel(ctx context.Context, baseURL, model string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.ensured[model] {
		return nil
	}

	present, err := a.hasModel(ctx, baseURL, model)
	if err != nil {
		// Tag listing is advisory; let the generate call surface the
		// real failure mode.
		a.ensured[model] = true
		return nil
	}
	if !present {
		if err := a.pull(ctx, baseURL, model); err != nil {
			return err
		}
	}
	a.ensured[model] = true
	return nil
}

func (a *ollamaAdapter) hasModel(ctx context.Context, baseURL, model string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/tags", nil)
	if err != nil {
		return false, err
	}
	resp, err := a.http.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("tags returned status %d", resp.StatusCode)
	}

	var tags struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return false, err
	}
	for _, m := range tags.Models {
		if m.Name == model || strings.SplitN(m.Name, ":", 2)[0] == model {
			return true, nil
		}
	}
	return false, nil
}

func (a *ollamaAdapter) pull(ctx context.Context, baseURL, model string) error {
	req, err := postJSON(ctx, baseURL+"/api/pull", map[string]any{"name": model, "stream": false})
	if err != nil {
		return err
	}
	resp, err := a.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: pulling model %s: %v", ErrTransport, model, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: pull %s returned status %d", ErrTransport, model, resp.StatusCode)
	}
	return nil
}

// ---- hosted OpenAI-compatible chat provider ----

type openAIAdapter struct {
	apiKey string
}

func (a *openAIAdapter) prepare(ctx context.Context, r resolved) (*http.Request, error) {
	body := chatRequest{
		Model:               r.model,
		Messages:            chatMessages(r),
		Temperature:         r.temperature,
		TopP:                1.0,
		MaxCompletionTokens: r.maxTokens,
		Stream:              false,
	}
	req, err := postJSON(ctx, strings.TrimSuffix(r.baseURL, "/")+"/chat/completions", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+a.apiKey)
	return req, nil
}

func (a *openAIAdapter) extract(body []byte) (string, error) {
	return extractChat(body)
}

// ---- broker-authenticated enterprise provider ----

type enterpriseAdapter struct {
	broker *tokenBroker
}

func (a *enterpriseAdapter) prepare(ctx context.Context, r resolved) (*http.Request, error) {
	token, err := a.broker.Token(ctx)
	if err != nil {
		return nil, err
	}
	body := chatRequest{
		Model:               r.model,
		Messages:            chatMessages(r),
		Temperature:         r.temperature,
		TopP:                1.0,
		MaxCompletionTokens: r.maxTokens,
		Stream:              false,
	}
	req, err := postJSON(ctx, strings.TrimSuffix(r.baseURL, "/")+"/chat/completions", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-ModelType", r.model)
	req.Header.Set("X-ScenarioGUID", uuid.NewString())
	return req, nil
}

func (a *enterpriseAdapter) extract(body []byte) (string, error) {
	return extractChat(body)
}

// invalidate drops the cached token so the next attempt re-acquires.
func (a *enterpriseAdapter) invalidate() {
	a.broker.Invalidate()
}

// ---- completion-only hosted provider ----

type completionAdapter struct {
	apiKey string
}

type completionRequest struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
	Stream      bool    `json:"stream"`
}

type completionResponse struct {
	Choices []struct {
		Text string `json:"text"`
	} `json:"choices"`
}

func (a *completionAdapter) prepare(ctx context.Context, r resolved) (*http.Request, error) {
	prompt := r.user
	if r.system != "" {
		prompt = r.system + "\n\n" + r.user
	}
	body := completionRequest{
		Model:       r.model,
		Prompt:      prompt,
		Temperature: r.temperature,
		MaxTokens:   r.maxTokens,
		Stream:      false,
	}
	req, err := postJSON(ctx, strings.TrimSuffix(r.baseURL, "/")+"/completions", body)
	if err != nil {
		return nil, err
	}
	if a.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
	}
	return req, nil
}

func (a *completionAdapter) extract(body []byte) (string, error) {
	var resp completionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: decoding completion response: %v", ErrUnparseable, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: completion response has no choices", ErrUnparseable)
	}
	return resp.Choices[0].Text, nil
}
