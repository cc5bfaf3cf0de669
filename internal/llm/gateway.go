package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// Request holds the parameters for an LLM generation call. Task selects the
// default model/temperature/timeout; explicit fields override per call site.
type Request struct {
	Task         TaskType
	SystemPrompt string
	UserPrompt   string
	Provider     Provider // empty uses the configured provider
	Model        string   // empty uses the task default
	BaseURL      string   // empty uses the configured endpoint
	Temperature  *float64 // nil uses task default
	MaxTokens    *int     // nil uses task default
	Timeout      *time.Duration

	// Images holds base64-encoded attachments. Only the local provider
	// forwards them; the hosted adapters ignore the field.
	Images []string
}

// Response holds the result of an LLM generation call.
type Response struct {
	Text      string
	Model     string
	LatencyMs int64
}

// Client provides access to a language model for text generation. The
// pipeline components depend on this interface so tests can substitute a
// stub for the HTTP gateway.
type Client interface {
	// Query sends a prompt and returns the raw text response. The gateway
	// never parses model output.
	Query(ctx context.Context, req Request) (*Response, error)
}

// Gateway implements Client over HTTP providers. It owns the only
// per-process LLM state: the rate gate clock and the broker token cache.
type Gateway struct {
	cfg      Config
	http     *http.Client
	observer Observer
	adapters map[Provider]adapter

	mu          sync.Mutex
	lastRequest time.Time

	// sleep is replaceable in tests.
	sleep func(time.Duration)
}

// resolved is a Request with all defaults applied.
type resolved struct {
	provider    Provider
	model       string
	baseURL     string
	system      string
	user        string
	temperature float64
	maxTokens   int
	images      []string
}

// adapter translates a resolved request to one provider's wire format.
// prepare is called once per attempt so request bodies are rebuilt after
// a retry; extract pulls the generated text out of a 200 response body.
type adapter interface {
	prepare(ctx context.Context, r resolved) (*http.Request, error)
	extract(body []byte) (string, error)
}

// NewGateway creates a Gateway for the configured provider set.
func NewGateway(cfg Config, observer Observer) *Gateway {
	if observer == nil {
		observer = NoopObserver{}
	}
	g := &Gateway{
		cfg: cfg,
		http: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 5 * time.Second,
				}).DialContext,
			},
		},
		observer: observer,
		sleep:    time.Sleep,
	}
	broker := newTokenBroker(cfg, g.http)
	g.adapters = map[Provider]adapter{
		ProviderOllama:     newOllamaAdapter(g.http),
		ProviderOpenAI:     &openAIAdapter{apiKey: cfg.APIKey},
		ProviderEnterprise: &enterpriseAdapter{broker: broker},
		ProviderCompletion: &completionAdapter{apiKey: cfg.APIKey},
	}
	return g
}

func (g *Gateway) Query(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	r := g.resolve(req)

	ad, ok := g.adapters[r.provider]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, r.provider)
	}

	timeout := g.cfg.TaskTimeout(req.Task)
	if req.Timeout != nil {
		timeout = *req.Timeout
	}

	maxAttempts := g.cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var (
		lastErr  error
		attempts int
	)
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		attempts = attempt
		g.admit()

		text, retryAfter, err := g.attempt(ctx, ad, r, timeout)
		if err == nil {
			latency := time.Since(start).Milliseconds()
			g.observer.OnCallComplete(CallEvent{
				Task: req.Task, Provider: r.provider, Model: r.model,
				Attempts: attempts, LatencyMs: latency, Success: true,
			})
			return &Response{Text: text, Model: r.model, LatencyMs: latency}, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			break
		}

		switch {
		case errors.Is(err, ErrRateLimited):
			delay := retryAfter
			if delay <= 0 {
				delay = time.Duration(g.cfg.RetryBaseMs*attempt) * time.Millisecond
			}
			g.sleep(delay)
		case errors.Is(err, errServer):
			g.sleep(time.Duration(g.cfg.ServerRetryMs) * time.Millisecond)
		case errors.Is(err, ErrAuthFailed):
			// Token was invalidated by the attempt; one more try picks up
			// a fresh acquisition. Further 401s exhaust the loop.
		case errors.Is(err, ErrTimeout):
			// Per-attempt deadline; retry within the budget.
		default:
			// Transport and unexpected errors retry with the server delay.
			g.sleep(time.Duration(g.cfg.ServerRetryMs) * time.Millisecond)
		}
	}

	latency := time.Since(start).Milliseconds()
	g.observer.OnCallComplete(CallEvent{
		Task: req.Task, Provider: r.provider, Model: r.model,
		Attempts: attempts, LatencyMs: latency, Success: false,
		ErrorCode: errorCode(lastErr),
	})

	if errors.Is(lastErr, errServer) {
		return nil, fmt.Errorf("%w: %v", ErrTransport, lastErr)
	}
	return nil, lastErr
}

// errServer marks a retryable 5xx; it never escapes Query.
var errServer = errors.New("llm server error")

func (g *Gateway) attempt(ctx context.Context, ad adapter, r resolved, timeout time.Duration) (string, time.Duration, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := ad.prepare(ctx, r)
	if err != nil {
		return "", 0, err
	}

	resp, err := g.http.Do(httpReq)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", 0, ErrTimeout
		}
		return "", 0, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, fmt.Errorf("%w: reading response: %v", ErrTransport, err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		text, err := ad.extract(body)
		if err != nil {
			return "", 0, err
		}
		return text, 0, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", parseRetryAfter(resp.Header.Get("Retry-After")), ErrRateLimited
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		if inv, ok := ad.(interface{ invalidate() }); ok {
			inv.invalidate()
		}
		return "", 0, fmt.Errorf("%w: status %d", ErrAuthFailed, resp.StatusCode)
	case resp.StatusCode >= 500:
		return "", 0, fmt.Errorf("%w: status %d: %s", errServer, resp.StatusCode, truncate(body, 200))
	default:
		return "", 0, fmt.Errorf("%w: status %d: %s", ErrTransport, resp.StatusCode, truncate(body, 200))
	}
}

// admit enforces the minimum inter-request gap on a monotonic clock.
// Each caller reserves the next free send slot while holding the lock,
// so concurrent callers are serialized a full gap apart instead of
// waking from the same wait together.
func (g *Gateway) admit() {
	gap := g.cfg.MinInterval()

	g.mu.Lock()
	next := time.Now()
	if !g.lastRequest.IsZero() {
		if earliest := g.lastRequest.Add(gap); earliest.After(next) {
			next = earliest
		}
	}
	g.lastRequest = next
	g.mu.Unlock()

	if wait := time.Until(next); wait > 0 {
		g.sleep(wait)
	}
}

func (g *Gateway) resolve(req Request) resolved {
	taskCfg := g.cfg.Tasks[req.Task]
	r := resolved{
		provider:    g.cfg.Provider,
		model:       taskCfg.Model,
		baseURL:     g.cfg.Endpoint,
		system:      req.SystemPrompt,
		user:        req.UserPrompt,
		temperature: taskCfg.Temperature,
		maxTokens:   taskCfg.MaxTokens,
		images:      req.Images,
	}
	if req.Provider != "" {
		r.provider = req.Provider
	}
	if req.Model != "" {
		r.model = req.Model
	}
	if req.BaseURL != "" {
		r.baseURL = req.BaseURL
	}
	if req.Temperature != nil {
		r.temperature = *req.Temperature
	}
	if req.MaxTokens != nil {
		r.maxTokens = *req.MaxTokens
	}
	return r
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

func errorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTimeout):
		return "TIMEOUT"
	case errors.Is(err, ErrRateLimited):
		return "RATE_LIMITED"
	case errors.Is(err, ErrAuthFailed):
		return "AUTH_FAILED"
	case errors.Is(err, errServer), errors.Is(err, ErrTransport):
		return "TRANSPORT"
	case errors.Is(err, ErrUnparseable):
		return "UNPARSEABLE"
	default:
		return "UNKNOWN"
	}
}
