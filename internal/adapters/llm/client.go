// Package llm is the Anthropic Messages API client used by the classifier and the generator
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"trackergen/internal/platform/config"
	perr "trackergen/internal/platform/errors"
	"trackergen/internal/platform/logger"
	"trackergen/internal/platform/metrics"
)

const (
	apiVersion       = "2023-06-01"
	baseURLDefault   = "https://api.anthropic.com"
	modelDefault     = "claude-3-5-haiku-latest"
	defaultTimeout   = 30 * time.Second
	defaultMaxTokens = 1500
	defaultUA        = "trackergen"
	maxBody          = 1 << 20
)

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one conversation turn
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is one completion call
// Op labels metrics and logs ("classify", "generate")
type Request struct {
	Op          string
	System      string
	Messages    []Message
	MaxTokens   int
	Temperature *float64
}

// Options configures the Client
type Options struct {
	BaseURL   string
	APIKey    string
	Model     string
	UserAgent string
	Timeout   time.Duration
	MaxTokens int

	// client side throttle shared by every request; <= 0 disables it
	MaxRPS float64
	Burst  int
}

// OptionsFromEnv reads LLM_* keys
func OptionsFromEnv(root config.Conf) Options {
	c := root.Prefix("LLM_")
	key, _ := c.Lookup("API_KEY")
	return Options{
		BaseURL:   c.MayString("BASE_URL", baseURLDefault),
		APIKey:    key,
		Model:     c.MayString("MODEL", modelDefault),
		Timeout:   c.MayDuration("TIMEOUT", defaultTimeout),
		MaxTokens: c.MayInt("MAX_TOKENS", defaultMaxTokens),
		MaxRPS:    c.MayFloat64("MAX_RPS", 5),
		Burst:     c.MayInt("BURST", 5),
	}
}

// Client calls POST {BaseURL}/v1/messages
type Client struct {
	http    *http.Client
	opts    Options
	limiter *rate.Limiter
	log     logger.Logger
	now     func() time.Time
}

type wireRequest struct {
	Model       string    `json:"model"`
	System      string    `json:"system,omitempty"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature *float64  `json:"temperature,omitempty"`
}

type wireContent struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type wireError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type wireResponse struct {
	ID         string        `json:"id"`
	Content    []wireContent `json:"content"`
	StopReason string        `json:"stop_reason"`
	Error      *wireError    `json:"error,omitempty"`
}

// New creates a Client with defaults filled in
func New(o Options) *Client {
	o.BaseURL = strings.TrimRight(strings.TrimSpace(o.BaseURL), "/")
	if o.BaseURL == "" {
		o.BaseURL = baseURLDefault
	}
	if o.Model == "" {
		o.Model = modelDefault
	}
	if o.UserAgent == "" {
		o.UserAgent = defaultUA
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = defaultMaxTokens
	}
	lim := rate.NewLimiter(rate.Inf, 0)
	if o.MaxRPS > 0 {
		lim = rate.NewLimiter(rate.Limit(o.MaxRPS), max(o.Burst, 1))
	}
	return &Client{
		http:    &http.Client{Timeout: o.Timeout},
		opts:    o,
		limiter: lim,
		log:     *logger.Named("llm"),
		now:     time.Now,
	}
}

// Model returns the configured model name
func (c *Client) Model() string { return c.opts.Model }

// Complete sends req and returns the concatenated text blocks
// Transport trouble is ErrorCodeUnavailable, an answer without text is ErrorCodeUpstreamOutput
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	if c.opts.APIKey == "" {
		return "", perr.Configurationf("llm api key not configured")
	}
	op := req.Op
	if op == "" {
		op = "complete"
	}
	start := c.now()
	text, outcome, err := c.do(ctx, op, req)
	metrics.LLMCall(op, outcome, c.now().Sub(start))
	return text, err
}

func (c *Client) do(ctx context.Context, op string, req Request) (string, string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", "throttled", perr.Wrap(err, perr.ErrorCodeUnavailable, "llm throttle wait")
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.opts.MaxTokens
	}
	body, err := json.Marshal(wireRequest{
		Model:       c.opts.Model,
		System:      req.System,
		Messages:    req.Messages,
		MaxTokens:   maxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return "", "error", perr.Wrap(err, perr.ErrorCodeUnknown, "llm marshal request")
	}

	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.BaseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", "error", perr.Wrap(err, perr.ErrorCodeConfiguration, "llm new request")
	}
	hreq.Header.Set("x-api-key", c.opts.APIKey)
	hreq.Header.Set("anthropic-version", apiVersion)
	hreq.Header.Set("content-type", "application/json")
	hreq.Header.Set("User-Agent", c.opts.UserAgent)

	resp, err := c.http.Do(hreq)
	if err != nil {
		return "", "transport", perr.Wrap(err, perr.ErrorCodeUnavailable, "llm request failed")
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.log.Debug().Err(cerr).Msg("llm close body failed")
		}
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return "", "transport", perr.Wrap(err, perr.ErrorCodeUnavailable, "llm read body")
	}

	c.log.Debug().
		Str("op", op).
		Str("model", c.opts.Model).
		Int("status", resp.StatusCode).
		Int("body_bytes", len(raw)).
		Msg("llm http response")

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", "status", perr.Newf(perr.ErrorCodeConfiguration, "llm rejected credentials: status %d", resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return "", "status", perr.Newf(perr.ErrorCodeUnavailable, "llm status %d: %s", resp.StatusCode, tail(raw))
	}

	var out wireResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", "malformed", perr.Wrap(err, perr.ErrorCodeUpstreamOutput, "llm response is not json")
	}
	if out.Error != nil {
		return "", "status", perr.Newf(perr.ErrorCodeUnavailable, "llm error %s: %s", out.Error.Type, out.Error.Message)
	}
	var b strings.Builder
	for _, blk := range out.Content {
		if blk.Type == "text" {
			b.WriteString(blk.Text)
		}
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", "malformed", perr.UpstreamOutputf("llm response has no text")
	}
	if out.StopReason == "max_tokens" {
		c.log.Warn().Str("op", op).Msg("llm response hit max_tokens")
	}
	return b.String(), "ok", nil
}

// tail keeps error messages short; upstream bodies never reach clients
func tail(b []byte) string {
	const n = 256
	s := strings.TrimSpace(string(b))
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
