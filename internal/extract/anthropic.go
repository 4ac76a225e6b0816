package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fentz26/sift/internal/models"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	defaultAnthropicBaseURL = "https://api.anthropic.com"
	defaultAnthropicModel   = "claude-3-haiku-20240307"
	defaultMaxTokens        = 2048
	defaultTimeout          = 30 * time.Second
	defaultMaxRetries       = 2
	defaultBaseBackoff      = 1 * time.Second
)

// Rate limiter defaults: 50 requests per minute with small bursts.
const (
	defaultRateLimit = 50.0 / 60.0
	defaultBurst     = 5
)

// extractionPrompt instructs the backend to return strictly shaped JSON.
const extractionPrompt = `You are an action item extractor. Extract ONLY concrete tasks that someone needs to DO.

RULES:
1. Every item MUST start with an action verb (Fix, Send, Build, Update, Schedule, Follow up, etc.)
2. The "title" is a clear, specific task. The "description" gives 2-3 sentences of context so a reader understands the task without the original notes.
3. Reject observations, summaries, status updates, and vague intentions. Return an empty array if only those exist.

Return JSON:
{
  "action_items": [
    {"title": "Verb + specific task", "description": "2-3 sentences of context", "confidence": 0.95}
  ]
}

Only return the JSON, nothing else.`

// anthropicOracle implements Oracle against Anthropic's messages API.
type anthropicOracle struct {
	model      string
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries int
	log        zerolog.Logger
}

// NewOracle builds an oracle from configuration. A missing API key yields
// the disabled oracle so the pipeline degrades to heuristic-only instead of
// failing the run.
func NewOracle(cfg Config, log zerolog.Logger) Oracle {
	if cfg.APIKey == "" {
		log.Debug().Msg("oracle disabled: no api key configured")
		return Disabled()
	}

	model := cfg.Model
	if model == "" {
		model = defaultAnthropicModel
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultAnthropicBaseURL
	}
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}

	return &anthropicOracle{
		model:      model,
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(defaultRateLimit), defaultBurst),
		maxRetries: defaultMaxRetries,
		log:        log,
	}
}

func (a *anthropicOracle) Available() bool { return true }

// Extract asks the backend for candidate actions. Every failure mode
// (timeout, refused connection, API error, malformed JSON) degrades to an
// empty list; the error never reaches the orchestrator.
func (a *anthropicOracle) Extract(ctx context.Context, content string, sourceType models.SourceType, maxItems int) []models.CandidateAction {
	if content == "" || maxItems <= 0 {
		return nil
	}

	if err := a.limiter.Wait(ctx); err != nil {
		a.log.Warn().Err(err).Msg("oracle rate limiter interrupted")
		return nil
	}

	hint := "This is from meeting notes. Extract action items assigned to or involving the user."
	if sourceType == models.SourceChat {
		hint = "This is a chat thread where the user was mentioned. Extract any tasks they need to do."
	}

	req := anthropicRequest{
		Model:       a.model,
		MaxTokens:   defaultMaxTokens,
		Temperature: 0.3,
		System:      extractionPrompt,
		Messages: []anthropicMessage{
			{Role: "user", Content: hint + "\n\n---\n\n" + content},
		},
	}

	var lastErr error
	for attempt := 0; attempt <= a.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := defaultBaseBackoff * time.Duration(1<<(attempt-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				a.log.Warn().Err(ctx.Err()).Msg("oracle extraction cancelled")
				return nil
			}
		}

		text, err := a.doRequest(ctx, req)
		if err == nil {
			return parseCandidates(text, maxItems)
		}

		lastErr = err
		if !isRetryable(err) {
			break
		}
	}

	a.log.Warn().Err(lastErr).Msg("oracle extraction failed, returning no candidates")
	return nil
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Messages    []anthropicMessage `json:"messages"`
	System      string             `json:"system,omitempty"`
	Temperature float64            `json:"temperature"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

type anthropicError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// retryableError marks transport-level and throttling failures worth retrying.
type retryableError struct{ err error }

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

func isRetryable(err error) bool {
	var re *retryableError
	return errors.As(err, &re)
}

func (a *anthropicOracle) doRequest(ctx context.Context, req anthropicRequest) (string, error) {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v1/messages", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-API-Key", a.apiKey)
	httpReq.Header.Set("Anthropic-Version", "2023-06-01")

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return "", &retryableError{err: fmt.Errorf("api request failed: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", &retryableError{err: fmt.Errorf("rate limited (429)")}
	}
	if resp.StatusCode >= 500 {
		return "", &retryableError{err: fmt.Errorf("server error (%d)", resp.StatusCode)}
	}
	if resp.StatusCode != http.StatusOK {
		var errResp anthropicError
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
			return "", fmt.Errorf("api error (%d): %s", resp.StatusCode, errResp.Error.Message)
		}
		return "", fmt.Errorf("api error (%d): %s", resp.StatusCode, string(body))
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if len(parsed.Content) == 0 {
		return "", fmt.Errorf("empty response from api")
	}
	return parsed.Content[0].Text, nil
}
