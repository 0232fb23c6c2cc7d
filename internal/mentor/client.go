// Package mentor talks to an OpenAI-compatible chat completion API for the
// conversation mentor, grammar checks and word lookups.
package mentor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/verte-zerg/lingoquest/internal/model"
)

// Defaults for the Groq endpoint.
const (
	DefaultBaseURL   = "https://api.groq.com/openai/v1"
	DefaultModel     = "llama-3.3-70b-versatile"
	DefaultAPIKeyEnv = "GROQ_API_KEY"
	KeyPrefix        = "gsk_"

	defaultSystem = "You are a helpful English language mentor."
	temperature   = 0.7
	maxTokens     = 1024
)

// Config configures a Client.
type Config struct {
	BaseURL string
	Model   string
	APIKey  string
	Timeout time.Duration
}

// ResolveKey picks the settings key when it looks like a Groq key and falls
// back to the environment key otherwise.
func ResolveKey(envKey, settingsKey string) string {
	if k := strings.TrimSpace(settingsKey); strings.HasPrefix(k, KeyPrefix) {
		return k
	}
	return strings.TrimSpace(envKey)
}

// Client sends chat completion requests.
type Client struct {
	http    *http.Client
	baseURL string
	model   string
	apiKey  string
	log     *zap.Logger
}

// New returns a Client. A zero Config uses the Groq defaults.
func New(cfg Config, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		apiKey:  cfg.APIKey,
		log:     log,
	}
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Chat roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    *float64        `json:"temperature,omitempty"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Reply asks for the next mentor message. An empty system prompt uses a
// generic mentor persona. Failures are classified as *Error.
func (c *Client) Reply(ctx context.Context, prompt, system string, history []Message) (string, error) {
	if system == "" {
		system = defaultSystem
	}
	msgs := make([]Message, 0, len(history)+2)
	msgs = append(msgs, Message{Role: RoleSystem, Content: system})
	for _, h := range history {
		role := RoleAssistant
		if h.Role == RoleUser {
			role = RoleUser
		}
		msgs = append(msgs, Message{Role: role, Content: h.Content})
	}
	msgs = append(msgs, Message{Role: RoleUser, Content: prompt})

	t := temperature
	return c.complete(ctx, chatRequest{
		Model:       c.model,
		Messages:    msgs,
		Temperature: &t,
		MaxTokens:   maxTokens,
	})
}

// GrammarReport is the result of a grammar check.
type GrammarReport struct {
	HasErrors   bool   `json:"hasErrors"`
	Correction  string `json:"correction"`
	Explanation string `json:"explanation"`
}

const grammarPrompt = `You are an English teacher. Analyze grammar errors. Return ONLY JSON: {"hasErrors":boolean, "correction":string, "explanation":string}`

// AnalyzeGrammar checks text. It reports false when the request or the
// decoding fails.
func (c *Client) AnalyzeGrammar(ctx context.Context, text string) (GrammarReport, bool) {
	var report GrammarReport
	ok := c.completeJSON(ctx, grammarPrompt, fmt.Sprintf("Analyze this text: %q", text), &report)
	return report, ok
}

// WordDetails is a dictionary lookup for one word.
type WordDetails struct {
	Meanings []string `json:"meanings"`
	Examples []struct {
		Text        string `json:"text"`
		Translation string `json:"translation"`
	} `json:"examples"`
	CEFR string `json:"cefr"`
}

const detailsPrompt = `You are an English teacher. For the user's word, provide:
1. 3-5 Indonesian meanings (synonyms/variations).
2. 3 simple, clear example sentences (10-15 words max) WITH their Indonesian translation.
3. The CEFR level (exact code only: A1, A2, B1, B2, C1, or C2).

Output strictly valid JSON: { "meanings": ["..."], "examples": [{ "text": "English sentence", "translation": "Terjemahan Indonesia" }], "cefr": "B2" }`

// WordDetails looks up meanings, examples and a level for word. It reports
// false when the request or the decoding fails.
func (c *Client) WordDetails(ctx context.Context, word string) (WordDetails, bool) {
	var d WordDetails
	ok := c.completeJSON(ctx, detailsPrompt, fmt.Sprintf("Word: %q", word), &d)
	return d, ok
}

// Meaning joins the meanings the way vocabulary entries store them.
func (d WordDetails) Meaning() string {
	return strings.Join(d.Meanings, ", ")
}

// Example joins the examples the way vocabulary entries store them.
func (d WordDetails) Example() string {
	examples := make([]model.Example, 0, len(d.Examples))
	for _, ex := range d.Examples {
		examples = append(examples, model.Example{Text: ex.Text, Translation: ex.Translation})
	}
	return model.JoinExamples(examples)
}

// Level returns the suggested level, if it is a known one.
func (d WordDetails) Level() (model.Level, bool) {
	return model.ParseLevel(d.CEFR)
}

func (c *Client) completeJSON(ctx context.Context, system, user string, dst any) bool {
	content, err := c.complete(ctx, chatRequest{
		Model: c.model,
		Messages: []Message{
			{Role: RoleSystem, Content: system},
			{Role: RoleUser, Content: user},
		},
		ResponseFormat: &responseFormat{Type: "json_object"},
	})
	if err != nil {
		c.log.Warn("mentor request failed", zap.Error(err))
		return false
	}
	if content == "" {
		content = "{}"
	}
	if err := json.Unmarshal([]byte(content), dst); err != nil {
		c.log.Warn("mentor returned invalid JSON", zap.Error(err))
		return false
	}
	return true
}

func (c *Client) complete(ctx context.Context, req chatRequest) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", classify(0, fmt.Errorf("failed to send request: %w", err))
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			// Best-effort close for a fully read response.
			_ = cerr
		}
	}()
	c.log.Debug("mentor request",
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", classify(resp.StatusCode, fmt.Errorf("failed to read response: %w", err))
	}
	var parsed chatResponse
	decodeErr := json.Unmarshal(raw, &parsed)

	if resp.StatusCode != http.StatusOK {
		msg := http.StatusText(resp.StatusCode)
		if decodeErr == nil && parsed.Error != nil && parsed.Error.Message != "" {
			msg = parsed.Error.Message
		}
		return "", classify(resp.StatusCode, errors.New(msg))
	}
	if decodeErr != nil {
		return "", classify(resp.StatusCode, fmt.Errorf("failed to decode response: %w", decodeErr))
	}
	if len(parsed.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}
