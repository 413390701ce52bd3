// Package generate calls the OpenAI chat-completions API to produce
// personalized cold emails and parses the free-text output into subject
// options and a body.
//
// Generation failure is a sentinel nil result, never an error: callers skip
// the contact and record the failure. The upstream model is stochastic, so
// two calls with identical input may produce different text; only the
// structural post-conditions (1-3 subjects, non-empty greeting body) hold.
package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/ignite/outreach/internal/pkg/httpretry"
)

const systemPrompt = "You are a professional email marketing assistant. Always follow the exact output format specified in the prompt. Generate personalized, professional cold emails with complete signatures."

// ContactData is the minimal contact context the generator needs for its
// degrade-gracefully fallbacks.
type ContactData struct {
	Name            string
	University      string
	ProductName     string
	SenderName      string
	SenderSignature string // remaining signature lines, newline-separated
}

// Result holds the parsed generation output.
type Result struct {
	SubjectOptions []string `json:"subject_options"` // 1-3 entries
	Body           string   `json:"body"`
}

// Generator is an OpenAI-backed email generator.
type Generator struct {
	model      string
	baseURL    string
	httpClient httpretry.Doer
}

// NewGenerator creates a generator for the given model. baseURL defaults to
// the public OpenAI endpoint and is overridable for tests. Calls are retried
// on rate-limit and upstream 5xx responses.
func NewGenerator(model, baseURL string, timeout time.Duration) *Generator {
	if model == "" {
		model = "gpt-4o-mini"
	}
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Generator{
		model:      model,
		baseURL:    baseURL,
		httpClient: httpretry.New(&http.Client{Timeout: timeout}, 2),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Generate produces a personalized email for one contact. It returns nil on
// any failure (missing key, transport error, non-success status, empty
// completion); it never panics past its boundary.
func (g *Generator) Generate(ctx context.Context, apiKey string, contact ContactData, prompt string) *Result {
	if apiKey == "" {
		log.Printf("[generate] no API key configured, skipping %s", contact.Name)
		return nil
	}

	request := chatRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.7,
		MaxTokens:   500,
	}

	raw, ok := g.callOpenAI(ctx, apiKey, request)
	if !ok {
		return nil
	}

	result := parseCompletion(raw, contact)
	return &result
}

// callOpenAI makes one chat-completions request and returns the completion
// text. A transport error or non-success status is logged and reported as
// not-ok, mirroring the caller's skip-this-contact policy.
func (g *Generator) callOpenAI(ctx context.Context, apiKey string, request chatRequest) (string, bool) {
	jsonBody, err := json.Marshal(request)
	if err != nil {
		log.Printf("[generate] marshal request: %v", err)
		return "", false
	}

	req, err := http.NewRequestWithContext(ctx, "POST", g.baseURL+"/v1/chat/completions", bytes.NewBuffer(jsonBody))
	if err != nil {
		log.Printf("[generate] build request: %v", err)
		return "", false
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		log.Printf("[generate] OpenAI request failed: %v", err)
		return "", false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("[generate] OpenAI API error: %d %s", resp.StatusCode, resp.Status)
		return "", false
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("[generate] read response: %v", err)
		return "", false
	}

	var response chatResponse
	if err := json.Unmarshal(body, &response); err != nil {
		log.Printf("[generate] parse response: %v", err)
		return "", false
	}
	if response.Error != nil {
		log.Printf("[generate] API error: %s", response.Error.Message)
		return "", false
	}
	if len(response.Choices) == 0 || response.Choices[0].Message.Content == "" {
		log.Printf("[generate] empty completion")
		return "", false
	}

	return response.Choices[0].Message.Content, true
}
