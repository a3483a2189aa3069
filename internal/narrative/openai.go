// Package narrative turns an organization snapshot into free-form
// analyst prose via an external text-generation backend. The engine
// never calls this package; the handler injects a Generator so the
// analytics core stays independent of any particular backend.
package narrative

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nutrino/carbonfootprint/backend/analytics-service/internal/models"
)

// Generator produces narrative text from an organization snapshot.
type Generator interface {
	Generate(ctx context.Context, snapshot *models.OrgSnapshot) (string, error)
}

// Config configures the OpenAI-backed generator.
type Config struct {
	APIKey   string
	Model    string // defaults to gpt-4o
	Endpoint string // defaults to the OpenAI chat completions URL
}

// OpenAIGenerator implements Generator using the OpenAI chat
// completions API. This is the only type in the service that makes
// outbound API calls.
type OpenAIGenerator struct {
	config Config
	client *http.Client
}

// NewOpenAI creates an OpenAI-backed narrative generator.
func NewOpenAI(cfg Config) *OpenAIGenerator {
	if cfg.Model == "" {
		cfg.Model = "gpt-4o"
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://api.openai.com/v1/chat/completions"
	}
	return &OpenAIGenerator{
		config: cfg,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Generate sends the snapshot with the fixed analyst instruction
// template and returns the model's text.
func (g *OpenAIGenerator) Generate(ctx context.Context, snapshot *models.OrgSnapshot) (string, error) {
	userPrompt, err := buildUserPrompt(snapshot)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(chatRequest{
		Model: g.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.config.APIKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("narrative backend unreachable: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode response (status %d): %w", resp.StatusCode, err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("narrative backend error (%s): %s", parsed.Error.Type, parsed.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("narrative backend returned status %d", resp.StatusCode)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("narrative backend returned no choices")
	}

	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}
