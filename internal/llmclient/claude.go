// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llmclient implements research.LLMClient against the Claude
// Messages API. The prompts it sends are rendered by its callers (the
// aspect, subquery, and synthesize packages each hold their own template).
package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/prasannaarjun/hopscout/internal/httputil"
	"github.com/prasannaarjun/hopscout/pkg/types"
)

// claudeAPIURL is the Claude API endpoint. Package-level var for test
// substitution against an httptest.Server.
var claudeAPIURL = "https://api.anthropic.com/v1/messages"

// ClaudeClient calls the Claude Messages API and implements
// research.LLMClient (via the pkg/types.LLMClient interface it aliases).
type ClaudeClient struct {
	APIKey     string
	Model      string
	MaxRetries int
	Client     *http.Client
}

type claudeRequest struct {
	Model       string          `json:"model"`
	MaxTokens   int             `json:"max_tokens"`
	System      string          `json:"system,omitempty"`
	Temperature float64         `json:"temperature,omitempty"`
	Messages    []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeResponse struct {
	Content []claudeContent `json:"content"`
}

type claudeContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

const defaultMaxTokens = 1024

// Generate sends systemPrompt and userPrompt to the Claude Messages API
// and returns the first text content block. Any HTTP error, non-200
// status, or malformed response is returned as an error; callers fall
// back to heuristics on failure.
func (c *ClaudeClient) Generate(ctx context.Context, systemPrompt, userPrompt string, opts types.GenerateOptions) (string, error) {
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	reqBody := claudeRequest{
		Model:       c.Model,
		MaxTokens:   maxTokens,
		System:      systemPrompt,
		Temperature: opts.Temperature,
		Messages: []claudeMessage{
			{Role: "user", Content: userPrompt},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling Claude request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, claudeAPIURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating Claude request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, c.MaxRetries)
	if err != nil {
		return "", fmt.Errorf("calling Claude API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("Claude API returned %d: %s", resp.StatusCode, string(body))
	}

	var cResp claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return "", fmt.Errorf("decoding Claude response: %w", err)
	}

	for _, block := range cResp.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("no text content in Claude API response")
}
