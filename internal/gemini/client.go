package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"finmec/internal/retry"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel   = "gemini-2.0-flash-exp"
)

// Client calls the Gemini generateContent endpoint for vision and text.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

func New(apiKey, baseURL, model string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if model == "" {
		model = defaultModel
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

// DescribeMedia sends a prompt together with base64 encoded media.
func (c *Client) DescribeMedia(ctx context.Context, prompt, mimeType, base64Data string) (string, error) {
	return c.generate(ctx, "describe", []part{
		{Text: prompt},
		{InlineData: &inlineData{MimeType: mimeType, Data: base64Data}},
	}, nil)
}

func (c *Client) GenerateText(ctx context.Context, prompt string, temperature float64) (string, error) {
	return c.generate(ctx, "generate", []part{{Text: prompt}}, map[string]any{"temperature": temperature})
}

func (c *Client) generate(ctx context.Context, op string, parts []part, generationConfig map[string]any) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("Gemini API key not configured")
	}
	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	reqBody := map[string]any{
		"contents": []map[string]any{{"parts": parts}},
	}
	if generationConfig != nil {
		reqBody["generationConfig"] = generationConfig
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("Gemini API call failed: %w", err)
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &retry.APIError{Provider: "gemini", Op: op, StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var geminiResp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(respBody, &geminiResp); err != nil {
		return "", fmt.Errorf("parse Gemini response: %w", err)
	}
	if len(geminiResp.Candidates) == 0 || len(geminiResp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty Gemini response")
	}
	return strings.TrimSpace(geminiResp.Candidates[0].Content.Parts[0].Text), nil
}
