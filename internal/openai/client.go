package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"finmec/internal/retry"
)

const (
	defaultBaseURL       = "https://api.openai.com/v1"
	transcriptionModel   = "whisper-1"
	transcriptionTimeout = 60 * time.Second
)

// Client is a speech-to-text client for the OpenAI audio API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func New(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: transcriptionTimeout},
	}
}

// ExtensionFor maps an audio mimetype to the file extension the API expects.
func ExtensionFor(mimetype string) string {
	switch {
	case strings.Contains(mimetype, "ogg"), strings.Contains(mimetype, "opus"):
		return "ogg"
	case strings.Contains(mimetype, "wav"):
		return "wav"
	case strings.Contains(mimetype, "mp4"), strings.Contains(mimetype, "m4a"), strings.Contains(mimetype, "aac"):
		return "m4a"
	default:
		return "mp3"
	}
}

func (c *Client) Transcribe(ctx context.Context, audio []byte, filename, language string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("OpenAI API key not configured")
	}
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	if err := form.WriteField("model", transcriptionModel); err != nil {
		return "", err
	}
	if language != "" {
		if err := form.WriteField("language", language); err != nil {
			return "", err
		}
	}
	part, err := form.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(audio); err != nil {
		return "", err
	}
	if err := form.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/transcriptions", &buf)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("OpenAI transcription failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &retry.APIError{Provider: "openai", Op: "transcribe", StatusCode: resp.StatusCode, Body: string(body)}
	}
	var parsed struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("parse transcription response: %w", err)
	}
	return strings.TrimSpace(parsed.Text), nil
}
