package uazapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"finmec/internal/retry"
)

const (
	sendTimeout  = 30 * time.Second
	mediaTimeout = 60 * time.Second
)

// Client talks to the Uazapi WhatsApp gateway.
type Client struct {
	baseURL       string
	token         string
	httpClient    *http.Client
	scheduleRetry retry.Config
	logger        *slog.Logger
}

func New(baseURL, token string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		token:         token,
		httpClient:    &http.Client{},
		scheduleRetry: retry.Fixed(3, 3*time.Second),
		logger:        logger,
	}
}

// Number strips the "@s.whatsapp.net" style suffix from a JID.
func Number(remoteJID string) string {
	number, _, _ := strings.Cut(remoteJID, "@")
	return number
}

type Media struct {
	Base64   string `json:"base64Data"`
	Mimetype string `json:"mimetype"`
	FileURL  string `json:"fileURL,omitempty"`
}

func (c *Client) SendText(ctx context.Context, remoteJID, text string) error {
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	return c.post(ctx, "send_text", "/send/text", map[string]any{
		"number":      Number(remoteJID),
		"text":        text,
		"readchat":    "true",
		"linkPreview": "true",
	}, nil)
}

// SendMedia sends a file by URL or base64 with an optional caption.
func (c *Client) SendMedia(ctx context.Context, remoteJID, mediaType, file, caption string) error {
	ctx, cancel := context.WithTimeout(ctx, mediaTimeout)
	defer cancel()
	body := map[string]any{
		"number": Number(remoteJID),
		"type":   mediaType,
		"file":   file,
	}
	if caption != "" {
		body["text"] = caption
	}
	return c.post(ctx, "send_media", "/send/media", body, nil)
}

func (c *Client) DownloadMedia(ctx context.Context, messageID string) (Media, error) {
	ctx, cancel := context.WithTimeout(ctx, mediaTimeout)
	defer cancel()
	var media Media
	err := c.post(ctx, "download", "/message/download", map[string]any{
		"id":            messageID,
		"return_base64": true,
		"return_link":   false,
	}, &media)
	return media, err
}

// ScheduleText asks the gateway's sender to deliver text at the given time.
func (c *Client) ScheduleText(ctx context.Context, number, text string, at time.Time, info string) error {
	body := map[string]any{
		"numbers":       []string{Number(number)},
		"type":          "text",
		"delayMin":      10,
		"delayMax":      30,
		"scheduled_for": at.UnixMilli(),
		"text":          text,
	}
	if info != "" {
		body["info"] = info
	}
	// Every failure is retried, client errors included.
	policy := c.scheduleRetry
	policy.RetryAll = true
	attempt := 0
	_, err := retry.Do(ctx, policy, func(ctx context.Context) (struct{}, error) {
		attempt++
		ctx, cancel := context.WithTimeout(ctx, sendTimeout)
		defer cancel()
		err := c.post(ctx, "schedule", "/sender/simple", body, nil)
		if err != nil {
			c.logger.Warn("uazapi schedule attempt failed", slog.Int("attempt", attempt), slog.String("error", err.Error()))
		}
		return struct{}{}, err
	})
	return err
}

func (c *Client) post(ctx context.Context, op, path string, payload any, out any) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("create %s request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("token", c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("uazapi %s: %w", op, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return fmt.Errorf("read %s response: %w", op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &retry.APIError{Provider: "uazapi", Op: op, StatusCode: resp.StatusCode, Body: string(body)}
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse %s response: %w", op, err)
	}
	return nil
}
