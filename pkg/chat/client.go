package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/esita/esita/pkg/logger"
)

// ChatRequest is the body of POST {base}/api/chat.
type ChatRequest struct {
	Message string         `json:"message"`
	History []HistoryEntry `json:"history"`
}

// ChatResponse is the expected chat API body. Error is only populated on
// failure responses.
type ChatResponse struct {
	Reply string `json:"reply"`
	Error string `json:"error,omitempty"`
}

// Client issues bounded requests against the chat API. Every call is a
// single attempt under a hard wall-clock deadline; there are no retries.
type Client struct {
	base          string
	httpClient    *http.Client
	chatTimeout   time.Duration
	healthTimeout time.Duration
}

func NewClient(base string, chatTimeout, healthTimeout time.Duration) *Client {
	if chatTimeout <= 0 {
		chatTimeout = 45 * time.Second
	}
	if healthTimeout <= 0 {
		healthTimeout = 15 * time.Second
	}
	return &Client{
		base:          strings.TrimRight(base, "/"),
		httpClient:    &http.Client{},
		chatTimeout:   chatTimeout,
		healthTimeout: healthTimeout,
	}
}

// Send posts one message plus its history window and returns the assistant
// reply. Failure modes map to ErrTimeout, *StatusError, ErrEmptyReply, or a
// wrapped transport error.
func (c *Client) Send(ctx context.Context, message string, history []HistoryEntry) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.chatTimeout)
	defer cancel()

	body, err := json.Marshal(ChatRequest{Message: message, History: history})
	if err != nil {
		return "", fmt.Errorf("encoding chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("chat request: %w", ErrTimeout)
		}
		return "", fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("reading chat response: %w", ErrTimeout)
		}
		return "", fmt.Errorf("reading chat response: %w", err)
	}

	var parsed ChatResponse
	parseErr := json.Unmarshal(raw, &parsed)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := ""
		if parseErr == nil {
			if parsed.Reply != "" {
				msg = parsed.Reply
			} else if parsed.Error != "" {
				msg = parsed.Error
			}
		}
		if msg == "" {
			msg = fmt.Sprintf("server error (HTTP %d)", resp.StatusCode)
		}
		return "", &StatusError{Code: resp.StatusCode, Message: msg}
	}

	if parseErr != nil || parsed.Reply == "" {
		return "", ErrEmptyReply
	}

	return parsed.Reply, nil
}

// Health probes {base}/health. Only the HTTP outcome matters; the body is
// discarded.
func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/health", nil)
	if err != nil {
		return fmt.Errorf("building health request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("health probe: %w", ErrTimeout)
		}
		return fmt.Errorf("health probe: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.WarnCF("chat", "Health probe returned non-success status",
			map[string]interface{}{"status": resp.StatusCode})
		return &StatusError{Code: resp.StatusCode, Message: "health check failed"}
	}
	return nil
}
