package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultCallTimeout = 30 * time.Second

var allowedUpdates = []string{"message"}

// APIError is a non-OK answer from the Bot API.
type APIError struct {
	Method      string
	Code        int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram %s: %d %s", e.Method, e.Code, e.Description)
}

type Client struct {
	httpClient *http.Client
	baseURL    string
}

type ClientOption func(*Client)

// WithBaseURL points the client at another Bot API server.
func WithBaseURL(url string) ClientOption {
	return func(c *Client) { c.baseURL = url }
}

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

func NewClient(token string, opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{},
		baseURL:    "https://api.telegram.org",
	}
	for _, opt := range opts {
		opt(c)
	}
	c.baseURL = fmt.Sprintf("%s/bot%s", c.baseURL, token)
	return c
}

func (c *Client) call(ctx context.Context, method string, payload interface{}, timeout time.Duration) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+method, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	var apiResp APIResponse
	if err := json.Unmarshal(data, &apiResp); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}

	if !apiResp.OK {
		return nil, &APIError{Method: method, Code: apiResp.ErrorCode, Description: apiResp.Description}
	}

	return apiResp.Result, nil
}

// SendMessage delivers plain text to a chat.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	_, err := c.call(ctx, "sendMessage", SendMessageRequest{ChatID: chatID, Text: text}, defaultCallTimeout)
	return err
}

func (c *Client) SetWebhook(ctx context.Context, url, secretToken string) error {
	req := SetWebhookRequest{URL: url, SecretToken: secretToken, AllowedUpdates: allowedUpdates}
	_, err := c.call(ctx, "setWebhook", req, defaultCallTimeout)
	return err
}

func (c *Client) DeleteWebhook(ctx context.Context) error {
	_, err := c.call(ctx, "deleteWebhook", struct{}{}, defaultCallTimeout)
	return err
}

// GetUpdates long-polls for new updates. timeout is in seconds.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout int) ([]Update, error) {
	req := GetUpdatesRequest{Offset: offset, Timeout: timeout, AllowedUpdates: allowedUpdates}
	result, err := c.call(ctx, "getUpdates", req, time.Duration(timeout)*time.Second+defaultCallTimeout)
	if err != nil {
		return nil, err
	}

	var updates []Update
	if err := json.Unmarshal(result, &updates); err != nil {
		return nil, fmt.Errorf("unmarshal updates: %w", err)
	}
	return updates, nil
}
