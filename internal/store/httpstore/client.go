// Package httpstore is a store.ConversationStore backed by the store server's
// JSON API.
package httpstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/SARVESHVARADKAR123/chatsync/internal/domain"
	transporthttp "github.com/SARVESHVARADKAR123/chatsync/internal/transport/http"
)

type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for the server at baseURL. Requests carry the caller's
// trace context.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (c *Client) ListMessages(ctx context.Context) ([]domain.Message, error) {
	var msgs []domain.Message
	if err := c.do(ctx, http.MethodGet, "/api/messages", nil, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

func (c *Client) CreateMessage(ctx context.Context, in domain.NewMessage) (domain.Message, error) {
	var msg domain.Message
	err := c.do(ctx, http.MethodPost, "/api/messages", in, &msg)
	return msg, err
}

func (c *Client) UpdateMessage(ctx context.Context, id string, patch domain.MessagePatch) (domain.Message, error) {
	var msg domain.Message
	err := c.do(ctx, http.MethodPatch, "/api/messages/"+url.PathEscape(id), patch, &msg)
	return msg, err
}

func (c *Client) CreateConversation(ctx context.Context, p domain.ParticipantInfo) (domain.Conversation, error) {
	var conv domain.Conversation
	err := c.do(ctx, http.MethodPost, "/api/conversations", p, &conv)
	return conv, err
}

func (c *Client) ListConversations(ctx context.Context) ([]domain.Conversation, error) {
	var convs []domain.Conversation
	if err := c.do(ctx, http.MethodGet, "/api/conversations", nil, &convs); err != nil {
		return nil, err
	}
	return convs, nil
}

func (c *Client) GetConversation(ctx context.Context, id string) (domain.Conversation, error) {
	var conv domain.Conversation
	err := c.do(ctx, http.MethodGet, "/api/conversations/"+url.PathEscape(id), nil, &conv)
	return conv, err
}

func (c *Client) UpdateConversation(ctx context.Context, id string, patch domain.ConversationPatch) (domain.Conversation, error) {
	var conv domain.Conversation
	err := c.do(ctx, http.MethodPatch, "/api/conversations/"+url.PathEscape(id), patch, &conv)
	return conv, err
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// decodeError turns an error response back into the domain error it was mapped from.
func decodeError(resp *http.Response) error {
	var body transporthttp.ErrorBody
	_ = json.NewDecoder(resp.Body).Decode(&body)

	switch body.Code {
	case transporthttp.CodeConversationNotFound:
		return domain.ErrConversationNotFound
	case transporthttp.CodeMessageNotFound:
		return domain.ErrMessageNotFound
	case transporthttp.CodeInvalidInput:
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, body.Error)
	}
	if body.Error == "" {
		body.Error = http.StatusText(resp.StatusCode)
	}
	return fmt.Errorf("store server returned %d: %s", resp.StatusCode, body.Error)
}
