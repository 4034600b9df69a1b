// Package mailer delivers submission notifications through an external
// email provider. The provider is reached over a small HTTPS JSON API;
// retry and backoff policy is the provider's concern, not ours.
package mailer

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Attachment is one file to deliver with a message.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Message is a fully composed notification email.
type Message struct {
	From        string
	To          []string
	ReplyTo     string
	Subject     string
	HTML        string
	Text        string
	Attachments []Attachment
}

// Mailer hands one message to the provider and returns the provider's
// message id. Implementations are injected into the intake service so
// tests can substitute a fake.
type Mailer interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// Client talks to a Resend-compatible provider endpoint.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

func NewClient(endpoint, apiKey string) *Client {
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: 15 * time.Second},
	}
}

type wireAttachment struct {
	Filename    string `json:"filename"`
	Content     string `json:"content"`
	ContentType string `json:"content_type,omitempty"`
}

type wireMessage struct {
	From        string           `json:"from"`
	To          []string         `json:"to"`
	ReplyTo     string           `json:"reply_to,omitempty"`
	Subject     string           `json:"subject"`
	HTML        string           `json:"html,omitempty"`
	Text        string           `json:"text,omitempty"`
	Attachments []wireAttachment `json:"attachments,omitempty"`
}

func (c *Client) Send(ctx context.Context, msg Message) (string, error) {
	wire := wireMessage{
		From:    msg.From,
		To:      msg.To,
		ReplyTo: msg.ReplyTo,
		Subject: msg.Subject,
		HTML:    msg.HTML,
		Text:    msg.Text,
	}
	for _, att := range msg.Attachments {
		wire.Attachments = append(wire.Attachments, wireAttachment{
			Filename:    att.Filename,
			Content:     base64.StdEncoding.EncodeToString(att.Content),
			ContentType: att.ContentType,
		})
	}

	body, err := json.Marshal(wire)
	if err != nil {
		return "", fmt.Errorf("mailer: encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("mailer: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("mailer: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("mailer: provider returned %d: %s", resp.StatusCode, detail)
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("mailer: decode response: %w", err)
	}
	return result.ID, nil
}
