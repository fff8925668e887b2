package report

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const resendURL = "https://api.resend.com/emails"

// DeliveryError means the scan completed but the email could not be sent.
// Callers distinguish it from computation errors to pick the exit code.
type DeliveryError struct {
	StatusCode int
	Err        error
}

func (e *DeliveryError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("email delivery failed: resend returned %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("email delivery failed: %v", e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// EmailClient sends reports through the Resend HTTP API.
type EmailClient struct {
	apiKey string
	url    string
	http   *http.Client
	log    *zap.Logger
}

func NewEmailClient(apiKey string, logger *zap.Logger) *EmailClient {
	return &EmailClient{
		apiKey: apiKey,
		url:    resendURL,
		http:   &http.Client{Timeout: 30 * time.Second},
		log:    logger,
	}
}

// Email is one outgoing message. Attachment content is raw bytes; it is
// base64-encoded on the wire.
type Email struct {
	From           string
	To             []string
	Subject        string
	HTML           string
	AttachmentName string
	Attachment     []byte
}

type resendAttachment struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

type resendRequest struct {
	From        string             `json:"from"`
	To          []string           `json:"to"`
	Subject     string             `json:"subject"`
	HTML        string             `json:"html"`
	Attachments []resendAttachment `json:"attachments,omitempty"`
}

type resendResponse struct {
	ID string `json:"id"`
}

// Send posts the email. Any failure is returned as *DeliveryError.
func (c *EmailClient) Send(ctx context.Context, email *Email) error {
	payload := resendRequest{
		From:    email.From,
		To:      email.To,
		Subject: email.Subject,
		HTML:    email.HTML,
	}
	if len(email.Attachment) > 0 {
		payload.Attachments = []resendAttachment{{
			Filename: email.AttachmentName,
			Content:  base64.StdEncoding.EncodeToString(email.Attachment),
		}}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return &DeliveryError{Err: fmt.Errorf("marshal resend request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.url, bytes.NewReader(body))
	if err != nil {
		return &DeliveryError{Err: fmt.Errorf("build resend request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Idempotency-Key", uuid.NewString())

	res, err := c.http.Do(req)
	if err != nil {
		return &DeliveryError{Err: fmt.Errorf("post to resend: %w", err)}
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		err := fmt.Errorf("%s", bytes.TrimSpace(msg))
		if res.StatusCode == http.StatusUnauthorized {
			err = fmt.Errorf("invalid RESEND_API_KEY: %s", bytes.TrimSpace(msg))
		}
		return &DeliveryError{StatusCode: res.StatusCode, Err: err}
	}

	resp := &resendResponse{}
	if err := json.NewDecoder(res.Body).Decode(resp); err != nil {
		// Delivery succeeded; the response body is informational.
		c.log.Warn("could not decode resend response", zap.Error(err))
		return nil
	}
	c.log.Info("email sent",
		zap.String("id", resp.ID),
		zap.Strings("to", email.To),
		zap.String("subject", email.Subject))
	return nil
}
