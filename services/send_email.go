package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/rpupo63/portfolio-backend/config"
)

const resendEndpoint = "https://api.resend.com/emails"

var ErrEmailNotConfigured = errors.New("email delivery is not configured")

// ResendEmailRequest represents the request payload for Resend API
type ResendEmailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Html    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
	ReplyTo string   `json:"reply_to,omitempty"`
}

// ResendEmailResponse represents the response from Resend API
type ResendEmailResponse struct {
	ID string `json:"id"`
}

// ResendErrorResponse represents an error response from Resend API
type ResendErrorResponse struct {
	Message string `json:"message"`
}

type Email struct {
	To      []string
	Subject string
	HTML    string
	ReplyTo string
}

type Mailer interface {
	Send(ctx context.Context, email Email) error
}

// ResendMailer sends email through the Resend API. The API key travels as a
// bearer token from a static oauth2 token source.
type ResendMailer struct {
	client   *http.Client
	from     string
	endpoint string
}

// NewResendMailer requires RESEND_API_KEY and RESEND_FROM_EMAIL
// (e.g. "Your Name <hello@example.com>").
func NewResendMailer(c map[string]string) (*ResendMailer, error) {
	apiKey := config.GetString(c, "RESEND_API_KEY", "")
	fromEmail := config.GetString(c, "RESEND_FROM_EMAIL", "")
	if apiKey == "" || fromEmail == "" {
		return nil, ErrEmailNotConfigured
	}

	client := oauth2.NewClient(context.Background(), oauth2.StaticTokenSource(&oauth2.Token{AccessToken: apiKey}))
	return &ResendMailer{client: client, from: fromEmail, endpoint: resendEndpoint}, nil
}

// Send sends an email using the Resend API
func (m *ResendMailer) Send(ctx context.Context, email Email) error {
	if len(email.To) == 0 {
		return fmt.Errorf("at least one recipient is required")
	}

	jsonPayload, err := json.Marshal(ResendEmailRequest{
		From:    m.from,
		To:      email.To,
		Subject: email.Subject,
		Html:    email.HTML,
		ReplyTo: email.ReplyTo,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewBuffer(jsonPayload))
	if err != nil {
		return fmt.Errorf("failed to create Resend API request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request to Resend API: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read Resend API response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errorResp ResendErrorResponse
		if err := json.Unmarshal(bodyBytes, &errorResp); err == nil && errorResp.Message != "" {
			return fmt.Errorf("resend API error (status %d): %s", resp.StatusCode, errorResp.Message)
		}
		return fmt.Errorf("resend API error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	var emailResponse ResendEmailResponse
	if err := json.Unmarshal(bodyBytes, &emailResponse); err != nil {
		log.Warn().Err(err).Msg("Failed to parse Resend email response, but email was sent")
	} else {
		log.Info().Str("emailId", emailResponse.ID).Msg("Successfully sent email via Resend")
	}

	return nil
}
