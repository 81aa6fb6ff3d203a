package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewResendMailerRequiresConfig(t *testing.T) {
	_, err := NewResendMailer(map[string]string{"RESEND_API_KEY": "re_123"})
	assert.ErrorIs(t, err, ErrEmailNotConfigured)
}

func TestResendMailerSend(t *testing.T) {
	var got ResendEmailRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer re_123", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"id":"email_1"}`))
	}))
	defer server.Close()

	mailer, err := NewResendMailer(map[string]string{
		"RESEND_API_KEY":    "re_123",
		"RESEND_FROM_EMAIL": "Site <hello@example.com>",
	})
	require.NoError(t, err)
	mailer.endpoint = server.URL

	err = mailer.Send(context.Background(), Email{
		To:      []string{"owner@example.com"},
		Subject: "Hi",
		HTML:    "<p>Hi</p>",
		ReplyTo: "ada@example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, ResendEmailRequest{
		From:    "Site <hello@example.com>",
		To:      []string{"owner@example.com"},
		Subject: "Hi",
		Html:    "<p>Hi</p>",
		ReplyTo: "ada@example.com",
	}, got)
}

func TestResendMailerReportsAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"invalid from address"}`))
	}))
	defer server.Close()

	mailer, err := NewResendMailer(map[string]string{"RESEND_API_KEY": "k", "RESEND_FROM_EMAIL": "bad"})
	require.NoError(t, err)
	mailer.endpoint = server.URL

	err = mailer.Send(context.Background(), Email{To: []string{"a@example.com"}})
	assert.EqualError(t, err, "resend API error (status 422): invalid from address")

	err = mailer.Send(context.Background(), Email{})
	assert.Error(t, err)
}
