package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/rpupo63/portfolio-backend/config"
)

var ErrSMSNotConfigured = errors.New("SMS delivery is not configured")

type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

type twilioMessages interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

type TwilioSender struct {
	messages twilioMessages
	from     string
}

// NewTwilioSender requires TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN and TWILIO_FROM_NUMBER.
func NewTwilioSender(c map[string]string) (*TwilioSender, error) {
	sid := config.GetString(c, "TWILIO_ACCOUNT_SID", "")
	token := config.GetString(c, "TWILIO_AUTH_TOKEN", "")
	from := config.GetString(c, "TWILIO_FROM_NUMBER", "")
	if sid == "" || token == "" || from == "" {
		return nil, ErrSMSNotConfigured
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: sid,
		Password: token,
	})
	return &TwilioSender{messages: client.Api, from: from}, nil
}

// SendSMS sends body to the E.164 number to. The twilio client has no context
// support, so ctx is only checked before the call.
func (s *TwilioSender) SendSMS(ctx context.Context, to, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.from)
	params.SetBody(truncate(body, 1600))

	resp, err := s.messages.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("failed to send SMS via Twilio: %w", err)
	}
	if resp != nil && resp.Sid != nil {
		log.Info().Str("messageSid", *resp.Sid).Msg("Successfully sent SMS via Twilio")
	}
	return nil
}
