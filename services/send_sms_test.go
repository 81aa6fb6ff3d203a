package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

type fakeTwilio struct {
	params *twilioApi.CreateMessageParams
	err    error
}

func (f *fakeTwilio) CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error) {
	f.params = params
	if f.err != nil {
		return nil, f.err
	}
	sid := "SM123"
	return &twilioApi.ApiV2010Message{Sid: &sid}, nil
}

func TestNewTwilioSenderRequiresConfig(t *testing.T) {
	_, err := NewTwilioSender(map[string]string{"TWILIO_ACCOUNT_SID": "AC1", "TWILIO_AUTH_TOKEN": "t"})
	assert.ErrorIs(t, err, ErrSMSNotConfigured)
}

func TestTwilioSenderSendSMS(t *testing.T) {
	fake := &fakeTwilio{}
	sender := &TwilioSender{messages: fake, from: "+15550000000"}

	require.NoError(t, sender.SendSMS(context.Background(), "+15551112222", "hello"))
	require.NotNil(t, fake.params)
	assert.Equal(t, "+15551112222", *fake.params.To)
	assert.Equal(t, "+15550000000", *fake.params.From)
	assert.Equal(t, "hello", *fake.params.Body)
}

func TestTwilioSenderErrors(t *testing.T) {
	sender := &TwilioSender{messages: &fakeTwilio{err: errors.New("bad number")}, from: "+1"}
	assert.ErrorContains(t, sender.SendSMS(context.Background(), "+2", "x"), "bad number")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fake := &fakeTwilio{}
	sender = &TwilioSender{messages: fake, from: "+1"}
	assert.ErrorIs(t, sender.SendSMS(ctx, "+2", "x"), context.Canceled)
	assert.Nil(t, fake.params)
}
