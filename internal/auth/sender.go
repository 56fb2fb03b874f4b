package auth

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// CodeSender delivers a one-time login code to a phone number.
type CodeSender interface {
	SendCode(ctx context.Context, phone, code string) error
}

type twilioSender struct {
	client *twilio.RestClient
	from   string
}

// NewTwilioSender sends codes over SMS through Twilio.
func NewTwilioSender(accountSID, authToken, from string) CodeSender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &twilioSender{client: client, from: from}
}

func (s *twilioSender) SendCode(_ context.Context, phone, code string) error {
	params := &twilioapi.CreateMessageParams{}
	params.SetTo(phone)
	params.SetFrom(s.from)
	params.SetBody(fmt.Sprintf("Your Curelink login code is %s. It expires in 5 minutes.", code))

	if _, err := s.client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("send otp sms: %w", err)
	}
	return nil
}

type logSender struct {
	logger zerolog.Logger
}

// NewLogSender writes codes to the log instead of sending SMS. Dev only.
func NewLogSender(logger zerolog.Logger) CodeSender {
	return &logSender{logger: logger}
}

func (s *logSender) SendCode(_ context.Context, phone, code string) error {
	s.logger.Info().Str("phone", phone).Str("code", code).Msg("login code (dev sender)")
	return nil
}
