package delivery

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"restaurant-segments/internal/domain"
)

type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// TwilioConfig holds the account and sender numbers.
type TwilioConfig struct {
	AccountSID     string
	AuthToken      string
	FromNumber     string
	WhatsAppNumber string
}

// TwilioSender sends WhatsApp messages to E.164 numbers when a WhatsApp
// sender is configured and SMS otherwise.
type TwilioSender struct {
	api    messageCreator
	cfg    TwilioConfig
	logger *log.Logger
}

// NewTwilioSender creates a TwilioSender backed by the Twilio REST API.
func NewTwilioSender(cfg TwilioConfig, logger *log.Logger) *TwilioSender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return newTwilioSender(client.Api, cfg, logger)
}

func newTwilioSender(api messageCreator, cfg TwilioConfig, logger *log.Logger) *TwilioSender {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &TwilioSender{api: api, cfg: cfg, logger: logger}
}

func (s *TwilioSender) Send(ctx context.Context, to Recipient, msg domain.Message) error {
	phone := strings.TrimSpace(to.Phone)
	if phone == "" {
		return ErrNoAddress
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	params := &twilioApi.CreateMessageParams{}
	if strings.HasPrefix(phone, "+") && s.cfg.WhatsAppNumber != "" {
		params.SetTo("whatsapp:" + phone)
		params.SetFrom("whatsapp:" + s.cfg.WhatsAppNumber)
	} else {
		params.SetTo(phone)
		params.SetFrom(s.cfg.FromNumber)
	}
	params.SetBody(messageText(msg))

	resp, err := s.api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("twilio create message: %w", err)
	}
	if resp != nil && resp.Sid != nil {
		s.logger.Printf("delivery: customer=%s sid=%s", to.CustomerID, *resp.Sid)
	}
	return nil
}

func messageText(msg domain.Message) string {
	if msg.Subject == "" {
		return msg.Body
	}
	return msg.Subject + "\n\n" + msg.Body
}
