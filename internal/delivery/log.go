package delivery

import (
	"context"
	"io"
	"log"

	"restaurant-segments/internal/domain"
)

// LogSender writes messages to a logger instead of sending them. It is the
// fallback when no channel is configured.
type LogSender struct {
	logger *log.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(logger *log.Logger) *LogSender {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, to Recipient, msg domain.Message) error {
	s.logger.Printf("delivery: customer=%s phone=%q subject=%q body=%q", to.CustomerID, to.Phone, msg.Subject, msg.Body)
	return nil
}
