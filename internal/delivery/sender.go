// Package delivery hands composed messages to an outbound channel. Nothing
// upstream of it knows which channel is in use.
package delivery

import (
	"context"
	"errors"

	"restaurant-segments/internal/domain"
)

// ErrNoAddress is returned when a recipient has nothing to send to.
var ErrNoAddress = errors.New("recipient has no phone number")

// Recipient identifies who a message goes to.
type Recipient struct {
	CustomerID string
	Name       string
	Phone      string
	Email      string
}

// RecipientFor builds a Recipient from a stored customer.
func RecipientFor(c domain.Customer) Recipient {
	return Recipient{CustomerID: c.ID, Name: c.Name, Phone: c.Phone, Email: c.Email}
}

// Sender delivers one message. Implementations must be safe for concurrent use.
type Sender interface {
	Send(ctx context.Context, to Recipient, msg domain.Message) error
}
