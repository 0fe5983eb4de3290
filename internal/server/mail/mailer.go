// Package mail delivers the transactional emails sent on account lifecycle
// events. Delivery is best effort: failures are logged, never returned to
// the request that triggered them.
package mail

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/taskkeeper/internal/logging"
)

// Message is a plain-text email to a single recipient.
type Message struct {
	ToName  string
	ToEmail string
	Subject string
	Text    string
}

// Mailer hands a message to a delivery provider.
type Mailer interface {
	Send(ctx context.Context, m Message) error
}

func WelcomeMessage(email, name string) Message {
	return Message{
		ToName:  name,
		ToEmail: email,
		Subject: "Thanks for joining in!",
		Text:    fmt.Sprintf("Welcome to the app, %s. Let us know how you get along with the app.", name),
	}
}

func GoodbyeMessage(email, name string) Message {
	return Message{
		ToName:  name,
		ToEmail: email,
		Subject: "Account deletion",
		Text:    fmt.Sprintf("Sorry to see you go, %s. Let us know how we can improve the app!", name),
	}
}

// NopMailer only logs. It is used when no provider key is configured.
type NopMailer struct {
	logger logging.Logger
}

func NewNopMailer(l logging.Logger) *NopMailer {
	return &NopMailer{logger: l.With("module", "mail")}
}

func (m *NopMailer) Send(ctx context.Context, msg Message) error {
	m.logger.Info(ctx, "mail delivery disabled, dropping message", "to", msg.ToEmail, "subject", msg.Subject)
	return nil
}
