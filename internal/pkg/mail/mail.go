package mail

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrNoRecipients is returned when To, Cc and Bcc are all empty.
	ErrNoRecipients = errors.New("mail: no recipients provided")
	// ErrNoSender is returned when both Message.From and the configured default sender are empty.
	ErrNoSender = errors.New("mail: no sender provided")
	// ErrRejected wraps provider refusals that resending the same message cannot fix,
	// such as malformed addresses, unverified senders or bad credentials.
	ErrRejected = errors.New("mail: message rejected")
)

// IsPermanent reports whether err will recur on every attempt to send the same message.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrNoRecipients) || errors.Is(err, ErrNoSender) || errors.Is(err, ErrRejected)
}

// Message represents an email payload.
//
// Fields are provider-agnostic so the same value can be sent through any driver.
type Message struct {
	// From is an optional explicit sender; drivers fall back to their default.
	From string
	// To lists required recipients.
	To []string
	// Cc lists carbon copy recipients.
	Cc []string
	// Bcc lists blind carbon copy recipients.
	Bcc []string
	// Subject is the email subject line.
	Subject string
	// TextBody is the plain-text body.
	TextBody string
	// HTMLBody is the optional HTML body.
	HTMLBody string
}

// Mail abstracts an email provider (SMTP, third-party API, etc).
type Mail interface {
	io.Closer
	// Send dispatches the given message using the underlying provider.
	Send(ctx context.Context, msg Message) error
}

func (m Message) hasRecipients() bool {
	return len(m.To)+len(m.Cc)+len(m.Bcc) > 0
}

// prepare validates msg and resolves the sender against defaultFrom.
func prepare(msg Message, defaultFrom string) (Message, error) {
	if !msg.hasRecipients() {
		return msg, ErrNoRecipients
	}

	if msg.From == "" {
		msg.From = defaultFrom
	}
	if msg.From == "" {
		return msg, ErrNoSender
	}

	return msg, nil
}
