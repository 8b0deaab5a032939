package mail

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	// DriverResend selects the Resend HTTP API.
	DriverResend = "resend"
	// DriverSMTP selects an SMTP relay.
	DriverSMTP = "smtp"
	// DriverSES selects AWS SES.
	DriverSES = "ses"
	// DriverLog selects the log-only sender.
	DriverLog = "log"
)

// ErrUnknownDriver indicates an unsupported mail driver.
var ErrUnknownDriver = errors.New("mail: unknown driver")

// FactoryOptions groups configuration for mail drivers.
type FactoryOptions struct {
	// From is the default sender applied to every driver.
	From string
	// Resend configures the Resend driver.
	Resend ResendConfig
	// SMTP configures the SMTP driver.
	SMTP SMTPConfig
	// SES configures the SES driver.
	SES SESConfig
}

// NewFromDriver constructs a Mail implementation by driver name.
func NewFromDriver(ctx context.Context, driver string, opts FactoryOptions) (Mail, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverResend:
		opts.Resend.From = opts.From
		return NewResend(opts.Resend)
	case DriverSMTP:
		opts.SMTP.From = opts.From
		return NewSMTP(opts.SMTP)
	case DriverSES:
		opts.SES.From = opts.From
		return NewSES(ctx, opts.SES)
	case DriverLog:
		return NewLog(opts.From), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, driver)
	}
}
