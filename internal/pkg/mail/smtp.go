package mail

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gomail "github.com/wneessen/go-mail"
)

// ErrSMTPHostPortRequired is returned when Host/Port are missing.
var ErrSMTPHostPortRequired = errors.New("mail: smtp host and port are required")

// SMTPConfig configures the SMTP implementation.
type SMTPConfig struct {
	// Host is the SMTP server hostname.
	Host string
	// Port is the SMTP server port.
	Port int
	// Username is the SMTP authentication username.
	Username string
	// Password is the SMTP authentication password.
	Password string
	// From is the default sender when Message.From is empty.
	From string
	// TLSPolicy is one of mandatory, opportunistic or none.
	TLSPolicy string
}

// SMTP is a Mail implementation backed by go-mail.
type SMTP struct {
	client      *gomail.Client
	defaultFrom string
}

// NewSMTP constructs an SMTP mail sender. No connection is made until Send.
func NewSMTP(cfg SMTPConfig) (*SMTP, error) {
	if cfg.Host == "" || cfg.Port == 0 {
		return nil, ErrSMTPHostPortRequired
	}

	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTLSPolicy(tlsPolicy(cfg.TLSPolicy)),
	}
	if cfg.Username != "" && cfg.Password != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("mail: smtp client: %w", err)
	}

	return &SMTP{client: client, defaultFrom: cfg.From}, nil
}

func tlsPolicy(s string) gomail.TLSPolicy {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mandatory":
		return gomail.TLSMandatory
	case "none":
		return gomail.NoTLS
	default:
		return gomail.TLSOpportunistic
	}
}

// Send delivers a message over SMTP.
func (s *SMTP) Send(ctx context.Context, msg Message) error {
	msg, err := prepare(msg, s.defaultFrom)
	if err != nil {
		return err
	}

	m, err := buildMsg(msg)
	if err != nil {
		return err
	}

	if err := s.client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("mail: smtp send: %w", err)
	}

	return nil
}

func buildMsg(msg Message) (*gomail.Msg, error) {
	m := gomail.NewMsg()
	if err := m.From(msg.From); err != nil {
		return nil, fmt.Errorf("%w: invalid sender: %w", ErrRejected, err)
	}
	if len(msg.To) > 0 {
		if err := m.To(msg.To...); err != nil {
			return nil, fmt.Errorf("%w: invalid recipient: %w", ErrRejected, err)
		}
	}
	if len(msg.Cc) > 0 {
		if err := m.Cc(msg.Cc...); err != nil {
			return nil, fmt.Errorf("%w: invalid cc: %w", ErrRejected, err)
		}
	}
	if len(msg.Bcc) > 0 {
		if err := m.Bcc(msg.Bcc...); err != nil {
			return nil, fmt.Errorf("%w: invalid bcc: %w", ErrRejected, err)
		}
	}
	m.Subject(msg.Subject)

	switch {
	case msg.TextBody != "" && msg.HTMLBody != "":
		m.SetBodyString(gomail.TypeTextPlain, msg.TextBody)
		m.AddAlternativeString(gomail.TypeTextHTML, msg.HTMLBody)
	case msg.HTMLBody != "":
		m.SetBodyString(gomail.TypeTextHTML, msg.HTMLBody)
	default:
		m.SetBodyString(gomail.TypeTextPlain, msg.TextBody)
	}

	return m, nil
}

// Close implements io.Closer. go-mail opens a connection per send.
func (s *SMTP) Close() error {
	return nil
}
