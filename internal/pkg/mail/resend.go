package mail

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/resend/resend-go/v2"
)

// ErrResendAPIKeyRequired is returned when the Resend driver has no API key.
var ErrResendAPIKeyRequired = errors.New("mail: resend api key is required")

// ResendConfig configures the Resend implementation.
type ResendConfig struct {
	// APIKey authenticates against the Resend API.
	APIKey string
	// From is the default sender when Message.From is empty.
	From string
	// BaseURL overrides the API endpoint, used against local fakes.
	BaseURL string
}

// Resend is a Mail implementation backed by the Resend HTTP API.
type Resend struct {
	client      *resend.Client
	defaultFrom string
}

// NewResend constructs a Resend mail sender.
func NewResend(cfg ResendConfig) (*Resend, error) {
	if cfg.APIKey == "" {
		return nil, ErrResendAPIKeyRequired
	}

	hc := &http.Client{Transport: statusRecorder{next: http.DefaultTransport}}
	client := resend.NewCustomClient(hc, strings.TrimSpace(cfg.APIKey))
	if cfg.BaseURL != "" {
		u, err := url.Parse(cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("mail: invalid resend base url: %w", err)
		}
		client.BaseURL = u
	}

	return &Resend{client: client, defaultFrom: cfg.From}, nil
}

// Send delivers a message through the Resend API.
func (r *Resend) Send(ctx context.Context, msg Message) error {
	msg, err := prepare(msg, r.defaultFrom)
	if err != nil {
		return err
	}

	var status int
	ctx = context.WithValue(ctx, statusKey{}, &status)

	_, err = r.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    msg.From,
		To:      msg.To,
		Cc:      msg.Cc,
		Bcc:     msg.Bcc,
		Subject: msg.Subject,
		Html:    msg.HTMLBody,
		Text:    msg.TextBody,
	})
	if err != nil {
		if rejectedStatus(status) {
			return fmt.Errorf("%w: resend status %d: %w", ErrRejected, status, err)
		}
		return fmt.Errorf("mail: resend send: %w", err)
	}

	return nil
}

// Close implements io.Closer.
func (r *Resend) Close() error {
	return nil
}

// rejectedStatus reports client errors that a retry cannot fix. Timeouts and
// rate limits are retried.
func rejectedStatus(code int) bool {
	if code == http.StatusRequestTimeout || code == http.StatusTooManyRequests {
		return false
	}
	return code >= 400 && code < 500
}

type statusKey struct{}

// statusRecorder copies the response status into the *int held by the
// request context, since the Resend client returns plain string errors.
type statusRecorder struct {
	next http.RoundTripper
}

func (s statusRecorder) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := s.next.RoundTrip(req)
	if p, ok := req.Context().Value(statusKey{}).(*int); ok && resp != nil {
		*p = resp.StatusCode
	}
	return resp, err
}
