package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shandysiswandi/trafficai/internal/pkg/goerror"
	"github.com/shandysiswandi/trafficai/internal/pkg/mail"
)

const (
	defaultDispatchTimeout = 10 * time.Second
	defaultDispatchBackoff = 200 * time.Millisecond
)

type SendOTPInput struct {
	Email string `json:"email" validate:"required,email,max=254"`
}

func (s *Usecase) SendOTP(ctx context.Context, in SendOTPInput) error {
	ctx, span := s.startSpan(ctx, "SendOTP")
	defer span.End()

	in.Email = normalizeIdentifier(in.Email)

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	th, err := s.repoLimiter.Allow(ctx, in.Email)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo check issuance throttle", "email", in.Email, "error", err)
		return goerror.NewServer(err)
	}
	if !th.Allowed {
		slog.WarnContext(ctx, "otp issuance throttled", "email", in.Email, "retry_after_ms", th.RetryAfter.Milliseconds())
		s.countIssued(ctx, "throttled")
		return goerror.NewBusiness("Too many requests, please try again later", goerror.CodeTooManyRequest)
	}

	code, err := s.repoStore.Issue(ctx, in.Email)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo issue otp", "email", in.Email, "error", err)
		return goerror.NewServer(err)
	}

	ttl := s.ttl()
	issuedAt := s.clock.Now()

	msg, err := renderOTPMail(in.Email, code, ttl)
	if err == nil {
		err = s.dispatch(ctx, msg)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to dispatch otp mail", "email", in.Email, "error", err)
		s.rollback(ctx, in.Email, code)
		s.countIssued(ctx, "dispatch_failed")
		return goerror.NewUnavailable(err, "Failed to send OTP")
	}

	s.countIssued(ctx, "sent")

	if err := s.repoMessaging.PublishOTPIssued(ctx, OTPIssuedEvent{
		Identifier: in.Email,
		IssuedAt:   issuedAt,
		ExpiresAt:  issuedAt.Add(ttl),
	}); err != nil {
		slog.ErrorContext(ctx, "failed to publish otp issued", "email", in.Email, "error", err)
	}

	return nil
}

// dispatch sends msg under the configured deadline, retrying transient
// failures with a fibonacci backoff while the deadline allows.
func (s *Usecase) dispatch(ctx context.Context, msg mail.Message) error {
	timeout := s.cfg.GetSecond("otp.dispatch.timeout_seconds")
	if timeout <= 0 {
		timeout = defaultDispatchTimeout
	}

	base := time.Duration(s.cfg.GetInt("otp.dispatch.backoff_ms")) * time.Millisecond
	if base <= 0 {
		base = defaultDispatchBackoff
	}

	retries := s.cfg.GetInt("otp.dispatch.max_retries")
	if retries < 0 {
		retries = 0
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	b := retry.NewFibonacci(base)
	b = retry.WithMaxRetries(uint64(retries), b)

	return retry.Do(ctx, b, func(ctx context.Context) error {
		err := s.repoMail.Send(ctx, msg)
		if err == nil {
			return nil
		}
		if mail.IsPermanent(err) {
			return err
		}

		slog.WarnContext(ctx, "otp mail attempt failed", "error", err)
		return retry.RetryableError(err)
	})
}

// rollback removes the undelivered code so a later verify reports not found,
// and gives the issuance back to the throttle so the caller may retry at once.
// It runs detached from the request context, which may already be done.
func (s *Usecase) rollback(ctx context.Context, identifier, code string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := s.repoStore.Revoke(ctx, identifier, code); err != nil {
		slog.ErrorContext(ctx, "failed to repo revoke undelivered otp", "email", identifier, "error", err)
	}

	if err := s.repoLimiter.Refund(ctx, identifier); err != nil {
		slog.ErrorContext(ctx, "failed to repo refund issuance throttle", "email", identifier, "error", err)
	}
}
