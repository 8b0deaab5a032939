package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/shandysiswandi/trafficai/internal/challenge/entity"
	"github.com/shandysiswandi/trafficai/internal/pkg/clock"
	"github.com/shandysiswandi/trafficai/internal/pkg/config"
	"github.com/shandysiswandi/trafficai/internal/pkg/instrument"
	"github.com/shandysiswandi/trafficai/internal/pkg/mail"
	"github.com/shandysiswandi/trafficai/internal/pkg/validator"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

type OTPIssuedEvent struct {
	Identifier string
	IssuedAt   time.Time
	ExpiresAt  time.Time
}

type OTPVerifiedEvent struct {
	Identifier string
	VerifiedAt time.Time
}

type repoStore interface {
	Issue(ctx context.Context, identifier string) (string, error)
	Verify(ctx context.Context, identifier, candidate string) (entity.VerifyResult, error)
	Revoke(ctx context.Context, identifier, code string) error
}

type repoLimiter interface {
	Allow(ctx context.Context, identifier string) (entity.Throttle, error)
	Refund(ctx context.Context, identifier string) error
}

type repoMail interface {
	Send(ctx context.Context, msg mail.Message) error
}

type repoMessaging interface {
	PublishOTPIssued(ctx context.Context, msg OTPIssuedEvent) error
	PublishOTPVerified(ctx context.Context, msg OTPVerifiedEvent) error
}

type Usecase struct {
	repoStore     repoStore
	repoLimiter   repoLimiter
	repoMail      repoMail
	repoMessaging repoMessaging
	validator     validator.Validator
	cfg           config.Config
	clock         clock.Clocker
	ins           instrument.Instrumentation

	issuedCounter metric.Int64Counter
	verifyCounter metric.Int64Counter
}

type Dependency struct {
	RepoStore     repoStore
	RepoLimiter   repoLimiter
	RepoMail      repoMail
	RepoMessaging repoMessaging
	Validator     validator.Validator
	Config        config.Config
	Clock         clock.Clocker
	Instrument    instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	uc := &Usecase{
		repoStore:     dep.RepoStore,
		repoLimiter:   dep.RepoLimiter,
		repoMail:      dep.RepoMail,
		repoMessaging: dep.RepoMessaging,
		validator:     dep.Validator,
		cfg:           dep.Config,
		clock:         dep.Clock,
		ins:           dep.Instrument,
	}

	meter := uc.ins.Meter("challenge.usecase")

	var err error
	uc.issuedCounter, err = meter.Int64Counter("otp.issued", metric.WithDescription("OTP issuance attempts by outcome"))
	if err != nil {
		slog.Error("failed to create otp issued counter", "error", err)
	}

	uc.verifyCounter, err = meter.Int64Counter("otp.verify", metric.WithDescription("OTP verification attempts by result"))
	if err != nil {
		slog.Error("failed to create otp verify counter", "error", err)
	}

	return uc
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("challenge.usecase").Start(ctx, name)
}

func (s *Usecase) countIssued(ctx context.Context, outcome string) {
	if s.issuedCounter != nil {
		s.issuedCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	}
}

func (s *Usecase) countVerify(ctx context.Context, result entity.VerifyResult) {
	if s.verifyCounter != nil {
		s.verifyCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result.String())))
	}
}

func (s *Usecase) ttl() time.Duration {
	return s.cfg.GetSecond("otp.ttl_seconds")
}

// normalizeIdentifier makes addresses differing only in case or surrounding
// whitespace map to the same record.
func normalizeIdentifier(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
