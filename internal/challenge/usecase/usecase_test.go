package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	. "github.com/onsi/gomega"
	"github.com/shandysiswandi/trafficai/internal/challenge/entity"
	"github.com/shandysiswandi/trafficai/internal/challenge/outbound/cache"
	"github.com/shandysiswandi/trafficai/internal/pkg/clock"
	"github.com/shandysiswandi/trafficai/internal/pkg/config"
	"github.com/shandysiswandi/trafficai/internal/pkg/hash"
	"github.com/shandysiswandi/trafficai/internal/pkg/instrument"
	"github.com/shandysiswandi/trafficai/internal/pkg/mail"
	"github.com/shandysiswandi/trafficai/internal/pkg/validator"
)

const testConfig = `
otp:
  ttl_seconds: 300
  max_attempts: 3
  code_length: 6
  dispatch:
    timeout_seconds: 1
    max_retries: 2
    backoff_ms: 1
`

type fixedGenerator struct{ code string }

func (f fixedGenerator) Generate(int) (string, error) { return f.code, nil }

type fakeMail struct {
	mu    sync.Mutex
	err   error
	hang  bool
	calls int
	sent  []mail.Message
}

func (f *fakeMail) Send(ctx context.Context, msg mail.Message) error {
	f.mu.Lock()
	f.calls++
	hang, err := f.hang, f.err
	f.mu.Unlock()

	if hang {
		<-ctx.Done()
		return ctx.Err()
	}
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return nil
}

type fakeMessaging struct {
	mu       sync.Mutex
	err      error
	issued   []OTPIssuedEvent
	verified []OTPVerifiedEvent
}

func (f *fakeMessaging) PublishOTPIssued(_ context.Context, msg OTPIssuedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.issued = append(f.issued, msg)
	return f.err
}

func (f *fakeMessaging) PublishOTPVerified(_ context.Context, msg OTPVerifiedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verified = append(f.verified, msg)
	return f.err
}

type allowAll struct{}

func (allowAll) Allow(context.Context, string) (entity.Throttle, error) {
	return entity.Throttle{Allowed: true}, nil
}

func (allowAll) Refund(context.Context, string) error { return nil }

type fixture struct {
	uc      *Usecase
	store   *cache.Memory
	mail    *fakeMail
	mq      *fakeMessaging
	clock   *clock.Frozen
	limiter repoLimiter
}

func newFixture(t *testing.T, code string, limiter repoLimiter) *fixture {
	t.Helper()
	g := NewWithT(t)

	cfg, err := config.NewViperFromBytes("yaml", []byte(testConfig))
	g.Expect(err).NotTo(HaveOccurred())
	t.Cleanup(func() { _ = cfg.Close() })

	v, err := validator.NewV10Validator()
	g.Expect(err).NotTo(HaveOccurred())

	clk := clock.NewFrozen(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	store, err := cache.NewMemory(cache.Dependency{
		Generator:  fixedGenerator{code: code},
		Hash:       hash.NewHMACSHA256("test-secret"),
		Clock:      clk,
		Instrument: instrument.NewNoop(),
	}, cache.Options{TTL: 5 * time.Minute, MaxAttempts: 3, CodeLength: 6})
	g.Expect(err).NotTo(HaveOccurred())

	if limiter == nil {
		limiter = allowAll{}
	}

	f := &fixture{store: store, mail: &fakeMail{}, mq: &fakeMessaging{}, clock: clk, limiter: limiter}
	f.uc = New(Dependency{
		RepoStore:     store,
		RepoLimiter:   limiter,
		RepoMail:      f.mail,
		RepoMessaging: f.mq,
		Validator:     v,
		Config:        cfg,
		Clock:         clk,
		Instrument:    instrument.NewNoop(),
	})
	return f
}
