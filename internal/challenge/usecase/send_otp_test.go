package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	. "github.com/onsi/gomega"
	"github.com/shandysiswandi/trafficai/internal/challenge/entity"
	"github.com/shandysiswandi/trafficai/internal/challenge/outbound/cache"
	"github.com/shandysiswandi/trafficai/internal/pkg/clock"
	"github.com/shandysiswandi/trafficai/internal/pkg/goerror"
	"github.com/shandysiswandi/trafficai/internal/pkg/mail"
)

func TestUsecase_SendOTP(t *testing.T) {
	ctx := context.Background()

	t.Run("sends the issued code and publishes", func(t *testing.T) {
		g := NewWithT(t)
		f := newFixture(t, "482913", nil)

		err := f.uc.SendOTP(ctx, SendOTPInput{Email: "  A@Example.com "})
		g.Expect(err).NotTo(HaveOccurred())

		g.Expect(f.mail.sent).To(HaveLen(1))
		msg := f.mail.sent[0]
		g.Expect(msg.To).To(Equal([]string{"a@example.com"}))
		g.Expect(msg.Subject).To(Equal("Your OTP Code"))
		g.Expect(msg.HTMLBody).To(ContainSubstring("<h1>482913</h1>"))
		g.Expect(msg.HTMLBody).To(ContainSubstring("5 minutes"))
		g.Expect(msg.TextBody).To(ContainSubstring("482913"))

		g.Expect(f.mq.issued).To(HaveLen(1))
		g.Expect(f.mq.issued[0].Identifier).To(Equal("a@example.com"))
		g.Expect(f.mq.issued[0].ExpiresAt.Sub(f.mq.issued[0].IssuedAt)).To(Equal(5 * time.Minute))

		res, err := f.store.Verify(ctx, "a@example.com", "482913")
		g.Expect(err).NotTo(HaveOccurred())
		g.Expect(res).To(Equal(entity.VerifyResultOK))
	})

	t.Run("invalid email is a validation error", func(t *testing.T) {
		g := NewWithT(t)
		f := newFixture(t, "482913", nil)

		for _, email := range []string{"", "not-an-email", "a@"} {
			err := f.uc.SendOTP(ctx, SendOTPInput{Email: email})

			var ge *goerror.Error
			g.Expect(errors.As(err, &ge)).To(BeTrue(), email)
			g.Expect(ge.Code()).To(Equal(goerror.CodeInvalidInput))
		}
		g.Expect(f.mail.calls).To(BeZero())
		g.Expect(f.store.Len()).To(BeZero())
	})

	t.Run("dispatch failure rolls back the code", func(t *testing.T) {
		g := NewWithT(t)
		f := newFixture(t, "482913", nil)
		f.mail.err = errors.New("provider down")

		err := f.uc.SendOTP(ctx, SendOTPInput{Email: "a@example.com"})

		var ge *goerror.Error
		g.Expect(errors.As(err, &ge)).To(BeTrue())
		g.Expect(ge.Code()).To(Equal(goerror.CodeUnavailable))
		g.Expect(ge.Msg()).To(Equal("Failed to send OTP"))
		g.Expect(f.mail.calls).To(Equal(3))
		g.Expect(f.mq.issued).To(BeEmpty())

		res, err := f.store.Verify(ctx, "a@example.com", "482913")
		g.Expect(err).NotTo(HaveOccurred())
		g.Expect(res).To(Equal(entity.VerifyResultNotFound))
	})

	t.Run("publish failure does not fail the request", func(t *testing.T) {
		g := NewWithT(t)
		f := newFixture(t, "482913", nil)
		f.mq.err = errors.New("broker down")

		g.Expect(f.uc.SendOTP(ctx, SendOTPInput{Email: "a@example.com"})).To(Succeed())
		g.Expect(f.mail.sent).To(HaveLen(1))
	})

	t.Run("throttled issuance is too many requests", func(t *testing.T) {
		g := NewWithT(t)
		lim := cache.NewMemoryLimiter(clock.NewFrozen(time.Now()), cache.ThrottleOptions{MaxPerWindow: 1, Window: time.Hour})
		f := newFixture(t, "482913", lim)

		g.Expect(f.uc.SendOTP(ctx, SendOTPInput{Email: "a@example.com"})).To(Succeed())

		err := f.uc.SendOTP(ctx, SendOTPInput{Email: "a@example.com"})

		var ge *goerror.Error
		g.Expect(errors.As(err, &ge)).To(BeTrue())
		g.Expect(ge.Code()).To(Equal(goerror.CodeTooManyRequest))
		g.Expect(ge.StatusCode()).To(Equal(429))
		g.Expect(f.mail.sent).To(HaveLen(1))

		g.Expect(f.uc.SendOTP(ctx, SendOTPInput{Email: "b@example.com"})).To(Succeed())
	})

	t.Run("dispatch past the deadline rolls back the code", func(t *testing.T) {
		g := NewWithT(t)
		f := newFixture(t, "482913", nil)
		f.mail.hang = true

		start := time.Now()
		err := f.uc.SendOTP(ctx, SendOTPInput{Email: "a@example.com"})
		elapsed := time.Since(start)

		var ge *goerror.Error
		g.Expect(errors.As(err, &ge)).To(BeTrue())
		g.Expect(ge.Code()).To(Equal(goerror.CodeUnavailable))
		g.Expect(errors.Is(err, context.DeadlineExceeded)).To(BeTrue())
		g.Expect(elapsed).To(BeNumerically(">=", 900*time.Millisecond))
		g.Expect(elapsed).To(BeNumerically("<", 3*time.Second))
		g.Expect(f.mail.calls).To(Equal(1))

		res, err := f.store.Verify(ctx, "a@example.com", "482913")
		g.Expect(err).NotTo(HaveOccurred())
		g.Expect(res).To(Equal(entity.VerifyResultNotFound))
	})

	t.Run("rejected message is not retried", func(t *testing.T) {
		g := NewWithT(t)
		f := newFixture(t, "482913", nil)
		f.mail.err = fmt.Errorf("%w: resend status 422: invalid to", mail.ErrRejected)

		err := f.uc.SendOTP(ctx, SendOTPInput{Email: "a@example.com"})

		var ge *goerror.Error
		g.Expect(errors.As(err, &ge)).To(BeTrue())
		g.Expect(ge.Code()).To(Equal(goerror.CodeUnavailable))
		g.Expect(f.mail.calls).To(Equal(1))
	})

	t.Run("failed dispatch gives the throttle slot back", func(t *testing.T) {
		g := NewWithT(t)
		lim := cache.NewMemoryLimiter(clock.NewFrozen(time.Now()), cache.ThrottleOptions{MaxPerWindow: 1, Window: time.Hour, Cooldown: time.Minute})
		f := newFixture(t, "482913", lim)
		f.mail.err = errors.New("provider down")

		err := f.uc.SendOTP(ctx, SendOTPInput{Email: "a@example.com"})
		var ge *goerror.Error
		g.Expect(errors.As(err, &ge)).To(BeTrue())
		g.Expect(ge.Code()).To(Equal(goerror.CodeUnavailable))

		f.mail.err = nil
		g.Expect(f.uc.SendOTP(ctx, SendOTPInput{Email: "a@example.com"})).To(Succeed())
		g.Expect(f.mail.sent).To(HaveLen(1))

		err = f.uc.SendOTP(ctx, SendOTPInput{Email: "a@example.com"})
		g.Expect(errors.As(err, &ge)).To(BeTrue())
		g.Expect(ge.Code()).To(Equal(goerror.CodeTooManyRequest))
	})
}

func TestTTLMinutes(t *testing.T) {
	g := NewWithT(t)

	g.Expect(ttlMinutes(5 * time.Minute)).To(Equal(5))
	g.Expect(ttlMinutes(90 * time.Second)).To(Equal(2))
	g.Expect(ttlMinutes(10 * time.Second)).To(Equal(1))
}
