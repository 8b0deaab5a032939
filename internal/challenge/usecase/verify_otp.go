package usecase

import (
	"context"
	"log/slog"

	"github.com/shandysiswandi/trafficai/internal/challenge/entity"
	"github.com/shandysiswandi/trafficai/internal/pkg/goerror"
)

type VerifyOTPInput struct {
	Email string `json:"email" validate:"required,email,max=254"`
	Code  string `json:"otp" validate:"required,digits,max=10"`
}

func (s *Usecase) VerifyOTP(ctx context.Context, in VerifyOTPInput) error {
	ctx, span := s.startSpan(ctx, "VerifyOTP")
	defer span.End()

	in.Email = normalizeIdentifier(in.Email)

	if err := s.validator.Validate(in); err != nil {
		return goerror.NewInvalidInput(err)
	}

	res, err := s.repoStore.Verify(ctx, in.Email, in.Code)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo verify otp", "email", in.Email, "error", err)
		return goerror.NewServer(err)
	}

	s.countVerify(ctx, res)

	// every rejection looks the same to the caller; the log keeps the reason
	if res != entity.VerifyResultOK {
		slog.WarnContext(ctx, "otp verification rejected", "email", in.Email, "result", res.String())
		return goerror.NewBusiness("Incorrect OTP", goerror.CodeUnauthorized)
	}

	if err := s.repoMessaging.PublishOTPVerified(ctx, OTPVerifiedEvent{
		Identifier: in.Email,
		VerifiedAt: s.clock.Now(),
	}); err != nil {
		slog.ErrorContext(ctx, "failed to publish otp verified", "email", in.Email, "error", err)
	}

	return nil
}
