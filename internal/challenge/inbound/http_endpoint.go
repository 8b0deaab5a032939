package inbound

import (
	"github.com/shandysiswandi/trafficai/internal/challenge/usecase"
	"github.com/shandysiswandi/trafficai/internal/pkg/goerror"
	"github.com/shandysiswandi/trafficai/internal/pkg/router"
)

// HTTPEndpoint exposes HTTP handlers for the e-mail OTP login flow.
//
// Rejections are answered with HTTP 200 and success false: the login page
// branches on the body and treats any other status as a transport failure.
// Only internal errors keep their 500.
type HTTPEndpoint struct {
	uc uc
}

// SendOTP issues a one-time code and e-mails it to the given address.
// @Summary Send OTP
// @Description Issues a fresh numeric code for the address, replacing any earlier one, and e-mails it. The code is never returned.
// @Tags Challenge
// @Accept json
// @Produce json
// @Param request body SendOTPRequest true "Send OTP payload"
// @Success 200 {object} router.successResponse "OTP sent, or success false with the rejection message"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /send-otp [post]
func (h *HTTPEndpoint) SendOTP(r *router.Request) (any, error) {
	var req SendOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, goerror.WithInBand(err)
	}

	if err := h.uc.SendOTP(r.Context(), usecase.SendOTPInput{Email: req.Email}); err != nil {
		return nil, goerror.WithInBand(err)
	}

	return SendOTPResponse{}, nil
}

// VerifyOTP checks a submitted code. A code verifies at most once.
// @Summary Verify OTP
// @Description Verifies the code issued to the address. Unknown, wrong, expired and locked codes all answer "Incorrect OTP".
// @Tags Challenge
// @Accept json
// @Produce json
// @Param request body VerifyOTPRequest true "Verify OTP payload"
// @Success 200 {object} router.successResponse "OTP verified, or success false with the rejection message"
// @Failure 500 {object} router.errorResponse "Internal server error"
// @Router /verify-otp [post]
func (h *HTTPEndpoint) VerifyOTP(r *router.Request) (any, error) {
	var req VerifyOTPRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, goerror.WithInBand(err)
	}

	if err := h.uc.VerifyOTP(r.Context(), usecase.VerifyOTPInput{
		Email: req.Email,
		Code:  string(req.OTP),
	}); err != nil {
		return nil, goerror.WithInBand(err)
	}

	return VerifyOTPResponse{}, nil
}
