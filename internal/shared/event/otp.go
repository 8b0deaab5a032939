package event

import "time"

const OTPIssuedDestination string = "otp_issued"
const OTPVerifiedDestination string = "otp_verified"

// OTPIssuedMessage announces that a code was delivered. It never carries the code.
type OTPIssuedMessage struct {
	Identifier string    `json:"identifier"`
	IssuedAt   time.Time `json:"issued_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// OTPVerifiedMessage is the authenticated-session signal for downstream consumers.
type OTPVerifiedMessage struct {
	Identifier string    `json:"identifier"`
	VerifiedAt time.Time `json:"verified_at"`
}
