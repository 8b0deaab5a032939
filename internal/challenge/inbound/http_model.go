package inbound

import (
	"bytes"
	"encoding/json"
	"errors"
)

var errOTPType = errors.New("otp must be a string or a number")

type SendOTPRequest struct {
	Email string `json:"email" example:"a@example.com"`
}

type SendOTPResponse struct{}

func (SendOTPResponse) Message() string { return "OTP Sent Successfully!" }

func (SendOTPResponse) Empty() bool { return true }

type VerifyOTPRequest struct {
	Email string   `json:"email" example:"a@example.com"`
	OTP   OTPValue `json:"otp" swaggertype:"string" example:"482913"`
}

type VerifyOTPResponse struct{}

func (VerifyOTPResponse) Message() string { return "OTP verified successfully" }

func (VerifyOTPResponse) Empty() bool { return true }

// OTPValue accepts the code as a JSON string or a bare JSON number. A number
// keeps its literal text so validation sees exactly what was sent.
type OTPValue string

func (v *OTPValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	switch {
	case bytes.Equal(data, []byte("null")):
		*v = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = OTPValue(s)
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return errOTPType
		}
		*v = OTPValue(n.String())
		return nil
	}
}
