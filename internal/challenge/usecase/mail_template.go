package usecase

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/shandysiswandi/trafficai/internal/pkg/mail"
)

const otpMailSubject = "Your OTP Code"

var otpMailHTML = template.Must(template.New("otp_html").Parse(
	`<p>Your OTP is:</p><h1>{{.Code}}</h1><p>This code expires in {{.Minutes}} {{if eq .Minutes 1}}minute{{else}}minutes{{end}}.</p>`,
))

type otpMailData struct {
	Code    string
	Minutes int
}

func ttlMinutes(ttl time.Duration) int {
	m := int((ttl + time.Minute - 1) / time.Minute)
	if m < 1 {
		return 1
	}
	return m
}

func renderOTPMail(to, code string, ttl time.Duration) (mail.Message, error) {
	data := otpMailData{Code: code, Minutes: ttlMinutes(ttl)}

	var html bytes.Buffer
	if err := otpMailHTML.Execute(&html, data); err != nil {
		return mail.Message{}, err
	}

	unit := "minutes"
	if data.Minutes == 1 {
		unit = "minute"
	}

	return mail.Message{
		To:       []string{to},
		Subject:  otpMailSubject,
		HTMLBody: html.String(),
		TextBody: fmt.Sprintf("Your OTP is: %s\n\nThis code expires in %d %s.", code, data.Minutes, unit),
	}, nil
}
