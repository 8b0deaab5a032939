// Package mail defines the contract for sending email messages and the
// drivers behind it.
//
// Use cases only see Mail and Message. The concrete delivery mechanism is
// picked at startup with NewFromDriver: the Resend HTTP API, an SMTP relay,
// AWS SES, or a log-only sender for local development.
package mail
