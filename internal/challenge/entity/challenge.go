package entity

import "time"

// Record is the live one-time code held for an identifier. Only the keyed
// digest of the code is kept.
type Record struct {
	Identifier string
	CodeHash   []byte
	IssuedAt   time.Time
	ExpiresAt  time.Time
	Attempts   int
}

// Expired reports whether the record is no longer usable at now.
func (r Record) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// Locked reports whether the failed attempts reached maxAttempts.
func (r Record) Locked(maxAttempts int) bool {
	return r.Attempts >= maxAttempts
}

// Throttle is the outcome of an issuance budget check.
type Throttle struct {
	Allowed    bool
	RetryAfter time.Duration
}
