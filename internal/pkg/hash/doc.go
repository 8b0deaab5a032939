// Package hash provides keyed digests for secrets that must never be stored in
// plain form.
//
// The OTP store keeps only the HMAC of an issued code and compares candidates
// against it in constant time, so a leaked cache dump does not reveal live
// codes.
package hash
