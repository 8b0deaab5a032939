// Package otp generates short numeric one-time codes.
//
// Codes are drawn uniformly from the range of numbers that have exactly the
// requested number of digits, so a length of 6 yields a value in
// [100000, 999999]. The random source is injectable to make tests
// deterministic.
package otp
