// Package clock provides a tiny time abstraction.
//
// Production code should depend on the Clocker interface instead of calling
// time.Now() directly. Expiry decisions in the OTP store read the clock through
// this interface, so tests drive TTL boundaries with a Frozen clock instead of
// sleeping.
package clock
