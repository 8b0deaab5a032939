// Package validator provides a small validation abstraction for request and
// dependency structs.
//
// Business code depends on the Validator interface. The go-playground
// validator v10 implementation lives in this package together with the custom
// rules the OTP flow needs.
package validator
