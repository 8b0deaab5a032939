package otp

import (
	"crypto/rand"
	"errors"
	"io"
	"math/big"
	"strconv"
)

const (
	// MinLength is the shortest code length accepted by Random.
	MinLength = 4
	// MaxLength is the longest code length accepted by Random.
	MaxLength = 10
)

// ErrInvalidLength is returned when the requested length is outside [MinLength, MaxLength].
var ErrInvalidLength = errors.New("otp: code length out of range")

// Generator produces numeric one-time codes.
type Generator interface {
	// Generate returns a code made of exactly length decimal digits.
	Generate(length int) (string, error)
}

// Random generates codes from a cryptographically strong source.
type Random struct {
	reader io.Reader
}

// NewRandom returns a Random generator reading from r. A nil reader falls back
// to crypto/rand.Reader.
func NewRandom(r io.Reader) *Random {
	if r == nil {
		r = rand.Reader
	}

	return &Random{reader: r}
}

// Generate draws a uniform integer in [10^(length-1), 10^length - 1].
func (g *Random) Generate(length int) (string, error) {
	if length < MinLength || length > MaxLength {
		return "", ErrInvalidLength
	}

	low := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length-1)), nil)
	high := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)
	span := new(big.Int).Sub(high, low)

	n, err := rand.Int(g.reader, span)
	if err != nil {
		return "", err
	}

	return strconv.FormatInt(n.Add(n, low).Int64(), 10), nil
}
