package otp_test

import (
	"bytes"
	"errors"
	"strconv"
	"testing"

	. "github.com/onsi/gomega"
	"github.com/shandysiswandi/trafficai/internal/pkg/otp"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("entropy exhausted")
}

func TestRandom_GenerateRange(t *testing.T) {
	g := NewWithT(t)

	gen := otp.NewRandom(nil)
	for range 500 {
		code, err := gen.Generate(6)
		g.Expect(err).NotTo(HaveOccurred())
		g.Expect(code).To(HaveLen(6))

		n, err := strconv.Atoi(code)
		g.Expect(err).NotTo(HaveOccurred())
		g.Expect(n).To(BeNumerically(">=", 100000))
		g.Expect(n).To(BeNumerically("<=", 999999))
	}
}

func TestRandom_GenerateDeterministicReader(t *testing.T) {
	g := NewWithT(t)

	// An all-zero stream makes rand.Int return 0, the lower bound of the range.
	gen := otp.NewRandom(bytes.NewReader(make([]byte, 64)))
	code, err := gen.Generate(6)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(code).To(Equal("100000"))
}

func TestRandom_GenerateErrors(t *testing.T) {
	tests := []struct {
		name   string
		gen    *otp.Random
		length int
	}{
		{name: "too short", gen: otp.NewRandom(nil), length: 3},
		{name: "too long", gen: otp.NewRandom(nil), length: 11},
		{name: "reader fails", gen: otp.NewRandom(failingReader{}), length: 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithT(t)

			code, err := tt.gen.Generate(tt.length)
			g.Expect(err).To(HaveOccurred())
			g.Expect(code).To(BeEmpty())
		})
	}
}
