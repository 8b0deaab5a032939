package cache

import (
	"errors"
	"time"

	"github.com/shandysiswandi/trafficai/internal/pkg/clock"
	"github.com/shandysiswandi/trafficai/internal/pkg/hash"
	"github.com/shandysiswandi/trafficai/internal/pkg/instrument"
	"github.com/shandysiswandi/trafficai/internal/pkg/otp"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// DriverMemory keeps records in process memory.
	DriverMemory = "memory"
	// DriverRedis keeps records in redis, shared across processes.
	DriverRedis = "redis"
)

var (
	// ErrInvalidOptions is returned when TTL, attempts or code length are out of range.
	ErrInvalidOptions = errors.New("cache: invalid store options")
	// ErrUnknownDriver indicates an unsupported store driver.
	ErrUnknownDriver = errors.New("cache: unknown driver")
)

// Options holds the policy knobs shared by every store driver.
type Options struct {
	TTL         time.Duration
	MaxAttempts int
	CodeLength  int
}

func (o Options) validate() error {
	if o.TTL <= 0 || o.MaxAttempts <= 0 || o.CodeLength < otp.MinLength || o.CodeLength > otp.MaxLength {
		return ErrInvalidOptions
	}
	return nil
}

// Dependency carries the collaborators injected into a store.
type Dependency struct {
	Generator  otp.Generator
	Hash       hash.Hash
	Clock      clock.Clocker
	Instrument instrument.Instrumentation
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
