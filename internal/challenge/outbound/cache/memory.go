package cache

import (
	"context"
	"sync"

	"github.com/shandysiswandi/trafficai/internal/challenge/entity"
	"go.opentelemetry.io/otel/trace"
)

// Memory is a process-local OTP store. A single mutex serializes every
// operation, which makes issue and verify atomic per identifier.
type Memory struct {
	dep Dependency
	opt Options

	mu      sync.Mutex
	records map[string]entity.Record
}

// NewMemory constructs an in-memory store.
func NewMemory(dep Dependency, opt Options) (*Memory, error) {
	if err := opt.validate(); err != nil {
		return nil, err
	}

	return &Memory{dep: dep, opt: opt, records: make(map[string]entity.Record)}, nil
}

func (m *Memory) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return m.dep.Instrument.Tracer("challenge.outbound.cache.memory").Start(ctx, name)
}

// Issue stores a fresh code for identifier, replacing any previous one.
func (m *Memory) Issue(ctx context.Context, identifier string) (string, error) {
	_, span := m.startSpan(ctx, "Issue")
	defer span.End()

	code, err := m.dep.Generator.Generate(m.opt.CodeLength)
	if err != nil {
		recordSpanError(span, err)
		return "", err
	}

	digest, err := m.dep.Hash.Hash(code)
	if err != nil {
		recordSpanError(span, err)
		return "", err
	}

	now := m.dep.Clock.Now()

	m.mu.Lock()
	m.records[identifier] = entity.Record{
		Identifier: identifier,
		CodeHash:   digest,
		IssuedAt:   now,
		ExpiresAt:  now.Add(m.opt.TTL),
	}
	m.mu.Unlock()

	return code, nil
}

// Verify checks candidate against the live record of identifier.
func (m *Memory) Verify(ctx context.Context, identifier, candidate string) (entity.VerifyResult, error) {
	_, span := m.startSpan(ctx, "Verify")
	defer span.End()

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[identifier]
	if !ok {
		return entity.VerifyResultNotFound, nil
	}

	if rec.Expired(m.dep.Clock.Now()) {
		delete(m.records, identifier)
		return entity.VerifyResultExpired, nil
	}

	if rec.Locked(m.opt.MaxAttempts) {
		delete(m.records, identifier)
		return entity.VerifyResultLocked, nil
	}

	if m.dep.Hash.Verify(string(rec.CodeHash), candidate) {
		delete(m.records, identifier)
		return entity.VerifyResultOK, nil
	}

	rec.Attempts++
	m.records[identifier] = rec

	if rec.Locked(m.opt.MaxAttempts) {
		return entity.VerifyResultLocked, nil
	}

	return entity.VerifyResultInvalid, nil
}

// Revoke deletes the record of identifier only if it still holds code.
func (m *Memory) Revoke(ctx context.Context, identifier, code string) error {
	_, span := m.startSpan(ctx, "Revoke")
	defer span.End()

	m.mu.Lock()
	defer m.mu.Unlock()

	if rec, ok := m.records[identifier]; ok && m.dep.Hash.Verify(string(rec.CodeHash), code) {
		delete(m.records, identifier)
	}

	return nil
}

// Sweep evicts every expired record and returns how many were removed.
func (m *Memory) Sweep(ctx context.Context) int {
	_, span := m.startSpan(ctx, "Sweep")
	defer span.End()

	now := m.dep.Clock.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, rec := range m.records {
		if rec.Expired(now) {
			delete(m.records, id)
			removed++
		}
	}

	return removed
}

// Len returns the number of records currently held.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.records)
}
