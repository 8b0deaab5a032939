package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	. "github.com/onsi/gomega"
	"github.com/shandysiswandi/trafficai/internal/challenge/entity"
	"github.com/shandysiswandi/trafficai/internal/pkg/clock"
	"github.com/shandysiswandi/trafficai/internal/pkg/hash"
	"github.com/shandysiswandi/trafficai/internal/pkg/instrument"
)

var testEpoch = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

type seqGenerator struct {
	mu    sync.Mutex
	codes []string
	next  int
}

func (s *seqGenerator) Generate(int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	code := s.codes[s.next%len(s.codes)]
	s.next++
	return code, nil
}

type store interface {
	Issue(ctx context.Context, identifier string) (string, error)
	Verify(ctx context.Context, identifier, candidate string) (entity.VerifyResult, error)
	Revoke(ctx context.Context, identifier, code string) error
}

type storeFactory func(t *testing.T, dep Dependency, opt Options) store

func testDependency(clk clock.Clocker, codes ...string) Dependency {
	return Dependency{
		Generator:  &seqGenerator{codes: codes},
		Hash:       hash.NewHMACSHA256("test-secret"),
		Clock:      clk,
		Instrument: instrument.NewNoop(),
	}
}

func defaultOptions() Options {
	return Options{TTL: 5 * time.Minute, MaxAttempts: 3, CodeLength: 6}
}

// runStoreContract exercises the behavior every store driver must share.
func runStoreContract(t *testing.T, newStore storeFactory) {
	ctx := context.Background()

	t.Run("verify before issue is not found", func(t *testing.T) {
		g := NewWithT(t)
		s := newStore(t, testDependency(clock.NewFrozen(testEpoch), "482913"), defaultOptions())

		res, err := s.Verify(ctx, "nobody@example.com", "482913")
		g.Expect(err).NotTo(HaveOccurred())
		g.Expect(res).To(Equal(entity.VerifyResultNotFound))
	})

	t.Run("correct code verifies once", func(t *testing.T) {
		g := NewWithT(t)
		s := newStore(t, testDependency(clock.NewFrozen(testEpoch), "482913"), defaultOptions())

		code, err := s.Issue(ctx, "a@example.com")
		g.Expect(err).NotTo(HaveOccurred())
		g.Expect(code).To(Equal("482913"))

		g.Expect(s.Verify(ctx, "a@example.com", "482913")).To(Equal(entity.VerifyResultOK))
		g.Expect(s.Verify(ctx, "a@example.com", "482913")).To(Equal(entity.VerifyResultNotFound))
	})

	t.Run("wrong codes lock the record", func(t *testing.T) {
		g := NewWithT(t)
		s := newStore(t, testDependency(clock.NewFrozen(testEpoch), "482913"), defaultOptions())

		_, err := s.Issue(ctx, "a@example.com")
		g.Expect(err).NotTo(HaveOccurred())

		g.Expect(s.Verify(ctx, "a@example.com", "000000")).To(Equal(entity.VerifyResultInvalid))
		g.Expect(s.Verify(ctx, "a@example.com", "000000")).To(Equal(entity.VerifyResultInvalid))
		g.Expect(s.Verify(ctx, "a@example.com", "000000")).To(Equal(entity.VerifyResultLocked))
		g.Expect(s.Verify(ctx, "a@example.com", "482913")).To(Equal(entity.VerifyResultLocked))
		g.Expect(s.Verify(ctx, "a@example.com", "482913")).To(Equal(entity.VerifyResultNotFound))
	})

	t.Run("expired code is rejected even when correct", func(t *testing.T) {
		g := NewWithT(t)
		clk := clock.NewFrozen(testEpoch)
		s := newStore(t, testDependency(clk, "482913"), defaultOptions())

		_, err := s.Issue(ctx, "a@example.com")
		g.Expect(err).NotTo(HaveOccurred())

		clk.Advance(5 * time.Minute)
		g.Expect(s.Verify(ctx, "a@example.com", "482913")).To(Equal(entity.VerifyResultExpired))
		g.Expect(s.Verify(ctx, "a@example.com", "482913")).To(Equal(entity.VerifyResultNotFound))
	})

	t.Run("reissue invalidates the previous code and resets attempts", func(t *testing.T) {
		g := NewWithT(t)
		s := newStore(t, testDependency(clock.NewFrozen(testEpoch), "111111", "222222"), defaultOptions())

		_, err := s.Issue(ctx, "a@example.com")
		g.Expect(err).NotTo(HaveOccurred())
		g.Expect(s.Verify(ctx, "a@example.com", "000000")).To(Equal(entity.VerifyResultInvalid))
		g.Expect(s.Verify(ctx, "a@example.com", "000000")).To(Equal(entity.VerifyResultInvalid))

		_, err = s.Issue(ctx, "a@example.com")
		g.Expect(err).NotTo(HaveOccurred())

		g.Expect(s.Verify(ctx, "a@example.com", "111111")).To(Equal(entity.VerifyResultInvalid))
		g.Expect(s.Verify(ctx, "a@example.com", "222222")).To(Equal(entity.VerifyResultOK))
	})

	t.Run("identifiers are independent", func(t *testing.T) {
		g := NewWithT(t)
		s := newStore(t, testDependency(clock.NewFrozen(testEpoch), "111111", "222222"), defaultOptions())

		_, err := s.Issue(ctx, "a@example.com")
		g.Expect(err).NotTo(HaveOccurred())
		_, err = s.Issue(ctx, "b@example.com")
		g.Expect(err).NotTo(HaveOccurred())

		g.Expect(s.Verify(ctx, "b@example.com", "111111")).To(Equal(entity.VerifyResultInvalid))
		g.Expect(s.Verify(ctx, "a@example.com", "111111")).To(Equal(entity.VerifyResultOK))
	})

	t.Run("revoke only removes the matching code", func(t *testing.T) {
		g := NewWithT(t)
		s := newStore(t, testDependency(clock.NewFrozen(testEpoch), "111111", "222222"), defaultOptions())

		first, err := s.Issue(ctx, "a@example.com")
		g.Expect(err).NotTo(HaveOccurred())
		_, err = s.Issue(ctx, "a@example.com")
		g.Expect(err).NotTo(HaveOccurred())

		g.Expect(s.Revoke(ctx, "a@example.com", first)).To(Succeed())
		g.Expect(s.Verify(ctx, "a@example.com", "222222")).To(Equal(entity.VerifyResultOK))

		code, err := s.Issue(ctx, "a@example.com")
		g.Expect(err).NotTo(HaveOccurred())
		g.Expect(s.Revoke(ctx, "a@example.com", code)).To(Succeed())
		g.Expect(s.Verify(ctx, "a@example.com", code)).To(Equal(entity.VerifyResultNotFound))
		g.Expect(s.Revoke(ctx, "ghost@example.com", code)).To(Succeed())
	})

	t.Run("concurrent correct verifies succeed once", func(t *testing.T) {
		g := NewWithT(t)
		s := newStore(t, testDependency(clock.NewFrozen(testEpoch), "482913"), defaultOptions())

		_, err := s.Issue(ctx, "a@example.com")
		g.Expect(err).NotTo(HaveOccurred())

		const workers = 16
		results := make(chan entity.VerifyResult, workers)
		var wg sync.WaitGroup
		for range workers {
			wg.Go(func() {
				res, _ := s.Verify(ctx, "a@example.com", "482913")
				results <- res
			})
		}
		wg.Wait()
		close(results)

		ok := 0
		for res := range results {
			if res == entity.VerifyResultOK {
				ok++
			}
		}
		g.Expect(ok).To(Equal(1))
	})
}
