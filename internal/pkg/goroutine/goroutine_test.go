package goroutine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	. "github.com/onsi/gomega"
)

func TestManager_CollectsErrorsAndPanics(t *testing.T) {
	g := NewWithT(t)
	m := NewManager(4)
	ctx := context.Background()

	var ran atomic.Int32
	g.Expect(m.Go(ctx, "ok", func(context.Context) error { ran.Add(1); return nil })).To(BeTrue())
	g.Expect(m.Go(ctx, "fails", func(context.Context) error { ran.Add(1); return errors.New("boom") })).To(BeTrue())
	g.Expect(m.Go(ctx, "panics", func(context.Context) error { ran.Add(1); panic("bad") })).To(BeTrue())

	err := m.Wait()

	g.Expect(ran.Load()).To(Equal(int32(3)))
	g.Expect(err).To(MatchError(ContainSubstring("fails: boom")))
	g.Expect(errors.Is(err, ErrPanic)).To(BeTrue())
}

func TestManager_Limits(t *testing.T) {
	g := NewWithT(t)
	m := NewManager(1)
	ctx := context.Background()

	release := make(chan struct{})
	g.Expect(m.Go(ctx, "blocking", func(context.Context) error { <-release; return nil })).To(BeTrue())
	g.Expect(m.Go(ctx, "over-limit", func(context.Context) error { return nil })).To(BeFalse())

	close(release)
	g.Expect(m.Wait()).To(Succeed())

	g.Expect(m.Go(ctx, "after-wait", func(context.Context) error { return nil })).To(BeFalse())

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	g.Expect(NewManager(1).Go(canceled, "canceled", func(context.Context) error { return nil })).To(BeFalse())
}

func TestManager_Nil(t *testing.T) {
	g := NewWithT(t)

	var m *Manager
	g.Expect(m.Go(context.Background(), "noop", func(context.Context) error { return nil })).To(BeFalse())
	g.Expect(m.Wait()).To(Succeed())
}
