package email

import (
	"context"
	"errors"
	"testing"

	. "github.com/onsi/gomega"
	"github.com/shandysiswandi/trafficai/internal/pkg/instrument"
	"github.com/shandysiswandi/trafficai/internal/pkg/mail"
)

type stubMail struct {
	got mail.Message
	err error
}

func (s *stubMail) Close() error { return nil }

func (s *stubMail) Send(_ context.Context, msg mail.Message) error {
	s.got = msg
	return s.err
}

func TestMail_Send(t *testing.T) {
	g := NewWithT(t)

	client := &stubMail{}
	m := New(client, instrument.NewNoop())

	msg := mail.Message{To: []string{"a@example.com"}, Subject: "Your OTP Code"}
	g.Expect(m.Send(context.Background(), msg)).To(Succeed())
	g.Expect(client.got).To(Equal(msg))

	client.err = errors.New("provider down")
	g.Expect(m.Send(context.Background(), msg)).To(MatchError("provider down"))
}
