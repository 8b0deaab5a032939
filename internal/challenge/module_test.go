package challenge

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	. "github.com/onsi/gomega"
	"github.com/shandysiswandi/trafficai/internal/pkg/clock"
	"github.com/shandysiswandi/trafficai/internal/pkg/config"
	"github.com/shandysiswandi/trafficai/internal/pkg/goroutine"
	"github.com/shandysiswandi/trafficai/internal/pkg/hash"
	"github.com/shandysiswandi/trafficai/internal/pkg/instrument"
	"github.com/shandysiswandi/trafficai/internal/pkg/mail"
	"github.com/shandysiswandi/trafficai/internal/pkg/messaging"
	"github.com/shandysiswandi/trafficai/internal/pkg/otp"
	"github.com/shandysiswandi/trafficai/internal/pkg/router"
	"github.com/shandysiswandi/trafficai/internal/pkg/uid"
	"github.com/shandysiswandi/trafficai/internal/pkg/validator"
)

const moduleConfig = `
otp:
  ttl_seconds: 300
  max_attempts: 3
  code_length: 6
  throttle:
    max_per_window: 5
    window_seconds: 60
  store:
    sweep_interval_seconds: 1
`

func moduleDependency(t *testing.T, ctx context.Context, driver string) Dependency {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(moduleConfig))
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	v, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("validator: %v", err)
	}

	return Dependency{
		Ctx:         ctx,
		Goroutine:   goroutine.NewManager(4),
		Router:      router.NewRouter(router.Config{Config: cfg, UUID: uid.NewUUID(), Instrument: instrument.NewNoop()}),
		Messaging:   messaging.Noop{},
		Mail:        mail.NewLog("no-reply@trafficai.test"),
		Config:      cfg,
		Instrument:  instrument.NewNoop(),
		HMAC:        hash.NewHMACSHA256("module-secret"),
		Clock:       clock.New(),
		Generator:   otp.NewRandom(nil),
		Validator:   v,
		StoreDriver: driver,
	}
}

func TestNew_MemoryDriver(t *testing.T) {
	g := NewWithT(t)
	ctx, cancel := context.WithCancel(context.Background())

	dep := moduleDependency(t, ctx, "memory")
	g.Expect(New(dep)).To(Succeed())

	rec := httptest.NewRecorder()
	dep.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/send-otp", strings.NewReader(`{"email":"a@example.com"}`)))
	g.Expect(rec.Code).To(Equal(http.StatusOK))

	rec = httptest.NewRecorder()
	dep.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/verify-otp", strings.NewReader(`{"email":"a@example.com","otp":"1"}`)))
	g.Expect(rec.Code).To(Equal(http.StatusOK))
	g.Expect(rec.Body.String()).To(ContainSubstring(`"success":false`))

	// the sweeper stops with the app context
	cancel()
	done := make(chan error, 1)
	go func() { done <- dep.Goroutine.Wait() }()
	g.Eventually(done, 2*time.Second).Should(Receive(BeNil()))
}

func TestNew_RejectsBadDependencies(t *testing.T) {
	g := NewWithT(t)
	ctx := context.Background()

	g.Expect(New(moduleDependency(t, ctx, "sqlite"))).To(HaveOccurred())

	// the redis store needs a client
	g.Expect(New(moduleDependency(t, ctx, "redis"))).To(HaveOccurred())

	dep := moduleDependency(t, ctx, "memory")
	dep.Mail = nil
	g.Expect(New(dep)).To(HaveOccurred())
}
