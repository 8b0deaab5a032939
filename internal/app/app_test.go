package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	. "github.com/onsi/gomega"
	"github.com/shandysiswandi/trafficai/internal/pkg/config"
)

const appTestConfig = `
app:
  server:
    max_goroutine: 10
    cors: "http://localhost:5173"
    http:
      address: "127.0.0.1:0"
      read_timeout_seconds: 5
      read_header_timeout_seconds: 5
      write_timeout_seconds: 15
      idle_timeout_seconds: 30
    rate_limit:
      requests: 100
      window_seconds: 60
instrument:
  enabled: false
  service_name: trafficai-test
  log_level: error
  log_mask_fields: "otp,code,api_key"
hash:
  hmac:
    secret: app-test-secret
otp:
  ttl_seconds: 300
  max_attempts: 3
  code_length: 6
  dispatch:
    timeout_seconds: 2
    max_retries: 1
  throttle:
    max_per_window: 5
    window_seconds: 60
  store:
    driver: memory
    sweep_interval_seconds: 60
mail:
  driver: log
  from: "TrafficAI <no-reply@trafficai.test>"
messaging:
  driver: none
`

var httpClient = &http.Client{Timeout: 5 * time.Second}

type envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Error   map[string]string `json:"error"`
}

func startApp(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(appTestConfig), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_PATH", path)

	a := New()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	a.Serve(l)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		a.Stop(ctx)
	})

	return "http://" + l.Addr().String()
}

func postJSON(t *testing.T, url string, payload any) (int, envelope) {
	t.Helper()

	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(payload); err != nil {
		t.Fatalf("encode json: %v", err)
	}

	resp, err := httpClient.Post(url, "application/json", buf)
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		t.Fatalf("decode %q: %v", body, err)
	}
	return resp.StatusCode, env
}

func TestApp_OTPFlow(t *testing.T) {
	g := NewWithT(t)
	base := startApp(t)

	resp, err := httpClient.Get(base + "/health")
	g.Expect(err).NotTo(HaveOccurred())
	resp.Body.Close()
	g.Expect(resp.StatusCode).To(Equal(http.StatusOK))

	status, env := postJSON(t, base+"/send-otp", map[string]string{"email": "a@example.com"})
	g.Expect(status).To(Equal(http.StatusOK))
	g.Expect(env).To(Equal(envelope{Success: true, Message: "OTP Sent Successfully!"}))

	status, env = postJSON(t, base+"/send-otp", map[string]string{"email": "not-an-email"})
	g.Expect(status).To(Equal(http.StatusOK))
	g.Expect(env.Success).To(BeFalse())
	g.Expect(env.Error).To(HaveKey("email"))

	// codes are six digits, so a five digit guess never matches
	for range 3 {
		status, env = postJSON(t, base+"/verify-otp", map[string]any{"email": "a@example.com", "otp": 12345})
		g.Expect(status).To(Equal(http.StatusOK))
		g.Expect(env).To(Equal(envelope{Message: "Incorrect OTP"}))
	}

	status, env = postJSON(t, base+"/verify-otp", map[string]any{"email": "nobody@example.com", "otp": "123456"})
	g.Expect(status).To(Equal(http.StatusOK))
	g.Expect(env.Success).To(BeFalse())
	g.Expect(env.Message).To(Equal("Incorrect OTP"))
}

func TestApp_CORSPreflight(t *testing.T) {
	g := NewWithT(t)
	base := startApp(t)

	req, err := http.NewRequest(http.MethodOptions, base+"/send-otp", nil)
	g.Expect(err).NotTo(HaveOccurred())
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := httpClient.Do(req)
	g.Expect(err).NotTo(HaveOccurred())
	resp.Body.Close()

	g.Expect(resp.Header.Get("Access-Control-Allow-Origin")).To(Equal("http://localhost:5173"))
}

func TestValidateConfig(t *testing.T) {
	load := func(t *testing.T, yaml string) config.Config {
		t.Helper()
		cfg, err := config.NewViperFromBytes("yaml", []byte(yaml))
		if err != nil {
			t.Fatalf("config: %v", err)
		}
		t.Cleanup(func() { _ = cfg.Close() })
		return cfg
	}

	t.Run("valid", func(t *testing.T) {
		g := NewWithT(t)
		g.Expect(validateConfig(load(t, appTestConfig))).To(Succeed())
	})

	cases := map[string]struct {
		from, to string
		want     string
	}{
		"zero ttl":           {"ttl_seconds: 300", "ttl_seconds: 0", "otp.ttl_seconds"},
		"zero attempts":      {"max_attempts: 3", "max_attempts: 0", "otp.max_attempts"},
		"short code":         {"code_length: 6", "code_length: 3", "otp.code_length"},
		"long code":          {"code_length: 6", "code_length: 11", "otp.code_length"},
		"no secret":          {"secret: app-test-secret", "secret: \"\"", "hash.hmac.secret"},
		"resend without key": {"driver: log", "driver: resend", "mail.resend.api_key"},
		"smtp without host":  {"driver: log", "driver: smtp", "mail.smtp.host"},
		"unknown mail":       {"driver: log", "driver: pigeon", "mail.driver"},
		"redis without url":  {"driver: memory", "driver: redis", "redis.url"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			g := NewWithT(t)

			err := validateConfig(load(t, strings.Replace(appTestConfig, tc.from, tc.to, 1)))

			g.Expect(err).To(MatchError(errInvalidConfig))
			g.Expect(err.Error()).To(ContainSubstring(tc.want))
		})
	}
}

func TestShippedConfig(t *testing.T) {
	g := NewWithT(t)
	t.Setenv("HASH_HMAC_SECRET", "shipped-config-secret")

	cfg, err := config.NewViper("../../config/config.yaml")
	g.Expect(err).NotTo(HaveOccurred())
	t.Cleanup(func() { _ = cfg.Close() })

	g.Expect(validateConfig(cfg)).To(Succeed())
	g.Expect(cfg.GetString("mail.driver")).To(Equal("smtp"))
	g.Expect(cfg.GetString("app.server.http.address")).To(Equal(":5000"))
}
