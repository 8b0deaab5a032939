package instrument

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	. "github.com/onsi/gomega"
)

func TestNewLogger_MasksAndCorrelates(t *testing.T) {
	g := NewWithT(t)

	var buf bytes.Buffer
	logger := NewLogger(&buf, "trafficai", slog.LevelInfo, nil, []string{"otp", " API_KEY "})

	ctx := SetCorrelationID(context.Background(), "cid-1")
	logger.InfoContext(ctx, "dispatch", "otp", "482913", "email", "a@example.com",
		slog.Group("mail", slog.String("api_key", "re_123")))

	var line map[string]any
	g.Expect(json.Unmarshal(buf.Bytes(), &line)).To(Succeed())
	g.Expect(line["otp"]).To(Equal("***"))
	g.Expect(line["email"]).To(Equal("a@example.com"))
	g.Expect(line["mail"]).To(HaveKeyWithValue("api_key", "***"))
	g.Expect(line["_cID"]).To(Equal("cid-1"))
	g.Expect(line["service"]).To(Equal("trafficai"))
	g.Expect(line["severity"]).To(Equal("INFO"))
}

func TestNewLogger_RespectsLevel(t *testing.T) {
	g := NewWithT(t)

	var buf bytes.Buffer
	logger := NewLogger(&buf, "svc", slog.LevelWarn, nil, nil)
	logger.Info("hidden")

	g.Expect(buf.Len()).To(BeZero())
}

func TestMaskData(t *testing.T) {
	g := NewWithT(t)

	keys := MaskKeys([]string{"code"})
	out := MaskData(map[string]any{
		"list": []any{map[string]any{"Code": "1234"}},
		"keep": 1,
	}, keys)

	g.Expect(out).To(Equal(map[string]any{
		"list": []any{map[string]any{"Code": "***"}},
		"keep": 1,
	}))
}

func TestParseLevel(t *testing.T) {
	g := NewWithT(t)

	g.Expect(ParseLevel("debug")).To(Equal(slog.LevelDebug))
	g.Expect(ParseLevel("WARN")).To(Equal(slog.LevelWarn))
	g.Expect(ParseLevel("nonsense")).To(Equal(slog.LevelInfo))
	g.Expect(ParseLevel("")).To(Equal(slog.LevelInfo))
}

func TestCorrelationID(t *testing.T) {
	g := NewWithT(t)

	g.Expect(GetCorrelationID(context.Background())).To(BeEmpty())
	g.Expect(GetCorrelationID(SetCorrelationID(context.Background(), "x"))).To(Equal("x"))
}
