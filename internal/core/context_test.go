package core

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestCallerContext(t *testing.T) {
	if _, ok := CallerFromContext(context.Background()); ok {
		t.Fatal("empty context should hold no caller")
	}

	ctx := ContextWithCaller(context.Background(), Caller{IP: "10.0.0.1", UserAgent: "curl/8"})
	c, ok := CallerFromContext(ctx)
	if !ok || c.IP != "10.0.0.1" || c.UserAgent != "curl/8" {
		t.Errorf("CallerFromContext = %+v, %v", c, ok)
	}
}

func TestAuditLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	ctx := ContextWithCaller(context.Background(), Caller{IP: "10.0.0.1", UserAgent: "curl/8"})
	auditLogger(ctx, logger).Info("product deleted")

	out := buf.String()
	if !strings.Contains(out, "ip=10.0.0.1") || !strings.Contains(out, "user_agent=curl/8") {
		t.Errorf("audit line missing caller: %s", out)
	}
}
