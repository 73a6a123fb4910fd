package instrument

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestHandlerMasksAndCorrelates(t *testing.T) {
	// Arrange
	buf := &bytes.Buffer{}
	logger := slog.New(newHandler("authgate", nil, []string{"password", " Token "}, buf, slog.LevelInfo))
	ctx := SetCorrelationID(context.Background(), "cid-123")

	// Act
	logger.InfoContext(ctx, "login submitted",
		"email", "user@example.com",
		"password", "hunter22",
		"payload", map[string]any{"token": "temp-token-1", "user": "x"},
	)

	// Assert
	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line: %v (%s)", err, buf.String())
	}
	if line["password"] != "***" {
		t.Fatalf("expected password masked, got %v", line["password"])
	}
	payload, ok := line["payload"].(map[string]any)
	if !ok || payload["token"] != "***" || payload["user"] != "x" {
		t.Fatalf("expected nested token masked, got %v", line["payload"])
	}
	if line["_cID"] != "cid-123" || line["service"] != "authgate" {
		t.Fatalf("expected correlation and service attrs, got %v", line)
	}
	if _, ok := line["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", line)
	}
	if line["severity"] != "INFO" {
		t.Fatalf("expected severity INFO, got %v", line["severity"])
	}
}

func TestHandlerRespectsLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := slog.New(newHandler("authgate", nil, nil, buf, slog.LevelWarn))

	logger.Info("dropped")

	if buf.Len() != 0 {
		t.Fatalf("expected info to be filtered, got %s", buf.String())
	}
}

func TestCorrelationID(t *testing.T) {
	if GetCorrelationID(context.Background()) != "" {
		t.Fatalf("expected empty correlation id")
	}
	if got := GetCorrelationID(SetCorrelationID(context.Background(), "abc")); got != "abc" {
		t.Fatalf("expected abc, got %q", got)
	}
}

func TestNewDisabledIsNoop(t *testing.T) {
	buf := &bytes.Buffer{}
	ins, err := New(context.Background(), &Config{ServiceName: "authgate", LogOutput: buf})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer slog.SetDefault(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

	_, span := ins.Tracer("test").Start(context.Background(), "noop")
	span.End()
	if err := ins.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}
