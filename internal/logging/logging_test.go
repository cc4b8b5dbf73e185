package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// captureDefault swaps the default logger for one writing to buf.
func captureDefault(t *testing.T) *bytes.Buffer {
	t.Helper()
	old := slog.Default()
	t.Cleanup(func() { slog.SetDefault(old) })

	var buf bytes.Buffer
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	return &buf
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSetupJSON(t *testing.T) {
	old := slog.Default()
	defer slog.SetDefault(old)

	var buf bytes.Buffer
	closeFn, err := Setup(Config{Level: "info", JSON: true, Writer: &buf})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer func() { _ = closeFn() }()

	slog.Debug("hidden")
	slog.Info("shown", "count", 2)

	if strings.Contains(buf.String(), "hidden") {
		t.Error("debug message should be filtered at info level")
	}

	var entry map[string]interface{}
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("output is not JSON: %v: %q", err, buf.String())
	}
	if entry["msg"] != "shown" {
		t.Errorf("msg = %v, want shown", entry["msg"])
	}
}

func TestSetupDevMode(t *testing.T) {
	old := slog.Default()
	defer slog.SetDefault(old)

	var buf bytes.Buffer
	closeFn, err := Setup(Config{Level: "debug", Writer: &buf})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer func() { _ = closeFn() }()

	slog.Debug("test debug")
	slog.Info("test info")

	output := buf.String()
	if !strings.Contains(output, "test debug") {
		t.Error("expected debug message visible in dev mode")
	}
	if !strings.Contains(output, "test info") {
		t.Error("expected info message visible in dev mode")
	}
}

func TestSetupNoColor(t *testing.T) {
	old := slog.Default()
	defer slog.SetDefault(old)

	var buf bytes.Buffer
	closeFn, err := Setup(Config{NoColor: true, Writer: &buf})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer func() { _ = closeFn() }()

	slog.Info("plain")
	if strings.Contains(buf.String(), "\x1b[") {
		t.Error("expected no ANSI escapes with NoColor")
	}
	if !strings.Contains(buf.String(), "msg=plain") {
		t.Errorf("expected text handler output, got %q", buf.String())
	}
}

func TestSetupFileSink(t *testing.T) {
	old := slog.Default()
	defer slog.SetDefault(old)

	path := filepath.Join(t.TempDir(), "logs", "havenrise.log")
	var console bytes.Buffer
	closeFn, err := Setup(Config{
		NoColor:  true,
		Writer:   &console,
		File:     path,
		Rotation: RotationConfig{MaxSize: 1, MaxBackups: 1},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	slog.Warn("to both sinks", "id", "prop1")
	if err := closeFn(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"to both sinks"`) {
		t.Errorf("file sink missing record: %q", data)
	}
	if !strings.Contains(console.String(), "to both sinks") {
		t.Errorf("console sink missing record: %q", console.String())
	}
}

func TestSetupFluentRequiresTag(t *testing.T) {
	old := slog.Default()
	defer slog.SetDefault(old)

	_, err := Setup(Config{Fluent: FluentConfig{Enabled: true, Host: "127.0.0.1", Port: 24224}})
	if err == nil {
		t.Fatal("expected error for missing tag prefix")
	}
}

type fakePoster struct {
	tags []string
	msgs []map[string]interface{}
	err  error
}

func (f *fakePoster) Post(tag string, message interface{}) error {
	f.tags = append(f.tags, tag)
	f.msgs = append(f.msgs, message.(map[string]interface{}))
	return f.err
}

func TestFluentHandler(t *testing.T) {
	poster := &fakePoster{}
	logger := slog.New(NewFluentHandler(poster, slog.LevelInfo))

	logger.Debug("skipped")
	logger.With("component", "favourites").
		WithGroup("drop").
		Error("not persisted", "channel", "house", "error", errors.New("quota exceeded"), "took", 2*time.Second)

	if len(poster.msgs) != 1 {
		t.Fatalf("got %d posts, want 1", len(poster.msgs))
	}
	if poster.tags[0] != "error" {
		t.Errorf("tag = %q, want error", poster.tags[0])
	}

	msg := poster.msgs[0]
	want := map[string]interface{}{
		"level":        "error",
		"message":      "not persisted",
		"component":    "favourites",
		"drop.channel": "house",
		"drop.error":   "quota exceeded",
		"drop.took":    "2s",
	}
	for k, v := range want {
		if msg[k] != v {
			t.Errorf("%s = %v, want %v", k, msg[k], v)
		}
	}
	if _, ok := msg["timestamp"]; !ok {
		t.Error("expected timestamp")
	}
}

func TestFanout(t *testing.T) {
	var debugBuf, warnBuf bytes.Buffer
	h := newFanout(
		slog.NewTextHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&warnBuf, &slog.HandlerOptions{Level: slog.LevelWarn}),
	)
	logger := slog.New(h).With("svc", "hr")

	logger.Info("info line")
	logger.Warn("warn line")

	if !strings.Contains(debugBuf.String(), "info line") || !strings.Contains(debugBuf.String(), "warn line") {
		t.Errorf("debug sink = %q", debugBuf.String())
	}
	if strings.Contains(warnBuf.String(), "info line") {
		t.Error("warn sink should not receive info")
	}
	if !strings.Contains(warnBuf.String(), "svc=hr") {
		t.Errorf("attrs not propagated: %q", warnBuf.String())
	}
}

func TestRequestLogger(t *testing.T) {
	buf := captureDefault(t)

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if RequestID(r.Context()) == "" {
			t.Error("expected request id in context")
		}
		w.WriteHeader(http.StatusOK)
	})

	handler := RequestLogger(inner)

	req := httptest.NewRequest("GET", "/api/properties", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	output := buf.String()
	if output == "" {
		t.Fatal("expected log output")
	}
	if !strings.Contains(output, "GET") {
		t.Error("expected method in log")
	}
	if !strings.Contains(output, "/api/properties") {
		t.Error("expected path in log")
	}
	id := rec.Header().Get(RequestIDHeader)
	if len(id) != 36 {
		t.Errorf("expected generated UUID header, got %q", id)
	}
	if !strings.Contains(output, id) {
		t.Error("expected request id in log")
	}
}

func TestRequestLoggerKeepsIncomingID(t *testing.T) {
	captureDefault(t)

	handler := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := RequestID(r.Context()); got != "abc-123" {
			t.Errorf("RequestID = %q, want abc-123", got)
		}
	}))

	req := httptest.NewRequest("GET", "/api/favourites", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("header = %q, want abc-123", got)
	}
}

func TestRequestLoggerSkipsNoisyPaths(t *testing.T) {
	for _, path := range []string{"/health", "/metrics"} {
		t.Run(path, func(t *testing.T) {
			buf := captureDefault(t)

			handler := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest("GET", path, nil)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if buf.Len() > 0 {
				t.Errorf("expected no log for %s", path)
			}
		})
	}
}

func TestResponseWriterCapturesStatus(t *testing.T) {
	buf := captureDefault(t)

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	handler := RequestLogger(inner)

	req := httptest.NewRequest("GET", "/missing", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if !strings.Contains(buf.String(), "status=404") {
		t.Error("expected 404 status in log")
	}
	if !strings.Contains(buf.String(), "level=WARN") {
		t.Error("expected 4xx to log at warn")
	}
}
