package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// captureLogOutput redirects the global logger to a buffer at debug level
// for the duration of f.
func captureLogOutput(format Format, f func()) string {
	var buf bytes.Buffer
	InitLoggerWithWriter(&buf, LevelDebug, format)
	defer InitLogger(LevelInfo, FormatJSON)
	f()
	return buf.String()
}

func decodeLine(t *testing.T, out string) map[string]any {
	t.Helper()
	line := strings.TrimSpace(out)
	if i := strings.LastIndex(line, "\n"); i >= 0 {
		line = line[i+1:]
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(line), &m); err != nil {
		t.Fatalf("log line is not JSON: %q: %v", line, err)
	}
	return m
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"loud", LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat("text"); err != nil || f != FormatText {
		t.Errorf("ParseFormat(text) = %v, %v", f, err)
	}
	if f, err := ParseFormat(""); err != nil || f != FormatJSON {
		t.Errorf("ParseFormat(\"\") = %v, %v", f, err)
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("ParseFormat(xml) succeeded")
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	InitLoggerWithWriter(&buf, LevelWarn, FormatJSON)
	defer InitLogger(LevelInfo, FormatJSON)

	Info("hidden")
	Warn("shown")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message logged at warn level: %s", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("warn message missing: %s", out)
	}
}

func TestTextFormat(t *testing.T) {
	out := captureLogOutput(FormatText, func() {
		Info("hello", "book", "Genesis")
	})
	if !strings.Contains(out, "msg=hello") || !strings.Contains(out, "book=Genesis") {
		t.Errorf("text output = %q", out)
	}
}

func TestRequestIDContext(t *testing.T) {
	ctx := context.Background()
	if got := GetRequestID(ctx); got != "" {
		t.Errorf("GetRequestID(empty) = %q", got)
	}
	ctx = WithRequestID(ctx, "req-1")
	if got := GetRequestID(ctx); got != "req-1" {
		t.Errorf("GetRequestID() = %q, want %q", got, "req-1")
	}

	out := captureLogOutput(FormatJSON, func() {
		InfoContext(ctx, "with id")
	})
	if m := decodeLine(t, out); m["request_id"] != "req-1" {
		t.Errorf("request_id = %v, want req-1", m["request_id"])
	}
}

func TestDomainHelpers(t *testing.T) {
	ctx := WithRequestID(context.Background(), "abc")

	tests := []struct {
		name string
		log  func()
		msg  string
		key  string
		want any
	}{
		{
			name: "resolved",
			log:  func() { ReferenceResolved(ctx, "gen 1:1", "Genesis 1:1", 1001001, 1001001) },
			msg:  "reference_resolved",
			key:  "reference",
			want: "Genesis 1:1",
		},
		{
			name: "rejected",
			log:  func() { ReferenceRejected(ctx, "Jude 32", errors.New("Jude only has 25 verses")) },
			msg:  "reference_rejected",
			key:  "error",
			want: "Jude only has 25 verses",
		},
		{
			name: "store",
			log:  func() { StoreEvent(ctx, "create", "c-1", "name", "advent") },
			msg:  "store_event",
			key:  "name",
			want: "advent",
		},
		{
			name: "websocket",
			log:  func() { WebSocketEvent("connect", 2) },
			msg:  "websocket_event",
			key:  "client_count",
			want: float64(2),
		},
		{
			name: "startup",
			log:  func() { ServerStartup("api", "http", 8080) },
			msg:  "server_startup",
			key:  "port",
			want: float64(8080),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := decodeLine(t, captureLogOutput(FormatJSON, tt.log))
			if m["msg"] != tt.msg {
				t.Errorf("msg = %v, want %v", m["msg"], tt.msg)
			}
			if m[tt.key] != tt.want {
				t.Errorf("%s = %v, want %v", tt.key, m[tt.key], tt.want)
			}
		})
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	t.Run("generated", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if len(seen) != 36 {
			t.Errorf("generated request ID = %q, want a UUID", seen)
		}
		if rec.Header().Get("X-Request-ID") != seen {
			t.Errorf("X-Request-ID header = %q, want %q", rec.Header().Get("X-Request-ID"), seen)
		}
	})

	t.Run("propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "client-id")
		handler.ServeHTTP(httptest.NewRecorder(), req)
		if seen != "client-id" {
			t.Errorf("request ID = %q, want client-id", seen)
		}
	})
}

func TestLoggingMiddleware(t *testing.T) {
	handler := CombinedMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.WriteHeader(http.StatusOK)
	}))

	out := captureLogOutput(FormatJSON, func() {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/parse", nil))
	})
	m := decodeLine(t, out)
	if m["msg"] != "http_request" {
		t.Errorf("msg = %v", m["msg"])
	}
	if m["status_code"] != float64(http.StatusTeapot) {
		t.Errorf("status_code = %v, want %d", m["status_code"], http.StatusTeapot)
	}
	if m["path"] != "/parse" {
		t.Errorf("path = %v", m["path"])
	}
	if m["request_id"] == nil {
		t.Error("request_id missing from request log")
	}
}

func TestHijackUnsupported(t *testing.T) {
	rw := &responseWriter{ResponseWriter: httptest.NewRecorder()}
	if _, _, err := rw.Hijack(); err == nil {
		t.Error("Hijack() on a recorder succeeded")
	}
}
