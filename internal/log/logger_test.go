package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http/httptest"
	"testing"
)

func TestNewJSONIncludesComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Component: ComponentService, Format: FormatJSON, Output: &buf})

	logger.Info("hello", FieldPeriod, "2024-05")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", buf.String(), err)
	}
	if rec[FieldComponent] != ComponentService {
		t.Errorf("component = %v, want %s", rec[FieldComponent], ComponentService)
	}
	if rec[FieldPeriod] != "2024-05" {
		t.Errorf("period = %v", rec[FieldPeriod])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelWarn, Component: "x", Output: &buf})
	logger.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at warn level, got %q", buf.String())
	}
	logger.Warn("kept")
	if !bytes.Contains(buf.Bytes(), []byte("kept")) {
		t.Fatalf("warn should be written, got %q", buf.String())
	}
}

func TestWithComponentDoesNotDuplicate(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Component: ComponentApp, Format: FormatJSON, Output: &buf}).WithComponent(ComponentWorker)
	logger.Info("tick")
	if n := bytes.Count(buf.Bytes(), []byte(`"component"`)); n != 1 {
		t.Fatalf("expected one component key, got %d in %q", n, buf.String())
	}
	if logger.Component() != ComponentWorker {
		t.Fatalf("Component() = %s", logger.Component())
	}
}

func TestFromContext(t *testing.T) {
	if FromContext(context.Background()).Component() != "unknown" {
		t.Fatal("expected fallback logger")
	}
	logger := Discard()
	if FromContext(NewContext(context.Background(), logger)) != logger {
		t.Fatal("expected stored logger")
	}
}

func TestStructuredLoggerLogError(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Format: FormatJSON, Output: &buf}))
	sl.LogError(context.Background(), "fetch failed", errors.New("boom"), ComponentOrganizze, OpFetch, nil)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec[FieldError] != "boom" || rec[FieldOperation] != OpFetch || rec[FieldComponent] != ComponentOrganizze {
		t.Fatalf("unexpected record %v", rec)
	}
}

func TestLogHTTPEndLevels(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Format: FormatJSON, Output: &buf}))
	r := httptest.NewRequest("GET", "/api/insights?period=current-month", nil)
	sl.LogHTTPEnd(context.Background(), r, 502, 12, "127.0.0.1")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec["level"] != "ERROR" {
		t.Errorf("level = %v, want ERROR", rec["level"])
	}
	if rec[FieldQuery] != "period=current-month" {
		t.Errorf("query = %v", rec[FieldQuery])
	}
}

func TestLevelForStatus(t *testing.T) {
	tests := []struct {
		status int
		want   slog.Level
	}{
		{200, slog.LevelInfo},
		{304, slog.LevelInfo},
		{404, slog.LevelWarn},
		{429, slog.LevelWarn},
		{502, slog.LevelError},
	}
	for _, tt := range tests {
		if got := LevelForStatus(tt.status); got != tt.want {
			t.Errorf("LevelForStatus(%d) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestLogRefresh(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Format: FormatJSON, Output: &buf}))

	sl.LogRefresh(context.Background(), "msg-1", "2024-05-01_2024-05-31", 4, nil)
	var ok map[string]any
	if err := json.Unmarshal(buf.Bytes(), &ok); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ok["level"] != "INFO" || ok["trigger"] != "msg-1" || ok[FieldInsightCount] != float64(4) {
		t.Errorf("success record %v", ok)
	}

	buf.Reset()
	sl.LogRefresh(context.Background(), "ticker", "2024-05-01_2024-05-31", 0, errors.New("upstream down"))
	var failed map[string]any
	if err := json.Unmarshal(buf.Bytes(), &failed); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if failed["level"] != "ERROR" || failed[FieldError] != "upstream down" {
		t.Errorf("failure record %v", failed)
	}
	if _, ok := failed[FieldInsightCount]; ok {
		t.Error("failure record carries an insight count")
	}
}
