package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

// SetupがJSON形式でログを出力することを検証
func TestSetup_OutputsJSON(t *testing.T) {
	var buf bytes.Buffer
	l := Setup(&buf)

	l.Info("test message", slog.String("key", "value"))

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not valid JSON: %v", err)
	}

	if entry["msg"] != "test message" {
		t.Errorf("msg = %v, want %q", entry["msg"], "test message")
	}
	if entry["key"] != "value" {
		t.Errorf("key = %v, want %q", entry["key"], "value")
	}
}

// DebugレベルのログがInfoレベル設定では出力されないことを検証
func TestSetup_DebugLevelSuppressed(t *testing.T) {
	var buf bytes.Buffer
	l := Setup(&buf)

	l.Debug("debug message")

	if buf.Len() != 0 {
		t.Errorf("expected no output for debug level, got %q", buf.String())
	}
}

// SetupDefaultがグローバルロガーを差し替えることを検証
func TestSetupDefault_ReplacesGlobalLogger(t *testing.T) {
	original := slog.Default()
	defer slog.SetDefault(original)

	var buf bytes.Buffer
	SetupDefault(&buf)

	slog.Info("global log test")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not valid JSON: %v", err)
	}
	if entry["msg"] != "global log test" {
		t.Errorf("msg = %v, want %q", entry["msg"], "global log test")
	}
}
