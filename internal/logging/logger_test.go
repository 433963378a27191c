package logging_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"vpxmerge/internal/config"
	"vpxmerge/internal/logging"
)

func newFileLogger(t *testing.T, format, level string) (string, logging.Options) {
	t.Helper()
	logPath := filepath.Join(t.TempDir(), format+"-"+level+".log")
	return logPath, logging.Options{
		Format:  format,
		Level:   level,
		Outputs: []string{logPath, logPath},
	}
}

func readLog(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	return string(content)
}

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Logging.Level = "debug"

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Debug("debug message")

	content := readLog(t, filepath.Join(cfg.Paths.LogDir, "vpxmerge.log"))
	if !strings.Contains(content, "debug message") {
		t.Fatalf("expected message in log file, got %q", content)
	}
}

func TestNewFromConfigNil(t *testing.T) {
	logger, err := logging.NewFromConfig(nil)
	if err != nil {
		t.Fatalf("NewFromConfig(nil) returned error: %v", err)
	}
	if logger == nil {
		t.Fatal("expected logger instance")
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	path, opts := newFileLogger(t, "console", "info")
	logger, err := logging.New(opts)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("message without caller")

	if content := readLog(t, path); strings.Contains(content, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", content)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	path, opts := newFileLogger(t, "console", "debug")
	logger, err := logging.New(opts)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("message with caller")

	if content := readLog(t, path); !strings.Contains(content, ".go:") {
		t.Fatalf("expected caller information in debug logs, got %q", content)
	}
}

func TestConsoleLoggerRendersSubjectAndFields(t *testing.T) {
	path, opts := newFileLogger(t, "console", "info")
	logger, err := logging.New(opts)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger = logging.NewComponentLogger(logger, "audit")

	ctx := logging.WithRunID(context.Background(), "1b2c3d4e-aaaa-bbbb-cccc-000000000000")
	ctx = logging.WithTable(ctx, "Medieval Madness")
	ctx = logging.WithStage(ctx, "rom")
	logging.WithContext(ctx, logger).Info("rom detected",
		logging.String("rom", "mm_109c"),
		logging.Int64("script_bytes", 1536),
	)

	content := readLog(t, path)
	for _, want := range []string{
		"[audit]",
		"Run 1b2c3d4e · Medieval Madness (rom)",
		"rom detected",
		"ROM: mm_109c",
		"Script Size: 1.5 kB",
	} {
		if !strings.Contains(content, want) {
			t.Fatalf("expected %q in console output, got %q", want, content)
		}
	}
}

func TestConsoleLoggerCollapsesRepeatedInfoFields(t *testing.T) {
	path, opts := newFileLogger(t, "console", "info")
	logger, err := logging.New(opts)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger = logger.With(logging.String(logging.FieldTable, "Attack from Mars"))
	logger.Info("first", logging.String("rom", "afm_113b"))
	logger.Info("second", logging.String("rom", "afm_113b"))

	if count := strings.Count(readLog(t, path), "ROM: afm_113b"); count != 1 {
		t.Fatalf("expected repeated field to render once, got %d", count)
	}
}

func TestWithContextAddsFields(t *testing.T) {
	path, opts := newFileLogger(t, "json", "info")
	logger, err := logging.New(opts)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := logging.WithRunID(context.Background(), "run-xyz")
	ctx = logging.WithTable(ctx, "Twilight Zone")
	ctx = logging.WithStage(ctx, "patch")
	logging.WithContext(ctx, logger).Info("contextual log")

	var record map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(readLog(t, path))), &record); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	for key, want := range map[string]string{
		logging.FieldRunID: "run-xyz",
		logging.FieldTable: "Twilight Zone",
		logging.FieldStage: "patch",
		"msg":              "contextual log",
		"level":            "info",
	} {
		if got, _ := record[key].(string); got != want {
			t.Fatalf("field %s = %q, want %q", key, got, want)
		}
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	path, opts := newFileLogger(t, "json", "info")
	logger, err := logging.New(opts)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.WarnWithContext(logger, "feed stale", "feed_stale",
		logging.String(logging.FieldImpact, "using cached feed"),
		logging.Error(errors.New("dial tcp: timeout")),
	)

	var record map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(readLog(t, path))), &record); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if record[logging.FieldEventType] != "feed_stale" {
		t.Fatalf("event_type = %v", record[logging.FieldEventType])
	}
	if record[logging.FieldErrorHint] != "check logs for details" {
		t.Fatalf("error_hint = %v", record[logging.FieldErrorHint])
	}
	if record[logging.FieldImpact] != "using cached feed" {
		t.Fatalf("impact = %v", record[logging.FieldImpact])
	}
}

func TestFormatSubject(t *testing.T) {
	cases := []struct {
		runID, table, stage string
		want                string
	}{
		{"", "", "", ""},
		{"abcd-1234", "", "", "Run abcd"},
		{"", "Theatre of Magic", "", "Theatre of Magic"},
		{"", "", "assets", "assets"},
		{"abcd", "Theatre of Magic", "assets", "Run abcd · Theatre of Magic (assets)"},
	}
	for _, tc := range cases {
		if got := logging.FormatSubject(tc.runID, tc.table, tc.stage); got != tc.want {
			t.Fatalf("FormatSubject(%q,%q,%q) = %q, want %q", tc.runID, tc.table, tc.stage, got, tc.want)
		}
	}
}

func TestJSONLoggerReportsElapsedInMilliseconds(t *testing.T) {
	path, opts := newFileLogger(t, "json", "info")
	logger, err := logging.New(opts)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.ErrorWithContext(logger, "export failed", "export_failed",
		logging.Duration("elapsed", 1500*time.Millisecond),
	)

	lines := strings.Split(strings.TrimSpace(readLog(t, path)), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one record for a duplicated output, got %d", len(lines))
	}
	var record map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &record); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if record["elapsed_ms"] != float64(1500) {
		t.Fatalf("elapsed_ms = %v", record["elapsed_ms"])
	}
	if record["level"] != "error" || record[logging.FieldErrorHint] != "check logs for details" {
		t.Fatalf("unexpected record %v", record)
	}
	if _, ok := record["ts"].(string); !ok {
		t.Fatalf("expected ts string, got %v", record["ts"])
	}
}
