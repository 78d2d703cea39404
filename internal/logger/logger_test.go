package logger

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestResolveLogFilePathDefaultDir(t *testing.T) {
	tmpDir := t.TempDir()
	oldWD, err := os.Getwd()
	if err != nil {
		t.Fatalf("get wd failed: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Chdir(oldWD)
	})
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}

	got, err := resolveLogFilePath(Options{})
	if err != nil {
		t.Fatalf("resolve default log path failed: %v", err)
	}

	realTmpDir, err := filepath.EvalSymlinks(tmpDir)
	if err != nil {
		t.Fatalf("resolve tmp dir symlink failed: %v", err)
	}
	realGot, err := filepath.EvalSymlinks(filepath.Dir(got))
	if err != nil {
		t.Fatalf("resolve got dir symlink failed: %v", err)
	}
	expectedDir := filepath.Join(realTmpDir, defaultLogDirName)
	if realGot != expectedDir {
		t.Fatalf("unexpected log dir: got=%s expected=%s", realGot, expectedDir)
	}
	if filepath.Base(got) != defaultLogFilename {
		t.Fatalf("unexpected log filename: %s", filepath.Base(got))
	}
	if _, err := os.Stat(filepath.Dir(got)); err != nil {
		t.Fatalf("expected log dir to be created: %v", err)
	}
}

func TestNewReleaseWritesToConfiguredFile(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := Options{
		Dir:      tmpDir,
		Filename: "release.log",
	}
	log := New("release", cfg)
	log.Info("release-log-test")
	_ = log.Sync()

	content, err := os.ReadFile(filepath.Join(tmpDir, "release.log"))
	if err != nil {
		t.Fatalf("read release log failed: %v", err)
	}
	if !strings.Contains(string(content), "release-log-test") {
		t.Fatalf("expected log content to contain message, got=%s", string(content))
	}
}

func TestNewDebugDoesNotWriteFile(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := Options{
		Dir:      tmpDir,
		Filename: "debug.log",
	}
	log := New("debug", cfg)
	log.Info("debug-log-test")
	_ = log.Sync()

	if _, err := os.Stat(filepath.Join(tmpDir, "debug.log")); !os.IsNotExist(err) {
		t.Fatalf("debug mode should not create log file")
	}
}

func TestCtxCarriesFields(t *testing.T) {
	tmpDir := t.TempDir()
	L = New("release", Options{Dir: tmpDir, Filename: "ctx.log"})
	t.Cleanup(func() { L = nil })

	ctx := WithFields(context.Background(), "request_id", "req-1")
	ctx = WithFields(ctx, "admin_id", 7)
	Ctx(ctx).Infow("settlement_executed", "settlement_id", 3)
	_ = L.Sync()

	content, err := os.ReadFile(filepath.Join(tmpDir, "ctx.log"))
	if err != nil {
		t.Fatalf("read ctx log failed: %v", err)
	}
	text := string(content)
	for _, want := range []string{`"request_id":"req-1"`, `"admin_id":7`, `"settlement_id":3`, "settlement_executed"} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected log to contain %s, got=%s", want, text)
		}
	}
}

func TestCtxWithSkipsKeysCarriedByContext(t *testing.T) {
	tmpDir := t.TempDir()
	L = New("release", Options{Dir: tmpDir, Filename: "ctxwith.log"})
	t.Cleanup(func() { L = nil })

	ctx := WithFields(context.Background(), "admin_id", 7)
	CtxWith(ctx, "admin_id", 7, "retailer_id", 4).Infow("ledger_manual_adjustment_created")
	CtxWith(context.Background(), "admin_id", 9).Infow("seed_adjustment")
	_ = L.Sync()

	content, err := os.ReadFile(filepath.Join(tmpDir, "ctxwith.log"))
	if err != nil {
		t.Fatalf("read log failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	if len(lines) != 2 {
		t.Fatalf("want 2 log lines, got %d: %s", len(lines), content)
	}
	if n := strings.Count(lines[0], `"admin_id"`); n != 1 {
		t.Fatalf("admin_id should appear once, got %d: %s", n, lines[0])
	}
	if !strings.Contains(lines[0], `"retailer_id":4`) {
		t.Fatalf("extra field missing: %s", lines[0])
	}
	if !strings.Contains(lines[1], `"admin_id":9`) {
		t.Fatalf("field without context should be kept: %s", lines[1])
	}
}
