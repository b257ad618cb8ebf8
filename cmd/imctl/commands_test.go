package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestAnalyzeCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "draft.txt")
	if err := os.WriteFile(path, []byte("Introduction\nCourse outline only."), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	out, err := run(t, "analyze", path)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	var got analyzeOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if got.File != path || !strings.HasPrefix(got.Notes, "Missing sections: ") {
		t.Fatalf("unexpected output: %+v", got)
	}
}

func TestAnalyzeMissingFile(t *testing.T) {
	out, err := run(t, "analyze", filepath.Join(t.TempDir(), "gone.pdf"))
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if !strings.Contains(out, "PDF file not found for analysis") {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestReissueRequiresFlags(t *testing.T) {
	_, err := run(t, "reissue", "--material", "3")
	if err == nil || !strings.Contains(err.Error(), "--material and --user") {
		t.Fatalf("expected flag error, got %v", err)
	}
}

func TestBackfillDryRunOnSQLite(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("IMTRACK_CONFIG", "")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(dir, "imctl.db"))
	t.Setenv("OBJECT_STORAGE_MODE", "memory")

	out, err := run(t, "backfill-pdfs", "--dry-run", "--limit", "5")
	if err != nil {
		t.Fatalf("backfill-pdfs: %v", err)
	}
	var rep map[string]any
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if rep["scanned"] != float64(0) {
		t.Fatalf("unexpected report: %v", rep)
	}
}
