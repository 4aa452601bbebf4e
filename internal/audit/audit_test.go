package audit

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/NikolaiRadke/Extension-Manager/internal/archive"
	"github.com/NikolaiRadke/Extension-Manager/internal/catalog"
	"github.com/NikolaiRadke/Extension-Manager/internal/model"
	"github.com/NikolaiRadke/Extension-Manager/internal/scanner"
)

// fakeExtractor materializes a fixed file tree instead of shelling out
// to unzip, so scans stay hermetic in tests.
type fakeExtractor struct {
	files map[string]string
	err   error
}

func (f *fakeExtractor) Extract(_, targetDir string) error {
	if f.err != nil {
		return f.err
	}
	for rel, content := range f.files {
		path := filepath.Join(targetDir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func newAuditor(t *testing.T, ex Extractor) *Auditor {
	t.Helper()
	cat := catalog.Default()
	return &Auditor{
		Workspace: t.TempDir(),
		Extractor: ex,
		Scanner:   scanner.New(cat, nil),
		Catalog:   cat,
		Log:       zap.NewNop().Sugar(),
	}
}

func writeBundle(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.vsix")
	if err := os.WriteFile(path, []byte("zip-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func assertEmptyWorkspace(t *testing.T, a *Auditor) {
	t.Helper()
	entries, err := os.ReadDir(a.Workspace)
	if err != nil {
		t.Fatalf("read workspace: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("scratch files leaked: %v", entries)
	}
}

func TestScan_SafeBundle(t *testing.T) {
	a := newAuditor(t, &fakeExtractor{files: map[string]string{
		"extension/package.json": `{"name": "clean-ext", "displayName": "Clean Ext", "version": "1.0.0"}`,
		"extension/main.js":      `function add(a, b) { return a + b; }`,
	}})

	result, err := a.Scan(writeBundle(t))
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if !result.Safe || len(result.Issues) != 0 {
		t.Fatalf("expected a safe result, got %+v", result)
	}
	if result.ExtensionName != "Clean Ext" {
		t.Errorf("extension name = %q", result.ExtensionName)
	}
	assertEmptyWorkspace(t, a)
}

func TestScan_EvalAndBlockedDependency(t *testing.T) {
	a := newAuditor(t, &fakeExtractor{files: map[string]string{
		"extension/package.json": `{"name": "shady", "dependencies": {"keytar": "^7.0.0"}}`,
		"extension/main.js":      `eval("print(1)")`,
	}})

	result, err := a.Scan(writeBundle(t))
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if result.Safe {
		t.Fatal("expected unsafe result")
	}
	if len(result.Issues) != 2 {
		t.Fatalf("expected exactly 2 issues, got %d: %+v", len(result.Issues), result.Issues)
	}

	byKey := map[string]model.Issue{}
	for _, is := range result.Issues {
		byKey[is.MessageKey] = is
	}
	if is, ok := byKey["security.codeExecution"]; !ok || is.Severity != model.SevCritical {
		t.Errorf("missing critical eval issue: %+v", result.Issues)
	}
	if is, ok := byKey[catalog.KeyBlockedDependency]; !ok || is.Severity != model.SevMedium || is.Details != "keytar" {
		t.Errorf("missing medium blocked-dependency issue: %+v", result.Issues)
	}
	assertEmptyWorkspace(t, a)
}

func TestScan_InvalidBundleRejectedBeforeExtraction(t *testing.T) {
	a := newAuditor(t, &fakeExtractor{})

	if _, err := a.Scan(filepath.Join(t.TempDir(), "missing.vsix")); !errors.Is(err, ErrInvalidBundle) {
		t.Errorf("missing file: err = %v, want ErrInvalidBundle", err)
	}

	wrongExt := filepath.Join(t.TempDir(), "bundle.tar.gz")
	if err := os.WriteFile(wrongExt, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := a.Scan(wrongExt); !errors.Is(err, ErrInvalidBundle) {
		t.Errorf("wrong extension: err = %v, want ErrInvalidBundle", err)
	}
	assertEmptyWorkspace(t, a)
}

func TestScan_ExtractionFailureCleansUpAndPropagates(t *testing.T) {
	a := newAuditor(t, &fakeExtractor{err: archive.ErrExtraction})

	_, err := a.Scan(writeBundle(t))
	if !errors.Is(err, archive.ErrExtraction) {
		t.Fatalf("err = %v, want ErrExtraction", err)
	}
	assertEmptyWorkspace(t, a)
}

func TestScan_Deterministic(t *testing.T) {
	a := newAuditor(t, &fakeExtractor{files: map[string]string{
		"extension/package.json": `{"name": "x", "dependencies": {"keytar": "1"}}`,
		"extension/a.js":         `eval("x")`,
		"extension/b.js":         `const cp = require("child_process");`,
	}})

	bundle := writeBundle(t)
	first, err := a.Scan(bundle)
	if err != nil {
		t.Fatal(err)
	}
	second, err := a.Scan(bundle)
	if err != nil {
		t.Fatal(err)
	}
	if len(first.Issues) != len(second.Issues) {
		t.Fatalf("issue counts differ: %d vs %d", len(first.Issues), len(second.Issues))
	}
	for i := range first.Issues {
		if first.Issues[i] != second.Issues[i] {
			t.Errorf("issue %d differs: %+v vs %+v", i, first.Issues[i], second.Issues[i])
		}
	}
}

func TestOversized_Boundary(t *testing.T) {
	if oversized(MaxBundleBytes) {
		t.Error("exactly 50 MB must not trigger the size issue")
	}
	if !oversized(MaxBundleBytes + 1) {
		t.Error("50 MB + 1 byte must trigger the size issue")
	}
}

func TestHumanSize(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{512, "512 B"},
		{2048, "2.0 KB"},
		{52*1024*1024 + 400*1024, "52.4 MB"},
		{3 << 30, "3.0 GB"},
	}
	for _, tt := range tests {
		if got := HumanSize(tt.n); got != tt.want {
			t.Errorf("HumanSize(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
