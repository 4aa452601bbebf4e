package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/NikolaiRadke/Extension-Manager/internal/catalog"
	"github.com/NikolaiRadke/Extension-Manager/internal/model"
)

func writeManifest(t *testing.T, root, content string) {
	t.Helper()
	dir := filepath.Join(root, "extension")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "package.json"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestRead(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, `{
		"name": "hello-world",
		"displayName": "Hello World",
		"version": "1.2.0",
		"publisher": "acme",
		"description": "greets",
		"dependencies": {"lodash": "^4.0.0"},
		"devDependencies": {"mocha": "^10.0.0"}
	}`)

	m, ok := Read(root)
	if !ok {
		t.Fatal("expected manifest to load")
	}
	if m.Name != "hello-world" || m.Version != "1.2.0" || m.Publisher != "acme" {
		t.Errorf("unexpected fields: %+v", m)
	}
	if m.Title() != "Hello World" {
		t.Errorf("Title() = %q", m.Title())
	}
	if len(m.Dependencies) != 2 {
		t.Errorf("dependency union = %v, want lodash+mocha", m.Dependencies)
	}
}

func TestRead_TitleFallsBackToName(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, `{"name": "plain"}`)
	m, ok := Read(root)
	if !ok || m.Title() != "plain" {
		t.Errorf("Title() = %q, ok = %v", m.Title(), ok)
	}
}

func TestRead_MissingOrInvalid(t *testing.T) {
	if _, ok := Read(t.TempDir()); ok {
		t.Error("missing manifest should not load")
	}

	root := t.TempDir()
	writeManifest(t, root, `{not json`)
	if _, ok := Read(root); ok {
		t.Error("invalid JSON should not load")
	}
}

func TestCheck_BlockedDependencies(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, `{
		"name": "x",
		"dependencies": {"keytar": "^7.0.0", "lodash": "^4.0.0"},
		"devDependencies": {"sudo-prompt": "^9.0.0"}
	}`)

	issues := Check(root, catalog.Default())
	if len(issues) != 2 {
		t.Fatalf("expected 2 issues, got %d: %+v", len(issues), issues)
	}
	for _, is := range issues {
		if is.Severity != model.SevMedium {
			t.Errorf("severity = %q, want medium", is.Severity)
		}
		if is.MessageKey != catalog.KeyBlockedDependency {
			t.Errorf("messageKey = %q", is.MessageKey)
		}
	}
	if issues[0].Details != "keytar" || issues[1].Details != "sudo-prompt" {
		t.Errorf("details = %q, %q", issues[0].Details, issues[1].Details)
	}
}

func TestCheck_NoManifestNoIssues(t *testing.T) {
	if issues := Check(t.TempDir(), catalog.Default()); issues != nil {
		t.Fatalf("expected no issues, got %+v", issues)
	}
}
