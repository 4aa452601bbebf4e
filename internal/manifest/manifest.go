// Package manifest reads the extension manifest inside an extracted
// bundle and screens its declared dependencies. The manifest is
// untrusted JSON, so reads are tolerant: a missing or broken file is
// never an error here, it just yields no data.
package manifest

import (
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"

	"github.com/NikolaiRadke/Extension-Manager/internal/catalog"
	"github.com/NikolaiRadke/Extension-Manager/internal/model"
)

// Path is the manifest location relative to the extraction root.
const Path = "extension/package.json"

// Manifest holds the fields the workflow cares about. Dependencies is
// the union of runtime and development dependencies.
type Manifest struct {
	Name         string
	DisplayName  string
	Version      string
	Publisher    string
	Description  string
	Dependencies []string
}

// Read loads the manifest under extractedRoot. ok is false when the
// file is absent or not valid JSON.
func Read(extractedRoot string) (Manifest, bool) {
	b, err := os.ReadFile(filepath.Join(extractedRoot, filepath.FromSlash(Path)))
	if err != nil || !gjson.ValidBytes(b) {
		return Manifest{}, false
	}
	doc := string(b)
	m := Manifest{
		Name:        gjson.Get(doc, "name").String(),
		DisplayName: gjson.Get(doc, "displayName").String(),
		Version:     gjson.Get(doc, "version").String(),
		Publisher:   gjson.Get(doc, "publisher").String(),
		Description: gjson.Get(doc, "description").String(),
	}
	for _, field := range []string{"dependencies", "devDependencies"} {
		gjson.Get(doc, field).ForEach(func(key, _ gjson.Result) bool {
			m.Dependencies = append(m.Dependencies, key.String())
			return true
		})
	}
	return m, true
}

// Title returns the best display name for the extension: displayName,
// falling back to name.
func (m Manifest) Title() string {
	if m.DisplayName != "" {
		return m.DisplayName
	}
	return m.Name
}

// Check screens the manifest's dependency union against the catalog's
// block list, one medium issue per blocked name. A missing manifest
// yields no issues; its absence is reported elsewhere.
func Check(extractedRoot string, cat *catalog.Catalog) []model.Issue {
	m, ok := Read(extractedRoot)
	if !ok {
		return nil
	}
	var issues []model.Issue
	for _, dep := range m.Dependencies {
		if cat.Blocked(dep) {
			issues = append(issues, model.Issue{
				Severity:   model.SevMedium,
				MessageKey: catalog.KeyBlockedDependency,
				Details:    dep,
			})
		}
	}
	return issues
}
