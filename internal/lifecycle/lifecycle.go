// Package lifecycle manages installed extensions on disk: install with a
// preceding security scan, enable/disable by moving between subtrees,
// uninstall honoring the bundle's uninstall descriptor, and upgrade.
package lifecycle

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/NikolaiRadke/Extension-Manager/internal/audit"
	"github.com/NikolaiRadke/Extension-Manager/internal/manifest"
	"github.com/NikolaiRadke/Extension-Manager/internal/report"
)

const (
	installedDir = "installed"
	disabledDir  = "disabled"

	// uninstallFile is the optional per-extension descriptor naming
	// extra files and state to remove on uninstall.
	uninstallFile = "uninstall.json"
)

// ErrDeclined is returned when the confirm callback rejects an install
// of a bundle the scanner flagged.
var ErrDeclined = errors.New("installation declined")

// ErrNotInstalled is returned for operations on unknown extensions.
var ErrNotInstalled = errors.New("extension not installed")

// Confirm decides whether to proceed after the user has seen the risk
// report. The scanner is advisory; this callback is the actual gate.
type Confirm func(reportText string) bool

// Manager operates on an extensions root directory holding installed/
// and disabled/ subtrees.
type Manager struct {
	Root      string
	Auditor   *audit.Auditor
	Formatter *report.Formatter
	Extractor audit.Extractor
	Log       *zap.SugaredLogger
}

// Installed describes one extension on disk.
type Installed struct {
	Name      string
	Version   string
	Publisher string
	Enabled   bool
}

// Install scans bundlePath, asks confirm when the scan found issues, and
// unpacks the bundle under installed/. An extraction failure blocks the
// install outright: a bundle that cannot be analyzed is never installed.
func (m *Manager) Install(bundlePath string, confirm Confirm) (string, error) {
	result, err := m.Auditor.Scan(bundlePath)
	if err != nil {
		return "", fmt.Errorf("scan %s: %w", bundlePath, err)
	}

	// The manifest name is untrusted bundle content; it may only ever be
	// a single path element under installed/, never a traversal.
	name := result.ExtensionName
	if !validName(name) {
		name = strings.TrimSuffix(filepath.Base(bundlePath), filepath.Ext(bundlePath))
	}

	if !result.Safe {
		text := m.Formatter.Format(result, name)
		if confirm == nil || !confirm(text) {
			m.Log.Infow("install declined", "extension", name, "issues", len(result.Issues))
			return "", fmt.Errorf("%s: %w", name, ErrDeclined)
		}
	}

	dest := filepath.Join(m.Root, installedDir, name)
	if err := os.RemoveAll(dest); err != nil {
		return "", fmt.Errorf("clear %s: %w", dest, err)
	}
	if err := m.Extractor.Extract(bundlePath, dest); err != nil {
		return "", fmt.Errorf("install %s: %w", name, err)
	}
	m.Log.Infow("extension installed", "extension", name, "dir", dest)
	return name, nil
}

// Enable moves an extension from disabled/ back to installed/.
func (m *Manager) Enable(name string) error {
	return m.move(name, disabledDir, installedDir)
}

// Disable moves an extension from installed/ to disabled/ without
// removing any of its files.
func (m *Manager) Disable(name string) error {
	return m.move(name, installedDir, disabledDir)
}

func (m *Manager) move(name, from, to string) error {
	src := filepath.Join(m.Root, from, name)
	if _, err := os.Stat(src); err != nil {
		return fmt.Errorf("%s: %w", name, ErrNotInstalled)
	}
	dst := filepath.Join(m.Root, to, name)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("move %s: %w", name, err)
	}
	m.Log.Infow("extension moved", "extension", name, "state", to)
	return nil
}

// Uninstall removes an extension from either subtree, plus anything its
// uninstall descriptor lists. Listed paths are resolved inside the
// extensions root only; the descriptor cannot reach outside it.
func (m *Manager) Uninstall(name string, confirm Confirm) error {
	dir := m.find(name)
	if dir == "" {
		return fmt.Errorf("%s: %w", name, ErrNotInstalled)
	}

	desc := readUninstall(dir)
	if desc.ConfirmPolicy == "always" && confirm != nil && !confirm(name) {
		return fmt.Errorf("%s: %w", name, ErrDeclined)
	}

	for _, rel := range append(desc.Directories, desc.Files...) {
		p := filepath.Join(m.Root, filepath.FromSlash(rel))
		if !strings.HasPrefix(p, filepath.Clean(m.Root)+string(os.PathSeparator)) {
			m.Log.Warnw("uninstall descriptor path outside root, skipped", "path", rel)
			continue
		}
		if err := os.RemoveAll(p); err != nil {
			m.Log.Warnw("uninstall cleanup failed", "path", p, "error", err)
		}
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("uninstall %s: %w", name, err)
	}
	m.Log.Infow("extension uninstalled", "extension", name)
	return nil
}

// Upgrade replaces an installed extension with a new bundle. The new
// bundle is scanned like any fresh install.
func (m *Manager) Upgrade(bundlePath string, confirm Confirm) (string, error) {
	name, err := m.Install(bundlePath, confirm)
	if err != nil {
		return "", err
	}
	// A previously disabled copy of the same extension is now stale.
	_ = os.RemoveAll(filepath.Join(m.Root, disabledDir, name))
	return name, nil
}

// List returns every extension in both subtrees with manifest metadata
// where available.
func (m *Manager) List() []Installed {
	var out []Installed
	for _, state := range []struct {
		dir     string
		enabled bool
	}{{installedDir, true}, {disabledDir, false}} {
		entries, err := os.ReadDir(filepath.Join(m.Root, state.dir))
		if err != nil {
			continue
		}
		for _, e := range entries {
			if !e.IsDir() {
				continue
			}
			item := Installed{Name: e.Name(), Enabled: state.enabled}
			if man, ok := manifest.Read(filepath.Join(m.Root, state.dir, e.Name())); ok {
				item.Version = man.Version
				item.Publisher = man.Publisher
			}
			out = append(out, item)
		}
	}
	return out
}

// validName reports whether name is usable as a directory name: one
// clean path element, no separators, no traversal.
func validName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, `/\`) {
		return false
	}
	return filepath.Base(filepath.Clean(name)) == name
}

func (m *Manager) find(name string) string {
	for _, sub := range []string{installedDir, disabledDir} {
		dir := filepath.Join(m.Root, sub, name)
		if st, err := os.Stat(dir); err == nil && st.IsDir() {
			return dir
		}
	}
	return ""
}

// uninstallSpec mirrors the optional uninstall.json descriptor. The
// global-state and settings keys are recorded for the host IDE; this
// manager only acts on the file lists.
type uninstallSpec struct {
	Files         []string
	Directories   []string
	GlobalState   []string
	Settings      []string
	ConfirmPolicy string
}

func readUninstall(extensionDir string) uninstallSpec {
	b, err := os.ReadFile(filepath.Join(extensionDir, uninstallFile))
	if err != nil || !gjson.ValidBytes(b) {
		return uninstallSpec{}
	}
	doc := string(b)
	collect := func(path string) []string {
		var out []string
		gjson.Get(doc, path).ForEach(func(_, v gjson.Result) bool {
			out = append(out, v.String())
			return true
		})
		return out
	}
	return uninstallSpec{
		Files:         collect("files"),
		Directories:   collect("directories"),
		GlobalState:   collect("globalState"),
		Settings:      collect("settings"),
		ConfirmPolicy: gjson.Get(doc, "confirm").String(),
	}
}
