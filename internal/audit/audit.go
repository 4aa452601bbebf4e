// Package audit coordinates one security scan of a candidate bundle:
// extraction into a disposable scratch directory, code and manifest
// checks, size check, result assembly, and guaranteed cleanup.
package audit

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/NikolaiRadke/Extension-Manager/internal/archive"
	"github.com/NikolaiRadke/Extension-Manager/internal/catalog"
	"github.com/NikolaiRadke/Extension-Manager/internal/manifest"
	"github.com/NikolaiRadke/Extension-Manager/internal/model"
	"github.com/NikolaiRadke/Extension-Manager/internal/scanner"
)

// BundleExt is the expected bundle archive extension.
const BundleExt = ".vsix"

// MaxBundleBytes is the size threshold for the low-severity size issue.
// Strictly greater triggers.
const MaxBundleBytes int64 = 50 * 1024 * 1024

// ErrInvalidBundle rejects a scan before any extraction is attempted.
var ErrInvalidBundle = errors.New("not a valid extension bundle")

// Extractor unpacks a bundle archive into a directory.
type Extractor interface {
	Extract(archivePath, targetDir string) error
}

// Auditor runs bundle scans. Workspace is the parent for per-scan
// scratch directories; every scan uses its own uniquely named child and
// removes it again on every code path.
type Auditor struct {
	Workspace string
	Extractor Extractor
	Scanner   *scanner.Scanner
	Catalog   *catalog.Catalog
	Log       *zap.SugaredLogger
}

// New wires an Auditor over the default tool chain.
func New(workspace string, cat *catalog.Catalog, ignore []string, log *zap.SugaredLogger) *Auditor {
	return &Auditor{
		Workspace: workspace,
		Extractor: archive.New(),
		Scanner:   scanner.New(cat, ignore),
		Catalog:   cat,
		Log:       log,
	}
}

// Scan analyzes the bundle at bundlePath and returns a ScanResult. The
// only fatal failure is extraction: it propagates after cleanup, and the
// caller must treat it as "could not analyze", never as safe. Everything
// else degrades to "no finding".
func (a *Auditor) Scan(bundlePath string) (model.ScanResult, error) {
	info, err := os.Stat(bundlePath)
	if err != nil || info.IsDir() || !strings.EqualFold(filepath.Ext(bundlePath), BundleExt) {
		return model.ScanResult{}, fmt.Errorf("%w: %s", ErrInvalidBundle, bundlePath)
	}

	// Unique scratch dir per scan so concurrent scans never collide.
	scratch := filepath.Join(a.Workspace, fmt.Sprintf("scan-%d-%s", time.Now().UnixNano(), uuid.NewString()[:8]))
	defer func() {
		if err := os.RemoveAll(scratch); err != nil {
			a.Log.Warnw("scratch cleanup failed", "dir", scratch, "error", err)
		}
	}()

	// Work on a copy so the original bundle is never touched.
	staged := filepath.Join(scratch, filepath.Base(bundlePath))
	if err := copyFile(bundlePath, staged); err != nil {
		return model.ScanResult{}, fmt.Errorf("stage bundle: %w", err)
	}

	extracted := filepath.Join(scratch, "extracted")
	if err := a.Extractor.Extract(staged, extracted); err != nil {
		a.Log.Errorw("extraction failed", "bundle", bundlePath, "error", err)
		return model.ScanResult{}, err
	}

	issues := a.Scanner.Scan(extracted)
	issues = append(issues, manifest.Check(extracted, a.Catalog)...)

	if oversized(info.Size()) {
		issues = append(issues, model.Issue{
			Severity:   model.SevLow,
			MessageKey: catalog.KeyLargeExtension,
			Details:    HumanSize(info.Size()),
		})
	}

	result := model.ScanResult{
		Safe:   len(issues) == 0,
		Issues: issues,
	}
	if m, ok := manifest.Read(extracted); ok {
		result.ExtensionName = m.Title()
	}
	keys := make([]string, 0, len(issues))
	for _, is := range issues {
		keys = append(keys, is.MessageKey)
	}
	result.Details = strings.Join(keys, "\n")

	a.Log.Infow("scan finished", "bundle", bundlePath, "issues", len(issues), "safe", result.Safe)
	return result, nil
}

// oversized reports whether a bundle exceeds the size threshold.
// Exactly MaxBundleBytes is still fine; one byte more is not.
func oversized(n int64) bool {
	return n > MaxBundleBytes
}

// HumanSize renders a byte count for display, e.g. "52.4 MB".
func HumanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGT"[exp])
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
