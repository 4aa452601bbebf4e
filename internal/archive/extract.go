// Package archive unpacks extension bundles. Bundles are zip-compatible
// containers; extraction shells out to the system unzip tool and falls
// back to tar, which reads zip archives on most platforms. Nothing from
// the archive is ever executed.
package archive

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// ErrExtraction is the one fatal-to-scan failure: no available tool
// could unpack the bundle. Callers must treat it as "could not analyze",
// never as "safe".
var ErrExtraction = errors.New("archive extraction failed")

// Extractor unpacks bundle archives with external tools. The zero value
// uses unzip with a tar fallback; tests override the tool names.
type Extractor struct {
	Primary  string
	Fallback string
}

// New returns an Extractor using the default tool chain.
func New() *Extractor {
	return &Extractor{Primary: "unzip", Fallback: "tar"}
}

// Extract unpacks archivePath into targetDir, creating the directory if
// absent.
func (e *Extractor) Extract(archivePath, targetDir string) error {
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return fmt.Errorf("create target dir: %w", err)
	}

	primaryErr := run(e.Primary, "-o", "-q", archivePath, "-d", targetDir)
	if primaryErr == nil {
		return nil
	}
	fallbackErr := run(e.Fallback, "-xf", archivePath, "-C", targetDir)
	if fallbackErr == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %v; %s: %v", ErrExtraction, e.Primary, primaryErr, e.Fallback, fallbackErr)
}

func run(tool string, args ...string) error {
	cmd := exec.Command(tool, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if stderr.Len() > 0 {
			return fmt.Errorf("%v: %s", err, bytes.TrimSpace(stderr.Bytes()))
		}
		return err
	}
	return nil
}
