// Package scanner walks an extracted extension tree and applies the
// pattern catalog to every source file. Matching is regex-based, not
// semantic; it is a best-effort tripwire, not a security boundary.
package scanner

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/NikolaiRadke/Extension-Manager/internal/catalog"
	"github.com/NikolaiRadke/Extension-Manager/internal/model"
)

const (
	sourceExt = ".js"
	vendorDir = "node_modules"

	matchTruncate = 100
	maxFileBytes  = 10 << 20
)

// Scanner applies a catalog to extracted source trees.
type Scanner struct {
	cat    *catalog.Catalog
	ignore []string
}

// New builds a Scanner over the given catalog. extraIgnore carries
// gitignore-style patterns from the policy file.
func New(cat *catalog.Catalog, extraIgnore []string) *Scanner {
	return &Scanner{cat: cat, ignore: extraIgnore}
}

// Scan walks root and returns one issue per (file, rule) match plus one
// per file the obfuscation heuristic flags. Unreadable files are skipped
// silently; issues come back in file-enumeration order, then rule order.
func (s *Scanner) Scan(root string) []model.Issue {
	var issues []model.Issue
	for _, file := range s.collectSources(root) {
		b, err := os.ReadFile(file)
		if err != nil || len(b) > maxFileBytes {
			continue
		}
		content := string(b)
		rel, err := filepath.Rel(root, file)
		if err != nil {
			rel = file
		}
		rel = filepath.ToSlash(rel)
		issues = append(issues, s.scanContent(rel, content)...)
	}
	return issues
}

func (s *Scanner) scanContent(rel, content string) []model.Issue {
	var issues []model.Issue
	for _, rule := range s.cat.Rules {
		m := rule.Pattern.FindString(content)
		if m == "" {
			continue
		}
		switch rule.MessageKey {
		case catalog.KeyPathAccess:
			if m = firstDisallowedPath(rule, content, s.cat); m == "" {
				continue
			}
		case catalog.KeyNetworkAccess:
			if m = firstUntrustedURL(rule, content, s.cat); m == "" {
				continue
			}
		}
		issue := model.Issue{
			Severity:   rule.Severity,
			MessageKey: rule.MessageKey,
			File:       rel,
			Match:      truncate(m, matchTruncate),
		}
		if rule.MessageKey == catalog.KeyFileDeletion {
			issue.FullContent = content
		}
		issues = append(issues, issue)
	}
	if obfuscated(content) {
		issues = append(issues, model.Issue{
			Severity:   model.SevHigh,
			MessageKey: catalog.KeyObfuscatedCode,
			File:       rel,
		})
	}
	return issues
}

// firstDisallowedPath returns the first path match not covered by the
// allow-list, or "" when every match is allow-listed. An allow-listed
// token early in the file must not mask a sensitive access further down.
func firstDisallowedPath(rule catalog.Rule, content string, cat *catalog.Catalog) string {
	for _, m := range rule.Pattern.FindAllString(content, -1) {
		if !cat.Allowed(m) {
			return m
		}
	}
	return ""
}

// firstUntrustedURL returns the first URL match whose host is not on the
// trusted list, or "" when every matched host is trusted.
func firstUntrustedURL(rule catalog.Rule, content string, cat *catalog.Catalog) string {
	for _, m := range rule.Pattern.FindAllString(content, -1) {
		if !cat.TrustedHost(m) {
			return m
		}
	}
	return ""
}

// collectSources enumerates source files under root in sorted order,
// never recursing into the vendored dependency directory. Only the
// operator's policy patterns are honored; anything inside root is
// untrusted bundle content and must not influence what gets scanned.
func (s *Scanner) collectSources(root string) []string {
	var matcher *ignore.GitIgnore
	if len(s.ignore) > 0 {
		matcher = ignore.CompileIgnoreLines(s.ignore...)
	}

	var out []string
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		rel, rerr := filepath.Rel(root, path)
		if rerr != nil {
			rel = path
		}
		if d.IsDir() {
			if d.Name() == vendorDir || d.Name() == ".git" {
				return filepath.SkipDir
			}
			if matcher != nil && path != root && matcher.MatchesPath(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if matcher != nil && matcher.MatchesPath(rel) {
			return nil
		}
		if strings.EqualFold(filepath.Ext(d.Name()), sourceExt) {
			out = append(out, path)
		}
		return nil
	})
	sort.Strings(out)
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
