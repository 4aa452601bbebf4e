package catalog

import (
	"regexp"
	"strings"

	"github.com/NikolaiRadke/Extension-Manager/internal/model"
)

// KeyPathAccess marks the one rule whose matches are re-checked against
// the allow-list before an issue is emitted.
const KeyPathAccess = "security.sensitivePathAccess"

// KeyFileDeletion marks deletion findings; the report formatter extracts
// the deleted directories from file content for this key only.
const KeyFileDeletion = "security.fileDeletion"

// KeyBlockedDependency is emitted by the manifest checker.
const KeyBlockedDependency = "security.blockedDependency"

// KeyLargeExtension is appended by the orchestrator's size check.
const KeyLargeExtension = "security.largeExtension"

// KeyObfuscatedCode is emitted by the obfuscation heuristic.
const KeyObfuscatedCode = "security.obfuscatedCode"

// KeyNetworkAccess marks outbound-request findings; matches are
// filtered against the trusted domain list before an issue is emitted.
const KeyNetworkAccess = "security.networkAccess"

// Rule pairs a suspicious-code pattern with the severity and message key
// of the issue it produces. Rules are immutable after catalog build.
type Rule struct {
	Pattern    *regexp.Regexp
	MessageKey string
	Severity   model.Severity
}

// Catalog is the fixed, ordered rule set applied to every scanned file,
// plus the allow and block lists consulted alongside it. Build once via
// Default or Load and share; all fields are read-only after construction.
type Catalog struct {
	Rules          []Rule
	AllowList      []*regexp.Regexp
	BlockedDeps    map[string]struct{}
	TrustedDomains []string
}

func must(p string) *regexp.Regexp { return regexp.MustCompile(p) }

// defaultTrustedDomains are hosts an extension may contact without
// raising a network finding. Marketplace and update endpoints, mostly.
var defaultTrustedDomains = []string{
	"marketplace.visualstudio.com",
	"vscode.dev",
	"code.visualstudio.com",
	"update.code.visualstudio.com",
	"api.github.com",
	"github.com",
	"raw.githubusercontent.com",
	"registry.npmjs.org",
	"localhost",
	"127.0.0.1",
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c := &Catalog{
		Rules: []Rule{
			// Dynamic code execution.
			{must(`\beval\s*\(`), "security.codeExecution", model.SevCritical},
			{must(`new\s+Function\s*\(\s*["'\x60]`), "security.dynamicFunction", model.SevCritical},
			{must(`(?:import|require)\s*\(\s*["'\x60]https?://[^"'\x60]+["'\x60]`), "security.remoteImport", model.SevCritical},

			// Shell and process execution.
			{must(`\b(?:child_process|execSync|spawnSync|execFile)\b|\b(?:exec|spawn|fork)\s*\(`), "security.processExecution", model.SevHigh},

			// Sensitive user paths: key material, cloud credentials,
			// keyrings, and common document folders. The match extends
			// left over the whole path token so the allow-list sees the
			// owning directory.
			{must(`[\w~$%{}.\\/-]*(?:\.ssh\b|\.aws\b|\.gnupg\b|\.azure\b|\.kube\b|id_rsa\b|id_ed25519\b|[/\\]Documents\b|[/\\]Desktop\b|[/\\]Downloads\b)[\w.\\/-]*`), KeyPathAccess, model.SevHigh},

			// Outbound requests; the scanner drops matches whose host is
			// on the trusted domain list.
			{must(`https?://[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}(?:[:/][^\s"'\x60)]*)?`), KeyNetworkAccess, model.SevMedium},

			// Recursive or forced deletion.
			{must(`rm\s+-r?f[a-z]*\s|rimraf|\brmdir(?:Sync)?\s*\([^)]*recursive|\brm(?:Sync)?\s*\([^)]*(?:recursive|force)|fs-extra[^\n]*\bremove`), KeyFileDeletion, model.SevMedium},
		},
		AllowList: []*regexp.Regexp{
			// Dot-directories named like tooling state dirs. The suffix
			// heuristic is broad on purpose and extendable via the policy
			// file; see Load.
			must(`(?i)\.[\w-]*(?:plus|ide|manager|helper)\b`),
			must(`(?i)\.(?:vscode|config|cache|local[/\\]share)\b`),
		},
		BlockedDeps: map[string]struct{}{
			"keytar":          {},
			"node-keytar":     {},
			"child-killer":    {},
			"sudo-prompt":     {},
			"node-powershell": {},
		},
		TrustedDomains: append([]string{}, defaultTrustedDomains...),
	}
	return c
}

// Allowed reports whether a path-access match is covered by the
// allow-list and should be suppressed.
func (c *Catalog) Allowed(match string) bool {
	for _, re := range c.AllowList {
		if re.MatchString(match) {
			return true
		}
	}
	return false
}

// Blocked reports whether a dependency name is on the block list.
func (c *Catalog) Blocked(name string) bool {
	_, ok := c.BlockedDeps[strings.TrimSpace(name)]
	return ok
}

// TrustedHost reports whether a matched URL points at a trusted domain.
// Network findings against trusted hosts are suppressed.
func (c *Catalog) TrustedHost(match string) bool {
	host := match
	if i := strings.Index(host, "://"); i >= 0 {
		host = host[i+3:]
	}
	if i := strings.IndexAny(host, "/:"); i >= 0 {
		host = host[:i]
	}
	host = strings.ToLower(host)
	for _, d := range c.TrustedDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}
