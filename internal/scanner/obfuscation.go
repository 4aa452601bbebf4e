package scanner

import "regexp"

// Obfuscation heuristic. Four independent indicators; content is flagged
// only when at least two are present, since legitimate minified code
// routinely trips a single one. Best effort, not proof.
var (
	reHexIdent   = regexp.MustCompile(`_0x[0-9a-fA-F]{4,}`)
	reHexEscape  = regexp.MustCompile(`\\x[0-9a-fA-F]{2}`)
	reEval       = regexp.MustCompile(`\beval\s*\(`)
	reBase64     = regexp.MustCompile(`\batob\s*\(|Buffer\.from\s*\([^)]*["']base64["']|\bbase64_?decode\b`)
	reShortIndex = regexp.MustCompile(`\b[a-zA-Z]{1,2}\[(?:'[^']+'|"[^"]+")\]`)
)

// shortIndexThreshold is how many bracket-indexed short-identifier
// accesses count as a minifier/obfuscator artifact.
const shortIndexThreshold = 5

func obfuscated(content string) bool {
	hits := 0
	if reHexIdent.MatchString(content) {
		hits++
	}
	if reHexEscape.MatchString(content) {
		hits++
	}
	if reEval.MatchString(content) && reBase64.MatchString(content) {
		hits++
	}
	if len(reShortIndex.FindAllString(content, shortIndexThreshold)) >= shortIndexThreshold {
		hits++
	}
	return hits >= 2
}
