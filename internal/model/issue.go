package model

// Severity is an ordinal risk tier, critical being the most severe.
type Severity string

const (
	SevCritical Severity = "critical"
	SevHigh     Severity = "high"
	SevMedium   Severity = "medium"
	SevLow      Severity = "low"
)

// SeverityOrder lists all severities from most to least severe. Report
// sections are emitted in this order.
var SeverityOrder = []Severity{SevCritical, SevHigh, SevMedium, SevLow}

// Rank returns the position of s in SeverityOrder (0 = most severe).
// Unknown severities sort last.
func (s Severity) Rank() int {
	for i, sev := range SeverityOrder {
		if s == sev {
			return i
		}
	}
	return len(SeverityOrder)
}

// Issue is one detected suspicious condition. MessageKey resolves to
// display text through the translation service; the scanner itself never
// carries user-facing strings.
type Issue struct {
	Severity   Severity `json:"severity"`
	MessageKey string   `json:"messageKey"`
	File       string   `json:"file,omitempty"`    // relative to the extraction root
	Match      string   `json:"match,omitempty"`   // first 100 chars of the matched substring
	Details    string   `json:"details,omitempty"` // dependency name, size, ...

	// FullContent holds the matched file's content so the report formatter
	// can extract embedded sub-paths (deleted directories). It is
	// attacker-controlled; never persist, log or serialize it.
	FullContent string `json:"-"`
}

// ScanResult is the outcome of one bundle scan. Safe is true iff Issues
// is empty. Results are assembled once and never mutated afterwards.
type ScanResult struct {
	Safe          bool    `json:"safe"`
	Issues        []Issue `json:"issues"`
	Details       string  `json:"details"`
	ExtensionName string  `json:"extensionName,omitempty"`
}
