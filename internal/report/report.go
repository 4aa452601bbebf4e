// Package report renders a ScanResult into the severity-grouped,
// deduplicated text shown to the human making the install decision. One
// finding type collapses to one line no matter how many files tripped
// it; extra detail lands in sub-bullets.
package report

import (
	"regexp"
	"sort"
	"strings"

	"github.com/NikolaiRadke/Extension-Manager/internal/catalog"
	"github.com/NikolaiRadke/Extension-Manager/internal/i18n"
	"github.com/NikolaiRadke/Extension-Manager/internal/model"
)

// reDotDirLiteral finds quoted dot-directory literals (".ssh", ".gnupg")
// of length >= 5 inside captured file content. Attacker-controlled text,
// used only transiently to list the directories a deletion would hit.
var reDotDirLiteral = regexp.MustCompile(`["'](\.[\w.-]{4,})["']`)

// Formatter renders scan results through a translation service.
type Formatter struct {
	tr *i18n.Translator
}

// New builds a Formatter over the given translator.
func New(tr *i18n.Translator) *Formatter {
	return &Formatter{tr: tr}
}

// Format renders result as display text for the named bundle.
func (f *Formatter) Format(result model.ScanResult, displayName string) string {
	if result.Safe {
		return f.tr.T("security.noIssues", displayName)
	}

	var b strings.Builder
	b.WriteString(f.tr.T("security.reportHeader", displayName))
	b.WriteString("\n")

	for _, sev := range model.SeverityOrder {
		var filtered []model.Issue
		for _, is := range result.Issues {
			if is.Severity == sev {
				filtered = append(filtered, is)
			}
		}
		if len(filtered) == 0 {
			continue
		}

		b.WriteString(f.tr.T("security.severity." + string(sev)))
		b.WriteString(":\n")

		for _, group := range groupByKey(filtered) {
			b.WriteString("- ")
			b.WriteString(f.label(group))
			b.WriteString("\n")
			for _, p := range deletedPaths(group) {
				b.WriteString("    • ")
				b.WriteString(p)
				b.WriteString("\n")
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

// label builds a group's single display line: the message-key
// description, augmented with the matched path for path-access findings
// and with free-form details in parentheses.
func (f *Formatter) label(group []model.Issue) string {
	first := group[0]
	descKey := descKeyFor(first.MessageKey)
	if first.MessageKey == catalog.KeyPathAccess {
		return f.tr.T(descKey, first.Match)
	}
	text := f.tr.T(descKey)
	if first.Details != "" {
		text += " (" + first.Details + ")"
	}
	return text
}

// descKeyFor maps a finding key to its description key:
// security.fileDeletion -> security.desc.fileDeletion.
func descKeyFor(messageKey string) string {
	if i := strings.LastIndex(messageKey, "."); i >= 0 {
		return messageKey[:i] + ".desc" + messageKey[i:]
	}
	return messageKey
}

// groupByKey splits issues into per-messageKey groups in
// first-encountered order.
func groupByKey(issues []model.Issue) [][]model.Issue {
	var order []string
	byKey := map[string][]model.Issue{}
	for _, is := range issues {
		if _, seen := byKey[is.MessageKey]; !seen {
			order = append(order, is.MessageKey)
		}
		byKey[is.MessageKey] = append(byKey[is.MessageKey], is)
	}
	groups := make([][]model.Issue, 0, len(order))
	for _, key := range order {
		groups = append(groups, byKey[key])
	}
	return groups
}

// deletedPaths collects the union of dot-directory literals embedded in
// a deletion group's file content, normalized to ~/name, deduplicated
// and sorted. Empty for every other finding type.
func deletedPaths(group []model.Issue) []string {
	if group[0].MessageKey != catalog.KeyFileDeletion {
		return nil
	}
	set := map[string]struct{}{}
	for _, is := range group {
		for _, m := range reDotDirLiteral.FindAllStringSubmatch(is.FullContent, -1) {
			set["~/"+m[1]] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
